package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"relay-bridge/backend/pkg/utils"
)

const (
	// DefaultAckTimeout is how long an issued command waits for its
	// acknowledgment before failing.
	DefaultAckTimeout = 10 * time.Second

	// DefaultSweepInterval is how often the expiry sweep runs.
	DefaultSweepInterval = 5 * time.Second

	// DefaultMaxPendingAge is the age beyond which the sweep force-expires
	// a pending command. A safety net against timer loss, not the primary
	// timeout mechanism.
	DefaultMaxPendingAge = 15 * time.Second
)

// StoreWriter writes a record to a store path. The control path is a single
// slot: each write supersedes whatever record is currently there, so callers
// must not assume previously unacknowledged commands remain visible to the
// device.
type StoreWriter interface {
	Write(path string, record any) error
}

// Result is the terminal outcome of an issued command: either an
// acknowledgment payload or an error, never both.
type Result struct {
	Ack Ack
	Err error
}

// Handle tracks an in-flight command until its single terminal event
// (acknowledgment match, timeout, or sweep expiry).
type Handle struct {
	ID   string
	Type string

	done chan Result
}

// Done returns a channel that receives the terminal result exactly once.
// The channel is buffered, so a caller dropping interest does not prevent
// the registry from reclaiming the entry.
func (h *Handle) Done() <-chan Result {
	return h.done
}

// Wait blocks until the command reaches its terminal state or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Ack, error) {
	select {
	case res := <-h.done:
		return res.Ack, res.Err
	case <-ctx.Done():
		return Ack{}, ctx.Err()
	}
}

type pendingCommand struct {
	handle   *Handle
	issuedAt time.Time
	timer    *time.Timer
}

// RegistryOptions configures a Registry. Zero durations fall back to the
// package defaults; a nil clock falls back to time.Now.
type RegistryOptions struct {
	ControlPath   string
	AckTimeout    time.Duration
	SweepInterval time.Duration
	MaxPendingAge time.Duration
	Clock         func() time.Time
}

// Registry tracks in-flight commands by correlation ID and dispatches them to
// the device control slot. The ID-to-entry map is the only shared mutable
// state; all transitions are serialized through its mutex, and each entry
// sees exactly one terminal event.
type Registry struct {
	l           *slog.Logger
	store       StoreWriter
	controlPath string
	clock       func() time.Time

	ackTimeout    time.Duration
	sweepInterval time.Duration
	maxPendingAge time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCommand
}

// NewRegistry creates a command registry writing to the given control slot.
func NewRegistry(l *slog.Logger, store StoreWriter, opts RegistryOptions) *Registry {
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = DefaultAckTimeout
	}

	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	if opts.MaxPendingAge <= 0 {
		opts.MaxPendingAge = DefaultMaxPendingAge
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Registry{
		l:             l.With(slog.String("component", "command-registry")),
		store:         store,
		controlPath:   opts.ControlPath,
		clock:         opts.Clock,
		ackTimeout:    opts.AckTimeout,
		sweepInterval: opts.SweepInterval,
		maxPendingAge: opts.MaxPendingAge,
		pending:       make(map[string]*pendingCommand),
	}
}

// NewCommandID generates a process-unique correlation ID: a UUIDv7 combines a
// wall-clock component with a random suffix, so concurrent calls never
// collide within the practical lifetime of the system.
func NewCommandID() string {
	return utils.NewUUID()
}

// Issue registers a pending command and writes it to the control slot. The
// registration happens before the write so an acknowledgment arriving
// unexpectedly fast is never missed. A failed write fails the handle
// immediately without waiting for the timeout.
func (r *Registry) Issue(cmdType string, payload map[string]any) *Handle {
	id := NewCommandID()
	now := r.clock()

	handle := &Handle{
		ID:   id,
		Type: cmdType,
		done: make(chan Result, 1),
	}

	entry := &pendingCommand{handle: handle, issuedAt: now}

	r.mu.Lock()
	r.pending[id] = entry
	entry.timer = time.AfterFunc(r.ackTimeout, func() {
		r.terminate(id, Result{Err: &CommandTimeoutError{Type: cmdType}})
	})
	r.mu.Unlock()

	record := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		record[k] = v
	}

	record["command"] = cmdType
	record["commandId"] = id
	record["timestamp"] = now.Unix()

	r.l.Info("issuing command", slog.String("commandId", id), slog.String("type", cmdType))

	if err := r.store.Write(r.controlPath, record); err != nil {
		r.terminate(id, Result{Err: fmt.Errorf("%w: %s: %w", ErrCommandWriteFailed, cmdType, err)})
	}

	return handle
}

// Resolve delivers an acknowledgment to its pending command, if any. Results
// other than the known success outcomes reject the handle with the device
// result as the reason. Returns false when no live entry matches, in which
// case the acknowledgment is a no-op for the registry.
func (r *Registry) Resolve(ack Ack) bool {
	res := Result{Ack: ack}
	if ack.Result != AckResultSuccess && ack.Result != AckResultNoChangeRequired {
		res = Result{Err: &CommandRejectedError{Type: ack.Type, Reason: ack.Result}}
	}

	return r.terminate(ack.CommandID, res)
}

// PendingCount reports the number of in-flight commands.
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}

// Run executes the periodic expiry sweep until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep force-expires entries older than maxPendingAge.
func (r *Registry) sweep() {
	cutoff := r.clock().Add(-r.maxPendingAge)

	r.mu.Lock()
	var expired []*Handle

	for id, entry := range r.pending {
		if entry.issuedAt.Before(cutoff) {
			expired = append(expired, entry.handle)

			entry.timer.Stop()
			delete(r.pending, id)
		}
	}
	r.mu.Unlock()

	for _, handle := range expired {
		r.l.Warn("expiring stale command", slog.String("commandId", handle.ID), slog.String("type", handle.Type))
		handle.done <- Result{Err: &CommandTimeoutError{Type: handle.Type}}
	}
}

// terminate removes the entry and delivers its single terminal result.
// Removal under the mutex makes resolution idempotent: once terminal, all
// later events referencing the ID are no-ops.
func (r *Registry) terminate(id string, res Result) bool {
	r.mu.Lock()
	entry, ok := r.pending[id]
	if ok {
		entry.timer.Stop()
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	if res.Err != nil {
		r.l.Warn("command failed", slog.String("commandId", id), slog.String("type", entry.handle.Type), utils.ErrAttr(res.Err))
	}

	entry.handle.done <- res

	return true
}
