package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"relay-bridge/backend/pkg/utils"
)

// LivenessState is the inferred reachability of the device, derived purely
// from the cadence of accepted telemetry and subscription errors.
type LivenessState int

const (
	// StateConnecting is the initial state before any telemetry has ever
	// been accepted.
	StateConnecting LivenessState = iota
	// StateConnected means telemetry was accepted recently.
	StateConnected
	// StateDisconnected means telemetry has gone stale or the subscription
	// failed.
	StateDisconnected
)

func (s LivenessState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

const (
	// DefaultCheckInterval is how often staleness is evaluated.
	DefaultCheckInterval = 5 * time.Second

	// DefaultStaleAfter is how long without accepted telemetry the device
	// is considered disconnected.
	DefaultStaleAfter = 15 * time.Second

	// DefaultMaxRetries bounds automatic resubscription attempts; beyond
	// it the monitor stays disconnected until an external restart.
	DefaultMaxRetries = 5
)

// Resubscriber re-establishes the store subscription after a store-level
// error.
type Resubscriber func() error

// MonitorOptions configures a Monitor. Zero values fall back to the package
// defaults.
type MonitorOptions struct {
	CheckInterval time.Duration
	StaleAfter    time.Duration
	MaxRetries    int
	Clock         func() time.Time
	OnChange      func(LivenessState)
}

// Monitor is a timer-driven state machine over the time of the last accepted
// telemetry update.
type Monitor struct {
	l           *slog.Logger
	resubscribe Resubscriber
	clock       func() time.Time
	onChange    func(LivenessState)

	checkInterval time.Duration
	staleAfter    time.Duration
	maxRetries    int

	mu           sync.Mutex
	state        LivenessState
	lastAccepted time.Time
	everAccepted bool
	retryCount   int
}

// NewMonitor creates a liveness monitor. resubscribe is invoked after backoff
// when the store reports a subscription error.
func NewMonitor(l *slog.Logger, resubscribe Resubscriber, opts MonitorOptions) *Monitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}

	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}

	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Monitor{
		l:             l.With(slog.String("component", "liveness-monitor")),
		resubscribe:   resubscribe,
		clock:         opts.Clock,
		onChange:      opts.OnChange,
		checkInterval: opts.CheckInterval,
		staleAfter:    opts.StaleAfter,
		maxRetries:    opts.MaxRetries,
		state:         StateConnecting,
	}
}

// BackoffDelay returns the resubscription delay for the given retry count.
func BackoffDelay(retryCount int) time.Duration {
	return time.Duration(1<<retryCount) * time.Second
}

// MarkAccepted records an accepted telemetry update: the device is connected,
// the staleness clock restarts, and the retry budget resets.
func (m *Monitor) MarkAccepted() {
	m.mu.Lock()
	m.lastAccepted = m.clock()
	m.everAccepted = true
	m.retryCount = 0
	changed := m.transition(StateConnected)
	m.mu.Unlock()

	if changed != nil {
		changed()
	}
}

// OnSubscriptionError handles a store-level subscription failure: the device
// is considered disconnected and resubscription is scheduled with exponential
// backoff, up to maxRetries attempts. Beyond the budget the monitor stays
// disconnected until Restart is called.
func (m *Monitor) OnSubscriptionError(err error) {
	m.mu.Lock()
	changed := m.transition(StateDisconnected)

	if m.retryCount >= m.maxRetries {
		m.mu.Unlock()

		if changed != nil {
			changed()
		}

		m.l.Error("resubscription budget exhausted, waiting for restart", utils.ErrAttr(err), slog.Int("retryCount", m.retryCount))

		return
	}

	delay := BackoffDelay(m.retryCount)
	m.retryCount++
	retry := m.retryCount
	m.mu.Unlock()

	if changed != nil {
		changed()
	}

	m.l.Warn("subscription error, scheduling resubscribe",
		utils.ErrAttr(err),
		slog.Int("attempt", retry),
		slog.Duration("delay", delay))

	time.AfterFunc(delay, m.attemptResubscribe)
}

// Restart is the external trigger that resets the retry budget and attempts
// an immediate resubscription after the budget was exhausted.
func (m *Monitor) Restart() {
	m.mu.Lock()
	m.retryCount = 0
	m.mu.Unlock()

	m.l.Info("restart requested")
	m.attemptResubscribe()
}

// Run evaluates staleness periodically until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check transitions to disconnected when telemetry has gone stale. Exposed
// for deterministic tests; Run calls it on every tick.
func (m *Monitor) Check() {
	m.mu.Lock()
	var changed func()

	if m.everAccepted && m.clock().Sub(m.lastAccepted) > m.staleAfter {
		changed = m.transition(StateDisconnected)
	}
	m.mu.Unlock()

	if changed != nil {
		changed()
	}
}

// Snapshot returns the derived connectivity view.
func (m *Monitor) Snapshot() ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return ConnectivityState{
		State:          m.state,
		Connected:      m.state == StateConnected,
		LastAcceptedAt: m.lastAccepted,
		RetryCount:     m.retryCount,
	}
}

func (m *Monitor) attemptResubscribe() {
	if err := m.resubscribe(); err != nil {
		m.OnSubscriptionError(err)

		return
	}

	m.l.Info("resubscribed to store")
}

// transition updates the state and returns the deferred change notification,
// to be invoked outside the mutex. Must be called with the mutex held.
func (m *Monitor) transition(next LivenessState) func() {
	if m.state == next {
		return nil
	}

	prev := m.state
	m.state = next
	m.l.Info("liveness state changed", slog.String("from", prev.String()), slog.String("to", next.String()))

	if m.onChange == nil {
		return nil
	}

	onChange := m.onChange

	return func() { onChange(next) }
}
