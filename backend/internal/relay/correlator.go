package relay

import (
	"encoding/json"
	"log/slog"
	"time"

	"relay-bridge/backend/pkg/utils"
)

// DefaultAckGracePeriod is how long a processed acknowledgment record stays
// in the store before the correlator deletes it. The delay tolerates
// duplicate deliveries of the same record: once the pending entry is gone,
// redeliveries are no-ops.
const DefaultAckGracePeriod = 5 * time.Second

// StoreDeleter removes a record from the store.
type StoreDeleter interface {
	Delete(path string) error
}

// Correlator matches inbound acknowledgment records to pending commands in
// the registry and cleans processed records out of the store.
type Correlator struct {
	l        *slog.Logger
	registry *Registry
	store    StoreDeleter
	grace    time.Duration
}

// NewCorrelator creates an acknowledgment correlator. A non-positive grace
// falls back to DefaultAckGracePeriod.
func NewCorrelator(l *slog.Logger, registry *Registry, store StoreDeleter, grace time.Duration) *Correlator {
	if grace <= 0 {
		grace = DefaultAckGracePeriod
	}

	return &Correlator{
		l:        l.With(slog.String("component", "ack-correlator")),
		registry: registry,
		store:    store,
		grace:    grace,
	}
}

// HandleAck processes one acknowledgment record delivered on an ack child
// path. Matched acks resolve their pending command and schedule deletion of
// the record after the grace period; acks with no matching pending entry
// (already resolved, expired, or unknown ID) are silently ignored. Empty
// payloads are record deletions echoed back by the store and are skipped.
func (c *Correlator) HandleAck(path string, payload []byte) {
	if len(payload) == 0 {
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		c.l.Warn("dropping malformed acknowledgment record", slog.String("path", path), utils.ErrAttr(err))

		return
	}

	ack := parseAck(raw)
	if ack.CommandID == "" {
		c.l.Debug("dropping acknowledgment without command ID", slog.String("path", path))

		return
	}

	if !c.registry.Resolve(ack) {
		c.l.Debug("ignoring acknowledgment with no pending command", slog.String("commandId", ack.CommandID))

		return
	}

	c.l.Info("acknowledgment correlated",
		slog.String("commandId", ack.CommandID),
		slog.String("type", ack.Type),
		slog.String("result", ack.Result))

	time.AfterFunc(c.grace, func() {
		if err := c.store.Delete(path); err != nil {
			c.l.Warn("failed to delete processed acknowledgment", slog.String("path", path), utils.ErrAttr(err))
		}
	})
}

// parseAck coerces an untrusted acknowledgment record field by field, in the
// same tolerant manner as the telemetry sanitizer.
func parseAck(raw map[string]any) Ack {
	return Ack{
		CommandID:  stringOr(raw["commandId"], ""),
		Type:       stringOr(raw["type"], ""),
		Result:     stringOr(raw["result"], ""),
		Processed:  boolOr(raw["processed"], false),
		Timestamp:  int64(numberOr(raw["timestamp"], 0)),
		DeviceTime: int64(numberOr(raw["deviceTime"], 0)),
	}
}
