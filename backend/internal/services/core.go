package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"relay-bridge/backend/internal/history"
	"relay-bridge/backend/internal/relay"
	"relay-bridge/backend/pkg/store"
	"relay-bridge/backend/pkg/utils"
)

// Command types written to the device control slot.
const (
	CommandSetRelay       = "setRelay"
	CommandSetThreshold   = "setThreshold"
	CommandSetSchedule    = "setSchedule"
	CommandCancelSchedule = "cancelSchedule"
)

// Store is the store capability the core service depends on.
type Store interface {
	Write(path string, record any) error
	Delete(path string) error
	Reconnect() error
	IsConnected() bool
}

// CoreService is the device sync engine: it consumes telemetry, alert, and
// acknowledgment records from the store, maintains the local device view,
// and dispatches commands through the correlation registry.
//
// The local view pairs the last confirmed telemetry snapshot with an
// optimistic relay overlay: a relay command sets the overlay immediately so
// reads reflect the requested state, and the overlay is discarded once
// confirmed telemetry catches up or the command fails.
type CoreService struct {
	l     *slog.Logger
	store Store
	db    *sql.DB
	hist  *history.Store
	paths relay.Paths

	registry   *relay.Registry
	monitor    *relay.Monitor
	correlator *relay.Correlator

	mu              sync.Mutex
	confirmed       relay.TelemetryState
	optimisticRelay *bool
	alerts          []relay.Alert
	schedule        *relay.Schedule
}

// CoreOptions configures a CoreService. Zero durations fall back to the
// relay package defaults.
type CoreOptions struct {
	DeviceID string

	AckTimeout     time.Duration
	AckGracePeriod time.Duration
	Clock          func() time.Time
}

// NewCoreService creates the sync engine for one device. db and hist may be
// nil, in which case history persistence is disabled and health reports the
// database as absent.
func NewCoreService(l *slog.Logger, st Store, db *sql.DB, hist *history.Store, opts CoreOptions) *CoreService {
	paths := relay.Paths{DeviceID: opts.DeviceID}

	s := &CoreService{
		l:     l.With(slog.String("service", "core"), slog.String("deviceID", opts.DeviceID)),
		store: st,
		db:    db,
		hist:  hist,
		paths: paths,
	}

	s.registry = relay.NewRegistry(l, st, relay.RegistryOptions{
		ControlPath: paths.Control(),
		AckTimeout:  opts.AckTimeout,
		Clock:       opts.Clock,
	})

	s.correlator = relay.NewCorrelator(l, s.registry, st, opts.AckGracePeriod)

	s.monitor = relay.NewMonitor(l, st.Reconnect, relay.MonitorOptions{
		Clock: opts.Clock,
	})

	return s
}

// Subscriptions returns the store subscriptions the engine consumes. The
// caller registers them before connecting.
func (s *CoreService) Subscriptions() []store.SubscriptionSpec {
	return []store.SubscriptionSpec{
		{Path: s.paths.Telemetry(), QoS: store.QoSAtLeastOnce, Handler: s.handleTelemetry},
		{Path: s.paths.Alerts(), QoS: store.QoSAtLeastOnce, Handler: s.handleAlerts},
		{Path: s.paths.AckPattern(), QoS: store.QoSAtLeastOnce, Handler: s.handleAck},
	}
}

// OnStoreError is the store error callback: it routes connection loss into
// the liveness monitor, which owns the retry policy.
func (s *CoreService) OnStoreError(err error) {
	s.monitor.OnSubscriptionError(err)
}

// Run drives the periodic loops (ack expiry sweep, staleness checks) until
// ctx is done.
func (s *CoreService) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		s.registry.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		s.monitor.Run(ctx)
	}()

	wg.Wait()
}

// handleTelemetry consumes one telemetry record from the store.
func (s *CoreService) handleTelemetry(path string, payload []byte) {
	if len(payload) == 0 {
		// Retained-clear echo, not a measurement
		return
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		s.l.Warn("dropping malformed telemetry record", slog.String("path", path), utils.ErrAttr(err))

		return
	}

	state, ok := relay.Sanitize(raw, time.Now())
	if !ok {
		s.l.Warn("dropping non-record telemetry payload", slog.String("path", path))

		return
	}

	for _, w := range relay.RangeWarnings(state) {
		s.l.Warn("telemetry out of plausible range", slog.String("detail", w))
	}

	s.monitor.MarkAccepted()

	s.mu.Lock()
	s.confirmed = state
	if s.optimisticRelay != nil && state.RelayOn == *s.optimisticRelay {
		// Confirmed state caught up with the requested one
		s.optimisticRelay = nil
	}
	s.mu.Unlock()

	if s.hist != nil {
		if err := s.hist.RecordTelemetry(context.Background(), state, time.Now()); err != nil {
			s.l.Error("failed to persist telemetry", utils.ErrAttr(err))
		}
	}
}

// handleAlerts consumes the alert record-set from the store.
func (s *CoreService) handleAlerts(path string, payload []byte) {
	if len(payload) == 0 {
		s.mu.Lock()
		s.alerts = nil
		s.mu.Unlock()

		return
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		s.l.Warn("dropping malformed alert record-set", slog.String("path", path), utils.ErrAttr(err))

		return
	}

	alerts := relay.AggregateAlerts(raw)

	s.mu.Lock()
	s.alerts = alerts
	s.mu.Unlock()

	if s.hist != nil && len(alerts) > 0 {
		if err := s.hist.RecordAlerts(context.Background(), alerts); err != nil {
			s.l.Error("failed to persist alerts", utils.ErrAttr(err))
		}
	}
}

// handleAck consumes one acknowledgment record from the store.
func (s *CoreService) handleAck(path string, payload []byte) {
	s.correlator.HandleAck(path, payload)
}

// SetRelay requests the given relay state and waits for the device outcome.
// The local view reflects the requested state immediately; a failed command
// reverts it.
func (s *CoreService) SetRelay(ctx context.Context, on bool) (relay.Ack, error) {
	s.mu.Lock()
	s.optimisticRelay = &on
	s.mu.Unlock()

	ack, err := s.issueAndWait(ctx, CommandSetRelay, map[string]any{"relayState": on})
	if err != nil {
		s.mu.Lock()
		s.optimisticRelay = nil
		s.mu.Unlock()

		return relay.Ack{}, err
	}

	if ack.Result == relay.AckResultNoChangeRequired {
		// Device was already in the requested state
		s.mu.Lock()
		s.optimisticRelay = nil
		s.mu.Unlock()
	}

	return ack, nil
}

// SetThreshold requests a new overcurrent trip threshold in amps.
func (s *CoreService) SetThreshold(ctx context.Context, amps float64) (relay.Ack, error) {
	if amps <= 0 {
		return relay.Ack{}, relay.ErrInvalidThreshold
	}

	return s.issueAndWait(ctx, CommandSetThreshold, map[string]any{"threshold": amps})
}

// ApplySchedule plans a start/end wall-clock schedule, publishes it to the
// schedule slot, and commands the device to adopt it.
func (s *CoreService) ApplySchedule(ctx context.Context, startText, endText string) (relay.Schedule, relay.Ack, error) {
	sched, err := relay.Plan(startText, endText, time.Now())
	if err != nil {
		return relay.Schedule{}, relay.Ack{}, err
	}

	return s.dispatchSchedule(ctx, sched)
}

// QuickSchedule plans a schedule starting now for the given duration in
// minutes and commands the device to adopt it.
func (s *CoreService) QuickSchedule(ctx context.Context, minutes int) (relay.Schedule, relay.Ack, error) {
	sched, err := relay.PlanQuick(minutes, time.Now())
	if err != nil {
		return relay.Schedule{}, relay.Ack{}, err
	}

	return s.dispatchSchedule(ctx, sched)
}

func (s *CoreService) dispatchSchedule(ctx context.Context, sched relay.Schedule) (relay.Schedule, relay.Ack, error) {
	if err := s.store.Write(s.paths.Schedule(), sched); err != nil {
		return relay.Schedule{}, relay.Ack{}, err
	}

	ack, err := s.issueAndWait(ctx, CommandSetSchedule, map[string]any{
		"startTime": sched.StartTime.Unix(),
		"endTime":   sched.EndTime.Unix(),
	})
	if err != nil {
		return relay.Schedule{}, relay.Ack{}, err
	}

	s.mu.Lock()
	s.schedule = &sched
	s.mu.Unlock()

	return sched, ack, nil
}

// CancelSchedule clears the schedule slot and commands the device to drop
// any active schedule.
func (s *CoreService) CancelSchedule(ctx context.Context) (relay.Ack, error) {
	if err := s.store.Delete(s.paths.Schedule()); err != nil {
		return relay.Ack{}, err
	}

	ack, err := s.issueAndWait(ctx, CommandCancelSchedule, nil)
	if err != nil {
		return relay.Ack{}, err
	}

	s.mu.Lock()
	s.schedule = nil
	s.mu.Unlock()

	return ack, nil
}

// issueAndWait dispatches one command and blocks until its terminal event.
func (s *CoreService) issueAndWait(ctx context.Context, cmdType string, payload map[string]any) (relay.Ack, error) {
	handle := s.registry.Issue(cmdType, payload)

	if s.hist != nil {
		if err := s.hist.RecordCommand(ctx, handle.ID, cmdType, time.Now()); err != nil {
			s.l.Error("failed to log issued command", utils.ErrAttr(err))
		}
	}

	ack, err := handle.Wait(ctx)

	if s.hist != nil {
		result := ack.Result
		if err != nil {
			result = err.Error()
		}

		if herr := s.hist.ResolveCommand(context.Background(), handle.ID, result, time.Now()); herr != nil {
			s.l.Error("failed to log command outcome", utils.ErrAttr(herr))
		}
	}

	if err != nil {
		return relay.Ack{}, err
	}

	return ack, nil
}

// StateSnapshot is the consolidated device view served to clients.
type StateSnapshot struct {
	Telemetry    relay.TelemetryState    `json:"telemetry"`
	Alerts       []relay.Alert           `json:"alerts"`
	Connectivity relay.ConnectivityState `json:"connectivity"`
	Schedule     *relay.Schedule         `json:"schedule,omitempty"`
	PendingCount int                     `json:"pendingCommands"`
}

// Snapshot returns the current device view: the last confirmed telemetry
// with the optimistic relay overlay applied, the aggregated alerts, and the
// derived connectivity state.
func (s *CoreService) Snapshot() StateSnapshot {
	s.mu.Lock()

	telemetry := s.confirmed
	if s.optimisticRelay != nil {
		telemetry.RelayOn = *s.optimisticRelay
	}

	alerts := make([]relay.Alert, len(s.alerts))
	copy(alerts, s.alerts)

	var sched *relay.Schedule
	if s.schedule != nil {
		c := *s.schedule
		sched = &c
	}

	s.mu.Unlock()

	return StateSnapshot{
		Telemetry:    telemetry,
		Alerts:       alerts,
		Connectivity: s.monitor.Snapshot(),
		Schedule:     sched,
		PendingCount: s.registry.PendingCount(),
	}
}

// RecentTelemetry returns persisted telemetry samples, newest first.
func (s *CoreService) RecentTelemetry(ctx context.Context, limit int) ([]history.TelemetryRow, error) {
	if s.hist == nil {
		return nil, nil
	}

	return s.hist.RecentTelemetry(ctx, limit)
}

// RecentCommands returns persisted command log entries, newest first.
func (s *CoreService) RecentCommands(ctx context.Context, limit int) ([]history.CommandRow, error) {
	if s.hist == nil {
		return nil, nil
	}

	return s.hist.RecentCommands(ctx, limit)
}

// Restart resets the resubscription budget and retries the store connection.
func (s *CoreService) Restart() {
	s.monitor.Restart()
}

type HealthStatus struct {
	Database bool `json:"database"`
	Store    bool `json:"store"`
	Device   bool `json:"device"`
}

// Health reports reachability of the database, the store connection, and
// the device itself.
func (s *CoreService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Database: s.db != nil,
		Store:    s.store.IsConnected(),
		Device:   s.monitor.Snapshot().Connected,
	}

	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			s.l.Error("database unreachable", utils.ErrAttr(err))
			status.Database = false
		}
	}

	if !status.Store {
		s.l.Warn("store unreachable")
	}

	return status
}
