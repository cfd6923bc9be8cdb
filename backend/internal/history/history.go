// Package history persists accepted telemetry, alerts, and command outcomes
// to SQLite for later inspection.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"relay-bridge/backend/internal/relay"
	"relay-bridge/backend/pkg/utils"
)

// Store writes and reads device history rows. All writes are keyed by the
// device ID the store was created for.
type Store struct {
	l        *slog.Logger
	db       *sql.DB
	deviceID string
}

func NewStore(l *slog.Logger, db *sql.DB, deviceID string) *Store {
	return &Store{
		l:        l.With(slog.String("component", "history")),
		db:       db,
		deviceID: deviceID,
	}
}

// TelemetryRow is a persisted telemetry sample.
type TelemetryRow struct {
	RelayOn          bool    `json:"relayOn"`
	Voltage          float64 `json:"voltage"`
	Current          float64 `json:"current"`
	Power            float64 `json:"power"`
	EnergyToday      float64 `json:"energyToday"`
	CurrentThreshold float64 `json:"currentThreshold"`
	RecordedAt       int64   `json:"recordedAt"`
}

// CommandRow is a persisted command issue/outcome pair.
type CommandRow struct {
	CommandID  string `json:"commandId"`
	Type       string `json:"type"`
	Result     string `json:"result,omitempty"`
	IssuedAt   int64  `json:"issuedAt"`
	ResolvedAt int64  `json:"resolvedAt,omitempty"`
}

// RecordTelemetry appends one sanitized telemetry sample.
func (s *Store) RecordTelemetry(ctx context.Context, state relay.TelemetryState, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO telemetry_history
			(device_id, relay_on, voltage, current, power, energy_today, current_threshold, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.deviceID, state.RelayOn, state.Voltage, state.Current, state.Power,
		state.Energy, state.CurrentThreshold, at.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert telemetry row: %w", err)
	}

	return nil
}

// RecordAlerts upserts the given alerts. Already-seen alert IDs are ignored
// so replaying the same record-set is harmless.
func (s *Store) RecordAlerts(ctx context.Context, alerts []relay.Alert) error {
	for _, a := range alerts {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO alert_history
				(device_id, alert_id, type, message, raised_at)
			 VALUES (?, ?, ?, ?, ?)`,
			s.deviceID, a.ID, a.Type, a.Message, a.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", a.ID, err)
		}
	}

	return nil
}

// RecordCommand logs a newly issued command.
func (s *Store) RecordCommand(ctx context.Context, commandID, commandType string, issuedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO command_log (device_id, command_id, type, issued_at)
		 VALUES (?, ?, ?, ?)`,
		s.deviceID, commandID, commandType, issuedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert command %s: %w", commandID, err)
	}

	return nil
}

// ResolveCommand records the terminal outcome of a previously logged command.
func (s *Store) ResolveCommand(ctx context.Context, commandID, result string, resolvedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE command_log SET result = ?, resolved_at = ?
		 WHERE command_id = ? AND resolved_at IS NULL`,
		result, resolvedAt.Unix(), commandID)
	if err != nil {
		return fmt.Errorf("failed to resolve command %s: %w", commandID, err)
	}

	return nil
}

// RecentTelemetry returns up to limit samples, newest first.
func (s *Store) RecentTelemetry(ctx context.Context, limit int) ([]TelemetryRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT relay_on, voltage, current, power, energy_today, current_threshold, recorded_at
		 FROM telemetry_history
		 WHERE device_id = ?
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT ?`,
		s.deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry history: %w", err)
	}

	defer utils.LogOnError(s.l, rows.Close, "failed to close telemetry rows")

	var out []TelemetryRow

	for rows.Next() {
		var r TelemetryRow
		if err := rows.Scan(&r.RelayOn, &r.Voltage, &r.Current, &r.Power,
			&r.EnergyToday, &r.CurrentThreshold, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry row: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate telemetry rows: %w", err)
	}

	return out, nil
}

// RecentCommands returns up to limit command log entries, newest first.
func (s *Store) RecentCommands(ctx context.Context, limit int) ([]CommandRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command_id, type, result, issued_at, resolved_at
		 FROM command_log
		 WHERE device_id = ?
		 ORDER BY issued_at DESC, id DESC
		 LIMIT ?`,
		s.deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query command log: %w", err)
	}

	defer utils.LogOnError(s.l, rows.Close, "failed to close command rows")

	var out []CommandRow

	for rows.Next() {
		var (
			r          CommandRow
			result     sql.NullString
			resolvedAt sql.NullInt64
		)

		if err := rows.Scan(&r.CommandID, &r.Type, &result, &r.IssuedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}

		if result.Valid {
			r.Result = result.String
		}

		if resolvedAt.Valid {
			r.ResolvedAt = resolvedAt.Int64
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate command rows: %w", err)
	}

	return out, nil
}
