//go:build cgo
// +build cgo

package history

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"relay-bridge/backend/internal/migrations"
	"relay-bridge/backend/internal/relay"
	"relay-bridge/backend/pkg/migrator"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")

	mig, err := migrator.New(l, migrations.GetFS(), dbPath)
	if err != nil {
		t.Fatalf("migrator.New() error = %v", err)
	}

	if err := mig.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return NewStore(l, db, "relay-001")
}

func TestStore_Telemetry(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		state := relay.TelemetryState{
			RelayOn: i%2 == 0,
			Voltage: 230 + float64(i),
			Current: float64(i),
		}
		if err := s.RecordTelemetry(ctx, state, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordTelemetry() error = %v", err)
		}
	}

	rows, err := s.RecentTelemetry(ctx, 2)
	if err != nil {
		t.Fatalf("RecentTelemetry() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if rows[0].Voltage != 232 || rows[1].Voltage != 231 {
		t.Errorf("rows not newest first: %+v", rows)
	}
}

func TestStore_AlertsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	alerts := []relay.Alert{
		{ID: "a1", Type: "OVERCURRENT", Message: "tripped", Timestamp: 100},
		{ID: "a2", Type: "OVERCURRENT", Message: "tripped again", Timestamp: 200},
	}

	// Replaying the same record-set must not duplicate rows
	for range 3 {
		if err := s.RecordAlerts(ctx, alerts); err != nil {
			t.Fatalf("RecordAlerts() error = %v", err)
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_history`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}

	if count != 2 {
		t.Errorf("alert rows = %d, want 2", count)
	}
}

func TestStore_CommandLog(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	issued := time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

	if err := s.RecordCommand(ctx, "cmd-1", "setRelay", issued); err != nil {
		t.Fatalf("RecordCommand() error = %v", err)
	}

	rows, err := s.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	if rows[0].Result != "" || rows[0].ResolvedAt != 0 {
		t.Errorf("unresolved command has outcome: %+v", rows[0])
	}

	if err := s.ResolveCommand(ctx, "cmd-1", "SUCCESS", issued.Add(time.Second)); err != nil {
		t.Fatalf("ResolveCommand() error = %v", err)
	}

	// Resolving again must not overwrite the recorded outcome
	if err := s.ResolveCommand(ctx, "cmd-1", "LATE_DUPLICATE", issued.Add(time.Minute)); err != nil {
		t.Fatalf("second ResolveCommand() error = %v", err)
	}

	rows, err = s.RecentCommands(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCommands() error = %v", err)
	}

	if rows[0].Result != "SUCCESS" {
		t.Errorf("Result = %q, want SUCCESS", rows[0].Result)
	}

	if rows[0].ResolvedAt != issued.Add(time.Second).Unix() {
		t.Errorf("ResolvedAt = %d, want first resolution time", rows[0].ResolvedAt)
	}
}
