package relay

import (
	"errors"
	"testing"
	"time"
)

func TestPlan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   error
	}{
		{
			name:      "both later today",
			start:     "14:00",
			end:       "16:30",
			wantStart: time.Date(2025, 8, 14, 14, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 14, 16, 30, 0, 0, time.UTC),
		},
		{
			name:      "start already passed rolls to tomorrow",
			start:     "08:00",
			end:       "09:00",
			wantStart: time.Date(2025, 8, 15, 8, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			name:      "overnight span crosses midnight",
			start:     "23:50",
			end:       "00:10",
			wantStart: time.Date(2025, 8, 14, 23, 50, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 15, 0, 10, 0, 0, time.UTC),
		},
		{
			name:      "equal times roll end forward a day",
			start:     "14:00",
			end:       "14:00",
			wantStart: time.Date(2025, 8, 14, 14, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 8, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name:    "hour out of range",
			start:   "25:00",
			end:     "26:00",
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name:    "minute out of range",
			start:   "12:60",
			end:     "13:00",
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name:    "single-digit hour rejected",
			start:   "7:30",
			end:     "09:00",
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name:    "garbage rejected",
			start:   "noon",
			end:     "13:00",
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name:    "bad end time",
			start:   "13:00",
			end:     "13:5",
			wantErr: ErrInvalidTimeFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Plan(tt.start, tt.end, now)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Plan(%q, %q) error = %v, want %v", tt.start, tt.end, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Plan(%q, %q) unexpected error: %v", tt.start, tt.end, err)
			}

			if !got.StartTime.Equal(tt.wantStart) {
				t.Errorf("StartTime = %v, want %v", got.StartTime, tt.wantStart)
			}

			if !got.EndTime.Equal(tt.wantEnd) {
				t.Errorf("EndTime = %v, want %v", got.EndTime, tt.wantEnd)
			}
		})
	}
}

func TestPlanQuick(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		minutes int
		wantErr error
	}{
		{name: "one minute", minutes: 1},
		{name: "typical", minutes: 90},
		{name: "full day", minutes: 1440},
		{name: "zero", minutes: 0, wantErr: ErrInvalidDuration},
		{name: "negative", minutes: -30, wantErr: ErrInvalidDuration},
		{name: "over a day", minutes: 1441, wantErr: ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := PlanQuick(tt.minutes, now)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("PlanQuick(%d) error = %v, want %v", tt.minutes, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("PlanQuick(%d) unexpected error: %v", tt.minutes, err)
			}

			if !got.StartTime.Equal(now) {
				t.Errorf("StartTime = %v, want now", got.StartTime)
			}

			wantEnd := now.Add(time.Duration(tt.minutes) * time.Minute)
			if !got.EndTime.Equal(wantEnd) {
				t.Errorf("EndTime = %v, want %v", got.EndTime, wantEnd)
			}
		})
	}
}
