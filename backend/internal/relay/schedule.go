package relay

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const maxScheduleSpan = 24 * time.Hour

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Plan resolves two wall-clock time strings into an absolute schedule window
// relative to now. Each time resolves to its next future occurrence; an end
// at or before the start rolls forward 24 hours to support overnight spans.
func Plan(startText, endText string, now time.Time) (Schedule, error) {
	start, err := nextOccurrence(startText, now)
	if err != nil {
		return Schedule{}, fmt.Errorf("start time %q: %w", startText, err)
	}

	end, err := nextOccurrence(endText, now)
	if err != nil {
		return Schedule{}, fmt.Errorf("end time %q: %w", endText, err)
	}

	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	if end.Sub(start) > maxScheduleSpan {
		return Schedule{}, ErrScheduleTooLong
	}

	return Schedule{StartTime: start, EndTime: end}, nil
}

// PlanQuick computes a schedule starting now for the given duration in
// minutes. Durations outside (0, 1440] are rejected.
func PlanQuick(minutes int, now time.Time) (Schedule, error) {
	if minutes <= 0 || minutes > 24*60 {
		return Schedule{}, ErrInvalidDuration
	}

	return Schedule{
		StartTime: now,
		EndTime:   now.Add(time.Duration(minutes) * time.Minute),
	}, nil
}

// nextOccurrence resolves an HH:MM string to its next future occurrence
// relative to now. A time-of-day that already passed today rolls to tomorrow.
func nextOccurrence(text string, now time.Time) (time.Time, error) {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, ErrInvalidTimeFormat
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.Add(24 * time.Hour)
	}

	return t, nil
}
