package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFormat is returned for schedule times not in strict
	// 24-hour HH:MM form.
	ErrInvalidTimeFormat = errors.New("time must be in 24-hour HH:MM format")

	// ErrScheduleTooLong is returned when a planned schedule spans more
	// than 24 hours.
	ErrScheduleTooLong = errors.New("schedule span exceeds 24 hours")

	// ErrInvalidDuration is returned for quick-schedule durations outside
	// (0, 1440] minutes.
	ErrInvalidDuration = errors.New("duration must be between 1 and 1440 minutes")

	// ErrInvalidThreshold is returned for non-positive overcurrent
	// thresholds.
	ErrInvalidThreshold = errors.New("threshold must be a positive number of amps")

	// ErrCommandWriteFailed wraps store write failures for issued commands.
	ErrCommandWriteFailed = errors.New("command write failed")
)

// CommandTimeoutError is returned when no acknowledgment for a command is
// observed within the timeout bound, or when the expiry sweep reclaims a
// stale entry.
type CommandTimeoutError struct {
	Type string
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("command %s timed out waiting for acknowledgment", e.Type)
}

// CommandRejectedError is returned when the device acknowledges a command
// with a result other than the known success outcomes. The device-side result
// code is carried verbatim as the reason.
type CommandRejectedError struct {
	Type   string
	Reason string
}

func (e *CommandRejectedError) Error() string {
	return fmt.Sprintf("command %s rejected by device: %s", e.Type, e.Reason)
}
