package relay

import (
	"fmt"
	"time"
)

// clockSkewWindow bounds how far a device-reported timestamp may drift from
// the local clock before it is replaced with "now".
const clockSkewWindow = time.Hour

// Observability bounds. Values outside these ranges are accepted but flagged:
// a malfunctioning device reporting extreme values is itself meaningful
// telemetry.
const (
	minPlausibleVoltage = 100.0
	maxPlausibleVoltage = 300.0
	maxPlausibleCurrent = 50.0
)

// Sanitize converts an untrusted telemetry record into a TelemetryState.
// It returns ok=false only when raw is not a structured record at all; every
// other malformation degrades to per-field defaults. Pure transform, safe to
// call repeatedly and concurrently.
func Sanitize(raw any, now time.Time) (TelemetryState, bool) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return TelemetryState{}, false
	}

	return TelemetryState{
		Current:            clampNonNegative(numberOr(rec["current"], 0)),
		Power:              clampNonNegative(numberOr(rec["power"], 0)),
		Voltage:            numberOr(rec["voltage"], DefaultVoltage),
		Energy:             clampNonNegative(numberOr(rec["energy"], 0)),
		RelayOn:            boolOr(rec["relayState"], false),
		DeviceConnected:    boolOr(rec["deviceConnected"], false),
		Timestamp:          timestampWithin(rec["timestamp"], now, clockSkewWindow),
		Heartbeat:          timestampWithin(rec["heartbeat"], now, clockSkewWindow),
		DetectedWattage:    clampNonNegative(numberOr(rec["detectedWattage"], 0)),
		ExpectedCurrent:    clampNonNegative(numberOr(rec["expectedCurrent"], 0)),
		CurrentThreshold:   clampNonNegative(numberOr(rec["currentThreshold"], DefaultCurrentThreshold)),
		ScheduleActive:     boolOr(rec["scheduleActive"], false),
		ScheduleStarted:    boolOr(rec["scheduleStarted"], false),
		OvercurrentTripped: boolOr(rec["overcurrentTripped"], false),
		LastCommandID:      stringOr(rec["lastCommandId"], ""),
		LastCommandTime:    int64(clampNonNegative(numberOr(rec["lastCommandTime"], 0))),
	}, true
}

// RangeWarnings reports out-of-range measurements in a sanitized state.
// The state itself is left untouched.
func RangeWarnings(s TelemetryState) []string {
	var warnings []string

	if s.Voltage < minPlausibleVoltage || s.Voltage > maxPlausibleVoltage {
		warnings = append(warnings, fmt.Sprintf("voltage %.1fV outside plausible range [%.0f, %.0f]", s.Voltage, minPlausibleVoltage, maxPlausibleVoltage))
	}

	if s.Current > maxPlausibleCurrent {
		warnings = append(warnings, fmt.Sprintf("current %.1fA above plausible maximum %.0fA", s.Current, maxPlausibleCurrent))
	}

	return warnings
}
