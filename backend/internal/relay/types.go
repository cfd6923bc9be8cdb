package relay

import "time"

// Defaults substituted for missing or malformed telemetry fields.
const (
	DefaultVoltage          = 230.0
	DefaultCurrentThreshold = 10.0
)

// TelemetryState is a validated snapshot of device-reported measurements.
// It is replaced wholesale on every accepted update and never partially
// mutated. Every numeric field is finite; malformed input is substituted
// with a documented default during sanitization.
type TelemetryState struct {
	Current            float64 `json:"current"`
	Power              float64 `json:"power"`
	Voltage            float64 `json:"voltage"`
	Energy             float64 `json:"energy"`
	RelayOn            bool    `json:"relayOn"`
	DeviceConnected    bool    `json:"deviceConnected"`
	Timestamp          int64   `json:"timestamp"` // unix seconds
	Heartbeat          int64   `json:"heartbeat"` // unix seconds
	DetectedWattage    float64 `json:"detectedWattage"`
	ExpectedCurrent    float64 `json:"expectedCurrent"`
	CurrentThreshold   float64 `json:"currentThreshold"`
	ScheduleActive     bool    `json:"scheduleActive"`
	ScheduleStarted    bool    `json:"scheduleStarted"`
	OvercurrentTripped bool    `json:"overcurrentTripped"`
	LastCommandID      string  `json:"lastCommandId"`
	LastCommandTime    int64   `json:"lastCommandTime"`
}

// Alert is a device-reported alert record. Immutable once produced. ID is
// the record key the device published the alert under.
type Alert struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

// Known acknowledgment results. Any other result string is treated as a
// rejection with the result carried as the reason.
const (
	AckResultSuccess          = "SUCCESS"
	AckResultNoChangeRequired = "NO_CHANGE_REQUIRED"
)

// Ack is a device-reported outcome record for a previously issued command.
type Ack struct {
	CommandID  string `json:"commandId"`
	Type       string `json:"type"`
	Result     string `json:"result"`
	Processed  bool   `json:"processed"`
	Timestamp  int64  `json:"timestamp"`
	DeviceTime int64  `json:"deviceTime"`
}

// Schedule is an absolute start/end window for relay operation.
type Schedule struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// ConnectivityState is the derived device-reachability view of the liveness
// monitor. It is computed, never stored.
type ConnectivityState struct {
	State          LivenessState `json:"state"`
	Connected      bool          `json:"connected"`
	LastAcceptedAt time.Time     `json:"lastAcceptedAt"`
	RetryCount     int           `json:"retryCount"`
}
