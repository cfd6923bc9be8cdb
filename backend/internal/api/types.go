package api

// HealthResponse reports reachability of the engine's dependencies.
type HealthResponse struct {
	Database bool `json:"database"`
	Store    bool `json:"store"`
	Device   bool `json:"device"`
}

// SetRelayRequest requests a relay state change. On is a pointer so a
// missing field is distinguishable from false.
type SetRelayRequest struct {
	On *bool `json:"on"`
}

// SetThresholdRequest requests a new overcurrent trip threshold.
type SetThresholdRequest struct {
	Amps *float64 `json:"amps"`
}

// ScheduleRequest requests a wall-clock schedule window in 24-hour HH:MM.
type ScheduleRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// QuickScheduleRequest requests a schedule starting now.
type QuickScheduleRequest struct {
	Minutes int `json:"minutes"`
}

// CommandResponse reports the device outcome of a dispatched command.
type CommandResponse struct {
	CommandID string `json:"commandId"`
	Result    string `json:"result"`
}

// ScheduleResponse reports the resolved absolute schedule window alongside
// the command outcome.
type ScheduleResponse struct {
	StartTime int64  `json:"startTime"` // unix seconds
	EndTime   int64  `json:"endTime"`   // unix seconds
	CommandID string `json:"commandId"`
	Result    string `json:"result"`
}
