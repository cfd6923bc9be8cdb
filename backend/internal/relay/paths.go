package relay

// Paths derives the store paths for one device. The store holds exactly one
// record per path; acknowledgments live under per-record child paths so they
// can be deleted individually after processing.
type Paths struct {
	DeviceID string
}

func (p Paths) base() string {
	return "relays/" + p.DeviceID
}

// Telemetry is the device-to-client measurement snapshot path.
func (p Paths) Telemetry() string {
	return p.base() + "/telemetry"
}

// Alerts is the device-to-client alert record-set path.
func (p Paths) Alerts() string {
	return p.base() + "/alerts"
}

// Control is the client-to-device single-slot command path.
func (p Paths) Control() string {
	return p.base() + "/control"
}

// Schedule is the client-to-device schedule slot path.
func (p Paths) Schedule() string {
	return p.base() + "/schedule"
}

// AckPattern is the subscription pattern covering all acknowledgment child
// records.
func (p Paths) AckPattern() string {
	return p.base() + "/ack/{ackID}"
}

// Ack is the path of a single acknowledgment record.
func (p Paths) Ack(ackID string) string {
	return p.base() + "/ack/" + ackID
}
