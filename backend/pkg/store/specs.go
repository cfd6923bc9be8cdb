package store

// QoS represents MQTT quality of service levels.
type QoS byte

const (
	// QoSAtMostOnce means the record may not be delivered at all.
	QoSAtMostOnce QoS = 0
	// QoSAtLeastOnce means the record is delivered at least once.
	QoSAtLeastOnce QoS = 1
	// QoSExactlyOnce means the record is delivered exactly once.
	QoSExactlyOnce QoS = 2
)

// Handler receives the raw record currently stored at a path. Records are
// delivered at least once and may be redelivered; an empty payload means the
// record at the path was deleted.
type Handler func(path string, payload []byte)

// SubscriptionSpec describes one store subscription. The path may contain
// {param} placeholders which match any single path segment, so a pattern like
// relays/{deviceID}/ack/{ackID} covers every acknowledgment child record.
type SubscriptionSpec struct {
	Path    string
	QoS     QoS
	Handler Handler
}
