package relay

import (
	"sort"
)

// maxAlerts bounds the aggregated alert list to the most recent entries.
const maxAlerts = 10

// AggregateAlerts converts an untrusted record-set (arbitrary keys mapping to
// candidate alert records) into an ordered alert list: entries missing type,
// message, or timestamp are dropped, the rest are sorted most recent first
// and truncated to maxAlerts. Pure transform; malformed input degrades to an
// empty result.
func AggregateAlerts(raw any) []Alert {
	recs, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	// Iterate in key order so equal timestamps keep a stable order.
	keys := make([]string, 0, len(recs))
	for key := range recs {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	alerts := make([]Alert, 0, len(recs))

	for _, key := range keys {
		entry, ok := recs[key].(map[string]any)
		if !ok {
			continue
		}

		alertType := stringOr(entry["type"], "")
		message := stringOr(entry["message"], "")
		timestamp := int64(numberOr(entry["timestamp"], 0))

		if alertType == "" || message == "" || timestamp == 0 {
			continue
		}

		alerts = append(alerts, Alert{
			ID:        key,
			Type:      alertType,
			Message:   message,
			Timestamp: timestamp,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Timestamp > alerts[j].Timestamp
	})

	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}

	return alerts
}
