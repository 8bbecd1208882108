package stimmux

import "strings"

const (
	EventTypePulseEvent  = "pulse_event"
	EventTypeChargeState = "charge_state"
	EventTypeConfig      = "config"
	EventTypeUnknown     = "unknown"
)

// ClassifyPayload inspects a console payload string and returns a simple
// event type token. The classification is intentionally conservative: the
// control unit labels pulse reports and charge reports with distinctive keys,
// and everything else JSON-shaped is treated as a config echo.
func ClassifyPayload(payload string) string {
	if strings.Contains(payload, "orientation_deg") || strings.Contains(payload, "pulse") {
		return EventTypePulseEvent
	}
	if strings.Contains(payload, "charge") || strings.Contains(payload, "capacitor_v") {
		return EventTypeChargeState
	}
	if strings.HasPrefix(payload, "{") {
		return EventTypeConfig
	}
	return EventTypeUnknown
}
