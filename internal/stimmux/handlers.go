package stimmux

import (
	"encoding/json"
	"fmt"

	"github.com/nbe-data/mtms.report/internal/db"
	"github.com/nbe-data/mtms.report/internal/monitoring"
)

// CurrentState holds the latest charge and config values received from the
// control unit and is intentionally package-level so admin routes or tests
// can inspect it.
var CurrentState map[string]any

// HandlePulseEvent records a fired pulse reported on the console.
func HandlePulseEvent(d *db.DB, payload string) error {
	monitoring.Logf("Pulse Event Line: %+v", payload)

	var event db.PulseEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return fmt.Errorf("failed to unmarshal pulse event: %v", err)
	}
	event.Raw = payload
	return d.RecordPulseEvent(event)
}

// HandleChargeState folds a capacitor charge report into CurrentState.
func HandleChargeState(payload string) error {
	monitoring.Logf("Charge State Line: %+v", payload)
	return mergeState(payload)
}

// HandleConfigResponse folds a config echo into CurrentState.
func HandleConfigResponse(payload string) error {
	monitoring.Logf("Config Line: %+v", payload)
	return mergeState(payload)
}

func mergeState(payload string) error {
	var values map[string]any
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %v", err)
	}

	if CurrentState == nil {
		CurrentState = make(map[string]any)
	}
	for k, v := range values {
		CurrentState[k] = v
	}
	return nil
}

// HandleEvent dispatches one console line to the matching handler.
func HandleEvent(d *db.DB, payload string) error {
	switch ClassifyPayload(payload) {
	case EventTypePulseEvent:
		if err := HandlePulseEvent(d, payload); err != nil {
			return fmt.Errorf("failed to handle pulse event: %v", err)
		}
	case EventTypeChargeState:
		if err := HandleChargeState(payload); err != nil {
			return fmt.Errorf("failed to handle charge state: %v", err)
		}
	case EventTypeConfig:
		if err := HandleConfigResponse(payload); err != nil {
			return fmt.Errorf("failed to handle config response: %v", err)
		}
	default:
		monitoring.Logf("unknown event type: %s", payload)
	}
	return nil
}
