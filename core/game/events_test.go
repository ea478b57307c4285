package game

import (
	"encoding/json"
	"testing"
)

func TestMarshalEventPhaseChanged(t *testing.T) {
	raw := marshalEvent(Event{Type: EventPhaseChanged, Phase: "seed_reveal"})

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("marshalEvent produced invalid JSON: %v", err)
	}
	if decoded["type"] != string(EventPhaseChanged) {
		t.Errorf("expected type %q, got %v", EventPhaseChanged, decoded["type"])
	}
	if decoded["phase"] != "seed_reveal" {
		t.Errorf("expected phase seed_reveal, got %v", decoded["phase"])
	}
	if _, ok := decoded["round"]; ok {
		t.Error("round should be omitted when zero")
	}
}

func TestMarshalEventRoundAdvanced(t *testing.T) {
	raw := marshalEvent(Event{Type: EventRoundAdvanced, Round: 3})

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("marshalEvent produced invalid JSON: %v", err)
	}
	if decoded["round"] != float64(3) {
		t.Errorf("expected round 3, got %v", decoded["round"])
	}
	if _, ok := decoded["phase"]; ok {
		t.Error("phase should be omitted when empty")
	}
}
