package proto

import (
	"encoding/json"
	"testing"

	"github.com/bugduel/server/internal/arena"
)

func TestMessageUnionRoundTrip(t *testing.T) {
	msg := Move(arena.Turn{ImpulseIntents: arena.ImpulseIntents{}, Index: 3})
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Message
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type != TypeMove || back.Turn == nil || back.Turn.Index != 3 {
		t.Fatalf("move lost in transit: %+v", back)
	}
	if back.Lobby != nil || back.Error != nil {
		t.Fatalf("unrelated payloads populated: %+v", back)
	}
}

func TestTurnSyncNeverNil(t *testing.T) {
	data, err := json.Marshal(TurnSync(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["turns"]) != "[]" {
		t.Fatalf("turns encoded as %s, want []", raw["turns"])
	}
}
