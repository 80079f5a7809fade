package chat

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewTurnID(t *testing.T) {
	id1 := NewTurnID()
	id2 := NewTurnID()

	// TurnIDは一意である
	if id1.String() == id2.String() {
		t.Errorf("TurnID should be unique, got same ID: %s", id1.String())
	}

	// フォーマットチェック: YYYYMMDD-HHMMSS-{UUID}
	parts := strings.Split(id1.String(), "-")
	if len(parts) != 3 {
		t.Fatalf("TurnID format should be YYYYMMDD-HHMMSS-UUID, got: %s", id1.String())
	}
	if len(parts[0]) != 8 || len(parts[1]) != 6 || len(parts[2]) != 8 {
		t.Errorf("Unexpected part lengths in %s", id1.String())
	}
}

func TestNewTurnIDAt_UsesTimestamp(t *testing.T) {
	id := newTurnIDAt(time.Date(2026, 3, 1, 12, 34, 56, 0, time.UTC))

	if !strings.HasPrefix(id.String(), "20260301-123456-") {
		t.Errorf("Expected timestamp prefix, got %s", id.String())
	}
}

func TestTurnIDEquals(t *testing.T) {
	a := TurnIDFromString("20260301-120000-abcd1234")
	b := TurnIDFromString("20260301-120000-abcd1234")
	c := TurnIDFromString("20260301-120001-efgh5678")

	if !a.Equals(b) {
		t.Error("Same TurnIDs should be equal")
	}
	if a.Equals(c) {
		t.Error("Different TurnIDs should not be equal")
	}
}

func TestTurnIDIsZero(t *testing.T) {
	var zero TurnID

	if !zero.IsZero() {
		t.Error("Zero TurnID should return true for IsZero()")
	}
	if NewTurnID().IsZero() {
		t.Error("New TurnID should return false for IsZero()")
	}
}

func TestTurnIDJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		ID TurnID `json:"id"`
	}{TurnIDFromString("20260301-120000-abcd1234")})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"id":"20260301-120000-abcd1234"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}
}
