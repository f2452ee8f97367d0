package amqp

import (
	"testing"
)

func TestExpenseSyncMessageJSON(t *testing.T) {
	msg := NewExpenseSyncMessage("7d9f7f4e-9a1e-4a7e-9a51-2f6f2d2b1c11", 3)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := ExpenseSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != msg.ID || got.Version != 3 {
		t.Fatalf("unexpected message %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp should survive the round trip")
	}
}

func TestExpenseSyncMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExpenseSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
