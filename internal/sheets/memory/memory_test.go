package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Reya-11/Solid-spend/internal/core"
)

func TestStoreAppend(t *testing.T) {
	store := New()
	amount, _ := core.ParseMoney("12.50")

	e := core.Expense{
		ID:               uuid.New(),
		Amount:           amount,
		Currency:         "USD",
		NormalizedAmount: amount,
		Category:         "Food",
		Merchant:         "Joe's Diner",
		Date:             core.NewDate(2024, 1, 15),
	}

	ref, err := store.Append(context.Background(), e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected row ref %q", ref)
	}
	if items := store.Items(); len(items) != 1 || items[0].ID != e.ID {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestStoreAppendRejectsInvalid(t *testing.T) {
	store := New()
	if _, err := store.Append(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.Items()) != 0 {
		t.Fatal("invalid expense must not be stored")
	}
}
