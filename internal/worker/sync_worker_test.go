package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Reya-11/Solid-spend/internal/amqp"
	"github.com/Reya-11/Solid-spend/internal/core"
	"github.com/Reya-11/Solid-spend/internal/storage"
)

type fakeWorkerStorage struct {
	expenses   map[uuid.UUID]core.Expense
	pending    []storage.PendingSyncExpense
	synced     []uuid.UUID
	syncErrors []uuid.UUID
}

func newFakeWorkerStorage() *fakeWorkerStorage {
	return &fakeWorkerStorage{expenses: make(map[uuid.UUID]core.Expense)}
}

func (f *fakeWorkerStorage) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return e, nil
}

func (f *fakeWorkerStorage) GetPendingSync(_ context.Context, limit int) ([]storage.PendingSyncExpense, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	return f.pending[:limit], nil
}

func (f *fakeWorkerStorage) MarkSynced(_ context.Context, id uuid.UUID) error {
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakeWorkerStorage) MarkSyncError(_ context.Context, id uuid.UUID) error {
	f.syncErrors = append(f.syncErrors, id)
	return nil
}

type fakeSheet struct {
	appended []core.Expense
	err      error
}

func (f *fakeSheet) Append(_ context.Context, e core.Expense) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, e)
	return "Expenses!A2:H2", nil
}

func testExpense() core.Expense {
	amount, _ := core.ParseMoney("12.50")
	return core.Expense{
		ID:               uuid.New(),
		Amount:           amount,
		Currency:         "USD",
		NormalizedAmount: amount,
		Category:         "Food",
		Merchant:         "Joe's Diner",
		Date:             core.NewDate(2024, 1, 15),
		Version:          1,
	}
}

func TestHandleSyncMessageAppendsAndMarksSynced(t *testing.T) {
	store := newFakeWorkerStorage()
	e := testExpense()
	store.expenses[e.ID] = e
	sheet := &fakeSheet{}
	w := NewSyncWorker(store, sheet, 10)

	msg := amqp.NewExpenseSyncMessage(e.ID.String(), e.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.appended) != 1 || sheet.appended[0].ID != e.ID {
		t.Fatalf("unexpected appends %+v", sheet.appended)
	}
	if len(store.synced) != 1 || store.synced[0] != e.ID {
		t.Fatalf("expected expense marked synced, got %v", store.synced)
	}
}

func TestHandleSyncMessageSheetFailureMarksError(t *testing.T) {
	store := newFakeWorkerStorage()
	e := testExpense()
	store.expenses[e.ID] = e
	sheet := &fakeSheet{err: errors.New("quota exceeded")}
	w := NewSyncWorker(store, sheet, 10)

	msg := amqp.NewExpenseSyncMessage(e.ID.String(), e.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error from sheet failure")
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != e.ID {
		t.Fatalf("expected expense marked sync-error, got %v", store.syncErrors)
	}
	if len(store.synced) != 0 {
		t.Fatal("failed expense must not be marked synced")
	}
}

func TestHandleSyncMessageRejectsMalformedID(t *testing.T) {
	w := NewSyncWorker(newFakeWorkerStorage(), &fakeSheet{}, 10)

	msg := amqp.NewExpenseSyncMessage("not-a-uuid", 1)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestProcessPendingExpenses(t *testing.T) {
	store := newFakeWorkerStorage()
	first := testExpense()
	second := testExpense()
	store.expenses[first.ID] = first
	store.expenses[second.ID] = second
	store.pending = []storage.PendingSyncExpense{
		{ID: first.ID, Version: 1},
		{ID: second.ID, Version: 1},
	}
	sheet := &fakeSheet{}
	w := NewSyncWorker(store, sheet, 10)

	if err := w.ProcessPendingExpenses(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(sheet.appended) != 2 {
		t.Fatalf("expected 2 appends, got %d", len(sheet.appended))
	}
	if len(store.synced) != 2 {
		t.Fatalf("expected 2 marked synced, got %d", len(store.synced))
	}
}

func TestProcessPendingMissingExpenseMarkedError(t *testing.T) {
	store := newFakeWorkerStorage()
	ghost := uuid.New()
	store.pending = []storage.PendingSyncExpense{{ID: ghost, Version: 1}}
	w := NewSyncWorker(store, &fakeSheet{}, 10)

	if err := w.ProcessPendingExpenses(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(store.syncErrors) != 1 || store.syncErrors[0] != ghost {
		t.Fatalf("expected ghost marked sync-error, got %v", store.syncErrors)
	}
}

func TestStartupSyncCheckEmptyBacklog(t *testing.T) {
	w := NewSyncWorker(newFakeWorkerStorage(), &fakeSheet{}, 10)
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
}
