// Package worker mirrors locally stored expenses into the export
// spreadsheet, driven by AMQP messages with a periodic pending sweep as
// backup.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Reya-11/Solid-spend/internal/amqp"
	"github.com/Reya-11/Solid-spend/internal/core"
	"github.com/Reya-11/Solid-spend/internal/sheets"
	"github.com/Reya-11/Solid-spend/internal/storage"
)

// Storage is the slice of the repository the worker needs.
type Storage interface {
	GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSyncExpense, error)
	MarkSynced(ctx context.Context, id uuid.UUID) error
	MarkSyncError(ctx context.Context, id uuid.UUID) error
}

// SyncWorker appends expenses to the export sheet and tracks sync state.
type SyncWorker struct {
	storage   Storage
	sheets    sheets.ExpenseWriter
	batchSize int
}

func NewSyncWorker(storage Storage, sheets sheets.ExpenseWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return fmt.Errorf("parse expense id %q: %w", msg.ID, err)
	}

	return w.syncExpense(ctx, id)
}

// ProcessPendingExpenses syncs expenses that are still marked pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, p := range pending {
		if err := w.syncExpense(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending expense",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup so
// expenses written during worker downtime still reach the sheet.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup", "count", len(pending))

	synced := 0
	failed := 0
	for _, p := range pending {
		if err := w.syncExpense(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, id uuid.UUID) error {
	expense, err := w.storage.GetExpense(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.sheets.Append(ctx, expense)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The row already landed on the sheet, so keep going.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", id,
		"sheet_ref", ref,
		"merchant", expense.Merchant)

	return nil
}
