// Package services orchestrates the expense write path: every create or
// update that touches amount or currency runs through currency
// normalization, and a write is rejected outright when no rate is available
// (a wrong normalized total is worse than a rejected write).
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Reya-11/Solid-spend/internal/core"
	"github.com/Reya-11/Solid-spend/internal/currency"
)

// ExpenseStore is the persistence collaborator for expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
	ListExpenses(ctx context.Context, limit, offset int) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (version int64, err error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	SpendingByCategory(ctx context.Context) ([]core.NamedTotal, error)
	SpendingByMerchant(ctx context.Context) ([]core.NamedTotal, error)
	SpendingByMonth(ctx context.Context) ([]core.MonthTotal, error)
}

// PreferencesProvider supplies the current user preferences. The singleton
// row behind it is a storage detail this package knows nothing about.
type PreferencesProvider interface {
	GetPreferences(ctx context.Context) (core.UserPreferences, error)
}

// SyncPublisher notifies the export worker about a changed expense.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id string, version int64) error
}

// RateUnavailableError rejects a write because the expense currency could
// not be converted into the base currency. It is recoverable: the caller can
// retry once a rate source is configured or reachable.
type RateUnavailableError struct {
	Currency string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("could not retrieve an exchange rate for currency %q; the expense was not saved", e.Currency)
}

// ExpenseService couples expense persistence to currency normalization.
type ExpenseService struct {
	storage   ExpenseStore
	prefs     PreferencesProvider
	converter *currency.Converter
	publisher SyncPublisher // nil disables sync publishing
}

func NewExpenseService(storage ExpenseStore, prefs PreferencesProvider, converter *currency.Converter, publisher SyncPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		prefs:     prefs,
		converter: converter,
		publisher: publisher,
	}
}

// Create validates the draft, normalizes its amount into the base currency
// and persists the expense. When no rate is available the create fails with
// RateUnavailableError and nothing is persisted.
func (s *ExpenseService) Create(ctx context.Context, draft core.ExpenseDraft) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	prefs, err := s.prefs.GetPreferences(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load preferences: %w", err)
	}

	normalized, ok := s.converter.Normalize(ctx, draft.Amount, draft.Currency, prefs.BaseCurrency)
	if !ok {
		return core.Expense{}, &RateUnavailableError{Currency: draft.Currency}
	}

	e := core.Expense{
		ID:               uuid.New(),
		Amount:           draft.Amount,
		Currency:         draft.Currency,
		NormalizedAmount: normalized,
		Category:         draft.Category,
		Merchant:         draft.Merchant,
		Date:             draft.Date,
		Notes:            draft.Notes,
		OCRConfidence:    draft.OCRConfidence,
		Version:          1,
	}

	if err := s.storage.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishSync(ctx, e.ID, e.Version)
	return e, nil
}

// Update applies the changed fields to a stored expense. Normalization is
// re-run against the current base currency only when amount or currency
// actually changed compared to the stored values; any other update leaves
// the stored normalized amount untouched.
func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error) {
	e, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	conversionAffected := false
	if upd.Amount != nil && !upd.Amount.Value.Equal(e.Amount.Value) {
		conversionAffected = true
	}
	if upd.Currency != nil && *upd.Currency != e.Currency {
		conversionAffected = true
	}

	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Currency != nil {
		e.Currency = *upd.Currency
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Merchant != nil {
		e.Merchant = *upd.Merchant
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Notes != nil {
		e.Notes = *upd.Notes
	}

	// Validation failures surface before the rate lookup.
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if conversionAffected {
		prefs, err := s.prefs.GetPreferences(ctx)
		if err != nil {
			return core.Expense{}, fmt.Errorf("load preferences: %w", err)
		}
		normalized, ok := s.converter.Normalize(ctx, e.Amount, e.Currency, prefs.BaseCurrency)
		if !ok {
			return core.Expense{}, &RateUnavailableError{Currency: e.Currency}
		}
		e.NormalizedAmount = normalized
	}

	version, err := s.storage.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	e.Version = version

	s.publishSync(ctx, e.ID, e.Version)
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	return s.storage.GetExpense(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context, limit, offset int) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, limit, offset)
}

func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.storage.DeleteExpense(ctx, id)
}

// Analytics aggregates spending by category, merchant and month, expressed
// in the current base currency.
func (s *ExpenseService) Analytics(ctx context.Context) (core.AnalyticsReport, error) {
	byCategory, err := s.storage.SpendingByCategory(ctx)
	if err != nil {
		return core.AnalyticsReport{}, fmt.Errorf("spending by category: %w", err)
	}
	byMerchant, err := s.storage.SpendingByMerchant(ctx)
	if err != nil {
		return core.AnalyticsReport{}, fmt.Errorf("spending by merchant: %w", err)
	}
	overTime, err := s.storage.SpendingByMonth(ctx)
	if err != nil {
		return core.AnalyticsReport{}, fmt.Errorf("spending by month: %w", err)
	}
	prefs, err := s.prefs.GetPreferences(ctx)
	if err != nil {
		return core.AnalyticsReport{}, fmt.Errorf("load preferences: %w", err)
	}

	return core.AnalyticsReport{
		ByCategory:   byCategory,
		ByMerchant:   byMerchant,
		OverTime:     overTime,
		BaseCurrency: prefs.BaseCurrency,
	}, nil
}

// publishSync is non-fatal: the expense is already saved locally and the
// worker's pending sweep covers lost messages.
func (s *ExpenseService) publishSync(ctx context.Context, id uuid.UUID, version int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, id.String(), version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id,
			"version", version,
			"error", err)
	}
}
