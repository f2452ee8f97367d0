// Package storage persists expenses and user preferences in a local SQLite
// database. It is the only layer aware that preferences live in a single
// hard-coded row; everything above depends on provider interfaces.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Reya-11/Solid-spend/internal/core"

	_ "modernc.org/sqlite"
)

const (
	syncStatusPending = "pending"
	syncStatusSynced  = "synced"
	syncStatusError   = "error"
)

// PendingSyncExpense identifies an expense row that has not reached the
// export sheet yet.
type PendingSyncExpense struct {
	ID      uuid.UUID
	Version int64
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `id, date, merchant, category, amount_cents, currency,
	normalized_cents, notes, ocr_confidence, version, created_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, merchant, category, amount_cents, currency,
			normalized_cents, notes, ocr_confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(),
		e.Date.String(),
		e.Merchant,
		e.Category,
		e.Amount.Cents(),
		e.Currency,
		e.NormalizedAmount.Cents(),
		e.Notes,
		nullFloat(e.OCRConfidence),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"merchant", e.Merchant,
		"amount_cents", e.Amount.Cents(),
		"currency", e.Currency)

	return nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns expenses ordered by date descending with pagination.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, limit, offset int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// ListAllExpenses returns every expense for export, newest first.
func (r *SQLiteRepository) ListAllExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// UpdateExpense overwrites a stored expense, bumps its version and resets it
// to pending so the sync worker picks it up again. Returns the new version.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET date = ?, merchant = ?, category = ?, amount_cents = ?, currency = ?,
			normalized_cents = ?, notes = ?, ocr_confidence = ?,
			version = version + 1, sync_status = ?, updated_at = datetime('now')
		WHERE id = ?`,
		e.Date.String(),
		e.Merchant,
		e.Category,
		e.Amount.Cents(),
		e.Currency,
		e.NormalizedAmount.Cents(),
		e.Notes,
		nullFloat(e.OCRConfidence),
		syncStatusPending,
		e.ID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return 0, core.ErrExpenseNotFound
	}

	var version int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT version FROM expenses WHERE id = ?`, e.ID.String()).Scan(&version); err != nil {
		return 0, fmt.Errorf("read expense version: %w", err)
	}

	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "version", version)
	return version, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

// GetPreferences returns the deployment's preferences, creating the default
// row on first access. The id=1 convention never leaves this package.
func (r *SQLiteRepository) GetPreferences(ctx context.Context) (core.UserPreferences, error) {
	prefs, err := r.readPreferences(ctx)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.UserPreferences{}, fmt.Errorf("read preferences: %w", err)
	}

	slog.InfoContext(ctx, "No preferences found, creating default entry")
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (id, base_currency, theme)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		core.DefaultBaseCurrency, core.DefaultTheme)
	if err != nil {
		return core.UserPreferences{}, fmt.Errorf("create default preferences: %w", err)
	}

	return r.readPreferences(ctx)
}

func (r *SQLiteRepository) readPreferences(ctx context.Context) (core.UserPreferences, error) {
	var (
		prefs   core.UserPreferences
		catsRaw sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT base_currency, theme, custom_categories FROM user_preferences WHERE id = 1`,
	).Scan(&prefs.BaseCurrency, &prefs.Theme, &catsRaw)
	if err != nil {
		return core.UserPreferences{}, err
	}
	if catsRaw.Valid && catsRaw.String != "" {
		if err := json.Unmarshal([]byte(catsRaw.String), &prefs.CustomCategories); err != nil {
			return core.UserPreferences{}, fmt.Errorf("decode custom categories: %w", err)
		}
	}
	return prefs, nil
}

func (r *SQLiteRepository) UpdatePreferences(ctx context.Context, prefs core.UserPreferences) error {
	var catsRaw any
	if len(prefs.CustomCategories) > 0 {
		b, err := json.Marshal(prefs.CustomCategories)
		if err != nil {
			return fmt.Errorf("encode custom categories: %w", err)
		}
		catsRaw = string(b)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_preferences (id, base_currency, theme, custom_categories)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			base_currency = excluded.base_currency,
			theme = excluded.theme,
			custom_categories = excluded.custom_categories`,
		prefs.BaseCurrency, prefs.Theme, catsRaw)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}

	slog.InfoContext(ctx, "Preferences updated", "base_currency", prefs.BaseCurrency)
	return nil
}

// SpendingByCategory sums normalized amounts per category, largest first.
func (r *SQLiteRepository) SpendingByCategory(ctx context.Context) ([]core.NamedTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(normalized_cents) AS total
		FROM expenses
		GROUP BY category
		ORDER BY total DESC`)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	return collectNamedTotals(rows)
}

// SpendingByMerchant sums normalized amounts for the top 20 merchants.
func (r *SQLiteRepository) SpendingByMerchant(ctx context.Context) ([]core.NamedTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT merchant, SUM(normalized_cents) AS total
		FROM expenses
		GROUP BY merchant
		ORDER BY total DESC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("spending by merchant: %w", err)
	}
	defer rows.Close()

	return collectNamedTotals(rows)
}

// SpendingByMonth sums normalized amounts per calendar month, oldest first.
func (r *SQLiteRepository) SpendingByMonth(ctx context.Context) ([]core.MonthTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(date, 1, 7) AS month, SUM(normalized_cents) AS total
		FROM expenses
		GROUP BY month
		ORDER BY month ASC`)
	if err != nil {
		return nil, fmt.Errorf("spending by month: %w", err)
	}
	defer rows.Close()

	var out []core.MonthTotal
	for rows.Next() {
		var (
			month string
			cents int64
		)
		if err := rows.Scan(&month, &cents); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		out = append(out, core.MonthTotal{Month: month, Total: core.FromCents(cents)})
	}
	return out, rows.Err()
}

// GetPendingSync returns expenses awaiting export, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM expenses
		WHERE sync_status = ?
		ORDER BY created_at ASC
		LIMIT ?`, syncStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncExpense
	for rows.Next() {
		var (
			rawID   string
			version int64
		)
		if err := rows.Scan(&rawID, &version); err != nil {
			return nil, fmt.Errorf("scan pending sync expense: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse pending expense id %q: %w", rawID, err)
		}
		out = append(out, PendingSyncExpense{ID: id, Version: version})
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_status = ?, synced_at = datetime('now') WHERE id = ?`,
		syncStatusSynced, id.String())
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET sync_status = ? WHERE id = ?`,
		syncStatusError, id.String())
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e             core.Expense
		rawID         string
		rawDate       string
		amountCents   int64
		normCents     int64
		ocrConfidence sql.NullFloat64
		rawCreatedAt  string
	)
	err := row.Scan(&rawID, &rawDate, &e.Merchant, &e.Category, &amountCents,
		&e.Currency, &normCents, &e.Notes, &ocrConfidence, &e.Version, &rawCreatedAt)
	if err != nil {
		return core.Expense{}, err
	}

	e.ID, err = uuid.Parse(rawID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id %q: %w", rawID, err)
	}
	e.Date, err = core.ParseDate(rawDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", rawDate, err)
	}
	e.Amount = core.FromCents(amountCents)
	e.NormalizedAmount = core.FromCents(normCents)
	if ocrConfidence.Valid {
		e.OCRConfidence = &ocrConfidence.Float64
	}
	if t, err := time.Parse("2006-01-02 15:04:05", rawCreatedAt); err == nil {
		e.CreatedAt = t
	}

	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func collectNamedTotals(rows *sql.Rows) ([]core.NamedTotal, error) {
	var out []core.NamedTotal
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, fmt.Errorf("scan named total: %w", err)
		}
		out = append(out, core.NamedTotal{Name: name, Total: core.FromCents(cents)})
	}
	return out, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
