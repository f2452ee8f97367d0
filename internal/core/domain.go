package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyMerchant   = errors.New("empty merchant")
	ErrEmptyCategory   = errors.New("empty category")
	ErrExpenseNotFound = errors.New("expense not found")
)

var currencyCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

type (
	// Date is a calendar date without a time component.
	Date struct {
		time.Time
	}

	// ExtractedFields holds the best-guess values recovered from receipt
	// text. Each field is independently nil when no confident match exists;
	// there are no cross-field invariants.
	ExtractedFields struct {
		Amount   *decimal.Decimal
		Date     *Date
		Merchant *string
	}

	// ExpenseDraft is a caller-supplied expense before persistence. It has
	// no ID and no normalized amount yet.
	ExpenseDraft struct {
		Amount        Money
		Currency      string
		Category      string
		Merchant      string
		Date          Date
		Notes         string
		OCRConfidence *float64
	}

	// Expense is a persisted expense. NormalizedAmount is the amount
	// converted into the base currency at the time of the write that set
	// it; it stays stale until a write touches Amount or Currency.
	Expense struct {
		ID               uuid.UUID
		Amount           Money
		Currency         string
		NormalizedAmount Money
		Category         string
		Merchant         string
		Date             Date
		Notes            string
		OCRConfidence    *float64
		Version          int64
		CreatedAt        time.Time
	}

	// ExpenseUpdate carries the fields of an update request; nil means
	// "leave unchanged".
	ExpenseUpdate struct {
		Amount   *Money
		Currency *string
		Category *string
		Merchant *string
		Date     *Date
		Notes    *string
	}

	// UserPreferences is the single logical preferences instance for the
	// deployment. It is lazily created with defaults on first access.
	UserPreferences struct {
		BaseCurrency     string
		Theme            string
		CustomCategories []string
	}
)

const (
	DefaultBaseCurrency = "USD"
	DefaultTheme        = "light"
)

// NewDate creates a Date from year, month and day, anchored at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NormalizeCurrency uppercases a 3-letter ISO currency code.
func NormalizeCurrency(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !currencyCodePattern.MatchString(code) {
		return "", ErrInvalidCurrency
	}
	return strings.ToUpper(code), nil
}

func (d ExpenseDraft) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !currencyCodePattern.MatchString(d.Currency) || d.Currency != strings.ToUpper(d.Currency) {
		return ErrInvalidCurrency
	}
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if len(d.Merchant) > 100 {
		return errors.New("merchant too long (max 100 characters)")
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if len(d.Category) > 50 {
		return errors.New("category too long (max 50 characters)")
	}
	return nil
}

func (e Expense) Validate() error {
	d := ExpenseDraft{
		Amount:   e.Amount,
		Currency: e.Currency,
		Category: e.Category,
		Merchant: e.Merchant,
		Date:     e.Date,
	}
	if err := d.Validate(); err != nil {
		return err
	}
	return e.NormalizedAmount.Validate()
}
