package core

// NamedTotal is a normalized-amount sum aggregated by a name (category or
// merchant).
type NamedTotal struct {
	Name  string
	Total Money
}

// MonthTotal is a normalized-amount sum for one calendar month.
type MonthTotal struct {
	Month string // YYYY-MM
	Total Money
}

// AnalyticsReport aggregates spending across all expenses. All totals are
// expressed in BaseCurrency.
type AnalyticsReport struct {
	ByCategory   []NamedTotal
	ByMerchant   []NamedTotal
	OverTime     []MonthTotal
	BaseCurrency string
}
