package currency

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Reya-11/Solid-spend/internal/core"
)

// Converter turns amounts in one currency into another using a RateSource.
// It holds no cache and no mutable state; concurrent calls are independent.
type Converter struct {
	source RateSource // nil when no credential is configured
	logger *slog.Logger
}

// NewConverter builds a Converter. A nil source models the "no credential
// configured" deployment: every cross-currency lookup reports rate
// unavailable, but same-currency conversions still work. A nil logger falls
// back to slog.Default().
func NewConverter(source RateSource, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{source: source, logger: logger}
}

// Rate resolves the exchange rate from source to target. The second return
// value reports whether a rate is available; false is a recoverable business
// condition, never an error. Same-currency lookups short-circuit to exactly
// 1 with no external call, so a missing credential never blocks
// same-currency expenses. All failure paths are logged with their reason.
func (c *Converter) Rate(ctx context.Context, source, target string) (decimal.Decimal, bool) {
	if source == target {
		return decimal.NewFromInt(1), true
	}

	if c.source == nil {
		c.logger.WarnContext(ctx, "No exchange rate credential configured, cannot convert",
			"source_currency", source,
			"target_currency", target)
		return decimal.Decimal{}, false
	}

	rates, err := c.source.FetchRates(ctx, source)
	if err != nil {
		c.logger.ErrorContext(ctx, "Exchange rate lookup failed",
			"source_currency", source,
			"target_currency", target,
			"error", err)
		return decimal.Decimal{}, false
	}

	rate, ok := rates[target]
	if !ok {
		c.logger.ErrorContext(ctx, "Target currency missing from rate table",
			"source_currency", source,
			"target_currency", target)
		return decimal.Decimal{}, false
	}

	return rate, true
}

// Normalize converts amount from source into target currency in decimal
// arithmetic. Returns false when no rate is available.
func (c *Converter) Normalize(ctx context.Context, amount core.Money, source, target string) (core.Money, bool) {
	rate, ok := c.Rate(ctx, source, target)
	if !ok {
		return core.Money{}, false
	}
	return amount.Convert(rate), true
}
