// Package parser turns raw OCR text from a receipt into best-guess expense
// fields. The three heuristics (amount, date, merchant) run independently
// over the same input; a miss is a nil field, never an error.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Reya-11/Solid-spend/internal/core"
)

var (
	// One or more digits, a decimal point, exactly two digits. Amounts
	// written without cents ("42") are deliberately not candidates; widening
	// the pattern would change which value wins the max tie-break.
	amountPattern = regexp.MustCompile(`\d+\.\d{2}`)

	// Whole-document fallback adds word boundaries so digits inside longer
	// tokens (timestamps, barcodes) are skipped.
	boundedAmountPattern = regexp.MustCompile(`\b\d+\.\d{2}\b`)

	// Numeric day/month/year with 2-4 digit year; separators may mix within
	// one occurrence.
	datePattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
)

// Lines containing any of these (substring match) are treated as total-like.
var amountKeywords = []string{"total", "amount", "balance", "due"}

// ParseAmount finds the most likely total on a receipt. It first collects
// every two-decimal number on keyword lines and returns the maximum; totals
// are typically the largest figure near a total-like label, which also
// prefers a grand total over subtotal or tax lines. Only when no keyword
// line yields a candidate does it fall back to the maximum two-decimal
// number anywhere in the text. Returns nil when nothing matches.
func ParseAmount(text string) *decimal.Decimal {
	lines := strings.Split(strings.ToLower(text), "\n")

	var candidates []decimal.Decimal
	for _, line := range lines {
		if !containsAmountKeyword(line) {
			continue
		}
		candidates = appendAmounts(candidates, amountPattern.FindAllString(line, -1))
	}

	if len(candidates) == 0 {
		candidates = appendAmounts(candidates, boundedAmountPattern.FindAllString(text, -1))
	}
	if len(candidates) == 0 {
		return nil
	}

	max := candidates[0]
	for _, c := range candidates[1:] {
		if c.GreaterThan(max) {
			max = c
		}
	}
	return &max
}

func containsAmountKeyword(line string) bool {
	for _, kw := range amountKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// appendAmounts parses matches into decimals, silently skipping any that
// fail to parse; OCR noise is expected and never fatal.
func appendAmounts(dst []decimal.Decimal, matches []string) []decimal.Decimal {
	for _, m := range matches {
		v, err := decimal.NewFromString(m)
		if err != nil {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

// ParseDate finds the first numeric date in the text. The matched triple is
// interpreted as month/day/4-digit-year first, then month/day/2-digit-year.
// Day-first orderings are never attempted; this mirrors the receipts the
// heuristic was tuned on and is a known limitation rather than a bug.
// Returns nil when no occurrence matches or neither interpretation parses.
func ParseDate(text string) *core.Date {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	joined := strings.Join(m[1:], "/")
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		t, err := time.Parse(layout, joined)
		if err != nil {
			continue
		}
		d := core.NewDate(t.Year(), int(t.Month()), t.Day())
		return &d
	}
	return nil
}

// ParseMerchant assumes the merchant is the first non-empty line of the
// receipt. Returns nil when every line is blank.
func ParseMerchant(text string) *string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return &line
		}
	}
	return nil
}

// ParseReceipt runs all three heuristics over the same text and merges the
// results. One heuristic's miss never blocks another's match, and malformed
// input degrades to absent fields rather than an error.
func ParseReceipt(text string) core.ExtractedFields {
	return core.ExtractedFields{
		Amount:   ParseAmount(text),
		Date:     ParseDate(text),
		Merchant: ParseMerchant(text),
	}
}
