package parser

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string // "" means absent
	}{
		{
			name: "keyword line wins over subtotal",
			text: "Subtotal: 40.00\nTotal: 42.00\n",
			want: "42.00",
		},
		{
			name: "max across multiple keyword lines",
			text: "amount due 12.00\nbalance 15.75\ntax 2.00\n",
			want: "15.75",
		},
		{
			name: "keyword match is case-insensitive substring",
			text: "GRAND TOTAL 99.10\n",
			want: "99.10",
		},
		{
			name: "fallback max over whole document",
			text: "random 5.00 noise\nmore 19.99 noise\n",
			want: "19.99",
		},
		{
			name: "keyword candidates suppress fallback",
			text: "total 10.00\nunlabeled 99.99\n",
			want: "10.00",
		},
		{
			name: "fallback respects word boundaries",
			text: "ref 123.456 code\nitem 7.77\n",
			want: "7.77",
		},
		{
			name: "no two-decimal numbers at all",
			text: "thanks for shopping\nsee you soon\n",
			want: "",
		},
		{
			name: "whole-dollar totals are not candidates",
			text: "total 42\n",
			want: "",
		},
		{
			name: "empty input",
			text: "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.text)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("expected no amount, got %s", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got none", tc.want)
			}
			if got.StringFixed(2) != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.StringFixed(2))
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string // "" means absent
	}{
		{"slash four digit year", "date 01/15/2024 receipt", "2024-01-15"},
		{"two digit year", "12/31/24", "2024-12-31"},
		{"dash separators", "01-15-2024", "2024-01-15"},
		{"mixed separators", "01/15-2024", "2024-01-15"},
		{"single digit month and day", "1/5/2024", "2024-01-05"},
		{"first occurrence wins", "02/01/2024 then 03/01/2024", "2024-02-01"},
		{"day first ordering never tried", "31/12/2024", ""},
		{"month out of range", "13/01/2024", ""},
		{"no date at all", "no dates here", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseDate(tc.text)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("expected no date, got %s", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got none", tc.want)
			}
			if got.String() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseMerchant(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string // "" means absent
	}{
		{"first line", "Joe's Diner\n123 Main St\n", "Joe's Diner"},
		{"skips leading blank lines", "\n  \nCorner Shop\n", "Corner Shop"},
		{"trims whitespace", "  Trimmed Mart  \n", "Trimmed Mart"},
		{"all blank", "\n   \n\t\n", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseMerchant(tc.text)
			if tc.want == "" {
				if got != nil {
					t.Fatalf("expected no merchant, got %q", *got)
				}
				return
			}
			if got == nil || *got != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, got)
			}
		})
	}
}

func TestParseReceipt(t *testing.T) {
	t.Run("typical receipt", func(t *testing.T) {
		fields := ParseReceipt("Joe's Diner\n01/15/2024\nSubtotal 10.00\nTotal 12.50\n")
		if fields.Amount == nil || fields.Amount.StringFixed(2) != "12.50" {
			t.Fatalf("expected amount 12.50, got %v", fields.Amount)
		}
		if fields.Date == nil || fields.Date.String() != "2024-01-15" {
			t.Fatalf("expected date 2024-01-15, got %v", fields.Date)
		}
		if fields.Merchant == nil || *fields.Merchant != "Joe's Diner" {
			t.Fatalf("expected merchant Joe's Diner, got %v", fields.Merchant)
		}
	})

	t.Run("noisy single line", func(t *testing.T) {
		fields := ParseReceipt("random noise 3.33 more noise 7.77")
		if fields.Amount == nil || fields.Amount.StringFixed(2) != "7.77" {
			t.Fatalf("expected amount 7.77, got %v", fields.Amount)
		}
		if fields.Date != nil {
			t.Fatalf("expected no date, got %s", fields.Date)
		}
		if fields.Merchant == nil || *fields.Merchant != "random noise 3.33 more noise 7.77" {
			t.Fatalf("unexpected merchant %v", fields.Merchant)
		}
	})

	t.Run("empty text yields all absent", func(t *testing.T) {
		fields := ParseReceipt("")
		if fields.Amount != nil || fields.Date != nil || fields.Merchant != nil {
			t.Fatalf("expected all fields absent, got %+v", fields)
		}
	})

	t.Run("heuristics are independent", func(t *testing.T) {
		fields := ParseReceipt("\n\n01/02/2024\n")
		if fields.Amount != nil {
			t.Fatalf("expected no amount, got %s", fields.Amount)
		}
		if fields.Date == nil || fields.Date.String() != "2024-01-02" {
			t.Fatalf("expected date despite missing amount, got %v", fields.Date)
		}
		if fields.Merchant == nil || *fields.Merchant != "01/02/2024" {
			t.Fatalf("expected date line as merchant fallback, got %v", fields.Merchant)
		}
	})
}
