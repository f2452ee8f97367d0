package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyCentsRoundTrip(t *testing.T) {
	m, err := ParseMoney("12.50")
	if err != nil {
		t.Fatal(err)
	}
	if m.Cents() != 1250 {
		t.Fatalf("expected 1250 cents, got %d", m.Cents())
	}
	back := FromCents(m.Cents())
	if !back.Value.Equal(m.Value) {
		t.Fatalf("round trip changed value: %s != %s", back, m)
	}
}

func TestMoneyConvertDeterministic(t *testing.T) {
	m, _ := ParseMoney("10.00")
	rate, _ := ParseMoney("1.17") // reuse parser for a known decimal
	a := m.Convert(rate.Value)
	b := m.Convert(rate.Value)
	if !a.Value.Equal(b.Value) {
		t.Fatalf("conversion not deterministic: %s != %s", a, b)
	}
	if a.String() != "11.70" {
		t.Fatalf("expected 11.70, got %s", a)
	}
}
