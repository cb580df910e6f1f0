package normalize

import (
	"testing"

	"github.com/dvloznov/spendlens/internal/domain"
)

func TestFindAmount(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantValue    float64
		wantCurrency string
		wantSign     Sign
		wantRaw      string
	}{
		{
			name:         "explicit negative",
			input:        "Netflix Subscription -15.99",
			wantValue:    -15.99,
			wantCurrency: domain.CurrencyUSD,
			wantSign:     SignNegative,
			wantRaw:      "-15.99",
		},
		{
			name:         "explicit positive",
			input:        "Refund +20.00",
			wantValue:    20,
			wantCurrency: domain.CurrencyUSD,
			wantSign:     SignPositive,
			wantRaw:      "+20.00",
		},
		{
			name:         "thousands separators and symbol",
			input:        "Rent $1,250.00",
			wantValue:    1250,
			wantCurrency: domain.CurrencyUSD,
			wantRaw:      "$1,250.00",
		},
		{
			name:         "sign before symbol",
			input:        "Coffee -$4.50",
			wantValue:    -4.5,
			wantCurrency: domain.CurrencyUSD,
			wantSign:     SignNegative,
			wantRaw:      "-$4.50",
		},
		{
			name:         "debit marker forces negative",
			input:        "Card payment Tesco 32.10",
			wantValue:    -32.10,
			wantCurrency: domain.CurrencyUSD,
			wantRaw:      "32.10",
		},
		{
			name:         "withdrawal marker",
			input:        "ATM WITHDRAWAL 100.00",
			wantValue:    -100,
			wantCurrency: domain.CurrencyUSD,
			wantRaw:      "100.00",
		},
		{
			name:         "explicit sign beats marker",
			input:        "Payment received +100.00",
			wantValue:    100,
			wantCurrency: domain.CurrencyUSD,
			wantSign:     SignPositive,
			wantRaw:      "+100.00",
		},
		{
			name:         "rupee prefix",
			input:        "Daraz order Rs.1,500.00",
			wantValue:    1500,
			wantCurrency: domain.CurrencyPKR,
			wantRaw:      "Rs.1,500.00",
		},
		{
			name:         "code suffix is part of the token",
			input:        "Hotel booking 210.40 EUR",
			wantValue:    210.40,
			wantCurrency: domain.CurrencyEUR,
			wantRaw:      "210.40 EUR",
		},
		{
			name:         "pkr anywhere wins over adjacent code",
			input:        "FX PKR account 15.00 USD",
			wantValue:    15,
			wantCurrency: domain.CurrencyPKR,
			wantRaw:      "15.00 USD",
		},
		{
			name:         "pound symbol",
			input:        "Pret £3.20",
			wantValue:    3.2,
			wantCurrency: domain.CurrencyGBP,
			wantRaw:      "£3.20",
		},
		{
			name:         "first token wins",
			input:        "Grocer 12.00 balance 1,000.00",
			wantValue:    12,
			wantCurrency: domain.CurrencyUSD,
			wantRaw:      "12.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindAmount(tt.input)
			if !ok {
				t.Fatalf("FindAmount(%q) found nothing", tt.input)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", got.Value, tt.wantValue)
			}
			if got.Currency != tt.wantCurrency {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCurrency)
			}
			if got.Explicit != tt.wantSign {
				t.Errorf("Explicit = %v, want %v", got.Explicit, tt.wantSign)
			}
			if got.Raw != tt.wantRaw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.wantRaw)
			}
			if tt.input[got.Start:got.End] != got.Raw {
				t.Errorf("offsets [%d:%d] do not cover Raw", got.Start, got.End)
			}
		})
	}
}

func TestFindAmount_NoMatch(t *testing.T) {
	for _, in := range []string{"Statement total", "Page 3 of 4", "Order 1234", "Amount 12.5"} {
		if m, ok := FindAmount(in); ok {
			t.Errorf("FindAmount(%q) = %+v, want no match", in, m)
		}
	}
}

func TestFindAmount_WordEndingInRs(t *testing.T) {
	m, ok := FindAmount("Hours 15.00")
	if !ok {
		t.Fatal("expected an amount")
	}
	if m.Raw != "15.00" || m.Currency != domain.CurrencyUSD {
		t.Errorf("got %+v", m)
	}
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Amount in PKR", domain.CurrencyPKR},
		{"rs 500", domain.CurrencyPKR},
		{"Rs. 500", domain.CurrencyPKR},
		{"total 12 gbp", domain.CurrencyGBP},
		{"eur card", domain.CurrencyEUR},
		{"plain", domain.CurrencyUSD},
		{"Hours logged", domain.CurrencyUSD},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DetectCurrency(tt.input); got != tt.want {
				t.Errorf("DetectCurrency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"2500.00", 2500, true},
		{"$1,234.56", 1234.56, true},
		{"-15.99", -15.99, true},
		{"(42.00)", -42, true},
		{"Rs. 3,000", 3000, true},
		{"12 EUR", 12, true},
		{"7", 7, true},
		{"", 0, false},
		{"   ", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
