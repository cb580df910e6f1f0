package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/spendlens/internal/domain"
)

func TestInferColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Columns
	}{
		{
			name:    "single amount",
			headers: []string{"Date", "Description", "Amount"},
			want:    Columns{Date: "Date", Description: "Description", Amount: "Amount"},
		},
		{
			name:    "debit credit pair",
			headers: []string{"Date", "Description", "Debit", "Credit", "Balance"},
			want:    Columns{Date: "Date", Description: "Description", Debit: "Debit", Credit: "Credit"},
		},
		{
			name:    "transaction date is not the description",
			headers: []string{"Transaction Date", "Posted Date", "Description", "Amount (USD)"},
			want:    Columns{Date: "Transaction Date", Description: "Description", Amount: "Amount (USD)"},
		},
		{
			name:    "posted and payee",
			headers: []string{"posted", "PAYEE", "Value", "Currency"},
			want:    Columns{Date: "posted", Description: "PAYEE", Amount: "Value", Currency: "Currency"},
		},
		{
			name:    "debit only is a single column",
			headers: []string{"Date", "Merchant", "Debit Amount"},
			want:    Columns{Date: "Date", Description: "Merchant", Amount: "Debit Amount"},
		},
		{
			name:    "unresolvable",
			headers: []string{"foo", "bar"},
			want:    Columns{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferColumns(tt.headers)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InferColumns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnarExtractor_DebitCreditIncome(t *testing.T) {
	e := NewColumnarExtractor(nil)
	headers := []string{"Date", "Description", "Debit", "Credit"}
	row := Row{"Date": "2026-01-05", "Description": "Paycheck", "Debit": "", "Credit": "2500.00"}

	got, ok := e.ExtractRow(headers, row)
	if !ok {
		t.Fatal("row discarded")
	}
	want := domain.Transaction{
		Date: "2026-01-05", Description: "Paycheck", Amount: 2500,
		Currency: domain.CurrencyUSD, Category: domain.CategoryIncome,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractRow mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnarExtractor_ExtractRow(t *testing.T) {
	e := NewColumnarExtractor(nil)
	pair := []string{"Date", "Description", "Debit", "Credit"}
	single := []string{"Date", "Description", "Amount"}

	tests := []struct {
		name       string
		headers    []string
		row        Row
		wantOK     bool
		wantAmount float64
		wantDate   string
		wantCur    string
	}{
		{
			name:       "debit is an expense",
			headers:    pair,
			row:        Row{"Date": "01/06/2026", "Description": "Shell fuel", "Debit": "$45.10", "Credit": ""},
			wantOK:     true,
			wantAmount: -45.10,
			wantDate:   "2026-01-06",
			wantCur:    domain.CurrencyUSD,
		},
		{
			name:       "both zero",
			headers:    pair,
			row:        Row{"Date": "2026-01-07", "Description": "Adjustment", "Debit": "0.00", "Credit": "0.00"},
			wantOK:     true,
			wantAmount: 0,
			wantDate:   "2026-01-07",
			wantCur:    domain.CurrencyUSD,
		},
		{
			name:       "both empty",
			headers:    pair,
			row:        Row{"Date": "2026-01-07", "Description": "Memo line", "Debit": "", "Credit": ""},
			wantOK:     true,
			wantAmount: 0,
			wantDate:   "2026-01-07",
			wantCur:    domain.CurrencyUSD,
		},
		{
			name:       "signed single column",
			headers:    single,
			row:        Row{"Date": "Feb 07, 2026", "Description": "Netflix", "Amount": "-15.99"},
			wantOK:     true,
			wantAmount: -15.99,
			wantDate:   "2026-02-07",
			wantCur:    domain.CurrencyUSD,
		},
		{
			name:       "pkr anywhere in the row",
			headers:    single,
			row:        Row{"Date": "2026-01-08", "Description": "Foodpanda", "Amount": "Rs. 1,200.00"},
			wantOK:     true,
			wantAmount: 1200,
			wantDate:   "2026-01-08",
			wantCur:    domain.CurrencyPKR,
		},
		{
			name:       "unrecognized date kept raw",
			headers:    single,
			row:        Row{"Date": "yesterday", "Description": "Coffee", "Amount": "-3.00"},
			wantOK:     true,
			wantAmount: -3,
			wantDate:   "yesterday",
			wantCur:    domain.CurrencyUSD,
		},
		{
			name:    "amount not a number",
			headers: single,
			row:     Row{"Date": "2026-01-08", "Description": "Coffee", "Amount": "NaN"},
			wantOK:  false,
		},
		{
			name:    "empty date",
			headers: single,
			row:     Row{"Date": "", "Description": "Coffee", "Amount": "-3.00"},
			wantOK:  false,
		},
		{
			name:    "short description",
			headers: single,
			row:     Row{"Date": "2026-01-08", "Description": "x", "Amount": "-3.00"},
			wantOK:  false,
		},
		{
			name:    "unresolved headers",
			headers: []string{"When", "What"},
			row:     Row{"When": "2026-01-08", "What": "Coffee"},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.ExtractRow(tt.headers, tt.row)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %+v)", ok, tt.wantOK, got)
			}
			if !ok {
				return
			}
			if got.Amount != tt.wantAmount {
				t.Errorf("Amount = %v, want %v", got.Amount, tt.wantAmount)
			}
			if got.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", got.Date, tt.wantDate)
			}
			if got.Currency != tt.wantCur {
				t.Errorf("Currency = %q, want %q", got.Currency, tt.wantCur)
			}
		})
	}
}

func TestParseCSV_SkipsPreamble(t *testing.T) {
	input := "\ufeffAccount,12345678\n" +
		"Generated,2026-02-01\n" +
		"\n" +
		"Date,Description,Debit,Credit,Balance\n" +
		"2026-01-05,Paycheck,,2500.00,3000.00\n" +
		"2026-01-06,\"Whole Foods, Market\",82.45,,2917.55\n" +
		",,,,\n" +
		"2026-01-07\n"

	table, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Date", "Description", "Debit", "Credit", "Balance"}, table.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}

	e := NewColumnarExtractor(nil)
	txs, stats := e.Extract(context.Background(), "jan.csv", table, testExtractedAt)
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2: %+v", len(txs), txs)
	}
	if txs[1].Description != "Whole Foods, Market" || txs[1].Amount != -82.45 {
		t.Errorf("unexpected second row: %+v", txs[1])
	}
	if txs[1].ID != "jan.csv-1-1767225600000" {
		t.Errorf("ID = %q", txs[1].ID)
	}
	if stats.Unresolved != 1 {
		t.Errorf("Unresolved = %d, want 1", stats.Unresolved)
	}
	for _, tx := range txs {
		assertWellFormed(t, tx)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseXLS_Garbage(t *testing.T) {
	if _, err := ParseXLS([]byte("not a workbook")); err == nil {
		t.Error("expected error for invalid workbook")
	}
}
