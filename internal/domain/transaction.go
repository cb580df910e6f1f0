package domain

import (
	"fmt"
	"time"
)

// Transaction represents one normalized transaction produced by an extractor.
// Only Category and the recurring flags change after emission.
type Transaction struct {
	ID          string  `json:"id"`          // sourceFile-index-extractionMillis, not a dedup key
	Date        string  `json:"date"`        // YYYY-MM-DD, or the raw token when unparseable
	Description string  `json:"description"` // trimmed, collapsed, at most MaxDescriptionLen
	Amount      float64 `json:"amount"`      // negative = expense, positive = income/credit
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	SourceFile  string  `json:"sourceFile"`

	IsRecurring     bool   `json:"isRecurring"`
	RecurringPeriod string `json:"recurringPeriod,omitempty"` // weekly, monthly, yearly
}

const (
	// MaxDescriptionLen caps descriptions for display safety.
	MaxDescriptionLen = 100

	// MinDescriptionLen is the shortest description a transaction may carry.
	MinDescriptionLen = 2
)

// Supported currency codes.
const (
	CurrencyUSD = "USD"
	CurrencyPKR = "PKR"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
)

// DefaultCurrency is assumed when nothing in the source names one.
const DefaultCurrency = CurrencyUSD

// Recurring periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// NewID builds the per-extraction convenience key.
func NewID(sourceFile string, index int, extractedAt time.Time) string {
	return fmt.Sprintf("%s-%d-%d", sourceFile, index, extractedAt.UnixMilli())
}

// IsKnownCurrency reports whether code is one of the supported currencies.
func IsKnownCurrency(code string) bool {
	switch code {
	case CurrencyUSD, CurrencyPKR, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

// IsExpense reports whether the transaction is spending.
func (t Transaction) IsExpense() bool {
	return t.Amount < 0
}

// Month returns the YYYY-MM prefix of the date, or the whole date if shorter.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return t.Date
	}
	return t.Date[:7]
}
