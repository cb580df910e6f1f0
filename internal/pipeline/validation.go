package pipeline

import (
	"strings"

	"github.com/dvloznov/spendlens/internal/domain"
)

// DefaultRejectKeywords mark activity that never settled.
var DefaultRejectKeywords = []string{
	"failed",
	"declined",
	"pending",
	"reversed",
	"reversal",
	"insufficient",
	"cancelled",
	"canceled",
	"voided",
	"rejected",
	"unsuccessful",
}

// spendingOnlyKeywords are also rejected when only spending is tracked.
var spendingOnlyKeywords = []string{"refund"}

// ValidityFilter decides which extracted transactions count. It runs after
// extraction so extractors stay format-focused.
type ValidityFilter struct {
	keywords     []string
	spendingOnly bool
}

// NewValidityFilter creates a filter. With no keywords, DefaultRejectKeywords
// are used. spendingOnly also rejects positive amounts and refunds.
func NewValidityFilter(spendingOnly bool, keywords ...string) *ValidityFilter {
	if len(keywords) == 0 {
		keywords = DefaultRejectKeywords
	}
	kw := make([]string, 0, len(keywords)+len(spendingOnlyKeywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	if spendingOnly {
		kw = append(kw, spendingOnlyKeywords...)
	}
	return &ValidityFilter{keywords: kw, spendingOnly: spendingOnly}
}

// Valid reports whether tx is kept.
func (f *ValidityFilter) Valid(tx domain.Transaction) bool {
	if f.spendingOnly && tx.Amount > 0 {
		return false
	}
	desc := strings.ToLower(tx.Description)
	for _, k := range f.keywords {
		if strings.Contains(desc, k) {
			return false
		}
	}
	return true
}

// Apply returns the kept transactions in order and the number rejected.
func (f *ValidityFilter) Apply(txs []domain.Transaction) ([]domain.Transaction, int) {
	kept := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Valid(tx) {
			kept = append(kept, tx)
		}
	}
	return kept, len(txs) - len(kept)
}
