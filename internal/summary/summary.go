// Package summary folds transaction sets into per-currency spending reports.
package summary

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/spendlens/internal/domain"
)

// TopMerchantLimit is how many merchants a summary ranks.
const TopMerchantLimit = 10

// merchantTokens is how many leading description words identify a merchant.
const merchantTokens = 3

// MerchantTotal is the spending attributed to one merchant.
type MerchantTotal struct {
	Merchant string          `json:"merchant"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CurrencySummary aggregates the transactions of one currency. Breakdowns and
// merchant totals only count expenses, as absolute values.
type CurrencySummary struct {
	Currency          string                     `json:"currency"`
	TotalSpent        decimal.Decimal            `json:"totalSpent"`
	TotalIncome       decimal.Decimal            `json:"totalIncome"`
	CategoryBreakdown map[string]decimal.Decimal `json:"categoryBreakdown"`
	MonthlySpending   map[string]decimal.Decimal `json:"monthlySpending"`
	TopMerchants      []MerchantTotal            `json:"topMerchants"`
	TransactionCount  int                        `json:"transactionCount"`
}

// Report groups summaries by currency.
type Report struct {
	ByCurrency       map[string]*CurrencySummary `json:"byCurrency"`
	Currencies       []string                    `json:"currencies"` // first-seen order
	PrimaryCurrency  string                      `json:"primaryCurrency"`
	TransactionCount int                         `json:"transactionCount"`
}

// Primary returns the summary of the primary currency, or an empty summary
// in the default currency for an empty report.
func (r Report) Primary() *CurrencySummary {
	if s, ok := r.ByCurrency[r.PrimaryCurrency]; ok {
		return s
	}
	return newCurrencySummary(domain.DefaultCurrency)
}

// Summarize folds txs into a Report. It does not modify txs.
func Summarize(txs []domain.Transaction) Report {
	r := Report{ByCurrency: make(map[string]*CurrencySummary)}
	merchants := make(map[string]*merchantAccumulator)

	for _, tx := range txs {
		cur := tx.Currency
		if cur == "" {
			cur = domain.DefaultCurrency
		}
		s, ok := r.ByCurrency[cur]
		if !ok {
			s = newCurrencySummary(cur)
			r.ByCurrency[cur] = s
			r.Currencies = append(r.Currencies, cur)
			merchants[cur] = newMerchantAccumulator()
		}
		s.TransactionCount++
		r.TransactionCount++

		amount := decimal.NewFromFloat(tx.Amount)
		switch {
		case amount.IsNegative():
			spent := amount.Abs()
			s.TotalSpent = s.TotalSpent.Add(spent)
			s.CategoryBreakdown[categoryOf(tx)] = s.CategoryBreakdown[categoryOf(tx)].Add(spent)
			s.MonthlySpending[tx.Month()] = s.MonthlySpending[tx.Month()].Add(spent)
			merchants[cur].add(MerchantKey(tx.Description), spent)
		case amount.IsPositive():
			s.TotalIncome = s.TotalIncome.Add(amount)
		}
	}

	for cur, s := range r.ByCurrency {
		s.TopMerchants = merchants[cur].top(TopMerchantLimit)
	}
	r.PrimaryCurrency = primaryCurrency(r)
	return r
}

// MerchantKey approximates merchant identity by the first three words of a
// description.
func MerchantKey(description string) string {
	fields := strings.Fields(description)
	if len(fields) > merchantTokens {
		fields = fields[:merchantTokens]
	}
	return strings.Join(fields, " ")
}

func newCurrencySummary(currency string) *CurrencySummary {
	return &CurrencySummary{
		Currency:          currency,
		CategoryBreakdown: make(map[string]decimal.Decimal),
		MonthlySpending:   make(map[string]decimal.Decimal),
		TopMerchants:      []MerchantTotal{},
	}
}

func categoryOf(tx domain.Transaction) string {
	if tx.Category == "" {
		return domain.CategoryOther
	}
	return tx.Category
}

// primaryCurrency picks the currency with the most transactions; ties go to
// the one seen first.
func primaryCurrency(r Report) string {
	best, bestCount := "", -1
	for _, cur := range r.Currencies {
		if n := r.ByCurrency[cur].TransactionCount; n > bestCount {
			best, bestCount = cur, n
		}
	}
	if best == "" {
		return domain.DefaultCurrency
	}
	return best
}

type merchantAccumulator struct {
	order  []string
	totals map[string]*MerchantTotal
}

func newMerchantAccumulator() *merchantAccumulator {
	return &merchantAccumulator{totals: make(map[string]*MerchantTotal)}
}

func (m *merchantAccumulator) add(key string, amount decimal.Decimal) {
	t, ok := m.totals[key]
	if !ok {
		t = &MerchantTotal{Merchant: key}
		m.totals[key] = t
		m.order = append(m.order, key)
	}
	t.Total = t.Total.Add(amount)
	t.Count++
}

// top ranks merchants by total, descending, keeping encounter order on ties.
func (m *merchantAccumulator) top(n int) []MerchantTotal {
	out := make([]MerchantTotal, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, *m.totals[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
