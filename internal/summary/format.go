package summary

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// WriteText renders the report as plain text, one currency block at a time
// in first-seen order. The same rendering feeds the narrative prompt.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Transactions: %d\n", r.TransactionCount)
	fmt.Fprintf(&b, "Primary currency: %s\n", r.PrimaryCurrency)

	for _, cur := range r.Currencies {
		s := r.ByCurrency[cur]
		fmt.Fprintf(&b, "\n[%s] %d transactions\n", cur, s.TransactionCount)
		fmt.Fprintf(&b, "  Total spent:  %s\n", s.TotalSpent.StringFixed(2))
		fmt.Fprintf(&b, "  Total income: %s\n", s.TotalIncome.StringFixed(2))

		if len(s.CategoryBreakdown) > 0 {
			b.WriteString("  By category:\n")
			for _, kv := range sortedByValue(s.CategoryBreakdown) {
				fmt.Fprintf(&b, "    %-26s %s\n", kv.key, kv.value.StringFixed(2))
			}
		}
		if len(s.MonthlySpending) > 0 {
			b.WriteString("  By month:\n")
			for _, kv := range sortedByKey(s.MonthlySpending) {
				fmt.Fprintf(&b, "    %-26s %s\n", kv.key, kv.value.StringFixed(2))
			}
		}
		if len(s.TopMerchants) > 0 {
			b.WriteString("  Top merchants:\n")
			for i, m := range s.TopMerchants {
				fmt.Fprintf(&b, "    %2d. %-22s %s (%d)\n", i+1, m.Merchant, m.Total.StringFixed(2), m.Count)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Text is WriteText into a string.
func (r Report) Text() string {
	var b strings.Builder
	_ = WriteText(&b, r)
	return b.String()
}

type keyValue struct {
	key   string
	value decimal.Decimal
}

func sortedByValue(m map[string]decimal.Decimal) []keyValue {
	out := sortedByKey(m)
	sort.SliceStable(out, func(i, j int) bool { return out[i].value.GreaterThan(out[j].value) })
	return out
}

func sortedByKey(m map[string]decimal.Decimal) []keyValue {
	out := make([]keyValue, 0, len(m))
	for k, v := range m {
		out = append(out, keyValue{key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
