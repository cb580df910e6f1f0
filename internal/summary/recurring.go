package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/spendlens/internal/domain"
)

// cadence is a recurring period and the day gaps that count as it.
type cadence struct {
	period   string
	min, max int
}

// cadences are tried in order against every gap of a series.
var cadences = []cadence{
	{period: domain.PeriodWeekly, min: 6, max: 8},
	{period: domain.PeriodMonthly, min: 26, max: 35},
	{period: domain.PeriodYearly, min: 350, max: 380},
}

// RecurringPeriods finds expenses repeating at a regular cadence: same
// merchant key, amount and currency, at least two dated occurrences, every
// gap inside one cadence window. It returns transaction ID -> period.
func RecurringPeriods(txs []domain.Transaction) map[string]string {
	type occurrence struct {
		id   string
		date time.Time
	}
	series := make(map[string][]occurrence)

	for _, tx := range txs {
		if !tx.IsExpense() || tx.ID == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", tx.Date)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%s|%s|%.2f",
			strings.ToLower(MerchantKey(tx.Description)), tx.Currency, tx.Amount)
		series[key] = append(series[key], occurrence{id: tx.ID, date: d})
	}

	out := make(map[string]string)
	for _, occ := range series {
		if len(occ) < 2 {
			continue
		}
		sort.SliceStable(occ, func(i, j int) bool { return occ[i].date.Before(occ[j].date) })

		gaps := make([]int, 0, len(occ)-1)
		for i := 1; i < len(occ); i++ {
			gaps = append(gaps, int(occ[i].date.Sub(occ[i-1].date).Hours()/24))
		}
		period := matchCadence(gaps)
		if period == "" {
			continue
		}
		for _, o := range occ {
			out[o.id] = period
		}
	}
	return out
}

// DetectRecurring returns a copy of txs with recurring flags set from
// RecurringPeriods.
func DetectRecurring(txs []domain.Transaction) []domain.Transaction {
	periods := RecurringPeriods(txs)
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		period, ok := periods[tx.ID]
		tx.IsRecurring = ok
		tx.RecurringPeriod = period
		out[i] = tx
	}
	return out
}

func matchCadence(gaps []int) string {
	for _, c := range cadences {
		all := true
		for _, g := range gaps {
			if g < c.min || g > c.max {
				all = false
				break
			}
		}
		if all {
			return c.period
		}
	}
	return ""
}
