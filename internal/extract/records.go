package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/normalize"
)

// Record is one transaction as returned by the vision oracle.
type Record struct {
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Amount      FlexAmount `json:"amount"`
	Currency    string     `json:"currency"`
}

// FlexAmount accepts a JSON number or a formatted string such as "-1,200.00".
type FlexAmount struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler. Unparseable values leave the
// amount invalid instead of failing the whole array.
func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = FlexAmount{}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = FlexAmount{Value: n, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*a = FlexAmount{}
		return nil
	}
	v, ok := normalize.ParseNumber(s)
	*a = FlexAmount{Value: v, Valid: ok}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a FlexAmount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// RecordExtractor converts oracle records into transactions. Dates are
// normalized leniently and amount signs are kept as returned.
type RecordExtractor struct {
	matcher *categorize.Matcher
}

// NewRecordExtractor creates a record extractor.
func NewRecordExtractor(matcher *categorize.Matcher) *RecordExtractor {
	if matcher == nil {
		matcher = categorize.DefaultMatcher()
	}
	return &RecordExtractor{matcher: matcher}
}

// Extract converts records from sourceFile. IDs use the record index.
func (e *RecordExtractor) Extract(ctx context.Context, sourceFile string, records []Record, extractedAt time.Time) ([]domain.Transaction, Stats) {
	stats := Stats{Inputs: len(records)}
	var txs []domain.Transaction

	for i, r := range records {
		rawDate := strings.TrimSpace(r.Date)
		if rawDate == "" {
			stats.NoDate++
			continue
		}
		if !r.Amount.Valid {
			stats.NoAmount++
			continue
		}
		desc, ok := CleanDescription(r.Description)
		if !ok {
			stats.ShortDescription++
			continue
		}

		currency := strings.ToUpper(strings.TrimSpace(r.Currency))
		if !domain.IsKnownCurrency(currency) {
			currency = normalize.DetectCurrency(r.Currency + " " + r.Description)
		}

		txs = append(txs, domain.Transaction{
			ID:          domain.NewID(sourceFile, i, extractedAt),
			Date:        normalize.NormalizeDateLenient(rawDate),
			Description: desc,
			Amount:      r.Amount.Value,
			Currency:    currency,
			Category:    e.matcher.Match(desc),
			SourceFile:  sourceFile,
		})
		stats.Emitted++
	}

	stats.Log(logger.FromContext(ctx), sourceFile)
	return txs, stats
}
