package extract

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/normalize"
)

// Row maps header names to raw cell values.
type Row map[string]string

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Columns names the header chosen for each role. Empty means not found.
type Columns struct {
	Date        string
	Description string
	Amount      string // single signed amount column
	Debit       string // set together with Credit
	Credit      string
	Currency    string
}

// HasDebitCredit reports whether amounts come from a debit/credit pair.
func (c Columns) HasDebitCredit() bool {
	return c.Debit != "" && c.Credit != ""
}

// Resolved reports whether every role needed to build a transaction is set.
func (c Columns) Resolved() bool {
	return c.Date != "" && c.Description != "" && (c.Amount != "" || c.HasDebitCredit())
}

var (
	dateHeaderKeywords        = []string{"date", "posted"}
	descriptionHeaderKeywords = []string{"description", "merchant", "payee", "transaction"}
	amountHeaderKeywords      = []string{"amount", "debit", "credit", "value"}
)

// InferColumns assigns roles to headers by case-insensitive substring match.
// Headers are scanned in order and the first match wins; a header claimed by
// one role is not reused for another.
func InferColumns(headers []string) Columns {
	var c Columns
	claimed := make(map[string]bool)

	claim := func(keywords []string) string {
		for _, h := range headers {
			if claimed[h] || !containsKeyword(h, keywords) {
				continue
			}
			claimed[h] = true
			return h
		}
		return ""
	}

	c.Date = claim(dateHeaderKeywords)
	c.Description = claim(descriptionHeaderKeywords)

	debit := firstUnclaimed(headers, claimed, "debit")
	credit := firstUnclaimed(headers, claimed, "credit")
	if debit != "" && credit != "" && debit != credit {
		c.Debit, c.Credit = debit, credit
		claimed[debit], claimed[credit] = true, true
	} else {
		c.Amount = claim(amountHeaderKeywords)
	}

	c.Currency = claim([]string{"currency"})
	return c
}

func firstUnclaimed(headers []string, claimed map[string]bool, keyword string) string {
	for _, h := range headers {
		if !claimed[h] && containsKeyword(h, []string{keyword}) {
			return h
		}
	}
	return ""
}

func containsKeyword(header string, keywords []string) bool {
	h := strings.ToLower(header)
	for _, k := range keywords {
		if strings.Contains(h, k) {
			return true
		}
	}
	return false
}

// maxHeaderScan bounds how many leading rows are searched for the header.
const maxHeaderScan = 25

// NewTable builds a Table from raw records. Bank exports often put account
// metadata above the header, so the first record whose columns resolve is
// taken as the header, falling back to the first non-empty record.
func NewTable(records [][]string) (Table, error) {
	headerIdx := -1
	for i := 0; i < len(records) && i < maxHeaderScan; i++ {
		if InferColumns(trimAll(records[i])).Resolved() {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		for i, rec := range records {
			if !blankRecord(rec) {
				headerIdx = i
				break
			}
		}
	}
	if headerIdx < 0 {
		return Table{}, errors.New("NewTable: no header row")
	}

	headers := trimAll(records[headerIdx])
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	t := Table{Headers: headers}
	for _, rec := range records[headerIdx+1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseCSV reads CSV text into a Table.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("ParseCSV: read records: %w", err)
	}
	t, err := NewTable(records)
	if err != nil {
		return Table{}, fmt.Errorf("ParseCSV: %w", err)
	}
	return t, nil
}

// ColumnarExtractor builds one transaction per table row. Amount signs are
// kept as written.
type ColumnarExtractor struct {
	matcher *categorize.Matcher
}

// NewColumnarExtractor creates a columnar extractor.
func NewColumnarExtractor(matcher *categorize.Matcher) *ColumnarExtractor {
	if matcher == nil {
		matcher = categorize.DefaultMatcher()
	}
	return &ColumnarExtractor{matcher: matcher}
}

// Extract converts table rows from sourceFile. IDs use the data row index.
func (e *ColumnarExtractor) Extract(ctx context.Context, sourceFile string, t Table, extractedAt time.Time) ([]domain.Transaction, Stats) {
	stats := Stats{Inputs: len(t.Rows)}
	cols := InferColumns(t.Headers)

	var txs []domain.Transaction
	for i, row := range t.Rows {
		tx, ok := e.extractRow(cols, t.Headers, row)
		if !ok {
			stats.Unresolved++
			continue
		}
		tx.ID = domain.NewID(sourceFile, i, extractedAt)
		tx.SourceFile = sourceFile
		txs = append(txs, tx)
		stats.Emitted++
	}

	stats.Log(logger.FromContext(ctx), sourceFile)
	return txs, stats
}

// ExtractRow converts a single row using the given header order.
func (e *ColumnarExtractor) ExtractRow(headers []string, row Row) (domain.Transaction, bool) {
	return e.extractRow(InferColumns(headers), headers, row)
}

func (e *ColumnarExtractor) extractRow(cols Columns, headers []string, row Row) (domain.Transaction, bool) {
	if !cols.Resolved() {
		return domain.Transaction{}, false
	}

	rawDate := strings.TrimSpace(row[cols.Date])
	if rawDate == "" {
		return domain.Transaction{}, false
	}
	desc, ok := CleanDescription(row[cols.Description])
	if !ok {
		return domain.Transaction{}, false
	}
	amount, ok := resolveAmount(cols, row)
	if !ok {
		return domain.Transaction{}, false
	}

	return domain.Transaction{
		Date:        normalize.NormalizeDateLenient(rawDate),
		Description: desc,
		Amount:      amount,
		Currency:    rowCurrency(cols, headers, row),
		Category:    e.matcher.Match(desc),
	}, true
}

// resolveAmount reads the single amount column, or the debit/credit pair
// where a non-zero debit is an expense, a non-zero credit income, and
// anything else 0.
func resolveAmount(cols Columns, row Row) (float64, bool) {
	if !cols.HasDebitCredit() {
		return normalize.ParseNumber(row[cols.Amount])
	}

	if debit, ok := normalize.ParseNumber(row[cols.Debit]); ok && debit != 0 {
		return -math.Abs(debit), true
	}
	if credit, ok := normalize.ParseNumber(row[cols.Credit]); ok && credit != 0 {
		return math.Abs(credit), true
	}
	return 0, true
}

// rowCurrency prefers a currency column holding a known code, then PKR
// indicators anywhere in the row, then the default.
func rowCurrency(cols Columns, headers []string, row Row) string {
	if cols.Currency != "" {
		if code := strings.ToUpper(strings.TrimSpace(row[cols.Currency])); domain.IsKnownCurrency(code) {
			return code
		}
	}
	values := make([]string, 0, len(headers))
	for _, h := range headers {
		values = append(values, row[h])
	}
	if normalize.DetectCurrency(strings.Join(values, " ")) == domain.CurrencyPKR {
		return domain.CurrencyPKR
	}
	return domain.DefaultCurrency
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, s := range rec {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func blankRecord(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
