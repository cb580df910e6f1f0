package extract

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/normalize"
)

// SignConvention decides the stored sign of a row amount.
type SignConvention int

const (
	// SignAsWritten keeps the parsed sign, including the debit-marker rule.
	SignAsWritten SignConvention = iota
	// SignExpenseUnlessPositive stores every amount as an expense unless an
	// explicit + was written. Used for tabular PDF statements that have no
	// debit/credit column.
	SignExpenseUnlessPositive
)

// DefaultMinLineLength drops lines too short to hold date, text and amount.
const DefaultMinLineLength = 8

// DefaultSkipPatterns match statement metadata, footers, page numbers,
// boilerplate and table headers that often carry date- and amount-like
// tokens.
var DefaultSkipPatterns = []string{
	`statement (period|date|from|for)`,
	`\b(opening|closing|previous|new|available|ledger|current) balance\b`,
	`balance (brought|carried) forward`,
	`\baccount (number|no\.?|summary|holder|type)\b`,
	`\bcustomer (id|name|number|service)\b`,
	`\bpage\s+\d+(\s*(of|/)\s*\d+)?\b`,
	`^\s*\d+\s*(of|/)\s*\d+\s*$`,
	`\btotal (debits?|credits?|amount|spent|spending|fees|purchases|payments)\b`,
	`\b(payment due date|minimum (amount|payment) due|credit limit)\b`,
	`\binterest rate\b`,
	`\b(iban|swift|bic|sort code|routing number)\b`,
	`\b(generated|printed|issued) on\b`,
	`https?://|www\.`,
	`^\s*(posting |transaction |value )?date\s+(description|details|particulars|narration)\b`,
	`\bdate\b.*\b(description|details|particulars)\b.*\b(amount|debit|credit|withdrawal|deposit)s?\b`,
}

// SkipList holds the non-transactional line patterns of one pipeline.
type SkipList struct {
	patterns []*regexp.Regexp
}

// NewSkipList compiles case-insensitive patterns.
func NewSkipList(patterns ...string) (*SkipList, error) {
	s := &SkipList{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("NewSkipList: compile %q: %w", p, err)
		}
		s.patterns = append(s.patterns, re)
	}
	return s, nil
}

// DefaultSkipList compiles DefaultSkipPatterns.
func DefaultSkipList() *SkipList {
	s, err := NewSkipList(DefaultSkipPatterns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Matches reports whether line is non-transactional.
func (s *SkipList) Matches(line string) bool {
	if s == nil {
		return false
	}
	for _, re := range s.patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// RowExtractor turns single lines of text into transactions.
type RowExtractor struct {
	matcher       *categorize.Matcher
	skip          *SkipList
	sign          SignConvention
	minLineLength int
}

// RowOption configures a RowExtractor.
type RowOption func(*RowExtractor)

// WithSkipList replaces the default skip list.
func WithSkipList(s *SkipList) RowOption {
	return func(e *RowExtractor) { e.skip = s }
}

// WithSignConvention sets the sign convention.
func WithSignConvention(c SignConvention) RowOption {
	return func(e *RowExtractor) { e.sign = c }
}

// WithMinLineLength sets the minimum line length.
func WithMinLineLength(n int) RowOption {
	return func(e *RowExtractor) { e.minLineLength = n }
}

// NewRowExtractor creates a row extractor with the default skip list and the
// as-written sign convention.
func NewRowExtractor(matcher *categorize.Matcher, opts ...RowOption) *RowExtractor {
	e := &RowExtractor{
		matcher:       matcher,
		skip:          DefaultSkipList(),
		sign:          SignAsWritten,
		minLineLength: DefaultMinLineLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.matcher == nil {
		e.matcher = categorize.DefaultMatcher()
	}
	return e
}

// skipReason says why a line produced nothing.
type skipReason int

const (
	emitted skipReason = iota
	skipBlank
	skipListed
	skipNoDate
	skipNoAmount
	skipShortDescription
)

// ExtractLine parses one line. ID and SourceFile are left empty.
func (e *RowExtractor) ExtractLine(line string) (domain.Transaction, bool) {
	tx, reason := e.extractLine(line)
	return tx, reason == emitted
}

func (e *RowExtractor) extractLine(line string) (domain.Transaction, skipReason) {
	line = strings.TrimSpace(line)
	if len(line) < e.minLineLength {
		return domain.Transaction{}, skipBlank
	}
	if e.skip.Matches(line) {
		return domain.Transaction{}, skipListed
	}

	date, ok := normalize.FindDate(line)
	if !ok {
		return domain.Transaction{}, skipNoDate
	}

	amount, ok := normalize.FindAmount(date.Remainder)
	if !ok {
		return domain.Transaction{}, skipNoAmount
	}

	rest := date.Remainder[:amount.Start] + " " + date.Remainder[amount.End:]
	desc, ok := CleanDescription(rest)
	if !ok {
		return domain.Transaction{}, skipShortDescription
	}

	value := amount.Value
	if e.sign == SignExpenseUnlessPositive && amount.Explicit != normalize.SignPositive {
		value = -math.Abs(value)
	}

	return domain.Transaction{
		Date:        date.ISO,
		Description: desc,
		Amount:      value,
		Currency:    amount.Currency,
		Category:    e.matcher.Match(desc),
	}, emitted
}

// Extract parses lines from sourceFile. IDs use the line index.
func (e *RowExtractor) Extract(ctx context.Context, sourceFile string, lines []string, extractedAt time.Time) ([]domain.Transaction, Stats) {
	stats := Stats{Inputs: len(lines)}
	var txs []domain.Transaction

	for i, line := range lines {
		tx, reason := e.extractLine(line)
		switch reason {
		case skipBlank:
			stats.Blank++
			continue
		case skipListed:
			stats.SkipListed++
			continue
		case skipNoDate:
			stats.NoDate++
			continue
		case skipNoAmount:
			stats.NoAmount++
			continue
		case skipShortDescription:
			stats.ShortDescription++
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

// SplitLines splits freeform text into lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
