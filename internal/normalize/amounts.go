package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dvloznov/spendlens/internal/domain"
)

// AmountMatch is a monetary token located inside a larger piece of text.
type AmountMatch struct {
	Value    float64 // signed
	Currency string
	Explicit Sign // sign character written in the text, if any
	Raw      string
	Start    int // byte offsets of Raw in the searched text, including any
	End      int // adjacent currency code suffix
}

// Sign is an explicit sign character found next to an amount.
type Sign int

const (
	SignNone Sign = iota
	SignPositive
	SignNegative
)

// amountPattern: optional sign, optional symbol or code prefix, digit groups
// with optional thousands separators, exactly two decimals.
var amountPattern = regexp.MustCompile(
	`([+\-−])?(?:([$€£]|\b(?i:rs\.?|pkr|usd|eur|gbp))\s?)?([+\-−])?(\d{1,3}(?:,\d{3})+|\d+)\.(\d{2})\b`,
)

var currencySuffix = regexp.MustCompile(`^\s*\b(?i:(usd|pkr|eur|gbp))\b`)

// debitMarkers force a negative value when no sign is written.
var debitMarkers = []string{"debit", "payment", "withdrawal"}

// pkrIndicators are checked before any explicit currency code.
var pkrIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)pkr`),
	regexp.MustCompile(`(?i)\brs\.`),
	regexp.MustCompile(`(?i)\brs\s`),
	regexp.MustCompile(`₨`),
}

var currencyCode = regexp.MustCompile(`(?i)\b(usd|pkr|eur|gbp)\b`)

// FindAmount locates the first monetary token in text.
func FindAmount(text string) (AmountMatch, bool) {
	loc := amountPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return AmountMatch{}, false
	}
	g := submatches(text, loc)

	value, err := strconv.ParseFloat(strings.ReplaceAll(g[4], ",", "")+"."+g[5], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return AmountMatch{}, false
	}

	m := AmountMatch{Start: loc[0], End: loc[1]}
	switch sign := g[1] + g[3]; {
	case strings.ContainsAny(sign, "-−"):
		m.Explicit = SignNegative
	case strings.Contains(sign, "+"):
		m.Explicit = SignPositive
	}

	switch m.Explicit {
	case SignNegative:
		value = -value
	case SignNone:
		if containsAny(strings.ToLower(text), debitMarkers) {
			value = -value
		}
	}
	m.Value = value

	adjacent := symbolCurrency(g[2])
	if suffix := currencySuffix.FindStringSubmatchIndex(text[m.End:]); suffix != nil {
		if adjacent == "" {
			adjacent = strings.ToUpper(text[m.End+suffix[2] : m.End+suffix[3]])
		}
		m.End += suffix[1]
	}
	m.Raw = text[m.Start:m.End]
	m.Currency = resolveCurrency(text, adjacent)
	return m, true
}

// DetectCurrency infers the currency of free text: PKR indicators first, then
// an explicit code, then the default.
func DetectCurrency(text string) string {
	return resolveCurrency(text, "")
}

func resolveCurrency(text, adjacent string) string {
	for _, re := range pkrIndicators {
		if re.MatchString(text) {
			return domain.CurrencyPKR
		}
	}
	if adjacent != "" {
		return adjacent
	}
	if m := currencyCode.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	return domain.DefaultCurrency
}

func symbolCurrency(prefix string) string {
	switch p := strings.ToLower(strings.TrimSuffix(prefix, ".")); p {
	case "":
		return ""
	case "$":
		return domain.CurrencyUSD
	case "€":
		return domain.CurrencyEUR
	case "£":
		return domain.CurrencyGBP
	case "rs":
		return domain.CurrencyPKR
	default:
		return strings.ToUpper(p)
	}
}

var numberNoise = regexp.MustCompile(`(?i)(usd|pkr|eur|gbp|rs\.?|[$€£₨,\s])`)

// ParseNumber parses a spreadsheet cell: currency symbols, codes and thousands
// separators are stripped and (x) is read as -x. Empty and non-numeric cells
// report false.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = numberNoise.ReplaceAllString(s, "")
	s = strings.Replace(s, "−", "-", 1)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -math.Abs(v)
	}
	return v, true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
