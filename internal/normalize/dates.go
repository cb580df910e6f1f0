package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DateMatch is a date located inside a larger piece of text.
type DateMatch struct {
	ISO       string // YYYY-MM-DD
	Raw       string // the matched substring
	Remainder string // input with Raw removed
	Strategy  string // name of the strategy that matched
}

// dateStrategy is one entry of the ordered date recognizer list. build returns
// false when the captured groups do not form a plausible date, in which case
// the next match of the same pattern is tried before moving on.
type dateStrategy struct {
	name    string
	pattern *regexp.Regexp
	build   func(groups []string) (year, month, day int, ok bool)
}

const monthNamePattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// dateStrategies is evaluated in order; the first strategy yielding a valid
// date wins.
var dateStrategies = []dateStrategy{
	{
		name:    "mon-dd-yyyy",
		pattern: regexp.MustCompile(`(?i)\b` + monthNamePattern + `\.?\s+(\d{1,2}),?\s+(\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[3]), monthNumbers[strings.ToLower(g[1][:3])], atoi(g[2]), true
		},
	},
	{
		name:    "dd-mon-yyyy",
		pattern: regexp.MustCompile(`(?i)\b(\d{1,2})[\s-]+` + monthNamePattern + `\.?[\s,-]+(\d{4})\b`),
		build: func(g []string) (int, int, int, bool) {
			return atoi(g[3]), monthNumbers[strings.ToLower(g[2][:3])], atoi(g[1]), true
		},
	},
	{
		name:    "yyyy-mm-dd",
		pattern: regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`),
		build: func(g []string) (int, int, int, bool) {
			year := atoi(g[1])
			if year < 1990 || year > 2100 {
				return 0, 0, 0, false
			}
			return year, atoi(g[2]), atoi(g[3]), true
		},
	},
	{
		name:    "mm-dd-yyyy",
		pattern: regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`),
		build: func(g []string) (int, int, int, bool) {
			month, day := atoi(g[1]), atoi(g[2])
			// Day-first statements: 25/12/2025 is unambiguous.
			if month > 12 && day <= 12 {
				month, day = day, month
			}
			return expandYear(g[3]), month, day, true
		},
	},
}

// FindDate locates the first date in text. It returns false when no strategy
// produces a valid date, meaning the text is not transactional.
func FindDate(text string) (DateMatch, bool) {
	for _, s := range dateStrategies {
		for _, loc := range s.pattern.FindAllStringSubmatchIndex(text, -1) {
			groups := submatches(text, loc)
			year, month, day, ok := s.build(groups)
			if !ok || !validDate(month, day) {
				continue
			}
			return DateMatch{
				ISO:       fmt.Sprintf("%04d-%02d-%02d", year, month, day),
				Raw:       text[loc[0]:loc[1]],
				Remainder: strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:]),
				Strategy:  s.name,
			}, true
		}
	}
	return DateMatch{}, false
}

// NormalizeDate converts a date token into YYYY-MM-DD.
func NormalizeDate(raw string) (string, bool) {
	m, ok := FindDate(raw)
	if !ok {
		return "", false
	}
	return m.ISO, true
}

// NormalizeDateLenient is NormalizeDate for pipelines that keep rows with
// unrecognized dates: the input is returned unchanged when nothing matches.
func NormalizeDateLenient(raw string) string {
	if iso, ok := NormalizeDate(raw); ok {
		return iso
	}
	return raw
}

func validDate(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// expandYear maps two-digit years with a sliding window: >50 is 19xx.
func expandYear(s string) int {
	y := atoi(s)
	if len(s) != 2 {
		return y
	}
	if y > 50 {
		return 1900 + y
	}
	return 2000 + y
}

func submatches(text string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
