// Package extract turns statement content into candidate transactions.
//
// Three paths exist: the row path for line-oriented text (PDF rows rebuilt by
// ReconstructRows, freeform text), the columnar path for CSV and XLS tables,
// and the record path for transactions returned by the vision oracle.
package extract

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendlens/internal/domain"
)

// ErrUnsupportedSource is returned for files no extraction path handles.
var ErrUnsupportedSource = errors.New("unsupported source type")

// Kind is the extraction path a file takes.
type Kind string

const (
	KindCSV   Kind = "csv"
	KindXLS   Kind = "xls"
	KindPDF   Kind = "pdf"
	KindText  Kind = "txt"
	KindImage Kind = "image"
)

// DetectKind picks the extraction path from the file name.
func DetectKind(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return KindCSV, nil
	case ".xls":
		return KindXLS, nil
	case ".pdf":
		return KindPDF, nil
	case ".txt":
		return KindText, nil
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return KindImage, nil
	}
	return "", ErrUnsupportedSource
}

// ImageMIMEType returns the MIME type sent to the oracle for an image file.
func ImageMIMEType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// Stats counts what happened to each input unit. Skips are expected and only
// ever logged at debug level.
type Stats struct {
	Inputs           int
	Emitted          int
	Blank            int
	SkipListed       int
	NoDate           int
	NoAmount         int
	ShortDescription int
	Unresolved       int // columnar rows missing a role or amount
}

// Skipped is the number of inputs that produced nothing.
func (s Stats) Skipped() int {
	return s.Inputs - s.Emitted
}

// Log writes the counters at debug level.
func (s Stats) Log(log zerolog.Logger, source string) {
	log.Debug().
		Str("source", source).
		Int("inputs", s.Inputs).
		Int("emitted", s.Emitted).
		Int("blank", s.Blank).
		Int("skip_listed", s.SkipListed).
		Int("no_date", s.NoDate).
		Int("no_amount", s.NoAmount).
		Int("short_description", s.ShortDescription).
		Int("unresolved", s.Unresolved).
		Msg("extraction finished")
}

var trailingCode = regexp.MustCompile(`(?i)\s+(usd|pkr|eur|gbp)$`)

// CleanDescription strips leading dashes and a trailing currency code,
// collapses whitespace and truncates. It reports false when fewer than
// domain.MinDescriptionLen characters remain.
func CleanDescription(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, "-–— ")
	s = trailingCode.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > domain.MaxDescriptionLen {
		s = strings.TrimSpace(string([]rune(s)[:domain.MaxDescriptionLen]))
	}
	if utf8.RuneCountInString(s) < domain.MinDescriptionLen {
		return "", false
	}
	return s, true
}
