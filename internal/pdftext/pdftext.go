// Package pdftext pulls positioned text fragments out of PDF statements.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/dvloznov/spendlens/internal/extract"
)

// ErrNoText is returned for PDFs without a text layer, such as scans.
var ErrNoText = errors.New("pdf has no extractable text")

// Gap thresholds, as multiples of the glyph font size.
const (
	spaceGap = 0.15
	splitGap = 1.5
	lineTol  = 0.5
)

// Reader extracts fragments page by page.
type Reader struct {
	// MaxPages stops reading after this many pages; 0 reads all.
	MaxPages int
}

// NewReader creates a reader with no page limit.
func NewReader() *Reader {
	return &Reader{}
}

// Fragments returns one fragment slice per page. Glyphs the PDF library
// reports individually are merged into words and phrases, since row
// reconstruction joins fragments with single spaces.
func (r *Reader) Fragments(data []byte) (pages [][]extract.Fragment, err error) {
	// The PDF library panics on malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("Fragments: malformed pdf: %v", rec)
		}
	}()

	pr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("Fragments: open pdf: %w", err)
	}

	n := pr.NumPage()
	if r.MaxPages > 0 && n > r.MaxPages {
		n = r.MaxPages
	}

	total := 0
	for i := 1; i <= n; i++ {
		p := pr.Page(i)
		if p.V.IsNull() {
			continue
		}
		frags := MergeGlyphs(p.Content().Text)
		total += len(frags)
		pages = append(pages, frags)
	}
	if total == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

// MergeGlyphs joins glyph runs that sit on one baseline with small gaps.
func MergeGlyphs(texts []pdf.Text) []extract.Fragment {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" || t.S == " " {
			glyphs = append(glyphs, t)
		}
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		if !sameLine(glyphs[i], glyphs[j]) {
			return glyphs[i].Y > glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var (
		out  []extract.Fragment
		cur  strings.Builder
		curX float64
		curY float64
		end  float64
		prev pdf.Text
		open bool
	)
	flush := func() {
		if open {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, extract.Fragment{Text: s, X: curX, Y: curY})
			}
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if open && sameLine(prev, g) {
			gap := g.X - end
			switch {
			case gap > splitGap*size:
				flush()
			case gap > spaceGap*size:
				writeSpace(&cur)
			}
		} else {
			flush()
		}
		if !open {
			curX, curY, open = g.X, g.Y, true
		}
		if g.S == " " {
			writeSpace(&cur)
		} else {
			cur.WriteString(g.S)
		}
		end = g.X + g.W
		prev = g
	}
	flush()
	return out
}

func writeSpace(b *strings.Builder) {
	if s := b.String(); s != "" && !strings.HasSuffix(s, " ") {
		b.WriteByte(' ')
	}
}

func sameLine(a, b pdf.Text) bool {
	size := a.FontSize
	if b.FontSize > size {
		size = b.FontSize
	}
	if size <= 0 {
		size = 1
	}
	d := a.Y - b.Y
	if d < 0 {
		d = -d
	}
	return d <= lineTol*size
}
