package extract

import (
	"math"
	"sort"
	"strings"
)

// Fragment is a piece of page text at a position. Larger Y is higher on the
// page.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

// ReconstructRows regroups the fragments of one page into logical lines:
// fragments sharing a rounded Y form a row, rows run top to bottom and
// fragments within a row left to right, joined by single spaces.
func ReconstructRows(fragments []Fragment) []string {
	rows := make(map[float64][]Fragment)
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		y := math.Round(f.Y)
		rows[y] = append(rows[y], f)
	}

	ys := make([]float64, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		row := rows[y]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		parts := make([]string, 0, len(row))
		for _, f := range row {
			parts = append(parts, strings.TrimSpace(f.Text))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

// ReconstructPages applies ReconstructRows to every page, in page order.
func ReconstructPages(pages [][]Fragment) []string {
	var lines []string
	for _, page := range pages {
		lines = append(lines, ReconstructRows(page)...)
	}
	return lines
}
