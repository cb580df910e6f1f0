package normalize

import "testing"

func TestNormalizeDate_RoundTrip(t *testing.T) {
	inputs := []string{"Feb 07, 2026", "07 Feb 2026", "02/07/2026", "2026-02-07"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, ok := NormalizeDate(in)
			if !ok {
				t.Fatalf("NormalizeDate(%q) found no date", in)
			}
			if got != "2026-02-07" {
				t.Errorf("NormalizeDate(%q) = %q, want 2026-02-07", in, got)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "abbreviation without comma", input: "Jan 5 2025", want: "2025-01-05", wantOK: true},
		{name: "full month name", input: "September 30, 2024", want: "2024-09-30", wantOK: true},
		{name: "lowercase abbreviation", input: "dec 01, 2023", want: "2023-12-01", wantOK: true},
		{name: "day month dashes", input: "15-Mar-2025", want: "2025-03-15", wantOK: true},
		{name: "iso with slashes", input: "2025/3/9", want: "2025-03-09", wantOK: true},
		{name: "us dashes", input: "12-31-2025", want: "2025-12-31", wantOK: true},
		{name: "two digit year recent", input: "02/07/26", want: "2026-02-07", wantOK: true},
		{name: "two digit year old", input: "02/07/87", want: "1987-02-07", wantOK: true},
		{name: "two digit year boundary", input: "01/01/50", want: "2050-01-01", wantOK: true},
		{name: "day first swap", input: "25/12/2025", want: "2025-12-25", wantOK: true},
		{name: "year out of range", input: "1234-05-06", wantOK: false},
		{name: "month out of range", input: "2025-13-01", wantOK: false},
		{name: "day out of range", input: "2025-01-32", wantOK: false},
		{name: "both fields over twelve", input: "13/13/2025", wantOK: false},
		{name: "no date", input: "Coffee 4.50", wantOK: false},
		{name: "word containing month", input: "Supermarket 12 items", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeDate(%q) ok = %v, want %v (got %q)", tt.input, ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindDate_Remainder(t *testing.T) {
	m, ok := FindDate("02/07/2026 Netflix Subscription -15.99")
	if !ok {
		t.Fatal("expected a date")
	}
	if m.ISO != "2026-02-07" {
		t.Errorf("ISO = %q", m.ISO)
	}
	if m.Raw != "02/07/2026" {
		t.Errorf("Raw = %q", m.Raw)
	}
	if m.Remainder != "Netflix Subscription -15.99" {
		t.Errorf("Remainder = %q", m.Remainder)
	}
	if m.Strategy != "mm-dd-yyyy" {
		t.Errorf("Strategy = %q", m.Strategy)
	}
}

func TestFindDate_GuardSkipsDocumentNumbers(t *testing.T) {
	// 4410-22-19 fails the year guard, the later date still matches.
	m, ok := FindDate("Ref 4410-22-19 posted 2025-06-30")
	if !ok {
		t.Fatal("expected a date")
	}
	if m.ISO != "2025-06-30" {
		t.Errorf("ISO = %q, want 2025-06-30", m.ISO)
	}
}

func TestFindDate_StrategyPriority(t *testing.T) {
	// Month-name form outranks numeric forms on the same line.
	m, ok := FindDate("2025-01-01 settled Mar 3, 2025")
	if !ok {
		t.Fatal("expected a date")
	}
	if m.ISO != "2025-03-03" {
		t.Errorf("ISO = %q, want 2025-03-03", m.ISO)
	}
}

func TestNormalizeDateLenient(t *testing.T) {
	if got := NormalizeDateLenient("Feb 07, 2026"); got != "2026-02-07" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeDateLenient("yesterday"); got != "yesterday" {
		t.Errorf("unrecognized input should be returned unchanged, got %q", got)
	}
}
