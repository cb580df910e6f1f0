package categorize

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/spendlens/internal/domain"
)

func TestLoadRules(t *testing.T) {
	input := `
rules:
  - category: groceries
    keywords: [imtiaz, "Al-Fatah"]
  - category: Food & Dining
    keywords:
      - cafe
`
	got, err := LoadRules(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadRules failed: %v", err)
	}
	want := []Rule{
		{Category: domain.CategoryGroceries, Keywords: []string{"imtiaz", "Al-Fatah"}},
		{Category: domain.CategoryFood, Keywords: []string{"cafe"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadRules mismatch (-want +got):\n%s", diff)
	}

	m := NewMatcher(got)
	if c := m.Match("AL-FATAH CAFE"); c != domain.CategoryGroceries {
		t.Errorf("file order not honoured, got %q", c)
	}
}

func TestLoadRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: ""},
		{name: "no rules", input: "rules: []\n"},
		{name: "unknown field", input: "rulez: []\n"},
		{name: "unknown category", input: "rules:\n  - category: Pets\n    keywords: [vet]\n", wantErr: ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeRules_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeRules(&buf, DefaultRules()); err != nil {
		t.Fatalf("EncodeRules failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcherFromFile(path)
	if err != nil {
		t.Fatalf("NewMatcherFromFile failed: %v", err)
	}
	if diff := cmp.Diff(DefaultMatcher().Rules(), m.Rules()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNewMatcherFromFile_EmptyPathUsesDefaults(t *testing.T) {
	m, err := NewMatcherFromFile("")
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Match("Netflix"); got != domain.CategoryEntertainment {
		t.Errorf("got %q", got)
	}
}

func TestLoadRulesFile_Missing(t *testing.T) {
	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
