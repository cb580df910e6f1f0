package categorize

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/spendlens/internal/domain"
)

// ErrUnknownCategory is returned when a rules file names a category outside
// the closed set.
var ErrUnknownCategory = errors.New("unknown category")

// rulesFile is the on-disk keyword table. A YAML sequence keeps the match
// order that a mapping would lose.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules decodes a keyword table:
//
//	rules:
//	  - category: Food & Dining
//	    keywords: [restaurant, cafe]
func LoadRules(r io.Reader) ([]Rule, error) {
	var f rulesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("LoadRules: empty rules file")
		}
		return nil, fmt.Errorf("LoadRules: decode: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("LoadRules: no rules defined")
	}

	for i, rule := range f.Rules {
		canonical, ok := domain.CanonicalCategory(rule.Category)
		if !ok {
			return nil, fmt.Errorf("LoadRules: rule %d: %w: %q", i, ErrUnknownCategory, rule.Category)
		}
		f.Rules[i].Category = canonical
	}
	return f.Rules, nil
}

// LoadRulesFile reads a keyword table from path.
func LoadRulesFile(path string) ([]Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRulesFile: open %s: %w", path, err)
	}
	defer file.Close()

	return LoadRules(file)
}

// NewMatcherFromFile returns the default matcher when path is empty and a
// matcher over the file's rules otherwise.
func NewMatcherFromFile(path string) (*Matcher, error) {
	if path == "" {
		return DefaultMatcher(), nil
	}
	rules, err := LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	return NewMatcher(rules), nil
}

// EncodeRules writes rules in the format LoadRules reads.
func EncodeRules(w io.Writer, rules []Rule) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rulesFile{Rules: rules}); err != nil {
		return fmt.Errorf("EncodeRules: %w", err)
	}
	return enc.Close()
}
