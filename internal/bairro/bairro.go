// Package bairro extracts a neighbourhood name from a free-text address
// label using a ranked list of regular-expression rules.
package bairro

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unidentified is returned when no rule matches the label.
const Unidentified = "Não identificado"

// Rule is one extraction pattern. Rules are tried in order; the first
// pattern that matches wins and its CaptureGroup is the bairro.
type Rule struct {
	Pattern      string `json:"pattern"`
	CaptureGroup int    `json:"capture_group"`
}

// DefaultRules handles the address shapes seen in the source logs:
// an explicit "Bairro X" marker, then the second comma-delimited field
// of "Rua Y, X, Cidade", then a trailing " - X" district suffix.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: `(?i)\bbairro\s+([^,;–-]+)`, CaptureGroup: 1},
		{Pattern: `^[^,]+,\s*([^,0-9][^,]*?)\s*(?:,|$)`, CaptureGroup: 1},
		{Pattern: `-\s*([^,;–-]+)\s*$`, CaptureGroup: 1},
	}
}

// Extractor applies a fixed rule list to labels. It is safe for
// concurrent use once constructed.
type Extractor struct {
	rules []compiledRule
	fold  bool
}

type compiledRule struct {
	re    *regexp.Regexp
	group int
}

// NewExtractor compiles rules. An unparseable pattern or an
// out-of-range capture group is a configuration error, reported before
// any data is processed. With fold set, extracted names are lowercased
// and stripped of diacritics so "Água Verde" and "agua verde" count as
// one bairro.
func NewExtractor(rules []Rule, fold bool) (*Extractor, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	e := &Extractor{fold: fold}
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("bairro rule %d: invalid pattern %q: %w", i, r.Pattern, err)
		}
		if r.CaptureGroup < 1 || r.CaptureGroup > re.NumSubexp() {
			return nil, fmt.Errorf("bairro rule %d: capture group %d out of range (pattern has %d)", i, r.CaptureGroup, re.NumSubexp())
		}
		e.rules = append(e.rules, compiledRule{re: re, group: r.CaptureGroup})
	}
	return e, nil
}

// Extract returns the bairro for a label, or Unidentified when no rule
// matches. It is pure and total: identical input always yields identical
// output and it never fails.
func (e *Extractor) Extract(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return Unidentified
	}
	for _, r := range e.rules {
		m := r.re.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[r.group])
		if name == "" {
			continue
		}
		if e.fold {
			name = Fold(name)
		}
		return name
	}
	return Unidentified
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a name and strips combining diacritical marks.
func Fold(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		return strings.ToLower(name)
	}
	return strings.ToLower(folded)
}
