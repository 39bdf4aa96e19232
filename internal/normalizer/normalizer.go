// internal/normalizer/normalizer.go
// Package normalizer pre-cleans organization names with an ordered list of
// regex substitution rules before they are submitted to a completion service.
package normalizer

import (
	"regexp"
	"strings"
)

// Rule is a single pattern/replacement substitution. Rules are applied in
// the order they appear in the normalizer's rule list.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Normalizer applies an ordered rule list to input strings. It is pure and
// stateless; the same input always yields the same output.
type Normalizer struct {
	rules []Rule
}

// New creates a Normalizer with the given rules. Passing no rules yields a
// normalizer that only trims surrounding whitespace.
func New(rules ...Rule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Default returns a normalizer with the standard organization-name cleaning
// rules: legal-suffix stripping, punctuation cleanup, and whitespace collapse.
func Default() *Normalizer {
	return New(DefaultRules()...)
}

// DefaultRules returns the standard rule list. Order matters: suffixes are
// stripped before punctuation so "Acme, Inc." loses both the suffix and the
// comma it rode in on.
func DefaultRules() []Rule {
	return []Rule{
		// Legal suffixes, with or without a leading comma, at the end of the name.
		{regexp.MustCompile(`(?i)[,]?\s+(incorporated|corporation|company|limited)\.?$`), ""},
		{regexp.MustCompile(`(?i)[,]?\s+(inc|corp|co|ltd|llc|llp|plc|gmbh|ag|sa|nv|pty)\.?$`), ""},
		// Trailing "& Co" style fragments left behind by the previous pass.
		{regexp.MustCompile(`(?i)\s+&\s*$`), ""},
		// Collapse runs of whitespace.
		{regexp.MustCompile(`\s+`), " "},
		// Stray punctuation at either end.
		{regexp.MustCompile(`^[\s.,;:]+|[\s.,;:]+$`), ""},
	}
}

// Apply runs every rule against the input in order and returns the cleaned
// string.
func (n *Normalizer) Apply(s string) string {
	out := s
	for _, rule := range n.rules {
		out = rule.Pattern.ReplaceAllString(out, rule.Replacement)
	}
	return strings.TrimSpace(out)
}

// ApplyAll cleans every entry of a list, preserving order.
func (n *Normalizer) ApplyAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = n.Apply(item)
	}
	return out
}
