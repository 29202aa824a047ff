// internal/crossref/normalize.go
package crossref

import "strings"

// DefaultStripChars are the characters removed from part numbers before
// matching. The set is configurable per run but fixed within one.
const DefaultStripChars = "-. /"

// Normalizer turns raw part-number strings into canonical matching keys.
// The same normalizer is applied to both catalog cells and demand rows, so
// matching only ever compares keys produced the same way.
type Normalizer struct {
	replacer *strings.Replacer
}

// NewNormalizer builds a normalizer for the given strip set. An empty strip
// set falls back to DefaultStripChars.
func NewNormalizer(stripChars string) *Normalizer {
	if stripChars == "" {
		stripChars = DefaultStripChars
	}
	pairs := make([]string, 0, len(stripChars)*2)
	for _, ch := range stripChars {
		pairs = append(pairs, string(ch), "")
	}
	return &Normalizer{replacer: strings.NewReplacer(pairs...)}
}

// Normalize uppercases raw and removes every strip-set character. It never
// fails: characters outside the strip set pass through uppercased.
func (n *Normalizer) Normalize(raw string) string {
	return n.replacer.Replace(strings.ToUpper(raw))
}
