package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"dash stripped", "1AS-BJ00132", "1ASBJ00132"},
		{"dot slash space stripped", "TRQ.123 / A", "TRQ123A"},
		{"lowercase uppercased", "k6723-a", "K6723A"},
		{"leading and trailing spaces", "  ms 25538 ", "MS25538"},
		{"empty input", "", ""},
		{"only strip characters", " -./", ""},
		{"unrecognized characters pass through", "K#6723_A", "K#6723_A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)

	inputs := []string{"1AS-BJ00132", "trq.123 / a", "", "MS-25538"}
	for _, raw := range inputs {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(once), "normalizing twice must not change the key for %q", raw)
	}
}

func TestNormalizeCustomStripSet(t *testing.T) {
	n := NewNormalizer("-_")

	// Dots survive when not in the strip set.
	assert.Equal(t, "TRQ.123", n.Normalize("trq._123"))
}

func TestNormalizeEmptyStripSetFallsBackToDefault(t *testing.T) {
	n := NewNormalizer("")
	assert.Equal(t, "1ASBJ00132", n.Normalize("1as-bj 001.32/"))
}
