package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuvelet/chassisbench/internal/crossref"
	"github.com/kuvelet/chassisbench/internal/domain"
)

func TestAttach(t *testing.T) {
	n := crossref.NewNormalizer(crossref.DefaultStripChars)
	index := map[string]domain.MappingEntry{
		"1ASBJ00132": {Key: "1ASBJ00132", Brand: "BrandA", SKU: "SUS-10001"},
	}
	rows := []domain.DemandRow{
		{RecordID: "R1", RawNumber: "1AS-BJ00132", Quantity: 1200, Region: "North America"},
		{RecordID: "R2", RawNumber: "ZZ-UNKNOWN", Quantity: 50, Region: "Europe"},
	}

	records := Attach(rows, index, n)
	require.Len(t, records, 2, "left-outer join keeps every input row")

	matched := records[0]
	assert.Equal(t, "1ASBJ00132", matched.Key)
	assert.Equal(t, "SUS-10001", matched.SKU)
	assert.Equal(t, "BrandA", matched.MatchedBrand)
	assert.True(t, matched.Resolved())

	unmatched := records[1]
	assert.Equal(t, "ZZUNKNOWN", unmatched.Key, "key is set even without a match")
	assert.Empty(t, unmatched.SKU)
	assert.Empty(t, unmatched.MatchedBrand)
	assert.False(t, unmatched.Resolved())
	assert.Equal(t, 50.0, unmatched.Quantity, "source fields carry through")
}

func TestAttachEmptyMapping(t *testing.T) {
	n := crossref.NewNormalizer(crossref.DefaultStripChars)
	rows := []domain.DemandRow{
		{RecordID: "R1", RawNumber: "X-1", Quantity: 10, Region: "Europe"},
	}

	records := Attach(rows, map[string]domain.MappingEntry{}, n)
	require.Len(t, records, 1)
	assert.False(t, records[0].Resolved())
}
