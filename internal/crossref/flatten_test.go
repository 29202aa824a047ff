package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandColumnsFromHeader(t *testing.T) {
	header := []string{"SusCatalog", "BrandA", "BrandB", "BrandC"}

	brands := BrandColumnsFromHeader(header, "SusCatalog")
	require.Len(t, brands, 3)
	assert.Equal(t, BrandColumn{Column: "BrandA", Label: "BrandA"}, brands[0])
	assert.Equal(t, "BrandC", brands[2].Label)
}

func TestBrandColumnsFromHeaderSKUColumnCaseInsensitive(t *testing.T) {
	header := []string{"suscatalog", "BrandA"}

	brands := BrandColumnsFromHeader(header, "SusCatalog")
	require.Len(t, brands, 1)
	assert.Equal(t, "BrandA", brands[0].Column)
}

func TestFlatten(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)
	brands := []BrandColumn{
		{Column: "BrandA", Label: "BrandA"},
		{Column: "BrandB", Label: "BrandB"},
	}
	rows := []CatalogRow{
		{SKU: "SUS-10001", Cells: map[string]string{"BrandA": "1AS-BJ00132", "BrandB": ""}},
		{SKU: "SUS-10002", Cells: map[string]string{"BrandA": "trq.123 / a", "BrandB": "K6723-A"}},
	}

	entries := Flatten(rows, brands, n)
	require.Len(t, entries, 3)

	// Output is sorted by (Key, Brand, SKU).
	assert.Equal(t, "1ASBJ00132", entries[0].Key)
	assert.Equal(t, "BrandA", entries[0].Brand)
	assert.Equal(t, "SUS-10001", entries[0].SKU)

	assert.Equal(t, "K6723A", entries[1].Key)
	assert.Equal(t, "BrandB", entries[1].Brand)

	assert.Equal(t, "TRQ123A", entries[2].Key)
	assert.Equal(t, "SUS-10002", entries[2].SKU)
}

func TestFlattenSkipsBlankSKURows(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)
	brands := []BrandColumn{{Column: "BrandA", Label: "BrandA"}}
	rows := []CatalogRow{
		{SKU: "   ", Cells: map[string]string{"BrandA": "1AS-BJ00132"}},
		{SKU: "", Cells: map[string]string{"BrandA": "K6723-A"}},
	}

	assert.Empty(t, Flatten(rows, brands, n))
}

func TestFlattenSkipsCellsThatNormalizeEmpty(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)
	brands := []BrandColumn{{Column: "BrandA", Label: "BrandA"}}
	rows := []CatalogRow{
		{SKU: "SUS-10001", Cells: map[string]string{"BrandA": " -./ "}},
	}

	assert.Empty(t, Flatten(rows, brands, n))
}

func TestFlattenDeterministicAcrossRowOrder(t *testing.T) {
	n := NewNormalizer(DefaultStripChars)
	brands := []BrandColumn{
		{Column: "BrandA", Label: "BrandA"},
		{Column: "BrandB", Label: "BrandB"},
	}
	rows := []CatalogRow{
		{SKU: "SUS-10001", Cells: map[string]string{"BrandA": "X-1", "BrandB": "Y-2"}},
		{SKU: "SUS-10002", Cells: map[string]string{"BrandA": "Z-3"}},
	}
	reversed := []CatalogRow{rows[1], rows[0]}

	assert.Equal(t, Flatten(rows, brands, n), Flatten(reversed, brands, n))
}
