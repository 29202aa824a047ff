package crossref

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalogCSV(t *testing.T) {
	path := writeTempCSV(t, "catalog.csv",
		"SusCatalog,BrandA,BrandB\n"+
			"SUS-10001,1AS-BJ00132,\n"+
			"SUS-10002,TRQ.123,K6723-A\n")

	header, rows, err := LoadCatalog(path, "SusCatalog")
	require.NoError(t, err)
	assert.Equal(t, []string{"SusCatalog", "BrandA", "BrandB"}, header)
	require.Len(t, rows, 2)

	assert.Equal(t, "SUS-10001", rows[0].SKU)
	assert.Equal(t, "1AS-BJ00132", rows[0].Cells["BrandA"])
	_, ok := rows[0].Cells["BrandB"]
	assert.False(t, ok, "empty cells must be absent from the map")

	assert.Equal(t, "K6723-A", rows[1].Cells["BrandB"])
}

func TestLoadCatalogRaggedRows(t *testing.T) {
	// Short rows are padded implicitly: missing trailing cells read as empty.
	path := writeTempCSV(t, "catalog.csv",
		"SusCatalog,BrandA,BrandB\n"+
			"SUS-10001,1AS-BJ00132\n")

	_, rows, err := LoadCatalog(path, "SusCatalog")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1AS-BJ00132", rows[0].Cells["BrandA"])
}

func TestLoadCatalogMissingSKUColumn(t *testing.T) {
	path := writeTempCSV(t, "catalog.csv", "BrandA,BrandB\nX,Y\n")

	_, _, err := LoadCatalog(path, "SusCatalog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SusCatalog")
}

func TestLoadCatalogUnsupportedExtension(t *testing.T) {
	path := writeTempCSV(t, "catalog.txt", "SusCatalog\n")

	_, _, err := LoadCatalog(path, "SusCatalog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog file extension")
}
