package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDemandCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadDemandFile(t *testing.T) {
	path := writeDemandCSV(t, "retailer_a.csv",
		"record_id,brand,part_number,quantity,region,period\n"+
			"R1,BrandA,1AS-BJ00132,1200,North America,2024\n"+
			"R2,BrandB,K6723-A,600,Mexico,2024\n")

	rows, rejects, err := ReadDemandFile(path)
	require.NoError(t, err)
	assert.Empty(t, rejects)
	require.Len(t, rows, 2)

	assert.Equal(t, "R1", rows[0].RecordID)
	assert.Equal(t, "1AS-BJ00132", rows[0].RawNumber)
	assert.Equal(t, 1200.0, rows[0].Quantity)
	assert.Equal(t, "North America", rows[0].Region)
	assert.Equal(t, "2024", rows[0].Period)
}

func TestReadDemandFileHeaderAliases(t *testing.T) {
	// Header matching ignores case, spaces, and separators.
	path := writeDemandCSV(t, "retailer_b.csv",
		"Part Number,Annual Qty,Region\n"+
			"TRQ.123,900,Europe\n")

	rows, rejects, err := ReadDemandFile(path)
	require.NoError(t, err)
	assert.Empty(t, rejects)
	require.Len(t, rows, 1)
	assert.Equal(t, "TRQ.123", rows[0].RawNumber)
	assert.Equal(t, 900.0, rows[0].Quantity)
}

func TestReadDemandFileQuantityWithThousandsSeparator(t *testing.T) {
	path := writeDemandCSV(t, "retailer_c.csv",
		"part_number,quantity,region\n"+
			"X-1,\"12,500\",Europe\n")

	rows, rejects, err := ReadDemandFile(path)
	require.NoError(t, err)
	assert.Empty(t, rejects)
	require.Len(t, rows, 1)
	assert.Equal(t, 12500.0, rows[0].Quantity)
}

func TestReadDemandFileRejectsBadRows(t *testing.T) {
	path := writeDemandCSV(t, "retailer_d.csv",
		"part_number,quantity,region\n"+
			",100,Europe\n"+
			"X-1,,Europe\n"+
			"X-2,abc,Europe\n"+
			"X-3,50,\n"+
			"X-4,75,Mexico\n")

	rows, rejects, err := ReadDemandFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X-4", rows[0].RawNumber)

	require.Len(t, rejects, 4)
	assert.Equal(t, "missing part number", rejects[0].Reason)
	assert.Equal(t, 2, rejects[0].Line)
	assert.Equal(t, "missing quantity", rejects[1].Reason)
	assert.Contains(t, rejects[2].Reason, "unparseable quantity")
	assert.Equal(t, "missing region", rejects[3].Reason)
	assert.Equal(t, "retailer_d.csv", rejects[3].SourceFile)
}

func TestReadDemandFileMissingRequiredColumn(t *testing.T) {
	path := writeDemandCSV(t, "retailer_e.csv",
		"part_number,quantity\nX-1,100\n")

	_, _, err := ReadDemandFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a part number, quantity, or region column")
}

func TestReadDemandFileEmpty(t *testing.T) {
	path := writeDemandCSV(t, "empty.csv", "")

	_, _, err := ReadDemandFile(path)
	require.Error(t, err)
}

func TestReadDemandFileUnsupportedExtension(t *testing.T) {
	path := writeDemandCSV(t, "demand.json", "{}")

	_, _, err := ReadDemandFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported demand file extension")
}
