// internal/crossref/catalog.go
package crossref

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadCatalog reads the wide equivalence catalog from a CSV or XLSX file.
// It returns the header row and one CatalogRow per data row. The SKU column
// is located by case-insensitive header match against skuColumn.
func LoadCatalog(path, skuColumn string) ([]string, []CatalogRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCatalogCSV(path, skuColumn)
	case ".xlsx":
		return loadCatalogXLSX(path, skuColumn)
	default:
		return nil, nil, fmt.Errorf("unsupported catalog file extension %s for %s", filepath.Ext(path), path)
	}
}

func loadCatalogCSV(path, skuColumn string) ([]string, []CatalogRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog header from %s: %w", path, err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read catalog row from %s: %w", path, err)
		}
		records = append(records, record)
	}

	rows, err := catalogRowsFromRecords(header, records, skuColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return header, rows, nil
}

func loadCatalogXLSX(path, skuColumn string) ([]string, []CatalogRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx catalog %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("xlsx catalog %s has no sheets", path)
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("xlsx catalog %s is empty", path)
	}

	header := all[0]
	rows, err := catalogRowsFromRecords(header, all[1:], skuColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return header, rows, nil
}

func catalogRowsFromRecords(header []string, records [][]string, skuColumn string) ([]CatalogRow, error) {
	skuIdx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), skuColumn) {
			skuIdx = i
			break
		}
	}
	if skuIdx == -1 {
		return nil, fmt.Errorf("catalog header has no %q column", skuColumn)
	}

	rows := make([]CatalogRow, 0, len(records))
	for _, record := range records {
		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		row := CatalogRow{
			SKU:   get(skuIdx),
			Cells: make(map[string]string, len(header)-1),
		}
		for i, h := range header {
			if i == skuIdx {
				continue
			}
			if cell := get(i); cell != "" {
				row.Cells[strings.TrimSpace(h)] = cell
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
