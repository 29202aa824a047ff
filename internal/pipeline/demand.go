// internal/pipeline/demand.go
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// ReadDemandFile reads one retailer demand file (CSV or XLSX) into demand
// rows. Rows missing a required field (part number, quantity, region) are
// returned separately as rejects with a reason, never silently dropped and
// never fatal to the run.
func ReadDemandFile(path string) ([]domain.DemandRow, []domain.RejectedRow, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSVRecords(path)
	case ".xlsx":
		records, err = readXLSXRecords(path)
	default:
		return nil, nil, fmt.Errorf("unsupported demand file extension %s for %s", filepath.Ext(path), path)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("demand file %s is empty", path)
	}

	header := records[0]
	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeHeader(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeHeader(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxRecordID := colIndex("record_id", "record id", "id")
	idxBrand := colIndex("brand", "cross_name", "cross name")
	idxNumber := colIndex("part_number", "part number", "partno", "part no")
	idxQuantity := colIndex("quantity", "qty", "annual_qty", "annual qty")
	idxRegion := colIndex("region", "region_label", "market")
	idxPeriod := colIndex("period", "year", "reporting_year", "reporting year")

	if idxNumber == -1 || idxQuantity == -1 || idxRegion == -1 {
		return nil, nil, fmt.Errorf("demand file %s is missing a part number, quantity, or region column", path)
	}

	fileName := filepath.Base(path)
	rows := make([]domain.DemandRow, 0, len(records)-1)
	var rejects []domain.RejectedRow

	for lineNo, record := range records[1:] {
		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		row := domain.DemandRow{
			RecordID:  get(idxRecordID),
			Brand:     get(idxBrand),
			RawNumber: get(idxNumber),
			Region:    get(idxRegion),
			Period:    get(idxPeriod),
		}

		reject := func(reason string) {
			rejects = append(rejects, domain.RejectedRow{
				SourceFile: fileName,
				Line:       lineNo + 2, // 1-based, after the header
				Reason:     reason,
				Row:        row,
			})
		}

		if row.RawNumber == "" {
			reject("missing part number")
			continue
		}
		if row.Region == "" {
			reject("missing region")
			continue
		}

		rawQty := get(idxQuantity)
		if rawQty == "" {
			reject("missing quantity")
			continue
		}
		qty, err := strconv.ParseFloat(strings.ReplaceAll(rawQty, ",", ""), 64)
		if err != nil {
			reject(fmt.Sprintf("unparseable quantity %q", rawQty))
			continue
		}
		row.Quantity = qty

		rows = append(rows, row)
	}

	if len(rejects) > 0 {
		log.Warn().
			Str("file", fileName).
			Int("rejected", len(rejects)).
			Int("accepted", len(rows)).
			Msg("demand rows rejected")
	}

	return rows, rejects, nil
}

func readCSVRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open demand file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read demand row from %s: %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSXRecords(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx demand file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx demand file %s has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	return records, nil
}

var headerSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeHeader(name string) string {
	return headerSanitizer.Replace(strings.TrimSpace(strings.ToLower(name)))
}
