// internal/pipeline/intermediates.go
package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// Staged intermediate CSVs mirror each barrier stage's output so a run can
// be audited layer by layer. Layout under the intermediate dir:
//
//	1_cross_entries/entries.csv
//	2_resolved_mapping/mapping.csv + conflicts.csv
//	3_demand_records/records.csv + rejected.csv
//	4_aggregates/aggregates.csv

func writeIntermediates(dir string, regions []string, res *Result) error {
	writers := []struct {
		stage string
		name  string
		fn    func(w *csv.Writer) error
	}{
		{"1_cross_entries", "entries.csv", func(w *csv.Writer) error { return writeCrossEntries(w, res.Entries) }},
		{"2_resolved_mapping", "mapping.csv", func(w *csv.Writer) error { return writeMapping(w, res.Mapping) }},
		{"2_resolved_mapping", "conflicts.csv", func(w *csv.Writer) error { return writeConflicts(w, res.Conflicts) }},
		{"3_demand_records", "records.csv", func(w *csv.Writer) error { return writeRecords(w, res.Records) }},
		{"3_demand_records", "rejected.csv", func(w *csv.Writer) error { return writeRejects(w, res.Rejects) }},
		{"4_aggregates", "aggregates.csv", func(w *csv.Writer) error { return writeAggregates(w, regions, res.Aggregates) }},
	}

	for _, layer := range writers {
		stageDir := filepath.Join(dir, layer.stage)
		if err := os.MkdirAll(stageDir, 0755); err != nil {
			return fmt.Errorf("failed to create intermediate dir %s: %w", stageDir, err)
		}
		if err := writeCSVFile(filepath.Join(stageDir, layer.name), layer.fn); err != nil {
			return err
		}
	}

	return nil
}

func writeCSVFile(path string, fn func(w *csv.Writer) error) error {
	// Write to a temp file first and rename so a partial run never leaves a
	// half-written relation behind.
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

func writeCrossEntries(w *csv.Writer, entries []domain.CrossEntry) error {
	if err := w.Write([]string{"brand", "canonical_key", "sku"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Brand, e.Key, e.SKU}); err != nil {
			return err
		}
	}
	return nil
}

func writeMapping(w *csv.Writer, mapping []domain.MappingEntry) error {
	if err := w.Write([]string{"canonical_key", "brand", "sku"}); err != nil {
		return err
	}
	for _, m := range mapping {
		if err := w.Write([]string{m.Key, m.Brand, m.SKU}); err != nil {
			return err
		}
	}
	return nil
}

func writeConflicts(w *csv.Writer, conflicts []domain.ConflictGroup) error {
	if err := w.Write([]string{"canonical_key", "brand", "sku", "chosen"}); err != nil {
		return err
	}
	for _, c := range conflicts {
		for _, cand := range c.Candidates {
			chosen := "0"
			if cand == c.Chosen {
				chosen = "1"
			}
			if err := w.Write([]string{c.Key, cand.Brand, cand.SKU, chosen}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRecords(w *csv.Writer, records []domain.DemandRecord) error {
	header := []string{"record_id", "brand", "part_number", "canonical_key", "matched_brand", "sku", "quantity", "region", "period"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.RecordID, r.Brand, r.RawNumber, r.Key, r.MatchedBrand, r.SKU,
			formatQty(r.Quantity), r.Region, r.Period,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeRejects(w *csv.Writer, rejects []domain.RejectedRow) error {
	if err := w.Write([]string{"source_file", "line", "reason", "record_id", "brand", "part_number", "region"}); err != nil {
		return err
	}
	for _, r := range rejects {
		row := []string{
			r.SourceFile, strconv.Itoa(r.Line), r.Reason,
			r.Row.RecordID, r.Row.Brand, r.Row.RawNumber, r.Row.Region,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeAggregates(w *csv.Writer, regions []string, aggregates []domain.RegionalAggregate) error {
	header := []string{"sku"}
	for _, region := range regions {
		header = append(header, regionColumn(region))
	}
	header = append(header, "total", "rank")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, agg := range aggregates {
		row := []string{agg.SKU}
		for _, region := range regions {
			if v, ok := agg.Subtotals[region]; ok {
				row = append(row, formatQty(v))
			} else {
				// Absent subtotal stays blank: no reported demand, not zero.
				row = append(row, "")
			}
		}
		row = append(row, formatQty(agg.Total), strconv.Itoa(agg.Rank))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// regionColumn turns a region label into a stable snake_case column name.
func regionColumn(label string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
}
