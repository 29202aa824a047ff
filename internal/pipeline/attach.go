// internal/pipeline/attach.go
package pipeline

import (
	"github.com/kuvelet/chassisbench/internal/crossref"
	"github.com/kuvelet/chassisbench/internal/domain"
)

// Attach joins demand rows against the resolved mapping. Left-outer
// semantics: every input row appears in the output exactly once; rows whose
// canonical key has no mapping entry keep an empty SKU and stay available
// for gap analysis downstream.
func Attach(rows []domain.DemandRow, index map[string]domain.MappingEntry, n *crossref.Normalizer) []domain.DemandRecord {
	records := make([]domain.DemandRecord, 0, len(rows))
	for _, row := range rows {
		record := domain.DemandRecord{
			DemandRow: row,
			Key:       n.Normalize(row.RawNumber),
		}
		if entry, ok := index[record.Key]; ok {
			record.MatchedBrand = entry.Brand
			record.SKU = entry.SKU
		}
		records = append(records, record)
	}
	return records
}
