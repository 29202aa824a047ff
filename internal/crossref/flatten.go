// internal/crossref/flatten.go
package crossref

import (
	"sort"
	"strings"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// BrandColumn maps a wide-catalog column header to the canonical brand label
// emitted on its cross entries. The brand list is configuration carried as
// data, so adding a brand is a configuration change, not a code change.
type BrandColumn struct {
	Column string
	Label  string
}

// CatalogRow is one wide-catalog row: an internal SKU plus that SKU's part
// number under each brand column (missing cells absent from the map).
type CatalogRow struct {
	SKU   string
	Cells map[string]string
}

// Flatten un-pivots the wide catalog into cross entries: one entry per
// (SKU, brand) pair whose cell is non-empty after normalization. Rows with a
// blank SKU are skipped entirely. Output order is deterministic regardless
// of input order.
func Flatten(rows []CatalogRow, brands []BrandColumn, n *Normalizer) []domain.CrossEntry {
	entries := make([]domain.CrossEntry, 0, len(rows))
	for _, row := range rows {
		sku := strings.TrimSpace(row.SKU)
		if sku == "" {
			continue
		}
		for _, brand := range brands {
			cell, ok := row.Cells[brand.Column]
			if !ok {
				continue
			}
			key := n.Normalize(cell)
			if key == "" {
				// A cell that normalizes away entirely is treated as absent.
				continue
			}
			entries = append(entries, domain.CrossEntry{
				Brand: brand.Label,
				Key:   key,
				SKU:   sku,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		return a.SKU < b.SKU
	})

	return entries
}

// BrandColumnsFromHeader derives the brand column list from a catalog header
// when no explicit configuration is provided: every column except the SKU
// column becomes a brand column labeled by its own header.
func BrandColumnsFromHeader(header []string, skuColumn string) []BrandColumn {
	brands := make([]BrandColumn, 0, len(header))
	for _, col := range header {
		name := strings.TrimSpace(col)
		if name == "" || strings.EqualFold(name, skuColumn) {
			continue
		}
		brands = append(brands, BrandColumn{Column: name, Label: name})
	}
	return brands
}
