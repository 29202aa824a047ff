// internal/crossref/resolve.go
package crossref

import (
	"sort"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// Resolve collapses the cross-entry set into a mapping with exactly one
// (brand, SKU) per canonical key. When a key carries more than one distinct
// entry the tie-break picks the minimum under ascending (brand, SKU) order,
// and the whole group is reported as a conflict for catalog curation.
// Identical duplicate entries are collapsed silently and are not conflicts.
//
// Resolve runs once per pipeline run, before the demand join, so each
// demand row can match at most one SKU and sums cannot be inflated.
func Resolve(entries []domain.CrossEntry) ([]domain.MappingEntry, []domain.ConflictGroup) {
	byKey := make(map[string][]domain.CrossEntry)
	for _, e := range entries {
		byKey[e.Key] = append(byKey[e.Key], e)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mapping := make([]domain.MappingEntry, 0, len(keys))
	var conflicts []domain.ConflictGroup

	for _, key := range keys {
		candidates := dedupeEntries(byKey[key])
		chosen := candidates[0]
		mapping = append(mapping, domain.MappingEntry{
			Key:   key,
			Brand: chosen.Brand,
			SKU:   chosen.SKU,
		})
		if len(candidates) > 1 {
			conflicts = append(conflicts, domain.ConflictGroup{
				Key:        key,
				Candidates: candidates,
				Chosen:     chosen,
			})
		}
	}

	return mapping, conflicts
}

// dedupeEntries sorts a key's entries by (brand, SKU) ascending and drops
// exact duplicates. The first element is the tie-break winner.
func dedupeEntries(entries []domain.CrossEntry) []domain.CrossEntry {
	sorted := make([]domain.CrossEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Brand != sorted[j].Brand {
			return sorted[i].Brand < sorted[j].Brand
		}
		return sorted[i].SKU < sorted[j].SKU
	})

	out := sorted[:0]
	for i, e := range sorted {
		if i > 0 && e == sorted[i-1] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MappingIndex builds the lookup table the demand join uses.
func MappingIndex(mapping []domain.MappingEntry) map[string]domain.MappingEntry {
	index := make(map[string]domain.MappingEntry, len(mapping))
	for _, m := range mapping {
		index[m.Key] = m
	}
	return index
}
