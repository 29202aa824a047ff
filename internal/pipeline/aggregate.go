// internal/pipeline/aggregate.go
package pipeline

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// Aggregate rolls resolved demand records up into one RegionalAggregate per
// SKU. Per-region subtotals exist only for configured regions that saw at
// least one record; absence means "no reported demand", which downstream gap
// analysis distinguishes from zero. Totals cover every resolved record,
// including records tagged with a region outside the configured list (such
// records are logged once per unknown label). Unresolved records are
// excluded here but remain in the demand-record relation.
//
// An empty region list is a configuration error and refuses the run.
func Aggregate(records []domain.DemandRecord, regions []string) ([]domain.RegionalAggregate, error) {
	if len(regions) == 0 {
		return nil, fmt.Errorf("region list is empty: refusing to aggregate")
	}

	configured := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		configured[r] = struct{}{}
	}

	bySKU := make(map[string]*domain.RegionalAggregate)
	unknownRegions := make(map[string]int)

	for _, rec := range records {
		if !rec.Resolved() {
			continue
		}
		agg, ok := bySKU[rec.SKU]
		if !ok {
			agg = &domain.RegionalAggregate{
				SKU:       rec.SKU,
				Subtotals: make(map[string]float64),
			}
			bySKU[rec.SKU] = agg
		}

		agg.Total += rec.Quantity
		if _, known := configured[rec.Region]; known {
			agg.Subtotals[rec.Region] += rec.Quantity
		} else {
			unknownRegions[rec.Region]++
		}
	}

	for label, count := range unknownRegions {
		log.Warn().
			Str("region", label).
			Int("records", count).
			Msg("demand region not in configured list; counted toward totals only")
	}

	aggregates := make([]domain.RegionalAggregate, 0, len(bySKU))
	for _, agg := range bySKU {
		aggregates = append(aggregates, *agg)
	}

	// Descending total, ties by SKU ascending; ranks are dense 1..N.
	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].Total != aggregates[j].Total {
			return aggregates[i].Total > aggregates[j].Total
		}
		return aggregates[i].SKU < aggregates[j].SKU
	})
	for i := range aggregates {
		aggregates[i].Rank = i + 1
	}

	return aggregates, nil
}
