package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuvelet/chassisbench/internal/domain"
)

func resolvedRecord(sku, region string, qty float64) domain.DemandRecord {
	return domain.DemandRecord{
		DemandRow:    domain.DemandRow{Quantity: qty, Region: region},
		SKU:          sku,
		MatchedBrand: "BrandA",
	}
}

func TestAggregate(t *testing.T) {
	regions := []string{"North America", "Mexico", "Europe"}
	records := []domain.DemandRecord{
		resolvedRecord("SUS-10001", "North America", 700),
		resolvedRecord("SUS-10001", "North America", 500),
		resolvedRecord("SUS-10001", "Mexico", 600),
		resolvedRecord("SUS-10001", "Europe", 900),
		resolvedRecord("SUS-10002", "Europe", 100),
	}

	aggregates, err := Aggregate(records, regions)
	require.NoError(t, err)
	require.Len(t, aggregates, 2)

	top := aggregates[0]
	assert.Equal(t, "SUS-10001", top.SKU)
	assert.Equal(t, 1200.0, top.Subtotals["North America"])
	assert.Equal(t, 600.0, top.Subtotals["Mexico"])
	assert.Equal(t, 900.0, top.Subtotals["Europe"])
	assert.Equal(t, 2700.0, top.Total)
	assert.Equal(t, 1, top.Rank)

	assert.Equal(t, "SUS-10002", aggregates[1].SKU)
	assert.Equal(t, 2, aggregates[1].Rank)
}

func TestAggregateAbsentRegionIsNotZero(t *testing.T) {
	records := []domain.DemandRecord{
		resolvedRecord("SUS-10001", "Europe", 100),
	}

	aggregates, err := Aggregate(records, []string{"North America", "Europe"})
	require.NoError(t, err)
	require.Len(t, aggregates, 1)

	_, present := aggregates[0].Subtotals["North America"]
	assert.False(t, present, "a region with no records must be absent, not zero")
}

func TestAggregateUnknownRegionCountsTowardTotalOnly(t *testing.T) {
	records := []domain.DemandRecord{
		resolvedRecord("SUS-10001", "Europe", 100),
		resolvedRecord("SUS-10001", "Antarctica", 40),
	}

	aggregates, err := Aggregate(records, []string{"Europe"})
	require.NoError(t, err)
	require.Len(t, aggregates, 1)

	assert.Equal(t, 140.0, aggregates[0].Total)
	assert.Equal(t, 100.0, aggregates[0].Subtotals["Europe"])
	_, present := aggregates[0].Subtotals["Antarctica"]
	assert.False(t, present)
}

func TestAggregateSkipsUnresolvedRecords(t *testing.T) {
	records := []domain.DemandRecord{
		resolvedRecord("SUS-10001", "Europe", 100),
		{DemandRow: domain.DemandRow{Quantity: 9999, Region: "Europe"}}, // no SKU
	}

	aggregates, err := Aggregate(records, []string{"Europe"})
	require.NoError(t, err)
	require.Len(t, aggregates, 1)
	assert.Equal(t, 100.0, aggregates[0].Total)
}

func TestAggregateRankingTieBreaksOnSKU(t *testing.T) {
	records := []domain.DemandRecord{
		resolvedRecord("SUS-B", "Europe", 100),
		resolvedRecord("SUS-A", "Europe", 100),
		resolvedRecord("SUS-C", "Europe", 300),
	}

	aggregates, err := Aggregate(records, []string{"Europe"})
	require.NoError(t, err)
	require.Len(t, aggregates, 3)

	assert.Equal(t, "SUS-C", aggregates[0].SKU)
	assert.Equal(t, "SUS-A", aggregates[1].SKU)
	assert.Equal(t, "SUS-B", aggregates[2].SKU)
	for i, agg := range aggregates {
		assert.Equal(t, i+1, agg.Rank)
	}
}

func TestAggregateEmptyRegionListRefused(t *testing.T) {
	_, err := Aggregate(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region list is empty")
}

func TestAggregateSubtotalsSumToTotalWhenAllRegionsKnown(t *testing.T) {
	regions := []string{"North America", "Europe"}
	records := []domain.DemandRecord{
		resolvedRecord("SUS-10001", "North America", 250),
		resolvedRecord("SUS-10001", "Europe", 750),
	}

	aggregates, err := Aggregate(records, regions)
	require.NoError(t, err)
	require.Len(t, aggregates, 1)

	var sum float64
	for _, v := range aggregates[0].Subtotals {
		sum += v
	}
	assert.Equal(t, aggregates[0].Total, sum)
}
