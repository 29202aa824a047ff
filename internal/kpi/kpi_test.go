package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLostOpportunityPct(t *testing.T) {
	got, ok := LostOpportunityPct(12000, 4200)
	require.True(t, ok)
	assert.InDelta(t, 65.0, got, 1e-9)

	// Sales above demand goes negative rather than clamping.
	got, ok = LostOpportunityPct(100, 150)
	require.True(t, ok)
	assert.InDelta(t, -50.0, got, 1e-9)

	_, ok = LostOpportunityPct(0, 500)
	assert.False(t, ok, "zero demand is N/A, not an error")
}

func TestPenetrationRate(t *testing.T) {
	got, ok := PenetrationRate(2000, 500)
	require.True(t, ok)
	assert.InDelta(t, 0.25, got, 1e-9)

	_, ok = PenetrationRate(0, 0)
	assert.False(t, ok)
}

func TestFillRatePct(t *testing.T) {
	tests := []struct {
		name   string
		demand float64
		sales  float64
		want   float64
		ok     bool
	}{
		{"sales below demand", 100, 40, 100, true},
		{"sales above demand capped", 100, 150, 100, true},
		{"zero sales positive demand", 100, 0, 0, true},
		{"both zero undefined", 0, 0, 0, false},
		{"sales without demand capped", 0, 80, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FillRatePct(tt.demand, tt.sales)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCoverageRatio(t *testing.T) {
	figures := []SKUFigure{
		{SKU: "SUS-1", Demand: 100, Sales: 40},
		{SKU: "SUS-2", Demand: 200, Sales: 0},
		{SKU: "SUS-3", Demand: 50, Sales: 10},
		{SKU: "SUS-4", Demand: 0, Sales: 0},
	}

	got, ok := CoverageRatio(figures)
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, got, 1e-9)
}

func TestCoverageRatioNoDemand(t *testing.T) {
	_, ok := CoverageRatio([]SKUFigure{{SKU: "SUS-1", Sales: 5}})
	assert.False(t, ok)

	_, ok = CoverageRatio(nil)
	assert.False(t, ok)
}
