// internal/kpi/kpi.go
package kpi

// Benchmarking metrics over (demand, sales) pairs. All functions are pure and
// recomputed at reporting time from current aggregates and current sales
// figures; nothing here is persisted. Metrics that would divide by zero
// return ok=false ("N/A"), never an error or an infinity.

// LostOpportunityPct is (demand - sales) / demand * 100.
// Undefined when demand is zero.
func LostOpportunityPct(demand, sales float64) (float64, bool) {
	if demand == 0 {
		return 0, false
	}
	return (demand - sales) / demand * 100, true
}

// PenetrationRate is sales / demand, over SKUs the supplier offers.
// Undefined when demand is zero.
func PenetrationRate(demand, sales float64) (float64, bool) {
	if demand == 0 {
		return 0, false
	}
	return sales / demand, true
}

// FillRatePct is sales / min(sales, demand) as a percentage, capped at 100.
// Undefined when both figures are zero; zero sales against positive demand
// is a 0% fill, not N/A.
func FillRatePct(demand, sales float64) (float64, bool) {
	if demand == 0 && sales == 0 {
		return 0, false
	}
	if sales == 0 {
		return 0, true
	}
	floor := sales
	if demand < floor {
		floor = demand
	}
	pct := sales / floor * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// SKUFigure pairs total demand and total sales for one SKU, for the
// coverage computation.
type SKUFigure struct {
	SKU    string
	Demand float64
	Sales  float64
}

// CoverageRatio is |{SKU: sales > 0}| / |{SKU: demand > 0}| over the given
// SKU universe. Undefined when no SKU has demand.
func CoverageRatio(figures []SKUFigure) (float64, bool) {
	var withDemand, withSales int
	for _, f := range figures {
		if f.Demand > 0 {
			withDemand++
		}
		if f.Sales > 0 {
			withSales++
		}
	}
	if withDemand == 0 {
		return 0, false
	}
	return float64(withSales) / float64(withDemand), true
}
