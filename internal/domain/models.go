// internal/domain/models.go
package domain

import "time"

// DemandRow is one raw demand line as reported by a retailer, before any
// matching. Quantity is already annualized by the upstream ingestion step.
type DemandRow struct {
	RecordID  string
	Brand     string
	RawNumber string
	Quantity  float64
	Region    string
	Period    string
}

// RejectedRow is a demand line excluded from aggregation because a required
// field was missing or unparseable. Kept for the rejected-rows report.
type RejectedRow struct {
	SourceFile string
	Line       int
	Reason     string
	Row        DemandRow
}

// CrossEntry asserts that one brand's part number is equivalent to an
// internal SKU. Key is the canonical (normalized) form of that part number.
type CrossEntry struct {
	Brand string
	Key   string
	SKU   string
}

// MappingEntry is one row of the resolved mapping: a canonical key that
// resolves to exactly one brand and internal SKU.
type MappingEntry struct {
	Key   string `db:"canonical_key"`
	Brand string `db:"brand"`
	SKU   string `db:"sku"`
}

// ConflictGroup records a canonical key that matched more than one distinct
// (brand, SKU) pair. Chosen is the entry the tie-break selected; Candidates
// holds every distinct entry, including the chosen one.
type ConflictGroup struct {
	Key        string
	Candidates []CrossEntry
	Chosen     CrossEntry
}

// DemandRecord is a demand row enriched with its canonical key and, when the
// mapping contains the key, the matched brand and internal SKU. An empty SKU
// means no match was found; such rows stay in the relation for gap analysis
// but are excluded from SKU-keyed aggregation.
type DemandRecord struct {
	DemandRow
	Key          string
	MatchedBrand string
	SKU          string
}

// Resolved reports whether the record matched an internal SKU.
func (r DemandRecord) Resolved() bool {
	return r.SKU != ""
}

// RegionalAggregate is the per-SKU demand rollup. Subtotals carries an entry
// only for configured regions that had at least one resolved record; a
// missing entry means "no reported demand", which is distinct from zero.
// Total covers every resolved record for the SKU regardless of region.
type RegionalAggregate struct {
	SKU       string
	Subtotals map[string]float64
	Total     float64
	Rank      int
}

// SalesFigure is the externally supplied internal sales quantity for one
// SKU and region, sourced from the BI tool. Read-only join input.
type SalesFigure struct {
	SKU      string  `db:"sku"`
	Region   string  `db:"region"`
	Quantity float64 `db:"quantity"`
}

// RunStatus tracks the lifecycle of one pipeline invocation.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// PipelineRun is the audit record for a single end-to-end execution.
type PipelineRun struct {
	ID            int64      `db:"id"`
	Status        RunStatus  `db:"status"`
	CatalogPath   string     `db:"catalog_path"`
	DemandFiles   int        `db:"demand_files"`
	DemandRows    int        `db:"demand_rows"`
	RejectedRows  int        `db:"rejected_rows"`
	MatchedRows   int        `db:"matched_rows"`
	MappingKeys   int        `db:"mapping_keys"`
	ConflictKeys  int        `db:"conflict_keys"`
	AggregateRows int        `db:"aggregate_rows"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	ErrorMessage  string     `db:"error_message"`
}

// BenchmarkRow is one SKU/region line of the demand-vs-sales comparison
// served by the API. KPI fields are nil when the metric is undefined for
// the underlying figures (e.g. zero demand).
type BenchmarkRow struct {
	SKU                string   `json:"sku"`
	Region             string   `json:"region"`
	Demand             float64  `json:"demand"`
	Sales              float64  `json:"sales"`
	Rank               int      `json:"rank"`
	LostOpportunityPct *float64 `json:"lost_opportunity_pct"`
	PenetrationRate    *float64 `json:"penetration_rate"`
	FillRatePct        *float64 `json:"fill_rate_pct"`
}

// GapRow is one line of the unmatched-demand report: a canonical key that
// resolved to no internal SKU, with the demand reported against it.
type GapRow struct {
	Key      string  `db:"canonical_key" json:"canonical_key"`
	Brand    string  `db:"brand" json:"brand"`
	Records  int     `db:"records" json:"records"`
	Quantity float64 `db:"quantity" json:"quantity"`
}

// BenchmarkSummary is the cached dashboard payload.
type BenchmarkSummary struct {
	TotalSKUs       int      `json:"total_skus"`
	TotalDemand     float64  `json:"total_demand"`
	TotalSales      float64  `json:"total_sales"`
	MatchedRows     int      `json:"matched_rows"`
	UnmatchedRows   int      `json:"unmatched_rows"`
	ConflictKeys    int      `json:"conflict_keys"`
	CoverageRatio   *float64 `json:"coverage_ratio"`
	GeneratedAtUnix int64    `json:"generated_at_unix"`
}

// BenchmarkFilter narrows API reads over the published relations.
type BenchmarkFilter struct {
	SKUs    []string
	Regions []string
	Limit   int
	Offset  int
}
