// internal/pipeline/types.go
package pipeline

import (
	"context"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// Result holds every relation a run materialized, for publishing and for
// the run audit record.
type Result struct {
	Entries    []domain.CrossEntry
	Mapping    []domain.MappingEntry
	Conflicts  []domain.ConflictGroup
	Records    []domain.DemandRecord
	Rejects    []domain.RejectedRow
	Aggregates []domain.RegionalAggregate

	DemandFiles int
	MatchedRows int
}

// Publisher persists the three output relations. Each Replace call must be
// all-or-nothing: readers never observe a half-updated relation, and
// re-running against unchanged inputs leaves the tables byte-identical.
type Publisher interface {
	ReplaceMapping(ctx context.Context, mapping []domain.MappingEntry, conflicts []domain.ConflictGroup) error
	ReplaceDemandRecords(ctx context.Context, records []domain.DemandRecord, rejects []domain.RejectedRow) error
	ReplaceAggregates(ctx context.Context, aggregates []domain.RegionalAggregate, regions []string) error
}

// RunTracker records pipeline run lifecycle for audit.
type RunTracker interface {
	CreateRun(ctx context.Context, run *domain.PipelineRun) error
	UpdateRun(ctx context.Context, run *domain.PipelineRun) error
}
