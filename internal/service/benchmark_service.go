// internal/service/benchmark_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/kuvelet/chassisbench/internal/cache"
	"github.com/kuvelet/chassisbench/internal/domain"
	"github.com/kuvelet/chassisbench/internal/kpi"
	"github.com/kuvelet/chassisbench/internal/repository"
)

// BenchmarkService serves the published relations to the API, attaching the
// reporting-time KPIs. KPI values are never persisted; they are recomputed
// from the current aggregates and the current sales figures on every read.
type BenchmarkService struct {
	repo  repository.BenchmarkRepository
	cache cache.SummaryCache
}

func NewBenchmarkService(repo repository.BenchmarkRepository, cacheImpl cache.SummaryCache) *BenchmarkService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSummaryCache()
	}
	return &BenchmarkService{repo: repo, cache: cacheImpl}
}

func (s *BenchmarkService) GetAggregates(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.RegionalAggregate, error) {
	return s.repo.GetAggregates(ctx, filter)
}

// GetBenchmark returns per-SKU, per-region demand vs sales rows with the
// KPI fields computed. Undefined metrics stay nil.
func (s *BenchmarkService) GetBenchmark(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.BenchmarkRow, error) {
	rows, err := s.repo.GetBenchmark(ctx, filter)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		row := &rows[i]
		if v, ok := kpi.LostOpportunityPct(row.Demand, row.Sales); ok {
			row.LostOpportunityPct = &v
		}
		if v, ok := kpi.PenetrationRate(row.Demand, row.Sales); ok {
			row.PenetrationRate = &v
		}
		if v, ok := kpi.FillRatePct(row.Demand, row.Sales); ok {
			row.FillRatePct = &v
		}
	}
	return rows, nil
}

func (s *BenchmarkService) GetConflicts(ctx context.Context, limit, offset int) ([]domain.ConflictGroup, error) {
	return s.repo.GetConflicts(ctx, limit, offset)
}

func (s *BenchmarkService) GetGaps(ctx context.Context, limit int) ([]domain.GapRow, error) {
	return s.repo.GetGaps(ctx, limit)
}

func (s *BenchmarkService) GetRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	return s.repo.GetRuns(ctx, limit)
}

// GetSummary returns the dashboard summary, cached when a cache is wired.
func (s *BenchmarkService) GetSummary(ctx context.Context) (*domain.BenchmarkSummary, error) {
	if summary, ok, err := s.cache.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("benchmark: cache get summary failed")
	}

	summary, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	figures, err := s.repo.GetSKUFigures(ctx)
	if err != nil {
		return nil, err
	}
	if v, ok := kpi.CoverageRatio(figures); ok {
		summary.CoverageRatio = &v
	}

	if err := s.cache.SetSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Msg("benchmark: cache set summary failed")
	}

	return summary, nil
}

// InvalidateSummary drops the cached summary after a pipeline publish.
func (s *BenchmarkService) InvalidateSummary(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
