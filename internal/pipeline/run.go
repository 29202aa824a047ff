// internal/pipeline/run.go
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kuvelet/chassisbench/internal/config"
	"github.com/kuvelet/chassisbench/internal/crossref"
	"github.com/kuvelet/chassisbench/internal/domain"
)

// Runner executes the full benchmark pipeline against the current snapshot
// of the wide catalog and the demand files: normalize, flatten, resolve,
// join, aggregate, then publish. Stages run strictly forward; conflict
// resolution and aggregation are barrier stages that see their whole input
// before emitting anything.
type Runner struct {
	cfg        config.PipelineConfig
	normalizer *crossref.Normalizer
	publisher  Publisher
	tracker    RunTracker
}

// NewRunner builds a runner. publisher and tracker may be nil for CSV-only
// runs (intermediates are still written).
func NewRunner(cfg config.PipelineConfig, publisher Publisher, tracker RunTracker) *Runner {
	return &Runner{
		cfg:        cfg,
		normalizer: crossref.NewNormalizer(cfg.StripChars),
		publisher:  publisher,
		tracker:    tracker,
	}
}

// Run executes one end-to-end pipeline pass. Record-level problems
// (malformed rows, unresolved or ambiguous keys) are reported, not fatal;
// only configuration and I/O errors abort the run. On abort nothing is
// published, so readers keep seeing the previous snapshot.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	run := &domain.PipelineRun{
		Status:      domain.RunRunning,
		CatalogPath: r.cfg.CatalogPath,
		StartedAt:   start,
	}
	if r.tracker != nil {
		if err := r.tracker.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create pipeline run: %w", err)
		}
	}

	res, err := r.execute(ctx, run)
	if r.tracker != nil {
		now := time.Now()
		run.CompletedAt = &now
		if err != nil {
			run.Status = domain.RunFailed
			run.ErrorMessage = err.Error()
		} else {
			run.Status = domain.RunCompleted
		}
		if trackErr := r.tracker.UpdateRun(ctx, run); trackErr != nil {
			log.Error().Err(trackErr).Int64("run_id", run.ID).Msg("failed to update pipeline run")
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("demand_files", res.DemandFiles).
		Int("demand_rows", len(res.Records)).
		Int("rejected_rows", len(res.Rejects)).
		Int("matched_rows", res.MatchedRows).
		Int("mapping_keys", len(res.Mapping)).
		Int("conflict_keys", len(res.Conflicts)).
		Int("aggregates", len(res.Aggregates)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline run completed")

	return res, nil
}

func (r *Runner) execute(ctx context.Context, run *domain.PipelineRun) (*Result, error) {
	// 1) Flatten the wide catalog into cross entries.
	header, catalogRows, err := crossref.LoadCatalog(r.cfg.CatalogPath, r.cfg.SKUColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	brands := crossref.BrandColumnsFromHeader(header, r.cfg.SKUColumn)
	if len(brands) == 0 {
		return nil, fmt.Errorf("catalog %s has no brand columns", r.cfg.CatalogPath)
	}
	entries := crossref.Flatten(catalogRows, brands, r.normalizer)
	log.Info().
		Int("catalog_rows", len(catalogRows)).
		Int("brand_columns", len(brands)).
		Int("cross_entries", len(entries)).
		Msg("catalog flattened")

	// 2) Resolve conflicts once, before any join.
	mapping, conflicts := crossref.Resolve(entries)
	if len(conflicts) > 0 {
		log.Warn().Int("conflict_keys", len(conflicts)).Msg("ambiguous keys resolved by tie-break; see conflicts report")
	}

	// 3) Read demand files in parallel; file order stays deterministic.
	files, err := r.listDemandFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no demand files found in %s", r.cfg.InputDir)
	}

	rows, rejects, err := r.readDemandFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	// 4) Left-outer join demand against the mapping.
	records := Attach(rows, crossref.MappingIndex(mapping), r.normalizer)
	matched := 0
	for _, rec := range records {
		if rec.Resolved() {
			matched++
		}
	}

	// 5) Regional rollup and ranking.
	aggregates, err := Aggregate(records, r.cfg.Regions)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Entries:     entries,
		Mapping:     mapping,
		Conflicts:   conflicts,
		Records:     records,
		Rejects:     rejects,
		Aggregates:  aggregates,
		DemandFiles: len(files),
		MatchedRows: matched,
	}

	run.DemandFiles = len(files)
	run.DemandRows = len(records)
	run.RejectedRows = len(rejects)
	run.MatchedRows = matched
	run.MappingKeys = len(mapping)
	run.ConflictKeys = len(conflicts)
	run.AggregateRows = len(aggregates)

	if r.cfg.PersistIntermediates {
		if err := writeIntermediates(r.cfg.IntermediateDir, r.cfg.Regions, res); err != nil {
			return nil, err
		}
	}

	// 6) Atomic publish: each relation is fully replaced or left untouched.
	if r.publisher != nil {
		if err := r.publisher.ReplaceMapping(ctx, mapping, conflicts); err != nil {
			return nil, fmt.Errorf("failed to publish resolved mapping: %w", err)
		}
		if err := r.publisher.ReplaceDemandRecords(ctx, records, rejects); err != nil {
			return nil, fmt.Errorf("failed to publish demand records: %w", err)
		}
		if err := r.publisher.ReplaceAggregates(ctx, aggregates, r.cfg.Regions); err != nil {
			return nil, fmt.Errorf("failed to publish aggregates: %w", err)
		}
	}

	return res, nil
}

func (r *Runner) listDemandFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.csv", "*.xlsx"} {
		matches, err := filepath.Glob(filepath.Join(r.cfg.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list demand files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// readDemandFiles parses demand files concurrently but collects results in
// file order, so the published demand relation does not depend on worker
// scheduling.
func (r *Runner) readDemandFiles(ctx context.Context, files []string) ([]domain.DemandRow, []domain.RejectedRow, error) {
	type fileResult struct {
		rows    []domain.DemandRow
		rejects []domain.RejectedRow
	}

	results := make([]fileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)

	workers := r.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, rejects, err := ReadDemandFile(file)
			if err != nil {
				return err
			}
			results[i] = fileResult{rows: rows, rejects: rejects}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var rows []domain.DemandRow
	var rejects []domain.RejectedRow
	for _, res := range results {
		rows = append(rows, res.rows...)
		rejects = append(rejects, res.rejects...)
	}
	return rows, rejects, nil
}
