// internal/repository/benchmark_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kuvelet/chassisbench/internal/domain"
	"github.com/kuvelet/chassisbench/internal/kpi"
)

// BenchmarkRepository reads the published output relations for the API.
type BenchmarkRepository interface {
	GetAggregates(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.RegionalAggregate, error)
	GetBenchmark(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.BenchmarkRow, error)
	GetConflicts(ctx context.Context, limit, offset int) ([]domain.ConflictGroup, error)
	GetGaps(ctx context.Context, limit int) ([]domain.GapRow, error)
	GetSKUFigures(ctx context.Context) ([]kpi.SKUFigure, error)
	GetSummaryCounts(ctx context.Context) (*domain.BenchmarkSummary, error)
	GetRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error)
}

type benchmarkRepository struct {
	db *sqlx.DB
}

func NewBenchmarkRepository(db *sqlx.DB) BenchmarkRepository {
	return &benchmarkRepository{db: db}
}

func (r *benchmarkRepository) GetAggregates(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.RegionalAggregate, error) {
	query := `
		SELECT sku, total, demand_rank
		FROM regional_aggregates
		WHERE 1=1
	`
	var args []interface{}
	argCounter := 1

	if len(filter.SKUs) > 0 {
		query += fmt.Sprintf(" AND sku = ANY($%d::text[])", argCounter)
		args = append(args, skuArray(filter.SKUs))
		argCounter++
	}

	query += " ORDER BY demand_rank ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, filter.Limit)
		argCounter++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCounter)
		args = append(args, filter.Offset)
	}

	type aggRow struct {
		SKU   string  `db:"sku"`
		Total float64 `db:"total"`
		Rank  int     `db:"demand_rank"`
	}
	var rows []aggRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error getting aggregates: %w", err)
	}
	if len(rows) == 0 {
		return []domain.RegionalAggregate{}, nil
	}

	aggregates := make([]domain.RegionalAggregate, 0, len(rows))
	index := make(map[string]int, len(rows))
	skus := make([]string, 0, len(rows))
	for _, row := range rows {
		index[row.SKU] = len(aggregates)
		skus = append(skus, row.SKU)
		aggregates = append(aggregates, domain.RegionalAggregate{
			SKU:       row.SKU,
			Subtotals: make(map[string]float64),
			Total:     row.Total,
			Rank:      row.Rank,
		})
	}

	type subRow struct {
		SKU      string  `db:"sku"`
		Region   string  `db:"region"`
		Quantity float64 `db:"quantity"`
	}
	var subs []subRow
	subQuery := `SELECT sku, region, quantity FROM regional_subtotals WHERE sku = ANY($1::text[])`
	if err := r.db.SelectContext(ctx, &subs, subQuery, skuArray(skus)); err != nil {
		return nil, fmt.Errorf("error getting subtotals: %w", err)
	}
	for _, sub := range subs {
		if i, ok := index[sub.SKU]; ok {
			aggregates[i].Subtotals[sub.Region] = sub.Quantity
		}
	}

	return aggregates, nil
}

func (r *benchmarkRepository) GetBenchmark(ctx context.Context, filter domain.BenchmarkFilter) ([]domain.BenchmarkRow, error) {
	query := `
		SELECT
			st.sku,
			st.region,
			st.quantity AS demand,
			COALESCE(sf.quantity, 0) AS sales,
			a.demand_rank
		FROM regional_subtotals st
		JOIN regional_aggregates a ON a.sku = st.sku
		LEFT JOIN sales_figures sf ON sf.sku = st.sku AND sf.region = st.region
		WHERE 1=1
	`
	var args []interface{}
	argCounter := 1

	if len(filter.SKUs) > 0 {
		query += fmt.Sprintf(" AND st.sku = ANY($%d::text[])", argCounter)
		args = append(args, skuArray(filter.SKUs))
		argCounter++
	}
	if len(filter.Regions) > 0 {
		query += fmt.Sprintf(" AND st.region = ANY($%d::text[])", argCounter)
		args = append(args, skuArray(filter.Regions))
		argCounter++
	}

	query += " ORDER BY a.demand_rank ASC, st.sku ASC, st.region ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCounter)
		args = append(args, filter.Limit)
		argCounter++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCounter)
		args = append(args, filter.Offset)
	}

	type benchRow struct {
		SKU    string  `db:"sku"`
		Region string  `db:"region"`
		Demand float64 `db:"demand"`
		Sales  float64 `db:"sales"`
		Rank   int     `db:"demand_rank"`
	}
	var rows []benchRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error getting benchmark rows: %w", err)
	}

	out := make([]domain.BenchmarkRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.BenchmarkRow{
			SKU:    row.SKU,
			Region: row.Region,
			Demand: row.Demand,
			Sales:  row.Sales,
			Rank:   row.Rank,
		})
	}
	return out, nil
}

func (r *benchmarkRepository) GetConflicts(ctx context.Context, limit, offset int) ([]domain.ConflictGroup, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT canonical_key, brand, sku, chosen
		FROM mapping_conflicts
		WHERE canonical_key IN (
			SELECT DISTINCT canonical_key
			FROM mapping_conflicts
			ORDER BY canonical_key
			LIMIT $1 OFFSET $2
		)
		ORDER BY canonical_key, brand, sku
	`
	type conflictRow struct {
		Key    string `db:"canonical_key"`
		Brand  string `db:"brand"`
		SKU    string `db:"sku"`
		Chosen bool   `db:"chosen"`
	}
	var rows []conflictRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("error getting conflicts: %w", err)
	}

	var groups []domain.ConflictGroup
	for _, row := range rows {
		entry := domain.CrossEntry{Brand: row.Brand, Key: row.Key, SKU: row.SKU}
		if len(groups) == 0 || groups[len(groups)-1].Key != row.Key {
			groups = append(groups, domain.ConflictGroup{Key: row.Key})
		}
		g := &groups[len(groups)-1]
		g.Candidates = append(g.Candidates, entry)
		if row.Chosen {
			g.Chosen = entry
		}
	}
	return groups, nil
}

func (r *benchmarkRepository) GetGaps(ctx context.Context, limit int) ([]domain.GapRow, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT
			canonical_key,
			MIN(brand) AS brand,
			COUNT(*) AS records,
			SUM(quantity) AS quantity
		FROM demand_records
		WHERE sku IS NULL
		GROUP BY canonical_key
		ORDER BY SUM(quantity) DESC, canonical_key ASC
		LIMIT $1
	`
	var gaps []domain.GapRow
	if err := r.db.SelectContext(ctx, &gaps, query, limit); err != nil {
		return nil, fmt.Errorf("error getting gap report: %w", err)
	}
	return gaps, nil
}

func (r *benchmarkRepository) GetSKUFigures(ctx context.Context) ([]kpi.SKUFigure, error) {
	query := `
		SELECT
			COALESCE(a.sku, sf.sku) AS sku,
			COALESCE(a.total, 0) AS demand,
			COALESCE(sf.sales, 0) AS sales
		FROM regional_aggregates a
		FULL OUTER JOIN (
			SELECT sku, SUM(quantity) AS sales
			FROM sales_figures
			GROUP BY sku
		) sf ON sf.sku = a.sku
	`
	type figureRow struct {
		SKU    string  `db:"sku"`
		Demand float64 `db:"demand"`
		Sales  float64 `db:"sales"`
	}
	var rows []figureRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("error getting SKU figures: %w", err)
	}

	figures := make([]kpi.SKUFigure, 0, len(rows))
	for _, row := range rows {
		figures = append(figures, kpi.SKUFigure{SKU: row.SKU, Demand: row.Demand, Sales: row.Sales})
	}
	return figures, nil
}

func (r *benchmarkRepository) GetSummaryCounts(ctx context.Context) (*domain.BenchmarkSummary, error) {
	summary := &domain.BenchmarkSummary{GeneratedAtUnix: time.Now().Unix()}

	query := `
		SELECT
			(SELECT COUNT(*) FROM regional_aggregates) AS total_skus,
			(SELECT COALESCE(SUM(total), 0) FROM regional_aggregates) AS total_demand,
			(SELECT COALESCE(SUM(quantity), 0) FROM sales_figures) AS total_sales,
			(SELECT COUNT(*) FROM demand_records WHERE sku IS NOT NULL) AS matched_rows,
			(SELECT COUNT(*) FROM demand_records WHERE sku IS NULL) AS unmatched_rows,
			(SELECT COUNT(DISTINCT canonical_key) FROM mapping_conflicts) AS conflict_keys
	`
	row := r.db.QueryRowxContext(ctx, query)
	if err := row.Scan(
		&summary.TotalSKUs,
		&summary.TotalDemand,
		&summary.TotalSales,
		&summary.MatchedRows,
		&summary.UnmatchedRows,
		&summary.ConflictKeys,
	); err != nil {
		if err == sql.ErrNoRows {
			return summary, nil
		}
		return nil, fmt.Errorf("error getting summary counts: %w", err)
	}

	return summary, nil
}

func (r *benchmarkRepository) GetRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, catalog_path, demand_files, demand_rows, rejected_rows,
			matched_rows, mapping_keys, conflict_keys, aggregate_rows,
			started_at, completed_at, error_message
		FROM pipeline_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var runs []domain.PipelineRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("error getting pipeline runs: %w", err)
	}
	return runs, nil
}

// skuArray renders a text[] literal for ANY() filters.
func skuArray(values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`))
	}
	return "{" + strings.Join(escaped, ",") + "}"
}
