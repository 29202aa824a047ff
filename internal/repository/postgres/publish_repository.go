// internal/repository/postgres/publish_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/kuvelet/chassisbench/internal/domain"
)

// PublishRepository persists pipeline output relations. Every Replace call
// rebuilds its tables inside one transaction (delete then bulk insert), so
// readers either see the previous snapshot or the new one, never a mix, and
// re-running the pipeline on unchanged inputs leaves identical contents.
type PublishRepository struct {
	db *DB
}

func NewPublishRepository(db *DB) *PublishRepository {
	return &PublishRepository{db: db}
}

func (r *PublishRepository) ReplaceMapping(ctx context.Context, mapping []domain.MappingEntry, conflicts []domain.ConflictGroup) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM resolved_mapping`); err != nil {
			return fmt.Errorf("failed to clear resolved_mapping: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM mapping_conflicts`); err != nil {
			return fmt.Errorf("failed to clear mapping_conflicts: %w", err)
		}

		mappingRows := make([][]interface{}, 0, len(mapping))
		for _, m := range mapping {
			mappingRows = append(mappingRows, []interface{}{m.Key, m.Brand, m.SKU})
		}
		if err := insertBatch(ctx, tx, "resolved_mapping",
			[]string{"canonical_key", "brand", "sku"}, mappingRows); err != nil {
			return err
		}

		var conflictRows [][]interface{}
		for _, c := range conflicts {
			for _, cand := range c.Candidates {
				conflictRows = append(conflictRows, []interface{}{
					c.Key, cand.Brand, cand.SKU, cand == c.Chosen,
				})
			}
		}
		return insertBatch(ctx, tx, "mapping_conflicts",
			[]string{"canonical_key", "brand", "sku", "chosen"}, conflictRows)
	})
}

func (r *PublishRepository) ReplaceDemandRecords(ctx context.Context, records []domain.DemandRecord, rejects []domain.RejectedRow) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM demand_records`); err != nil {
			return fmt.Errorf("failed to clear demand_records: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rejected_rows`); err != nil {
			return fmt.Errorf("failed to clear rejected_rows: %w", err)
		}

		recordRows := make([][]interface{}, 0, len(records))
		for _, rec := range records {
			recordRows = append(recordRows, []interface{}{
				rec.RecordID, rec.Brand, rec.RawNumber, rec.Key,
				nullIfEmpty(rec.MatchedBrand), nullIfEmpty(rec.SKU),
				rec.Quantity, rec.Region, rec.Period,
			})
		}
		if err := insertBatch(ctx, tx, "demand_records",
			[]string{"record_id", "brand", "part_number", "canonical_key", "matched_brand", "sku", "quantity", "region", "period"},
			recordRows); err != nil {
			return err
		}

		rejectRows := make([][]interface{}, 0, len(rejects))
		for _, rej := range rejects {
			rejectRows = append(rejectRows, []interface{}{
				rej.SourceFile, rej.Line, rej.Reason,
				rej.Row.RecordID, rej.Row.Brand, rej.Row.RawNumber, rej.Row.Region,
			})
		}
		return insertBatch(ctx, tx, "rejected_rows",
			[]string{"source_file", "line", "reason", "record_id", "brand", "part_number", "region"},
			rejectRows)
	})
}

func (r *PublishRepository) ReplaceAggregates(ctx context.Context, aggregates []domain.RegionalAggregate, regions []string) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM regional_aggregates`); err != nil {
			return fmt.Errorf("failed to clear regional_aggregates: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM regional_subtotals`); err != nil {
			return fmt.Errorf("failed to clear regional_subtotals: %w", err)
		}

		aggRows := make([][]interface{}, 0, len(aggregates))
		var subtotalRows [][]interface{}
		for _, agg := range aggregates {
			aggRows = append(aggRows, []interface{}{agg.SKU, agg.Total, agg.Rank})
			// Only configured regions with reported demand get a subtotal row.
			for _, region := range regions {
				if qty, ok := agg.Subtotals[region]; ok {
					subtotalRows = append(subtotalRows, []interface{}{agg.SKU, region, qty})
				}
			}
		}

		if err := insertBatch(ctx, tx, "regional_aggregates",
			[]string{"sku", "total", "demand_rank"}, aggRows); err != nil {
			return err
		}
		return insertBatch(ctx, tx, "regional_subtotals",
			[]string{"sku", "region", "quantity"}, subtotalRows)
	})
}

func (r *PublishRepository) CreateRun(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (status, catalog_path, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, run.Status, run.CatalogPath, run.StartedAt).Scan(&run.ID); err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

func (r *PublishRepository) UpdateRun(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		UPDATE pipeline_runs SET
			status = $1,
			demand_files = $2,
			demand_rows = $3,
			rejected_rows = $4,
			matched_rows = $5,
			mapping_keys = $6,
			conflict_keys = $7,
			aggregate_rows = $8,
			completed_at = $9,
			error_message = $10
		WHERE id = $11
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Status, run.DemandFiles, run.DemandRows, run.RejectedRows,
		run.MatchedRows, run.MappingKeys, run.ConflictKeys, run.AggregateRows,
		run.CompletedAt, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	return nil
}

// insertBatch bulk-inserts rows in chunks small enough to stay under the
// Postgres placeholder limit.
func insertBatch(ctx context.Context, tx *sqlx.Tx, table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	const maxRowsPerStmt = 1000
	for start := 0; start < len(rows); start += maxRowsPerStmt {
		end := start + maxRowsPerStmt
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		placeholders := make([]string, 0, len(chunk))
		args := make([]interface{}, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			marks := make([]string, len(columns))
			for j := range columns {
				marks[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
			}
			placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
			args = append(args, row...)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return nil
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
