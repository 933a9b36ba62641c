package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/poslytics/backend/internal/domain"
)

type importLogRepository struct {
	db *DB
}

func NewImportLogRepository(db *DB) *importLogRepository {
	return &importLogRepository{db: db}
}

// importLogRow flattens the JSONB columns for sqlx scanning.
type importLogRow struct {
	domain.ImportLog
	ErrorsJSON   []byte `db:"errors"`
	WarningsJSON []byte `db:"warnings"`
}

func (r *importLogRepository) CreateImportLog(ctx context.Context, lg *domain.ImportLog) error {
	errorsJSON, err := json.Marshal(emptyIfNilErrors(lg.Errors))
	if err != nil {
		return fmt.Errorf("failed to marshal row errors: %w", err)
	}
	warningsJSON, err := json.Marshal(emptyIfNilStrings(lg.Warnings))
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	err = r.db.QueryRowxContext(ctx, `
		INSERT INTO import_logs (
			dataset_id, file_name, status,
			rows_processed, rows_imported, rows_failed,
			period_start, period_end, errors, warnings, author
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`,
		lg.DatasetID, lg.FileName, lg.Status,
		lg.RowsProcessed, lg.RowsImported, lg.RowsFailed,
		lg.PeriodStart, lg.PeriodEnd, errorsJSON, warningsJSON, lg.Author,
	).Scan(&lg.ID, &lg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert import log: %w", err)
	}
	return nil
}

func (r *importLogRepository) ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	var rows []importLogRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, dataset_id, file_name, status,
			rows_processed, rows_imported, rows_failed,
			period_start, period_end, errors, warnings, author, created_at
		FROM import_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}

	out := make([]*domain.ImportLog, 0, len(rows))
	for i := range rows {
		lg := rows[i].ImportLog
		if err := json.Unmarshal(rows[i].ErrorsJSON, &lg.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row errors of log %d: %w", lg.ID, err)
		}
		if err := json.Unmarshal(rows[i].WarningsJSON, &lg.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings of log %d: %w", lg.ID, err)
		}
		out = append(out, &lg)
	}
	return out, nil
}

func emptyIfNilErrors(v []domain.RowError) []domain.RowError {
	if v == nil {
		return []domain.RowError{}
	}
	return v
}

func emptyIfNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
