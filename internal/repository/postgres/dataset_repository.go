package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/repository"
)

type datasetRepository struct {
	db *DB
}

func NewDatasetRepository(db *DB) *datasetRepository {
	return &datasetRepository{db: db}
}

// CreateDataset writes the dataset and its records in one transaction so a
// failed import never leaves half a dataset behind.
func (r *datasetRepository) CreateDataset(ctx context.Context, ds *domain.Dataset, records []*domain.ProfitabilityRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO datasets (name, source_file, period_start, period_end)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`, ds.Name, ds.SourceFile, ds.PeriodStart, ds.PeriodEnd).Scan(&ds.ID, &ds.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO profitability_records (
				dataset_id, report_date, shift_number,
				income_checks, return_checks, correction_checks,
				cash_income, cashless_income,
				cash_return, cashless_return,
				correction_cash, correction_cashless,
				cogs_total
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			rec.DatasetID = ds.ID
			err := stmt.QueryRowxContext(ctx,
				ds.ID, rec.ReportDate, rec.ShiftNumber,
				rec.IncomeChecks, rec.ReturnChecks, rec.CorrectionChecks,
				rec.CashIncome, rec.CashlessIncome,
				rec.CashReturn, rec.CashlessReturn,
				rec.CorrectionCash, rec.CorrectionCashless,
				rec.CogsTotal,
			).Scan(&rec.ID)
			if err != nil {
				return fmt.Errorf("failed to insert record for %s: %w", rec.DateKey(), err)
			}
		}
		return nil
	})
}

func (r *datasetRepository) GetDataset(ctx context.Context, id int64) (*domain.Dataset, error) {
	var ds domain.Dataset
	err := r.db.GetContext(ctx, &ds, `
		SELECT id, name, source_file, period_start, period_end, created_at
		FROM datasets WHERE id = $1
	`, id)
	if err != nil {
		return nil, mapNoRows(fmt.Errorf("failed to get dataset %d: %w", id, err))
	}
	return &ds, nil
}

func (r *datasetRepository) ListDatasets(ctx context.Context) ([]*domain.Dataset, error) {
	var out []*domain.Dataset
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, source_file, period_start, period_end, created_at
		FROM datasets ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return out, nil
}

const recordColumns = `
	id, dataset_id, report_date, shift_number,
	income_checks, return_checks, correction_checks,
	cash_income, cashless_income, cash_return, cashless_return,
	correction_cash, correction_cashless, cogs_total,
	created_at, updated_at`

func (r *datasetRepository) ListRecords(ctx context.Context, datasetID int64) ([]*domain.ProfitabilityRecord, error) {
	if _, err := r.GetDataset(ctx, datasetID); err != nil {
		return nil, err
	}
	var out []*domain.ProfitabilityRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+recordColumns+`
		FROM profitability_records
		WHERE dataset_id = $1
		ORDER BY report_date, shift_number NULLS FIRST
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records of dataset %d: %w", datasetID, err)
	}
	return out, nil
}

func (r *datasetRepository) ListAllRecords(ctx context.Context) ([]*domain.ProfitabilityRecord, error) {
	var out []*domain.ProfitabilityRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+recordColumns+`
		FROM profitability_records
		ORDER BY report_date, shift_number NULLS FIRST
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return out, nil
}

func (r *datasetRepository) UpdateRecordCogs(ctx context.Context, recordID int64, cogs float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profitability_records
		SET cogs_total = $2, updated_at = NOW()
		WHERE id = $1
	`, recordID, cogs)
	if err != nil {
		return fmt.Errorf("failed to update record %d cogs: %w", recordID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %d: %w", recordID, repository.ErrNotFound)
	}
	return nil
}
