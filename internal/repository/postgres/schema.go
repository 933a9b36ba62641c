package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	source_file TEXT NOT NULL DEFAULT '',
	period_start DATE NOT NULL,
	period_end DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profitability_records (
	id BIGSERIAL PRIMARY KEY,
	dataset_id BIGINT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	report_date DATE NOT NULL,
	shift_number INT,
	income_checks INT NOT NULL DEFAULT 0,
	return_checks INT NOT NULL DEFAULT 0,
	correction_checks INT NOT NULL DEFAULT 0,
	cash_income DOUBLE PRECISION NOT NULL DEFAULT 0,
	cashless_income DOUBLE PRECISION NOT NULL DEFAULT 0,
	cash_return DOUBLE PRECISION NOT NULL DEFAULT 0,
	cashless_return DOUBLE PRECISION NOT NULL DEFAULT 0,
	correction_cash DOUBLE PRECISION NOT NULL DEFAULT 0,
	correction_cashless DOUBLE PRECISION NOT NULL DEFAULT 0,
	cogs_total DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_records_dataset ON profitability_records(dataset_id);
CREATE INDEX IF NOT EXISTS idx_records_date ON profitability_records(report_date);

CREATE TABLE IF NOT EXISTS import_logs (
	id BIGSERIAL PRIMARY KEY,
	dataset_id BIGINT REFERENCES datasets(id) ON DELETE SET NULL,
	file_name TEXT NOT NULL,
	status TEXT NOT NULL,
	rows_processed INT NOT NULL DEFAULT 0,
	rows_imported INT NOT NULL DEFAULT 0,
	rows_failed INT NOT NULL DEFAULT 0,
	period_start DATE,
	period_end DATE,
	errors JSONB NOT NULL DEFAULT '[]',
	warnings JSONB NOT NULL DEFAULT '[]',
	author TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cogs_daily (
	date DATE PRIMARY KEY,
	total DOUBLE PRECISION NOT NULL,
	items JSONB NOT NULL DEFAULT '[]',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS forecast_predictions (
	id BIGSERIAL PRIMARY KEY,
	model_name TEXT NOT NULL,
	target_date DATE NOT NULL,
	horizon_days INT NOT NULL,
	predicted_revenue DOUBLE PRECISION NOT NULL,
	actual_revenue DOUBLE PRECISION,
	mape DOUBLE PRECISION,
	mae DOUBLE PRECISION,
	rmse DOUBLE PRECISION,
	resolved_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_predictions_unresolved
	ON forecast_predictions(target_date) WHERE resolved_at IS NULL;

CREATE TABLE IF NOT EXISTS model_accuracy_metrics (
	model_name TEXT NOT NULL,
	weekday INT NOT NULL,
	horizon_days INT NOT NULL,
	median_mape DOUBLE PRECISION NOT NULL,
	median_mae DOUBLE PRECISION NOT NULL,
	median_rmse DOUBLE PRECISION NOT NULL,
	sample_size INT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (model_name, weekday, horizon_days)
);
`

// Migrate applies the idempotent schema.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
