package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) CreatePrediction(ctx context.Context, p *domain.ForecastPrediction) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO forecast_predictions (model_name, target_date, horizon_days, predicted_revenue)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.ModelName, p.TargetDate, p.HorizonDays, p.PredictedRevenue).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

const predictionColumns = `
	id, model_name, target_date, horizon_days, predicted_revenue,
	actual_revenue, mape, mae, rmse, resolved_at, created_at`

func (r *forecastRepository) ListUnresolvedPredictions(ctx context.Context, before time.Time) ([]*domain.ForecastPrediction, error) {
	var out []*domain.ForecastPrediction
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+predictionColumns+`
		FROM forecast_predictions
		WHERE resolved_at IS NULL AND target_date < $1
		ORDER BY target_date, id
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved predictions: %w", err)
	}
	return out, nil
}

func (r *forecastRepository) ListResolvedPredictions(ctx context.Context, modelName string, weekday, horizonDays int) ([]*domain.ForecastPrediction, error) {
	var out []*domain.ForecastPrediction
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+predictionColumns+`
		FROM forecast_predictions
		WHERE resolved_at IS NOT NULL
			AND model_name = $1
			AND EXTRACT(DOW FROM target_date) = $2
			AND horizon_days = $3
		ORDER BY target_date, id
	`, modelName, weekday, horizonDays)
	if err != nil {
		return nil, fmt.Errorf("failed to list resolved predictions: %w", err)
	}
	return out, nil
}

func (r *forecastRepository) ResolvePrediction(ctx context.Context, p *domain.ForecastPrediction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE forecast_predictions
		SET actual_revenue = $2, mape = $3, mae = $4, rmse = $5, resolved_at = $6
		WHERE id = $1
	`, p.ID, p.ActualRevenue, p.MAPE, p.MAE, p.RMSE, p.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve prediction %d: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("prediction %d: %w", p.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *forecastRepository) UpsertModelMetric(ctx context.Context, m *domain.ModelAccuracyMetric) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO model_accuracy_metrics (
			model_name, weekday, horizon_days,
			median_mape, median_mae, median_rmse, sample_size, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (model_name, weekday, horizon_days) DO UPDATE SET
			median_mape = EXCLUDED.median_mape,
			median_mae = EXCLUDED.median_mae,
			median_rmse = EXCLUDED.median_rmse,
			sample_size = EXCLUDED.sample_size,
			updated_at = EXCLUDED.updated_at
	`, m.ModelName, m.Weekday, m.HorizonDays,
		m.MedianMAPE, m.MedianMAE, m.MedianRMSE, m.SampleSize, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert model metric: %w", err)
	}
	return nil
}

func (r *forecastRepository) ListModelMetrics(ctx context.Context, minSampleSize int) ([]*domain.ModelAccuracyMetric, error) {
	var out []*domain.ModelAccuracyMetric
	err := r.db.SelectContext(ctx, &out, `
		SELECT model_name, weekday, horizon_days,
			median_mape, median_mae, median_rmse, sample_size, updated_at
		FROM model_accuracy_metrics
		WHERE sample_size >= $1
		ORDER BY model_name, weekday, horizon_days
	`, minSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list model metrics: %w", err)
	}
	return out, nil
}

func (r *forecastRepository) DeleteModelMetric(ctx context.Context, modelName string, weekday, horizonDays int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM model_accuracy_metrics
		WHERE model_name = $1 AND weekday = $2 AND horizon_days = $3
	`, modelName, weekday, horizonDays)
	if err != nil {
		return fmt.Errorf("failed to delete model metric: %w", err)
	}
	return nil
}

// DailyRevenueByDate sums net revenue per requested date across all datasets.
func (r *forecastRepository) DailyRevenueByDate(ctx context.Context, dates []time.Time) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(dates) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format(domain.DateKeyLayout))
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT report_date::TEXT AS date,
			SUM(cash_income + cashless_income
				- cash_return - cashless_return
				+ correction_cash + correction_cashless) AS revenue
		FROM profitability_records
		WHERE report_date = ANY($1::date[])
		GROUP BY report_date
	`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var date string
		var revenue float64
		if err := rows.Scan(&date, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily revenue: %w", err)
		}
		out[date] = revenue
	}
	return out, rows.Err()
}
