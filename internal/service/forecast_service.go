package service

import (
	"context"
	"fmt"
	"time"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/forecast"
	"github.com/poslytics/backend/internal/repository"
)

// ForecastService accepts external model predictions and runs the accuracy
// feedback loop over them.
type ForecastService struct {
	store  repository.Store
	engine *forecast.Engine
}

func NewForecastService(store repository.Store, cfg config.ForecastConfig) *ForecastService {
	return &ForecastService{
		store: store,
		engine: forecast.NewEngine(store, forecast.Config{
			MinSamples:      cfg.MinSamples,
			UsableSamples:   cfg.UsableSamples,
			CleanupEveryNth: cfg.CleanupEveryNth,
		}),
	}
}

// RegisterPrediction stores one model prediction for later reconciliation.
func (s *ForecastService) RegisterPrediction(ctx context.Context, p *domain.ForecastPrediction) error {
	if p.ModelName == "" {
		return fmt.Errorf("model name is required")
	}
	if p.TargetDate.IsZero() {
		return fmt.Errorf("target date is required")
	}
	if p.HorizonDays <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	if p.PredictedRevenue < 0 {
		return fmt.Errorf("predicted revenue must be non-negative")
	}
	return s.store.CreatePrediction(ctx, p)
}

// Reconcile resolves past-dated predictions against actual revenue.
func (s *ForecastService) Reconcile(ctx context.Context) (*domain.ReconcileResult, error) {
	return s.engine.Reconcile(ctx, time.Now().UTC())
}

// Metrics returns accuracy metrics; usableOnly restricts the list to buckets
// with enough samples to be trusted for model selection.
func (s *ForecastService) Metrics(ctx context.Context, usableOnly bool) ([]*domain.ModelAccuracyMetric, error) {
	if usableOnly {
		return s.engine.UsableMetrics(ctx)
	}
	return s.store.ListModelMetrics(ctx, 0)
}
