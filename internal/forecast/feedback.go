// Package forecast reconciles stored revenue predictions against actual
// sales and maintains per-bucket model accuracy metrics. It never generates
// predictions itself.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/repository"
)

// leakageThreshold is the relative difference below which a prediction is
// considered to have seen the answer. A model that is reliably within 0.1%
// of daily retail revenue is reading the actuals, not forecasting them.
const leakageThreshold = 0.001

// maxMAPE bounds plausible percentage errors; values beyond it indicate
// corrupt actuals or a unit mismatch rather than a bad forecast.
const maxMAPE = 1000.0

// Accuracy holds the error metrics of one reconciled prediction.
type Accuracy struct {
	MAPE float64
	MAE  float64
	RMSE float64
}

var (
	errLeakage   = errors.New("prediction suspiciously close to actual")
	errZeroDay   = errors.New("actual revenue is zero")
	errOutOfBand = errors.New("error metrics out of plausible range")
)

// ComputeAccuracy derives error metrics for a single prediction and rejects
// samples that would poison the medians.
func ComputeAccuracy(predicted, actual float64) (Accuracy, error) {
	if predicted < 0 || actual < 0 {
		return Accuracy{}, errOutOfBand
	}
	if actual == 0 {
		return Accuracy{}, errZeroDay
	}

	diff := math.Abs(predicted - actual)
	if diff/actual < leakageThreshold {
		return Accuracy{}, errLeakage
	}

	acc := Accuracy{
		MAPE: diff / actual * 100,
		MAE:  diff,
		RMSE: diff,
	}
	if acc.MAPE < 0 || acc.MAPE > maxMAPE {
		return Accuracy{}, errOutOfBand
	}
	return acc, nil
}

type bucket struct {
	model   string
	weekday int
	horizon int
}

// Engine runs the feedback loop: resolve past-dated predictions against
// actual revenue, then refresh the accuracy medians of the touched buckets.
type Engine struct {
	store repository.ForecastStore

	minSamples    int
	usableSamples int
	cleanupEvery  int

	mu      sync.Mutex
	updates int
}

// Config bounds the feedback loop. Zero values fall back to the defaults
// used in production.
type Config struct {
	// MinSamples is how many valid samples a bucket needs before its medians
	// are published.
	MinSamples int
	// UsableSamples is the sample floor a published metric needs before
	// consumers should trust it.
	UsableSamples int
	// CleanupEveryNth triggers a metrics sweep every Nth reconciliation that
	// touched at least one bucket.
	CleanupEveryNth int
}

func (c *Config) applyDefaults() {
	if c.MinSamples <= 0 {
		c.MinSamples = 5
	}
	if c.UsableSamples <= 0 {
		c.UsableSamples = 10
	}
	if c.CleanupEveryNth <= 0 {
		c.CleanupEveryNth = 10
	}
}

func NewEngine(store repository.ForecastStore, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		store:         store,
		minSamples:    cfg.MinSamples,
		usableSamples: cfg.UsableSamples,
		cleanupEvery:  cfg.CleanupEveryNth,
	}
}

// Reconcile resolves every unresolved prediction whose target date lies
// strictly before now, then refreshes the accuracy metrics of the buckets
// that gained samples. Predictions with no matching sales data are left
// unresolved for a later pass.
func (e *Engine) Reconcile(ctx context.Context, now time.Time) (*domain.ReconcileResult, error) {
	cutoff := dayOf(now)
	pending, err := e.store.ListUnresolvedPredictions(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list unresolved predictions: %w", err)
	}

	res := &domain.ReconcileResult{Checked: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	dates := make([]time.Time, 0, len(pending))
	for _, p := range pending {
		dates = append(dates, p.TargetDate)
	}
	revenue, err := e.store.DailyRevenueByDate(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("load actual revenue: %w", err)
	}

	touched := make(map[bucket]struct{})
	resolvedAt := now.UTC()

	for _, p := range pending {
		actual, ok := revenue[p.TargetDate.Format(domain.DateKeyLayout)]
		if !ok {
			res.NoActual++
			continue
		}

		p.ActualRevenue = &actual
		p.ResolvedAt = &resolvedAt

		acc, accErr := ComputeAccuracy(p.PredictedRevenue, actual)
		if accErr != nil {
			// Resolved with actuals but without metrics: the sample is
			// excluded from the medians and never re-examined.
			log.Warn().
				Str("model", p.ModelName).
				Str("target_date", p.TargetDate.Format(domain.DateKeyLayout)).
				Float64("predicted", p.PredictedRevenue).
				Float64("actual", actual).
				Err(accErr).
				Msg("prediction rejected during reconciliation")
			res.Rejected++
		} else {
			p.MAPE = &acc.MAPE
			p.MAE = &acc.MAE
			p.RMSE = &acc.RMSE
			res.Resolved++
			touched[bucket{
				model:   p.ModelName,
				weekday: int(p.TargetDate.Weekday()),
				horizon: p.HorizonDays,
			}] = struct{}{}
		}

		if err := e.store.ResolvePrediction(ctx, p); err != nil {
			return nil, fmt.Errorf("resolve prediction %d: %w", p.ID, err)
		}
	}

	for b := range touched {
		if err := e.refreshBucket(ctx, b, resolvedAt); err != nil {
			return nil, err
		}
	}

	if len(touched) > 0 {
		if err := e.maybeCleanup(ctx); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("checked", res.Checked).
		Int("resolved", res.Resolved).
		Int("rejected", res.Rejected).
		Int("no_actual", res.NoActual).
		Msg("forecast reconciliation complete")
	return res, nil
}

// refreshBucket recomputes the medians of one (model, weekday, horizon)
// bucket from all of its valid resolved samples.
func (e *Engine) refreshBucket(ctx context.Context, b bucket, now time.Time) error {
	samples, err := e.store.ListResolvedPredictions(ctx, b.model, b.weekday, b.horizon)
	if err != nil {
		return fmt.Errorf("list resolved predictions: %w", err)
	}

	var mapes, maes, rmses []float64
	for _, p := range samples {
		if p.MAPE == nil || p.MAE == nil || p.RMSE == nil {
			continue
		}
		mapes = append(mapes, *p.MAPE)
		maes = append(maes, *p.MAE)
		rmses = append(rmses, *p.RMSE)
	}

	if len(mapes) < e.minSamples {
		return nil
	}

	m := &domain.ModelAccuracyMetric{
		ModelName:   b.model,
		Weekday:     b.weekday,
		HorizonDays: b.horizon,
		MedianMAPE:  median(mapes),
		MedianMAE:   median(maes),
		MedianRMSE:  median(rmses),
		SampleSize:  len(mapes),
		UpdatedAt:   now,
	}
	if err := e.store.UpsertModelMetric(ctx, m); err != nil {
		return fmt.Errorf("upsert model metric: %w", err)
	}
	return nil
}

// maybeCleanup sweeps metrics whose buckets have fallen below the publish
// floor. It runs on every Nth metric-touching reconciliation, counted, so
// the sweep cadence is deterministic.
func (e *Engine) maybeCleanup(ctx context.Context) error {
	e.mu.Lock()
	e.updates++
	due := e.updates%e.cleanupEvery == 0
	e.mu.Unlock()
	if !due {
		return nil
	}

	metrics, err := e.store.ListModelMetrics(ctx, 0)
	if err != nil {
		return fmt.Errorf("list model metrics: %w", err)
	}
	removed := 0
	for _, m := range metrics {
		if m.SampleSize >= e.minSamples {
			continue
		}
		if err := e.store.DeleteModelMetric(ctx, m.ModelName, m.Weekday, m.HorizonDays); err != nil {
			return fmt.Errorf("delete model metric: %w", err)
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("swept underpopulated accuracy metrics")
	}
	return nil
}

// UsableMetrics returns the accuracy metrics trustworthy enough for model
// selection: buckets at or above the usable sample floor.
func (e *Engine) UsableMetrics(ctx context.Context) ([]*domain.ModelAccuracyMetric, error) {
	return e.store.ListModelMetrics(ctx, e.usableSamples)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
