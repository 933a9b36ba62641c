// Package repository defines the storage contracts of the service. Postgres
// implements them for production; an in-memory variant backs tests and the
// CLI's dry-run mode.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/poslytics/backend/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DatasetStore persists datasets and their records. A dataset and its
// records are written atomically; records are immutable afterwards except
// for cost backfill.
type DatasetStore interface {
	CreateDataset(ctx context.Context, ds *domain.Dataset, records []*domain.ProfitabilityRecord) error
	GetDataset(ctx context.Context, id int64) (*domain.Dataset, error)
	ListDatasets(ctx context.Context) ([]*domain.Dataset, error)
	ListRecords(ctx context.Context, datasetID int64) ([]*domain.ProfitabilityRecord, error)
	ListAllRecords(ctx context.Context) ([]*domain.ProfitabilityRecord, error)
	UpdateRecordCogs(ctx context.Context, recordID int64, cogs float64) error
}

// ImportLogStore is the append-only audit trail of upload attempts.
type ImportLogStore interface {
	CreateImportLog(ctx context.Context, lg *domain.ImportLog) error
	ListImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error)
}

// CogsStore persists daily cost-of-goods entries keyed by date.
type CogsStore interface {
	UpsertCogsDaily(ctx context.Context, entries []*domain.CogsDailyEntry) error
	ListCogsDaily(ctx context.Context, from, to time.Time) ([]*domain.CogsDailyEntry, error)
}

// ForecastStore persists predictions and the per-bucket accuracy metrics
// derived from them.
type ForecastStore interface {
	CreatePrediction(ctx context.Context, p *domain.ForecastPrediction) error
	// ListUnresolvedPredictions returns predictions whose target date is
	// strictly before the cutoff and that have not been reconciled yet.
	ListUnresolvedPredictions(ctx context.Context, before time.Time) ([]*domain.ForecastPrediction, error)
	ListResolvedPredictions(ctx context.Context, modelName string, weekday, horizonDays int) ([]*domain.ForecastPrediction, error)
	ResolvePrediction(ctx context.Context, p *domain.ForecastPrediction) error
	UpsertModelMetric(ctx context.Context, m *domain.ModelAccuracyMetric) error
	// ListModelMetrics returns metrics with SampleSize >= minSampleSize;
	// zero means all.
	ListModelMetrics(ctx context.Context, minSampleSize int) ([]*domain.ModelAccuracyMetric, error)
	DeleteModelMetric(ctx context.Context, modelName string, weekday, horizonDays int) error
	// DailyRevenueByDate sums net revenue per date key across all datasets.
	DailyRevenueByDate(ctx context.Context, dates []time.Time) (map[string]float64, error)
}

// Store is the full storage surface the services depend on.
type Store interface {
	DatasetStore
	ImportLogStore
	CogsStore
	ForecastStore
}
