// Package memory is an in-process implementation of the repository
// contracts. It backs tests and the importer's dry-run mode; it is not safe
// to share across processes and never persists anything.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	datasets map[int64]*domain.Dataset
	records  map[int64][]*domain.ProfitabilityRecord // keyed by dataset ID
	logs     []*domain.ImportLog
	cogs     map[string]*domain.CogsDailyEntry // keyed by date key

	predictions map[int64]*domain.ForecastPrediction
	metrics     map[string]*domain.ModelAccuracyMetric

	nextDatasetID    int64
	nextRecordID     int64
	nextLogID        int64
	nextPredictionID int64
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		datasets:    make(map[int64]*domain.Dataset),
		records:     make(map[int64][]*domain.ProfitabilityRecord),
		cogs:        make(map[string]*domain.CogsDailyEntry),
		predictions: make(map[int64]*domain.ForecastPrediction),
		metrics:     make(map[string]*domain.ModelAccuracyMetric),
	}
}

func (s *Store) CreateDataset(_ context.Context, ds *domain.Dataset, records []*domain.ProfitabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDatasetID++
	ds.ID = s.nextDatasetID
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now().UTC()
	}
	s.datasets[ds.ID] = ds

	for _, r := range records {
		s.nextRecordID++
		r.ID = s.nextRecordID
		r.DatasetID = ds.ID
		r.CreatedAt = ds.CreatedAt
		r.UpdatedAt = ds.CreatedAt
	}
	s.records[ds.ID] = records
	return nil
}

func (s *Store) GetDataset(_ context.Context, id int64) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ds, nil
}

func (s *Store) ListDatasets(_ context.Context) ([]*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListRecords(_ context.Context, datasetID int64) ([]*domain.ProfitabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.datasets[datasetID]; !ok {
		return nil, repository.ErrNotFound
	}
	return append([]*domain.ProfitabilityRecord(nil), s.records[datasetID]...), nil
}

func (s *Store) ListAllRecords(_ context.Context) ([]*domain.ProfitabilityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ProfitabilityRecord
	for _, recs := range s.records {
		out = append(out, recs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateRecordCogs(_ context.Context, recordID int64, cogs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, recs := range s.records {
		for _, r := range recs {
			if r.ID == recordID {
				v := cogs
				r.CogsTotal = &v
				r.UpdatedAt = time.Now().UTC()
				return nil
			}
		}
	}
	return repository.ErrNotFound
}

func (s *Store) CreateImportLog(_ context.Context, lg *domain.ImportLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogID++
	lg.ID = s.nextLogID
	if lg.CreatedAt.IsZero() {
		lg.CreatedAt = time.Now().UTC()
	}
	s.logs = append(s.logs, lg)
	return nil
}

func (s *Store) ListImportLogs(_ context.Context, limit int) ([]*domain.ImportLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]*domain.ImportLog(nil), s.logs...)
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertCogsDaily(_ context.Context, entries []*domain.CogsDailyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.cogs[e.Date.Format(domain.DateKeyLayout)] = e
	}
	return nil
}

func (s *Store) ListCogsDaily(_ context.Context, from, to time.Time) ([]*domain.CogsDailyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.CogsDailyEntry
	for _, e := range s.cogs {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) CreatePrediction(_ context.Context, p *domain.ForecastPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPredictionID++
	p.ID = s.nextPredictionID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.predictions[p.ID] = p
	return nil
}

func (s *Store) ListUnresolvedPredictions(_ context.Context, before time.Time) ([]*domain.ForecastPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ForecastPrediction
	for _, p := range s.predictions {
		if p.Resolved() || !p.TargetDate.Before(before) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListResolvedPredictions(_ context.Context, modelName string, weekday, horizonDays int) ([]*domain.ForecastPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ForecastPrediction
	for _, p := range s.predictions {
		if !p.Resolved() || p.ModelName != modelName ||
			int(p.TargetDate.Weekday()) != weekday || p.HorizonDays != horizonDays {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ResolvePrediction(_ context.Context, p *domain.ForecastPrediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.predictions[p.ID]; !ok {
		return repository.ErrNotFound
	}
	s.predictions[p.ID] = p
	return nil
}

func (s *Store) UpsertModelMetric(_ context.Context, m *domain.ModelAccuracyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[metricKey(m.ModelName, m.Weekday, m.HorizonDays)] = m
	return nil
}

func (s *Store) ListModelMetrics(_ context.Context, minSampleSize int) ([]*domain.ModelAccuracyMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ModelAccuracyMetric
	for _, m := range s.metrics {
		if m.SampleSize < minSampleSize {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return metricKey(out[i].ModelName, out[i].Weekday, out[i].HorizonDays) <
			metricKey(out[j].ModelName, out[j].Weekday, out[j].HorizonDays)
	})
	return out, nil
}

func (s *Store) DeleteModelMetric(_ context.Context, modelName string, weekday, horizonDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.metrics, metricKey(modelName, weekday, horizonDays))
	return nil
}

func (s *Store) DailyRevenueByDate(_ context.Context, dates []time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d.Format(domain.DateKeyLayout)] = true
	}

	out := make(map[string]float64)
	for _, recs := range s.records {
		for _, r := range recs {
			key := r.DateKey()
			if wanted[key] {
				out[key] += r.NetRevenue()
			}
		}
	}
	return out, nil
}

func metricKey(model string, weekday, horizon int) string {
	return fmt.Sprintf("%s#%d#%d", model, weekday, horizon)
}
