package service

import (
	"context"
	"fmt"

	"github.com/poslytics/backend/internal/analytics"
	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository"
)

// AnalyticsService derives reporting views from stored records. Everything
// is recomputed per request; no aggregate is ever cached or persisted.
type AnalyticsService struct {
	store    repository.Store
	products *analytics.ProductAnalyzer
}

func NewAnalyticsService(store repository.Store, cfg config.ImportConfig) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		products: analytics.NewProductAnalyzer(cfg.MinProductVolume),
	}
}

// datasetPeriod resolves the requested period, defaulting to the dataset's
// own bounds.
func datasetPeriod(ds *domain.Dataset, period *domain.Period) domain.Period {
	if period != nil {
		return *period
	}
	return domain.Period{From: ds.PeriodStart, To: ds.PeriodEnd}
}

// Analytics builds the full dashboard view of one dataset: period KPIs with
// growth versus the preceding window, the daily series and the record table.
func (s *AnalyticsService) Analytics(ctx context.Context, datasetID int64, period *domain.Period) (*domain.ProfitabilityAnalyticsResponse, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	p := datasetPeriod(ds, period)
	current := analytics.FilterByPeriod(records, p)

	kpi := analytics.BuildKPI(current)
	previous := analytics.BuildKPI(analytics.FilterByPeriod(records, analytics.PreviousPeriod(p)))
	kpi.Growth = analytics.Growth(kpi.NetRevenue, previous.NetRevenue)

	return &domain.ProfitabilityAnalyticsResponse{
		Dataset: ds,
		Period:  p,
		KPI:     kpi,
		Daily:   analytics.BuildDaily(current),
		Table:   analytics.BuildTable(current),
	}, nil
}

// Summary returns period KPIs plus the preceding equal-length period.
func (s *AnalyticsService) Summary(ctx context.Context, datasetID int64, period *domain.Period) (*domain.ProfitabilitySummaryResponse, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	p := datasetPeriod(ds, period)
	kpi := analytics.BuildKPI(analytics.FilterByPeriod(records, p))
	prev := analytics.BuildKPI(analytics.FilterByPeriod(records, analytics.PreviousPeriod(p)))
	kpi.Growth = analytics.Growth(kpi.NetRevenue, prev.NetRevenue)

	resp := &domain.ProfitabilitySummaryResponse{Period: p, KPI: kpi}
	if prev.GrossRevenue > 0 || prev.Checks > 0 {
		resp.Previous = &prev
	}
	return resp, nil
}

// Series returns the daily aggregates with moving averages.
func (s *AnalyticsService) Series(ctx context.Context, datasetID int64, period *domain.Period) (*domain.ProfitabilitySeriesResponse, error) {
	ds, err := s.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListRecords(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	p := datasetPeriod(ds, period)
	return &domain.ProfitabilitySeriesResponse{
		Period: p,
		Daily:  analytics.BuildDaily(analytics.FilterByPeriod(records, p)),
	}, nil
}

// Datasets lists all imported datasets.
func (s *AnalyticsService) Datasets(ctx context.Context) ([]*domain.Dataset, error) {
	return s.store.ListDatasets(ctx)
}

// TopProducts re-parses a detailed export at line-item granularity and ranks
// products. Only detailed layouts qualify: summary exports carry no product
// information.
func (s *AnalyticsService) TopProducts(fileName string, data []byte) (*domain.TopProductsResponse, error) {
	sheet, err := parse.DecodeSheet(data, fileName)
	if err != nil {
		return nil, err
	}

	lines, err := parse.ExtractLineItems(sheet)
	if err != nil {
		return nil, &parse.StructuralError{
			Code:    parse.CodeHeaderMismatch,
			Message: fmt.Sprintf("%s is not a detailed per-item export", fileName),
			Err:     err,
		}
	}

	resp := s.products.Analyze(lines.Items)
	resp.Warnings = append(resp.Warnings, lines.Warnings...)
	return resp, nil
}
