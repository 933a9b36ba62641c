package postgres

import "github.com/poslytics/backend/internal/repository"

// Store bundles the per-entity repositories into the full storage surface.
type Store struct {
	*datasetRepository
	*importLogRepository
	*cogsRepository
	*forecastRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{
		datasetRepository:   NewDatasetRepository(db),
		importLogRepository: NewImportLogRepository(db),
		cogsRepository:      NewCogsRepository(db),
		forecastRepository:  NewForecastRepository(db),
	}
}
