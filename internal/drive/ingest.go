package drive

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/pipeline"
)

// Ingestor turns the spreadsheets of a Drive folder into pipeline jobs.
type Ingestor struct {
	drive  *Service
	worker *pipeline.Worker
}

func NewIngestor(drive *Service, worker *pipeline.Worker) *Ingestor {
	return &Ingestor{drive: drive, worker: worker}
}

// SyncFolder downloads every spreadsheet in the folder and imports the whole
// batch. A single bad export shows up in its job result without stopping
// the rest.
func (i *Ingestor) SyncFolder(ctx context.Context, folderID string) ([]pipeline.JobResult, error) {
	files, err := i.drive.ListReports(folderID)
	if err != nil {
		return nil, fmt.Errorf("list drive folder: %w", err)
	}
	if len(files) == 0 {
		log.Info().Str("folder", folderID).Msg("no spreadsheets found in drive folder")
		return nil, nil
	}

	jobs := make([]*pipeline.Job, 0, len(files))
	for _, f := range files {
		data, err := i.drive.Download(f.ID)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", f.Name, err)
		}
		jobs = append(jobs, &pipeline.Job{
			ID:       f.ID,
			FileName: f.Name,
			Data:     data,
		})
	}

	log.Info().Str("folder", folderID).Int("files", len(jobs)).Msg("drive sync started")
	return i.worker.ProcessBatch(ctx, jobs), nil
}
