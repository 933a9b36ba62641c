package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository"
	"github.com/poslytics/backend/internal/storage"
)

// ImportService runs the ingestion pipeline: decode, extract, persist,
// archive. Every upload attempt leaves an import log regardless of outcome.
type ImportService struct {
	store     repository.Store
	extractor *parse.Extractor
	archive   storage.ObjectStorage // nil when archiving is disabled

	maxUploadBytes int64
}

func NewImportService(store repository.Store, cfg config.ImportConfig, archive storage.ObjectStorage) *ImportService {
	return &ImportService{
		store:          store,
		extractor:      parse.NewExtractor(parse.Options{MaxChecksPerDay: cfg.MaxChecksPerDay}),
		archive:        archive,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// ImportSales ingests one sales export. Structural failures produce a failed
// import log and a StructuralError; row-level failures and warnings degrade
// the status to partial but never abort the import.
func (s *ImportService) ImportSales(ctx context.Context, fileName string, data []byte, author *string) (*domain.ImportResult, error) {
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		err := &parse.StructuralError{
			Code:    parse.CodeFileTooLarge,
			Message: fmt.Sprintf("file %s exceeds the %d byte limit", fileName, s.maxUploadBytes),
		}
		s.logFailure(ctx, fileName, author, err)
		return nil, err
	}

	extraction, err := s.extract(fileName, data)
	if err != nil {
		s.logFailure(ctx, fileName, author, err)
		return nil, err
	}

	result := &domain.ImportResult{
		RowsProcessed: extraction.RowsProcessed,
		RowsImported:  len(extraction.Records),
		RowsFailed:    extraction.RowsFailed,
		Errors:        extraction.Errors,
		Warnings:      extraction.Warnings,
	}

	if len(extraction.Records) == 0 {
		result.Status = domain.ImportFailed
		s.writeLog(ctx, nil, fileName, author, result, nil, nil)
		return result, nil
	}

	ds := &domain.Dataset{
		Name:        datasetName(fileName, extraction),
		SourceFile:  fileName,
		PeriodStart: extraction.PeriodStart,
		PeriodEnd:   extraction.PeriodEnd,
	}
	if err := s.store.CreateDataset(ctx, ds, extraction.Records); err != nil {
		return nil, fmt.Errorf("persist dataset: %w", err)
	}

	result.DatasetID = &ds.ID
	result.PeriodStart = &ds.PeriodStart
	result.PeriodEnd = &ds.PeriodEnd
	if result.RowsFailed > 0 || len(result.Warnings) > 0 {
		result.Status = domain.ImportPartial
	} else {
		result.Status = domain.ImportSuccess
	}

	s.writeLog(ctx, &ds.ID, fileName, author, result, &ds.PeriodStart, &ds.PeriodEnd)
	s.archiveUpload(ctx, fileName, data)

	log.Info().
		Int64("dataset_id", ds.ID).
		Str("file", fileName).
		Str("status", string(result.Status)).
		Int("records", result.RowsImported).
		Msg("sales import finished")
	return result, nil
}

func (s *ImportService) extract(fileName string, data []byte) (*parse.Extraction, error) {
	sheet, err := parse.DecodeSheet(data, fileName)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(sheet)
}

// ImportCogs ingests a daily cost file: the entries are stored, then merged
// into all existing sales records sharing the date. Cost dates without sales
// surface as warnings in the result.
func (s *ImportService) ImportCogs(ctx context.Context, fileName string, data []byte) (*domain.ImportResult, error) {
	sheet, err := parse.DecodeSheet(data, fileName)
	if err != nil {
		return nil, err
	}

	parsed, err := parse.ParseCogs(sheet)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.CogsDailyEntry, 0, len(parsed.Entries))
	for _, key := range parsed.SortedDates() {
		entries = append(entries, parsed.Entries[key])
	}
	if err := s.store.UpsertCogsDaily(ctx, entries); err != nil {
		return nil, fmt.Errorf("persist cogs entries: %w", err)
	}

	records, err := s.store.ListAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales records: %w", err)
	}

	matched, warnings := parse.MergeCogs(parsed.Entries, records)
	for _, rec := range records {
		if rec.CogsTotal == nil {
			continue
		}
		// Only touch records whose date was in this cost file.
		if _, ok := parsed.Entries[rec.DateKey()]; !ok {
			continue
		}
		if err := s.store.UpdateRecordCogs(ctx, rec.ID, *rec.CogsTotal); err != nil {
			return nil, fmt.Errorf("backfill cogs: %w", err)
		}
	}

	result := &domain.ImportResult{
		Status:        domain.ImportSuccess,
		RowsProcessed: parsed.RowsProcessed,
		RowsImported:  matched,
		RowsFailed:    parsed.RowsFailed,
		Errors:        parsed.Errors,
		Warnings:      append(parsed.Warnings, warnings...),
	}
	if result.RowsFailed > 0 || len(result.Warnings) > 0 {
		result.Status = domain.ImportPartial
	}
	if matched == 0 && len(parsed.Entries) > 0 {
		result.Status = domain.ImportPartial
	}

	log.Info().
		Str("file", fileName).
		Int("days", len(parsed.Entries)).
		Int("matched", matched).
		Msg("cogs import finished")
	return result, nil
}

// ImportLogs lists recent upload attempts, newest first.
func (s *ImportService) ImportLogs(ctx context.Context, limit int) ([]*domain.ImportLog, error) {
	return s.store.ListImportLogs(ctx, limit)
}

func (s *ImportService) writeLog(ctx context.Context, datasetID *int64, fileName string, author *string,
	result *domain.ImportResult, periodStart, periodEnd *time.Time) {
	lg := &domain.ImportLog{
		DatasetID:     datasetID,
		FileName:      fileName,
		Status:        result.Status,
		RowsProcessed: result.RowsProcessed,
		RowsImported:  result.RowsImported,
		RowsFailed:    result.RowsFailed,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Errors:        result.Errors,
		Warnings:      result.Warnings,
		Author:        author,
	}
	if err := s.store.CreateImportLog(ctx, lg); err != nil {
		log.Error().Err(err).Str("file", fileName).Msg("failed to write import log")
	}
}

func (s *ImportService) logFailure(ctx context.Context, fileName string, author *string, cause error) {
	s.writeLog(ctx, nil, fileName, author, &domain.ImportResult{
		Status:   domain.ImportFailed,
		Warnings: []string{cause.Error()},
	}, nil, nil)
}

// archiveUpload keeps the raw spreadsheet in object storage. Best effort: an
// archive outage never fails an import that already persisted.
func (s *ImportService) archiveUpload(ctx context.Context, fileName string, data []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("uploads/%s/%s", time.Now().UTC().Format("2006/01"), filepath.Base(fileName))
	if err := s.archive.UploadObject(ctx, key, data, contentTypeOf(fileName)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive upload")
	}
}

func contentTypeOf(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

func datasetName(fileName string, e *parse.Extraction) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" {
		base = "import"
	}
	return fmt.Sprintf("%s (%s - %s)", base,
		e.PeriodStart.Format(domain.DateKeyLayout), e.PeriodEnd.Format(domain.DateKeyLayout))
}
