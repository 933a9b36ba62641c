// cmd/importer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/drive"
	"github.com/poslytics/backend/internal/pipeline"
	"github.com/poslytics/backend/internal/repository/postgres"
	"github.com/poslytics/backend/internal/service"
	"github.com/poslytics/backend/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "importer",
		Usage: "import Z-report spreadsheets and maintain forecast accuracy",
		Before: func(c *cli.Context) error {
			cfg := config.Load()
			logger.Init(cfg.Server.LogLevel, true)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "import sales spreadsheets from a directory or file list",
				ArgsUsage: "<path> [<path>...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Usage: "author recorded on the import log"},
				},
				Action: runImport,
			},
			{
				Name:      "cogs",
				Usage:     "import a cost spreadsheet and backfill COGS",
				ArgsUsage: "<file>",
				Action:    runCogs,
			},
			{
				Name:   "reconcile",
				Usage:  "match pending forecasts against actual revenue",
				Action: runReconcile,
			},
			{
				Name:  "drive-sync",
				Usage: "import every spreadsheet from a Google Drive folder",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "folder", Usage: "Drive folder ID, defaults to DRIVE_FOLDER_ID"},
				},
				Action: runDriveSync,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("importer failed")
	}
}

func runImport(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one path is required", 1)
	}

	cfg := config.Load()
	worker, cleanup, err := newWorker(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var author *string
	if v := strings.TrimSpace(c.String("author")); v != "" {
		author = &v
	}

	jobs, err := collectJobs(c.Args().Slice(), author)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return cli.Exit("no spreadsheet files found", 1)
	}

	results := worker.ProcessBatch(c.Context, jobs)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Str("file", res.Job.FileName).Msg("import failed")
			continue
		}
		printResult(res.Job.FileName, res.Result)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(jobs)), 1)
	}
	return nil
}

func runCogs(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one file is required", 1)
	}

	cfg := config.Load()
	imports, cleanup, err := newImportService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	result, err := imports.ImportCogs(c.Context, filepath.Base(path), data)
	if err != nil {
		return err
	}
	printResult(filepath.Base(path), result)
	return nil
}

func runReconcile(c *cli.Context) error {
	cfg := config.Load()
	db, err := postgres.NewCLIDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	forecasts := service.NewForecastService(postgres.NewStore(db), cfg.Forecast)
	result, err := forecasts.Reconcile(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("checked=%d resolved=%d rejected=%d no_actual=%d\n",
		result.Checked, result.Resolved, result.Rejected, result.NoActual)
	return nil
}

func runDriveSync(c *cli.Context) error {
	cfg := config.Load()

	folderID := c.String("folder")
	if folderID == "" {
		folderID = cfg.Drive.FolderID
	}
	if folderID == "" {
		return cli.Exit("no Drive folder configured", 1)
	}
	if cfg.Drive.CredentialsFile == "" {
		return cli.Exit("DRIVE_CREDENTIALS_FILE is not set", 1)
	}

	credentials, err := os.ReadFile(cfg.Drive.CredentialsFile)
	if err != nil {
		return fmt.Errorf("read drive credentials: %w", err)
	}

	driveService, err := drive.NewService(c.Context, credentials)
	if err != nil {
		return err
	}

	worker, cleanup, err := newWorker(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ingestor := drive.NewIngestor(driveService, worker)
	results, err := ingestor.SyncFolder(c.Context, folderID)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Str("file", res.Job.FileName).Msg("import failed")
			continue
		}
		printResult(res.Job.FileName, res.Result)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(results)), 1)
	}
	return nil
}

func newWorker(cfg *config.Config) (*pipeline.Worker, func(), error) {
	imports, cleanup, err := newImportService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewWorker(imports, cache.NewNoopImportStatusCache(), cfg.Import.WorkerCount), cleanup, nil
}

func newImportService(cfg *config.Config) (*service.ImportService, func(), error) {
	db, err := postgres.NewCLIDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	store := postgres.NewStore(db)
	return service.NewImportService(store, cfg.Import, nil), func() { db.Close() }, nil
}

func collectJobs(paths []string, author *string) ([]*pipeline.Job, error) {
	var jobs []*pipeline.Job
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}
			for _, entry := range entries {
				if entry.IsDir() || !isSpreadsheet(entry.Name()) {
					continue
				}
				job, err := jobFromFile(filepath.Join(path, entry.Name()), author)
				if err != nil {
					return nil, err
				}
				jobs = append(jobs, job)
			}
			continue
		}
		job, err := jobFromFile(path, author)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func jobFromFile(path string, author *string) (*pipeline.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return &pipeline.Job{
		ID:       name,
		FileName: name,
		Data:     data,
		Author:   author,
	}, nil
}

func isSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

func printResult(fileName string, result *domain.ImportResult) {
	fmt.Printf("%s: status=%s processed=%d imported=%d failed=%d warnings=%d\n",
		fileName, result.Status, result.RowsProcessed, result.RowsImported,
		result.RowsFailed, len(result.Warnings))
}
