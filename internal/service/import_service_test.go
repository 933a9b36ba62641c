package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository/memory"
)

const salesCSV = `Дата;Смена;Чеки прихода;Приход наличными;Приход безналичными
01.01.2023;1;10;1000;2000
02.01.2023;1;8;800;900
03.01.2023;1;5;500;700
`

const salesCSVWithBadRow = `Дата;Смена;Чеки прихода;Приход наличными;Приход безналичными
01.01.2023;1;10;1000;2000
мусор;1;8;800;900
`

const cogsCSV = `Дата;Себестоимость
01.01.2023;1200
02.01.2023;700
09.01.2023;500
`

func newImportService(t *testing.T) (*ImportService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewImportService(store, config.ImportConfig{
		MaxUploadBytes:  1 << 20,
		MaxChecksPerDay: 10000,
	}, nil)
	return svc, store
}

func TestImportSalesSuccess(t *testing.T) {
	ctx := context.Background()
	svc, store := newImportService(t)

	res, err := svc.ImportSales(ctx, "january.csv", []byte(salesCSV), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportSuccess, res.Status)
	assert.Equal(t, 3, res.RowsProcessed)
	assert.Equal(t, 3, res.RowsImported)
	assert.Zero(t, res.RowsFailed)
	require.NotNil(t, res.DatasetID)

	ds, err := store.GetDataset(ctx, *res.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, "january.csv", ds.SourceFile)
	assert.Equal(t, "2023-01-01", ds.PeriodStart.Format(domain.DateKeyLayout))
	assert.Equal(t, "2023-01-03", ds.PeriodEnd.Format(domain.DateKeyLayout))

	logs, err := store.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ImportSuccess, logs[0].Status)
	require.NotNil(t, logs[0].DatasetID)
	assert.Equal(t, ds.ID, *logs[0].DatasetID)
}

func TestImportSalesPartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := newImportService(t)

	res, err := svc.ImportSales(ctx, "january.csv", []byte(salesCSVWithBadRow), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportPartial, res.Status)
	assert.Equal(t, 2, res.RowsProcessed)
	assert.Equal(t, 1, res.RowsImported)
	assert.Equal(t, 1, res.RowsFailed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].RowNumber)
}

func TestImportSalesWarningsDegradeStatus(t *testing.T) {
	ctx := context.Background()
	svc, _ := newImportService(t)

	const dupCSV = `Дата;Смена;Чеки прихода;Приход наличными;Приход безналичными
01.01.2023;1;10;1000;2000
01.01.2023;1;12;1100;2100
`
	res, err := svc.ImportSales(ctx, "january.csv", []byte(dupCSV), nil)
	require.NoError(t, err)

	// No row failed, but the overwritten duplicate leaves a warning and
	// success means a clean import.
	assert.Equal(t, domain.ImportPartial, res.Status)
	assert.Zero(t, res.RowsFailed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "2023-01-01#1")
	require.NotNil(t, res.DatasetID)
}

func TestImportSalesStructuralFailure(t *testing.T) {
	ctx := context.Background()
	svc, store := newImportService(t)

	_, err := svc.ImportSales(ctx, "stock.csv", []byte("Склад;Остаток\nГлавный;10\n"), nil)
	require.Error(t, err)
	assert.True(t, parse.IsStructural(err))

	// The failed attempt is still on record.
	logs, err := store.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ImportFailed, logs[0].Status)
	assert.Nil(t, logs[0].DatasetID)
}

func TestImportSalesFileTooLarge(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewImportService(store, config.ImportConfig{MaxUploadBytes: 16}, nil)

	_, err := svc.ImportSales(ctx, "big.csv", []byte(salesCSV), nil)
	require.Error(t, err)

	var se *parse.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, parse.CodeFileTooLarge, se.Code)
}

func TestImportCogsBackfillsRecords(t *testing.T) {
	ctx := context.Background()
	svc, store := newImportService(t)

	_, err := svc.ImportSales(ctx, "january.csv", []byte(salesCSV), nil)
	require.NoError(t, err)

	res, err := svc.ImportCogs(ctx, "costs.csv", []byte(cogsCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowsProcessed)
	assert.Equal(t, 2, res.RowsImported) // two of three cost dates had sales
	assert.Equal(t, domain.ImportPartial, res.Status)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "2023-01-09")

	records, err := store.ListAllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byDate := make(map[string]*float64)
	for _, r := range records {
		byDate[r.DateKey()] = r.CogsTotal
	}
	require.NotNil(t, byDate["2023-01-01"])
	assert.InDelta(t, 1200, *byDate["2023-01-01"], 1e-9)
	require.NotNil(t, byDate["2023-01-02"])
	assert.InDelta(t, 700, *byDate["2023-01-02"], 1e-9)
	assert.Nil(t, byDate["2023-01-03"])

	entries, err := store.ListCogsDaily(ctx, records[0].ReportDate, records[0].ReportDate.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestImportCogsCleanFileSucceeds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newImportService(t)

	_, err := svc.ImportSales(ctx, "january.csv", []byte(salesCSV), nil)
	require.NoError(t, err)

	const cleanCogs = `Дата;Себестоимость
01.01.2023;1200
02.01.2023;700
`
	res, err := svc.ImportCogs(ctx, "costs.csv", []byte(cleanCogs))
	require.NoError(t, err)

	assert.Equal(t, domain.ImportSuccess, res.Status)
	assert.Empty(t, res.Warnings)
}
