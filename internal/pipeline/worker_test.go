package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/parse"
	"github.com/poslytics/backend/internal/repository/memory"
	"github.com/poslytics/backend/internal/service"
)

func salesCSV(day int) []byte {
	return []byte(fmt.Sprintf(
		"Дата;Смена;Чеки прихода;Приход наличными;Приход безналичными\n%02d.01.2023;1;10;1000;2000\n", day))
}

func TestProcessBatch(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	imports := service.NewImportService(store, config.ImportConfig{MaxChecksPerDay: 10000}, nil)

	jobs := []*Job{
		{ID: "j1", FileName: "day1.csv", Data: salesCSV(1)},
		{ID: "j2", FileName: "day2.csv", Data: salesCSV(2)},
		{ID: "j3", FileName: "day3.csv", Data: salesCSV(3)},
	}

	results := NewWorker(imports, nil, 2).ProcessBatch(ctx, jobs)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Same(t, jobs[i], res.Job)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Result)
		assert.Equal(t, domain.ImportSuccess, res.Result.Status)
	}

	datasets, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, datasets, 3)
}

func TestProcessBatchOneBadFile(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	imports := service.NewImportService(store, config.ImportConfig{MaxChecksPerDay: 10000}, nil)

	jobs := []*Job{
		{ID: "j1", FileName: "day1.csv", Data: salesCSV(1)},
		{ID: "j2", FileName: "stock.csv", Data: []byte("Склад;Остаток\nГлавный;10\n")},
	}

	results := NewWorker(imports, nil, 2).ProcessBatch(ctx, jobs)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.True(t, parse.IsStructural(results[1].Err))

	// The good file still landed.
	datasets, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, datasets, 1)
}
