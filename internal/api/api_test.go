package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poslytics/backend/internal/cache"
	"github.com/poslytics/backend/internal/config"
	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/repository/memory"
	"github.com/poslytics/backend/internal/service"
)

const salesCSV = `Дата;Смена;Чеки прихода;Приход наличными;Приход безналичными
01.01.2023;1;10;1000;2000
02.01.2023;1;8;800;900
03.01.2023;1;5;500;700
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	importCfg := config.ImportConfig{
		MaxUploadBytes:  1 << 20,
		MaxChecksPerDay: 10000,
	}
	services := &Services{
		ImportService:    service.NewImportService(store, importCfg, nil),
		AnalyticsService: service.NewAnalyticsService(store, importCfg),
		ForecastService:  service.NewForecastService(store, config.ForecastConfig{}),
		StatusCache:      cache.NewNoopImportStatusCache(),
	}
	return NewRouter(services, nil)
}

func uploadRequest(t *testing.T, url, fileName, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestImportThenQueryDataset(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/imports", "january.csv", salesCSV))
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.ImportSuccess, result.Status)
	require.NotNil(t, result.DatasetID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var datasets []*domain.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &datasets))
	require.Len(t, datasets, 1)

	w = httptest.NewRecorder()
	url := fmt.Sprintf("/api/v1/datasets/%d/summary", *result.DatasetID)
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var summary domain.ProfitabilitySummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 5900, summary.KPI.GrossRevenue, 1e-9)
}

func TestImportRejectsWrongLayout(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/imports", "stock.csv", "Склад;Остаток\nГлавный;10\n"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "header_mismatch")
}

func TestImportRequiresFile(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", strings.NewReader(""))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/datasets/42/analytics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsRejectsBadPeriod(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/1/analytics?from=2023-01-05&to=2023-01-01", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForecastPredictionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/v1/imports", "january.csv", salesCSV))
	require.Equal(t, http.StatusOK, w.Code)

	body := `{"model_name":"prophet","target_date":"2023-01-02","horizon_days":1,"predicted_revenue":1500}`
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/predictions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/forecast/reconcile", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ReconcileResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Resolved)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/forecast/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForecastPredictionValidation(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/predictions",
		strings.NewReader(`{"model_name":"","target_date":"2023-01-02"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportStatusUnknownJob(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/imports/status/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
