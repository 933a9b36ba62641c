// internal/api/handlers/analytics_handler.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/service"
)

type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ListDatasets returns all stored datasets, newest first.
func (h *AnalyticsHandler) ListDatasets(c *gin.Context) {
	datasets, err := h.analytics.Datasets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasets)
}

// Analytics returns the full analytics view for a dataset: KPI block,
// per-day aggregates with moving averages, and the raw record table.
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	datasetID, period, ok := datasetRequest(c)
	if !ok {
		return
	}

	view, err := h.analytics.Analytics(c.Request.Context(), datasetID, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Summary returns the KPI block with a comparison against the preceding
// period of equal length.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	datasetID, period, ok := datasetRequest(c)
	if !ok {
		return
	}

	summary, err := h.analytics.Summary(c.Request.Context(), datasetID, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Series returns the per-day revenue series for charting.
func (h *AnalyticsHandler) Series(c *gin.Context) {
	datasetID, period, ok := datasetRequest(c)
	if !ok {
		return
	}

	series, err := h.analytics.Series(c.Request.Context(), datasetID, period)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// TopProducts analyzes an uploaded detailed per-item export and returns
// product rankings. The upload is not persisted.
func (h *AnalyticsHandler) TopProducts(c *gin.Context) {
	fileName, data, ok := readUpload(c)
	if !ok {
		return
	}

	result, err := h.analytics.TopProducts(fileName, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func datasetRequest(c *gin.Context) (int64, *domain.Period, bool) {
	datasetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id"})
		return 0, nil, false
	}

	period, err := parsePeriod(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, nil, false
	}
	return datasetID, period, true
}

func parsePeriod(from, to string) (*domain.Period, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	parse := func(value, name string) (time.Time, error) {
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			return time.Time{}, &badPeriodError{field: name}
		}
		return t, nil
	}

	fromDate, err := parse(from, "from")
	if err != nil {
		return nil, err
	}
	toDate, err := parse(to, "to")
	if err != nil {
		return nil, err
	}
	if toDate.Before(fromDate) {
		return nil, &badPeriodError{field: "to"}
	}
	return &domain.Period{From: fromDate, To: toDate}, nil
}

type badPeriodError struct {
	field string
}

func (e *badPeriodError) Error() string {
	return "invalid or missing period parameter: " + e.field
}
