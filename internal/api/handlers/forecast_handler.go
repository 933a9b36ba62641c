// internal/api/handlers/forecast_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poslytics/backend/internal/domain"
	"github.com/poslytics/backend/internal/service"
)

type ForecastHandler struct {
	forecast *service.ForecastService
}

func NewForecastHandler(forecast *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecast: forecast}
}

type predictionRequest struct {
	ModelName        string  `json:"model_name" binding:"required"`
	TargetDate       string  `json:"target_date" binding:"required"`
	HorizonDays      int     `json:"horizon_days" binding:"required"`
	PredictedRevenue float64 `json:"predicted_revenue"`
}

// RegisterPrediction stores a forecast for later accuracy reconciliation.
func (h *ForecastHandler) RegisterPrediction(c *gin.Context) {
	var req predictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return
	}

	prediction := &domain.ForecastPrediction{
		ModelName:        req.ModelName,
		TargetDate:       targetDate,
		HorizonDays:      req.HorizonDays,
		PredictedRevenue: req.PredictedRevenue,
	}
	if err := h.forecast.RegisterPrediction(c.Request.Context(), prediction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, prediction)
}

// Reconcile matches pending predictions against actual revenue and
// refreshes accuracy metrics.
func (h *ForecastHandler) Reconcile(c *gin.Context) {
	result, err := h.forecast.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Metrics returns per-bucket accuracy medians. With usable_only=true,
// buckets below the trust floor are filtered out.
func (h *ForecastHandler) Metrics(c *gin.Context) {
	usableOnly := c.Query("usable_only") == "true"

	metrics, err := h.forecast.Metrics(c.Request.Context(), usableOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
