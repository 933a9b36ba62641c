package domain

import "time"

// ForecastPrediction is a single model's revenue prediction for a target
// date. Accuracy fields are filled exactly once, when the date has passed
// and matching sales data exists.
type ForecastPrediction struct {
	ID               int64     `json:"id" db:"id"`
	ModelName        string    `json:"model_name" db:"model_name"`
	TargetDate       time.Time `json:"target_date" db:"target_date"`
	HorizonDays      int       `json:"horizon_days" db:"horizon_days"`
	PredictedRevenue float64   `json:"predicted_revenue" db:"predicted_revenue"`

	ActualRevenue *float64   `json:"actual_revenue" db:"actual_revenue"`
	MAPE          *float64   `json:"mape" db:"mape"`
	MAE           *float64   `json:"mae" db:"mae"`
	RMSE          *float64   `json:"rmse" db:"rmse"`
	ResolvedAt    *time.Time `json:"resolved_at" db:"resolved_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Resolved reports whether the prediction has been reconciled already.
func (p *ForecastPrediction) Resolved() bool {
	return p.ResolvedAt != nil
}

// ModelAccuracyMetric is the rolling accuracy of one (model, weekday,
// horizon) bucket: medians over valid reconciled samples.
type ModelAccuracyMetric struct {
	ModelName   string  `json:"model_name" db:"model_name"`
	Weekday     int     `json:"weekday" db:"weekday"`
	HorizonDays int     `json:"horizon_days" db:"horizon_days"`
	MedianMAPE  float64 `json:"median_mape" db:"median_mape"`
	MedianMAE   float64 `json:"median_mae" db:"median_mae"`
	MedianRMSE  float64 `json:"median_rmse" db:"median_rmse"`
	SampleSize  int     `json:"sample_size" db:"sample_size"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReconcileResult summarizes one forecast reconciliation pass.
type ReconcileResult struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
	Rejected int `json:"rejected"`
	NoActual int `json:"no_actual"`
}
