package domain

// PredictionResult is the payload returned by the prediction service for one ticker.
//
// Within a window the dates, actual and predicted arrays are index-aligned: entry i of
// each refers to the same trading day. Nothing relates the short window to the full one.
type PredictionResult struct {
	Ticker           string  `json:"ticker"`
	Company          string  `json:"company"`
	CurrentPrice     float64 `json:"current_price"`
	NextDayPrice     float64 `json:"next_day_price"`
	RMSE             float64 `json:"rmse"`
	MAE              float64 `json:"mae"`
	MAPE             float64 `json:"mape"`
	Accuracy         float64 `json:"accuracy"`
	LastTrainingTime string  `json:"last_training_time"`
	ModelVersion     string  `json:"model_version"`

	ChartDatesShort []string  `json:"chart_dates_short,omitempty"`
	ActualShort     []float64 `json:"actual_short,omitempty"`
	PredictedShort  []float64 `json:"predicted_short,omitempty"`

	ChartDatesFull []string  `json:"chart_dates_full,omitempty"`
	ActualFull     []float64 `json:"actual_full,omitempty"`
	PredictedFull  []float64 `json:"predicted_full,omitempty"`
}

// Series returns the three parallel arrays for a window.
// A nil result yields nil slices.
func (r *PredictionResult) Series(w Window) (dates []string, actual, predicted []float64) {
	if r == nil {
		return nil, nil, nil
	}
	switch w {
	case WindowShort:
		return r.ChartDatesShort, r.ActualShort, r.PredictedShort
	case WindowFull:
		return r.ChartDatesFull, r.ActualFull, r.PredictedFull
	}
	return nil, nil, nil
}

// ChartRow is one point of a chart: the actual and predicted close for a date.
type ChartRow struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"Actual"`
	Predicted float64 `json:"Predicted"`
}
