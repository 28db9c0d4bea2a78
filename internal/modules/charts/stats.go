package charts

import (
	"math"

	"github.com/aristath/forecastboard/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// mapeFloor is the smallest MAPE denominator; zero or negative actuals divide by it
const mapeFloor = 1e-8

// WindowStats are error metrics recomputed from the rows actually drawn in a panel.
// They sit next to the service-reported metrics, which cover the model's test split.
type WindowStats struct {
	Points   int     `json:"points"`
	RMSE     float64 `json:"rmse"`
	MAE      float64 `json:"mae"`
	MAPE     float64 `json:"mape"`
	Accuracy float64 `json:"accuracy"`
}

// ComputeStats returns the window's metrics; all zero when there are no rows
func ComputeStats(rows []domain.ChartRow) WindowStats {
	n := len(rows)
	if n == 0 {
		return WindowStats{}
	}

	diffs := make([]float64, n)
	absDiffs := make([]float64, n)
	pctErrs := make([]float64, n)
	for i, row := range rows {
		d := row.Actual - row.Predicted
		diffs[i] = d
		absDiffs[i] = math.Abs(d)
		pctErrs[i] = math.Abs(d) / math.Max(row.Actual, mapeFloor) * 100
	}

	mape := stat.Mean(pctErrs, nil)

	return WindowStats{
		Points:   n,
		RMSE:     math.Sqrt(floats.Dot(diffs, diffs) / float64(n)),
		MAE:      stat.Mean(absDiffs, nil),
		MAPE:     mape,
		Accuracy: 100 - mape,
	}
}
