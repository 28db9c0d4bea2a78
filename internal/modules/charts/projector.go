package charts

import (
	"errors"
	"fmt"

	"github.com/aristath/forecastboard/internal/domain"
)

// ErrLengthMismatch means a window's dates, actual and predicted arrays differ in length
var ErrLengthMismatch = errors.New("parallel series length mismatch")

// LengthMismatch records the three array lengths of a window that did not line up
type LengthMismatch struct {
	Window    domain.Window
	Dates     int
	Actual    int
	Predicted int
}

// String describes the mismatch for logs
func (m LengthMismatch) String() string {
	return fmt.Sprintf("%s window: dates=%d actual=%d predicted=%d", m.Window, m.Dates, m.Actual, m.Predicted)
}

// Projection is the chart-ready form of one window
type Projection struct {
	Window   domain.Window
	Rows     []domain.ChartRow
	Mismatch *LengthMismatch // nil when the three arrays agree
}

// Project zips the window's parallel arrays into rows, index by index, in source order.
// A nil result or a missing date array gives no rows. When the arrays disagree in
// length the rows are clipped to the shortest one and the mismatch is reported.
func Project(result *domain.PredictionResult, w domain.Window) Projection {
	p := Projection{Window: w, Rows: []domain.ChartRow{}}

	dates, actual, predicted := result.Series(w)
	if dates == nil {
		return p
	}

	n := min(len(dates), len(actual), len(predicted))
	if len(dates) != n || len(actual) != n || len(predicted) != n {
		p.Mismatch = &LengthMismatch{
			Window:    w,
			Dates:     len(dates),
			Actual:    len(actual),
			Predicted: len(predicted),
		}
	}

	p.Rows = make([]domain.ChartRow, n)
	for i := 0; i < n; i++ {
		p.Rows[i] = domain.ChartRow{
			Date:      dates[i],
			Actual:    actual[i],
			Predicted: predicted[i],
		}
	}

	return p
}

// ProjectAll projects every window, in display order
func ProjectAll(result *domain.PredictionResult) []Projection {
	out := make([]Projection, 0, len(domain.Windows))
	for _, w := range domain.Windows {
		out = append(out, Project(result, w))
	}
	return out
}

// Validate is the strict alternative to Project's clipping: it fails on the first
// window whose present arrays disagree in length.
func Validate(result *domain.PredictionResult) error {
	for _, w := range domain.Windows {
		dates, actual, predicted := result.Series(w)
		if dates == nil {
			continue
		}
		if len(dates) != len(actual) || len(dates) != len(predicted) {
			m := LengthMismatch{Window: w, Dates: len(dates), Actual: len(actual), Predicted: len(predicted)}
			return fmt.Errorf("%w: %s", ErrLengthMismatch, m)
		}
	}
	return nil
}
