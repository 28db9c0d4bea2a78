package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aristath/forecastboard/internal/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Bounds for the capture size reported by the browser
const (
	MinWidth  = 200
	MaxWidth  = 4000
	MinHeight = 150
	MaxHeight = 3000
)

var errNoRows = errors.New("no rows to render")

var (
	actualColor    = chart.ColorBlue
	predictedColor = chart.ColorRed
	gridColor      = drawing.ColorFromHex("dddddd")
)

// Size is a pixel size of a chart panel
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Clamp keeps the size within the renderable bounds
func (s Size) Clamp() Size {
	return Size{
		Width:  clampInt(s.Width, MinWidth, MaxWidth),
		Height: clampInt(s.Height, MinHeight, MaxHeight),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PNGRenderer draws a titled actual-vs-predicted line chart as PNG
type PNGRenderer interface {
	RenderPNG(w io.Writer, title string, rows []domain.ChartRow, tickEvery int, size Size) error
}

// Renderer draws charts with go-chart. It holds no state and is safe for concurrent use.
type Renderer struct{}

// NewRenderer creates a new go-chart renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPNG renders rows as two line series over a point-index x-axis whose ticks
// are labelled M/D every tickEvery points.
func (r *Renderer) RenderPNG(w io.Writer, title string, rows []domain.ChartRow, tickEvery int, size Size) error {
	if len(rows) == 0 {
		return errNoRows
	}
	if tickEvery < 1 {
		tickEvery = 1
	}

	xs := make([]float64, len(rows))
	actual := make([]float64, len(rows))
	predicted := make([]float64, len(rows))
	for i, row := range rows {
		xs[i] = float64(i)
		actual[i] = row.Actual
		predicted[i] = row.Predicted
	}

	// go-chart cannot draw a zero-width x range; a single point becomes a flat segment
	if len(rows) == 1 {
		xs = append(xs, 1)
		actual = append(actual, actual[0])
		predicted = append(predicted, predicted[0])
	}

	ticks := xTicks(rows, len(xs), tickEvery)

	gridStyle := chart.Style{
		StrokeColor:     gridColor,
		StrokeWidth:     1,
		StrokeDashArray: []float64{3, 3},
	}

	ch := chart.Chart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 56, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Ticks:          ticks,
			GridMajorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Range:          yRange(actual, predicted),
			GridMajorStyle: gridStyle,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Actual",
				XValues: xs,
				YValues: actual,
				Style:   chart.Style{StrokeColor: actualColor, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    "Predicted",
				XValues: xs,
				YValues: predicted,
				Style:   chart.Style{StrokeColor: predictedColor, StrokeWidth: 2},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// xTicks labels every tickEvery-th row. go-chart takes the x range from the
// first and last tick, so the last plotted index always gets a tick; the padding
// point of a single-row chart gets an empty label.
func xTicks(rows []domain.ChartRow, points, tickEvery int) []chart.Tick {
	ticks := make([]chart.Tick, 0, len(rows)/tickEvery+2)
	for i := 0; i < len(rows); i += tickEvery {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: shortDate(rows[i].Date)})
	}

	last := points - 1
	if ticks[len(ticks)-1].Value != float64(last) {
		var label string
		if last < len(rows) {
			label = shortDate(rows[last].Date)
		}
		ticks = append(ticks, chart.Tick{Value: float64(last), Label: label})
	}
	return ticks
}

// yRange spans both series with a little headroom. A flat series still gets a
// non-zero range.
func yRange(series ...[]float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, values := range series {
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1)
	}

	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// shortDate turns 2025-11-14 into 11/14; unparseable dates are shown as-is
func shortDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
