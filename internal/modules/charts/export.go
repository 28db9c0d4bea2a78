package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/aristath/forecastboard/internal/domain"
)

var (
	// ErrChartNotReady means the panel has nothing mounted to capture
	ErrChartNotReady = errors.New("graph not ready")
	// ErrCaptureFailed wraps any failure while rasterizing a mounted panel
	ErrCaptureFailed = errors.New("failed to download chart")
)

// Panel is one rendered chart section of the dashboard
type Panel struct {
	Window domain.Window     `json:"window"`
	Title  string            `json:"title"`
	Rows   []domain.ChartRow `json:"rows"`
	Stats  WindowStats       `json:"stats"`
}

// Mounted reports whether the panel has a chart on screen. A window with no
// rows renders an empty panel that cannot be exported.
func (p *Panel) Mounted() bool {
	return p != nil && len(p.Rows) > 0
}

// Capture is a PNG snapshot of a panel ready to be sent to the browser
type Capture struct {
	Filename    string
	ContentType string
	Data        []byte
	Size        Size
}

// Exporter rasterizes panels into downloadable PNGs
type Exporter struct {
	renderer PNGRenderer
}

// NewExporter creates a new exporter on top of renderer
func NewExporter(renderer PNGRenderer) *Exporter {
	return &Exporter{renderer: renderer}
}

// Export captures panel at size (clamped to the renderable bounds). The image is the
// panel exactly as displayed: title, both series, grid and legend, in the panel's
// own title and filename. An unmounted panel yields ErrChartNotReady and any
// rendering failure, panics included, yields ErrCaptureFailed.
func (e *Exporter) Export(panel *Panel, size Size) (capture *Capture, err error) {
	if !panel.Mounted() {
		return nil, ErrChartNotReady
	}

	size = size.Clamp()

	defer func() {
		if r := recover(); r != nil {
			capture = nil
			err = fmt.Errorf("%w: renderer panic: %v", ErrCaptureFailed, r)
		}
	}()

	var buf bytes.Buffer
	if err := e.renderer.RenderPNG(&buf, panel.Title, panel.Rows, panel.Window.TickEvery(), size); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrCaptureFailed)
	}

	return &Capture{
		Filename:    panel.Window.Filename(),
		ContentType: "image/png",
		Data:        buf.Bytes(),
		Size:        size,
	}, nil
}
