// Package charts turns prediction results into chart panels and PNG captures.
package charts

import (
	"github.com/aristath/forecastboard/internal/domain"
	"github.com/rs/zerolog"
)

// Service builds panels from prediction results and exports them
type Service struct {
	exporter *Exporter
	log      zerolog.Logger
}

// NewService creates a new charts service
func NewService(renderer PNGRenderer, log zerolog.Logger) *Service {
	return &Service{
		exporter: NewExporter(renderer),
		log:      log.With().Str("service", "charts").Logger(),
	}
}

// Panels returns one panel per window, in display order
func (s *Service) Panels(result *domain.PredictionResult) []Panel {
	panels := make([]Panel, 0, len(domain.Windows))
	for _, w := range domain.Windows {
		panels = append(panels, s.panel(result, w))
	}
	return panels
}

// Panel returns the panel for a single window
func (s *Service) Panel(result *domain.PredictionResult, w domain.Window) *Panel {
	p := s.panel(result, w)
	return &p
}

func (s *Service) panel(result *domain.PredictionResult, w domain.Window) Panel {
	proj := Project(result, w)
	if proj.Mismatch != nil {
		s.log.Warn().
			Str("ticker", result.Ticker).
			Str("window", string(w)).
			Int("dates", proj.Mismatch.Dates).
			Int("actual", proj.Mismatch.Actual).
			Int("predicted", proj.Mismatch.Predicted).
			Int("rows", len(proj.Rows)).
			Msg("Series lengths disagree, clipping to shortest")
	}

	return Panel{
		Window: w,
		Title:  w.Title(),
		Rows:   proj.Rows,
		Stats:  ComputeStats(proj.Rows),
	}
}

// Export renders the window of result as a downloadable PNG
func (s *Service) Export(result *domain.PredictionResult, w domain.Window, size Size) (*Capture, error) {
	var ticker string
	if result != nil {
		ticker = result.Ticker
	}

	capture, err := s.exporter.Export(s.Panel(result, w), size)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Str("window", string(w)).Msg("Chart export failed")
		return nil, err
	}

	s.log.Debug().
		Str("ticker", ticker).
		Str("window", string(w)).
		Int("width", capture.Size.Width).
		Int("height", capture.Size.Height).
		Int("bytes", len(capture.Data)).
		Msg("Chart exported")

	return capture, nil
}
