// Package dashboard holds the per-browser dashboard state and the flow from ticker
// submission to rendered result.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/forecastboard/internal/clients/predictor"
	"github.com/aristath/forecastboard/internal/domain"
	"github.com/aristath/forecastboard/internal/events"
	"github.com/aristath/forecastboard/internal/modules/charts"
	"github.com/rs/zerolog"
)

const moduleName = "dashboard"

// ErrServiceClosed is returned by Submit after Close
var ErrServiceClosed = errors.New("dashboard service is closed")

// Predictor fetches a prediction for a ticker
type Predictor interface {
	Predict(ctx context.Context, ticker string) (*domain.PredictionResult, error)
}

// ChartProvider builds chart panels from a result and captures them as PNG
type ChartProvider interface {
	Panels(result *domain.PredictionResult) []charts.Panel
	Export(result *domain.PredictionResult, w domain.Window, size charts.Size) (*charts.Capture, error)
}

// Service runs predictions for sessions and serves their views and chart exports
type Service struct {
	predictor Predictor
	charts    ChartProvider
	store     *Store
	events    *events.Manager
	log       zerolog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Int64

	// closeMu orders wg.Add against Close so Wait never races a new Add
	closeMu sync.Mutex
	closed  bool
}

// NewService creates a new dashboard service
func NewService(p Predictor, c ChartProvider, store *Store, eventManager *events.Manager, log zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		predictor: p,
		charts:    c,
		store:     store,
		events:    eventManager,
		log:       log.With().Str("service", moduleName).Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Store returns the session store
func (s *Service) Store() *Store {
	return s.store
}

// SessionCount returns the number of live sessions
func (s *Service) SessionCount() int {
	return s.store.Len()
}

// InFlight returns the number of predictions currently running
func (s *Service) InFlight() int {
	return int(s.inFlight.Load())
}

// Submit starts a prediction for ticker on sess. A blank ticker is ignored: it
// returns false and leaves the session unchanged. Otherwise the session is loading
// when Submit returns and the prediction resolves in the background.
func (s *Service) Submit(sess *Session, ticker string) (bool, error) {
	ticker = predictor.NormalizeTicker(ticker)
	if ticker == "" {
		return false, nil
	}

	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return false, ErrServiceClosed
	}
	seq, err := sess.Begin(ticker)
	if err != nil {
		s.closeMu.Unlock()
		return false, err
	}
	s.wg.Add(1)
	s.inFlight.Add(1)
	s.closeMu.Unlock()

	s.events.EmitTyped(moduleName, &events.PredictionStartedData{
		SessionID: sess.ID,
		Ticker:    ticker,
		Seq:       seq,
	})

	go func() {
		defer s.wg.Done()
		defer s.inFlight.Add(-1)
		s.run(sess, ticker, seq)
	}()

	return true, nil
}

func (s *Service) run(sess *Session, ticker string, seq uint64) {
	log := s.log.With().Str("session_id", sess.ID).Str("ticker", ticker).Uint64("seq", seq).Logger()
	start := time.Now()

	result, err := s.predictor.Predict(s.ctx, ticker)
	if err != nil {
		if !sess.Fail(seq, NoticePredictionFailed) {
			s.discarded(sess, ticker, seq)
			return
		}
		log.Error().Err(err).Str("kind", predictor.KindOf(err).String()).Msg("Prediction failed")
		s.events.EmitTyped(moduleName, &events.PredictionFailedData{
			SessionID: sess.ID,
			Ticker:    ticker,
			Seq:       seq,
			Kind:      predictor.KindOf(err).String(),
			Error:     err.Error(),
		})
		return
	}

	if !sess.Complete(seq, result) {
		s.discarded(sess, ticker, seq)
		return
	}

	log.Info().Dur("duration", time.Since(start)).Msg("Prediction completed")
	s.events.EmitTyped(moduleName, &events.PredictionCompletedData{
		SessionID:   sess.ID,
		Ticker:      ticker,
		Seq:         seq,
		ShortPoints: len(result.ChartDatesShort),
		FullPoints:  len(result.ChartDatesFull),
		DurationMs:  time.Since(start).Milliseconds(),
	})
}

func (s *Service) discarded(sess *Session, ticker string, seq uint64) {
	current := sess.Snapshot().Seq
	s.log.Debug().
		Str("session_id", sess.ID).
		Uint64("seq", seq).
		Uint64("current_seq", current).
		Msg("Discarding stale prediction")
	s.events.EmitTyped(moduleName, &events.PredictionDiscardedData{
		SessionID:  sess.ID,
		Ticker:     ticker,
		Seq:        seq,
		CurrentSeq: current,
	})
}

// View builds the page model for sess and consumes its pending notice
func (s *Service) View(sess *Session, defaultWidth int) View {
	snap := sess.Snapshot()
	snap.Notice = sess.TakeNotice()

	var panels []charts.Panel
	if snap.Phase == PhaseResult {
		panels = s.charts.Panels(snap.Result)
	}
	return BuildView(snap, panels, defaultWidth)
}

// State builds the page model for sess without consuming its notice
func (s *Service) State(sess *Session, defaultWidth int) View {
	snap := sess.Snapshot()

	var panels []charts.Panel
	if snap.Phase == PhaseResult {
		panels = s.charts.Panels(snap.Result)
	}
	return BuildView(snap, panels, defaultWidth)
}

// Export captures the window chart of sess. Charts are not mounted while loading
// or before a result exists. On failure the session gets the matching notice.
func (s *Service) Export(sess *Session, w domain.Window, size charts.Size) (*charts.Capture, error) {
	snap := sess.Snapshot()

	var result *domain.PredictionResult
	if snap.Phase == PhaseResult {
		result = snap.Result
	}

	capture, err := s.charts.Export(result, w, size)
	if err != nil {
		notice := NoticeExportFailed
		if errors.Is(err, charts.ErrChartNotReady) {
			notice = NoticeChartNotReady
		}
		sess.Notify(notice)
		s.events.EmitTyped(moduleName, &events.ChartExportFailedData{
			SessionID: sess.ID,
			Window:    string(w),
			Error:     err.Error(),
		})
		return nil, err
	}

	s.events.EmitTyped(moduleName, &events.ChartExportedData{
		SessionID: sess.ID,
		Window:    string(w),
		Filename:  capture.Filename,
		Bytes:     len(capture.Data),
	})
	return capture, nil
}

// Render captures the window chart for inline display. Unlike Export it leaves
// the session notice alone.
func (s *Service) Render(sess *Session, w domain.Window, size charts.Size) (*charts.Capture, error) {
	snap := sess.Snapshot()
	if snap.Phase != PhaseResult {
		return nil, charts.ErrChartNotReady
	}
	return s.charts.Export(snap.Result, w, size)
}

// Reset returns sess to idle
func (s *Service) Reset(sess *Session) {
	sess.Reset()
	s.log.Debug().Str("session_id", sess.ID).Msg("Session reset")
}

// Close cancels in-flight predictions and rejects new ones
func (s *Service) Close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	s.closed = true
	s.cancel()
}

// Wait blocks until every background prediction has finished
func (s *Service) Wait() {
	s.wg.Wait()
}
