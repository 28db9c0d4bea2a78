package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/aristath/forecastboard/internal/domain"
)

// Phase is the display state of a session
type Phase string

const (
	// PhaseIdle shows only the input form
	PhaseIdle Phase = "idle"
	// PhaseLoading shows the progress indicator and hides results and charts
	PhaseLoading Phase = "loading"
	// PhaseResult shows metrics, the stock summary and every mounted chart
	PhaseResult Phase = "result"
)

// Notices shown to the user once, on the next render
const (
	NoticePredictionFailed = "Error occurred while predicting. Make sure ticker is valid and backend is running."
	NoticeChartNotReady    = "Graph not ready"
	NoticeExportFailed     = "Failed to download chart"
)

// ErrPredictionInFlight is returned when a session submits while already loading
var ErrPredictionInFlight = errors.New("a prediction is already in progress")

// Session holds the dashboard state of one browser
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	ticker   string
	loading  bool
	result   *domain.PredictionResult
	seq      uint64
	notice   string
	lastSeen time.Time
}

// Snapshot is a consistent copy of a session's state
type Snapshot struct {
	ID      string
	Phase   Phase
	Ticker  string
	Result  *domain.PredictionResult
	Seq     uint64
	Notice  string
	Loading bool
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, lastSeen: now}
}

// phase derives the display state; callers hold mu
func (s *Session) phase() Phase {
	switch {
	case s.loading:
		return PhaseLoading
	case s.result != nil:
		return PhaseResult
	}
	return PhaseIdle
}

// Phase returns the current display state
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

// Begin moves the session to loading for ticker, dropping any previous result,
// and returns the sequence number tagging this request.
func (s *Session) Begin(ticker string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return 0, ErrPredictionInFlight
	}

	s.seq++
	s.ticker = ticker
	s.loading = true
	s.result = nil
	s.notice = ""
	return s.seq, nil
}

// Complete stores the result of request seq. It reports false, leaving the state
// untouched, when seq is not the request the session is waiting for.
func (s *Session) Complete(seq uint64, result *domain.PredictionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loading || seq != s.seq {
		return false
	}
	s.loading = false
	s.result = result
	return true
}

// Fail ends request seq without a result and sets notice
func (s *Session) Fail(seq uint64, notice string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loading || seq != s.seq {
		return false
	}
	s.loading = false
	s.result = nil
	s.notice = notice
	return true
}

// Reset returns the session to idle. An in-flight request is orphaned and its
// completion will be discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.ticker = ""
	s.loading = false
	s.result = nil
	s.notice = ""
}

// Notify sets the notice shown on the next render
func (s *Session) Notify(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
}

// TakeNotice returns the pending notice and clears it
func (s *Session) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

// Snapshot returns a copy of the current state without consuming the notice
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:      s.ID,
		Phase:   s.phase(),
		Ticker:  s.ticker,
		Result:  s.result,
		Seq:     s.seq,
		Notice:  s.notice,
		Loading: s.loading,
	}
}

// Touch records activity on the session
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// expired reports whether the session is idle past ttl. Loading sessions never expire.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loading && now.Sub(s.lastSeen) > ttl
}
