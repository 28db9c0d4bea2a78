package scheduler

import (
	"errors"
	"time"

	"github.com/aristath/forecastboard/internal/events"
	"github.com/rs/zerolog"
)

// SessionSweeper removes idle sessions
type SessionSweeper interface {
	Sweep(ttl time.Duration) int
	Len() int
}

// SweepSessionsJob drops dashboard sessions idle for longer than the TTL
type SweepSessionsJob struct {
	sessions SessionSweeper
	ttl      time.Duration
	events   *events.Manager
	log      zerolog.Logger
}

// NewSweepSessionsJob creates a new session sweep job
func NewSweepSessionsJob(sessions SessionSweeper, ttl time.Duration, eventManager *events.Manager, log zerolog.Logger) *SweepSessionsJob {
	return &SweepSessionsJob{
		sessions: sessions,
		ttl:      ttl,
		events:   eventManager,
		log:      log.With().Str("job", "sweep_sessions").Logger(),
	}
}

// Name returns the job name
func (j *SweepSessionsJob) Name() string {
	return "sweep_sessions"
}

// Run executes the sweep
func (j *SweepSessionsJob) Run() error {
	if j.ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	removed := j.sessions.Sweep(j.ttl)
	remaining := j.sessions.Len()

	j.log.Debug().Int("removed", removed).Int("remaining", remaining).Msg("Session sweep finished")

	if removed > 0 && j.events != nil {
		j.events.EmitTyped("scheduler", &events.SessionsSweptData{
			Removed:   removed,
			Remaining: remaining,
		})
	}
	return nil
}
