package di

import (
	"fmt"

	"github.com/aristath/forecastboard/internal/config"
	"github.com/aristath/forecastboard/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers the background jobs on it
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	container.Scheduler = scheduler.New(log)

	sweep := scheduler.NewSweepSessionsJob(container.SessionStore, cfg.Sessions.TTL, container.EventManager, log)
	if err := container.Scheduler.AddJob(cfg.Sessions.SweepSchedule, sweep); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", sweep.Name(), err)
	}

	return &JobInstances{SweepSessions: sweep}, nil
}
