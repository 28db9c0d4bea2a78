// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/aristath/forecastboard/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Initialize services
// 2. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *JobInstances, error) {
	container := &Container{}

	if err := InitializeServices(container, cfg, log); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	jobs, err := RegisterJobs(container, cfg, log)
	if err != nil {
		container.DashboardService.Close()
		return nil, nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	return container, jobs, nil
}

// Close cancels in-flight predictions and waits for them to finish
func (c *Container) Close() {
	if c.DashboardService != nil {
		c.DashboardService.Close()
		c.DashboardService.Wait()
	}
}
