package di

import (
	"html/template"
	"io/fs"

	"github.com/aristath/forecastboard/internal/clients/predictor"
	"github.com/aristath/forecastboard/internal/events"
	"github.com/aristath/forecastboard/internal/modules/charts"
	"github.com/aristath/forecastboard/internal/modules/dashboard"
	dashboardhandlers "github.com/aristath/forecastboard/internal/modules/dashboard/handlers"
	"github.com/aristath/forecastboard/internal/scheduler"
)

// Container holds every long-lived dependency of the application
type Container struct {
	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Clients - External API integrations
	PredictorClient *predictor.Client

	// Services
	ChartsService    *charts.Service
	SessionStore     *dashboard.Store
	DashboardService *dashboard.Service

	// HTTP
	DashboardHandler *dashboardhandlers.Handler
	PageTemplate     *template.Template
	StaticFiles      fs.FS

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to the registered jobs for manual triggering
type JobInstances struct {
	SweepSessions scheduler.Job
}
