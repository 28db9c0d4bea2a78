package di

import (
	"fmt"

	"github.com/aristath/forecastboard/internal/clients/predictor"
	"github.com/aristath/forecastboard/internal/config"
	"github.com/aristath/forecastboard/internal/events"
	"github.com/aristath/forecastboard/internal/modules/charts"
	"github.com/aristath/forecastboard/internal/modules/dashboard"
	dashboardhandlers "github.com/aristath/forecastboard/internal/modules/dashboard/handlers"
	"github.com/aristath/forecastboard/pkg/embedded"
	"github.com/rs/zerolog"
)

// InitializeServices creates the clients, services and handlers in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus(log)
	container.EventManager = events.NewManager(container.EventBus, log)

	container.PredictorClient = predictor.NewClient(predictor.Options{
		URL:          cfg.Predictor.URL,
		Timeout:      cfg.Predictor.Timeout,
		RatePerSec:   cfg.Predictor.RatePerSec,
		MaxBodyBytes: cfg.Predictor.MaxBodyBytes,
	}, log)

	container.ChartsService = charts.NewService(charts.NewRenderer(), log)
	container.SessionStore = dashboard.NewStore(log)
	container.DashboardService = dashboard.NewService(
		container.PredictorClient,
		container.ChartsService,
		container.SessionStore,
		container.EventManager,
		log,
	)

	page, err := embedded.DashboardTemplate()
	if err != nil {
		return fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	container.PageTemplate = page

	static, err := embedded.Static()
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}
	container.StaticFiles = static

	container.DashboardHandler = dashboardhandlers.NewHandler(
		container.DashboardService,
		container.PageTemplate,
		cfg.Charts.DefaultWidth,
		log,
	)

	log.Info().Str("predictor_url", cfg.Predictor.URL).Msg("Services initialized")
	return nil
}
