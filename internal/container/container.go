package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-trip-companion/app/db"
	"github.com/FACorreiaa/go-trip-companion/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-companion/config"
	"github.com/FACorreiaa/go-trip-companion/internal/api/alternatives"
	"github.com/FACorreiaa/go-trip-companion/internal/api/geocode"
	"github.com/FACorreiaa/go-trip-companion/internal/api/notifications"
	"github.com/FACorreiaa/go-trip-companion/internal/api/place"
	"github.com/FACorreiaa/go-trip-companion/internal/api/placesearch"
	"github.com/FACorreiaa/go-trip-companion/internal/api/recommend"
	"github.com/FACorreiaa/go-trip-companion/internal/api/tripcontext"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	PlaceHandler         *place.HandlerImpl
	RecommendHandler     *recommend.HandlerImpl
	AlternativesHandler  *alternatives.HandlerImpl
	ContextHandler       *tripcontext.HandlerImpl
	NotificationsHandler *notifications.HandlerImpl

	// BriefingService is driven by the scheduler loop in main, not by a route.
	BriefingService notifications.BriefingService
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	appMetrics := metrics.Get()

	// External HTTP clients
	geocodeClient := geocode.NewHTTPClient(
		cfg.Services.Geocoder.BaseURL, cfg.Services.Geocoder.APIKey, cfg.Services.Geocoder.Timeout)
	searchClient := placesearch.NewHTTPClient(
		cfg.Services.PlaceSearch.BaseURL, cfg.Services.PlaceSearch.APIKey, cfg.Services.PlaceSearch.Timeout)
	dispatcher := notifications.NewHTTPDispatcher(
		cfg.Services.Notifier.BaseURL, cfg.Services.Notifier.APIKey, cfg.Services.Notifier.Timeout)

	// Repositories
	placeRepo := place.NewPostgresPlaceRepo(pool, logger)
	tripRepo := tripcontext.NewPostgresTripRepo(pool, logger)
	prefRepo := notifications.NewPostgresPreferenceRepo(pool, logger)
	alertRepo := notifications.NewPostgresAlertLogRepo(pool, logger)

	// Services
	geocodeService := geocode.NewServiceImpl(geocodeClient, logger).
		WithMetrics(appMetrics)
	placeService := place.NewServiceImpl(placeRepo, geocodeService, logger)
	recommendService := recommend.NewServiceImpl(placeRepo, logger)
	alternativesService := alternatives.NewServiceImpl(placeRepo, searchClient, logger)
	contextService := tripcontext.NewServiceImpl(tripRepo, placeRepo, logger)
	proximityService := notifications.NewServiceImpl(placeRepo, prefRepo, alertRepo, dispatcher, logger).
		WithMetrics(appMetrics)
	briefingService := notifications.NewBriefingServiceImpl(tripRepo, contextService, prefRepo, dispatcher, logger).
		WithMetrics(appMetrics)

	// Handlers
	placeHandler := place.NewHandlerImpl(placeService, logger)
	recommendHandler := recommend.NewHandlerImpl(recommendService, logger)
	alternativesHandler := alternatives.NewHandlerImpl(alternativesService, logger)
	contextHandler := tripcontext.NewHandlerImpl(contextService, logger)
	notificationsHandler := notifications.NewHandlerImpl(proximityService, logger)

	return &Container{
		Config:               cfg,
		Logger:               logger,
		Pool:                 pool,
		PlaceHandler:         placeHandler,
		RecommendHandler:     recommendHandler,
		AlternativesHandler:  alternativesHandler,
		ContextHandler:       contextHandler,
		NotificationsHandler: notificationsHandler,
		BriefingService:      briefingService,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

// RunMigrations runs database migrations
func (c *Container) RunMigrations(connectionURL string) error {
	return database.RunMigrations(connectionURL, c.Logger)
}
