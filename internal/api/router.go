package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/api/handler"
	"github.com/tracknet/tracker-hub/internal/devices"
	"github.com/tracknet/tracker-hub/internal/ingest"
	"github.com/tracknet/tracker-hub/internal/store"
	"github.com/tracknet/tracker-hub/pkg/mqtt"
)

// RouterDeps bundles the collaborators the HTTP surface needs.
type RouterDeps struct {
	Pipeline  *ingest.Pipeline
	Publisher mqtt.MQTTClient
	Store     store.TelemetryStore
	Cache     *store.LastLocationCache // nil when Redis is not configured
	Tracker   *devices.Tracker
	Database  handler.Pinger
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("trackerhub"))

	// The cache is optional; keep the interface nil rather than a typed
	// nil pointer when it is absent.
	var cacheReader handler.FixCacheReader
	var cachePinger handler.Pinger
	if deps.Cache != nil {
		cacheReader = deps.Cache
		cachePinger = deps.Cache
	}

	telemetryHandler := handler.NewTelemetryHandler(deps.Pipeline, deps.Publisher, deps.Logger)
	queryHandler := handler.NewQueryHandler(deps.Store, cacheReader, deps.Tracker, deps.Logger)
	healthHandler := handler.NewHealthHandler(deps.Database, cachePinger)

	// --- Telemetry routes ---
	e.POST("/api/telemetry", telemetryHandler.Ingest)
	e.GET("/api/last-location", queryHandler.LastLocation)
	e.GET("/api/uwb-data", queryHandler.RecentUwbReadings)
	e.GET("/api/devices", queryHandler.Devices)

	// --- Probes and metrics ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
