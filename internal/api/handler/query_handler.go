package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/devices"
	"github.com/tracknet/tracker-hub/internal/models"
	"github.com/tracknet/tracker-hub/internal/store"
)

const (
	defaultUwbLimit = 50
	maxUwbLimit     = 500
)

// FixCacheReader serves cached last-known fixes. Implemented by the Redis
// cache; nil disables the fast path.
type FixCacheReader interface {
	GetLastLocation(ctx context.Context, deviceID string) (*models.LocationFix, error)
}

// QueryHandler serves the dashboard's read endpoints: last known location,
// recent UWB readings and the device listing.
type QueryHandler struct {
	store   store.TelemetryStore
	cache   FixCacheReader
	tracker *devices.Tracker
	logger  zerolog.Logger
}

// NewQueryHandler creates a QueryHandler. cache may be nil.
func NewQueryHandler(telemetryStore store.TelemetryStore, cache FixCacheReader,
	tracker *devices.Tracker, logger zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		store:   telemetryStore,
		cache:   cache,
		tracker: tracker,
		logger:  logger,
	}
}

// LastLocation handles GET /api/last-location?device_id=. Without a device
// filter it returns the most recent fix overall.
func (h *QueryHandler) LastLocation(c echo.Context) error {
	ctx := c.Request().Context()
	deviceID := c.QueryParam("device_id")

	if deviceID != "" && h.cache != nil {
		fix, err := h.cache.GetLastLocation(ctx, deviceID)
		if err != nil {
			h.logger.Warn().Err(err).Str("device_id", deviceID).Msg("Last-location cache read failed")
		} else if fix != nil {
			return c.JSON(http.StatusOK, fix)
		}
	}

	fix, err := h.store.LastLocation(ctx, deviceID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch last location")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "error fetching location data"})
	}
	if fix == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no location data"})
	}

	return c.JSON(http.StatusOK, fix)
}

// RecentUwbReadings handles GET /api/uwb-data?limit=.
func (h *QueryHandler) RecentUwbReadings(c echo.Context) error {
	limit := defaultUwbLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = parsed
	}
	if limit > maxUwbLimit {
		limit = maxUwbLimit
	}

	readings, err := h.store.RecentUwbReadings(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch UWB readings")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "error fetching uwb data"})
	}

	return c.JSON(http.StatusOK, readings)
}

// Devices handles GET /api/devices.
func (h *QueryHandler) Devices(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.Sightings())
}
