package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/ingest"
	"github.com/tracknet/tracker-hub/internal/models"
	"github.com/tracknet/tracker-hub/pkg/mqtt"
)

// TelemetryHandler is the HTTP ingestion entry point. It applies the same
// validation and persistence rules as the subscriber pipeline and then
// republishes the fix so MQTT consumers see HTTP-pushed telemetry too.
type TelemetryHandler struct {
	pipeline  *ingest.Pipeline
	publisher mqtt.MQTTClient
	logger    zerolog.Logger
}

// NewTelemetryHandler creates a TelemetryHandler.
func NewTelemetryHandler(pipeline *ingest.Pipeline, publisher mqtt.MQTTClient, logger zerolog.Logger) *TelemetryHandler {
	return &TelemetryHandler{
		pipeline:  pipeline,
		publisher: publisher,
		logger:    logger,
	}
}

// Ingest handles POST /api/telemetry.
func (h *TelemetryHandler) Ingest(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
	}

	fix, alert, err := ingest.ParseLocation(raw, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.pipeline.IngestFix(c.Request().Context(), fix, alert); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to persist telemetry"})
	}

	h.republish(fix, alert)

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// republish mirrors the fix onto the gps topics at QoS 0, fire-and-forget.
func (h *TelemetryHandler) republish(fix models.LocationFix, alert bool) {
	payload, err := json.Marshal(struct {
		DeviceID  string  `json:"device_id"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Alert     bool    `json:"alert"`
	}{fix.DeviceID, fix.Latitude, fix.Longitude, alert})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize republished fix")
		return
	}

	topics := []string{fmt.Sprintf("gps/%s/location", fix.DeviceID)}
	if alert {
		topics = append(topics, fmt.Sprintf("gps/%s/sos", fix.DeviceID))
	}

	for _, topic := range topics {
		token := h.publisher.Publish(topic, 0, false, payload)
		if token.Wait() && token.Error() != nil {
			h.logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to republish telemetry")
		}
	}
}
