package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/devices"
	"github.com/tracknet/tracker-hub/internal/metrics"
	"github.com/tracknet/tracker-hub/internal/models"
	"github.com/tracknet/tracker-hub/internal/store"
	"github.com/tracknet/tracker-hub/pkg/geofence"
)

// FixCache receives the latest fix per device. Implemented by the Redis
// cache; nil disables caching.
type FixCache interface {
	SetLastLocation(ctx context.Context, fix models.LocationFix) error
}

// Pipeline runs one inbound message through classification, validation,
// geofence evaluation and persistence. Every failure is contained to the
// message that caused it; the subscriber loop never stops.
type Pipeline struct {
	store   store.TelemetryStore
	cache   FixCache
	region  geofence.Region
	tracker *devices.Tracker
	logger  zerolog.Logger
}

// NewPipeline creates a Pipeline with the given collaborators. cache may be
// nil when Redis is not configured.
func NewPipeline(telemetryStore store.TelemetryStore, cache FixCache, region geofence.Region,
	tracker *devices.Tracker, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:   telemetryStore,
		cache:   cache,
		region:  region,
		tracker: tracker,
		logger:  logger,
	}
}

// ProcessMessage handles a single inbound pub/sub message. A non-nil error
// means the message was dropped; it is never re-queued.
func (p *Pipeline) ProcessMessage(ctx context.Context, topic string, payload []byte) error {
	kind := Classify(topic)
	now := time.Now().UTC()

	switch kind {
	case KindLocation:
		fix, _, err := ParseLocation(payload, now)
		if err != nil {
			return p.reject(kind, topic, err)
		}
		if err := p.persistFix(ctx, fix); err != nil {
			return err
		}
		p.evaluateGeofence(fix)

	case KindSos:
		event, err := ParseSos(payload, topic, now)
		if err != nil {
			return p.reject(kind, topic, err)
		}
		if err := p.persistFix(ctx, event.LocationFix); err != nil {
			return err
		}
		if err := p.emitNotification(ctx, event.LocationFix); err != nil {
			return err
		}

	case KindUwbReading:
		reading, err := ParseUwb(payload, topic, now)
		if err != nil {
			return p.reject(kind, topic, err)
		}
		if err := p.persistReading(ctx, reading); err != nil {
			return err
		}

	default:
		metrics.UnknownTopicsTotal.Inc()
		p.logger.Info().Str("topic", topic).Msg("Ignoring message on unrecognized topic")
		return nil
	}

	metrics.MessagesTotal.WithLabelValues(kind.String()).Inc()
	return nil
}

// IngestFix applies the subscriber pipeline's persistence and notification
// rules to a fix that arrived through the HTTP entry point. The alert flag
// additionally emits a notification record.
func (p *Pipeline) IngestFix(ctx context.Context, fix models.LocationFix, alert bool) error {
	if err := p.persistFix(ctx, fix); err != nil {
		return err
	}
	if alert {
		if err := p.emitNotification(ctx, fix); err != nil {
			return err
		}
	}

	metrics.MessagesTotal.WithLabelValues(KindLocation.String()).Inc()
	return nil
}

// persistFix appends the fix, refreshes the last-location cache and marks
// the device as seen. Cache failures are logged but do not drop the
// message; the database remains the source of truth.
func (p *Pipeline) persistFix(ctx context.Context, fix models.LocationFix) error {
	if err := p.store.AppendLocation(ctx, fix); err != nil {
		return p.storeFailure(err, fix.DeviceID)
	}

	if p.cache != nil {
		if err := p.cache.SetLastLocation(ctx, fix); err != nil {
			p.logger.Warn().Err(err).Str("device_id", fix.DeviceID).Msg("Failed to update last-location cache")
		}
	}
	p.tracker.Touch(fix.DeviceID, fix.Timestamp)

	p.logger.Info().
		Str("device_id", fix.DeviceID).
		Float64("latitude", fix.Latitude).
		Float64("longitude", fix.Longitude).
		Msg("Location fix saved")
	return nil
}

func (p *Pipeline) persistReading(ctx context.Context, reading models.UwbReading) error {
	if err := p.store.AppendUwbReading(ctx, reading); err != nil {
		return p.storeFailure(err, reading.DeviceID)
	}
	p.tracker.Touch(reading.DeviceID, reading.Timestamp)

	p.logger.Info().
		Str("device_id", reading.DeviceID).
		Float64("x", reading.X).
		Float64("y", reading.Y).
		Msg("UWB reading saved")
	return nil
}

func (p *Pipeline) emitNotification(ctx context.Context, fix models.LocationFix) error {
	notification := models.Notification{
		Message:   fmt.Sprintf("SOS from %s at [%v, %v]", fix.DeviceID, fix.Latitude, fix.Longitude),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.AppendNotification(ctx, notification); err != nil {
		return p.storeFailure(err, fix.DeviceID)
	}

	metrics.NotificationsTotal.Inc()
	p.logger.Info().Str("message", notification.Message).Msg("Notification saved")
	return nil
}

// evaluateGeofence surfaces geofence membership as an observability signal
// only; there is no persisted side effect.
func (p *Pipeline) evaluateGeofence(fix models.LocationFix) {
	result := "outside"
	if p.region.Contains(fix.Latitude, fix.Longitude) {
		result = "inside"
	}

	metrics.GeofenceChecksTotal.WithLabelValues(result).Inc()
	p.logger.Info().
		Str("device_id", fix.DeviceID).
		Str("geofence", result).
		Msg("Geofence evaluated")
}

func (p *Pipeline) reject(kind Kind, topic string, err error) error {
	field := "payload"
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		field = fieldErr.Field
	}

	metrics.RejectedTotal.WithLabelValues(kind.String(), field).Inc()
	p.logger.Error().
		Err(err).
		Str("topic", topic).
		Str("kind", kind.String()).
		Str("field", field).
		Msg("Dropping invalid telemetry message")
	return err
}

func (p *Pipeline) storeFailure(err error, deviceID string) error {
	table := "unknown"
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		table = storeErr.Table
	}

	metrics.StoreErrorsTotal.WithLabelValues(table).Inc()
	p.logger.Error().
		Err(err).
		Str("device_id", deviceID).
		Str("table", table).
		Msg("Store write failed, message lost")
	return err
}
