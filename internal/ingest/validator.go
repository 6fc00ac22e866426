package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tracknet/tracker-hub/internal/models"
)

// FieldError reports a required payload field that is absent or cannot be
// coerced to the expected type. It is a value, not a fault: the pipeline
// drops the message and moves on.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("missing or invalid field %q", e.Field)
}

// ParseLocation validates a gps/+/location payload. Numeric fields may
// arrive as JSON numbers or string-encoded numbers. The returned alert flag
// defaults to false when absent.
func ParseLocation(raw []byte, now time.Time) (models.LocationFix, bool, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.LocationFix{}, false, fmt.Errorf("malformed JSON payload: %w", err)
	}

	deviceID, ok := payload["device_id"].(string)
	if !ok || deviceID == "" {
		return models.LocationFix{}, false, &FieldError{Field: "device_id"}
	}

	latitude, longitude, err := coordinates(payload)
	if err != nil {
		return models.LocationFix{}, false, err
	}

	return models.LocationFix{
		DeviceID:  deviceID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: now,
	}, alertFlag(payload), nil
}

// ParseSos validates a gps/+/sos payload. The canonical shape carries
// latitude/longitude in the body and the device id in the topic's second
// segment; the legacy lat/lng shape is rejected.
func ParseSos(raw []byte, topic string, now time.Time) (models.SosEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.SosEvent{}, fmt.Errorf("malformed JSON payload: %w", err)
	}

	deviceID := DeviceIDFromTopic(topic)
	if deviceID == "" {
		return models.SosEvent{}, &FieldError{Field: "device_id"}
	}

	latitude, longitude, err := coordinates(payload)
	if err != nil {
		return models.SosEvent{}, err
	}

	return models.SosEvent{
		LocationFix: models.LocationFix{
			DeviceID:  deviceID,
			Latitude:  latitude,
			Longitude: longitude,
			Timestamp: now,
		},
		Alert: alertFlag(payload),
	}, nil
}

// ParseUwb validates a uwb/+/reading payload. The device id may come from
// the payload or fall back to the topic segment. A client-supplied ts is
// epoch milliseconds; when absent the ingestion wall clock is used. RSSI is
// optional and stays nil when absent.
func ParseUwb(raw []byte, topic string, now time.Time) (models.UwbReading, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.UwbReading{}, fmt.Errorf("malformed JSON payload: %w", err)
	}

	deviceID, _ := payload["device_id"].(string)
	if deviceID == "" {
		deviceID = DeviceIDFromTopic(topic)
	}
	if deviceID == "" {
		return models.UwbReading{}, &FieldError{Field: "device_id"}
	}

	x, err := numericField(payload, "x")
	if err != nil {
		return models.UwbReading{}, err
	}
	y, err := numericField(payload, "y")
	if err != nil {
		return models.UwbReading{}, err
	}

	var rssi *float64
	if value, present := payload["rssi"]; present && value != nil {
		value, err := numericField(payload, "rssi")
		if err != nil {
			return models.UwbReading{}, err
		}
		rssi = &value
	}

	timestamp := now
	if value, present := payload["ts"]; present && value != nil {
		epochMs, err := numericField(payload, "ts")
		if err != nil {
			return models.UwbReading{}, err
		}
		timestamp = time.UnixMilli(int64(epochMs)).UTC()
	}

	return models.UwbReading{
		DeviceID:  deviceID,
		X:         x,
		Y:         y,
		RSSI:      rssi,
		Timestamp: timestamp,
	}, nil
}

// coordinates extracts and range-checks latitude/longitude. Out-of-range
// values are rejected rather than stored uncoerced.
func coordinates(payload map[string]any) (float64, float64, error) {
	latitude, err := numericField(payload, "latitude")
	if err != nil {
		return 0, 0, err
	}
	if latitude < -90 || latitude > 90 {
		return 0, 0, &FieldError{Field: "latitude"}
	}

	longitude, err := numericField(payload, "longitude")
	if err != nil {
		return 0, 0, err
	}
	if longitude < -180 || longitude > 180 {
		return 0, 0, &FieldError{Field: "longitude"}
	}

	return latitude, longitude, nil
}

// numericField coerces a JSON number or string-encoded number. Absence,
// non-numeric types, NaN and infinities are all rejections, not zero-fills.
func numericField(payload map[string]any, field string) (float64, error) {
	value, ok := payload[field]
	if !ok || value == nil {
		return 0, &FieldError{Field: field}
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, &FieldError{Field: field}
		}
		return parsed, nil
	default:
		return 0, &FieldError{Field: field}
	}
}

func alertFlag(payload map[string]any) bool {
	alert, _ := payload["alert"].(bool)
	return alert
}
