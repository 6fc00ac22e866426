package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr), "expected FieldError, got %v", err)
	assert.Equal(t, field, fieldErr.Field)
}

func TestParseLocation_NumericFields(t *testing.T) {
	fix, alert, err := ParseLocation([]byte(`{"device_id":"d1","latitude":42.7,"longitude":23.32}`), now)

	require.NoError(t, err)
	assert.Equal(t, "d1", fix.DeviceID)
	assert.Equal(t, 42.7, fix.Latitude)
	assert.Equal(t, 23.32, fix.Longitude)
	assert.Equal(t, now, fix.Timestamp)
	assert.False(t, alert)
}

func TestParseLocation_StringEncodedNumbers(t *testing.T) {
	fix, _, err := ParseLocation([]byte(`{"device_id":"d1","latitude":"42.70","longitude":"23.32"}`), now)

	require.NoError(t, err)
	assert.Equal(t, 42.70, fix.Latitude)
	assert.Equal(t, 23.32, fix.Longitude)
}

func TestParseLocation_AlertFlag(t *testing.T) {
	_, alert, err := ParseLocation([]byte(`{"device_id":"d1","latitude":1,"longitude":2,"alert":true}`), now)
	require.NoError(t, err)
	assert.True(t, alert)
}

func TestParseLocation_NonNumericLatitude(t *testing.T) {
	_, _, err := ParseLocation([]byte(`{"device_id":"d1","latitude":"not-a-number","longitude":23.3}`), now)
	assertFieldError(t, err, "latitude")
}

func TestParseLocation_MissingDeviceID(t *testing.T) {
	_, _, err := ParseLocation([]byte(`{"latitude":42.7,"longitude":23.3}`), now)
	assertFieldError(t, err, "device_id")
}

func TestParseLocation_OutOfRangeCoordinates(t *testing.T) {
	_, _, err := ParseLocation([]byte(`{"device_id":"d1","latitude":91,"longitude":23.3}`), now)
	assertFieldError(t, err, "latitude")

	_, _, err = ParseLocation([]byte(`{"device_id":"d1","latitude":42.7,"longitude":-180.5}`), now)
	assertFieldError(t, err, "longitude")
}

func TestParseLocation_MalformedJSON(t *testing.T) {
	_, _, err := ParseLocation([]byte(`not json`), now)
	assert.Error(t, err)

	var fieldErr *FieldError
	assert.False(t, errors.As(err, &fieldErr))
}

func TestParseSos_DeviceIDFromTopic(t *testing.T) {
	event, err := ParseSos([]byte(`{"latitude":"42.70","longitude":"23.32"}`), "gps/device42/sos", now)

	require.NoError(t, err)
	assert.Equal(t, "device42", event.DeviceID)
	assert.Equal(t, 42.70, event.Latitude)
	assert.Equal(t, 23.32, event.Longitude)
	assert.False(t, event.Alert)
}

func TestParseSos_LegacyShapeRejected(t *testing.T) {
	// The lat/lng shape is a historical variant; only latitude/longitude
	// is accepted.
	_, err := ParseSos([]byte(`{"lat":42.7,"lng":23.3}`), "gps/device42/sos", now)
	assertFieldError(t, err, "latitude")
}

func TestParseSos_EmptyTopicSegment(t *testing.T) {
	_, err := ParseSos([]byte(`{"latitude":42.7,"longitude":23.3}`), "sos", now)
	assertFieldError(t, err, "device_id")
}

func TestParseUwb_FullPayload(t *testing.T) {
	reading, err := ParseUwb([]byte(`{"device_id":"tagA","x":1.5,"y":-2.25,"rssi":-67,"ts":1700000000000}`), "uwb/tagA/reading", now)

	require.NoError(t, err)
	assert.Equal(t, "tagA", reading.DeviceID)
	assert.Equal(t, 1.5, reading.X)
	assert.Equal(t, -2.25, reading.Y)
	require.NotNil(t, reading.RSSI)
	assert.Equal(t, -67.0, *reading.RSSI)
	assert.Equal(t, int64(1700000000), reading.Timestamp.Unix())
}

func TestParseUwb_DeviceIDFallsBackToTopic(t *testing.T) {
	reading, err := ParseUwb([]byte(`{"x":1,"y":2}`), "uwb/tagB/reading", now)

	require.NoError(t, err)
	assert.Equal(t, "tagB", reading.DeviceID)
}

func TestParseUwb_OptionalFieldsAbsent(t *testing.T) {
	reading, err := ParseUwb([]byte(`{"device_id":"tagA","x":"0.5","y":"0.25"}`), "uwb/tagA/reading", now)

	require.NoError(t, err)
	assert.Nil(t, reading.RSSI)
	assert.Equal(t, now, reading.Timestamp)
	assert.Equal(t, 0.5, reading.X)
	assert.Equal(t, 0.25, reading.Y)
}

func TestParseUwb_NullOptionalFieldsTreatedAsAbsent(t *testing.T) {
	reading, err := ParseUwb([]byte(`{"device_id":"tagA","x":1,"y":2,"rssi":null,"ts":null}`), "uwb/tagA/reading", now)

	require.NoError(t, err)
	assert.Nil(t, reading.RSSI)
	assert.Equal(t, now, reading.Timestamp)
}

func TestParseUwb_NonNumericCoordinateRejected(t *testing.T) {
	_, err := ParseUwb([]byte(`{"device_id":"tagA","x":"oops","y":2}`), "uwb/tagA/reading", now)
	assertFieldError(t, err, "x")

	_, err = ParseUwb([]byte(`{"device_id":"tagA","x":1,"y":null}`), "uwb/tagA/reading", now)
	assertFieldError(t, err, "y")
}

func TestParseUwb_InvalidOptionalFieldRejected(t *testing.T) {
	_, err := ParseUwb([]byte(`{"device_id":"tagA","x":1,"y":2,"rssi":"weak"}`), "uwb/tagA/reading", now)
	assertFieldError(t, err, "rssi")

	_, err = ParseUwb([]byte(`{"device_id":"tagA","x":1,"y":2,"ts":"yesterday"}`), "uwb/tagA/reading", now)
	assertFieldError(t, err, "ts")
}
