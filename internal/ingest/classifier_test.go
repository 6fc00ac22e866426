package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		topic string
		want  Kind
	}{
		{"gps/device42/location", KindLocation},
		{"gps/device42/sos", KindSos},
		{"uwb/tagA/reading", KindUwbReading},
		{"foo/bar", KindUnknown},
		{"gps/device42/telemetry", KindUnknown},
		{"", KindUnknown},
		{"location", KindUnknown},
		{"/location", KindLocation},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.topic), "topic %q", tt.topic)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "location", KindLocation.String())
	assert.Equal(t, "sos", KindSos.String())
	assert.Equal(t, "uwb_reading", KindUwbReading.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestDeviceIDFromTopic(t *testing.T) {
	assert.Equal(t, "device42", DeviceIDFromTopic("gps/device42/sos"))
	assert.Equal(t, "tagA", DeviceIDFromTopic("uwb/tagA/reading"))
	assert.Equal(t, "bar", DeviceIDFromTopic("foo/bar"))
	assert.Equal(t, "", DeviceIDFromTopic("gps"))
	assert.Equal(t, "", DeviceIDFromTopic(""))
}
