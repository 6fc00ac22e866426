package ingest

import "strings"

// Kind identifies which telemetry stream a topic belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindLocation
	KindSos
	KindUwbReading
)

// String returns the kind as a short label, used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindLocation:
		return "location"
	case KindSos:
		return "sos"
	case KindUwbReading:
		return "uwb_reading"
	default:
		return "unknown"
	}
}

// Classify maps a topic to its telemetry kind. Topics that match none of
// the known suffixes are KindUnknown, which the pipeline logs and discards.
func Classify(topic string) Kind {
	switch {
	case strings.HasSuffix(topic, "/location"):
		return KindLocation
	case strings.HasSuffix(topic, "/sos"):
		return KindSos
	case strings.HasSuffix(topic, "/reading"):
		return KindUwbReading
	default:
		return KindUnknown
	}
}

// DeviceIDFromTopic extracts the device identifier from the second topic
// segment, e.g. "gps/device42/sos" yields "device42". Returns the empty
// string when the topic has no such segment.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
