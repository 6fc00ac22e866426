package models

import "time"

// LocationFix is a single reported device position at a point in time.
type LocationFix struct {
	DeviceID  string    `json:"device_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// SosEvent is a location fix raised as a distress signal. Receiving one
// produces both a LocationFix record and a Notification.
type SosEvent struct {
	LocationFix
	Alert bool `json:"alert"`
}

// UwbReading is a local-coordinate ultra-wideband ranging fix. RSSI is
// optional on the wire; nil means the anchor did not report it.
type UwbReading struct {
	DeviceID  string    `json:"device_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	RSSI      *float64  `json:"rssi"`
	Timestamp time.Time `json:"ts"`
}

// Notification is a human-readable alert record, emitted as a side effect
// of an SOS event.
type Notification struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
