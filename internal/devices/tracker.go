// Package devices keeps an in-memory record of which devices have been
// heard from and when, for the read-side device listing.
package devices

import (
	"sort"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Sighting is one device's most recent contact.
type Sighting struct {
	DeviceID string    `json:"device_id"`
	LastSeen time.Time `json:"last_seen"`
}

// Tracker records the last time each device produced any telemetry. Safe
// for concurrent use by pipeline workers.
type Tracker struct {
	seen cmap.ConcurrentMap[string, time.Time]
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		seen: cmap.New[time.Time](),
	}
}

// Touch records that the device was heard from at the given time.
func (t *Tracker) Touch(deviceID string, at time.Time) {
	t.seen.Set(deviceID, at)
}

// Sightings returns all known devices ordered by most recently seen first.
func (t *Tracker) Sightings() []Sighting {
	sightings := make([]Sighting, 0, t.seen.Count())
	for entry := range t.seen.IterBuffered() {
		sightings = append(sightings, Sighting{DeviceID: entry.Key, LastSeen: entry.Val})
	}

	sort.Slice(sightings, func(i, j int) bool {
		return sightings[i].LastSeen.After(sightings[j].LastSeen)
	})
	return sightings
}
