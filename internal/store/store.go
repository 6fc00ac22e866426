package store

import (
	"context"
	"fmt"

	"github.com/tracknet/tracker-hub/internal/models"
)

// TelemetryStore is the persistence boundary for the ingestion pipeline.
// All writes are append-only; duplicates are allowed and idempotency is
// explicitly not guaranteed.
type TelemetryStore interface {
	AppendLocation(ctx context.Context, fix models.LocationFix) error
	AppendUwbReading(ctx context.Context, reading models.UwbReading) error
	AppendNotification(ctx context.Context, notification models.Notification) error

	// LastLocation returns the most recent fix for the device, or the most
	// recent fix overall when deviceID is empty. A nil fix means no rows.
	LastLocation(ctx context.Context, deviceID string) (*models.LocationFix, error)

	// RecentUwbReadings returns up to limit readings, newest first.
	RecentUwbReadings(ctx context.Context, limit int) ([]models.UwbReading, error)
}

// StoreError wraps a persistence failure with the table it targeted. The
// pipeline does not retry; it logs the error and drops the message.
type StoreError struct {
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store write to %s failed: %v", e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
