package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracknet/tracker-hub/internal/models"
)

// PostgresStore persists telemetry in PostgreSQL through a pgx connection
// pool. The pool serializes writes internally; callers never coordinate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a connection pool against the given DSN and
// verifies it with a ping.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity, used by the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// AppendLocation durably inserts one location fix. There is no uniqueness
// constraint on (device, timestamp); replayed messages insert again.
func (s *PostgresStore) AppendLocation(ctx context.Context, fix models.LocationFix) error {
	query := `
		INSERT INTO locations (device_id, latitude, longitude, timestamp)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.pool.Exec(ctx, query, fix.DeviceID, fix.Latitude, fix.Longitude, fix.Timestamp)
	if err != nil {
		return &StoreError{Table: "locations", Err: err}
	}
	return nil
}

// AppendUwbReading durably inserts one UWB reading. A nil RSSI is stored
// as NULL.
func (s *PostgresStore) AppendUwbReading(ctx context.Context, reading models.UwbReading) error {
	query := `
		INSERT INTO uwb_readings (device_id, x, y, rssi, ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, reading.DeviceID, reading.X, reading.Y, reading.RSSI, reading.Timestamp)
	if err != nil {
		return &StoreError{Table: "uwb_readings", Err: err}
	}
	return nil
}

// AppendNotification durably inserts one notification record.
func (s *PostgresStore) AppendNotification(ctx context.Context, notification models.Notification) error {
	query := `
		INSERT INTO notifications (message, created_at)
		VALUES ($1, $2)
	`
	_, err := s.pool.Exec(ctx, query, notification.Message, notification.CreatedAt)
	if err != nil {
		return &StoreError{Table: "notifications", Err: err}
	}
	return nil
}

// LastLocation returns the newest fix for a device, or the newest fix
// overall when deviceID is empty. Returns nil without error when the table
// has no matching rows.
func (s *PostgresStore) LastLocation(ctx context.Context, deviceID string) (*models.LocationFix, error) {
	query := `
		SELECT device_id, latitude, longitude, timestamp
		FROM locations
		ORDER BY timestamp DESC
		LIMIT 1
	`
	args := []any{}
	if deviceID != "" {
		query = `
			SELECT device_id, latitude, longitude, timestamp
			FROM locations
			WHERE device_id = $1
			ORDER BY timestamp DESC
			LIMIT 1
		`
		args = append(args, deviceID)
	}

	var fix models.LocationFix
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&fix.DeviceID, &fix.Latitude, &fix.Longitude, &fix.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last location: %w", err)
	}

	return &fix, nil
}

// RecentUwbReadings returns up to limit readings ordered newest first.
func (s *PostgresStore) RecentUwbReadings(ctx context.Context, limit int) ([]models.UwbReading, error) {
	query := `
		SELECT device_id, x, y, rssi, ts
		FROM uwb_readings
		ORDER BY ts DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uwb readings: %w", err)
	}
	defer rows.Close()

	readings := make([]models.UwbReading, 0, limit)
	for rows.Next() {
		var reading models.UwbReading
		if err := rows.Scan(&reading.DeviceID, &reading.X, &reading.Y, &reading.RSSI, &reading.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan uwb reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read uwb rows: %w", err)
	}

	return readings, nil
}
