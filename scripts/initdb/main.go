// Command initdb creates the telemetry tables. Run it once against a fresh
// database before starting the hub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

var statements = []struct {
	label string
	sql   string
}{
	{
		label: "locations table",
		sql: `
			CREATE TABLE IF NOT EXISTS locations (
				id        BIGSERIAL PRIMARY KEY,
				device_id TEXT             NOT NULL,
				latitude  DOUBLE PRECISION NOT NULL,
				longitude DOUBLE PRECISION NOT NULL,
				timestamp TIMESTAMPTZ      NOT NULL DEFAULT NOW()
			);`,
	},
	{
		label: "uwb_readings table",
		sql: `
			CREATE TABLE IF NOT EXISTS uwb_readings (
				id        BIGSERIAL PRIMARY KEY,
				device_id TEXT             NOT NULL,
				x         DOUBLE PRECISION NOT NULL,
				y         DOUBLE PRECISION NOT NULL,
				rssi      DOUBLE PRECISION,
				ts        TIMESTAMPTZ      NOT NULL DEFAULT NOW()
			);`,
	},
	{
		label: "notifications table",
		sql: `
			CREATE TABLE IF NOT EXISTS notifications (
				id         BIGSERIAL PRIMARY KEY,
				message    TEXT        NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);`,
	},
	{
		label: "locations device/time index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_locations_device_time ON locations (device_id, timestamp DESC);`,
	},
	{
		label: "uwb_readings time index",
		sql:   `CREATE INDEX IF NOT EXISTS idx_uwb_readings_time ON uwb_readings (ts DESC);`,
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()

	fmt.Println("Connecting to PostgreSQL...")
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close(ctx)

	for _, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt.sql); err != nil {
			log.Fatalf("Failed to create %s: %v", stmt.label, err)
		}
		fmt.Printf("✓ %s\n", stmt.label)
	}

	fmt.Println("Database initialised successfully")
}
