package utils

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"

	"github.com/tracknet/tracker-hub/pkg/file"
)

// Config represents the structure of the configuration file. Values from
// the YAML file can be overridden by environment variables, so secrets like
// the database DSN never have to live on disk.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker" env:"MQTT_BROKER_URL, overwrite" validate:"required"` // MQTT broker address
		ClientID      string `yaml:"client_id" env:"MQTT_CLIENT_ID, overwrite"`                   // MQTT client ID prefix
		CACertificate string `yaml:"ca_certificate" env:"MQTT_CA_CERT, overwrite"`                // Path to the CA certificate, empty disables TLS
		QOS           int    `yaml:"qos" validate:"min=0,max=2"`                                  // MQTT QoS level for subscriptions
	} `yaml:"mqtt"`

	HTTP struct {
		Addr string `yaml:"addr" env:"HTTP_ADDR, overwrite" validate:"required"` // Listen address for the API server
	} `yaml:"http"`

	Database struct {
		URL string `yaml:"url" env:"DATABASE_URL, overwrite" validate:"required"` // PostgreSQL DSN
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR, overwrite"` // Redis address, empty disables the cache
		Password string `yaml:"password" env:"REDIS_PASSWORD, overwrite"`
		DB       int    `yaml:"db" env:"REDIS_DB, overwrite"`
	} `yaml:"redis"`

	Geofence struct {
		CenterLatitude  float64 `yaml:"center_latitude" validate:"min=-90,max=90"`    // Geofence center latitude
		CenterLongitude float64 `yaml:"center_longitude" validate:"min=-180,max=180"` // Geofence center longitude
		RadiusKm        float64 `yaml:"radius_km" validate:"min=0"`                   // Geofence radius in kilometers
	} `yaml:"geofence"`

	Ingest struct {
		Workers int `yaml:"workers" validate:"min=1"` // Concurrent pipeline workers
	} `yaml:"ingest"`
}

// LoadConfig loads the YAML configuration from the specified file, applies
// environment overrides and validates the result.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	if err := envconfig.Process(context.Background(), &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
