package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/api"
	"github.com/tracknet/tracker-hub/internal/devices"
	"github.com/tracknet/tracker-hub/internal/ingest"
	"github.com/tracknet/tracker-hub/internal/service_registry"
	"github.com/tracknet/tracker-hub/internal/services"
	"github.com/tracknet/tracker-hub/internal/store"
	"github.com/tracknet/tracker-hub/internal/utils"
	"github.com/tracknet/tracker-hub/pkg/file"
	"github.com/tracknet/tracker-hub/pkg/geofence"
	"github.com/tracknet/tracker-hub/pkg/mqtt"
)

func main() {
	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Local development convenience; system environment wins in production
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using system environment")
	}

	fileClient := file.NewFileService()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	clientID := config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", clientID).Msg("Using MQTT client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient, log)
	if err := mqttClient.Initialize(config.MQTT.Broker, clientID, config.MQTT.CACertificate); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	telemetryStore, err := store.NewPostgresStore(ctx, config.Database.URL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer telemetryStore.Close()
	log.Info().Msg("Connected to PostgreSQL")

	// The last-location cache is optional; without Redis the read path
	// falls back to the database.
	var cache *store.LastLocationCache
	if config.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cache, err = store.NewLastLocationCache(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer cache.Close()
		log.Info().Str("addr", config.Redis.Addr).Msg("Connected to Redis")
	}

	region := geofence.Region{
		CenterLatitude:  config.Geofence.CenterLatitude,
		CenterLongitude: config.Geofence.CenterLongitude,
		RadiusKm:        config.Geofence.RadiusKm,
	}
	tracker := devices.NewTracker()

	var fixCache ingest.FixCache
	if cache != nil {
		fixCache = cache
	}
	pipeline := ingest.NewPipeline(telemetryStore, fixCache, region, tracker, log)

	workerPool := utils.NewWorkerPool(config.Ingest.Workers, config.Ingest.Workers)

	router := api.NewRouter(api.RouterDeps{
		Pipeline:  pipeline,
		Publisher: mqttClient,
		Store:     telemetryStore,
		Cache:     cache,
		Tracker:   tracker,
		Database:  telemetryStore,
		Logger:    log,
	})

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(log)
	serviceRegistry.RegisterService("ingestion", services.NewIngestionService(
		services.SubscribedTopics, config.MQTT.QOS, mqttClient, pipeline, workerPool, log))
	serviceRegistry.RegisterService("api", services.NewAPIService(config.HTTP.Addr, router, log))

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Some services failed to stop cleanly")
	}
	mqttClient.Disconnect(250)
}
