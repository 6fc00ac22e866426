package services

import (
	"context"
	"errors"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tracknet/tracker-hub/internal/ingest"
	"github.com/tracknet/tracker-hub/internal/utils"
	"github.com/tracknet/tracker-hub/pkg/mqtt"
)

// SubscribedTopics are the wildcard patterns the hub consumes. `+` matches
// one segment: the device id.
var SubscribedTopics = []string{
	"gps/+/location",
	"gps/+/sos",
	"uwb/+/reading",
}

// IngestionService subscribes to the telemetry topics and feeds every
// delivered message through the ingestion pipeline on a worker pool, so a
// slow store write never stalls the transport callback for long.
type IngestionService struct {
	// Configuration fields
	topics []string
	qos    int

	// Dependencies
	mqttClient mqtt.MQTTClient
	pipeline   *ingest.Pipeline
	workerPool *utils.WorkerPool
	logger     zerolog.Logger

	// Internal state management
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewIngestionService creates a new IngestionService instance.
func NewIngestionService(topics []string, qos int, mqttClient mqtt.MQTTClient,
	pipeline *ingest.Pipeline, workerPool *utils.WorkerPool, logger zerolog.Logger) *IngestionService {
	return &IngestionService{
		topics:     topics,
		qos:        qos,
		mqttClient: mqttClient,
		pipeline:   pipeline,
		workerPool: workerPool,
		logger:     logger,
	}
}

// Start subscribes to all telemetry topics. A failed subscription is
// logged and skipped rather than aborting startup; the remaining topics
// still flow.
func (s *IngestionService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn().Msg("IngestionService is already running")
		return errors.New("ingestion service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.stopChan = make(chan struct{})

	for _, topic := range s.topics {
		token := s.mqttClient.Subscribe(topic, byte(s.qos), s.HandleMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			s.logger.Error().Err(err).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
			continue
		}
		s.logger.Info().Str("topic", topic).Msg("Subscribed to MQTT topic")
	}

	s.running = true
	return nil
}

// Stop unsubscribes, waits for in-flight messages and shuts the pool down.
func (s *IngestionService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("IngestionService is not running")
		return errors.New("ingestion service is not running")
	}
	s.cancel()
	close(s.stopChan)
	s.running = false
	s.mu.Unlock()

	token := s.mqttClient.Unsubscribe(s.topics...)
	token.Wait()
	if err := token.Error(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to unsubscribe from MQTT topics")
		return err
	}

	s.wg.Wait()
	s.workerPool.Shutdown()

	s.logger.Info().Msg("IngestionService stopped successfully")
	return nil
}

// HandleMessage is the paho callback. It hands the message to the worker
// pool and returns, so transport-level delivery is only ever blocked by a
// full queue.
func (s *IngestionService) HandleMessage(_ MQTT.Client, msg MQTT.Message) {
	s.mu.Lock()
	select {
	case <-s.stopChan:
		s.mu.Unlock()
		s.logger.Warn().Str("topic", msg.Topic()).Msg("Received message but service is stopping, ignoring")
		return
	default:
		s.wg.Add(1)
		s.mu.Unlock()
	}

	topic := msg.Topic()
	payload := msg.Payload()

	s.workerPool.Submit(func() {
		defer s.wg.Done()
		// Errors are already logged and counted by the pipeline; a failed
		// message is dropped, never re-queued.
		_ = s.pipeline.ProcessMessage(s.ctx, topic, payload)
	})
}
