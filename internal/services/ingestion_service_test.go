package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tracknet/tracker-hub/internal/devices"
	"github.com/tracknet/tracker-hub/internal/ingest"
	"github.com/tracknet/tracker-hub/internal/models"
	"github.com/tracknet/tracker-hub/internal/services"
	"github.com/tracknet/tracker-hub/internal/utils"
	"github.com/tracknet/tracker-hub/pkg/geofence"
)

// fakeToken is a completed mqtt.Token carrying an optional error.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
func (t *fakeToken) Error() error { return t.err }

// MockMQTTClient is a mock implementation of the MQTTClient interface
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() MQTT.Token {
	args := m.Called()
	return args.Get(0).(MQTT.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(MQTT.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(MQTT.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) MQTT.Token {
	args := m.Called(topics)
	return args.Get(0).(MQTT.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// mockMessage implements MQTT.Message for testing
type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) MessageID() uint16 { return 1 }
func (m *mockMessage) Ack()              {}

// memoryStore is an in-memory TelemetryStore for service-level tests.
type memoryStore struct {
	mu            sync.Mutex
	locations     []models.LocationFix
	readings      []models.UwbReading
	notifications []models.Notification
}

func (s *memoryStore) AppendLocation(_ context.Context, fix models.LocationFix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, fix)
	return nil
}

func (s *memoryStore) AppendUwbReading(_ context.Context, reading models.UwbReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, reading)
	return nil
}

func (s *memoryStore) AppendNotification(_ context.Context, notification models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *memoryStore) LastLocation(context.Context, string) (*models.LocationFix, error) {
	return nil, nil
}

func (s *memoryStore) RecentUwbReadings(context.Context, int) ([]models.UwbReading, error) {
	return nil, nil
}

func (s *memoryStore) locationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations)
}

func newService(client *MockMQTTClient, memStore *memoryStore) *services.IngestionService {
	region := geofence.Region{CenterLatitude: 42.6977, CenterLongitude: 23.3219, RadiusKm: 1}
	pipeline := ingest.NewPipeline(memStore, nil, region, devices.NewTracker(), zerolog.Nop())
	pool := utils.NewWorkerPool(2, 2)
	return services.NewIngestionService(services.SubscribedTopics, 1, client, pipeline, pool, zerolog.Nop())
}

func TestIngestionService_Start_SubscribesToAllTopics(t *testing.T) {
	mockClient := new(MockMQTTClient)
	mockClient.On("Subscribe", mock.Anything, byte(1), mock.Anything).Return(&fakeToken{})

	svc := newService(mockClient, &memoryStore{})

	require.NoError(t, svc.Start())
	mockClient.AssertNumberOfCalls(t, "Subscribe", len(services.SubscribedTopics))

	// Starting twice fails
	err := svc.Start()
	require.Error(t, err)
	assert.Equal(t, "ingestion service is already running", err.Error())

	mockClient.On("Unsubscribe", mock.Anything).Return(&fakeToken{})
	require.NoError(t, svc.Stop())
}

func TestIngestionService_Start_SubscriptionFailureIsNotFatal(t *testing.T) {
	mockClient := new(MockMQTTClient)
	mockClient.On("Subscribe", "gps/+/location", mock.Anything, mock.Anything).
		Return(&fakeToken{err: errors.New("broker unavailable")})
	mockClient.On("Subscribe", "gps/+/sos", mock.Anything, mock.Anything).Return(&fakeToken{})
	mockClient.On("Subscribe", "uwb/+/reading", mock.Anything, mock.Anything).Return(&fakeToken{})

	svc := newService(mockClient, &memoryStore{})

	require.NoError(t, svc.Start())

	mockClient.On("Unsubscribe", mock.Anything).Return(&fakeToken{})
	require.NoError(t, svc.Stop())
}

func TestIngestionService_HandleMessage_PersistsLocation(t *testing.T) {
	mockClient := new(MockMQTTClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(&fakeToken{})
	mockClient.On("Unsubscribe", mock.Anything).Return(&fakeToken{})

	memStore := &memoryStore{}
	svc := newService(mockClient, memStore)
	require.NoError(t, svc.Start())

	svc.HandleMessage(nil, &mockMessage{
		topic:   "gps/d1/location",
		payload: []byte(`{"device_id":"d1","latitude":42.7,"longitude":23.32}`),
	})

	assert.Eventually(t, func() bool {
		return memStore.locationCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Stop())
}

func TestIngestionService_Stop_NotRunning(t *testing.T) {
	mockClient := new(MockMQTTClient)
	svc := newService(mockClient, &memoryStore{})

	err := svc.Stop()
	require.Error(t, err)
	assert.Equal(t, "ingestion service is not running", err.Error())
}

func TestIngestionService_Stop_IgnoresLateMessages(t *testing.T) {
	mockClient := new(MockMQTTClient)
	mockClient.On("Subscribe", mock.Anything, mock.Anything, mock.Anything).Return(&fakeToken{})
	mockClient.On("Unsubscribe", mock.Anything).Return(&fakeToken{})

	memStore := &memoryStore{}
	svc := newService(mockClient, memStore)
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Stop())

	svc.HandleMessage(nil, &mockMessage{
		topic:   "gps/d1/location",
		payload: []byte(`{"device_id":"d1","latitude":42.7,"longitude":23.32}`),
	})

	assert.Equal(t, 0, memStore.locationCount())
}
