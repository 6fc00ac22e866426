package handler

import (
	"context"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"

	"github.com/tracknet/tracker-hub/internal/models"
)

// stubStore is an in-memory TelemetryStore for handler tests.
type stubStore struct {
	mu            sync.Mutex
	locations     []models.LocationFix
	readings      []models.UwbReading
	notifications []models.Notification

	lastLocationFn func(deviceID string) (*models.LocationFix, error)
	recentUwbFn    func(limit int) ([]models.UwbReading, error)
}

func (s *stubStore) AppendLocation(_ context.Context, fix models.LocationFix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, fix)
	return nil
}

func (s *stubStore) AppendUwbReading(_ context.Context, reading models.UwbReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, reading)
	return nil
}

func (s *stubStore) AppendNotification(_ context.Context, notification models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

func (s *stubStore) LastLocation(_ context.Context, deviceID string) (*models.LocationFix, error) {
	if s.lastLocationFn != nil {
		return s.lastLocationFn(deviceID)
	}
	return nil, nil
}

func (s *stubStore) RecentUwbReadings(_ context.Context, limit int) ([]models.UwbReading, error) {
	if s.recentUwbFn != nil {
		return s.recentUwbFn(limit)
	}
	return nil, nil
}

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

// MockPublisher is a mock implementation of the MQTTClient interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Connect() MQTT.Token {
	args := m.Called()
	return args.Get(0).(MQTT.Token)
}

func (m *MockPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(MQTT.Token)
}

func (m *MockPublisher) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	args := m.Called(topic, qos, callback)
	return args.Get(0).(MQTT.Token)
}

func (m *MockPublisher) Unsubscribe(topics ...string) MQTT.Token {
	args := m.Called(topics)
	return args.Get(0).(MQTT.Token)
}

func (m *MockPublisher) Disconnect(quiesce uint) {
	m.Called(quiesce)
}
