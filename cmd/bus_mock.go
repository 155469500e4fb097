package cmd

import (
	"sync"

	"github.com/anicoll/energy-monitor/internal/pkg/mqtt"
)

// MockBus is a mock implementation of the Bus interface.
type MockBus struct {
	ConnectFunc   func() error
	PublishFunc   func(topic string, payload []byte) error
	SubscribeFunc func(topics []string, handler func(mqtt.Message)) error
	LostChan      chan error

	mu           sync.Mutex
	disconnected bool
}

func (m *MockBus) Connect() error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return nil
}

func (m *MockBus) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
}

func (m *MockBus) Disconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

// Lost returns LostChan. A nil channel never receives.
func (m *MockBus) Lost() <-chan error {
	return m.LostChan
}

func (m *MockBus) Publish(topic string, payload []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, payload)
	}
	return nil
}

func (m *MockBus) Subscribe(topics []string, handler func(mqtt.Message)) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(topics, handler)
	}
	return nil
}
