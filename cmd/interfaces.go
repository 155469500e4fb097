package cmd

import (
	"github.com/anicoll/energy-monitor/internal/pkg/mqtt"
)

// Bus defines what the run loops expect from the broker client.
type Bus interface {
	Connect() error
	Disconnect()
	// Lost receives when the connection to the broker drops.
	Lost() <-chan error
	Publish(topic string, payload []byte) error
	Subscribe(topics []string, handler func(mqtt.Message)) error
}
