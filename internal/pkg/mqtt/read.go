package mqtt

import (
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Message is a raw message as received from the broker.
type Message struct {
	Topic     string
	Payload   []byte
	Timestamp time.Time
}

// Subscribe registers the fixed set of topics. handler runs on the network
// goroutine of the client, so it must hand the message off and return.
func (s *service) Subscribe(topics []string, handler func(Message)) error {
	filters := lo.SliceToMap(topics, func(t string) (string, byte) {
		return t, qos
	})
	token := s.client.SubscribeMultiple(filters, func(_ paho_mqtt.Client, m paho_mqtt.Message) {
		handler(Message{
			Topic:     m.Topic(),
			Payload:   m.Payload(),
			Timestamp: time.Now(),
		})
	})
	if !token.WaitTimeout(s.timeout) {
		return ErrSubscribeTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Info("subscribed", zap.Strings("topics", topics))
	return nil
}
