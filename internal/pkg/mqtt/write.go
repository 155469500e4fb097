package mqtt

import (
	"time"

	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

// Publish is fire and forget: it only waits until the transport has taken the message.
func (s *service) Publish(topic string, payload []byte) error {
	token := s.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Debug("published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}
