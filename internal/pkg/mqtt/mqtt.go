package mqtt

import (
	"errors"
	"fmt"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/config"
)

// at most once, never retained.
const (
	qos      byte = 0
	retained      = false
)

var (
	ErrConnectTimeout   = errors.New("unable to connect in time")
	ErrPublishTimeout   = errors.New("unable to publish in time")
	ErrSubscribeTimeout = errors.New("unable to subscribe in time")
	ErrConnectionLost   = errors.New("connection to broker lost")
)

type service struct {
	client  paho_mqtt.Client
	timeout time.Duration
	lost    chan error
	logger  *zap.Logger
}

// NewClientOptions maps cfg onto paho options. Auto reconnect is off: a lost
// connection ends the process and the supervisor restarts it.
func NewClientOptions(cfg *config.MqttConfig) *paho_mqtt.ClientOptions {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

func New(opts *paho_mqtt.ClientOptions) *service {
	s := newService(nil, opts.ConnectTimeout)
	opts.SetConnectionLostHandler(s.onConnectionLost)
	s.client = paho_mqtt.NewClient(opts)
	return s
}

func newService(client paho_mqtt.Client, timeout time.Duration) *service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &service{
		client:  client,
		timeout: timeout,
		lost:    make(chan error, 1),
		logger:  zap.L(),
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Info("connected to broker")
	return nil
}

// Lost receives once when the broker connection drops.
func (s *service) Lost() <-chan error {
	return s.lost
}

func (s *service) Disconnect() {
	s.client.Disconnect(250)
}

func (s *service) onConnectionLost(_ paho_mqtt.Client, err error) {
	s.logger.Error("connection to broker lost", zap.Error(err))
	select {
	case s.lost <- fmt.Errorf("%w: %w", ErrConnectionLost, err):
	default:
	}
}
