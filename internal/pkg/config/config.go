package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
)

var (
	ErrTokenMissing    = errors.New("missing Tibber API token, set TIBBER_API_TOKEN")
	ErrPasswordMissing = errors.New("missing Pulse bridge password, set PULSE_BRIDGE_PASSWORD")
)

type Config struct {
	LogLevel string     `env:"LOG_LEVEL" envDefault:"INFO"`
	MqttCfg  MqttConfig `envPrefix:"MQTT_"`
}

type MqttConfig struct {
	Host           string        `env:"HOST" envDefault:"iotstore"`
	Port           int           `env:"PORT" envDefault:"1883"`
	Username       string        `env:"USER"`
	Password       string        `env:"PASS"`
	ClientID       string        `env:"CLIENT_ID"`
	KeepAlive      time.Duration `env:"KEEP_ALIVE"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
}

type ProviderConfig struct {
	Config
	PulseCfg  PulseConfig  `envPrefix:"PULSE_BRIDGE_"`
	TibberCfg TibberConfig `envPrefix:"TIBBER_"`
}

type PulseConfig struct {
	URL      string `env:"URL" envDefault:"http://192.168.100.60/data.json?node_id=1"`
	Username string `env:"USERNAME" envDefault:"admin"`
	// Password is checked when the meter is polled, not at startup.
	Password string        `env:"PASSWORD"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"15s"`
	Schedule string        `env:"SCHEDULE" envDefault:"*/10 * * * * *"`
}

type TibberConfig struct {
	URL        string        `env:"API_URL" envDefault:"https://api.tibber.com/v1-beta/gql"`
	Token      string        `env:"API_TOKEN"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"15s"`
	Schedule   string        `env:"SCHEDULE" envDefault:"0 2 * * * *"`
	Attempts   int           `env:"ATTEMPTS" envDefault:"3"`
	RetryDelay time.Duration `env:"RETRY_DELAY" envDefault:"60s"`
}

type DisplayConfig struct {
	Config
	QueueSize int `env:"DISPLAY_QUEUE_SIZE" envDefault:"10"`
}

// LoadProvider reads the provider configuration. environ overrides the process
// environment when not nil. A missing Tibber token is a config error.
func LoadProvider(environ map[string]string) (*ProviderConfig, error) {
	cfg, err := env.ParseAsWithOptions[ProviderConfig](env.Options{Environment: environ})
	if err != nil {
		return nil, apperr.Config("load provider config", err)
	}
	if cfg.MqttCfg.ClientID == "" {
		cfg.MqttCfg.ClientID = "tibber_bridge_data_provider"
	}
	if cfg.MqttCfg.KeepAlive == 0 {
		cfg.MqttCfg.KeepAlive = 10 * time.Second
	}
	if err := cfg.TibberCfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadDisplay(environ map[string]string) (*DisplayConfig, error) {
	cfg, err := env.ParseAsWithOptions[DisplayConfig](env.Options{Environment: environ})
	if err != nil {
		return nil, apperr.Config("load display config", err)
	}
	if cfg.MqttCfg.ClientID == "" {
		cfg.MqttCfg.ClientID = "matrix-display-updater"
	}
	if cfg.MqttCfg.KeepAlive == 0 {
		cfg.MqttCfg.KeepAlive = 5 * time.Second
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &cfg, nil
}

func (c TibberConfig) Validate() error {
	if c.Token == "" {
		return apperr.Config("tibber config", ErrTokenMissing)
	}
	return nil
}

// Credential returns the bridge password, failing when it is empty.
func (c PulseConfig) Credential() (string, error) {
	if c.Password == "" {
		return "", apperr.Config("pulse bridge config", ErrPasswordMissing)
	}
	return c.Password, nil
}
