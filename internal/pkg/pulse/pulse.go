// Package pulse reads the current power draw from a Tibber Pulse bridge.
package pulse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/config"
	"github.com/anicoll/energy-monitor/internal/pkg/model"
	"github.com/anicoll/energy-monitor/internal/pkg/sml"
	"github.com/anicoll/energy-monitor/internal/pkg/topic"
)

const op = "pulse"

// maxBodySize bounds the telegram read from the bridge.
const maxBodySize = 1 << 20

// CurrentPowerOBIS is 1-0:16.7.0*255, the sum of active instantaneous power.
var CurrentPowerOBIS = []byte{1, 0, 16, 7, 0, 255}

var (
	ErrUnauthorized     = errors.New("bridge rejected credentials")
	ErrUnexpectedStatus = errors.New("unexpected status from bridge")
	ErrBodyTooLarge     = errors.New("bridge response too large")
	ErrFrameCount       = errors.New("expected exactly one sml frame")
	ErrTooFewMessages   = errors.New("expected at least 2 sml messages")
	ErrNotListResponse  = errors.New("expected a get list response")
	ErrReadingNotFound  = errors.New("current power reading not found")
	ErrNotInteger       = errors.New("current power reading is not an integer")
)

type service struct {
	cfg        *config.PulseConfig
	httpClient *http.Client
	publisher  topic.Publisher
	topic      topic.Topic[model.Consumption]
	logger     *zap.Logger
}

func New(cfg *config.PulseConfig, publisher topic.Publisher, t topic.Topic[model.Consumption]) *service {
	return &service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		publisher:  publisher,
		topic:      t,
		logger:     zap.L(),
	}
}

func (s *service) Name() string {
	return "pulse-bridge"
}

// Run is one acquisition cycle. Publishing the same reading twice is harmless.
func (s *service) Run(ctx context.Context) error {
	consumption, err := s.Read(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("current consumption", zap.Int("watts", consumption.Watts))
	return topic.Publish(s.publisher, s.topic, consumption)
}

// Read fetches and decodes one telegram from the bridge.
func (s *service) Read(ctx context.Context) (model.Consumption, error) {
	password, err := s.cfg.Credential()
	if err != nil {
		return model.Consumption{}, err
	}

	body, err := s.fetch(ctx, password)
	if err != nil {
		return model.Consumption{}, err
	}

	frames, err := sml.Decode(body)
	if err != nil {
		return model.Consumption{}, apperr.Decode(op, err)
	}
	if len(frames) != 1 {
		return model.Consumption{}, apperr.Protocol(op, fmt.Errorf("%w, got %d", ErrFrameCount, len(frames)))
	}

	file, err := sml.Parse(frames[0])
	if err != nil {
		return model.Consumption{}, apperr.Decode(op, err)
	}
	return Extract(file)
}

func (s *service) fetch(ctx context.Context, password string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, apperr.Config(op, err)
	}
	req.SetBasicAuth(s.cfg.Username, password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.Auth(op, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.Transport(op, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, apperr.Transport(op, err)
	}
	if len(body) > maxBodySize {
		return nil, apperr.Decode(op, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxBodySize))
	}
	return body, nil
}

// Extract takes the current power from the list response, which is the
// second message of the telegram.
func Extract(file *sml.File) (model.Consumption, error) {
	if len(file.Messages) < 2 {
		return model.Consumption{}, apperr.Protocol(op, fmt.Errorf("%w, got %d", ErrTooFewMessages, len(file.Messages)))
	}
	list, ok := file.Messages[1].Body.(sml.GetListResponse)
	if !ok {
		return model.Consumption{}, apperr.Protocol(op, fmt.Errorf("%w, got tag %#x", ErrNotListResponse, file.Messages[1].Body.Tag()))
	}

	entry, found := lo.Find(list.ValList, func(e sml.ListEntry) bool {
		return bytes.Equal(e.ObjName, CurrentPowerOBIS)
	})
	if !found {
		return model.Consumption{}, apperr.Protocol(op, ErrReadingNotFound)
	}
	watts, ok := entry.ScaledInteger()
	if !ok {
		return model.Consumption{}, apperr.Protocol(op, ErrNotInteger)
	}
	return model.Consumption{Watts: int(watts)}, nil
}
