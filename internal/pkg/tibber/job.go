package tibber

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/config"
	"github.com/anicoll/energy-monitor/internal/pkg/model"
	"github.com/anicoll/energy-monitor/internal/pkg/topic"
)

var upstreamLevels = map[string]model.PriceLevel{
	"VERY_CHEAP":     model.PriceLevelVeryCheap,
	"CHEAP":          model.PriceLevelCheap,
	"NORMAL":         model.PriceLevelNormal,
	"EXPENSIVE":      model.PriceLevelExpensive,
	"VERY_EXPENSIVE": model.PriceLevelVeryExpensive,
}

// NormalizeLevel maps an upstream price level label onto PriceLevel. Unknown
// or missing labels become None.
func NormalizeLevel(label string) model.PriceLevel {
	if level, ok := upstreamLevels[label]; ok {
		return level
	}
	return model.PriceLevelNone
}

type job struct {
	cfg        *config.TibberConfig
	httpClient *http.Client
	publisher  topic.Publisher
	topic      topic.Topic[model.PriceInformation]
	logger     *zap.Logger
}

func NewJob(cfg *config.TibberConfig, publisher topic.Publisher, t topic.Topic[model.PriceInformation]) *job {
	return &job{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		publisher:  publisher,
		topic:      t,
		logger:     zap.L(),
	}
}

func (j *job) Name() string {
	return "tibber-price"
}

// Run is one price cycle. A new session is built every time so nothing from a
// previous cycle is reused.
func (j *job) Run(ctx context.Context) error {
	if err := j.cfg.Validate(); err != nil {
		return err
	}

	session, err := NewSession(ctx, j.cfg.URL, j.cfg.Token, j.httpClient)
	if err != nil {
		return err
	}
	j.logger.Debug("tibber session established", zap.String("user", session.UserID), zap.String("home", session.HomeID))

	price, err := j.fetchWithRetry(ctx, session)
	if err != nil {
		return err
	}
	j.logger.Info("current price",
		zap.Float64("total", price.Total),
		zap.String("currency", price.Currency),
		zap.String("level", price.Level),
		zap.Time("starts_at", price.StartsAt),
	)

	return topic.Publish(j.publisher, j.topic, model.PriceInformation{
		Total: price.Total,
		Level: NormalizeLevel(price.Level),
	})
}

// fetchWithRetry makes up to cfg.Attempts calls, RetryDelay apart. A rejected
// token is not retried.
func (j *job) fetchWithRetry(ctx context.Context, session *Session) (PriceInfo, error) {
	attempts := max(j.cfg.Attempts, 1)
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(j.cfg.RetryDelay), uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	return backoff.RetryNotifyWithData(func() (PriceInfo, error) {
		attempt++
		price, err := session.CurrentPrice(ctx)
		if err != nil && apperr.KindOf(err) == apperr.KindAuth {
			return PriceInfo{}, backoff.Permanent(err)
		}
		return price, err
	}, b, func(err error, next time.Duration) {
		j.logger.Warn("failed to fetch current price, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Duration("retry_in", next),
		)
	})
}
