package tibber

import (
	"context"
	"fmt"
	"net/http"
	"time"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/samber/lo"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
)

type home struct {
	ID string `graphql:"id"`
}

type viewerQuery struct {
	Viewer struct {
		Login *string `graphql:"login"`
		Homes []home  `graphql:"homes"`
	} `graphql:"viewer"`
}

type currentPrice struct {
	Total    *float64 `graphql:"total"`
	Energy   *float64 `graphql:"energy"`
	Tax      *float64 `graphql:"tax"`
	StartsAt *string  `graphql:"startsAt"`
	Currency string   `graphql:"currency"`
	Level    *string  `graphql:"level"`
}

type priceQuery struct {
	Viewer struct {
		Home struct {
			CurrentSubscription *struct {
				PriceInfo *struct {
					Current *currentPrice `graphql:"current"`
				} `graphql:"priceInfo"`
			} `graphql:"currentSubscription"`
		} `graphql:"home(id: $id)"`
	} `graphql:"viewer"`
}

// PriceInfo is the price for the current hour.
type PriceInfo struct {
	Total    float64
	Energy   float64
	Tax      float64
	StartsAt time.Time
	Currency string
	// Level is the upstream label, e.g. VERY_CHEAP. Empty when missing.
	Level string
}

func newPriceInfo(p currentPrice) (PriceInfo, error) {
	if p.Total == nil {
		return PriceInfo{}, fmt.Errorf("%w: missing total", ErrNoPrice)
	}
	if p.StartsAt == nil {
		return PriceInfo{}, fmt.Errorf("%w: missing startsAt", ErrNoPrice)
	}
	startsAt, err := time.Parse(time.RFC3339, *p.StartsAt)
	if err != nil {
		return PriceInfo{}, fmt.Errorf("%w: %w", ErrNoPrice, err)
	}

	total := *p.Total
	var energy, tax float64
	switch {
	case p.Energy != nil && p.Tax != nil:
		energy, tax = *p.Energy, *p.Tax
	case p.Energy != nil:
		energy, tax = *p.Energy, total-*p.Energy
	case p.Tax != nil:
		energy, tax = total-*p.Tax, *p.Tax
	default:
		energy = total
	}

	return PriceInfo{
		Total:    total,
		Energy:   energy,
		Tax:      tax,
		StartsAt: startsAt,
		Currency: p.Currency,
		Level:    lo.FromPtr(p.Level),
	}, nil
}

// Session is an authenticated view of a single home. It is built once per
// price cycle.
type Session struct {
	client *graphql.Client
	UserID string
	HomeID string
}

// NewSession resolves the viewer identity. Exactly one home is required.
func NewSession(ctx context.Context, url, token string, httpClient *http.Client) (*Session, error) {
	client := newClient(url, token, httpClient)

	var q viewerQuery
	if err := client.Query(ctx, &q, nil); err != nil {
		return nil, classify("tibber viewer", err)
	}

	homes := lo.FilterMap(q.Viewer.Homes, func(h home, _ int) (string, bool) {
		return h.ID, h.ID != ""
	})
	if len(homes) != 1 {
		return nil, apperr.Protocol("tibber viewer", fmt.Errorf("%w, got %d", ErrOnlyOneHomeSupported, len(homes)))
	}
	if q.Viewer.Login == nil {
		return nil, apperr.Protocol("tibber viewer", ErrMissingUserID)
	}

	return &Session{
		client: client,
		UserID: *q.Viewer.Login,
		HomeID: homes[0],
	}, nil
}

// CurrentPrice fetches the price for the current hour. A missing
// subscription, price info or current price are distinct errors.
func (s *Session) CurrentPrice(ctx context.Context) (PriceInfo, error) {
	var q priceQuery
	if err := s.client.Query(ctx, &q, map[string]any{"id": homeID(s.HomeID)}); err != nil {
		return PriceInfo{}, classify("tibber price", err)
	}

	sub := q.Viewer.Home.CurrentSubscription
	if sub == nil {
		return PriceInfo{}, apperr.Protocol("tibber price", ErrNoSubscription)
	}
	if sub.PriceInfo == nil {
		return PriceInfo{}, apperr.Protocol("tibber price", ErrNoPriceInfo)
	}
	if sub.PriceInfo.Current == nil {
		return PriceInfo{}, apperr.Protocol("tibber price", ErrNoCurrentPrice)
	}
	price, err := newPriceInfo(*sub.PriceInfo.Current)
	if err != nil {
		return PriceInfo{}, apperr.Protocol("tibber price", err)
	}
	return price, nil
}
