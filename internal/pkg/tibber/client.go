// Package tibber fetches the current electricity price from the Tibber GraphQL API.
package tibber

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	graphql "github.com/hasura/go-graphql-client"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
)

const userAgent = "energy-monitor/tibber"

var (
	ErrUnauthorized         = errors.New("tibber API token is not valid")
	ErrGraphQL              = errors.New("tibber API returned an error")
	ErrOnlyOneHomeSupported = errors.New("only one home is supported")
	ErrMissingUserID        = errors.New("viewer has no login")
	ErrNoSubscription       = errors.New("no subscription")
	ErrNoPriceInfo          = errors.New("no price info")
	ErrNoCurrentPrice       = errors.New("no current price")
	ErrNoPrice              = errors.New("current price is incomplete")
)

// homeID is sent as the GraphQL ID scalar.
type homeID string

func (homeID) GetGraphQLType() string { return "ID" }

func newClient(url, token string, httpClient *http.Client) *graphql.Client {
	return graphql.NewClient(url, httpClient).WithRequestModifier(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("User-Agent", userAgent)
	})
}

// classify maps a client error onto the error taxonomy. Any error message
// mentioning "not authorized" means the token was rejected.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "not authorized") {
		return apperr.Auth(op, fmt.Errorf("%w: %w", ErrUnauthorized, err))
	}

	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) || len(gqlErrs) == 0 {
		return apperr.Transport(op, err)
	}
	code, _ := gqlErrs[0].Extensions["code"].(string)
	switch code {
	case graphql.ErrRequestError:
		return apperr.Transport(op, err)
	case graphql.ErrJsonDecode, graphql.ErrGraphQLDecode:
		return apperr.Decode(op, err)
	}
	return apperr.Transport(op, fmt.Errorf("%w: %s", ErrGraphQL, gqlErrs[0].Message))
}
