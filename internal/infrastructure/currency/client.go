// Package currency implements repositories.CurrencyClient against the
// external currency oracle over HTTP+JSON, wrapping the connection with a
// gobreaker circuit breaker the same way the database package does.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/playerwallet/wallet-service/internal/domain/entities"
	domainerrors "github.com/playerwallet/wallet-service/internal/domain/errors"
	"github.com/playerwallet/wallet-service/internal/infrastructure/config"
	"github.com/playerwallet/wallet-service/pkg/logger"
)

// Client resolves currency reference data from the oracle. Every lookup
// goes through a circuit breaker so a flaky oracle fails fast instead of
// piling up goroutines behind a slow dependency, mirroring how
// internal/infrastructure/database guards the database connection.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logger.Logger
}

// oracleCurrency is the wire shape returned by the oracle.
type oracleCurrency struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func New(cfg config.CurrencyOracleConfig, log *logger.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	breakerSettings := gobreaker.Settings{
		Name:        "currency_oracle",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Transport: transport, Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(breakerSettings),
		logger:  log,
	}
}

func (c *Client) fetch(ctx context.Context, query url.Values) (entities.Currency, error) {
	endpoint := fmt.Sprintf("%s/v1/currencies?%s", c.baseURL, query.Encode())

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build currency oracle request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call currency oracle: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, domainerrors.DataNotFoundError("currency")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("currency oracle returned status %d", resp.StatusCode)
		}

		var body oracleCurrency
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decode currency oracle response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		c.logger.Warn("currency.fetch failed", "endpoint", endpoint, "error", err)
		return entities.Currency{}, err
	}

	oc := result.(oracleCurrency)
	if !oc.Enabled {
		return entities.Currency{}, domainerrors.DataNotFoundError("currency")
	}
	return entities.Currency{ID: oc.ID, Name: oc.Name}, nil
}

// GetEnabledByName resolves a currency by its display name, as sent on the
// Deposit/Withdraw RPCs.
func (c *Client) GetEnabledByName(ctx context.Context, clientID int64, name string) (entities.Currency, error) {
	query := url.Values{}
	query.Set("client_id", strconv.FormatInt(clientID, 10))
	query.Set("name", name)
	return c.fetch(ctx, query)
}

// GetEnabledByID resolves a currency by id, used when reconstructing a
// WalletInfo from a previously recorded transaction that only stored the
// currency id.
func (c *Client) GetEnabledByID(ctx context.Context, clientID int64, currencyID int64) (entities.Currency, error) {
	query := url.Values{}
	query.Set("client_id", strconv.FormatInt(clientID, 10))
	query.Set("currency_id", strconv.FormatInt(currencyID, 10))
	return c.fetch(ctx, query)
}
