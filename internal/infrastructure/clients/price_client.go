package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/domain"
	"github.com/moonrisegoods/nps/pkg/config"
)

// PriceOracleClient fetches the spot USD price of XNO from a CoinGecko-style
// simple-price endpoint. A non-success response, a missing rate field or a
// non-positive rate all fail with ErrPriceUnavailable; no rate is cached.
type PriceOracleClient struct {
	baseURL    string
	httpClient *http.Client
	config     *config.PriceOracleConfig
	logger     zerolog.Logger
}

func NewPriceOracleClient(cfg *config.PriceOracleConfig, logger zerolog.Logger) *PriceOracleClient {
	return &PriceOracleClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		config: cfg,
		logger: logger.With().Str("component", "price_oracle_client").Logger(),
	}
}

func (c *PriceOracleClient) USDRate(ctx context.Context) (float64, error) {
	return c.getRateWithRetry(ctx, 0)
}

func (c *PriceOracleClient) getRateWithRetry(ctx context.Context, attempt int) (float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid base URL: %w", err)
	}

	u.Path = "/api/v3/simple/price"
	query := u.Query()
	query.Set("ids", c.config.AssetID)
	query.Set("vs_currencies", "usd")
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if shouldRetry(err) && attempt < c.config.MaxRetries {
			backoff := calculateBackoff(attempt, c.config.RetryBackoffBase)
			c.logger.Info().
				Err(err).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Price request failed, retrying after backoff")

			time.Sleep(backoff)
			return c.getRateWithRetry(ctx, attempt+1)
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if shouldRetryStatusCode(resp.StatusCode) && attempt < c.config.MaxRetries {
			backoff := calculateBackoff(attempt, c.config.RetryBackoffBase)
			c.logger.Warn().
				Int("status_code", resp.StatusCode).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Price service returned non-200, retrying after backoff")

			time.Sleep(backoff)
			return c.getRateWithRetry(ctx, attempt+1)
		}
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Price service request failed")
		return 0, fmt.Errorf("%w: status %s", domain.ErrPriceUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: reading response body: %v", domain.ErrPriceUnavailable, err)
	}

	return c.parseRate(body)
}

func (c *PriceOracleClient) parseRate(body []byte) (float64, error) {
	var response map[string]map[string]float64
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("%w: parsing response: %v", domain.ErrPriceUnavailable, err)
	}

	asset, ok := response[c.config.AssetID]
	if !ok {
		return 0, fmt.Errorf("%w: asset %q missing from response", domain.ErrPriceUnavailable, c.config.AssetID)
	}

	rate, ok := asset["usd"]
	if !ok {
		return 0, fmt.Errorf("%w: usd rate missing from response", domain.ErrPriceUnavailable)
	}

	if rate <= 0 {
		return 0, fmt.Errorf("%w: non-positive rate %v", domain.ErrPriceUnavailable, rate)
	}

	return rate, nil
}

func shouldRetry(err error) bool {
	if err, ok := err.(interface{ Timeout() bool }); ok && err.Timeout() {
		return true
	}
	if err, ok := err.(interface{ Temporary() bool }); ok && err.Temporary() {
		return true
	}
	return false
}

func shouldRetryStatusCode(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

func calculateBackoff(attempt, base int) time.Duration {
	if base <= 0 {
		base = 2
	}
	backoff := time.Duration(base) * time.Second << attempt
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
