// Package fx looks up the live USD→EUR exchange rate used to report the
// EUR equivalent of USD invoices and expenses for Spanish tax purposes.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FallbackRate is the hardcoded last-resort USD→EUR rate used when every
// provider is unreachable. Invoice creation proceeds with it rather than
// failing the whole request.
const FallbackRate = 0.85

// ErrRateUnavailable is returned by Lookup when all providers fail.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

const (
	defaultPrimaryURL = "https://api.exchangerate-api.com/v4/latest/USD"
	defaultECBURL     = "https://api.fxratesapi.com/latest?base=USD&symbols=EUR"
)

// Rate is a USD→EUR quote with its provenance.
type Rate struct {
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Client fetches USD→EUR rates from a primary provider with an ECB-backed
// fallback. The zero value is not usable; use NewClient.
type Client struct {
	httpClient *http.Client
	primaryURL string
	ecbURL     string
	logger     zerolog.Logger
}

// Option customizes a Client; used by tests to point at httptest servers.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithPrimaryURL(url string) Option      { return func(c *Client) { c.primaryURL = url } }
func WithECBURL(url string) Option          { return func(c *Client) { c.ecbURL = url } }

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		primaryURL: defaultPrimaryURL,
		ecbURL:     defaultECBURL,
		logger:     log.With().Str("component", "fx").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup tries each provider in order and returns ErrRateUnavailable if
// none answers with a usable EUR rate.
func (c *Client) Lookup(ctx context.Context) (Rate, error) {
	if rate, err := c.fetchPrimary(ctx); err == nil {
		return rate, nil
	} else {
		c.logger.Warn().Err(err).Msg("primary exchange rate provider failed")
	}
	if rate, err := c.fetchECB(ctx); err == nil {
		return rate, nil
	} else {
		c.logger.Warn().Err(err).Msg("ECB exchange rate provider failed")
	}
	return Rate{}, ErrRateUnavailable
}

// USDToEUR is the rate used on the invoice path: it never fails, falling
// back to FallbackRate when no provider is reachable.
func (c *Client) USDToEUR(ctx context.Context) Rate {
	rate, err := c.Lookup(ctx)
	if err != nil {
		c.logger.Warn().Msg("all exchange rate providers failed, using fallback")
		return Rate{Rate: FallbackRate, Timestamp: time.Now(), Source: "fallback"}
	}
	return rate
}

func (c *Client) fetchPrimary(ctx context.Context) (Rate, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.primaryURL, &payload); err != nil {
		return Rate{}, err
	}
	eur, ok := payload.Rates["EUR"]
	if !ok || eur <= 0 {
		return Rate{}, errors.New("no EUR rate in response")
	}
	return Rate{Rate: eur, Timestamp: time.Now(), Source: "exchangerate-api.com"}, nil
}

func (c *Client) fetchECB(ctx context.Context) (Rate, error) {
	var payload struct {
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := c.getJSON(ctx, c.ecbURL, &payload); err != nil {
		return Rate{}, err
	}
	eur, ok := payload.Rates["EUR"]
	if !ok || eur <= 0 {
		return Rate{}, errors.New("no EUR rate in response")
	}
	ts := time.Now()
	if t, err := time.Parse(time.RFC3339, payload.Date); err == nil {
		ts = t
	}
	return Rate{Rate: eur, Timestamp: ts, Source: "ECB via fxratesapi.com"}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
