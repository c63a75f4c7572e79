// Package dexscreener implements a typed HTTP client for the public
// Dexscreener price API (https://docs.dexscreener.com). No authentication
// is required; be polite with call rates.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	DefaultHTTPClient = &http.Client{Timeout: 15 * time.Second}
)

var ErrNoPairs = errors.New("no pairs listed for token")

// chainSlugs maps canonical chain ids onto Dexscreener chain identifiers.
var chainSlugs = map[uint64]string{
	1:  "ethereum",
	56: "bsc",
	97: "bsc",
}

func NewClient(base string, opts ...Option) (*Client, error) {
	if base == "" {
		base = "https://api.dexscreener.com"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c := &Client{
		BaseURL:   u,
		HTTP:      DefaultHTTPClient,
		UserAgent: "walletd/1.0",
		Logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	UserAgent string
	Logger    zerolog.Logger
}

// Pair is one listed trading pair for a token.
type Pair struct {
	ChainID   string          `json:"chainId"`
	DexID     string          `json:"dexId"`
	PriceUSD  decimal.Decimal `json:"priceUsd"`
	Liquidity struct {
		USD decimal.Decimal `json:"usd"`
	} `json:"liquidity"`
}

type tokenResponse struct {
	Pairs []Pair `json:"pairs"`
}

// TokenPriceUSD returns the USD price from the deepest-liquidity pair
// listed for the token on the given chain.
func (c *Client) TokenPriceUSD(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	slug, ok := chainSlugs[chainID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: chain %d not mapped", ErrNoPairs, chainID)
	}

	var out tokenResponse
	if err := c.get(ctx, "/latest/dex/tokens/"+tokenAddress, &out); err != nil {
		return decimal.Zero, err
	}

	var (
		best      decimal.Decimal
		bestDepth decimal.Decimal
		found     bool
	)
	for _, p := range out.Pairs {
		if p.ChainID != slug || p.PriceUSD.IsZero() {
			continue
		}
		if !found || p.Liquidity.USD.GreaterThan(bestDepth) {
			best = p.PriceUSD
			bestDepth = p.Liquidity.USD
			found = true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", ErrNoPairs, tokenAddress, slug)
	}
	return best, nil
}

func (c *Client) get(ctx context.Context, p string, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	c.Logger.Info().
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String()).
		Msg("dexscreener response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http error %d", resp.StatusCode)
	}
	return json.Unmarshal(b, out)
}
