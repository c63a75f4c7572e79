// Package backendapi implements a typed HTTP client for the crowdfunding
// backend. Only the reads the wallet core consumes are covered: the
// aggregated token price and the staking contract artifact.
//
// Notes:
//   - Responses carry a top-level {success, message, ...} envelope; when
//     success != true this client returns an error enriched with message.
//   - Requires an Authorization token only for admin routes, which this
//     client does not call; the option exists for parity with the backend.
package backendapi

import (
	"bytes"
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

// Default HTTP timeouts tuned for server-side usage
var (
	DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}
)

var ErrAPIFailure = errors.New("backend api failure")

// NewClient constructs a new API client. base should be like
// "https://backend.example.com".
func NewClient(base string, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, errors.New("base url is required")
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

// Option functional options
type Option func(*Client)

func WithAuthToken(token string) Option    { return func(c *Client) { c.AuthToken = token } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithLogger(l zerolog.Logger) Option   { return func(c *Client) { c.Logger = l } }

type Client struct {
	BaseURL   *url.URL
	HTTP      *http.Client
	AuthToken string
	UserAgent string
	Logger    zerolog.Logger
}

type priceResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Price   decimal.Decimal `json:"price"`
}

// TokenPrice fetches the backend's aggregated USD price for a token.
func (c *Client) TokenPrice(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("token_address", tokenAddress)
	q.Set("chain_id", fmt.Sprintf("%d", chainID))

	var out priceResponse
	if err := c.do(ctx, http.MethodGet, "/api/token/price/", q, nil, &out); err != nil {
		return decimal.Zero, err
	}
	if !out.Success {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAPIFailure, out.Message)
	}
	return out.Price, nil
}

// StakingArtifact is the deployable staking contract build output.
type StakingArtifact struct {
	Bytecode string          `json:"bytecode"`
	ABI      json.RawMessage `json:"abi"`
}

type artifactResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Artifact StakingArtifact `json:"artifact"`
}

// StakingArtifact fetches the staking contract bytecode and ABI for a
// chain.
func (c *Client) StakingArtifact(ctx context.Context, chainID uint64) (*StakingArtifact, error) {
	q := url.Values{}
	q.Set("chain_id", fmt.Sprintf("%d", chainID))

	var out artifactResponse
	if err := c.do(ctx, http.MethodGet, "/api/contracts/staking/", q, nil, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrAPIFailure, out.Message)
	}
	return &out.Artifact, nil
}

func (c *Client) do(ctx context.Context, method, p string, q url.Values, body, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(u.Path, p)
	u.RawQuery = q.Encode()

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Token "+c.AuthToken)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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
		Str("method", method).
		Str("url", u.String()).
		Int("status", resp.StatusCode).
		Str("duration", time.Since(start).String()).
		Msg("backend response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d: %s", ErrAPIFailure, resp.StatusCode, truncate(b, 512))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", ErrAPIFailure, err)
	}
	return nil
}

func truncate(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
