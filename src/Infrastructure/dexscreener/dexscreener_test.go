package dexscreener

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

const tokenPayload = `{
  "pairs": [
    {"chainId": "bsc", "dexId": "pancakeswap", "priceUsd": "0.0121", "liquidity": {"usd": "1200.50"}},
    {"chainId": "bsc", "dexId": "biswap", "priceUsd": "0.0125", "liquidity": {"usd": "98000.00"}},
    {"chainId": "ethereum", "dexId": "uniswap", "priceUsd": "0.0200", "liquidity": {"usd": "500000.00"}}
  ]
}`

func TestTokenPriceUSDPicksDeepestPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/dex/tokens/0xabc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tokenPayload))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	price, err := c.TokenPriceUSD(context.Background(), "0xabc", 56)
	if err != nil {
		t.Fatalf("TokenPriceUSD: %v", err)
	}
	// the biswap pair has the deepest bsc liquidity; the ethereum pair
	// must be ignored entirely
	if !price.Equal(decimal.RequireFromString("0.0125")) {
		t.Fatalf("price = %s", price)
	}
}

func TestTokenPriceUSDNoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pairs": []}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.TokenPriceUSD(context.Background(), "0xabc", 56); !errors.Is(err, ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}

func TestTokenPriceUSDUnmappedChain(t *testing.T) {
	c, err := NewClient("http://unused.invalid")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.TokenPriceUSD(context.Background(), "0xabc", 424242); !errors.Is(err, ErrNoPairs) {
		t.Fatalf("expected ErrNoPairs, got %v", err)
	}
}
