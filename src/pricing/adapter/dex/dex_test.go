package dex

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/pricing/domain"
)

type fakeClient struct {
	chain  chains.Chain
	routes map[string]*big.Int // "from->to" to amount out for one unit in
}

func (f *fakeClient) Chain() chains.Chain { return f.chain }

func (f *fakeClient) Decimals(ctx context.Context, token string) (uint8, error) {
	return 18, nil
}

func (f *fakeClient) AmountsOut(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error) {
	out, ok := f.routes[path[0]+"->"+path[1]]
	if !ok {
		return nil, errors.New("no route")
	}
	return []*big.Int{amountIn, out}, nil
}

const (
	token   = "0xtoken"
	wrapped = "0xwbnb"
	stable  = "0xbusd"
)

func bscLike() chains.Chain {
	return chains.Chain{
		ID:     56,
		Name:   "BNB Smart Chain",
		Router: "0xrouter",
		QuoteAssets: []chains.QuoteAsset{
			{Symbol: "WBNB", Address: wrapped, Decimals: 18},
			{Symbol: "BUSD", Address: stable, Decimals: 18, USDPegged: true},
		},
	}
}

func sourceFor(client ChainClient) *Source {
	return NewSource(PoolFunc(func(ctx context.Context, chainID uint64) (ChainClient, error) {
		return client, nil
	}), logger.New("dev"))
}

// units converts a decimal string to 18-decimals base units.
func units(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(18).BigInt()
}

func TestQuoteViaWrappedNative(t *testing.T) {
	client := &fakeClient{
		chain: bscLike(),
		routes: map[string]*big.Int{
			// 1 token = 0.002 WBNB, 1 WBNB = 300 BUSD
			token + "->" + wrapped:  units("0.002"),
			wrapped + "->" + stable: units("300"),
		},
	}

	price, err := sourceFor(client).Quote(context.Background(), token, 56)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("0.6")) {
		t.Fatalf("price = %s, want 0.6", price)
	}
}

func TestQuoteFallsBackToStableRoute(t *testing.T) {
	client := &fakeClient{
		chain: bscLike(),
		routes: map[string]*big.Int{
			// no token/WBNB pool, direct stable pool only
			token + "->" + stable: units("0.55"),
		},
	}

	price, err := sourceFor(client).Quote(context.Background(), token, 56)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("0.55")) {
		t.Fatalf("price = %s, want 0.55", price)
	}
}

func TestQuoteSkipsZeroOutputRoute(t *testing.T) {
	client := &fakeClient{
		chain: bscLike(),
		routes: map[string]*big.Int{
			token + "->" + wrapped: big.NewInt(0),
			token + "->" + stable:  units("0.55"),
		},
	}

	price, err := sourceFor(client).Quote(context.Background(), token, 56)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("0.55")) {
		t.Fatalf("price = %s, want 0.55", price)
	}
}

func TestQuoteNoLiquidityAnywhere(t *testing.T) {
	client := &fakeClient{chain: bscLike(), routes: map[string]*big.Int{}}

	_, err := sourceFor(client).Quote(context.Background(), token, 56)
	if !errors.Is(err, domain.ErrNoLiquidity) {
		t.Fatalf("expected ErrNoLiquidity, got %v", err)
	}
}

func TestQuoteNoRouterConfigured(t *testing.T) {
	chain := bscLike()
	chain.Router = ""
	client := &fakeClient{chain: chain}

	_, err := sourceFor(client).Quote(context.Background(), token, 56)
	if !errors.Is(err, domain.ErrNoLiquidity) {
		t.Fatalf("expected ErrNoLiquidity, got %v", err)
	}
}
