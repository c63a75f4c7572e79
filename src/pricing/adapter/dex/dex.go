// Package dex prices tokens against a chain's liquidity router by
// simulating a fixed-size swap. It only needs a public RPC endpoint, so
// it works with no wallet connected.
package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/pricing/domain"
)

// ChainClient is the slice of the read-only RPC client this source needs.
type ChainClient interface {
	Chain() chains.Chain
	Decimals(ctx context.Context, token string) (uint8, error)
	AmountsOut(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error)
}

// ClientPool hands out per-chain clients.
type ClientPool interface {
	ForChain(ctx context.Context, chainID uint64) (ChainClient, error)
}

type Source struct {
	pool   ClientPool
	logger *logger.Logger
}

var _ domain.Source = (*Source)(nil)

func NewSource(pool ClientPool, logg *logger.Logger) *Source {
	return &Source{pool: pool, logger: logg}
}

func (s *Source) Kind() domain.SourceKind { return domain.SourceDEX }

// Quote simulates swapping one whole token into each of the chain's quote
// assets in priority order and keeps the first route with liquidity. A
// route ending in the wrapped native asset is converted to USD through
// the wrapped-native/stable route.
func (s *Source) Quote(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	client, err := s.pool.ForChain(ctx, chainID)
	if err != nil {
		return decimal.Zero, err
	}
	chain := client.Chain()
	if chain.Router == "" || len(chain.QuoteAssets) == 0 {
		return decimal.Zero, fmt.Errorf("%w: chain %d has no quote route", domain.ErrNoLiquidity, chainID)
	}

	tokenDecimals, err := client.Decimals(ctx, tokenAddress)
	if err != nil {
		return decimal.Zero, err
	}
	oneToken := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals)), nil)

	for _, base := range chain.QuoteAssets {
		amounts, err := client.AmountsOut(ctx, oneToken, []string{tokenAddress, base.Address})
		if err != nil {
			s.logger.Debugf("route %s->%s failed on chain %d: %v", tokenAddress, base.Symbol, chainID, err)
			continue
		}
		out := amounts[len(amounts)-1]
		if out.Sign() == 0 {
			continue
		}
		priceInBase := decimal.NewFromBigInt(out, -int32(base.Decimals))
		if base.USDPegged {
			return priceInBase, nil
		}

		baseUSD, err := s.baseUSDPrice(ctx, client, base)
		if err != nil {
			s.logger.Debugf("base asset %s unpriceable on chain %d: %v", base.Symbol, chainID, err)
			continue
		}
		return priceInBase.Mul(baseUSD), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s on chain %d", domain.ErrNoLiquidity, tokenAddress, chainID)
}

// baseUSDPrice quotes one unit of the wrapped native asset against the
// chain's stable asset.
func (s *Source) baseUSDPrice(ctx context.Context, client ChainClient, base chains.QuoteAsset) (decimal.Decimal, error) {
	stable, ok := client.Chain().Stable()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no stable asset", domain.ErrNoLiquidity)
	}
	oneBase := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(base.Decimals)), nil)
	amounts, err := client.AmountsOut(ctx, oneBase, []string{base.Address, stable.Address})
	if err != nil {
		return decimal.Zero, err
	}
	out := amounts[len(amounts)-1]
	if out.Sign() == 0 {
		return decimal.Zero, domain.ErrNoLiquidity
	}
	return decimal.NewFromBigInt(out, -int32(stable.Decimals)), nil
}

// PoolFunc adapts a closure over the Infrastructure pool to ClientPool.
type PoolFunc func(ctx context.Context, chainID uint64) (ChainClient, error)

func (f PoolFunc) ForChain(ctx context.Context, chainID uint64) (ChainClient, error) {
	return f(ctx, chainID)
}
