// Package market sources prices from the public Dexscreener API, the last
// rung of the fallback ladder.
package market

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/pricing/domain"
)

// PriceAPI is the slice of the Dexscreener client this source needs.
type PriceAPI interface {
	TokenPriceUSD(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error)
}

type Source struct {
	api PriceAPI
}

var _ domain.Source = (*Source)(nil)

func NewSource(api PriceAPI) *Source {
	return &Source{api: api}
}

func (s *Source) Kind() domain.SourceKind { return domain.SourceMarket }

func (s *Source) Quote(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	return s.api.TokenPriceUSD(ctx, tokenAddress, chainID)
}
