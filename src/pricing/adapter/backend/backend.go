// Package backend treats the application backend's aggregated price as a
// black-box source: any non-success response or malformed payload is a
// miss, never a user-facing error.
package backend

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/pricing/domain"
)

// PriceAPI is the slice of the backend client this source needs.
type PriceAPI interface {
	TokenPrice(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error)
}

type Source struct {
	api PriceAPI
}

var _ domain.Source = (*Source)(nil)

func NewSource(api PriceAPI) *Source {
	return &Source{api: api}
}

func (s *Source) Kind() domain.SourceKind { return domain.SourceBackend }

func (s *Source) Quote(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	price, err := s.api.TokenPrice(ctx, tokenAddress, chainID)
	if err != nil {
		return decimal.Zero, err
	}
	if price.Sign() <= 0 {
		return decimal.Zero, domain.ErrPriceUnavailable
	}
	return price, nil
}
