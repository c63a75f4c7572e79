package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source is one strategy for pricing a token in USD. A source reports an
// error for any miss (timeout, no data, malformed payload); the resolver
// treats every miss the same way and moves on.
type Source interface {
	Kind() SourceKind
	Quote(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error)
}
