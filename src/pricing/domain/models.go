package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies which resolver produced a quote.
type SourceKind string

const (
	SourceDEX         SourceKind = "dex"
	SourceBackend     SourceKind = "backend"
	SourceMarket      SourceKind = "market"
	SourcePlaceholder SourceKind = "placeholder"
)

// Errors
var (
	// ErrPriceUnavailable is the aggregate outcome after every source
	// missed. Callers must surface it, never substitute a silent default.
	ErrPriceUnavailable = errors.New("token price unavailable")
	// ErrNoLiquidity marks a DEX route that quoted zero output.
	ErrNoLiquidity = errors.New("no liquidity on quote route")
)

// Quote is a complete price lookup result: USD per one whole token.
// Placeholder quotes are display fallbacks and are never produced by a
// live resolution.
type Quote struct {
	Price       decimal.Decimal `json:"price"`
	Source      SourceKind      `json:"source"`
	AsOf        time.Time       `json:"as_of"`
	Placeholder bool            `json:"placeholder,omitempty"`
}
