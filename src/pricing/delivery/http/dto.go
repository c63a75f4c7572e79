package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/pricing/domain"
)

// QuoteDto is one resolved price
// swagger:model QuoteDto
type QuoteDto struct {
	Price       decimal.Decimal `json:"price" example:"0.0123"`
	Source      string          `json:"source" example:"dex"`
	AsOf        time.Time       `json:"as_of"`
	Placeholder bool            `json:"placeholder,omitempty"`
}

func QuoteDtoFromDomain(q domain.Quote) QuoteDto {
	return QuoteDto{
		Price:       q.Price,
		Source:      string(q.Source),
		AsOf:        q.AsOf,
		Placeholder: q.Placeholder,
	}
}
