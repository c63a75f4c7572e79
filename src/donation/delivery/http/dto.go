package http

import (
	"time"

	"github.com/lakkhi/walletd/src/donation/domain"
	txhttp "github.com/lakkhi/walletd/src/txflow/delivery/http"
)

// IntentDto is the wire form of a donation flow
// swagger:model IntentDto
type IntentDto struct {
	ID          string                 `json:"id" example:"b9f..."`
	Donor       string                 `json:"donor" example:"0xabc..."`
	Token       string                 `json:"token" example:"0xdef..."`
	PoolAddress string                 `json:"pool_address" example:"0x123..."`
	ChainID     uint64                 `json:"chain_id" example:"56"`
	Amount      string                 `json:"amount" example:"500000000000000000000"`
	USD         string                 `json:"usd,omitempty" example:"125.50"`
	USDSource   string                 `json:"usd_source,omitempty" example:"dex"`
	State       string                 `json:"state" example:"staking"`
	FailReason  string                 `json:"fail_reason,omitempty"`
	ApproveTx   *txhttp.TransactionDto `json:"approve_tx,omitempty"`
	StakeTx     *txhttp.TransactionDto `json:"stake_tx,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func IntentDtoFromDomain(i domain.Intent) IntentDto {
	dto := IntentDto{
		ID:          i.ID.String(),
		Donor:       i.Donor,
		Token:       i.Token,
		PoolAddress: i.PoolAddress,
		ChainID:     i.ChainID,
		State:       string(i.State),
		FailReason:  i.FailReason,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if i.Amount != nil {
		dto.Amount = i.Amount.String()
	}
	if i.USDQuote != nil {
		dto.USD = i.USD.String()
		dto.USDSource = string(i.USDQuote.Source)
	}
	if i.ApproveTx != nil {
		tx := txhttp.TransactionDtoFromDomain(*i.ApproveTx)
		dto.ApproveTx = &tx
	}
	if i.StakeTx != nil {
		tx := txhttp.TransactionDtoFromDomain(*i.StakeTx)
		dto.StakeTx = &tx
	}
	return dto
}

// StartDonationRequestBody starts a donation flow
// swagger:model StartDonationRequestBody
type StartDonationRequestBody struct {
	ChainID     uint64 `json:"chain_id" example:"56"`
	Token       string `json:"token" example:"0xdef..."`
	PoolAddress string `json:"pool_address" example:"0x123..."`
	Amount      string `json:"amount" example:"500000000000000000000"` // integer string in token base units
}
