package http

import (
	"github.com/lakkhi/walletd/src/txflow/domain"
)

// TransactionDto is the wire form of a tracked transaction
// swagger:model TransactionDto
type TransactionDto struct {
	Hash    string      `json:"hash" example:"0xabc..."`
	Kind    string      `json:"kind" example:"deploy"`
	ChainID uint64      `json:"chain_id" example:"56"`
	Status  string      `json:"status" example:"confirmed"`
	Receipt *ReceiptDto `json:"receipt,omitempty"`
}

// ReceiptDto is the confirmed on-chain outcome
// swagger:model ReceiptDto
type ReceiptDto struct {
	BlockNumber     uint64 `json:"block_number" example:"34712345"`
	GasUsed         uint64 `json:"gas_used" example:"2534120"`
	ContractAddress string `json:"contract_address,omitempty" example:"0xdef..."`
}

func TransactionDtoFromDomain(tx domain.PendingTransaction) TransactionDto {
	dto := TransactionDto{
		Hash:    tx.Hash,
		Kind:    string(tx.Kind),
		ChainID: tx.ChainID,
		Status:  string(tx.Status),
	}
	if tx.Receipt != nil {
		dto.Receipt = &ReceiptDto{
			BlockNumber:     tx.Receipt.BlockNumber,
			GasUsed:         tx.Receipt.GasUsed,
			ContractAddress: tx.Receipt.ContractAddress,
		}
	}
	return dto
}

// DeployRequestBody carries the staking contract's constructor arguments
// swagger:model DeployRequestBody
type DeployRequestBody struct {
	ChainID      uint64 `json:"chain_id" example:"56"`
	Name         string `json:"name" example:"clean-water-campaign"`
	TokenAddress string `json:"token_address" example:"0xabc..."`
	Beneficiary  string `json:"beneficiary" example:"0xdef..."`
	Target       string `json:"target" example:"1000000000000000000000"` // integer string in token base units
}

// AwaitRequestBody resumes tracking of a submitted transaction
// swagger:model AwaitRequestBody
type AwaitRequestBody struct {
	Hash    string `json:"hash" example:"0xabc..."`
	ChainID uint64 `json:"chain_id" example:"56"`
	Kind    string `json:"kind" example:"stake"`
}
