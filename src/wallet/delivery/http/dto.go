package http

import (
	"github.com/lakkhi/walletd/src/wallet/domain"
)

// SessionDto is the wire form of a session snapshot
// swagger:model SessionDto
type SessionDto struct {
	Status  string `json:"status" example:"connected"`
	Account string `json:"account,omitempty" example:"0xabc..."`
	ChainID uint64 `json:"chain_id,omitempty" example:"56"`
}

func SessionDtoFromDomain(s domain.Session) SessionDto {
	return SessionDto{
		Status:  string(s.Status),
		Account: s.Account,
		ChainID: s.ChainID,
	}
}

// ConnectResponse is returned once the wallet user answered the prompt
// swagger:model ConnectResponse
type ConnectResponse struct {
	Account string `json:"account" example:"0xabc..."`
}

// SwitchChainRequestBody selects the target network
// swagger:model SwitchChainRequestBody
type SwitchChainRequestBody struct {
	ChainID string `json:"chain_id" example:"0x38"` // hex or decimal
}
