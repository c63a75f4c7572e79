package domain

import "math/big"

// Kind classifies a submitted transaction.
type Kind string

const (
	KindDeploy  Kind = "deploy"
	KindApprove Kind = "approve"
	KindStake   Kind = "stake"
)

// Status is the lifecycle of one submitted transaction. A transaction
// transitions exactly once from StatusSubmitted to a terminal status.
// StatusTimedOut keeps the hash: the transaction may still land, and a
// later poll with the same hash can find it confirmed.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Receipt is the confirmed on-chain outcome. ContractAddress is set for
// deployments only.
type Receipt struct {
	BlockNumber     uint64 `json:"block_number"`
	GasUsed         uint64 `json:"gas_used"`
	ContractAddress string `json:"contract_address,omitempty"`
}

// PendingTransaction tracks one submission until it reaches a terminal
// status. The orchestrator retains no history; the value belongs to the
// caller.
type PendingTransaction struct {
	Hash    string   `json:"hash"`
	Kind    Kind     `json:"kind"`
	ChainID uint64   `json:"chain_id"`
	Status  Status   `json:"status"`
	Receipt *Receipt `json:"receipt,omitempty"`
}

// Terminal reports whether the transaction reached a final status.
func (p PendingTransaction) Terminal() bool {
	return p.Status != StatusSubmitted
}

// Request describes a transaction to submit through the wallet. From
// defaults to the connected account. Gas of zero lets the wallet estimate.
type Request struct {
	ChainID  uint64
	From     string
	To       string // empty for contract creation
	Data     []byte
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
}
