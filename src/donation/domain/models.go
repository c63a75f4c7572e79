package domain

import (
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pricingdomain "github.com/lakkhi/walletd/src/pricing/domain"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
)

var (
	ErrInsufficientBalance = errors.New("token balance below donation amount")
	ErrFlowInProgress      = errors.New("another donation flow is in progress")
	ErrIntentNotFound      = errors.New("donation intent not found")
)

// State is the donation flow's position. The flow moves strictly
// forward; Approving is skipped when the standing allowance already
// covers the amount.
type State string

const (
	StateIdle              State = "idle"
	StateCheckingBalance   State = "checking_balance"
	StateCheckingAllowance State = "checking_allowance"
	StateApproving         State = "approving"
	StateStaking           State = "staking"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Intent is one donation attempt from balance check to stake
// confirmation. ApproveTx is nil when no approval was needed. USD is
// the amount's display value derived from USDQuote; both stay unset
// when every price source missed.
type Intent struct {
	ID          uuid.UUID                    `json:"id"`
	Donor       string                       `json:"donor"`
	Token       string                       `json:"token"`
	PoolAddress string                       `json:"pool_address"`
	ChainID     uint64                       `json:"chain_id"`
	Amount      *big.Int                     `json:"amount"`
	USD         decimal.Decimal              `json:"usd"`
	USDQuote    *pricingdomain.Quote         `json:"usd_quote,omitempty"`
	State       State                        `json:"state"`
	FailReason  string                       `json:"fail_reason,omitempty"`
	ApproveTx   *txdomain.PendingTransaction `json:"approve_tx,omitempty"`
	StakeTx     *txdomain.PendingTransaction `json:"stake_tx,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}
