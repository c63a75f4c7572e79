package domain

import (
	"context"
	"math/big"

	pricingdomain "github.com/lakkhi/walletd/src/pricing/domain"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
	walletdomain "github.com/lakkhi/walletd/src/wallet/domain"
)

// Wallet exposes the session snapshot the flow reads the donor account
// and active chain from.
type Wallet interface {
	Snapshot() walletdomain.Session
}

// TokenReader performs the ERC-20 reads the flow gates on. Reads go
// over a direct RPC connection, never through the wallet.
type TokenReader interface {
	BalanceOf(ctx context.Context, token, holder string) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
	Decimals(ctx context.Context, token string) (uint8, error)
}

// Pricer supplies the quote the intent's USD figure derives from.
// Pricing is best-effort: a miss leaves the intent unpriced and never
// fails the flow.
type Pricer interface {
	Resolve(ctx context.Context, tokenAddress string, chainID uint64) (*pricingdomain.Quote, error)
}

// TokenReaderPool hands out a TokenReader per chain.
type TokenReaderPool interface {
	ForChain(ctx context.Context, chainID uint64) (TokenReader, error)
}

// PoolFunc adapts a plain function to TokenReaderPool.
type PoolFunc func(ctx context.Context, chainID uint64) (TokenReader, error)

func (f PoolFunc) ForChain(ctx context.Context, chainID uint64) (TokenReader, error) {
	return f(ctx, chainID)
}

// IntentRepository keeps the donation history. Writes are best-effort:
// a failed save never stalls or fails the flow itself.
type IntentRepository interface {
	SaveIntent(ctx context.Context, intent Intent) error
	ListRecent(ctx context.Context, limit int) ([]Intent, error)
}

// Orchestrator is the transaction surface the flow drives: submit,
// track, and gas sizing.
type Orchestrator interface {
	Submit(ctx context.Context, kind txdomain.Kind, req txdomain.Request) (*txdomain.PendingTransaction, error)
	AwaitConfirmation(ctx context.Context, tx *txdomain.PendingTransaction) (*txdomain.PendingTransaction, error)
	EstimateGasWithMargin(ctx context.Context, chainID uint64, from, to string, data []byte) (uint64, error)
}
