package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lakkhi/walletd/src/Infrastructure/backendapi"
	walletdomain "github.com/lakkhi/walletd/src/wallet/domain"
)

// Wallet is the slice of the provider session the orchestrator needs:
// the current snapshot for the chain-affinity check and the raw provider
// for submission.
type Wallet interface {
	Snapshot() walletdomain.Session
	Provider() walletdomain.Provider
}

// ChainBackend reads confirmations and gas data over a direct RPC
// connection, independent of the wallet.
type ChainBackend interface {
	TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
	EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// BackendPool hands out a ChainBackend per chain.
type BackendPool interface {
	ForChain(ctx context.Context, chainID uint64) (ChainBackend, error)
}

// PoolFunc adapts a plain function to BackendPool.
type PoolFunc func(ctx context.Context, chainID uint64) (ChainBackend, error)

func (f PoolFunc) ForChain(ctx context.Context, chainID uint64) (ChainBackend, error) {
	return f(ctx, chainID)
}

// ArtifactAPI fetches deployable contract artifacts from the platform
// backend.
type ArtifactAPI interface {
	StakingArtifact(ctx context.Context, chainID uint64) (*backendapi.StakingArtifact, error)
}
