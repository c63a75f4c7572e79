package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/retry"
	"github.com/lakkhi/walletd/src/txflow/domain"
	walletdomain "github.com/lakkhi/walletd/src/wallet/domain"
)

var (
	ErrNotConnected = errors.New("no connected account")
	ErrNoArtifact   = errors.New("staking artifact unavailable")
	ErrDeployFailed = errors.New("contract deployment failed")
)

// Config carries the orchestrator's tunables. PollInterval x PollAttempts
// bounds one AwaitConfirmation call; DeployGasLimit is the fixed budget
// for contract creation since wallets estimate creation poorly.
type Config struct {
	PollInterval   time.Duration
	PollAttempts   int
	DeployGasLimit uint64
	GasMarginPct   uint64
}

// Service submits transactions through the connected wallet and tracks
// them to a terminal status over a direct RPC connection.
type Service struct {
	wallet    domain.Wallet
	pool      domain.BackendPool
	artifacts domain.ArtifactAPI
	cfg       Config
	log       *logger.Logger
}

func NewService(wallet domain.Wallet, pool domain.BackendPool, artifacts domain.ArtifactAPI, cfg Config, log *logger.Logger) *Service {
	return &Service{
		wallet:    wallet,
		pool:      pool,
		artifacts: artifacts,
		cfg:       cfg,
		log:       log,
	}
}

// Submit sends a transaction through the wallet and returns it in
// StatusSubmitted. The session's chain is checked against req.ChainID
// before anything reaches the provider: a stale UI assumption must not
// produce a transaction on the wrong chain.
func (s *Service) Submit(ctx context.Context, kind domain.Kind, req domain.Request) (*domain.PendingTransaction, error) {
	sess := s.wallet.Snapshot()
	if !sess.Connected() {
		return nil, fmt.Errorf("%w: session status %s", ErrNotConnected, sess.Status)
	}
	if req.ChainID != 0 && sess.ChainID != req.ChainID {
		return nil, fmt.Errorf("%w: wallet on %d, transaction wants %d",
			walletdomain.ErrChainMismatch, sess.ChainID, req.ChainID)
	}
	provider := s.wallet.Provider()
	if provider == nil {
		return nil, walletdomain.ErrNoProvider
	}

	from := req.From
	if from == "" {
		from = sess.Account
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		// Price from our own node when the caller does not pin one.
		if backend, err := s.pool.ForChain(ctx, sess.ChainID); err == nil {
			suggested, err := backend.SuggestGasPrice(ctx)
			if err != nil {
				s.log.Debugf("gas price suggestion on chain %d: %v", sess.ChainID, err)
			} else {
				gasPrice = suggested
			}
		}
	}
	params := map[string]any{"from": from}
	if req.To != "" {
		params["to"] = req.To
	}
	if len(req.Data) > 0 {
		params["data"] = hexutil.Encode(req.Data)
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		params["value"] = hexutil.EncodeBig(req.Value)
	}
	if req.Gas > 0 {
		params["gas"] = hexutil.EncodeUint64(req.Gas)
	}
	if gasPrice != nil && gasPrice.Sign() > 0 {
		params["gasPrice"] = hexutil.EncodeBig(gasPrice)
	}

	raw, err := provider.Request(ctx, "eth_sendTransaction", params)
	if err != nil {
		return nil, walletdomain.MapRPCError(err)
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return nil, fmt.Errorf("%w: decode tx hash: %v", walletdomain.ErrProvider, err)
	}

	s.log.Infof("submitted %s tx %s on chain %d", kind, hash, sess.ChainID)
	return &domain.PendingTransaction{
		Hash:    hash,
		Kind:    kind,
		ChainID: sess.ChainID,
		Status:  domain.StatusSubmitted,
	}, nil
}

// AwaitConfirmation polls for the transaction's receipt until it lands
// or the polling budget runs out. A timed-out transaction keeps its
// hash; calling AwaitConfirmation again with the same value resumes
// tracking and may still find it confirmed.
func (s *Service) AwaitConfirmation(ctx context.Context, tx *domain.PendingTransaction) (*domain.PendingTransaction, error) {
	if tx == nil || tx.Hash == "" {
		return nil, errors.New("no transaction to track")
	}
	if tx.Terminal() && tx.Status != domain.StatusTimedOut {
		return tx, nil
	}

	backend, err := s.pool.ForChain(ctx, tx.ChainID)
	if err != nil {
		return nil, err
	}

	var receipt *types.Receipt
	err = retry.Poll(ctx, s.cfg.PollInterval, s.cfg.PollAttempts, func(ctx context.Context) (bool, error) {
		r, err := backend.TransactionReceipt(ctx, tx.Hash)
		if err != nil {
			// Transient RPC failures count against the budget but do
			// not abort tracking.
			s.log.Warnf("receipt poll for %s: %v", tx.Hash, err)
			return false, nil
		}
		if r == nil {
			return false, nil
		}
		receipt = r
		return true, nil
	})

	out := *tx
	switch {
	case errors.Is(err, retry.ErrExhausted):
		out.Status = domain.StatusTimedOut
		return &out, nil
	case err != nil:
		return nil, err
	}

	out.Receipt = &domain.Receipt{
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}
	if receipt.ContractAddress != (common.Address{}) {
		out.Receipt.ContractAddress = receipt.ContractAddress.Hex()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		out.Status = domain.StatusFailed
		s.log.Warnf("tx %s reverted in block %d", tx.Hash, out.Receipt.BlockNumber)
	} else {
		out.Status = domain.StatusConfirmed
		s.log.Infof("tx %s confirmed in block %d, gas used %d", tx.Hash, out.Receipt.BlockNumber, out.Receipt.GasUsed)
	}
	return &out, nil
}

// DeployParams are the staking contract's constructor arguments.
type DeployParams struct {
	ChainID      uint64
	Name         string
	TokenAddress string
	Beneficiary  string
	Target       *big.Int
}

// DeployContract fetches the staking artifact, packs the constructor
// arguments onto the creation bytecode and submits the deployment with
// the fixed gas budget. The returned transaction carries the deployed
// address in its receipt once confirmed.
func (s *Service) DeployContract(ctx context.Context, p DeployParams) (*domain.PendingTransaction, error) {
	artifact, err := s.artifacts.StakingArtifact(ctx, p.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoArtifact, err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse abi: %v", ErrNoArtifact, err)
	}
	args, err := parsed.Pack("",
		p.Name,
		common.HexToAddress(p.TokenAddress),
		common.HexToAddress(p.Beneficiary),
		p.Target,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: pack constructor: %v", ErrNoArtifact, err)
	}
	bytecode := common.FromHex(artifact.Bytecode)
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("%w: empty bytecode", ErrNoArtifact)
	}

	return s.Submit(ctx, domain.KindDeploy, domain.Request{
		ChainID: p.ChainID,
		Data:    append(bytecode, args...),
		Gas:     s.cfg.DeployGasLimit,
	})
}

// Deploy runs DeployContract and waits out the confirmation, returning
// the deployed contract address.
func (s *Service) Deploy(ctx context.Context, p DeployParams) (string, *domain.PendingTransaction, error) {
	tx, err := s.DeployContract(ctx, p)
	if err != nil {
		return "", nil, err
	}
	tx, err = s.AwaitConfirmation(ctx, tx)
	if err != nil {
		return "", nil, err
	}
	if tx.Status != domain.StatusConfirmed {
		return "", tx, fmt.Errorf("%w: status %s", ErrDeployFailed, tx.Status)
	}
	if tx.Receipt == nil || tx.Receipt.ContractAddress == "" {
		return "", tx, fmt.Errorf("%w: receipt has no contract address", ErrDeployFailed)
	}
	return tx.Receipt.ContractAddress, tx, nil
}

// EstimateGasWithMargin estimates gas over RPC and pads the result by
// the configured percentage, since staking gas use moves with pool
// state between estimate and inclusion.
func (s *Service) EstimateGasWithMargin(ctx context.Context, chainID uint64, from, to string, data []byte) (uint64, error) {
	backend, err := s.pool.ForChain(ctx, chainID)
	if err != nil {
		return 0, err
	}
	est, err := backend.EstimateGas(ctx, from, to, data, nil)
	if err != nil {
		return 0, err
	}
	return est + est*s.cfg.GasMarginPct/100, nil
}
