package usecase

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/donation/domain"
	"github.com/lakkhi/walletd/src/logger"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
)

const erc20WriteABI = `[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

const stakingABI = `[{"inputs":[{"name":"amount","type":"uint256"}],"name":"stake","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

// Config carries the flow's tunables. Approvals get a fixed gas budget;
// stake gas is estimated with the orchestrator's margin. Terminal
// intents stay readable in memory for RetainTerminal before eviction;
// the history repository keeps the durable record.
type Config struct {
	ApproveGasLimit uint64
	RetainTerminal  time.Duration
}

// Params describe one donation: amount of token staked into the
// campaign pool on chainID.
type Params struct {
	ChainID     uint64
	Token       string
	PoolAddress string
	Amount      *big.Int
}

// Service drives a donation from balance check through staking. One
// flow runs at a time; a second Start while one is active is refused
// rather than queued, since each step prompts the wallet user.
type Service struct {
	wallet  domain.Wallet
	pool    domain.TokenReaderPool
	orch    domain.Orchestrator
	prices  domain.Pricer           // nil disables USD pricing
	history domain.IntentRepository // nil disables the audit trail
	cfg     Config
	log     *logger.Logger

	erc20   abi.ABI
	staking abi.ABI

	mu      sync.Mutex
	active  uuid.UUID
	intents map[uuid.UUID]*domain.Intent
	subs    map[int]chan domain.Intent
	nextSub int
}

func NewService(wallet domain.Wallet, pool domain.TokenReaderPool, orch domain.Orchestrator, prices domain.Pricer, history domain.IntentRepository, cfg Config, log *logger.Logger) (*Service, error) {
	erc20, err := abi.JSON(strings.NewReader(erc20WriteABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	staking, err := abi.JSON(strings.NewReader(stakingABI))
	if err != nil {
		return nil, fmt.Errorf("parse staking abi: %w", err)
	}
	if cfg.RetainTerminal <= 0 {
		cfg.RetainTerminal = 10 * time.Minute
	}
	return &Service{
		wallet:  wallet,
		pool:    pool,
		orch:    orch,
		prices:  prices,
		history: history,
		cfg:     cfg,
		log:     log,
		erc20:   erc20,
		staking: staking,
		intents: make(map[uuid.UUID]*domain.Intent),
		subs:    make(map[int]chan domain.Intent),
	}, nil
}

// Start validates the session, registers a new intent and runs the flow
// in the background. Progress is observable through Intent and
// Subscribe.
func (s *Service) Start(ctx context.Context, p Params) (domain.Intent, error) {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return domain.Intent{}, fmt.Errorf("donation amount must be positive")
	}
	sess := s.wallet.Snapshot()
	if !sess.Connected() {
		return domain.Intent{}, fmt.Errorf("wallet not connected: status %s", sess.Status)
	}

	s.mu.Lock()
	if s.active != uuid.Nil {
		s.mu.Unlock()
		return domain.Intent{}, domain.ErrFlowInProgress
	}
	now := time.Now()
	intent := &domain.Intent{
		ID:          uuid.New(),
		Donor:       sess.Account,
		Token:       p.Token,
		PoolAddress: p.PoolAddress,
		ChainID:     p.ChainID,
		Amount:      new(big.Int).Set(p.Amount),
		State:       domain.StateIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.active = intent.ID
	s.intents[intent.ID] = intent
	snapshot := *intent
	s.mu.Unlock()

	// The flow outlives the originating request.
	go s.run(context.Background(), intent.ID, p)
	return snapshot, nil
}

// Intent returns the current snapshot of a flow.
func (s *Service) Intent(id uuid.UUID) (domain.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return domain.Intent{}, domain.ErrIntentNotFound
	}
	return *intent, nil
}

// Subscribe returns a channel of intent snapshots for every state
// transition of every flow, plus a cancel func. Slow consumers drop
// updates rather than stall the flow.
func (s *Service) Subscribe() (<-chan domain.Intent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Intent, 16)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Service) run(ctx context.Context, id uuid.UUID, p Params) {
	defer func() {
		s.mu.Lock()
		s.active = uuid.Nil
		s.mu.Unlock()
	}()

	reader, err := s.pool.ForChain(ctx, p.ChainID)
	if err != nil {
		s.fail(id, fmt.Sprintf("chain backend: %v", err))
		return
	}
	donor := s.donor(id)

	s.transition(id, domain.StateCheckingBalance, nil)
	s.priceIntent(ctx, id, reader, p)
	balance, err := reader.BalanceOf(ctx, p.Token, donor)
	if err != nil {
		s.fail(id, fmt.Sprintf("balance check: %v", err))
		return
	}
	if balance.Cmp(p.Amount) < 0 {
		s.fail(id, domain.ErrInsufficientBalance.Error())
		return
	}

	s.transition(id, domain.StateCheckingAllowance, nil)
	allowance, err := reader.Allowance(ctx, p.Token, donor, p.PoolAddress)
	if err != nil {
		s.fail(id, fmt.Sprintf("allowance check: %v", err))
		return
	}

	if allowance.Cmp(p.Amount) < 0 {
		if !s.approve(ctx, id, p) {
			return
		}
	} else {
		s.log.Infof("donation %s: allowance %s covers %s, skipping approve", id, allowance, p.Amount)
	}

	s.stake(ctx, id, p, donor)
}

// priceIntent derives the donation's USD equivalent from the resolver
// chain. A miss on every source leaves the intent unpriced.
func (s *Service) priceIntent(ctx context.Context, id uuid.UUID, reader domain.TokenReader, p Params) {
	if s.prices == nil {
		return
	}
	quote, err := s.prices.Resolve(ctx, p.Token, p.ChainID)
	if err != nil {
		s.log.Debugf("donation %s: no USD price for %s on chain %d: %v", id, p.Token, p.ChainID, err)
		return
	}
	decimals, err := reader.Decimals(ctx, p.Token)
	if err != nil {
		s.log.Warnf("donation %s: token decimals: %v, assuming 18", id, err)
		decimals = 18
	}
	usd := quote.Price.Mul(decimal.NewFromBigInt(p.Amount, -int32(decimals)))
	s.transition(id, domain.StateCheckingBalance, func(i *domain.Intent) {
		i.USD = usd
		i.USDQuote = quote
	})
}

// approve submits the ERC-20 approval and waits for it to land. It
// reports whether the flow may continue. A rejected or reverted
// approval ends the flow; the user drives any retry.
func (s *Service) approve(ctx context.Context, id uuid.UUID, p Params) bool {
	data, err := s.erc20.Pack("approve", common.HexToAddress(p.PoolAddress), p.Amount)
	if err != nil {
		s.fail(id, fmt.Sprintf("pack approve: %v", err))
		return false
	}

	s.transition(id, domain.StateApproving, nil)
	tx, err := s.orch.Submit(ctx, txdomain.KindApprove, txdomain.Request{
		ChainID: p.ChainID,
		To:      p.Token,
		Data:    data,
		Gas:     s.cfg.ApproveGasLimit,
	})
	if err != nil {
		s.fail(id, fmt.Sprintf("approve: %v", err))
		return false
	}
	s.transition(id, domain.StateApproving, func(i *domain.Intent) { i.ApproveTx = tx })

	tx, err = s.orch.AwaitConfirmation(ctx, tx)
	if err != nil {
		s.fail(id, fmt.Sprintf("approve confirmation: %v", err))
		return false
	}
	s.transition(id, domain.StateApproving, func(i *domain.Intent) { i.ApproveTx = tx })
	if tx.Status != txdomain.StatusConfirmed {
		s.fail(id, fmt.Sprintf("approve %s: %s", tx.Hash, tx.Status))
		return false
	}
	return true
}

func (s *Service) stake(ctx context.Context, id uuid.UUID, p Params, donor string) {
	data, err := s.staking.Pack("stake", p.Amount)
	if err != nil {
		s.fail(id, fmt.Sprintf("pack stake: %v", err))
		return
	}

	s.transition(id, domain.StateStaking, nil)
	gas, err := s.orch.EstimateGasWithMargin(ctx, p.ChainID, donor, p.PoolAddress, data)
	if err != nil {
		// Let the wallet estimate when the node cannot.
		s.log.Warnf("donation %s: stake gas estimate: %v", id, err)
		gas = 0
	}

	tx, err := s.orch.Submit(ctx, txdomain.KindStake, txdomain.Request{
		ChainID: p.ChainID,
		To:      p.PoolAddress,
		Data:    data,
		Gas:     gas,
	})
	if err != nil {
		s.fail(id, fmt.Sprintf("stake: %v", err))
		return
	}
	s.transition(id, domain.StateStaking, func(i *domain.Intent) { i.StakeTx = tx })

	tx, err = s.orch.AwaitConfirmation(ctx, tx)
	if err != nil {
		s.fail(id, fmt.Sprintf("stake confirmation: %v", err))
		return
	}
	if tx.Status != txdomain.StatusConfirmed {
		s.transition(id, domain.StateStaking, func(i *domain.Intent) { i.StakeTx = tx })
		s.fail(id, fmt.Sprintf("stake %s: %s", tx.Hash, tx.Status))
		return
	}
	s.transition(id, domain.StateDone, func(i *domain.Intent) { i.StakeTx = tx })
	s.log.Infof("donation %s: staked %s into %s", id, p.Amount, p.PoolAddress)
}

func (s *Service) donor(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if intent, ok := s.intents[id]; ok {
		return intent.Donor
	}
	return ""
}

func (s *Service) fail(id uuid.UUID, reason string) {
	s.log.Warnf("donation %s failed: %s", id, reason)
	s.transition(id, domain.StateFailed, func(i *domain.Intent) { i.FailReason = reason })
}

func (s *Service) transition(id uuid.UUID, state domain.State, mut func(*domain.Intent)) {
	s.mu.Lock()
	intent, ok := s.intents[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	intent.State = state
	intent.UpdatedAt = time.Now()
	if mut != nil {
		mut(intent)
	}
	snapshot := *intent
	for _, sub := range s.subs {
		select {
		case sub <- snapshot:
		default:
		}
	}
	s.mu.Unlock()

	if state.Terminal() {
		// The map only serves live flows; history holds the durable
		// record once the flow settles.
		time.AfterFunc(s.cfg.RetainTerminal, func() {
			s.mu.Lock()
			delete(s.intents, id)
			s.mu.Unlock()
		})
	}

	if s.history != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.history.SaveIntent(ctx, snapshot); err != nil {
				s.log.Errorf("persisting donation %s: %v", snapshot.ID, err)
			}
		}()
	}
}

// History returns the most recent donation intents, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.Intent, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecent(ctx, limit)
}
