package usecase

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/donation/domain"
	"github.com/lakkhi/walletd/src/logger"
	pricingdomain "github.com/lakkhi/walletd/src/pricing/domain"
	txdomain "github.com/lakkhi/walletd/src/txflow/domain"
	walletdomain "github.com/lakkhi/walletd/src/wallet/domain"
)

type fakeWallet struct{ session walletdomain.Session }

func (f *fakeWallet) Snapshot() walletdomain.Session { return f.session }

type fakeReader struct {
	balance   *big.Int
	allowance *big.Int
	decimals  uint8
	gate      chan struct{} // when set, BalanceOf blocks until closed
}

func (f *fakeReader) BalanceOf(ctx context.Context, token, holder string) (*big.Int, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.balance, nil
}

func (f *fakeReader) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	return f.allowance, nil
}

func (f *fakeReader) Decimals(ctx context.Context, token string) (uint8, error) {
	if f.decimals == 0 {
		return 18, nil
	}
	return f.decimals, nil
}

type fakePricer struct {
	quote *pricingdomain.Quote
	err   error
}

func (f *fakePricer) Resolve(ctx context.Context, token string, chainID uint64) (*pricingdomain.Quote, error) {
	return f.quote, f.err
}

type submission struct {
	kind txdomain.Kind
	req  txdomain.Request
}

type fakeOrch struct {
	mu          sync.Mutex
	submissions []submission
	rejectKind  txdomain.Kind // submissions of this kind fail with ErrUserRejected
}

func (f *fakeOrch) Submit(ctx context.Context, kind txdomain.Kind, req txdomain.Request) (*txdomain.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == f.rejectKind {
		return nil, walletdomain.ErrUserRejected
	}
	f.submissions = append(f.submissions, submission{kind: kind, req: req})
	return &txdomain.PendingTransaction{
		Hash:    string(kind) + "-hash",
		Kind:    kind,
		ChainID: req.ChainID,
		Status:  txdomain.StatusSubmitted,
	}, nil
}

func (f *fakeOrch) AwaitConfirmation(ctx context.Context, tx *txdomain.PendingTransaction) (*txdomain.PendingTransaction, error) {
	out := *tx
	out.Status = txdomain.StatusConfirmed
	out.Receipt = &txdomain.Receipt{BlockNumber: 1, GasUsed: 50_000}
	return &out, nil
}

func (f *fakeOrch) EstimateGasWithMargin(ctx context.Context, chainID uint64, from, to string, data []byte) (uint64, error) {
	return 200_000, nil
}

func (f *fakeOrch) byKind(kind txdomain.Kind) []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []submission
	for _, s := range f.submissions {
		if s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func testParams() Params {
	return Params{
		ChainID:     56,
		Token:       "0x4444444444444444444444444444444444444444",
		PoolAddress: "0x5555555555555555555555555555555555555555",
		Amount:      big.NewInt(500),
	}
}

func connectedWallet() *fakeWallet {
	return &fakeWallet{session: walletdomain.Session{
		Status:  walletdomain.StatusConnected,
		Account: "0x1111111111111111111111111111111111111111",
		ChainID: 56,
	}}
}

func newTestService(t *testing.T, reader *fakeReader, orch *fakeOrch) *Service {
	return newPricedService(t, reader, orch, nil)
}

func newPricedService(t *testing.T, reader *fakeReader, orch *fakeOrch, pricer domain.Pricer) *Service {
	t.Helper()
	pool := domain.PoolFunc(func(ctx context.Context, chainID uint64) (domain.TokenReader, error) {
		return reader, nil
	})
	svc, err := NewService(connectedWallet(), pool, orch, pricer, nil, Config{ApproveGasLimit: 60_000}, logger.New("dev"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// awaitTerminal drives Subscribe until the intent reaches Done or
// Failed.
func awaitTerminal(t *testing.T, svc *Service, updates <-chan domain.Intent) domain.Intent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case intent := <-updates:
			if intent.State.Terminal() {
				return intent
			}
		case <-deadline:
			t.Fatal("flow did not reach a terminal state")
		}
	}
}

func TestFlowSkipsApproveWhenAllowanceCovers(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(500)}
	orch := &fakeOrch{}
	svc := newTestService(t, reader, orch)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}
	if got := orch.byKind(txdomain.KindApprove); len(got) != 0 {
		t.Fatalf("approve submitted %d times, want 0", len(got))
	}
	if got := orch.byKind(txdomain.KindStake); len(got) != 1 {
		t.Fatalf("stake submitted %d times, want 1", len(got))
	}
	if final.ApproveTx != nil {
		t.Fatalf("intent carries an approve tx: %+v", final.ApproveTx)
	}
}

func TestFlowApprovesExactlyOnceBeforeStake(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(0)}
	orch := &fakeOrch{}
	svc := newTestService(t, reader, orch)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}
	orch.mu.Lock()
	defer orch.mu.Unlock()
	if len(orch.submissions) != 2 {
		t.Fatalf("submissions = %d, want 2", len(orch.submissions))
	}
	if orch.submissions[0].kind != txdomain.KindApprove {
		t.Fatalf("first submission = %q, want approve", orch.submissions[0].kind)
	}
	if orch.submissions[0].req.Gas != 60_000 {
		t.Fatalf("approve gas = %d", orch.submissions[0].req.Gas)
	}
	if orch.submissions[1].kind != txdomain.KindStake {
		t.Fatalf("second submission = %q, want stake", orch.submissions[1].kind)
	}
	if orch.submissions[1].req.Gas != 200_000 {
		t.Fatalf("stake gas = %d, want estimated 200000", orch.submissions[1].req.Gas)
	}
}

func TestFlowFailsOnInsufficientBalanceWithoutSubmitting(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(100), allowance: big.NewInt(0)}
	orch := &fakeOrch{}
	svc := newTestService(t, reader, orch)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateFailed {
		t.Fatalf("state = %q", final.State)
	}
	if final.FailReason != domain.ErrInsufficientBalance.Error() {
		t.Fatalf("reason = %q", final.FailReason)
	}
	orch.mu.Lock()
	defer orch.mu.Unlock()
	if len(orch.submissions) != 0 {
		t.Fatalf("submissions = %d, want 0", len(orch.submissions))
	}
}

func TestFlowRejectedApproveEndsWithoutRetryOrStake(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(0)}
	orch := &fakeOrch{rejectKind: txdomain.KindApprove}
	svc := newTestService(t, reader, orch)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateFailed {
		t.Fatalf("state = %q", final.State)
	}
	orch.mu.Lock()
	defer orch.mu.Unlock()
	if len(orch.submissions) != 0 {
		t.Fatalf("a transaction was submitted after rejection: %+v", orch.submissions)
	}
}

func TestStartRefusesConcurrentFlow(t *testing.T) {
	gate := make(chan struct{})
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(500), gate: gate}
	orch := &fakeOrch{}
	svc := newTestService(t, reader, orch)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Start(context.Background(), testParams()); !errors.Is(err, domain.ErrFlowInProgress) {
		t.Fatalf("expected ErrFlowInProgress, got %v", err)
	}

	close(gate)
	final := awaitTerminal(t, svc, updates)
	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}

	// Once terminal, a new flow may start.
	waitActiveCleared(t, svc)
	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start after completion: %v", err)
	}
}

func waitActiveCleared(t *testing.T, svc *Service) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		svc.mu.Lock()
		cleared := svc.active == uuid.Nil
		svc.mu.Unlock()
		if cleared {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("active flow slot never cleared")
}

func TestFlowDerivesUSDFromQuote(t *testing.T) {
	// 500 base units at 2 decimals is 5 tokens; at 0.50 USD each the
	// donation is worth 2.50.
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(500), decimals: 2}
	pricer := &fakePricer{quote: &pricingdomain.Quote{
		Price:  decimal.RequireFromString("0.5"),
		Source: pricingdomain.SourceDEX,
		AsOf:   time.Now().UTC(),
	}}
	svc := newPricedService(t, reader, &fakeOrch{}, pricer)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}
	if final.USDQuote == nil || final.USDQuote.Source != pricingdomain.SourceDEX {
		t.Fatalf("usd quote = %+v", final.USDQuote)
	}
	if want := decimal.RequireFromString("2.5"); !final.USD.Equal(want) {
		t.Fatalf("usd = %s, want %s", final.USD, want)
	}
}

func TestFlowCompletesWhenEveryPriceSourceMisses(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(500)}
	pricer := &fakePricer{err: pricingdomain.ErrPriceUnavailable}
	svc := newPricedService(t, reader, &fakeOrch{}, pricer)

	updates, cancel := svc.Subscribe()
	defer cancel()

	if _, err := svc.Start(context.Background(), testParams()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)

	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}
	if final.USDQuote != nil {
		t.Fatalf("usd quote = %+v, want unpriced", final.USDQuote)
	}
}

func TestTerminalIntentEvictedAfterRetention(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(500)}
	pool := domain.PoolFunc(func(ctx context.Context, chainID uint64) (domain.TokenReader, error) {
		return reader, nil
	})
	svc, err := NewService(connectedWallet(), pool, &fakeOrch{}, nil, nil,
		Config{ApproveGasLimit: 60_000, RetainTerminal: 10 * time.Millisecond}, logger.New("dev"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	updates, cancel := svc.Subscribe()
	defer cancel()

	started, err := svc.Start(context.Background(), testParams())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := awaitTerminal(t, svc, updates)
	if final.State != domain.StateDone {
		t.Fatalf("state = %q, reason %q", final.State, final.FailReason)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := svc.Intent(started.ID); errors.Is(err, domain.ErrIntentNotFound) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("terminal intent was never evicted")
}

func TestStartRequiresConnectedWallet(t *testing.T) {
	reader := &fakeReader{balance: big.NewInt(1000), allowance: big.NewInt(0)}
	pool := domain.PoolFunc(func(ctx context.Context, chainID uint64) (domain.TokenReader, error) {
		return reader, nil
	})
	wallet := &fakeWallet{session: walletdomain.Session{Status: walletdomain.StatusDisconnected}}
	svc, err := NewService(wallet, pool, &fakeOrch{}, nil, nil, Config{ApproveGasLimit: 60_000}, logger.New("dev"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Start(context.Background(), testParams()); err == nil {
		t.Fatal("expected an error for a disconnected wallet")
	}
}
