package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/pricing/domain"
)

type fakeSource struct {
	kind  domain.SourceKind
	price decimal.Decimal
	err   error
	hang  bool // sleep past any source timeout
	calls atomic.Int32
}

func (f *fakeSource) Kind() domain.SourceKind { return f.kind }

func (f *fakeSource) Quote(ctx context.Context, tokenAddress string, chainID uint64) (decimal.Decimal, error) {
	f.calls.Add(1)
	if f.hang {
		select {
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		case <-time.After(time.Minute):
		}
	}
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.price, nil
}

const testToken = "0x264387ad73d19408e34b5d5e13a93174a35cea33"

func newTestService(sources ...domain.Source) *Service {
	return NewService(sources, 20*time.Millisecond, decimal.RequireFromString("0.01"), logger.New("dev"))
}

func TestResolveFirstSourceWins(t *testing.T) {
	dex := &fakeSource{kind: domain.SourceDEX, price: decimal.RequireFromString("1.25")}
	backend := &fakeSource{kind: domain.SourceBackend, price: decimal.RequireFromString("9.99")}
	svc := newTestService(dex, backend)

	q, err := svc.Resolve(context.Background(), testToken, 56)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.Source != domain.SourceDEX {
		t.Fatalf("source = %q", q.Source)
	}
	if !q.Price.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("price = %s", q.Price)
	}
	if backend.calls.Load() != 0 {
		t.Fatalf("second source consulted despite first hit")
	}
}

func TestResolveFallsThroughTimeout(t *testing.T) {
	dex := &fakeSource{kind: domain.SourceDEX, hang: true}
	backend := &fakeSource{kind: domain.SourceBackend, price: decimal.RequireFromString("2.50")}
	market := &fakeSource{kind: domain.SourceMarket, price: decimal.RequireFromString("3.00")}
	svc := newTestService(dex, backend, market)

	q, err := svc.Resolve(context.Background(), testToken, 56)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.Source != domain.SourceBackend {
		t.Fatalf("source = %q", q.Source)
	}
	if market.calls.Load() != 0 {
		t.Fatalf("third source consulted despite second hit")
	}
}

func TestResolveSkipsZeroPrice(t *testing.T) {
	dex := &fakeSource{kind: domain.SourceDEX, price: decimal.Zero}
	backend := &fakeSource{kind: domain.SourceBackend, price: decimal.RequireFromString("0.42")}
	svc := newTestService(dex, backend)

	q, err := svc.Resolve(context.Background(), testToken, 56)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.Source != domain.SourceBackend {
		t.Fatalf("source = %q", q.Source)
	}
}

func TestResolveAllMiss(t *testing.T) {
	dex := &fakeSource{kind: domain.SourceDEX, err: domain.ErrNoLiquidity}
	backend := &fakeSource{kind: domain.SourceBackend, err: errors.New("http 500")}
	svc := newTestService(dex, backend)

	_, err := svc.Resolve(context.Background(), testToken, 56)
	if !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestResolveSurvivesPanickingSource(t *testing.T) {
	panicky := &panicSource{}
	backend := &fakeSource{kind: domain.SourceBackend, price: decimal.RequireFromString("1.00")}
	svc := newTestService(panicky, backend)

	q, err := svc.Resolve(context.Background(), testToken, 56)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if q.Source != domain.SourceBackend {
		t.Fatalf("source = %q", q.Source)
	}
}

type panicSource struct{}

func (*panicSource) Kind() domain.SourceKind { return domain.SourceDEX }
func (*panicSource) Quote(context.Context, string, uint64) (decimal.Decimal, error) {
	panic("nil router")
}

func TestPlaceholderIsFlagged(t *testing.T) {
	svc := newTestService()

	q := svc.Placeholder()
	if !q.Placeholder {
		t.Fatal("placeholder quote not flagged")
	}
	if q.Source != domain.SourcePlaceholder {
		t.Fatalf("source = %q", q.Source)
	}
	if !q.Price.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("price = %s", q.Price)
	}
}

func TestResolveCachesHit(t *testing.T) {
	dex := &fakeSource{kind: domain.SourceDEX, price: decimal.RequireFromString("5.00")}
	svc := newTestService(dex)

	if _, ok := svc.Cached(testToken, 56); ok {
		t.Fatal("cache populated before any resolution")
	}
	if _, err := svc.Resolve(context.Background(), testToken, 56); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	q, ok := svc.Cached(testToken, 56)
	if !ok {
		t.Fatal("hit was not cached")
	}
	if q.Source != domain.SourceDEX {
		t.Fatalf("cached source = %q", q.Source)
	}
}
