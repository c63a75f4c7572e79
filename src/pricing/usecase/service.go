package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/pricing/domain"
)

// Service resolves token prices through an ordered source list with
// per-source timeouts. The order is data, not code: reordering or
// disabling a source is a wiring change in main.
type Service struct {
	sources       []domain.Source
	sourceTimeout time.Duration
	placeholder   decimal.Decimal
	logger        *logger.Logger

	mu     sync.Mutex
	cached map[string]domain.Quote // platform token cache, refreshed by cron
}

func NewService(sources []domain.Source, sourceTimeout time.Duration, placeholder decimal.Decimal, logg *logger.Logger) *Service {
	return &Service{
		sources:       sources,
		sourceTimeout: sourceTimeout,
		placeholder:   placeholder,
		logger:        logg,
		cached:        make(map[string]domain.Quote),
	}
}

// Resolve walks the source list and returns the first hit. Every miss —
// timeout, error, zero price — advances to the next source; only the
// aggregate failure surfaces, as ErrPriceUnavailable.
func (s *Service) Resolve(ctx context.Context, tokenAddress string, chainID uint64) (*domain.Quote, error) {
	for _, src := range s.sources {
		price, err := s.attempt(ctx, src, tokenAddress, chainID)
		if err != nil {
			s.logger.Debugf("price source %s missed for %s on chain %d: %v", src.Kind(), tokenAddress, chainID, err)
			continue
		}
		quote := domain.Quote{
			Price:  price,
			Source: src.Kind(),
			AsOf:   time.Now().UTC(),
		}
		s.remember(tokenAddress, chainID, quote)
		return &quote, nil
	}
	return nil, domain.ErrPriceUnavailable
}

func (s *Service) attempt(ctx context.Context, src domain.Source, tokenAddress string, chainID uint64) (price decimal.Decimal, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()
	defer func() {
		// a panicking source is a miss like any other
		if r := recover(); r != nil {
			s.logger.Errorf("price source %s panicked: %v", src.Kind(), r)
			err = domain.ErrPriceUnavailable
		}
	}()
	price, err = src.Quote(attemptCtx, tokenAddress, chainID)
	if err == nil && price.Sign() <= 0 {
		err = domain.ErrNoLiquidity
	}
	return price, err
}

// Placeholder returns the configured display fallback. It is flagged so
// the UI can never pass it off as live market data.
func (s *Service) Placeholder() domain.Quote {
	return domain.Quote{
		Price:       s.placeholder,
		Source:      domain.SourcePlaceholder,
		AsOf:        time.Now().UTC(),
		Placeholder: true,
	}
}

// Cached returns the last live quote seen for the token, if any.
func (s *Service) Cached(tokenAddress string, chainID uint64) (domain.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.cached[cacheKey(tokenAddress, chainID)]
	return q, ok
}

// RefreshPlatformPrice keeps the platform token's quote warm; main wires
// it onto a cron schedule.
func (s *Service) RefreshPlatformPrice(ctx context.Context, tokenAddress string, chainID uint64) {
	if _, err := s.Resolve(ctx, tokenAddress, chainID); err != nil {
		s.logger.Warnf("platform price refresh missed: %v", err)
	}
}

func (s *Service) remember(tokenAddress string, chainID uint64, q domain.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached[cacheKey(tokenAddress, chainID)] = q
}

func cacheKey(tokenAddress string, chainID uint64) string {
	return fmt.Sprintf("%s|%d", tokenAddress, chainID)
}
