package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/wallet/domain"
)

// connectCall shares one in-flight interactive request between callers.
type connectCall struct {
	done    chan struct{}
	account string
	err     error
}

// Service owns the wallet session lifecycle: detection, connect and
// disconnect, and live provider events. It is the only writer of the
// session; every other component reads snapshots.
type Service struct {
	detector       domain.Detector
	accounts       domain.AccountRepository
	registry       *chains.Registry
	logger         *logger.Logger
	connectTimeout time.Duration

	mu       sync.Mutex
	provider domain.Provider
	session  domain.Session
	inflight *connectCall
	subs     map[int]chan domain.Session
	nextSub  int
}

func NewService(d domain.Detector, accounts domain.AccountRepository, registry *chains.Registry, logg *logger.Logger, connectTimeout time.Duration) *Service {
	return &Service{
		detector:       d,
		accounts:       accounts,
		registry:       registry,
		logger:         logg,
		connectTimeout: connectTimeout,
		session:        domain.Session{Status: domain.StatusUninitialized},
		subs:           make(map[int]chan domain.Session),
	}
}

// Initialize probes for a provider and, when a stored authorization hint
// exists, checks non-interactively for an already-authorized account. It
// never prompts and never returns an error: failures degrade to
// NoProvider or Disconnected.
func (s *Service) Initialize(ctx context.Context) domain.Session {
	s.setStatus(domain.StatusDetecting)

	provider, err := s.detector.Detect(ctx)
	if err != nil {
		s.logger.Warnf("provider detection failed: %v", err)
		s.setStatus(domain.StatusNoProvider)
		return s.Snapshot()
	}

	s.mu.Lock()
	s.provider = provider
	s.mu.Unlock()
	go s.eventLoop(provider)

	if chainID, err := s.fetchChainID(ctx, provider); err == nil {
		s.setChainID(chainID)
	} else {
		s.logger.Warnf("eth_chainId failed during initialize: %v", err)
	}

	// The stored hint decides whether an auto-resume is attempted at all;
	// without it the user connects explicitly.
	hint, err := s.accounts.LastAuthorized(ctx)
	if err != nil {
		s.logger.Errorf("loading authorization hint: %v", err)
	}
	if hint == nil {
		s.setStatus(domain.StatusDisconnected)
		return s.Snapshot()
	}

	// eth_accounts never prompts; an empty result means the wallet revoked
	// the site since last session.
	accounts, err := s.requestAccounts(ctx, provider, "eth_accounts")
	if err != nil || len(accounts) == 0 {
		if err != nil {
			s.logger.Warnf("non-interactive account check failed: %v", err)
		}
		s.setStatus(domain.StatusDisconnected)
		return s.Snapshot()
	}

	s.setConnected(accounts[0])
	s.logger.Infof("wallet session resumed for %s", accounts[0])
	return s.Snapshot()
}

// Connect issues the interactive account request. At most one request is
// outstanding: a concurrent call waits on the first and observes the same
// account or the same rejection.
func (s *Service) Connect(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.provider == nil {
		s.mu.Unlock()
		return "", domain.ErrNoProvider
	}
	if s.session.Status == domain.StatusConnected {
		account := s.session.Account
		s.mu.Unlock()
		return account, nil
	}
	if s.inflight != nil {
		call := s.inflight
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.account, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &connectCall{done: make(chan struct{})}
	s.inflight = call
	provider := s.provider
	s.mu.Unlock()

	s.setStatus(domain.StatusConnecting)
	account, err := s.connect(ctx, provider)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()

	call.account, call.err = account, err
	close(call.done)
	return account, err
}

func (s *Service) connect(ctx context.Context, provider domain.Provider) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	accounts, err := s.requestAccounts(reqCtx, provider, "eth_requestAccounts")
	if err != nil {
		s.setStatus(domain.StatusDisconnected)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: wallet did not answer the prompt", domain.ErrTimeout)
		}
		return "", domain.MapRPCError(err)
	}
	if len(accounts) == 0 {
		s.setStatus(domain.StatusDisconnected)
		return "", fmt.Errorf("%w: empty account list", domain.ErrProvider)
	}

	if chainID, err := s.fetchChainID(reqCtx, provider); err == nil {
		s.setChainID(chainID)
	}
	s.setConnected(accounts[0])

	if err := s.accounts.SaveAuthorized(ctx, domain.AuthorizedAccount{
		Address: accounts[0],
		ChainID: s.Snapshot().ChainID,
	}); err != nil {
		// non-fatal: only costs the auto-resume next session
		s.logger.Errorf("persisting authorization hint: %v", err)
	}
	return accounts[0], nil
}

// Disconnect clears local session state only. Wallets do not support
// programmatic revocation, so a later Connect may re-authorize without a
// prompt.
func (s *Service) Disconnect(ctx context.Context) {
	s.mu.Lock()
	s.session.Status = domain.StatusDisconnected
	s.session.Account = ""
	snap := s.session
	s.mu.Unlock()
	s.publish(snap)

	if err := s.accounts.ClearAuthorized(ctx); err != nil {
		s.logger.Errorf("clearing authorization hint: %v", err)
	}
}

// Snapshot returns the current session value. Callers must re-read it
// rather than cache chain or account across blocking operations.
func (s *Service) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Provider returns the live provider, or nil before detection.
func (s *Service) Provider() domain.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

// Subscribe registers a session observer. The returned cancel func must be
// called when the observer goes away. Slow observers drop intermediate
// values rather than block session transitions.
func (s *Service) Subscribe() (<-chan domain.Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Session, 8)
	ch <- s.session
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

func (s *Service) eventLoop(provider domain.Provider) {
	for ev := range provider.Events() {
		switch ev.Kind {
		case domain.EventAccountsChanged:
			if len(ev.Accounts) == 0 {
				s.mu.Lock()
				s.session.Status = domain.StatusDisconnected
				s.session.Account = ""
				snap := s.session
				s.mu.Unlock()
				s.publish(snap)
			} else {
				s.setConnected(ev.Accounts[0])
			}
		case domain.EventChainChanged, domain.EventConnect:
			if ev.ChainID == "" {
				continue
			}
			chainID, err := chains.ParseChainID(ev.ChainID)
			if err != nil {
				s.logger.Warnf("unparseable chain id from wallet: %q", ev.ChainID)
				continue
			}
			// chain changes never alter connection status
			s.setChainID(chainID)
		case domain.EventDisconnect:
			s.mu.Lock()
			s.session.Status = domain.StatusDisconnected
			s.session.Account = ""
			snap := s.session
			s.mu.Unlock()
			s.publish(snap)
		}
	}

	// event channel closed: the bridge is gone
	s.mu.Lock()
	if s.provider == provider {
		s.provider = nil
		s.session.Status = domain.StatusNoProvider
		s.session.Account = ""
	}
	snap := s.session
	s.mu.Unlock()
	s.publish(snap)
	s.logger.Warnf("wallet provider connection lost")
}

func (s *Service) requestAccounts(ctx context.Context, provider domain.Provider, method string) ([]string, error) {
	raw, err := provider.Request(ctx, method)
	if err != nil {
		return nil, err
	}
	var accounts []string
	if err := unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", domain.ErrProvider, method, err)
	}
	return accounts, nil
}

func (s *Service) fetchChainID(ctx context.Context, provider domain.Provider) (uint64, error) {
	raw, err := provider.Request(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	var hexID string
	if err := unmarshal(raw, &hexID); err != nil {
		return 0, fmt.Errorf("%w: eth_chainId payload: %v", domain.ErrProvider, err)
	}
	return chains.ParseChainID(hexID)
}

func (s *Service) setStatus(status domain.Status) {
	s.mu.Lock()
	s.session.Status = status
	if status != domain.StatusConnected {
		s.session.Account = ""
	}
	snap := s.session
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Service) setConnected(account string) {
	s.mu.Lock()
	s.session.Status = domain.StatusConnected
	s.session.Account = account
	snap := s.session
	s.mu.Unlock()
	s.publish(snap)
}

func (s *Service) setChainID(chainID uint64) {
	s.mu.Lock()
	s.session.ChainID = chainID
	snap := s.session
	s.mu.Unlock()
	s.publish(snap)
}

func unmarshal(raw json.RawMessage, out any) error {
	return json.Unmarshal(raw, out)
}

func (s *Service) publish(snap domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
