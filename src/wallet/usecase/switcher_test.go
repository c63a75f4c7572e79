package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lakkhi/walletd/src/wallet/domain"
)

func newSwitcherFixture(t *testing.T, activeChain uint64) (*Switcher, *fakeProvider) {
	t.Helper()
	p := newFakeProvider()
	p.on("eth_chainId", `"0x38"`, nil)
	p.on("eth_requestAccounts", `["`+testAccount+`"]`, nil)
	svc := newTestService(&fakeDetector{provider: p}, &memoryRepo{})
	svc.Initialize(context.Background())
	if _, err := svc.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if activeChain != 56 {
		p.events <- domain.Event{Kind: domain.EventChainChanged, ChainID: chainHex(activeChain)}
		waitFor(t, svc, func(s domain.Session) bool { return s.ChainID == activeChain })
	}
	return NewSwitcher(svc, svc.registry, svc.logger), p
}

func chainHex(id uint64) string {
	switch id {
	case 1:
		return "0x1"
	case 56:
		return "0x38"
	case 97:
		return "0x61"
	}
	return "0x0"
}

func TestSwitchToUnknownChain(t *testing.T) {
	sw, p := newSwitcherFixture(t, 56)

	err := sw.SwitchTo(context.Background(), 424242)
	if !errors.Is(err, domain.ErrUnsupportedChain) {
		t.Fatalf("expected ErrUnsupportedChain, got %v", err)
	}
	if n := p.callCount("wallet_switchEthereumChain"); n != 0 {
		t.Fatalf("switch was requested for an unknown chain")
	}
}

func TestSwitchToActiveChainSkipsPrompt(t *testing.T) {
	sw, p := newSwitcherFixture(t, 56)

	if err := sw.SwitchTo(context.Background(), 56); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if n := p.callCount("wallet_switchEthereumChain"); n != 0 {
		t.Fatalf("redundant switch prompted the wallet %d times", n)
	}
}

func TestSwitchToRequestsSwitch(t *testing.T) {
	sw, p := newSwitcherFixture(t, 1)
	p.on("wallet_switchEthereumChain", `null`, nil)

	if err := sw.SwitchTo(context.Background(), 56); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if n := p.callCount("wallet_switchEthereumChain"); n != 1 {
		t.Fatalf("wallet_switchEthereumChain called %d times, want 1", n)
	}
	if n := p.callCount("wallet_addEthereumChain"); n != 0 {
		t.Fatalf("add was requested for a known chain")
	}
}

func TestSwitchToRegistersUnrecognizedChain(t *testing.T) {
	sw, p := newSwitcherFixture(t, 1)
	p.on("wallet_switchEthereumChain", "", &domain.RPCError{
		Code: domain.CodeUnrecognizedChain, Message: "unrecognized chain",
	})
	p.on("wallet_addEthereumChain", `null`, nil)

	if err := sw.SwitchTo(context.Background(), 97); err != nil {
		t.Fatalf("SwitchTo: %v", err)
	}
	if n := p.callCount("wallet_addEthereumChain"); n != 1 {
		t.Fatalf("wallet_addEthereumChain called %d times, want 1", n)
	}
}

func TestSwitchToUserRejected(t *testing.T) {
	sw, p := newSwitcherFixture(t, 1)
	p.on("wallet_switchEthereumChain", "", &domain.RPCError{
		Code: domain.CodeUserRejected, Message: "denied",
	})

	err := sw.SwitchTo(context.Background(), 56)
	if !errors.Is(err, domain.ErrUserRejected) {
		t.Fatalf("expected ErrUserRejected, got %v", err)
	}
}
