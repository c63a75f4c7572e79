package walletbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lakkhi/walletd/src/wallet/domain"
)

var upgrader = websocket.Upgrader{}

// bridgeServer runs a fake wallet on a websocket: respond handles each
// request frame, and the returned conn channel exposes the live socket
// for pushing event frames.
func bridgeServer(t *testing.T, respond func(f frame) *frame) (*httptest.Server, string, chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if resp := respond(f); resp != nil {
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL, conns
}

func detect(t *testing.T, wsURL string, requestTimeout time.Duration) domain.Provider {
	t.Helper()
	d := NewDetector(wsURL, 200*time.Millisecond, 500*time.Millisecond, requestTimeout, zerolog.Nop())
	p, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return p
}

func TestRequestRoundTrip(t *testing.T) {
	srv, wsURL, _ := bridgeServer(t, func(f frame) *frame {
		if f.Method != "eth_chainId" {
			t.Errorf("method = %q", f.Method)
		}
		return &frame{ID: f.ID, Result: json.RawMessage(`"0x38"`)}
	})
	defer srv.Close()

	p := detect(t, wsURL, time.Second)
	defer p.Close()

	raw, err := p.Request(context.Background(), "eth_chainId")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	var chainID string
	if err := json.Unmarshal(raw, &chainID); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if chainID != "0x38" {
		t.Fatalf("chain id = %q", chainID)
	}
}

func TestRequestWalletError(t *testing.T) {
	srv, wsURL, _ := bridgeServer(t, func(f frame) *frame {
		return &frame{ID: f.ID, Error: &domain.RPCError{Code: 4001, Message: "denied"}}
	})
	defer srv.Close()

	p := detect(t, wsURL, time.Second)
	defer p.Close()

	_, err := p.Request(context.Background(), "eth_requestAccounts")
	var rpcErr *domain.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %v", err)
	}
	if rpcErr.Code != domain.CodeUserRejected {
		t.Fatalf("code = %d", rpcErr.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv, wsURL, _ := bridgeServer(t, func(f frame) *frame {
		return nil // never answer
	})
	defer srv.Close()

	p := detect(t, wsURL, 50*time.Millisecond)
	defer p.Close()

	_, err := p.Request(context.Background(), "eth_requestAccounts")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestEventDelivery(t *testing.T) {
	srv, wsURL, conns := bridgeServer(t, func(f frame) *frame { return nil })
	defer srv.Close()

	p := detect(t, wsURL, time.Second)
	defer p.Close()

	conn := <-conns
	if err := conn.WriteJSON(frame{Event: "accountsChanged", Data: json.RawMessage(`["0xabc"]`)}); err != nil {
		t.Fatalf("write event: %v", err)
	}

	select {
	case ev := <-p.Events():
		if ev.Kind != domain.EventAccountsChanged {
			t.Fatalf("kind = %q", ev.Kind)
		}
		if len(ev.Accounts) != 1 || ev.Accounts[0] != "0xabc" {
			t.Fatalf("accounts = %v", ev.Accounts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never arrived")
	}
}

func TestEventChannelClosesWithConnection(t *testing.T) {
	srv, wsURL, conns := bridgeServer(t, func(f frame) *frame { return nil })
	defer srv.Close()

	p := detect(t, wsURL, time.Second)
	conn := <-conns
	conn.Close()

	select {
	case _, ok := <-p.Events():
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event channel never closed")
	}
}

func TestDetectNoBridge(t *testing.T) {
	d := NewDetector("ws://127.0.0.1:1/wallet", 50*time.Millisecond, 100*time.Millisecond, time.Second, zerolog.Nop())
	_, err := d.Detect(context.Background())
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}
