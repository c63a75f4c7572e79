package domain

import (
	"context"
	"encoding/json"
)

// EventKind identifies a provider push notification.
type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
	EventConnect         EventKind = "connect"
	EventDisconnect      EventKind = "disconnect"
)

// Event is a provider notification. Accounts is set for accountsChanged,
// ChainID (wallet-format hex string) for chainChanged and connect.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  string
}

// Provider is the injected wallet seam: a request/response RPC surface
// plus an event stream. Implementations must be safe for concurrent use.
type Provider interface {
	// Request performs one wallet RPC call. Errors carrying wallet error
	// codes are returned as *RPCError.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	// Events returns the provider notification stream. The channel is
	// closed when the provider connection is lost.
	Events() <-chan Event
	Close() error
}

// Detector probes for an injected provider and hands back a live one.
type Detector interface {
	// Detect must not prompt the user; it either finds a provider within
	// its budget or reports ErrNoProvider.
	Detect(ctx context.Context) (Provider, error)
}

// AccountRepository persists the auto-reconnect hint.
type AccountRepository interface {
	SaveAuthorized(ctx context.Context, acct AuthorizedAccount) error
	LastAuthorized(ctx context.Context) (*AuthorizedAccount, error)
	ClearAuthorized(ctx context.Context) error
}
