package domain

// Status is the connection lifecycle state of the wallet session.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusDetecting     Status = "detecting"
	StatusNoProvider    Status = "no_provider"
	StatusDisconnected  Status = "disconnected"
	StatusConnecting    Status = "connecting"
	StatusConnected     Status = "connected"
)

// Session is the process-wide wallet connection state. Account is set iff
// Status is StatusConnected. ChainID may be known in any status once a
// provider has been detected (0 = unknown).
type Session struct {
	Status  Status `json:"status"`
	Account string `json:"account,omitempty"`
	ChainID uint64 `json:"chain_id,omitempty"`
}

// Connected reports whether the session holds an authorized account.
func (s Session) Connected() bool {
	return s.Status == StatusConnected
}

// AuthorizedAccount is the durable auto-reconnect hint: the last account
// the wallet authorized for this site.
type AuthorizedAccount struct {
	Address string
	ChainID uint64
}
