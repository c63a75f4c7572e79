package domain

import "errors"

// Errors
var (
	ErrNoProvider        = errors.New("no wallet provider available")
	ErrUserRejected      = errors.New("request rejected by wallet user")
	ErrTimeout           = errors.New("wallet request timed out")
	ErrChainMismatch     = errors.New("wallet is on a different chain")
	ErrUnsupportedChain  = errors.New("chain not in registry")
	ErrInsufficientFunds = errors.New("insufficient funds for gas")
	ErrProvider          = errors.New("wallet provider error")
)

// EIP-1193 / JSON-RPC error codes the wallet reports.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
	CodeRequestPending    = -32002
	CodeInsufficientFunds = -32000
)

// RPCError is a structured error returned by the wallet provider.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// MapRPCError converts a provider error into the session error taxonomy.
// Unrecognized codes pass through verbatim so callers can inspect them.
func MapRPCError(err error) error {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	switch rpcErr.Code {
	case CodeUserRejected:
		return ErrUserRejected
	case CodeInsufficientFunds:
		return ErrInsufficientFunds
	}
	return err
}
