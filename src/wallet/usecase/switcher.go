package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/wallet/domain"
)

// Switcher drives the wallet's active network to a target chain,
// registering the network with the wallet when it is unknown there.
type Switcher struct {
	session  *Service
	registry *chains.Registry
	logger   *logger.Logger
}

func NewSwitcher(session *Service, registry *chains.Registry, logg *logger.Logger) *Switcher {
	return &Switcher{session: session, registry: registry, logger: logg}
}

// addChainParams is the wallet_addEthereumChain payload shape.
type addChainParams struct {
	ChainID           string          `json:"chainId"`
	ChainName         string          `json:"chainName"`
	NativeCurrency    chains.Currency `json:"nativeCurrency"`
	RPCURLs           []string        `json:"rpcUrls"`
	BlockExplorerURLs []string        `json:"blockExplorerUrls,omitempty"`
}

// SwitchTo asks the wallet to activate chainID. Success means the request
// was accepted: the authoritative new chain arrives via the chainChanged
// event, not synchronously. Switching to the already-active chain succeeds
// without a wallet prompt.
func (sw *Switcher) SwitchTo(ctx context.Context, chainID uint64) error {
	desc, err := sw.registry.ByID(chainID)
	if err != nil {
		return fmt.Errorf("%w: %d", domain.ErrUnsupportedChain, chainID)
	}

	if sw.session.Snapshot().ChainID == chainID {
		return nil
	}

	provider := sw.session.Provider()
	if provider == nil {
		return domain.ErrNoProvider
	}

	_, err = provider.Request(ctx, "wallet_switchEthereumChain",
		map[string]string{"chainId": desc.HexID()})
	if err == nil {
		return nil
	}

	var rpcErr *domain.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == domain.CodeUnrecognizedChain {
		sw.logger.Infof("wallet does not know chain %d, registering %s", chainID, desc.Name)
		return sw.addChain(ctx, provider, desc)
	}
	if errors.As(err, &rpcErr) && rpcErr.Code == domain.CodeUserRejected {
		return domain.ErrUserRejected
	}
	return err
}

func (sw *Switcher) addChain(ctx context.Context, provider domain.Provider, desc chains.Chain) error {
	// Add requests that register a new chain also activate it, so a
	// confirmed add satisfies the switch.
	_, err := provider.Request(ctx, "wallet_addEthereumChain", addChainParams{
		ChainID:           desc.HexID(),
		ChainName:         desc.Name,
		NativeCurrency:    desc.Currency,
		RPCURLs:           desc.RPCURLs,
		BlockExplorerURLs: []string{desc.ExplorerURL},
	})
	if err == nil {
		return nil
	}
	var rpcErr *domain.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == domain.CodeUserRejected {
		return domain.ErrUserRejected
	}
	return err
}
