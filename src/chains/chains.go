package chains

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownChain = errors.New("unknown chain")

// Currency is the native currency metadata of a chain, as the wallet
// expects it in wallet_addEthereumChain params.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// QuoteAsset is a base asset a DEX router can quote against.
type QuoteAsset struct {
	Symbol   string
	Address  string
	Decimals int
	// USDPegged marks assets whose unit price is taken as one dollar.
	USDPegged bool
}

// Chain is a static registry entry for a supported network. Immutable,
// looked up by id.
type Chain struct {
	ID          uint64
	Name        string
	Currency    Currency
	RPCURLs     []string
	ExplorerURL string

	// DEX quoting configuration. Router may be empty for chains without a
	// known liquidity router; the on-chain price source skips those.
	Router string
	// QuoteAssets in priority order: wrapped native first, then stables.
	QuoteAssets []QuoteAsset
}

// HexID renders the canonical wallet-facing chain id ("0x38").
func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", c.ID)
}

// WrappedNative returns the first non-pegged quote asset, if any.
func (c Chain) WrappedNative() (QuoteAsset, bool) {
	for _, a := range c.QuoteAssets {
		if !a.USDPegged {
			return a, true
		}
	}
	return QuoteAsset{}, false
}

// Stable returns the first USD-pegged quote asset, if any.
func (c Chain) Stable() (QuoteAsset, bool) {
	for _, a := range c.QuoteAssets {
		if a.USDPegged {
			return a, true
		}
	}
	return QuoteAsset{}, false
}

type Registry struct {
	byID map[uint64]Chain
}

func NewRegistry(chains ...Chain) *Registry {
	if len(chains) == 0 {
		chains = Defaults()
	}
	r := &Registry{byID: make(map[uint64]Chain, len(chains))}
	for _, c := range chains {
		r.byID[c.ID] = c
	}
	return r
}

func (r *Registry) ByID(id uint64) (Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return Chain{}, fmt.Errorf("%w: %d", ErrUnknownChain, id)
	}
	return c, nil
}

// ParseChainID normalizes a wallet-reported chain id. Wallets report hex
// ("0x38"), config and URLs tend to use decimal ("56").
func ParseChainID(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty id", ErrUnknownChain)
	}
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		id, err := strconv.ParseUint(raw[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnknownChain, raw)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChain, raw)
	}
	return id, nil
}

// Defaults returns the built-in chain set. BSC mainnet is the campaign
// chain; the testnet and Ethereum entries cover staging and token imports.
func Defaults() []Chain {
	return []Chain{
		{
			ID:       56,
			Name:     "BNB Smart Chain",
			Currency: Currency{Name: "BNB", Symbol: "BNB", Decimals: 18},
			RPCURLs: []string{
				"https://bsc-dataseed.binance.org",
				"https://bsc-dataseed1.defibit.io",
			},
			ExplorerURL: "https://bscscan.com",
			Router:      "0x10ED43C718714eb63d5aA57B78B54704E256024E",
			QuoteAssets: []QuoteAsset{
				{Symbol: "WBNB", Address: "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", Decimals: 18},
				{Symbol: "BUSD", Address: "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", Decimals: 18, USDPegged: true},
			},
		},
		{
			ID:       97,
			Name:     "BNB Smart Chain Testnet",
			Currency: Currency{Name: "tBNB", Symbol: "tBNB", Decimals: 18},
			RPCURLs: []string{
				"https://data-seed-prebsc-1-s1.binance.org:8545",
			},
			ExplorerURL: "https://testnet.bscscan.com",
			Router:      "0xD99D1c33F9fC3444f8101754aBC46c52416550D1",
			QuoteAssets: []QuoteAsset{
				{Symbol: "WBNB", Address: "0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd", Decimals: 18},
				{Symbol: "BUSD", Address: "0xeD24FC36d5Ee211Ea25A80239Fb8C4Cfd80f12Ee", Decimals: 18, USDPegged: true},
			},
		},
		{
			ID:       1,
			Name:     "Ethereum Mainnet",
			Currency: Currency{Name: "Ether", Symbol: "ETH", Decimals: 18},
			RPCURLs: []string{
				"https://eth.llamarpc.com",
			},
			ExplorerURL: "https://etherscan.io",
			Router:      "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
			QuoteAssets: []QuoteAsset{
				{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
				{Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6, USDPegged: true},
			},
		},
	}
}
