// Package ethereum provides read-only chain access over public RPC
// endpoints: ERC20 reads, DEX router quotes, receipt lookups and gas
// estimation. It deliberately holds no keys and signs nothing; transaction
// submission goes through the wallet provider.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
)

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "symbol",
		"outputs": [{"name": "", "type": "string"}],
		"type": "function"
	}
]`

const routerABI = `[
	{
		"constant": true,
		"inputs": [
			{"name": "amountIn", "type": "uint256"},
			{"name": "path", "type": "address[]"}
		],
		"name": "getAmountsOut",
		"outputs": [{"name": "amounts", "type": "uint256[]"}],
		"type": "function"
	}
]`

// Errors
var (
	ErrConnectNetwork = errors.New("failed to connect to network")
	ErrParseABI       = errors.New("failed to parse ABI")
	ErrContractCall   = errors.New("failed to call contract function")
	ErrNoRouter       = errors.New("chain has no quoting router")
)

// Client is a read-only RPC client bound to one chain.
type Client struct {
	chain  chains.Chain
	client *ethclient.Client
	erc20  abi.ABI
	router abi.ABI
	log    *logger.Logger
}

// NewClient dials the chain's RPC endpoints in order and keeps the first
// that answers.
func NewClient(ctx context.Context, chain chains.Chain, logg *logger.Logger) (*Client, error) {
	var (
		cli     *ethclient.Client
		dialErr error
	)
	for _, rpcURL := range chain.RPCURLs {
		cli, dialErr = ethclient.DialContext(ctx, rpcURL)
		if dialErr == nil {
			break
		}
		logg.Warnf("rpc endpoint %s unreachable: %v", rpcURL, dialErr)
	}
	if cli == nil {
		return nil, fmt.Errorf("%w: chain %d: %v", ErrConnectNetwork, chain.ID, dialErr)
	}

	erc20Parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: ERC20 ABI: %v", ErrParseABI, err)
	}
	routerParsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: router ABI: %v", ErrParseABI, err)
	}

	return &Client{
		chain:  chain,
		client: cli,
		erc20:  erc20Parsed,
		router: routerParsed,
		log:    logg,
	}, nil
}

func (c *Client) Close() { c.client.Close() }

func (c *Client) Chain() chains.Chain { return c.chain }

func (c *Client) BalanceOf(ctx context.Context, token, holder string) (*big.Int, error) {
	var out []interface{}
	contract := bind.NewBoundContract(common.HexToAddress(token), c.erc20, c.client, c.client, c.client)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(holder)); err != nil {
		return nil, fmt.Errorf("%w: balanceOf: %v", ErrContractCall, err)
	}
	return out[0].(*big.Int), nil
}

func (c *Client) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	var out []interface{}
	contract := bind.NewBoundContract(common.HexToAddress(token), c.erc20, c.client, c.client, c.client)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance",
		common.HexToAddress(owner), common.HexToAddress(spender)); err != nil {
		return nil, fmt.Errorf("%w: allowance: %v", ErrContractCall, err)
	}
	return out[0].(*big.Int), nil
}

func (c *Client) Decimals(ctx context.Context, token string) (uint8, error) {
	var out []interface{}
	contract := bind.NewBoundContract(common.HexToAddress(token), c.erc20, c.client, c.client, c.client)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "decimals"); err != nil {
		return 0, fmt.Errorf("%w: decimals: %v", ErrContractCall, err)
	}
	return out[0].(uint8), nil
}

// AmountsOut simulates a swap of amountIn along path on the chain's
// router and returns the output amounts per hop.
func (c *Client) AmountsOut(ctx context.Context, amountIn *big.Int, path []string) ([]*big.Int, error) {
	if c.chain.Router == "" {
		return nil, fmt.Errorf("%w: chain %d", ErrNoRouter, c.chain.ID)
	}
	addrs := make([]common.Address, len(path))
	for i, p := range path {
		addrs[i] = common.HexToAddress(p)
	}
	var out []interface{}
	contract := bind.NewBoundContract(common.HexToAddress(c.chain.Router), c.router, c.client, c.client, c.client)
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAmountsOut", amountIn, addrs); err != nil {
		return nil, fmt.Errorf("%w: getAmountsOut: %v", ErrContractCall, err)
	}
	return out[0].([]*big.Int), nil
}

// TransactionReceipt returns nil without error while the transaction is
// still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (*types.Receipt, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, geth.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	return receipt, nil
}

func (c *Client) EstimateGas(ctx context.Context, from, to string, data []byte, value *big.Int) (uint64, error) {
	msg := geth.CallMsg{
		From:  common.HexToAddress(from),
		Data:  data,
		Value: value,
	}
	if to != "" {
		toAddr := common.HexToAddress(to)
		msg.To = &toAddr
	}
	return c.client.EstimateGas(ctx, msg)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.client.SuggestGasPrice(ctx)
}

// Pool hands out lazily-dialed per-chain clients.
type Pool struct {
	registry *chains.Registry
	log      *logger.Logger

	mu      sync.Mutex
	clients map[uint64]*Client
}

func NewPool(registry *chains.Registry, logg *logger.Logger) *Pool {
	return &Pool{
		registry: registry,
		log:      logg,
		clients:  make(map[uint64]*Client),
	}
}

func (p *Pool) ForChain(ctx context.Context, chainID uint64) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cli, ok := p.clients[chainID]; ok {
		return cli, nil
	}
	chain, err := p.registry.ByID(chainID)
	if err != nil {
		return nil, err
	}
	cli, err := NewClient(ctx, chain, p.log)
	if err != nil {
		return nil, err
	}
	p.clients[chainID] = cli
	return cli, nil
}

func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, cli := range p.clients {
		cli.Close()
		delete(p.clients, id)
	}
}
