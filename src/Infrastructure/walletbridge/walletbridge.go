// Package walletbridge implements the wallet provider seam over a
// websocket bridge. The browser side of the app keeps one socket open per
// wallet session and relays EIP-1193 requests to the injected provider;
// this client speaks the other end of that socket.
//
// Wire format, one JSON object per frame:
//   - request:  {"id": 7, "method": "eth_chainId", "params": [...]}
//   - response: {"id": 7, "result": ...} | {"id": 7, "error": {"code", "message"}}
//   - event:    {"event": "chainChanged", "data": "0x38"}
package walletbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lakkhi/walletd/src/wallet/domain"
)

type frame struct {
	ID     uint64           `json:"id,omitempty"`
	Method string           `json:"method,omitempty"`
	Params []any            `json:"params,omitempty"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *domain.RPCError `json:"error,omitempty"`
	Event  string           `json:"event,omitempty"`
	Data   json.RawMessage  `json:"data,omitempty"`
}

type pendingResult struct {
	result json.RawMessage
	err    error
}

// Bridge is a live provider connection. Create one via Detector.Detect.
type Bridge struct {
	conn           *websocket.Conn
	logger         zerolog.Logger
	requestTimeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan pendingResult

	events    chan domain.Event
	closed    chan struct{}
	closeOnce sync.Once
}

var _ domain.Provider = (*Bridge)(nil)

func newBridge(conn *websocket.Conn, requestTimeout time.Duration, logger zerolog.Logger) *Bridge {
	b := &Bridge{
		conn:           conn,
		logger:         logger,
		requestTimeout: requestTimeout,
		pending:        make(map[uint64]chan pendingResult),
		events:         make(chan domain.Event, 16),
		closed:         make(chan struct{}),
	}
	go b.readLoop()
	return b
}

// Request performs one wallet RPC round trip. Wallet-side failures come
// back as *domain.RPCError; transport failures as wrapped ErrProvider.
func (b *Bridge) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	id := b.nextID.Add(1)
	ch := make(chan pendingResult, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if params == nil {
		params = []any{}
	}
	req := frame{ID: id, Method: method, Params: params}

	b.writeMu.Lock()
	err := b.conn.WriteJSON(req)
	b.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", domain.ErrProvider, method, err)
	}

	timer := time.NewTimer(b.requestTimeout)
	defer timer.Stop()

	start := time.Now()
	select {
	case res := <-ch:
		b.logger.Debug().
			Str("method", method).
			Str("duration", time.Since(start).String()).
			Bool("ok", res.err == nil).
			Msg("wallet rpc")
		return res.result, res.err
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s", domain.ErrTimeout, method)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.closed:
		return nil, fmt.Errorf("%w: bridge closed", domain.ErrProvider)
	}
}

func (b *Bridge) Events() <-chan domain.Event {
	return b.events
}

func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.conn.Close()
	})
	return nil
}

func (b *Bridge) readLoop() {
	defer func() {
		b.Close()
		close(b.events)
		// fail any in-flight requests
		b.mu.Lock()
		for id, ch := range b.pending {
			ch <- pendingResult{err: fmt.Errorf("%w: connection lost", domain.ErrProvider)}
			delete(b.pending, id)
		}
		b.mu.Unlock()
	}()

	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			select {
			case <-b.closed:
			default:
				b.logger.Warn().Err(err).Msg("wallet bridge read failed")
			}
			return
		}

		if f.Event != "" {
			ev, ok := decodeEvent(f)
			if !ok {
				b.logger.Warn().Str("event", f.Event).Msg("unknown bridge event")
				continue
			}
			select {
			case b.events <- ev:
			case <-b.closed:
				return
			}
			continue
		}

		b.mu.Lock()
		ch, ok := b.pending[f.ID]
		b.mu.Unlock()
		if !ok {
			continue
		}
		if f.Error != nil {
			ch <- pendingResult{err: f.Error}
		} else {
			ch <- pendingResult{result: f.Result}
		}
	}
}

func decodeEvent(f frame) (domain.Event, bool) {
	switch domain.EventKind(f.Event) {
	case domain.EventAccountsChanged:
		var accounts []string
		if err := json.Unmarshal(f.Data, &accounts); err != nil {
			return domain.Event{}, false
		}
		return domain.Event{Kind: domain.EventAccountsChanged, Accounts: accounts}, true
	case domain.EventChainChanged:
		var chainID string
		if err := json.Unmarshal(f.Data, &chainID); err != nil {
			return domain.Event{}, false
		}
		return domain.Event{Kind: domain.EventChainChanged, ChainID: chainID}, true
	case domain.EventConnect:
		var payload struct {
			ChainID string `json:"chainId"`
		}
		_ = json.Unmarshal(f.Data, &payload)
		return domain.Event{Kind: domain.EventConnect, ChainID: payload.ChainID}, true
	case domain.EventDisconnect:
		return domain.Event{Kind: domain.EventDisconnect}, true
	}
	return domain.Event{}, false
}

// Detector dials the bridge endpoint: a fast attempt first, then a bounded
// retry probe for slow-injecting wallets. It never prompts the user.
type Detector struct {
	url            string
	fast           time.Duration
	probe          time.Duration
	requestTimeout time.Duration
	logger         zerolog.Logger
}

var _ domain.Detector = (*Detector)(nil)

func NewDetector(url string, fast, probe, requestTimeout time.Duration, logger zerolog.Logger) *Detector {
	return &Detector{
		url:            url,
		fast:           fast,
		probe:          probe,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

func (d *Detector) Detect(ctx context.Context) (domain.Provider, error) {
	if conn, err := d.dial(ctx, d.fast); err == nil {
		return newBridge(conn, d.requestTimeout, d.logger), nil
	}

	deadline := time.Now().Add(d.probe)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		if conn, err := d.dial(ctx, d.fast); err == nil {
			return newBridge(conn, d.requestTimeout, d.logger), nil
		}
	}
	return nil, fmt.Errorf("%w: no bridge at %s", domain.ErrNoProvider, d.url)
}

func (d *Detector) dial(ctx context.Context, timeout time.Duration) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, d.url, nil)
	return conn, err
}
