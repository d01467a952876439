package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"go-subxt/internal/messages"
)

// WsClient is a JSON-RPC 2.0 client over one websocket. Requests are multiplexed by id and
// notifications are routed by subscription id. A dropped socket fails everything in flight
// and is dialled again on the next request.
type WsClient struct {
	endpoint string
	opts     Options

	connMu sync.Mutex // guards conn and serialises writes
	conn   *websocket.Conn

	requestID atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]*pendingCall

	subsMu sync.Mutex
	subs   map[string]*Subscription

	closed atomic.Bool
}

// Dial connects to endpoint.
func Dial(ctx context.Context, endpoint string, opts Options) (*WsClient, error) {
	if opts.SubscriptionBuffer <= 0 {
		opts.SubscriptionBuffer = DefaultOptions().SubscriptionBuffer
	}
	c := &WsClient{
		endpoint: endpoint,
		opts:     opts,
		pending:  make(map[uint64]*pendingCall),
		subs:     make(map[string]*Subscription),
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if _, err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// DialWithRetry retries Dial with exponential backoff, at most retries extra attempts.
func DialWithRetry(ctx context.Context, endpoint string, opts Options, retries uint64) (*WsClient, error) {
	var (
		client  *WsClient
		attempt int
	)
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		c, err := Dial(ctx, endpoint, opts)
		if err != nil {
			messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "connection", err, messages.CONNECTION_DIAL_RETRY, attempt, endpoint).ConsoleLog()
			return retry.RetryableError(err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *WsClient) Endpoint() string {
	return c.endpoint
}

func (c *WsClient) connectLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}

	messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "connection", nil, messages.CONNECTION_DIALING, c.endpoint).ConsoleLog()
	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.DialTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", c.endpoint, err)
	}
	c.conn = conn
	go c.readLoop(conn)

	messages.NewClientMessage(messages.LOG_LEVEL_INFO, "connection", nil, messages.CONNECTION_ESTABLISHED, c.endpoint).ConsoleLog()
	return conn, nil
}

// Call sends method with params and decodes the result into result (which may be nil).
func (c *WsClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	raw, err := c.call(ctx, func(id uint64) ([]byte, error) {
		return json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	}, nil)
	if err != nil {
		return err
	}
	return decodeResult(method, raw, result)
}

// CallPrebuilt sends a request produced by build, for callers that already have request
// builders taking the request id.
func (c *WsClient) CallPrebuilt(ctx context.Context, name string, build func(id int) []byte, result interface{}) error {
	raw, err := c.call(ctx, func(id uint64) ([]byte, error) {
		return build(int(id)), nil
	}, nil)
	if err != nil {
		return err
	}
	return decodeResult(name, raw, result)
}

// Subscribe opens a subscription; unsubMethod is called by Subscription.Unsubscribe.
func (c *WsClient) Subscribe(ctx context.Context, method string, params []interface{}, unsubMethod string) (*Subscription, error) {
	if params == nil {
		params = []interface{}{}
	}
	sub := newSubscription(c, unsubMethod, c.opts.SubscriptionBuffer)
	_, err := c.call(ctx, func(id uint64) ([]byte, error) {
		return json.Marshal(request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	}, sub)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *WsClient) call(ctx context.Context, build func(id uint64) ([]byte, error), sink *Subscription) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if _, ok := ctx.Deadline(); !ok && c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}

	id := c.requestID.Add(1)
	payload, err := build(id)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	pc := &pendingCall{ch: make(chan callResult, 1), sink: sink}
	c.pendingMu.Lock()
	c.pending[id] = pc
	c.pendingMu.Unlock()
	defer c.dropPending(id)

	if err := c.write(ctx, payload); err != nil {
		return nil, err
	}

	select {
	case res := <-pc.ch:
		return res.result, res.err
	case <-ctx.Done():
		c.pendingMu.Lock()
		_, waiting := c.pending[id]
		delete(c.pending, id)
		c.pendingMu.Unlock()
		if !waiting && sink != nil {
			// the node answered while we gave up, so the subscription exists and must go
			if res := <-pc.ch; res.err == nil {
				go func() { _ = sink.Unsubscribe(context.Background()) }()
			}
		}
		return nil, ctx.Err()
	}
}

func (c *WsClient) write(ctx context.Context, payload []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	conn, err := c.connectLocked(ctx)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (c *WsClient) dropPending(id uint64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *WsClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			_ = conn.Close()
			cause := ErrClosed
			if !c.closed.Load() {
				cause = fmt.Errorf("%w: %v", ErrConnectionLost, err)
				messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "connection", err, messages.CONNECTION_READ_FAILED).ConsoleLog()
			}

			c.connMu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.failAll(cause)
			c.connMu.Unlock()
			return
		}
		c.dispatch(data)
	}
}

func (c *WsClient) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "connection", err, messages.CONNECTION_BAD_FRAME).ConsoleLog()
		return
	}

	if f.ID == nil {
		if f.Params == nil {
			messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "connection", nil, messages.CONNECTION_BAD_FRAME).ConsoleLog()
			return
		}
		subID, err := subscriptionID(f.Params.Subscription)
		if err != nil {
			messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "connection", err, messages.CONNECTION_BAD_FRAME).ConsoleLog()
			return
		}
		c.subsMu.Lock()
		sub := c.subs[subID]
		c.subsMu.Unlock()
		if sub == nil {
			messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "connection", nil, messages.CONNECTION_UNKNOWN_SUB, subID).ConsoleLog()
			return
		}
		sub.deliver(f.Params.Result)
		return
	}

	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	pc := c.pending[*f.ID]
	if pc == nil {
		return
	}
	delete(c.pending, *f.ID)

	if f.Error != nil {
		pc.resolve(callResult{err: f.Error})
		return
	}
	if pc.sink != nil {
		subID, err := subscriptionID(f.Result)
		if err != nil {
			pc.resolve(callResult{err: err})
			return
		}
		pc.sink.id = subID
		c.subsMu.Lock()
		c.subs[subID] = pc.sink
		c.subsMu.Unlock()
	}
	pc.resolve(callResult{result: f.Result})
}

func (c *WsClient) removeSubscription(id string) {
	c.subsMu.Lock()
	delete(c.subs, id)
	c.subsMu.Unlock()
}

func (c *WsClient) failAll(cause error) {
	c.pendingMu.Lock()
	for id, pc := range c.pending {
		pc.resolve(callResult{err: cause})
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.subsMu.Lock()
	subs := c.subs
	c.subs = make(map[string]*Subscription)
	c.subsMu.Unlock()
	for _, sub := range subs {
		sub.finish(cause)
	}
}

// Close shuts the socket down and ends every pending call and subscription.
func (c *WsClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	var err error
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
	c.failAll(ErrClosed)
	messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "connection", nil, messages.CONNECTION_CLOSED, c.endpoint).ConsoleLog()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func decodeResult(method string, raw json.RawMessage, result interface{}) error {
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
