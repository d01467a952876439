package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type serverRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers requests with handle; handle may write extra frames through send.
type fakeNode struct {
	server  *httptest.Server
	dials   atomic.Int32
	mu      sync.Mutex
	methods []string
}

func newFakeNode(t *testing.T, handle func(req serverRequest, send func(v interface{}))) *fakeNode {
	t.Helper()
	n := &fakeNode{}
	n.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n.dials.Add(1)

		send := func(v interface{}) { _ = conn.WriteJSON(v) }
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req serverRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}
			n.mu.Lock()
			n.methods = append(n.methods, req.Method)
			n.mu.Unlock()
			if req.Method == "test_hangup" {
				return
			}
			handle(req, send)
		}
	}))
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) url() string {
	return "ws" + strings.TrimPrefix(n.server.URL, "http")
}

func (n *fakeNode) called(method string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.methods {
		if m == method {
			return true
		}
	}
	return false
}

func result(id uint64, v interface{}) map[string]interface{} {
	return map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": v}
}

func notification(sub string, v interface{}) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "test_notify",
		"params":  map[string]interface{}{"subscription": sub, "result": v},
	}
}

func echoNode(t *testing.T) *fakeNode {
	return newFakeNode(t, func(req serverRequest, send func(v interface{})) {
		switch req.Method {
		case "test_echo":
			send(result(req.ID, req.Params[0]))
		case "test_fail":
			send(map[string]interface{}{
				"jsonrpc": "2.0", "id": req.ID,
				"error": map[string]interface{}{"code": 1010, "message": "Invalid Transaction"},
			})
		case "test_subscribe":
			send(result(req.ID, "sub-1"))
			for i := 0; i < 3; i++ {
				send(notification("sub-1", i))
			}
		case "test_unsubscribe":
			send(result(req.ID, true))
		}
	})
}

func dial(t *testing.T, n *fakeNode) *WsClient {
	t.Helper()
	c, err := Dial(context.Background(), n.url(), DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCall(t *testing.T) {
	c := dial(t, echoNode(t))

	var out string
	require.NoError(t, c.Call(context.Background(), "test_echo", []interface{}{"0x1234"}, &out))
	assert.Equal(t, "0x1234", out)
}

func TestConcurrentCallsAreMultiplexed(t *testing.T) {
	c := dial(t, echoNode(t))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out int
			assert.NoError(t, c.Call(context.Background(), "test_echo", []interface{}{i}, &out))
			assert.Equal(t, i, out)
		}(i)
	}
	wg.Wait()
}

func TestCallReturnsNodeError(t *testing.T) {
	c := dial(t, echoNode(t))

	err := c.Call(context.Background(), "test_fail", nil, nil)
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 1010, rpcErr.Code)
	assert.Contains(t, err.Error(), "Invalid Transaction")
}

func TestCallPrebuilt(t *testing.T) {
	c := dial(t, echoNode(t))

	var out string
	err := c.CallPrebuilt(context.Background(), "test_echo", func(id int) []byte {
		return []byte(fmt.Sprintf(`{"id":%d,"method":"test_echo","params":["prebuilt"],"jsonrpc":"2.0"}`, id))
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "prebuilt", out)
}

func TestSubscribeDeliversInOrder(t *testing.T) {
	n := echoNode(t)
	c := dial(t, n)

	sub, err := c.Subscribe(context.Background(), "test_subscribe", nil, "test_unsubscribe")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", sub.ID())

	for want := 0; want < 3; want++ {
		select {
		case msg := <-sub.Chan():
			var got int
			require.NoError(t, json.Unmarshal(msg, &got))
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for notification")
		}
	}

	require.NoError(t, sub.Unsubscribe(context.Background()))
	_, open := <-sub.Chan()
	assert.False(t, open)
	assert.NoError(t, sub.Err())
	assert.True(t, n.called("test_unsubscribe"))

	// second call is a no-op
	require.NoError(t, sub.Unsubscribe(context.Background()))
}

func TestDroppedConnectionFailsSubscriptionsAndRedials(t *testing.T) {
	n := echoNode(t)
	c := dial(t, n)

	sub, err := c.Subscribe(context.Background(), "test_subscribe", nil, "test_unsubscribe")
	require.NoError(t, err)

	err = c.Call(context.Background(), "test_hangup", nil, nil)
	require.ErrorIs(t, err, ErrConnectionLost)

	for range sub.Chan() {
	}
	assert.ErrorIs(t, sub.Err(), ErrConnectionLost)

	var out string
	require.NoError(t, c.Call(context.Background(), "test_echo", []interface{}{"again"}, &out))
	assert.Equal(t, "again", out)
	assert.Equal(t, int32(2), n.dials.Load())
}

func TestCallHonoursContext(t *testing.T) {
	n := newFakeNode(t, func(req serverRequest, send func(v interface{})) {})
	c := dial(t, n)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Call(ctx, "test_silent", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	c := dial(t, echoNode(t))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Call(context.Background(), "test_echo", []interface{}{1}, nil), ErrClosed)
}

func TestDialWithRetryGivesUp(t *testing.T) {
	n := echoNode(t)
	url := n.url()
	n.server.Close()

	_, err := DialWithRetry(context.Background(), url, DefaultOptions(), 1)
	assert.Error(t, err)
}

func TestSubscriptionID(t *testing.T) {
	id, err := subscriptionID(json.RawMessage(`"abc"`))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	id, err = subscriptionID(json.RawMessage(`42`))
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	_, err = subscriptionID(json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidSubscribe)
}
