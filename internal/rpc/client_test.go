package rpc

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/connection"
	"go-subxt/internal/errs"
	"go-subxt/models"
)

const genesis = "0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3"

type nodeRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func startNode(t *testing.T) *Client {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		reply := func(id uint64, v interface{}) {
			_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": v})
		}
		notify := func(sub string, v interface{}) {
			_ = conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0", "method": "author_extrinsicUpdate",
				"params": map[string]interface{}{"subscription": sub, "result": v},
			})
		}
		for {
			var req nodeRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			switch req.Method {
			case "chain_getBlockHash":
				var n uint64
				_ = json.Unmarshal(req.Params[0], &n)
				if n == 0 {
					reply(req.ID, genesis)
				} else {
					reply(req.ID, nil)
				}
			case "state_getStorage":
				var key string
				_ = json.Unmarshal(req.Params[0], &key)
				if key == "0x01" {
					reply(req.ID, "0x2a000000")
				} else {
					reply(req.ID, nil)
				}
			case "state_getRuntimeVersion":
				reply(req.ID, map[string]interface{}{"specName": "node", "specVersion": 268, "transactionVersion": 2})
			case "chain_getBlock":
				reply(req.ID, nil)
			case "author_submitExtrinsic":
				_ = conn.WriteJSON(map[string]interface{}{
					"jsonrpc": "2.0", "id": req.ID,
					"error": map[string]interface{}{"code": 1010, "message": "Invalid Transaction"},
				})
			case "author_submitAndWatchExtrinsic":
				reply(req.ID, "w1")
				notify("w1", "ready")
				notify("w1", map[string]interface{}{"inBlock": genesis})
				notify("w1", map[string]interface{}{"finalized": genesis})
			case "author_unwatchExtrinsic":
				reply(req.ID, true)
			}
		}
	}))
	t.Cleanup(server.Close)

	c, err := Dial(context.Background(), "ws"+strings.TrimPrefix(server.URL, "http"), connection.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGenesisHash(t *testing.T) {
	c := startNode(t)
	h, err := c.GenesisHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, genesis, h.Hex())
}

func TestUnknownBlockHeight(t *testing.T) {
	c := startNode(t)
	_, err := c.BlockHash(context.Background(), 1<<20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestStorageFoundAndAbsent(t *testing.T) {
	c := startNode(t)

	v, found, err := c.Storage(context.Background(), []byte{0x01}, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{0x2a, 0, 0, 0}, v)

	v, found, err = c.Storage(context.Background(), []byte{0x02}, nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestRuntimeVersion(t *testing.T) {
	c := startNode(t)
	v, err := c.RuntimeVersion(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(268), v.SpecVersion)
	assert.Equal(t, uint32(2), v.TransactionVersion)
}

func TestMissingBlockIsNotFound(t *testing.T) {
	c := startNode(t)
	_, err := c.Block(context.Background(), nil)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestNodeErrorIsTransport(t *testing.T) {
	c := startNode(t)
	_, err := c.SubmitExtrinsic(context.Background(), []byte{0x01})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTransport))
	var rpcErr *connection.RPCError
	assert.True(t, errors.As(err, &rpcErr))
}

func TestSubmitAndWatchStatuses(t *testing.T) {
	c := startNode(t)
	sub, err := c.SubmitAndWatchExtrinsic(context.Background(), []byte{0x01})
	require.NoError(t, err)

	var kinds []models.ExtrinsicStatusKind
	timeout := time.After(2 * time.Second)
	for len(kinds) < 3 {
		select {
		case st := <-sub.Chan():
			kinds = append(kinds, st.Kind)
		case <-timeout:
			t.Fatal("timeout waiting for statuses")
		}
	}
	assert.Equal(t, []models.ExtrinsicStatusKind{models.StatusReady, models.StatusInBlock, models.StatusFinalized}, kinds)

	require.NoError(t, sub.Unsubscribe(context.Background()))
	for range sub.Chan() {
	}
	assert.NoError(t, sub.Err())
}

func TestSubscriptionPushAfterUnsubscribe(t *testing.T) {
	calls := 0
	sub := NewSubscription[int](1, func(context.Context) error {
		calls++
		return nil
	})
	assert.True(t, sub.Push(1))
	require.NoError(t, sub.Unsubscribe(context.Background()))
	require.NoError(t, sub.Unsubscribe(context.Background()))
	assert.Equal(t, 1, calls)
	assert.False(t, sub.Push(2))

	sub.Finish(errors.New("ignored after close"))
	sub.Finish(nil)
	got := []int{}
	for v := range sub.Chan() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1}, got)
}
