package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/itering/substrate-api-rpc/rpc"

	"go-subxt/internal/codec"
	"go-subxt/internal/connection"
	"go-subxt/internal/errs"
	"go-subxt/models"
)

const subscriptionBuffer = 256

// Client implements Node over a websocket connection.
type Client struct {
	conn *connection.WsClient
}

var _ Node = (*Client)(nil)

func NewClient(conn *connection.WsClient) *Client {
	return &Client{conn: conn}
}

// Dial connects a new Client to url.
func Dial(ctx context.Context, url string, opts connection.Options) (*Client, error) {
	conn, err := connection.Dial(ctx, url, opts)
	if err != nil {
		return nil, errs.Transport("dial", err)
	}
	return NewClient(conn), nil
}

func (c *Client) Endpoint() string {
	return c.conn.Endpoint()
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if err := c.conn.Call(ctx, method, params, result); err != nil {
		return transportError(method, err)
	}
	return nil
}

func (c *Client) Metadata(ctx context.Context, at *models.Hash) ([]byte, error) {
	var raw string
	var err error
	if at != nil {
		err = c.conn.CallPrebuilt(ctx, "state_getMetadata", func(id int) []byte {
			return rpc.StateGetMetadata(id, at.Hex())
		}, &raw)
	} else {
		err = c.conn.Call(ctx, "state_getMetadata", nil, &raw)
	}
	if err != nil {
		return nil, transportError("state_getMetadata", err)
	}
	return codec.HexToBytes(raw)
}

func (c *Client) GenesisHash(ctx context.Context) (models.Hash, error) {
	return c.BlockHash(ctx, 0)
}

func (c *Client) BlockHash(ctx context.Context, number uint64) (models.Hash, error) {
	var hash *models.Hash
	err := c.conn.CallPrebuilt(ctx, "chain_getBlockHash", func(id int) []byte {
		return rpc.ChainGetBlockHash(id, int(number))
	}, &hash)
	if err != nil {
		return models.Hash{}, transportError("chain_getBlockHash", err)
	}
	if hash == nil {
		return models.Hash{}, errs.NotFound("block", strconv.FormatUint(number, 10))
	}
	return *hash, nil
}

func (c *Client) RuntimeVersion(ctx context.Context, at *models.Hash) (models.RuntimeVersion, error) {
	var version models.RuntimeVersion
	var err error
	if at != nil {
		err = c.conn.CallPrebuilt(ctx, "chain_getRuntimeVersion", func(id int) []byte {
			return rpc.ChainGetRuntimeVersion(id, at.Hex())
		}, &version)
	} else {
		err = c.conn.Call(ctx, "state_getRuntimeVersion", nil, &version)
	}
	if err != nil {
		return version, transportError("state_getRuntimeVersion", err)
	}
	return version, nil
}

func (c *Client) Storage(ctx context.Context, key []byte, at *models.Hash) ([]byte, bool, error) {
	params := []interface{}{codec.BytesToHex(key)}
	if at != nil {
		params = append(params, at.Hex())
	}
	var value *models.HexBytes
	if err := c.call(ctx, "state_getStorage", params, &value); err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return []byte(*value), true, nil
}

func (c *Client) SubmitExtrinsic(ctx context.Context, xt []byte) (models.Hash, error) {
	var hash models.Hash
	err := c.call(ctx, "author_submitExtrinsic", []interface{}{codec.BytesToHex(xt)}, &hash)
	return hash, err
}

func (c *Client) SubmitAndWatchExtrinsic(ctx context.Context, xt []byte) (*Subscription[models.ExtrinsicStatus], error) {
	return subscribe[models.ExtrinsicStatus](ctx, c, "author_submitAndWatchExtrinsic",
		[]interface{}{codec.BytesToHex(xt)}, "author_unwatchExtrinsic")
}

func (c *Client) Block(ctx context.Context, hash *models.Hash) (*models.SignedBlock, error) {
	var params []interface{}
	if hash != nil {
		params = append(params, hash.Hex())
	}
	var block *models.SignedBlock
	if err := c.call(ctx, "chain_getBlock", params, &block); err != nil {
		return nil, err
	}
	if block == nil {
		name := "best"
		if hash != nil {
			name = hash.Hex()
		}
		return nil, errs.NotFound("block", name)
	}
	return block, nil
}

func (c *Client) SubscribeStorage(ctx context.Context, keys [][]byte) (*Subscription[models.StorageChangeSet], error) {
	hexKeys := make([]string, len(keys))
	for i, k := range keys {
		hexKeys[i] = codec.BytesToHex(k)
	}
	return subscribe[models.StorageChangeSet](ctx, c, "state_subscribeStorage",
		[]interface{}{hexKeys}, "state_unsubscribeStorage")
}

func (c *Client) SubscribeNewHeads(ctx context.Context) (*Subscription[models.Header], error) {
	return subscribe[models.Header](ctx, c, "chain_subscribeNewHeads", nil, "chain_unsubscribeNewHeads")
}

func (c *Client) SubscribeFinalizedHeads(ctx context.Context) (*Subscription[models.Header], error) {
	return subscribe[models.Header](ctx, c, "chain_subscribeFinalizedHeads", nil, "chain_unsubscribeFinalizedHeads")
}

func (c *Client) SubscribeRuntimeVersion(ctx context.Context) (*Subscription[models.RuntimeVersion], error) {
	return subscribe[models.RuntimeVersion](ctx, c, "state_subscribeRuntimeVersion", nil, "state_unsubscribeRuntimeVersion")
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// subscribe opens a raw subscription and decodes each notification into T.
func subscribe[T any](ctx context.Context, c *Client, method string, params []interface{}, unsubMethod string) (*Subscription[T], error) {
	raw, err := c.conn.Subscribe(ctx, method, params, unsubMethod)
	if err != nil {
		return nil, transportError(method, err)
	}

	sub := NewSubscription[T](subscriptionBuffer, raw.Unsubscribe)
	go func() {
		for {
			select {
			case msg, ok := <-raw.Chan():
				if !ok {
					var err error
					if rawErr := raw.Err(); rawErr != nil {
						err = transportError(method, rawErr)
					}
					sub.Finish(err)
					return
				}
				var item T
				if err := json.Unmarshal(msg, &item); err != nil {
					_ = raw.Unsubscribe(context.Background())
					sub.Finish(errs.Decoding(method, err))
					return
				}
				if !sub.Push(item) {
					sub.Finish(nil)
					return
				}
			case <-sub.Done():
				sub.Finish(nil)
				return
			}
		}
	}()
	return sub, nil
}

func transportError(method string, err error) error {
	var kinded *errs.Error
	if errors.As(err, &kinded) {
		return err
	}
	return errs.Transport(method, err)
}
