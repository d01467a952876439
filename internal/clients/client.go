// Package clients is the client runtime: a Client bound to one node and one metadata snapshot,
// and the XtBuilder that signs and submits extrinsics through it.
package clients

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"go-subxt/internal/clients/event"
	"go-subxt/internal/clients/metadata"
	"go-subxt/internal/clients/specversion"
	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/internal/messages"
	"go-subxt/internal/metrics"
	"go-subxt/internal/rpc"
	"go-subxt/internal/signer"
	"go-subxt/models"
)

type (
	// Client is a handle on a connected node. Clones share everything and are cheap.
	Client struct {
		shared *shared
	}

	// shared is immutable after Build except for the stale flag and the close state.
	shared struct {
		node      rpc.Node
		registry  *metadata.Registry
		genesis   models.Hash
		runtime   models.RuntimeVersion
		events    event.Decoder
		eventsKey []byte
		options   Options
		metrics   *metrics.Metrics
		monitor   *specversion.Monitor

		stale     atomic.Bool
		closeOnce sync.Once
		closeErr  error
	}
)

// Clone returns another handle on the same connection and metadata.
func (c *Client) Clone() *Client {
	return &Client{shared: c.shared}
}

func (c *Client) Node() rpc.Node {
	return c.shared.node
}

func (c *Client) Metadata() *metadata.Registry {
	return c.shared.registry
}

func (c *Client) GenesisHash() models.Hash {
	return c.shared.genesis
}

func (c *Client) RuntimeVersion() models.RuntimeVersion {
	return c.shared.runtime
}

func (c *Client) Options() Options {
	return c.shared.options
}

// Stale reports whether the node upgraded its runtime since Build. Only tracked when the
// builder enabled MonitorRuntime.
func (c *Client) Stale() bool {
	return c.shared.stale.Load()
}

func (c *Client) checkFresh(op string) error {
	if c.Stale() {
		return errs.Metadata(op, ErrStaleRuntime)
	}
	return nil
}

// Module looks a module up in the client's metadata.
func (c *Client) Module(name string) (*metadata.Module, error) {
	if err := c.checkFresh("module"); err != nil {
		return nil, err
	}
	return c.shared.registry.Module(name)
}

func (c *Client) Storage(module, item string) (*metadata.Storage, error) {
	if err := c.checkFresh("storage"); err != nil {
		return nil, err
	}
	return c.shared.registry.Storage(module, item)
}

// Call encodes module.name with already encoded arguments.
func (c *Client) Call(module, name string, args ...[]byte) (metadata.EncodedCall, error) {
	m, err := c.Module(module)
	if err != nil {
		return metadata.EncodedCall{}, err
	}
	return m.Call(name, args...)
}

// FetchRaw reads the value at key from the best block; found is false for unset keys.
func (c *Client) FetchRaw(ctx context.Context, key []byte) ([]byte, bool, error) {
	return c.shared.node.Storage(ctx, key, nil)
}

// FetchDynamic reads a storage item and decodes it by its declared value type. Unset Default
// items yield their metadata default with found set; unset Optional items are (nil, false, nil).
func (c *Client) FetchDynamic(ctx context.Context, s *metadata.Storage, keys ...[]byte) (interface{}, bool, error) {
	if err := c.checkFresh("storage"); err != nil {
		return nil, false, err
	}
	key, err := s.Key(keys...)
	if err != nil {
		return nil, false, err
	}
	raw, found, err := c.FetchRaw(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		if s.Modifier == metadata.ModifierOptional {
			return nil, false, nil
		}
		v, err := s.DefaultValue()
		return v, err == nil, err
	}
	v, err := codec.DecodeByType(s.ValueType, raw)
	return v, err == nil, err
}

// Fetch reads key and decodes it into V. An unset key is (zero, false, nil).
func Fetch[V any](ctx context.Context, c *Client, key []byte) (V, bool, error) {
	var v V
	raw, found, err := c.FetchRaw(ctx, key)
	if err != nil || !found {
		return v, false, err
	}
	if err := codec.Decode(raw, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// FetchOr is Fetch returning def for an unset key.
func FetchOr[V any](ctx context.Context, c *Client, key []byte, def V) (V, error) {
	v, found, err := Fetch[V](ctx, c, key)
	if err != nil {
		return v, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// FetchOrDefault is Fetch returning the zero value of V for an unset key.
func FetchOrDefault[V any](ctx context.Context, c *Client, key []byte) (V, error) {
	var zero V
	return FetchOr(ctx, c, key, zero)
}

// EventsKey is the System.Events storage key under the client's prefix scheme.
func (c *Client) EventsKey() ([]byte, error) {
	if c.shared.eventsKey == nil {
		return nil, errs.NotFound("storage", systemModule+"."+storageEvents)
	}
	return c.shared.eventsKey, nil
}

// SubscribeEvents streams the change sets of System.Events.
func (c *Client) SubscribeEvents(ctx context.Context) (*rpc.Subscription[models.StorageChangeSet], error) {
	key, err := c.EventsKey()
	if err != nil {
		return nil, err
	}
	return c.shared.node.SubscribeStorage(ctx, [][]byte{key})
}

// SubscribeBlocks streams new block headers.
func (c *Client) SubscribeBlocks(ctx context.Context) (*rpc.Subscription[models.Header], error) {
	return c.shared.node.SubscribeNewHeads(ctx)
}

// SubscribeFinalizedBlocks streams finalized block headers.
func (c *Client) SubscribeFinalizedBlocks(ctx context.Context) (*rpc.Subscription[models.Header], error) {
	return c.shared.node.SubscribeFinalizedHeads(ctx)
}

// DecodeEvents decodes a raw System.Events value.
func (c *Client) DecodeEvents(raw []byte) ([]event.Event, error) {
	return c.shared.events.Decode(raw)
}

// EventsAt returns the events recorded in block.
func (c *Client) EventsAt(ctx context.Context, block models.Hash) ([]event.Event, error) {
	key, err := c.EventsKey()
	if err != nil {
		return nil, err
	}
	raw, found, err := c.shared.node.Storage(ctx, key, &block)
	if err != nil || !found {
		return nil, err
	}
	return c.DecodeEvents(raw)
}

// AccountNonce reads the next nonce of accountID from System.AccountNonce, or from the
// leading u32 of System.Account on runtimes that merged the two.
func (c *Client) AccountNonce(ctx context.Context, accountID []byte) (uint32, error) {
	system, err := c.Module(systemModule)
	if err != nil {
		return 0, err
	}

	var s *metadata.Storage
	if s, err = system.Storage(storageAccountNonce); err != nil {
		if s, err = system.Storage(storageAccount); err != nil {
			return 0, err
		}
	}
	key, err := s.MapKey(accountID)
	if err != nil {
		return 0, err
	}
	raw, found, err := c.FetchRaw(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	if len(raw) < 4 {
		return 0, errs.Decodingf("account nonce", "value of %d bytes", len(raw))
	}
	nonce := binary.LittleEndian.Uint32(raw[:4])

	messages.NewClientMessage(
		messages.LOG_LEVEL_DEBUG,
		messages.GetComponent(c.AccountNonce),
		nil,
		messages.EXTRINSIC_NONCE_QUERIED,
		nonce,
	).ConsoleLog()
	return nonce, nil
}

// XT derives an extrinsic builder for s. A nil nonce is looked up from the chain.
func (c *Client) XT(ctx context.Context, s signer.Signer, nonce *uint32) (*XtBuilder, error) {
	if err := c.checkFresh("xt"); err != nil {
		return nil, err
	}
	var start uint32
	if nonce != nil {
		start = *nonce
	} else {
		n, err := c.AccountNonce(ctx, signer.AccountID(s))
		if err != nil {
			return nil, err
		}
		start = n
	}
	xt := &XtBuilder{client: c.Clone(), signer: s, nonce: start}
	xt.account = signer.SS58Encode(signer.AccountID(s), c.shared.options.SS58Prefix)
	c.shared.metrics.SetNonce(xt.account, start)
	return xt, nil
}

// Close stops the runtime monitor and closes the connection shared by every clone.
func (c *Client) Close() error {
	s := c.shared
	s.closeOnce.Do(func() {
		messages.NewClientMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CLIENT_CLOSING).ConsoleLog()
		var result *multierror.Error
		if s.monitor != nil {
			if err := s.monitor.Stop(context.Background()); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := s.node.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		s.closeErr = result.ErrorOrNil()
	})
	return s.closeErr
}
