package clients

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"go-subxt/internal/clients/event"
	"go-subxt/internal/clients/extrinsic"
	"go-subxt/internal/clients/metadata"
	"go-subxt/internal/clients/specversion"
	"go-subxt/internal/config"
	"go-subxt/internal/connection"
	"go-subxt/internal/errs"
	"go-subxt/internal/messages"
	"go-subxt/internal/metrics"
	"go-subxt/internal/rpc"
	"go-subxt/models"
)

// EventDecoderFactory builds the System.Events decoder for a parsed metadata snapshot.
type EventDecoderFactory func(registry *metadata.Registry, specVersion uint32) (event.Decoder, error)

func scaleEventDecoder(registry *metadata.Registry, specVersion uint32) (event.Decoder, error) {
	return event.NewScaleDecoder(registry.Decoded(), int(specVersion))
}

// ClientBuilder configures and connects a Client.
type ClientBuilder struct {
	url            string
	node           rpc.Node
	connOptions    connection.Options
	dialRetries    uint64
	options        Options
	monitorRuntime bool
	eventDecoder   EventDecoderFactory
	metrics        *metrics.Metrics
}

func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		url:          rpc.DefaultURL,
		connOptions:  connection.DefaultOptions(),
		options:      defaultOptions(),
		eventDecoder: scaleEventDecoder,
	}
}

// FromConfig applies the node and chain sections of cfg.
func (b *ClientBuilder) FromConfig(cfg config.Config) *ClientBuilder {
	b.SetURL(cfg.NodeConfig.WsRpcEndpoint)
	b.dialRetries = cfg.NodeConfig.DialRetries
	if cfg.NodeConfig.DialTimeoutMs > 0 {
		b.connOptions.DialTimeout = time.Duration(cfg.NodeConfig.DialTimeoutMs) * time.Millisecond
	}
	if cfg.NodeConfig.RequestTimeoutMs > 0 {
		b.connOptions.RequestTimeout = time.Duration(cfg.NodeConfig.RequestTimeoutMs) * time.Millisecond
	}
	b.SetPrefixScheme(metadata.PrefixScheme(cfg.ChainConfig.StoragePrefixScheme))
	b.SetAddressFormat(extrinsic.AddressFormat(cfg.ChainConfig.AddressFormat))
	b.SetWatchUntil(models.ExtrinsicStatusKind(cfg.ChainConfig.WatchUntil))
	b.SetTip(cfg.ChainConfig.Tip)
	b.options.SS58Prefix = cfg.ChainConfig.SS58Prefix
	b.MonitorRuntime(cfg.ChainConfig.MonitorRuntime)
	return b
}

// SetURL selects the node endpoint, rpc.DefaultURL when empty.
func (b *ClientBuilder) SetURL(url string) *ClientBuilder {
	if url != "" {
		b.url = url
	}
	return b
}

// SetNode uses an already connected node instead of dialing.
func (b *ClientBuilder) SetNode(node rpc.Node) *ClientBuilder {
	b.node = node
	return b
}

func (b *ClientBuilder) SetConnectionOptions(opts connection.Options) *ClientBuilder {
	b.connOptions = opts
	return b
}

func (b *ClientBuilder) SetDialRetries(retries uint64) *ClientBuilder {
	b.dialRetries = retries
	return b
}

func (b *ClientBuilder) SetPrefixScheme(scheme metadata.PrefixScheme) *ClientBuilder {
	if scheme != "" {
		b.options.PrefixScheme = scheme
	}
	return b
}

func (b *ClientBuilder) SetAddressFormat(format extrinsic.AddressFormat) *ClientBuilder {
	if format != "" {
		b.options.AddressFormat = format
	}
	return b
}

func (b *ClientBuilder) SetWatchUntil(kind models.ExtrinsicStatusKind) *ClientBuilder {
	if kind != "" {
		b.options.WatchUntil = kind
	}
	return b
}

func (b *ClientBuilder) SetTip(tip uint64) *ClientBuilder {
	b.options.Tip = tip
	return b
}

// MonitorRuntime makes the client follow runtime upgrades and turn stale on the first one.
func (b *ClientBuilder) MonitorRuntime(enabled bool) *ClientBuilder {
	b.monitorRuntime = enabled
	return b
}

func (b *ClientBuilder) SetEventDecoder(factory EventDecoderFactory) *ClientBuilder {
	if factory != nil {
		b.eventDecoder = factory
	}
	return b
}

func (b *ClientBuilder) SetMetrics(m *metrics.Metrics) *ClientBuilder {
	b.metrics = m
	return b
}

// Build connects to the node and fetches metadata, genesis hash and runtime version
// concurrently.
func (b *ClientBuilder) Build(ctx context.Context) (*Client, error) {
	if b.options.WatchUntil != models.StatusInBlock && b.options.WatchUntil != models.StatusFinalized {
		return nil, fmt.Errorf("watch until must be %s or %s, got %q", models.StatusInBlock, models.StatusFinalized, b.options.WatchUntil)
	}

	node := b.node
	if node == nil {
		messages.NewClientMessage(
			messages.LOG_LEVEL_INFO,
			"",
			nil,
			messages.CLIENT_BUILDING,
			b.url,
		).ConsoleLog()
		conn, err := connection.DialWithRetry(ctx, b.url, b.connOptions, b.dialRetries)
		if err != nil {
			return nil, errs.Transport("dial", err)
		}
		node = rpc.NewClient(conn)
	}

	client, err := b.bootstrap(ctx, node)
	if err != nil {
		if b.node == nil {
			_ = node.Close()
		}
		return nil, err
	}

	messages.NewClientMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		messages.CLIENT_READY,
		client.shared.genesis.Hex(),
	).ConsoleLog()
	return client, nil
}

func (b *ClientBuilder) bootstrap(ctx context.Context, node rpc.Node) (*Client, error) {
	var (
		rawMetadata []byte
		genesis     models.Hash
		runtime     models.RuntimeVersion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "", nil, messages.META_FETCHING).ConsoleLog()
		raw, err := node.Metadata(gctx, nil)
		rawMetadata = raw
		return err
	})
	g.Go(func() error {
		h, err := node.GenesisHash(gctx)
		genesis = h
		return err
	})
	g.Go(func() error {
		v, err := specversion.NewClient(node).Current(gctx)
		runtime = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	registry, err := metadata.Parse(rawMetadata, metadata.WithPrefixScheme(b.options.PrefixScheme))
	if err != nil {
		messages.NewClientMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(b.bootstrap),
			err,
			messages.META_FAILED_TO_LOAD,
		).ConsoleLog()
		return nil, err
	}
	messages.NewClientMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.META_PARSED,
		registry.Version(),
		len(registry.Modules()),
	).ConsoleLog()

	events, err := b.eventDecoder(registry, runtime.SpecVersion)
	if err != nil {
		return nil, errs.Metadata("event decoder", err)
	}

	s := &shared{
		node:      node,
		registry:  registry,
		genesis:   genesis,
		runtime:   runtime,
		events:    events,
		eventsKey: systemEventsKey(registry),
		options:   b.options,
		metrics:   b.metrics,
	}
	if b.monitorRuntime {
		monitor, err := specversion.StartMonitor(ctx, node, runtime.SpecVersion, func(_, _ uint32) {
			s.stale.Store(true)
		})
		if err != nil {
			return nil, err
		}
		s.monitor = monitor
	}
	return &Client{shared: s}, nil
}

// systemEventsKey derives the System.Events key under the registry's prefix scheme. It is nil
// for runtimes without the item; event reads then fail with a not found error.
func systemEventsKey(registry *metadata.Registry) []byte {
	s, err := registry.Storage(systemModule, storageEvents)
	if err != nil {
		return nil
	}
	key, err := s.PlainKey()
	if err != nil {
		return nil
	}
	return key
}
