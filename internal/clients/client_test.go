package clients

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/clients/event"
	"go-subxt/internal/clients/extrinsic"
	"go-subxt/internal/clients/metadata"
	"go-subxt/internal/clients/metadata/metadatatest"
	"go-subxt/internal/codec"
	"go-subxt/internal/errs"
	"go-subxt/internal/hasher"
	"go-subxt/internal/metrics"
	"go-subxt/internal/rpc"
	"go-subxt/internal/signer"
	"go-subxt/models"
)

// stubNode answers from memory and records every method invoked on it.
type stubNode struct {
	mu          sync.Mutex
	invocations []string

	metadata []byte
	genesis  models.Hash
	runtime  models.RuntimeVersion
	storage  map[string][]byte

	submitErr error
	submitted [][]byte
	statuses  []models.ExtrinsicStatus
	block     models.Hash

	runtimeSub *rpc.Subscription[models.RuntimeVersion]
	closed     int
}

func newStubNode() *stubNode {
	var genesis, block models.Hash
	genesis[0], block[0] = 0x91, 0xb1
	return &stubNode{
		metadata: metadatatest.V12(),
		genesis:  genesis,
		block:    block,
		runtime:  models.RuntimeVersion{SpecName: "node", SpecVersion: 30, TransactionVersion: 7},
		storage:  map[string][]byte{},
	}
}

func (n *stubNode) record(method string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invocations = append(n.invocations, method)
}

func (n *stubNode) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invocations = nil
}

func (n *stubNode) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.invocations...)
}

func (n *stubNode) count(method string) int {
	total := 0
	for _, m := range n.calls() {
		if m == method {
			total++
		}
	}
	return total
}

func (n *stubNode) set(key, value []byte) {
	n.storage[hex.EncodeToString(key)] = value
}

func (n *stubNode) Metadata(context.Context, *models.Hash) ([]byte, error) {
	n.record("Metadata")
	return n.metadata, nil
}

func (n *stubNode) GenesisHash(context.Context) (models.Hash, error) {
	n.record("GenesisHash")
	return n.genesis, nil
}

func (n *stubNode) BlockHash(context.Context, uint64) (models.Hash, error) {
	n.record("BlockHash")
	return n.genesis, nil
}

func (n *stubNode) RuntimeVersion(context.Context, *models.Hash) (models.RuntimeVersion, error) {
	n.record("RuntimeVersion")
	return n.runtime, nil
}

func (n *stubNode) Storage(_ context.Context, key []byte, _ *models.Hash) ([]byte, bool, error) {
	n.record("Storage")
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.storage[hex.EncodeToString(key)]
	return v, ok, nil
}

func (n *stubNode) SubmitExtrinsic(_ context.Context, xt []byte) (models.Hash, error) {
	n.record("SubmitExtrinsic")
	n.mu.Lock()
	defer n.mu.Unlock()
	n.submitted = append(n.submitted, xt)
	if n.submitErr != nil {
		return models.Hash{}, n.submitErr
	}
	return extrinsic.Hash(xt), nil
}

func (n *stubNode) SubmitAndWatchExtrinsic(_ context.Context, xt []byte) (*rpc.Subscription[models.ExtrinsicStatus], error) {
	n.record("SubmitAndWatchExtrinsic")
	n.mu.Lock()
	n.submitted = append(n.submitted, xt)
	statuses := append([]models.ExtrinsicStatus(nil), n.statuses...)
	submitErr := n.submitErr
	n.mu.Unlock()
	if submitErr != nil {
		return nil, submitErr
	}

	sub := rpc.NewSubscription[models.ExtrinsicStatus](len(statuses), nil)
	go func() {
		for _, s := range statuses {
			if !sub.Push(s) {
				break
			}
		}
		sub.Finish(nil)
	}()
	return sub, nil
}

// Block holds a foreign extrinsic followed by everything submitted so far.
func (n *stubNode) Block(_ context.Context, hash *models.Hash) (*models.SignedBlock, error) {
	n.record("Block")
	n.mu.Lock()
	defer n.mu.Unlock()
	if hash == nil || *hash != n.block {
		return nil, errs.NotFound("block", "")
	}
	body := []models.HexBytes{codec.PrefixLength([]byte{0x04, 1, 0})}
	for _, xt := range n.submitted {
		body = append(body, xt)
	}
	return &models.SignedBlock{Block: models.Block{Extrinsics: body}}, nil
}

func (n *stubNode) SubscribeStorage(context.Context, [][]byte) (*rpc.Subscription[models.StorageChangeSet], error) {
	n.record("SubscribeStorage")
	return rpc.NewSubscription[models.StorageChangeSet](1, nil), nil
}

func (n *stubNode) SubscribeNewHeads(context.Context) (*rpc.Subscription[models.Header], error) {
	n.record("SubscribeNewHeads")
	return rpc.NewSubscription[models.Header](1, nil), nil
}

func (n *stubNode) SubscribeFinalizedHeads(context.Context) (*rpc.Subscription[models.Header], error) {
	n.record("SubscribeFinalizedHeads")
	return rpc.NewSubscription[models.Header](1, nil), nil
}

func (n *stubNode) SubscribeRuntimeVersion(context.Context) (*rpc.Subscription[models.RuntimeVersion], error) {
	n.record("SubscribeRuntimeVersion")
	if n.runtimeSub == nil {
		n.runtimeSub = rpc.NewSubscription[models.RuntimeVersion](4, nil)
	}
	return n.runtimeSub, nil
}

func (n *stubNode) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed++
	return nil
}

type stubEvents []event.Event

func (s stubEvents) Decode([]byte) ([]event.Event, error) {
	return s, nil
}

type stubSigner struct{}

func (stubSigner) PublicKey() []byte           { return bytes.Repeat([]byte{0xd4}, 32) }
func (stubSigner) Scheme() signer.Scheme       { return signer.SchemeSr25519 }
func (stubSigner) Sign([]byte) ([]byte, error) { return bytes.Repeat([]byte{0x11}, 64), nil }

var blockEvents = stubEvents{
	{Index: 0, Phase: event.PhaseApplyExtrinsic, ExtrinsicIndex: 0, Module: "System", Name: "ExtrinsicSuccess"},
	{Index: 1, Phase: event.PhaseApplyExtrinsic, ExtrinsicIndex: 1, Module: "Balances", Name: "Transfer"},
	{Index: 2, Phase: event.PhaseApplyExtrinsic, ExtrinsicIndex: 1, Module: "System", Name: "ExtrinsicSuccess"},
	{Index: 3, Phase: event.PhaseFinalization, Module: "Session", Name: "NewSession"},
}

func build(t *testing.T, node *stubNode, configure ...func(*ClientBuilder)) *Client {
	t.Helper()
	b := NewClientBuilder().
		SetNode(node).
		SetEventDecoder(func(*metadata.Registry, uint32) (event.Decoder, error) { return blockEvents, nil })
	for _, f := range configure {
		f(b)
	}
	c, err := b.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func builder(t *testing.T, c *Client, nonce uint32) *XtBuilder {
	t.Helper()
	xt, err := c.XT(context.Background(), stubSigner{}, &nonce)
	require.NoError(t, err)
	return xt
}

func transferArgs() [][]byte {
	return [][]byte{append([]byte{0x00}, bytes.Repeat([]byte{0x8e}, 32)...), codec.EncodeCompact(1000)}
}

func TestBuildFetchesEverything(t *testing.T) {
	node := newStubNode()
	c := build(t, node)

	assert.Equal(t, node.genesis, c.GenesisHash())
	assert.Equal(t, uint32(30), c.RuntimeVersion().SpecVersion)
	assert.Equal(t, 12, c.Metadata().Version())
	assert.Equal(t, 1, node.count("Metadata"))
	assert.Equal(t, 1, node.count("GenesisHash"))
	assert.False(t, c.Stale())
}

func TestBuildRejectsBadMetadata(t *testing.T) {
	node := newStubNode()
	node.metadata = []byte("meta")
	_, err := NewClientBuilder().SetNode(node).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.KindMetadata, errs.KindOf(err))
}

func TestBuildRejectsWatchUntil(t *testing.T) {
	_, err := NewClientBuilder().SetNode(newStubNode()).SetWatchUntil(models.StatusReady).Build(context.Background())
	assert.Error(t, err)
}

func TestCloneSharesState(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	clone := c.Clone()

	assert.Same(t, c.Metadata(), clone.Metadata())
	assert.Equal(t, c.GenesisHash(), clone.GenesisHash())
	assert.Equal(t, 1, node.count("Metadata"))

	require.NoError(t, clone.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, node.closed)
}

func TestFetch(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	ctx := context.Background()

	key := []byte{0xaa, 0x01}
	node.set(key, codec.MustEncode(uint32(42)))

	v, found, err := Fetch[uint32](ctx, c, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint32(42), v)

	v, found, err = Fetch[uint32](ctx, c, []byte{0xaa, 0x02})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, v)
}

func TestFetchOrDefault(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	ctx := context.Background()

	present := []byte{0xbb, 0x01}
	node.set(present, codec.MustEncode(uint32(9)))
	absent := []byte{0xbb, 0x02}

	v, err := FetchOrDefault[uint32](ctx, c, absent)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)

	v, err = FetchOrDefault[uint32](ctx, c, present)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), v)

	v, err = FetchOr[uint32](ctx, c, absent, 77)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), v)

	v, err = FetchOr[uint32](ctx, c, present, 77)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), v)
}

func TestFetchDecodingError(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	key := []byte{0xcc}
	node.set(key, []byte{1})

	_, _, err := Fetch[uint64](context.Background(), c, key)
	require.Error(t, err)
	assert.Equal(t, errs.KindDecoding, errs.KindOf(err))
}

func TestXTLooksUpNonce(t *testing.T) {
	node := newStubNode()
	c := build(t, node)

	s, err := c.Storage("System", "AccountNonce")
	require.NoError(t, err)
	key, err := s.MapKey(signer.AccountID(stubSigner{}))
	require.NoError(t, err)
	node.set(key, []byte{7, 0, 0, 0})

	xt, err := c.XT(context.Background(), stubSigner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), xt.Nonce())
}

func TestXTUnknownAccountStartsAtZero(t *testing.T) {
	xt, err := build(t, newStubNode()).XT(context.Background(), stubSigner{}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), xt.Nonce())
}

func TestSubscriptions(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	ctx := context.Background()

	_, err := c.SubscribeEvents(ctx)
	require.NoError(t, err)
	_, err = c.SubscribeBlocks(ctx)
	require.NoError(t, err)
	_, err = c.SubscribeFinalizedBlocks(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, node.count("SubscribeStorage"))
	assert.Equal(t, 1, node.count("SubscribeNewHeads"))
	assert.Equal(t, 1, node.count("SubscribeFinalizedHeads"))
}

func TestStaleAfterRuntimeUpgrade(t *testing.T) {
	node := newStubNode()
	c := build(t, node, func(b *ClientBuilder) { b.MonitorRuntime(true) })
	xt := builder(t, c, 0)

	require.True(t, node.runtimeSub.Push(models.RuntimeVersion{SpecVersion: 31}))
	assert.Eventually(t, c.Stale, time.Second, 5*time.Millisecond)

	node.reset()
	_, err := xt.SubmitCall(context.Background(), "Balances", "transfer", transferArgs()...)
	require.Error(t, err)
	assert.Equal(t, errs.KindMetadata, errs.KindOf(err))
	assert.True(t, errors.Is(err, ErrStaleRuntime))
	assert.Empty(t, node.calls())
	assert.Equal(t, uint32(0), xt.Nonce())
}

func TestMetricsRecordSubmissions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	node := newStubNode()
	c := build(t, node, func(b *ClientBuilder) { b.SetMetrics(m) })
	xt := builder(t, c, 0)

	_, err = xt.SubmitCall(context.Background(), "Balances", "transfer", transferArgs()...)
	require.NoError(t, err)
	node.submitErr = errs.Transport("author_submitExtrinsic", errors.New("boom"))
	_, err = xt.SubmitCall(context.Background(), "Balances", "transfer", transferArgs()...)
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "subxt_extrinsic_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func eventsKeyFor(t *testing.T, scheme metadata.PrefixScheme) []byte {
	t.Helper()
	reg, err := metadata.Parse(metadatatest.V12(), metadata.WithPrefixScheme(scheme))
	require.NoError(t, err)
	s, err := reg.Storage("System", "Events")
	require.NoError(t, err)
	key, err := s.PlainKey()
	require.NoError(t, err)
	return key
}

func TestEventsKeyFollowsPrefixScheme(t *testing.T) {
	c := build(t, newStubNode())
	key, err := c.EventsKey()
	require.NoError(t, err)
	assert.Equal(t, "26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7", hex.EncodeToString(key))

	legacy := build(t, newStubNode(), func(b *ClientBuilder) { b.SetPrefixScheme(metadata.PrefixLegacy) })
	key, err = legacy.EventsKey()
	require.NoError(t, err)
	assert.Equal(t, hasher.XX128([]byte("System Events")), key)
}

func TestEventsKeyMissing(t *testing.T) {
	node := newStubNode()
	node.metadata = metadatatest.Encode(12, []metadatatest.Module{metadatatest.Balances(0)}, []string{"CheckNonce"})
	c := build(t, node)

	_, err := c.EventsKey()
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = c.EventsAt(context.Background(), node.block)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestFetchDynamicFoundFlag(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	ctx := context.Background()
	account := bytes.Repeat([]byte{0x42}, 32)

	bonded, err := c.Metadata().Storage("Staking", "Bonded")
	require.NoError(t, err)
	v, found, err := c.FetchDynamic(ctx, bonded, account)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)

	now, err := c.Metadata().Storage("Timestamp", "Now")
	require.NoError(t, err)
	v, found, err = c.FetchDynamic(ctx, now)
	require.NoError(t, err)
	assert.True(t, found, "unset default items report their default")
	assert.NotNil(t, v)

	key, err := bonded.MapKey(account)
	require.NoError(t, err)
	node.set(key, bytes.Repeat([]byte{0x43}, 32))
	v, found, err = c.FetchDynamic(ctx, bonded, account)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, v)
}
