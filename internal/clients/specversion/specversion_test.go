package specversion

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/errs"
	"go-subxt/internal/rpc"
	"go-subxt/models"
)

// chain runs spec 1 on blocks 0-9, spec 2 on 10-24 and spec 5 on 25-30.
type chain struct {
	mu      sync.Mutex
	head    uint64
	queries int
	sub     *rpc.Subscription[models.RuntimeVersion]
}

func specAt(n uint64) uint32 {
	switch {
	case n < 10:
		return 1
	case n < 25:
		return 2
	}
	return 5
}

func (c *chain) BlockHash(_ context.Context, n uint64) (models.Hash, error) {
	if n > c.head {
		return models.Hash{}, errs.NotFound("block", strconv.FormatUint(n, 10))
	}
	var h models.Hash
	h[0], h[1] = byte(n), 0xbb
	return h, nil
}

func (c *chain) RuntimeVersion(_ context.Context, at *models.Hash) (models.RuntimeVersion, error) {
	c.mu.Lock()
	c.queries++
	c.mu.Unlock()
	n := c.head
	if at != nil {
		n = uint64(at[0])
	}
	return models.RuntimeVersion{SpecName: "node", SpecVersion: specAt(n), TransactionVersion: 1}, nil
}

func (c *chain) SubscribeRuntimeVersion(context.Context) (*rpc.Subscription[models.RuntimeVersion], error) {
	return c.sub, nil
}

func TestAt(t *testing.T) {
	c := NewClient(&chain{head: 30})
	for _, n := range []uint64{0, 9, 10, 24, 25, 30} {
		v, err := c.At(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, specAt(n), v, "block %d", n)
	}

	_, err := c.At(context.Background(), 31)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestCurrent(t *testing.T) {
	v, err := NewClient(&chain{head: 30}).Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v.SpecVersion)
}

func TestRanges(t *testing.T) {
	node := &chain{head: 30}
	ranges, err := NewClient(node).Ranges(context.Background(), 30)
	require.NoError(t, err)

	assert.Equal(t, RangeList{
		{SpecVersion: 1, First: 0, Last: 9},
		{SpecVersion: 2, First: 10, Last: 24},
		{SpecVersion: 5, First: 25, Last: 30},
	}, ranges)
	assert.Less(t, node.queries, 31, "binary search should not visit every block")

	r, err := ranges.ForBlock(17)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), r.SpecVersion)

	_, err = ranges.ForBlock(99)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestRangesSingleVersion(t *testing.T) {
	ranges, err := NewClient(&chain{head: 30}).Ranges(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, RangeList{{SpecVersion: 1, First: 0, Last: 5}}, ranges)
}

func TestMonitorFlagsUpgradeOnce(t *testing.T) {
	node := &chain{sub: rpc.NewSubscription[models.RuntimeVersion](4, nil)}

	upgrades := make(chan [2]uint32, 2)
	m, err := StartMonitor(context.Background(), node, 5, func(from, to uint32) {
		upgrades <- [2]uint32{from, to}
	})
	require.NoError(t, err)
	assert.False(t, m.Stale())

	require.True(t, node.sub.Push(models.RuntimeVersion{SpecVersion: 5}))
	require.True(t, node.sub.Push(models.RuntimeVersion{SpecVersion: 6}))
	require.True(t, node.sub.Push(models.RuntimeVersion{SpecVersion: 7}))

	select {
	case got := <-upgrades:
		assert.Equal(t, [2]uint32{5, 6}, got)
	case <-time.After(time.Second):
		t.Fatal("upgrade not reported")
	}
	assert.Eventually(t, func() bool { return m.Current() == 7 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Stale())
	assert.Len(t, upgrades, 0)

	require.NoError(t, m.Stop(context.Background()))
}

func TestMonitorEndsWithStream(t *testing.T) {
	node := &chain{sub: rpc.NewSubscription[models.RuntimeVersion](1, nil)}
	m, err := StartMonitor(context.Background(), node, 1, nil)
	require.NoError(t, err)

	node.sub.Finish(errs.Transport("subscribe", errors.New("gone")))
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	assert.False(t, m.Stale())
}
