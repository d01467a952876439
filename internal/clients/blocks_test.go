package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-subxt/internal/errs"
)

func TestBlockExtrinsics(t *testing.T) {
	node := newStubNode()
	c := build(t, node)
	xt := builder(t, c, 9)

	hash, err := xt.SubmitCall(context.Background(), "Balances", "transfer", transferArgs()...)
	require.NoError(t, err)

	_, body, err := c.BlockExtrinsics(context.Background(), &node.block)
	require.NoError(t, err)
	require.Len(t, body, 2)

	assert.False(t, body[0].Signed)
	assert.Equal(t, "Timestamp", body[0].Module)
	assert.Equal(t, "set", body[0].Call)

	assert.True(t, body[1].Signed)
	assert.Equal(t, hash, body[1].Hash)
	assert.Equal(t, uint64(9), body[1].Nonce)
	assert.Equal(t, "transfer", body[1].Call)
}

func TestBlockExtrinsicsUnknownBlock(t *testing.T) {
	c := build(t, newStubNode())

	_, _, err := c.BlockExtrinsics(context.Background(), nil)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}
