// Package specversion tracks which runtime version a chain runs: at a block, across block
// ranges, and live through the runtime version subscription.
package specversion

import (
	"context"

	"go-subxt/internal/messages"
	"go-subxt/models"
)

// Source is the part of the node API version lookups need.
type Source interface {
	BlockHash(ctx context.Context, number uint64) (models.Hash, error)
	RuntimeVersion(ctx context.Context, at *models.Hash) (models.RuntimeVersion, error)
}

type Client struct {
	node Source
}

func NewClient(node Source) *Client {
	return &Client{node: node}
}

// Current returns the runtime version of the best block.
func (c *Client) Current(ctx context.Context) (models.RuntimeVersion, error) {
	v, err := c.node.RuntimeVersion(ctx, nil)
	if err != nil {
		return v, err
	}
	messages.NewClientMessage(
		messages.LOG_LEVEL_DEBUG,
		messages.GetComponent(c.Current),
		nil,
		messages.SPEC_VERSION_RETRIEVED,
		v.SpecName,
		v.SpecVersion,
		v.TransactionVersion,
	).ConsoleLog()
	return v, nil
}

// At returns the spec version of the block at height.
func (c *Client) At(ctx context.Context, height uint64) (uint32, error) {
	hash, err := c.node.BlockHash(ctx, height)
	if err != nil {
		return 0, err
	}
	v, err := c.node.RuntimeVersion(ctx, &hash)
	if err != nil {
		return 0, err
	}
	return v.SpecVersion, nil
}

// Ranges lists the spec version ranges between genesis and lastBlock.
func (c *Client) Ranges(ctx context.Context, lastBlock uint64) (RangeList, error) {
	var ranges RangeList

	start := uint64(0)
	current, err := c.At(ctx, start)
	if err != nil {
		return nil, err
	}
	for {
		last, err := c.lastBlockFor(ctx, current, start, lastBlock)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, Range{SpecVersion: current, Last: last})
		messages.NewClientMessage(
			messages.LOG_LEVEL_INFO,
			"",
			nil,
			messages.SPEC_VERSION_RANGE,
			current,
			start,
			last,
		).ConsoleLog()

		if last >= lastBlock {
			break
		}
		start = last + 1
		if current, err = c.At(ctx, start); err != nil {
			return nil, err
		}
	}
	ranges.FillFirst()
	return ranges, nil
}

// lastBlockFor binary searches [start, end] for the last block still running specVersion.
// Spec versions never decrease along the chain.
func (c *Client) lastBlockFor(ctx context.Context, specVersion uint32, start, end uint64) (uint64, error) {
	s, e := start, end
	for s < e {
		mid := s + (e-s+1)/2
		v, err := c.At(ctx, mid)
		if err != nil {
			return 0, err
		}
		if v > specVersion {
			e = mid - 1
		} else {
			s = mid
		}
	}
	return s, nil
}
