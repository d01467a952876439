package clients

import (
	"context"

	"go-subxt/internal/clients/extrinsic"
	"go-subxt/internal/messages"
	"go-subxt/models"
)

// extensionNames is the signed extension list of the runtime, or the default set for
// metadata that does not declare one.
func (c *Client) extensionNames() []string {
	names := c.shared.registry.SignedExtensions()
	if len(names) == 0 {
		messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "", nil, messages.EXTRINSIC_EXTENSIONS_FALLB).ConsoleLog()
		return extrinsic.DefaultExtensions()
	}
	return names
}

// BlockExtrinsics summarises the body of block, best block when nil.
func (c *Client) BlockExtrinsics(ctx context.Context, block *models.Hash) (models.Header, []extrinsic.Summary, error) {
	if err := c.checkFresh("block extrinsics"); err != nil {
		return models.Header{}, nil, err
	}
	b, err := c.shared.node.Block(ctx, block)
	if err != nil {
		return models.Header{}, nil, err
	}
	names := c.extensionNames()
	out := make([]extrinsic.Summary, 0, len(b.Block.Extrinsics))
	for _, raw := range b.Block.Extrinsics {
		s, err := extrinsic.Inspect(raw, c.shared.registry, c.shared.options.AddressFormat, names)
		if err != nil {
			return b.Block.Header, nil, err
		}
		out = append(out, s)
	}
	return b.Block.Header, out, nil
}
