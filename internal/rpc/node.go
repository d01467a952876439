// Package rpc exposes the node methods the client runtime needs as a typed interface.
package rpc

import (
	"context"

	"go-subxt/models"
)

// DefaultURL is the local node endpoint used when none is configured.
const DefaultURL = "ws://127.0.0.1:9944"

// Node is the remote node as seen by the client runtime. at == nil means the best block.
type Node interface {
	Metadata(ctx context.Context, at *models.Hash) ([]byte, error)
	GenesisHash(ctx context.Context) (models.Hash, error)
	// BlockHash is NotFound for heights the node has not imported.
	BlockHash(ctx context.Context, number uint64) (models.Hash, error)
	RuntimeVersion(ctx context.Context, at *models.Hash) (models.RuntimeVersion, error)
	// Storage reports found == false for keys without a value.
	Storage(ctx context.Context, key []byte, at *models.Hash) (value []byte, found bool, err error)
	SubmitExtrinsic(ctx context.Context, xt []byte) (models.Hash, error)
	SubmitAndWatchExtrinsic(ctx context.Context, xt []byte) (*Subscription[models.ExtrinsicStatus], error)
	Block(ctx context.Context, hash *models.Hash) (*models.SignedBlock, error)
	SubscribeStorage(ctx context.Context, keys [][]byte) (*Subscription[models.StorageChangeSet], error)
	SubscribeNewHeads(ctx context.Context) (*Subscription[models.Header], error)
	SubscribeFinalizedHeads(ctx context.Context) (*Subscription[models.Header], error)
	SubscribeRuntimeVersion(ctx context.Context) (*Subscription[models.RuntimeVersion], error)
	Close() error
}
