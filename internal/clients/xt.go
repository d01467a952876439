package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-subxt/internal/clients/event"
	"go-subxt/internal/clients/extrinsic"
	"go-subxt/internal/clients/metadata"
	"go-subxt/internal/errs"
	"go-subxt/internal/messages"
	"go-subxt/internal/metrics"
	"go-subxt/internal/rpc"
	"go-subxt/internal/signer"
	"go-subxt/models"
)

// XtBuilder signs and submits extrinsics for one signer. The nonce advances once per
// submission attempt, before the extrinsic is written, and is never rolled back: a
// transport failure leaves it consumed.
type XtBuilder struct {
	client  *Client
	signer  signer.Signer
	account string

	// mu is held from nonce capture until the node acknowledged the write.
	mu    sync.Mutex
	nonce uint32
}

func (xt *XtBuilder) Signer() signer.Signer {
	return xt.signer
}

// Nonce is the nonce the next submission will use.
func (xt *XtBuilder) Nonce() uint32 {
	xt.mu.Lock()
	defer xt.mu.Unlock()
	return xt.nonce
}

// SetNonce overrides the local nonce, e.g. after out of band submissions.
func (xt *XtBuilder) SetNonce(nonce uint32) {
	xt.mu.Lock()
	defer xt.mu.Unlock()
	xt.nonce = nonce
	xt.client.shared.metrics.SetNonce(xt.account, nonce)
}

// sign builds the extrinsic for the current nonce. Callers hold mu.
func (xt *XtBuilder) sign(call metadata.EncodedCall) (extrinsic.Signed, error) {
	c := xt.client
	if err := c.checkFresh("sign"); err != nil {
		return extrinsic.Signed{}, err
	}

	exts, err := extrinsic.ResolveExtensions(c.extensionNames(), extrinsic.Params{
		SpecVersion: c.shared.runtime.SpecVersion,
		TxVersion:   c.shared.runtime.TransactionVersion,
		GenesisHash: c.shared.genesis,
		Nonce:       uint64(xt.nonce),
		Tip:         c.shared.options.Tip,
	})
	if err != nil {
		return extrinsic.Signed{}, err
	}
	return extrinsic.Sign(call.Bytes(), xt.signer, c.shared.options.AddressFormat, exts)
}

// consume signs call and advances the nonce unless ctx is already done. Callers hold mu.
func (xt *XtBuilder) consume(ctx context.Context, call metadata.EncodedCall) (extrinsic.Signed, error) {
	signed, err := xt.sign(call)
	if err != nil {
		return signed, err
	}
	if err := ctx.Err(); err != nil {
		return signed, errs.Transport("submit", err)
	}

	messages.NewClientMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		messages.EXTRINSIC_SUBMITTING,
		call.Module,
		call.Call,
		xt.nonce,
	).ConsoleLog()
	xt.nonce++
	xt.client.shared.metrics.SetNonce(xt.account, xt.nonce)
	return signed, nil
}

// Submit sends call and returns the extrinsic hash once the node accepted it.
func (xt *XtBuilder) Submit(ctx context.Context, call metadata.EncodedCall) (models.Hash, error) {
	xt.mu.Lock()
	defer xt.mu.Unlock()

	signed, err := xt.consume(ctx, call)
	if err != nil {
		return models.Hash{}, err
	}
	hash, err := xt.client.shared.node.SubmitExtrinsic(ctx, signed.Data)
	xt.observe(metrics.StrategySubmit, err)
	if err != nil {
		messages.NewClientMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(xt.Submit),
			err,
			messages.EXTRINSIC_SUBMIT_FAILED,
		).ConsoleLog()
		return models.Hash{}, err
	}
	messages.NewClientMessage(messages.LOG_LEVEL_DEBUG, "", nil, messages.EXTRINSIC_SUBMITTED, hash.Hex()).ConsoleLog()
	return hash, nil
}

// SubmitAndWatch sends call and waits until it is included (or finalized, per the client's
// WatchUntil) and returns the events it emitted.
func (xt *XtBuilder) SubmitAndWatch(ctx context.Context, call metadata.EncodedCall) (*models.ExtrinsicSuccess, error) {
	sub, signed, err := xt.submitWatched(ctx, call)
	if err != nil {
		xt.observe(metrics.StrategyWatch, err)
		return nil, err
	}
	success, err := xt.client.watch(ctx, sub, signed.Hash)
	xt.observe(metrics.StrategyWatch, err)
	return success, err
}

func (xt *XtBuilder) submitWatched(ctx context.Context, call metadata.EncodedCall) (*rpc.Subscription[models.ExtrinsicStatus], extrinsic.Signed, error) {
	xt.mu.Lock()
	defer xt.mu.Unlock()

	signed, err := xt.consume(ctx, call)
	if err != nil {
		return nil, signed, err
	}
	sub, err := xt.client.shared.node.SubmitAndWatchExtrinsic(ctx, signed.Data)
	if err != nil {
		messages.NewClientMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(xt.SubmitAndWatch),
			err,
			messages.EXTRINSIC_SUBMIT_FAILED,
		).ConsoleLog()
		return nil, signed, err
	}
	return sub, signed, nil
}

// SubmitCall encodes module.name and submits it. Lookup and encoding errors return before
// the nonce or the node are touched.
func (xt *XtBuilder) SubmitCall(ctx context.Context, module, name string, args ...[]byte) (models.Hash, error) {
	call, err := xt.client.Call(module, name, args...)
	if err != nil {
		return models.Hash{}, err
	}
	return xt.Submit(ctx, call)
}

// SubmitCallAndWatch is SubmitCall with SubmitAndWatch confirmation.
func (xt *XtBuilder) SubmitCallAndWatch(ctx context.Context, module, name string, args ...[]byte) (*models.ExtrinsicSuccess, error) {
	call, err := xt.client.Call(module, name, args...)
	if err != nil {
		return nil, err
	}
	return xt.SubmitAndWatch(ctx, call)
}

func (xt *XtBuilder) observe(strategy string, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errs.KindOf(err) == errs.KindTransport:
		outcome = metrics.OutcomeFailed
	default:
		outcome = metrics.OutcomeRejected
	}
	xt.client.shared.metrics.ObserveSubmission(strategy, outcome)
}

// watch follows the status stream of hash until it reaches the configured status.
func (c *Client) watch(ctx context.Context, sub *rpc.Subscription[models.ExtrinsicStatus], hash models.Hash) (*models.ExtrinsicSuccess, error) {
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	until := c.shared.options.WatchUntil
	for {
		select {
		case <-ctx.Done():
			return nil, errs.Transport("watch", ctx.Err())
		case status, ok := <-sub.Chan():
			if !ok {
				if err := sub.Err(); err != nil {
					return nil, err
				}
				return nil, errs.Transport("watch", errors.New("status stream ended before inclusion"))
			}
			messages.NewClientMessage(
				messages.LOG_LEVEL_DEBUG,
				"",
				nil,
				messages.EXTRINSIC_STATUS,
				hash.Hex(),
				status.Kind,
			).ConsoleLog()

			if status.Failed() {
				return nil, errs.Transport("watch", fmt.Errorf("extrinsic %s: %s", hash.Hex(), status.Kind))
			}
			if status.Kind == until || status.Kind == models.StatusFinalized {
				return c.inclusion(ctx, status.Block, hash)
			}
		}
	}
}

// inclusion collects the events of the extrinsic hash in block.
func (c *Client) inclusion(ctx context.Context, block, hash models.Hash) (*models.ExtrinsicSuccess, error) {
	signed, err := c.shared.node.Block(ctx, &block)
	if err != nil {
		return nil, err
	}
	idx := extrinsic.IndexIn(signed.Block.Extrinsics, hash)
	if idx < 0 {
		return nil, errs.NotFound("extrinsic in block "+block.Hex(), hash.Hex())
	}
	events, err := c.EventsAt(ctx, block)
	if err != nil {
		return nil, err
	}
	own := event.ForExtrinsic(events, idx)

	messages.NewClientMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		messages.EXTRINSIC_INCLUDED,
		hash.Hex(),
		idx,
		block.Hex(),
		len(own),
	).ConsoleLog()
	return &models.ExtrinsicSuccess{Block: block, Extrinsic: hash, Events: own}, nil
}
