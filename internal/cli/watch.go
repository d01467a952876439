package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-subxt/internal/clients"
	"go-subxt/internal/rpc"
	"go-subxt/models"
)

func watchCommand(params *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the chain until interrupted",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "blocks",
			Short: "Print new blocks with their extrinsics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return watchHeads(cmd, params, (*clients.Client).SubscribeBlocks)
			},
		},
		&cobra.Command{
			Use:   "finalized",
			Short: "Print finalized blocks with their extrinsics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return watchHeads(cmd, params, (*clients.Client).SubscribeFinalizedBlocks)
			},
		},
		&cobra.Command{
			Use:   "events",
			Short: "Print the events of every new block",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return watchEvents(cmd, params)
			},
		},
	)
	return cmd
}

type headSubscriber func(*clients.Client, context.Context) (*rpc.Subscription[models.Header], error)

func watchHeads(cmd *cobra.Command, params *rootParams, subscribe headSubscriber) error {
	ctx := cmd.Context()
	c, err := params.connect(ctx)
	if err != nil {
		return err
	}
	sub, err := subscribe(c, ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case head, ok := <-sub.Chan():
			if !ok {
				return sub.Err()
			}
			hash, err := c.Node().BlockHash(ctx, uint64(head.Number))
			if err != nil {
				return err
			}
			_, body, err := c.BlockExtrinsics(ctx, &hash)
			if err != nil {
				return err
			}
			printBlock(cmd.OutOrStdout(), uint64(head.Number), hash, len(body))
			for i, xt := range body {
				if xt.Signed {
					fmt.Fprintf(cmd.OutOrStdout(), "  %d %s.%s %s nonce %d\n", i, xt.Module, xt.Call, xt.Hash, xt.Nonce)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %d %s.%s %s\n", i, xt.Module, xt.Call, xt.Hash)
			}
		}
	}
}

func printBlock(w io.Writer, number uint64, hash models.Hash, extrinsics int) {
	fmt.Fprintf(w, "#%d %s (%d extrinsics)\n", number, hash, extrinsics)
}

func watchEvents(cmd *cobra.Command, params *rootParams) error {
	ctx := cmd.Context()
	c, err := params.connect(ctx)
	if err != nil {
		return err
	}
	sub, err := c.SubscribeEvents(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe(context.Background()) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case set, ok := <-sub.Chan():
			if !ok {
				return sub.Err()
			}
			for _, change := range set.Changes {
				if change.Value == nil {
					continue
				}
				events, err := c.DecodeEvents(*change.Value)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "block %s\n", set.Block)
				for _, ev := range events {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s.%s %v\n", ev.Phase, ev.Module, ev.Name, ev.Params)
				}
			}
		}
	}
}
