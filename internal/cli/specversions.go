package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-subxt/internal/clients/specversion"
	"go-subxt/utils"
)

const (
	lastFlag = "last"
	outFlag  = "out"
)

func specVersionsCommand(params *rootParams) *cobra.Command {
	var (
		last uint64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "specversions",
		Short: "Find the block ranges each runtime spec version was active for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := params.connect(ctx)
			if err != nil {
				return err
			}
			if last == 0 {
				head, err := c.Node().Block(ctx, nil)
				if err != nil {
					return err
				}
				last = uint64(head.Block.Header.Number)
			}

			ranges, err := specversion.NewClient(c.Node()).Ranges(ctx, last)
			if err != nil {
				return err
			}
			if out != "" {
				return utils.WriteSpecVersionRanges(out, ranges)
			}
			for _, r := range ranges {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%d\n", r.SpecVersion, r.First, r.Last)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&last, lastFlag, 0, "last block to scan, the best block when unset")
	cmd.Flags().StringVar(&out, outFlag, "", "write the ranges as JSON to this file")
	return cmd
}
