package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-subxt/internal/codec"
)

func storageCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "storage <module> <item> [key-hex...]",
		Short: "Read a storage item, decoded by its metadata type",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := params.connect(cmd.Context())
			if err != nil {
				return err
			}
			s, err := c.Storage(args[0], args[1])
			if err != nil {
				return err
			}
			keys := make([][]byte, 0, len(args)-2)
			for _, k := range args[2:] {
				b, err := codec.HexToBytes(k)
				if err != nil {
					return err
				}
				keys = append(keys, b)
			}
			value, found, err := c.FetchDynamic(cmd.Context(), s, keys...)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s.%s has no stored value\n", s.Module, s.Name)
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
}
