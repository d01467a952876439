package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-subxt/internal/signer"
)

const watchFlag = "watch"

type submitResult struct {
	Extrinsic string      `json:"extrinsic"`
	Nonce     uint32      `json:"nonce"`
	Block     string      `json:"block,omitempty"`
	Events    interface{} `json:"events,omitempty"`
}

func submitCommand(params *rootParams) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "submit <module> <call> [json-arg...]",
		Short: "Sign and submit a call with the configured signer",
		Long: "Each argument is JSON (numbers, strings, arrays) or a bare string, encoded by the\n" +
			"argument type the runtime metadata declares for the call.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := params.signer()
			if err != nil {
				return err
			}
			c, err := params.connect(ctx)
			if err != nil {
				return err
			}
			m, err := c.Module(args[0])
			if err != nil {
				return err
			}
			values := make([]interface{}, 0, len(args)-2)
			for _, a := range args[2:] {
				values = append(values, parseArg(a))
			}
			call, err := m.CallWithValues(args[1], values...)
			if err != nil {
				return err
			}

			xt, err := c.XT(ctx, s, nil)
			if err != nil {
				return err
			}
			res := submitResult{Nonce: xt.Nonce()}
			if !watch {
				hash, err := xt.Submit(ctx, call)
				if err != nil {
					return err
				}
				res.Extrinsic = hash.Hex()
				return printJSON(cmd.OutOrStdout(), res)
			}

			success, err := xt.SubmitAndWatch(ctx, call)
			if err != nil {
				return err
			}
			res.Extrinsic = success.Extrinsic.Hex()
			res.Block = success.Block.Hex()
			res.Events = success.Events
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&watch, watchFlag, false, "wait for inclusion and print the extrinsic's events")
	return cmd
}

func nonceCommand(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "nonce",
		Short: "Print the configured signer's address and its on-chain nonce",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := params.signer()
			if err != nil {
				return err
			}
			c, err := params.connect(cmd.Context())
			if err != nil {
				return err
			}
			account := signer.AccountID(s)
			nonce, err := c.AccountNonce(cmd.Context(), account)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", signer.SS58Encode(account, c.Options().SS58Prefix), nonce)
			return err
		},
	}
}
