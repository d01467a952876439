// Package cli is the subxt command line: metadata inspection, storage reads, extrinsic
// submission and chain watching against one node.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	configFlag = "config"
	urlFlag    = "url"
)

type RootCommand struct {
	baseCmd *cobra.Command
	params  *rootParams
}

func NewRootCommand() *RootCommand {
	params := &rootParams{}
	rootCommand := &RootCommand{
		baseCmd: &cobra.Command{
			Use:           "subxt",
			Short:         "Submit extrinsics to and read storage from a Substrate node using its runtime metadata",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		params: params,
	}

	rootCommand.baseCmd.PersistentFlags().StringVarP(&params.configPath, configFlag, "c", "", "path to config file")
	rootCommand.baseCmd.PersistentFlags().StringVar(&params.url, urlFlag, "", "node websocket endpoint, overrides the config file")
	rootCommand.baseCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return params.init(cmd.Context())
	}
	rootCommand.baseCmd.PersistentPostRun = func(*cobra.Command, []string) {
		params.close()
	}

	rootCommand.registerSubCommands()
	return rootCommand
}

func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		metadataCommand(rc.params),
		storageCommand(rc.params),
		submitCommand(rc.params),
		nonceCommand(rc.params),
		watchCommand(rc.params),
		specVersionsCommand(rc.params),
	)
}

// Execute runs the command line until it finishes or the process is interrupted.
func (rc *RootCommand) Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rc.baseCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
