package cli

import (
	"fmt"

	"github.com/qdm12/gotree"
	"github.com/spf13/cobra"

	"go-subxt/internal/clients/metadata"
	"go-subxt/utils"
)

const (
	fileFlag    = "file"
	saveDirFlag = "save-dir"
)

func metadataCommand(params *rootParams) *cobra.Command {
	var file, saveDir string
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Print the modules, calls and storage items of the runtime metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var raw []byte
			if file != "" {
				var err error
				if raw, err = utils.ReadMetadataFile(file); err != nil {
					return err
				}
			} else {
				c, err := params.connect(cmd.Context())
				if err != nil {
					return err
				}
				if raw, err = c.Node().Metadata(cmd.Context(), nil); err != nil {
					return err
				}
				if saveDir != "" {
					saved, err := utils.WriteMetadataFile(saveDir, c.RuntimeVersion().SpecVersion, raw)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "metadata saved to %s\n", saved)
				}
			}

			reg, err := metadata.Parse(raw, metadata.WithPrefixScheme(metadata.PrefixScheme(params.cfg.ChainConfig.StoragePrefixScheme)))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), metadataTree(reg).String())
			return nil
		},
	}
	cmd.Flags().StringVar(&file, fileFlag, "", "read a metadata dump instead of querying the node")
	cmd.Flags().StringVar(&saveDir, saveDirFlag, "", "store the node's metadata under this directory, one file per spec version")
	return cmd
}

func metadataTree(reg *metadata.Registry) *gotree.Node {
	root := gotree.New("Metadata v%d", reg.Version())
	for _, m := range reg.Modules() {
		node := root.Appendf("%s [%d]", m.Name, m.Index)
		if m.HasCalls() {
			calls := node.Appendf("calls")
			for _, c := range m.Calls() {
				args := make([]string, 0, len(c.Args))
				for _, a := range c.Args {
					args = append(args, a.Name+": "+a.Type)
				}
				calls.Appendf("%s(%v) [%d]", c.Name, args, c.Index)
			}
		}
		if items := m.StorageItems(); len(items) > 0 {
			storage := node.Appendf("storage")
			for _, s := range items {
				storage.Appendf("%s %s -> %s", s.Name, s.Kind, s.ValueType)
			}
		}
		if events := m.Events(); len(events) > 0 {
			evs := node.Appendf("events")
			for _, e := range events {
				evs.Appendf("%s%v", e.Name, e.Args)
			}
		}
		for _, c := range m.Constants() {
			node.Appendf("const %s: %s", c.Name, c.Type)
		}
	}
	if exts := reg.SignedExtensions(); len(exts) > 0 {
		node := root.Appendf("signed extensions")
		for _, e := range exts {
			node.Appendf("%s", e)
		}
	}
	return root
}
