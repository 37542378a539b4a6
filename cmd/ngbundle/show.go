package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(pf *paramFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the assembled bundler configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := pf.assemble(cmd)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			err = enc.Encode(cfg.Summary())
			if err != nil {
				return errors.Wrap(err, "encoding config")
			}
			return enc.Close()
		},
	}
}
