package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deferred is printed when the resolver has no opinion.
const deferred = "defer"

func newResolveCmd(pf *paramFlags) *cobra.Command {
	importer := ""

	cmd := &cobra.Command{
		Use:   "resolve SPECIFIER",
		Short: "Resolve one import specifier and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := pf.assemble(cmd)
			if err != nil {
				return err
			}

			outcome, err := cfg.Resolve(args[0], importer)
			if err != nil {
				return err
			}

			if outcome.Deferred() {
				fmt.Fprintln(cmd.OutOrStdout(), deferred)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&importer, "importer", "i", "", "file containing the import")
	return cmd
}
