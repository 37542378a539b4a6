package main

import (
	"fmt"

	"ngbundle/config"
	"ngbundle/entities"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBuildCmd(pf *paramFlags) *cobra.Command {
	run := entities.RunOptions{}
	dryRun := false

	cmd := &cobra.Command{
		Use:   "build [entry...]",
		Short: "Bundle entry points with the assembled configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			run.EntryPoints = append(run.EntryPoints, args...)
			if len(run.EntryPoints) == 0 {
				return errors.New("no entry points given")
			}
			err := config.ValidateFormat(run.Format)
			if err != nil {
				return err
			}

			cfg, logger, err := pf.assemble(cmd)
			if err != nil {
				return err
			}

			files, err := cfg.Build(run, !dryRun)
			if err != nil {
				return err
			}

			for _, file := range files {
				logger.Debug("wrote output", "path", file.Path, "bytes", len(file.Contents))
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "Would write: %s (%d bytes)\n", file.Path, len(file.Contents))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s\n", file.Path)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&run.EntryPoints, "entry", "e", nil, "entry point (repeatable)")
	flags.StringVarP(&run.Outfile, "outfile", "o", "", "output file")
	flags.StringVarP(&run.Format, "format", "f", config.DefaultFormat, "output format: esm, iife or cjs")
	flags.StringVar(&run.GlobalName, "global-name", "", "global variable for iife output")
	flags.BoolVar(&run.Sourcemap, "sourcemap", false, "emit a linked source map")
	flags.BoolVarP(&dryRun, "dry-run", "d", false, "don't write output, just report")

	return cmd
}
