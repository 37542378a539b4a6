package main

import (
	"ngbundle/assembler"
	"ngbundle/config"
	"ngbundle/entities"
	"ngbundle/logging"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// paramFlags holds the flags shared by every command.
type paramFlags struct {
	paramsFile string
	workspace  string
	rootDir    string
	banner     string
	stamp      string
	downlevel  bool
}

func newRootCmd() *cobra.Command {
	pf := &paramFlags{}

	root := &cobra.Command{
		Use:   "ngbundle",
		Short: "Bundler configuration with build-output module resolution",
		Long: `ngbundle assembles an esbuild configuration from build-injected parameters
and resolves first-party and mapped imports to files under the build output
root before falling back to node module resolution.

Set VERBOSE_LOGS=1 to log every resolution decision to stderr.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&pf.paramsFile, "params", "p", "", "build parameters file (YAML or JSON)")
	flags.StringVar(&pf.workspace, "workspace", "", "workspace name")
	flags.StringVar(&pf.rootDir, "root-dir", "", "output root directory, relative to the working directory")
	flags.StringVar(&pf.banner, "banner", "", "banner file")
	flags.StringVar(&pf.stamp, "stamp", "", "workspace status file with BUILD_SCM_VERSION")
	flags.BoolVar(&pf.downlevel, "downlevel", false, "transpile sources to ES5")

	root.AddCommand(newBuildCmd(pf))
	root.AddCommand(newResolveCmd(pf))
	root.AddCommand(newConfigCmd(pf))

	return root
}

// load reads the params file and applies flag overrides. Flags win over the file.
func (pf *paramFlags) load(cmd *cobra.Command) (*entities.BuildParams, error) {
	params := config.DefaultParams()
	if pf.paramsFile != "" {
		loaded, err := config.Load(pf.paramsFile)
		if err != nil {
			return nil, err
		}
		params = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("workspace") {
		params.WorkspaceName = pf.workspace
	}
	if flags.Changed("root-dir") {
		params.RootDir = pf.rootDir
	}
	if flags.Changed("banner") {
		params.BannerFile = pf.banner
	}
	if flags.Changed("stamp") {
		params.StampData = pf.stamp
	}
	if flags.Changed("downlevel") {
		params.DownlevelToES5 = pf.downlevel
	}

	config.ApplyDefaults(params)
	err := config.Validate(params)
	if err != nil {
		return nil, err
	}
	return params, nil
}

// assemble loads params and builds the bundler configuration.
func (pf *paramFlags) assemble(cmd *cobra.Command) (*assembler.Config, *log.Logger, error) {
	params, err := pf.load(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cmd.Root().Name())
	cfg, err := assembler.Assemble(params, assembler.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
