// Package assembler turns build parameters into an esbuild configuration:
// banner, externals and globals, and the ordered resolution/transform steps.
package assembler

import (
	"os"
	"path/filepath"
	"slices"

	"ngbundle/entities"
	"ngbundle/logging"
	"ngbundle/resolver"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Step names, in pipeline order.
const (
	StepResolve     = "resolve-mapped"
	StepNodeResolve = "node-resolve"
	StepCommonJS    = "commonjs"
	StepSourcemaps  = "sourcemaps"
	StepDownlevel   = "downlevel-to-es5"
)

// Step is one stage of the resolution/transform pipeline. Built-in esbuild
// behaviour is represented by a step with only a Configure hook, or neither.
type Step struct {
	Name      string
	Plugin    *api.Plugin
	Configure func(opts *api.BuildOptions, run entities.RunOptions)
}

// Config is the assembled bundler configuration. It is not modified after
// Assemble returns.
type Config struct {
	Steps    []Step
	External []string
	Globals  map[string]string
	Banner   string

	baseDir  string
	resolver *resolver.Resolver
}

// Summary is a printable view of a Config.
type Summary struct {
	Steps      []string          `yaml:"steps"`
	Strategies []string          `yaml:"strategies"`
	External   []string          `yaml:"external,omitempty"`
	Globals    map[string]string `yaml:"globals,omitempty"`
	Banner     string            `yaml:"banner,omitempty"`
}

// Option configures Assemble.
type Option func(*options)

type options struct {
	fs         afero.Fs
	baseDir    string
	logger     *log.Logger
	transpiler Transpiler
}

// WithFs sets the filesystem for banner, stamp and source reads and for
// resolver existence checks.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithBaseDir sets the working directory the output root is relative to.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTranspiler replaces the downlevel transpiler.
func WithTranspiler(t Transpiler) Option {
	return func(o *options) { o.transpiler = t }
}

// Assemble builds the bundler configuration for params.
func Assemble(params *entities.BuildParams, opts ...Option) (*Config, error) {
	o := options{
		fs:         afero.NewOsFs(),
		logger:     logging.Discard(),
		transpiler: EsbuildTranspiler,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}

	if o.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "getting working directory")
		}
		o.baseDir = wd
	}

	o.logger.Debug("running with",
		"cwd", o.baseDir,
		"workspaceName", params.WorkspaceName,
		"rootDir", params.RootDir,
		"bannerFile", params.BannerFile,
		"stampData", params.StampData,
		"moduleMappings", params.ModuleMappings,
		"nodeModulesRoot", params.NodeModulesRoot,
	)

	res, err := resolver.New(params,
		resolver.WithFs(o.fs),
		resolver.WithBaseDir(o.baseDir),
		resolver.WithLogger(o.logger),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating resolver")
	}

	cfg := &Config{
		External: append([]string(nil), params.External...),
		Globals:  make(map[string]string, len(params.Globals)),
		Banner:   ReadBanner(o.fs, params.BannerFile, params.StampData, params.VersionPlaceholder, o.logger),
		baseDir:  o.baseDir,
		resolver: res,
	}
	for name, global := range params.Globals {
		if !slices.Contains(cfg.External, name) {
			o.logger.Warn("global ignored, module is not external", "module", name, "global", global)
		}
		cfg.Globals[name] = global
	}

	resolvePl := resolvePlugin(res, cfg.External, cfg.Globals, o.baseDir)
	nodeResolvePl := nodeResolvePlugin(o.baseDir)
	nodePaths := []string{absPath(o.baseDir, params.NodeModulesRoot)}

	cfg.Steps = []Step{
		{Name: StepResolve, Plugin: &resolvePl},
		{
			Name:   StepNodeResolve,
			Plugin: &nodeResolvePl,
			Configure: func(opts *api.BuildOptions, _ entities.RunOptions) {
				opts.Platform = api.PlatformBrowser
				opts.MainFields = MainFields
				opts.NodePaths = nodePaths
			},
		},
		// esbuild converts CommonJS modules itself and leaves free `global`
		// references untouched, so this step needs no plugin or hook.
		{Name: StepCommonJS},
		{
			Name: StepSourcemaps,
			Configure: func(opts *api.BuildOptions, run entities.RunOptions) {
				if run.Sourcemap {
					opts.Sourcemap = api.SourceMapLinked
					opts.SourcesContent = api.SourcesContentInclude
				}
			},
		},
	}

	if params.DownlevelToES5 {
		downlevelPl := downlevelPlugin(o.fs, o.transpiler)
		cfg.Steps = append(cfg.Steps, Step{Name: StepDownlevel, Plugin: &downlevelPl})
	}

	return cfg, nil
}

// absPath joins a relative path onto base.
func absPath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// StepNames returns the pipeline step names in order.
func (c *Config) StepNames() []string {
	names := make([]string, 0, len(c.Steps))
	for _, step := range c.Steps {
		names = append(names, step.Name)
	}
	return names
}

// Resolve runs the module mapping resolver directly.
func (c *Config) Resolve(specifier, importer string) (resolver.Outcome, error) {
	return c.resolver.Resolve(specifier, importer)
}

// Summary returns a printable view of the configuration.
func (c *Config) Summary() Summary {
	return Summary{
		Steps:      c.StepNames(),
		Strategies: c.resolver.Strategies(),
		External:   c.External,
		Globals:    c.Globals,
		Banner:     c.Banner,
	}
}

// BuildOptions converts the configuration into esbuild options for one run.
func (c *Config) BuildOptions(run entities.RunOptions) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:   run.EntryPoints,
		Outfile:       run.Outfile,
		Bundle:        true,
		Format:        ParseFormat(run.Format),
		GlobalName:    run.GlobalName,
		External:      c.External,
		AbsWorkingDir: c.baseDir,
		LogLevel:      api.LogLevelSilent,
	}
	if c.Banner != "" {
		opts.Banner = map[string]string{"js": c.Banner}
	}

	for _, step := range c.Steps {
		if step.Configure != nil {
			step.Configure(&opts, run)
		}
		if step.Plugin != nil {
			opts.Plugins = append(opts.Plugins, *step.Plugin)
		}
	}

	return opts
}

// ParseFormat maps a format name to its esbuild value. Unknown names mean ESM.
func ParseFormat(format string) api.Format {
	switch format {
	case "iife":
		return api.FormatIIFE
	case "cjs":
		return api.FormatCommonJS
	default:
		return api.FormatESModule
	}
}

// Build runs esbuild once and returns its output files.
func (c *Config) Build(run entities.RunOptions, write bool) ([]api.OutputFile, error) {
	opts := c.BuildOptions(run)
	opts.Write = write

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return nil, errors.Wrap(MessagesError(result.Errors), "bundling")
	}
	return result.OutputFiles, nil
}
