// Package resolver maps import specifiers met during a bundle walk to files
// under the build output root.
//
// Strategies are tried in a fixed order and the first one that finds an
// existing file wins:
//
//  1. fully-qualified: the specifier already names a file.
//  2. relative: ./ and ../ specifiers, rebased onto the output root.
//  3. module-mapping: symbolic names from the module mapping table.
//  4. workspace: workspace-relative specifiers, or the raw specifier.
//
// When nothing matches the resolver defers to the bundler's default
// resolution.
package resolver

import (
	"os"

	"ngbundle/entities"
	"ngbundle/logging"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Outcome is the result of one resolution. The zero value defers.
type Outcome struct {
	Path string
}

// Defer hands the specifier back to default resolution.
var Defer = Outcome{}

// Deferred reports whether no strategy produced a file.
func (o Outcome) Deferred() bool {
	return o.Path == ""
}

// Resolver resolves specifiers with an ordered list of strategies.
type Resolver struct {
	strategies []Strategy
	logger     *log.Logger
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	fs      afero.Fs
	baseDir string
	logger  *log.Logger
}

// WithFs sets the filesystem used for existence checks.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithBaseDir sets the directory the output root is relative to.
// Defaults to the process working directory.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a resolver for the given build parameters.
func New(params *entities.BuildParams, opts ...Option) (*Resolver, error) {
	o := options{
		fs:     afero.NewOsFs(),
		logger: logging.Discard(),
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

	loc := &locator{
		fs:      o.fs,
		baseDir: o.baseDir,
		rootDir: params.RootDir,
		logger:  o.logger,
	}

	return NewWithStrategies(o.logger,
		NewFullyQualified(o.fs, o.baseDir),
		&Relative{loc: loc, logger: o.logger},
		&Mapping{loc: loc, mappings: params.ModuleMappings, logger: o.logger},
		&Workspace{loc: loc, workspace: params.WorkspaceName},
	), nil
}

// NewWithStrategies creates a resolver that tries strategies in the given order.
func NewWithStrategies(logger *log.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{strategies: strategies, logger: logger}
}

// Resolve maps specifier, imported from importer, to a file. Only a relative
// specifier without an importer is an error; every other miss defers.
func (r *Resolver) Resolve(specifier, importer string) (Outcome, error) {
	if specifier == "" {
		return Defer, nil
	}
	r.logger.Debug("resolving", "specifier", specifier, "importer", importer)

	req := NewRequest(specifier, importer)
	for _, strategy := range r.strategies {
		resolved, ok, err := strategy.Attempt(req)
		if err != nil {
			return Defer, errors.WithMessagef(err, "%s strategy", strategy.Name())
		}
		if ok {
			r.logger.Debug("resolved", "specifier", specifier, "path", resolved, "strategy", strategy.Name())
			return Outcome{Path: resolved}, nil
		}
	}

	r.logger.Debug("deferring to default resolution", "specifier", specifier)
	return Defer, nil
}

// Strategies returns the strategy names in priority order.
func (r *Resolver) Strategies() []string {
	names := make([]string, 0, len(r.strategies))
	for _, strategy := range r.strategies {
		names = append(names, strategy.Name())
	}
	return names
}
