package assembler

import (
	"path/filepath"
	"strconv"
	"strings"

	"ngbundle/resolver"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	// globalNamespace holds shims for externals addressed through a global.
	globalNamespace = "global-external"

	// nodeResolveGuard marks resolutions issued by the node-resolve step itself.
	nodeResolveGuard = "ngbundle:node-resolve"
)

// MainFields are the package.json fields consulted by default resolution,
// most preferred first.
var MainFields = []string{"browser", "es2015", "module", "jsnext:main", "main"}

// resolvePlugin runs the module mapping resolver before default resolution.
func resolvePlugin(res *resolver.Resolver, external []string, globals map[string]string, baseDir string) api.Plugin {
	isExternal := make(map[string]bool, len(external))
	for _, name := range external {
		isExternal[name] = true
	}

	return api.Plugin{
		Name: StepResolve,
		Setup: func(build api.PluginBuild) {
			iife := build.InitialOptions != nil && build.InitialOptions.Format == api.FormatIIFE

			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if isExternal[args.Path] {
					if _, ok := globals[args.Path]; ok && iife {
						return api.OnResolveResult{Path: args.Path, Namespace: globalNamespace}, nil
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				}

				outcome, err := res.Resolve(args.Path, args.Importer)
				if err != nil {
					return api.OnResolveResult{}, err
				}
				if outcome.Deferred() {
					return api.OnResolveResult{}, nil
				}

				resolved := outcome.Path
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(baseDir, resolved)
				}
				return api.OnResolveResult{Path: resolved}, nil
			})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: globalNamespace}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents := globalShim(globals[args.Path])
				return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
			})
		},
	}
}

// globalShim returns a CommonJS module re-exporting a dotted global name.
func globalShim(name string) string {
	var b strings.Builder
	b.WriteString("module.exports = globalThis")
	for _, part := range strings.Split(name, ".") {
		b.WriteString("[" + strconv.Quote(part) + "]")
	}
	b.WriteString(";\n")
	return b.String()
}

// nodeResolvePlugin keeps default resolution inside jail: packages resolved
// outside it are left external.
func nodeResolvePlugin(jail string) api.Plugin {
	return api.Plugin{
		Name: StepNodeResolve,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.PluginData == nodeResolveGuard || args.Namespace == globalNamespace {
					return api.OnResolveResult{}, nil
				}

				result := build.Resolve(args.Path, api.ResolveOptions{
					Importer:   args.Importer,
					Namespace:  args.Namespace,
					ResolveDir: args.ResolveDir,
					Kind:       args.Kind,
					PluginData: nodeResolveGuard,
				})
				if len(result.Errors) > 0 || result.External || result.Namespace != "file" {
					// Let esbuild report or handle it the usual way.
					return api.OnResolveResult{}, nil
				}

				if !inside(jail, result.Path) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				}
				return api.OnResolveResult{}, nil
			})
		},
	}
}

// inside reports whether p lies within dir.
func inside(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
