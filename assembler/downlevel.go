package assembler

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Transpiled is the output of a Transpiler.
type Transpiled struct {
	Code string
	Map  string
}

// Transpiler rewrites one source file for an older language target.
type Transpiler func(code, filePath string) (*Transpiled, error)

// passThrough lists syntax esbuild cannot lower to ES5. It is left as written
// instead of failing the build.
var passThrough = map[string]bool{
	"const-and-let":     true,
	"class":             true,
	"generator":         true,
	"async-await":       true,
	"async-generator":   true,
	"for-of":            true,
	"for-await":         true,
	"object-extensions": true,
}

// EsbuildTranspiler lowers ES2015+ JavaScript towards ES5, keeping ES module
// syntax. Arrow functions, template literals, destructuring, spread and default
// parameters are lowered; the syntax in passThrough is kept.
func EsbuildTranspiler(code, filePath string) (*Transpiled, error) {
	result := api.Transform(code, api.TransformOptions{
		Target:     api.ES5,
		Supported:  passThrough,
		Format:     api.FormatESModule,
		Loader:     api.LoaderJS,
		Sourcemap:  api.SourceMapExternal,
		Sourcefile: filePath,
		SourceRoot: filepath.Dir(filePath),
	})
	if len(result.Errors) > 0 {
		return nil, errors.Wrapf(MessagesError(result.Errors), "transpiling %s", filePath)
	}

	return &Transpiled{Code: string(result.Code), Map: string(result.Map)}, nil
}

// MessagesError folds esbuild messages into one error.
func MessagesError(messages []api.Message) error {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		text := msg.Text
		if msg.Location != nil {
			text = fmt.Sprintf("%s:%d: %s", msg.Location.File, msg.Location.Line, text)
		}
		texts = append(texts, text)
	}
	return errors.New(strings.Join(texts, "; "))
}

// downlevelPlugin passes every loaded JavaScript file through transpile.
func downlevelPlugin(fs afero.Fs, transpile Transpiler) api.Plugin {
	return api.Plugin{
		Name: StepDownlevel,
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.m?js$`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				contents, err := downlevelFile(fs, transpile, args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				return api.OnLoadResult{
					Contents:   &contents,
					Loader:     api.LoaderJS,
					ResolveDir: filepath.Dir(args.Path),
				}, nil
			})
		},
	}
}

// downlevelFile reads and transpiles a file, inlining its source map.
func downlevelFile(fs afero.Fs, transpile Transpiler, path string) (string, error) {
	code, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", errors.Wrap(err, "reading source")
	}

	out, err := transpile(string(code), path)
	if err != nil {
		return "", err
	}

	return withInlineSourceMap(out.Code, out.Map), nil
}

// withInlineSourceMap appends sourceMap to code as a data URL comment.
func withInlineSourceMap(code, sourceMap string) string {
	if sourceMap == "" {
		return code
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return code + "//# sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(sourceMap)) + "\n"
}
