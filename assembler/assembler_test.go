package assembler

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ngbundle/config"
	"ngbundle/entities"
	"ngbundle/logging"
	"ngbundle/resolver"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() *entities.BuildParams {
	params := config.DefaultParams()
	params.WorkspaceName = "ws"
	params.RootDir = "dist"
	params.ModuleMappings = entities.ModuleMappings{{Name: "@lib", Path: "dist/lib"}}
	params.External = []string{"@angular/core", "rxjs"}
	params.Globals = map[string]string{"@angular/core": "ng.core"}
	return params
}

func TestAssemblePipeline(t *testing.T) {
	fs := newMemFs(t, nil)

	tests := []struct {
		name      string
		downlevel bool
		expected  []string
	}{
		{
			name:     "default steps",
			expected: []string{StepResolve, StepNodeResolve, StepCommonJS, StepSourcemaps},
		},
		{
			name:      "downlevel appended last",
			downlevel: true,
			expected:  []string{StepResolve, StepNodeResolve, StepCommonJS, StepSourcemaps, StepDownlevel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams()
			params.DownlevelToES5 = tt.downlevel

			cfg, err := Assemble(params, WithFs(fs), WithBaseDir("/work"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.StepNames())
		})
	}
}

func TestAssembleCopiesParams(t *testing.T) {
	params := testParams()

	cfg, err := Assemble(params, WithFs(newMemFs(t, nil)), WithBaseDir("/work"))
	require.NoError(t, err)

	params.External[0] = "changed"
	params.Globals["@angular/core"] = "changed"

	assert.Equal(t, []string{"@angular/core", "rxjs"}, cfg.External)
	assert.Equal(t, map[string]string{"@angular/core": "ng.core"}, cfg.Globals)
}

func TestAssembleWithBareParams(t *testing.T) {
	fs := newMemFs(t, map[string]string{
		"/b.txt": "/** v0.0.0-PLACEHOLDER */",
		"/s.txt": "BUILD_SCM_VERSION 1.2.3\n",
	})
	params := &entities.BuildParams{RootDir: "dist", BannerFile: "/b.txt", StampData: "/s.txt"}

	cfg, err := Assemble(params, WithFs(fs), WithBaseDir("/work"), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, "/** v0.0.0-PLACEHOLDER */", cfg.Banner)

	outcome, err := cfg.Resolve("./missing", "/work/dist/a.js")
	require.NoError(t, err)
	assert.True(t, outcome.Deferred())
}

func TestAssembleWarnsAboutGlobalsForBundledModules(t *testing.T) {
	t.Setenv(logging.VerboseEnv, "1")
	var out bytes.Buffer

	params := testParams()
	params.Globals["tslib"] = "tslib"

	cfg, err := Assemble(params, WithFs(newMemFs(t, nil)), WithBaseDir("/work"), WithLogger(logging.New(&out, "test")))
	require.NoError(t, err)
	assert.Equal(t, "tslib", cfg.Globals["tslib"])
	assert.Contains(t, out.String(), "global ignored")
	assert.Contains(t, out.String(), "tslib")
	assert.NotContains(t, out.String(), "ng.core")
}

func TestBuildOptions(t *testing.T) {
	fs := newMemFs(t, map[string]string{
		"/work/banner.txt": "/* v0.0.0-PLACEHOLDER */",
		"/work/stamp.txt":  "BUILD_SCM_VERSION 9.0.0\n",
	})
	params := testParams()
	params.BannerFile = "/work/banner.txt"
	params.StampData = "/work/stamp.txt"

	cfg, err := Assemble(params, WithFs(fs), WithBaseDir("/work"))
	require.NoError(t, err)

	opts := cfg.BuildOptions(entities.RunOptions{
		EntryPoints: []string{"dist/index.js"},
		Outfile:     "out/bundle.js",
		Format:      "iife",
		GlobalName:  "ng.lib",
		Sourcemap:   true,
	})

	assert.True(t, opts.Bundle)
	assert.Equal(t, []string{"dist/index.js"}, opts.EntryPoints)
	assert.Equal(t, "out/bundle.js", opts.Outfile)
	assert.Equal(t, api.FormatIIFE, opts.Format)
	assert.Equal(t, "ng.lib", opts.GlobalName)
	assert.Equal(t, "/work", opts.AbsWorkingDir)
	assert.Equal(t, []string{"@angular/core", "rxjs"}, opts.External)
	assert.Equal(t, map[string]string{"js": "/* v9.0.0 */"}, opts.Banner)
	assert.Equal(t, MainFields, opts.MainFields)
	assert.Equal(t, []string{"/work/node_modules"}, opts.NodePaths)
	assert.Equal(t, api.PlatformBrowser, opts.Platform)
	assert.Equal(t, api.SourceMapLinked, opts.Sourcemap)

	names := make([]string, 0, len(opts.Plugins))
	for _, plugin := range opts.Plugins {
		names = append(names, plugin.Name)
	}
	assert.Equal(t, []string{StepResolve, StepNodeResolve}, names)
}

func TestBuildOptionsWithoutBannerOrSourcemap(t *testing.T) {
	cfg, err := Assemble(testParams(), WithFs(newMemFs(t, nil)), WithBaseDir("/work"))
	require.NoError(t, err)

	opts := cfg.BuildOptions(entities.RunOptions{})
	assert.Nil(t, opts.Banner)
	assert.Equal(t, api.SourceMapNone, opts.Sourcemap)
	assert.Equal(t, api.FormatESModule, opts.Format)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, api.FormatESModule, ParseFormat("esm"))
	assert.Equal(t, api.FormatESModule, ParseFormat(""))
	assert.Equal(t, api.FormatIIFE, ParseFormat("iife"))
	assert.Equal(t, api.FormatCommonJS, ParseFormat("cjs"))
}

func TestSummary(t *testing.T) {
	cfg, err := Assemble(testParams(), WithFs(newMemFs(t, nil)), WithBaseDir("/work"))
	require.NoError(t, err)

	summary := cfg.Summary()
	assert.Equal(t, cfg.StepNames(), summary.Steps)
	assert.Equal(t, []string{"fully-qualified", "relative", "module-mapping", "workspace"}, summary.Strategies)
	assert.Equal(t, "", summary.Banner)
}

func TestConfigResolve(t *testing.T) {
	fs := newMemFs(t, map[string]string{"/work/dist/lib/util.js": ""})
	cfg, err := Assemble(testParams(), WithFs(fs), WithBaseDir("/work"))
	require.NoError(t, err)

	outcome, err := cfg.Resolve("@lib/util", "dist/app/main.js")
	require.NoError(t, err)
	assert.Equal(t, "/work/dist/lib/util.js", outcome.Path)

	outcome, err = cfg.Resolve("zone.js", "dist/app/main.js")
	require.NoError(t, err)
	assert.True(t, outcome.Deferred())

	_, err = cfg.Resolve("./y", "")
	var usageErr *resolver.UsageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestGlobalShim(t *testing.T) {
	assert.Equal(t, "module.exports = globalThis[\"ng\"][\"core\"];\n", globalShim("ng.core"))
	assert.Equal(t, "module.exports = globalThis[\"rxjs\"];\n", globalShim("rxjs"))
}

func TestInside(t *testing.T) {
	assert.True(t, inside("/work", "/work/node_modules/a/index.js"))
	assert.True(t, inside("/work", "/work"))
	assert.False(t, inside("/work", "/elsewhere/a.js"))
	assert.False(t, inside("/work", "/workspace/a.js"))
}

// writeFiles creates files under dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestBuildBundlesMappedImports(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"banner.txt":         "/* @license lib v0.0.0-PLACEHOLDER */",
		"stamp.txt":          "BUILD_SCM_VERSION 1.2.3\n",
		"dist/app/main.js":   "import { answer } from '@lib/util';\nimport { helper } from './helper';\nimport { of } from 'rxjs';\nconsole.log(answer, helper(), of);\n",
		"dist/app/helper.js": "export function helper() { return 'helped'; }\n",
		"dist/lib/util.js":   "export const answer = 42;\n",
	})

	params := testParams()
	params.BannerFile = filepath.Join(dir, "banner.txt")
	params.StampData = filepath.Join(dir, "stamp.txt")

	cfg, err := Assemble(params, WithBaseDir(dir))
	require.NoError(t, err)

	files, err := cfg.Build(entities.RunOptions{
		EntryPoints: []string{"dist/app/main.js"},
		Outfile:     filepath.Join(dir, "out", "bundle.js"),
		Format:      "esm",
	}, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	out := string(files[0].Contents)
	assert.True(t, strings.HasPrefix(out, "/* @license lib v1.2.3 */"), out)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "helped")
	assert.Contains(t, out, `from "rxjs"`)
	assert.NotContains(t, out, "@lib/util")
}

func TestBuildIIFEGlobals(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"dist/index.js": "import { Component } from '@angular/core';\nexport const c = Component;\n",
	})

	cfg, err := Assemble(testParams(), WithBaseDir(dir))
	require.NoError(t, err)

	files, err := cfg.Build(entities.RunOptions{
		EntryPoints: []string{"dist/index.js"},
		Outfile:     filepath.Join(dir, "out.js"),
		Format:      "iife",
		GlobalName:  "lib",
	}, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	out := string(files[0].Contents)
	assert.Contains(t, out, "globalThis")
	assert.Contains(t, out, "core")
	assert.NotContains(t, out, "require(\"@angular/core\")")
}

func TestBuildRelativeEntryWithoutImporterFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"dist/index.js": "export const a = 1;\n"})

	cfg, err := Assemble(testParams(), WithBaseDir(dir))
	require.NoError(t, err)

	_, err = cfg.Build(entities.RunOptions{
		EntryPoints: []string{"./missing.js"},
		Outfile:     filepath.Join(dir, "out.js"),
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without an importer")
}

func TestBuildDownlevelRunsTranspiler(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"dist/index.js":  "import { answer } from './answer';\nconsole.log(answer);\n",
		"dist/answer.js": "export const answer = 42;\n",
	})

	var (
		mu   sync.Mutex
		seen []string
	)
	fake := func(code, filePath string) (*Transpiled, error) {
		mu.Lock()
		seen = append(seen, filepath.Base(filePath))
		mu.Unlock()
		return &Transpiled{Code: strings.ReplaceAll(code, "42", "43")}, nil
	}

	params := testParams()
	params.DownlevelToES5 = true
	cfg, err := Assemble(params, WithBaseDir(dir), WithTranspiler(fake))
	require.NoError(t, err)

	files, err := cfg.Build(entities.RunOptions{
		EntryPoints: []string{"dist/index.js"},
		Outfile:     filepath.Join(dir, "out.js"),
	}, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	assert.Contains(t, string(files[0].Contents), "43")
	assert.ElementsMatch(t, []string{"index.js", "answer.js"}, seen)
}

func TestBuildDownlevelWithDefaultTranspiler(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"dist/index.js":   "import { Greeter } from './greeter';\nconst g = new Greeter('ng');\nconsole.log(g.greet());\n",
		"dist/greeter.js": "export class Greeter {\n  constructor(name) { this.name = name; }\n  greet() { return [1, 2].map((n) => `${this.name}${n}`).join(); }\n}\n",
	})

	params := testParams()
	params.DownlevelToES5 = true
	cfg, err := Assemble(params, WithBaseDir(dir))
	require.NoError(t, err)

	files, err := cfg.Build(entities.RunOptions{
		EntryPoints: []string{"dist/index.js"},
		Outfile:     filepath.Join(dir, "out.js"),
	}, false)
	require.NoError(t, err)
	require.Len(t, files, 1)

	out := string(files[0].Contents)
	assert.Contains(t, out, "Greeter")
	assert.NotContains(t, out, "=>")
	assert.NotContains(t, out, "`")
}
