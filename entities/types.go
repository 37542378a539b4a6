package entities

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ModuleMapping maps a symbolic module name to an output-relative path.
type ModuleMapping struct {
	Name string
	Path string
}

// ModuleMappings is an ordered module mapping table. Order matters: lookups are
// first-match-wins.
type ModuleMappings []ModuleMapping

// UnmarshalYAML decodes a mapping node keeping the key order of the document.
func (m *ModuleMappings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("module_mappings: expected a mapping, got line %d", node.Line)
	}

	mappings := make(ModuleMappings, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name, path string
		err := node.Content[i].Decode(&name)
		if err != nil {
			return errors.Wrap(err, "decoding mapping key")
		}
		err = node.Content[i+1].Decode(&path)
		if err != nil {
			return errors.Wrapf(err, "decoding mapping value for %q", name)
		}
		mappings = append(mappings, ModuleMapping{Name: name, Path: path})
	}

	*m = mappings
	return nil
}

// MarshalYAML encodes the table as a mapping node in table order.
func (m ModuleMappings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, mapping := range m {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: mapping.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: mapping.Path},
		)
	}
	return node, nil
}

// BuildParams holds the build-injected parameters for one bundling run.
type BuildParams struct {
	// Workspace identity (e.g. "angular").
	WorkspaceName string `yaml:"workspace_name"`

	// Output root, relative to the working directory (e.g. "bazel-out/k8-fastbuild/bin").
	RootDir string `yaml:"root_dir"`

	// Optional file whose contents are prepended to the bundle.
	BannerFile string `yaml:"banner_file,omitempty"`

	// Optional workspace status file carrying BUILD_SCM_VERSION.
	StampData string `yaml:"stamp_data,omitempty"`

	// Token in the banner replaced by the stamped version.
	VersionPlaceholder string `yaml:"version_placeholder,omitempty"`

	// Symbolic module name to output-relative path.
	ModuleMappings ModuleMappings `yaml:"module_mappings,omitempty"`

	// Transpile every loaded file down to ES5.
	DownlevelToES5 bool `yaml:"downlevel_to_es5"`

	// Directory searched for third-party packages.
	NodeModulesRoot string `yaml:"node_modules_root,omitempty"`

	// Modules left out of the bundle.
	External []string `yaml:"external,omitempty"`

	// Global variable names for externals in IIFE output (e.g. "@angular/core": "ng.core").
	Globals map[string]string `yaml:"globals,omitempty"`
}

// RunOptions describes a single bundler invocation.
type RunOptions struct {
	EntryPoints []string
	Outfile     string
	Format      string
	GlobalName  string
	Sourcemap   bool
}
