package config

import (
	"os"
	"strings"

	"ngbundle/entities"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultVersionPlaceholder is the version token stamped into banners.
	DefaultVersionPlaceholder = "0.0.0-PLACEHOLDER"

	// DefaultNodeModulesRoot is the third-party package search root.
	DefaultNodeModulesRoot = "node_modules"

	// DefaultFormat is the output format when none is requested.
	DefaultFormat = "esm"
)

// Formats lists the supported output formats.
var Formats = []string{"esm", "iife", "cjs"}

// DefaultParams creates build parameters with defaults applied.
func DefaultParams() *entities.BuildParams {
	return &entities.BuildParams{
		VersionPlaceholder: DefaultVersionPlaceholder,
		NodeModulesRoot:    DefaultNodeModulesRoot,
	}
}

// Load reads build parameters from a YAML or JSON file.
func Load(path string) (*entities.BuildParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading params file")
	}

	params, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing params file %s", path)
	}

	return params, nil
}

// Parse decodes build parameters and fills in defaults for unset fields.
func Parse(data []byte) (*entities.BuildParams, error) {
	params := DefaultParams()

	err := yaml.Unmarshal(data, params)
	if err != nil {
		return nil, errors.Wrap(err, "decoding params")
	}

	ApplyDefaults(params)
	return params, nil
}

// ApplyDefaults fills empty fields that have a default.
func ApplyDefaults(params *entities.BuildParams) {
	if params.VersionPlaceholder == "" {
		params.VersionPlaceholder = DefaultVersionPlaceholder
	}
	if params.NodeModulesRoot == "" {
		params.NodeModulesRoot = DefaultNodeModulesRoot
	}
}

// Validate checks the parameters a bundling run cannot do without.
func Validate(params *entities.BuildParams) error {
	if strings.TrimSpace(params.RootDir) == "" {
		return errors.New("root_dir is required")
	}

	// Duplicate names are allowed: later entries are tried when earlier ones miss.
	for _, mapping := range params.ModuleMappings {
		if mapping.Name == "" {
			return errors.New("module_mappings: empty module name")
		}
	}

	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	if format == "" || contains(Formats, format) {
		return nil
	}
	return errors.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// contains reports whether s is in list.
func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
