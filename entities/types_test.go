package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestModuleMappingsMarshalKeepsOrder(t *testing.T) {
	mappings := ModuleMappings{
		{Name: "rxjs", Path: "external/rxjs"},
		{Name: "@angular/core", Path: "angular/packages/core/index.d.ts"},
	}

	out, err := yaml.Marshal(struct {
		Mappings ModuleMappings `yaml:"module_mappings"`
	}{Mappings: mappings})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "rxjs: external/rxjs")
	assert.Less(t, strings.Index(text, "rxjs"), strings.Index(text, "@angular/core"))

	var decoded struct {
		Mappings ModuleMappings `yaml:"module_mappings"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, mappings, decoded.Mappings)
}

func TestModuleMappingsUnmarshalEmpty(t *testing.T) {
	var params BuildParams
	require.NoError(t, yaml.Unmarshal([]byte("module_mappings: {}\n"), &params))

	assert.NotNil(t, params.ModuleMappings)
	assert.Empty(t, params.ModuleMappings)
}
