package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of an import file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ImportSchema is the top-level structure of a schedule import file.
type ImportSchema struct {
	Project ProjectImport `json:"project" toml:"project" yaml:"project"`
	Tasks   []TaskImport  `json:"tasks" toml:"tasks" yaml:"tasks"`
}

// ProjectImport defines the project-level fields in the import file.
type ProjectImport struct {
	Code string `json:"code,omitempty" toml:"code,omitempty" yaml:"code,omitempty"`
	Name string `json:"name" toml:"name" yaml:"name"`
}

// TaskImport defines one schedule row. Duration wins over End when both are
// given. Predecessors may be a list or a comma-separated string.
type TaskImport struct {
	Hierarchy    string  `json:"hierarchy" toml:"hierarchy" yaml:"hierarchy"`
	Name         string  `json:"name" toml:"name" yaml:"name"`
	Start        string  `json:"start" toml:"start" yaml:"start"`
	End          *string `json:"end,omitempty" toml:"end,omitempty" yaml:"end,omitempty"`
	Duration     *int    `json:"duration,omitempty" toml:"duration,omitempty" yaml:"duration,omitempty"`
	Progress     *int    `json:"progress,omitempty" toml:"progress,omitempty" yaml:"progress,omitempty"`
	Predecessors any     `json:"predecessors,omitempty" toml:"predecessors,omitempty" yaml:"predecessors,omitempty"`
	Resources    string  `json:"resources,omitempty" toml:"resources,omitempty" yaml:"resources,omitempty"`
	Notes        string  `json:"notes,omitempty" toml:"notes,omitempty" yaml:"notes,omitempty"`
}

// FormatFromPath picks the decoder from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported import file extension %q (want .json, .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadImportSchema reads and parses an import file, choosing the format from
// its extension.
func LoadImportSchema(path string) (*ImportSchema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeImportSchema(data, format)
}

// DecodeImportSchema parses raw import data in the given format.
func DecodeImportSchema(data []byte, format Format) (*ImportSchema, error) {
	var schema ImportSchema
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &schema)
	case FormatTOML:
		err = toml.Unmarshal(data, &schema)
	case FormatYAML:
		err = yaml.Unmarshal(data, &schema)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s import file: %w", format, err)
	}
	return &schema, nil
}
