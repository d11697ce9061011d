// File: confstack/file.go
package confstack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file format.
type Format string

const (
	// FormatAuto detects the format from the file extension, falling
	// back to content sniffing.
	FormatAuto Format = "auto"
	// FormatTOML decodes TOML.
	FormatTOML Format = "toml"
	// FormatYAML decodes YAML.
	FormatYAML Format = "yaml"
	// FormatJSON decodes JSON.
	FormatJSON Format = "json"
	// FormatJSONC decodes JSON with comments and trailing commas.
	FormatJSONC Format = "jsonc"
)

// FileSource decodes a configuration file into a value tree. The actual
// parsing is delegated to the format decoders; this source only selects
// the decoder and normalizes the result.
type FileSource struct {
	path     string
	format   Format
	optional bool
}

// NewFile creates a file source with automatic format detection.
func NewFile(path string) *FileSource {
	return &FileSource{path: path, format: FormatAuto}
}

// WithFormat pins the decoder instead of detecting it.
func (f *FileSource) WithFormat(format Format) *FileSource {
	f.format = format
	return f
}

// Optional makes a missing file a silent skip instead of an error.
// Genuine decode failures still propagate.
func (f *FileSource) Optional() *FileSource {
	f.optional = true
	return f
}

// Path returns the configured file path.
func (f *FileSource) Path() string { return f.path }

// Kind reports KindFile.
func (f *FileSource) Kind() SourceKind { return KindFile }

// Collect reads and decodes the file.
func (f *FileSource) Collect() (Tree, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if f.optional {
				return make(Tree), nil
			}
			return nil, fmt.Errorf("%w: config file %q: %v", ErrSourceUnavailable, f.path, err)
		}
		return nil, fmt.Errorf("%w: config file %q: %v", ErrSourceUnavailable, f.path, err)
	}

	format := f.format
	if format == "" || format == FormatAuto {
		format = detectFileFormat(f.path)
		if format == "" {
			format = detectFormatFromContent(data)
		}
		if format == "" {
			return nil, fmt.Errorf("%w: unable to determine format of config file %q", ErrDecode, f.path)
		}
	}

	tree, err := decodeTree(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: config file %q: %v", ErrDecode, f.path, err)
	}
	return tree, nil
}

// Lookup fetches a single dot-separated path from the decoded file.
func (f *FileSource) Lookup(key string) (any, bool) {
	tree, err := f.Collect()
	if err != nil {
		return nil, false
	}
	return tree.Lookup(key)
}

// decodeTree parses raw file data in the given format and normalizes
// the result into canonical tree values.
func decodeTree(data []byte, format Format) (Tree, error) {
	raw := make(map[string]any)

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber() // Preserve number precision
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
	case FormatJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return normalizeTree(raw), nil
}

// detectFileFormat determines format from the file extension.
func detectFileFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".jsonc":
		return FormatJSONC
	default:
		return ""
	}
}

// detectFormatFromContent attempts to detect format by parsing.
// JSON is tried first (strictest), then YAML, then TOML.
func detectFormatFromContent(data []byte) Format {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var yamlTest any
	if err := yaml.Unmarshal(data, &yamlTest); err == nil {
		return FormatYAML
	}

	var tomlTest any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	return ""
}
