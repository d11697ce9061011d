// File: confstack/env.go
package confstack

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvReader abstracts the process environment so tests can substitute a
// deterministic fake instead of mutating real process state. Reads are a
// live, racy snapshot; callers must serialize environment mutation
// around build calls in multi-threaded hosts.
type EnvReader interface {
	// Lookup returns the value of the named variable and whether it is set.
	Lookup(key string) (string, bool)

	// Environ returns all variables as "KEY=value" pairs.
	Environ() []string
}

// OSEnv reads the real process environment.
type OSEnv struct{}

func (OSEnv) Lookup(key string) (string, bool) { return os.LookupEnv(key) }
func (OSEnv) Environ() []string                { return os.Environ() }

// MapEnv is a fixed in-memory environment for tests.
type MapEnv map[string]string

func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapEnv) Environ() []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

// Environment reads configuration from environment variables. It
// supports a name prefix, a configurable separator, case sensitivity
// control, static overrides, explicit field-to-variable mappings, and
// nested key expansion.
type Environment struct {
	prefix        string
	separator     string
	caseSensitive bool
	overrides     map[string]string
	fieldMappings map[string]string
	nested        bool
	reader        EnvReader
}

// NewEnv creates an environment source with default settings: no prefix,
// separator "_", case-insensitive matching, flat keys.
func NewEnv() *Environment {
	return &Environment{
		separator:     "_",
		overrides:     make(map[string]string),
		fieldMappings: make(map[string]string),
		reader:        OSEnv{},
	}
}

// WithPrefix sets the variable name prefix. Only variables whose name
// starts with prefix+separator are considered; the prefix and a single
// separator occurrence are stripped from the remainder.
func (e *Environment) WithPrefix(prefix string) *Environment {
	e.prefix = prefix
	return e
}

// WithSeparator sets the separator joining prefix and field names.
// Default is "_".
func (e *Environment) WithSeparator(sep string) *Environment {
	e.separator = sep
	return e
}

// CaseSensitive controls name matching. When false (default), both the
// constructed key and the scanned variable name are uppercased before
// comparison; stored keys are lowercased either way.
func (e *Environment) CaseSensitive(sensitive bool) *Environment {
	e.caseSensitive = sensitive
	return e
}

// OverrideWith pins a variable to a fixed value. Overrides take
// precedence over a live read of the same variable.
func (e *Environment) OverrideWith(key, value string) *Environment {
	e.overrides[key] = value
	return e
}

// WithFieldMapping maps a logical field to an exact variable name,
// bypassing the prefix, separator and case rules for that field.
func (e *Environment) WithFieldMapping(field, envKey string) *Environment {
	e.fieldMappings[field] = envKey
	return e
}

// Nested enables expansion of separator-delimited keys into nested
// objects: with prefix APP, APP_HTTP_PORT=9000 becomes
// {"http":{"port":9000}}. Required for environment variables to
// override nested file values under the deep merge strategy.
func (e *Environment) Nested(nested bool) *Environment {
	e.nested = nested
	return e
}

// WithReader substitutes the environment reader. Defaults to the
// process environment.
func (e *Environment) WithReader(r EnvReader) *Environment {
	e.reader = r
	return e
}

// Kind reports KindEnvironment.
func (e *Environment) Kind() SourceKind { return KindEnvironment }

// buildEnvKey derives the external variable name for a field:
// join(prefix, field) with the separator, uppercased unless the source
// is case-sensitive.
func (e *Environment) buildEnvKey(field string) string {
	var parts []string
	if e.prefix != "" {
		parts = append(parts, e.prefix)
	}
	parts = append(parts, field)

	key := strings.Join(parts, e.separator)
	if e.caseSensitive {
		return key
	}
	return strings.ToUpper(key)
}

// Lookup fetches a single field. An explicit field mapping bypasses the
// derived name entirely; overrides win over live reads.
func (e *Environment) Lookup(field string) (any, bool) {
	envKey, mapped := e.fieldMappings[field]
	if !mapped {
		envKey = e.buildEnvKey(field)
	}

	if override, ok := e.overrides[envKey]; ok {
		return parseEnvValue(override), true
	}
	if value, ok := e.reader.Lookup(envKey); ok {
		return parseEnvValue(value), true
	}
	return nil, false
}

// Has reports whether a field resolves to a set variable or override.
func (e *Environment) Has(field string) bool {
	_, ok := e.Lookup(field)
	return ok
}

// Collect produces the source's value tree. With explicit field
// mappings, mapped fields are resolved first (override-or-live by exact
// variable name), then remaining prefixed variables are added under
// their derived flat field name without overwriting mapped results.
// Without mappings, the prefixed scan runs in flat or nested mode.
func (e *Environment) Collect() (Tree, error) {
	if len(e.fieldMappings) > 0 {
		return e.collectMapped(), nil
	}
	return e.collectScan(), nil
}

func (e *Environment) collectMapped() Tree {
	result := make(Tree)

	for field, envKey := range e.fieldMappings {
		if override, ok := e.overrides[envKey]; ok {
			result[field] = parseEnvValue(override)
		} else if value, ok := e.reader.Lookup(envKey); ok {
			result[field] = parseEnvValue(value)
		}
	}

	if e.prefix == "" {
		return result
	}

	// Remaining prefixed variables not covered by a mapping, flat keyed.
	// First-mapped-wins on name collisions.
	for _, entry := range e.reader.Environ() {
		name, value, ok := splitEnvEntry(entry)
		if !ok || e.isMappingTarget(name) {
			continue
		}

		remainder, matched := e.stripPrefix(name)
		if !matched || remainder == "" {
			continue
		}

		field := strings.ToLower(remainder)
		if _, exists := result[field]; !exists {
			result[field] = parseEnvValue(value)
		}
	}

	return result
}

func (e *Environment) collectScan() Tree {
	flat := make(map[string]any)

	for _, entry := range e.reader.Environ() {
		name, value, ok := splitEnvEntry(entry)
		if !ok {
			continue
		}
		e.addScanned(flat, name, value)
	}

	// Overrides are merged after the scan so they win for the same key.
	for name, value := range e.overrides {
		e.addScanned(flat, name, value)
	}

	result := make(Tree)
	for key, value := range flat {
		if !e.nested {
			result[strings.ToLower(key)] = value
			continue
		}

		// Split on the raw separator; each component is lowercased
		// individually and becomes one level of nesting.
		parts := strings.Split(key, e.separator)
		if len(parts) == 1 {
			result[strings.ToLower(key)] = value
			continue
		}
		for i, part := range parts {
			parts[i] = strings.ToLower(part)
		}
		result.Set(parts, value)
	}

	return result
}

// addScanned applies the prefix filter to one variable and records the
// stripped remainder in the flat map. Nested mode preserves the
// remainder's case until expansion lowercases each component.
func (e *Environment) addScanned(flat map[string]any, name, value string) {
	if e.prefix == "" {
		flat[strings.ToLower(name)] = parseEnvValue(value)
		return
	}

	remainder, matched := e.stripPrefix(name)
	if !matched || remainder == "" {
		return
	}

	key := remainder
	if !e.nested {
		key = strings.ToLower(remainder)
	}
	flat[key] = parseEnvValue(value)
}

// stripPrefix reports whether name carries the configured prefix plus
// separator and returns the remainder. Only a single leading separator
// occurrence after the prefix is trimmed, never repetitions.
func (e *Environment) stripPrefix(name string) (string, bool) {
	prefix := e.prefix
	check := name
	if !e.caseSensitive {
		prefix = strings.ToUpper(prefix)
		check = strings.ToUpper(name)
	}

	want := prefix + e.separator
	if !strings.HasPrefix(check, want) {
		return "", false
	}
	return check[len(want):], true
}

func (e *Environment) isMappingTarget(name string) bool {
	for _, target := range e.fieldMappings {
		if target == name {
			return true
		}
	}
	return false
}

func splitEnvEntry(entry string) (name, value string, ok bool) {
	idx := strings.Index(entry, "=")
	if idx <= 0 {
		return "", "", false
	}
	return entry[:idx], entry[idx+1:], true
}

// parseEnvValue opportunistically reinterprets a raw string value, in
// fixed order: boolean literal, signed 64-bit integer, 64-bit float,
// JSON array (bracket-delimited), JSON object (brace-delimited), else
// string. Numeric parses require a whole-string match, so "1.0.0"
// stays a string.
func parseEnvValue(value string) any {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	if len(value) >= 2 && value[0] == '[' && value[len(value)-1] == ']' {
		if arr, err := decodeJSONValue([]byte(value)); err == nil {
			if _, isArr := arr.([]any); isArr {
				return arr
			}
		}
	}

	if len(value) >= 2 && value[0] == '{' && value[len(value)-1] == '}' {
		if obj, err := decodeJSONValue([]byte(value)); err == nil {
			if _, isObj := obj.(Tree); isObj {
				return obj
			}
		}
	}

	return value
}

// decodeJSONValue parses JSON preserving integer precision and
// normalizes the result into canonical tree values.
func decodeJSONValue(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return normalizeValue(out), nil
}
