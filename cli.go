// File: confstack/cli.go
package confstack

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ArgsSource parses raw command-line arguments in the forms
// "--key.path=value", "--key.path value" and "--booleanflag". Dot paths
// become nested objects; values run through the same opportunistic
// coercion as environment values.
type ArgsSource struct {
	args []string
}

// NewArgs creates a command-line source from raw arguments,
// typically os.Args[1:].
func NewArgs(args []string) *ArgsSource {
	return &ArgsSource{args: args}
}

// Kind reports KindCommandLine.
func (a *ArgsSource) Kind() SourceKind { return KindCommandLine }

// Collect parses the arguments into a value tree.
func (a *ArgsSource) Collect() (Tree, error) {
	result := make(Tree)

	i := 0
	for i < len(a.args) {
		arg := a.args[i]
		if !strings.HasPrefix(arg, "--") {
			// Skip non-flag arguments
			i++
			continue
		}

		content := strings.TrimPrefix(arg, "--")
		if content == "" {
			// Skip "--" used as a separator
			i++
			continue
		}

		var keyPath, valueStr string
		if idx := strings.Index(content, "="); idx >= 0 {
			keyPath = content[:idx]
			valueStr = content[idx+1:]
			i++
		} else {
			keyPath = content
			// Boolean flag when the next arg is another flag or absent
			if i+1 >= len(a.args) || strings.HasPrefix(a.args[i+1], "--") {
				valueStr = "true"
				i++
			} else {
				valueStr = a.args[i+1]
				i += 2
			}
		}

		if keyPath == "" {
			continue
		}

		segments := strings.Split(keyPath, ".")
		for _, segment := range segments {
			if !isValidKeySegment(segment) {
				return nil, fmt.Errorf("%w: invalid command-line key segment %q in %q",
					ErrDecode, segment, keyPath)
			}
		}

		result.Set(segments, parseEnvValue(valueStr))
	}

	return result, nil
}

// Lookup fetches a single field by its dot path or kebab-case alias.
func (a *ArgsSource) Lookup(key string) (any, bool) {
	tree, err := a.Collect()
	if err != nil {
		return nil, false
	}
	if v, ok := tree.Lookup(key); ok {
		return v, true
	}
	return tree.Lookup(strings.ReplaceAll(key, "_", "-"))
}

// FlagSetSource reads values from a parsed pflag.FlagSet. Only flags
// that were explicitly set contribute. An optional field-to-flag-name
// mapping routes flags to logical fields; unmapped flags contribute
// under their own name, with dots opening nested objects.
type FlagSetSource struct {
	flags    *pflag.FlagSet
	mappings map[string]string
}

// NewFlagSet creates a command-line source over a parsed flag set.
func NewFlagSet(fs *pflag.FlagSet) *FlagSetSource {
	return &FlagSetSource{
		flags:    fs,
		mappings: make(map[string]string),
	}
}

// WithFieldMapping routes a flag to a logical field name.
func (f *FlagSetSource) WithFieldMapping(field, flagName string) *FlagSetSource {
	f.mappings[field] = flagName
	return f
}

// Kind reports KindCommandLine.
func (f *FlagSetSource) Kind() SourceKind { return KindCommandLine }

// Collect gathers all changed flags into a value tree.
func (f *FlagSetSource) Collect() (Tree, error) {
	result := make(Tree)
	if f.flags == nil {
		return result, nil
	}

	flagToField := make(map[string]string, len(f.mappings))
	for field, flagName := range f.mappings {
		flagToField[flagName] = field
	}

	f.flags.Visit(func(fl *pflag.Flag) {
		value := parseEnvValue(fl.Value.String())
		if field, ok := flagToField[fl.Name]; ok {
			result[field] = value
			return
		}
		result.Set(strings.Split(fl.Name, "."), value)
	})

	return result, nil
}

// Lookup fetches a single field via its mapping, falling back to the
// field's kebab-case flag name.
func (f *FlagSetSource) Lookup(field string) (any, bool) {
	if f.flags == nil {
		return nil, false
	}

	flagName, ok := f.mappings[field]
	if !ok {
		flagName = strings.ReplaceAll(field, "_", "-")
	}

	fl := f.flags.Lookup(flagName)
	if fl == nil || !fl.Changed {
		return nil, false
	}
	return parseEnvValue(fl.Value.String()), true
}
