// File: confstack/source.go
package confstack

// SourceKind identifies a configuration source category. The kinds are
// listed in build precedence order, lowest first.
type SourceKind string

const (
	// KindDefaults represents programmatic default values.
	KindDefaults SourceKind = "defaults"
	// KindFile represents values decoded from a configuration file.
	KindFile SourceKind = "file"
	// KindEnvironment represents values read from environment variables.
	KindEnvironment SourceKind = "env"
	// KindCommandLine represents values parsed from command-line arguments.
	KindCommandLine SourceKind = "cli"
	// KindOverrides represents explicit static overrides.
	KindOverrides SourceKind = "overrides"
)

// Source is a provider of configuration data. Collect produces the full
// tree for the source; Lookup fetches a single key without materializing
// the whole tree (where the source supports it).
type Source interface {
	// Kind reports the source category used for precedence ordering.
	Kind() SourceKind

	// Collect produces this source's value tree. Sources that are
	// configured as optional return an empty tree when their backing
	// data is absent.
	Collect() (Tree, error)

	// Lookup fetches a single value by its logical key.
	Lookup(key string) (any, bool)
}

// precedence returns the canonical build ordering of a kind; lower
// values are merged first and therefore lose on conflicting keys.
func (k SourceKind) precedence() int {
	switch k {
	case KindDefaults:
		return 0
	case KindFile:
		return 1
	case KindEnvironment:
		return 2
	case KindCommandLine:
		return 3
	case KindOverrides:
		return 4
	default:
		return 5
	}
}
