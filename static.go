// File: confstack/static.go
package confstack

import (
	"fmt"
)

// StaticSource serves a fixed tree. It backs both the Defaults kind
// (lowest precedence) and the Overrides kind (highest precedence).
type StaticSource struct {
	kind SourceKind
	tree Tree
}

// NewDefaults creates a defaults source from a literal tree.
func NewDefaults(tree Tree) *StaticSource {
	return &StaticSource{kind: KindDefaults, tree: tree.Clone()}
}

// NewDefaultsJSON creates a defaults source from a JSON object literal.
// A malformed literal is a configuration error at registration time,
// not deferred to bind time.
func NewDefaultsJSON(literal string) (*StaticSource, error) {
	value, err := decodeJSONValue([]byte(literal))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed defaults literal: %v", ErrConfiguration, err)
	}
	tree, ok := value.(Tree)
	if !ok {
		return nil, fmt.Errorf("%w: defaults literal must be a JSON object, got %T", ErrConfiguration, value)
	}
	return &StaticSource{kind: KindDefaults, tree: tree}, nil
}

// NewOverrides creates an overrides source from a map of dot-separated
// paths to values.
func NewOverrides(values map[string]any) *StaticSource {
	tree := make(Tree)
	for path, value := range values {
		tree.SetPath(path, normalizeValue(value))
	}
	return &StaticSource{kind: KindOverrides, tree: tree}
}

// Kind reports the source category.
func (s *StaticSource) Kind() SourceKind { return s.kind }

// Collect returns a copy of the static tree.
func (s *StaticSource) Collect() (Tree, error) {
	return s.tree.Clone(), nil
}

// Lookup fetches a single dot-separated path.
func (s *StaticSource) Lookup(key string) (any, bool) {
	return s.tree.Lookup(key)
}
