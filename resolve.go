// File: confstack/resolve.go
package confstack

import (
	"fmt"
	"strings"
)

// defaultMaxDepth bounds nested-type recursion so an accidental cyclic
// descriptor graph fails cleanly instead of recursing without bound.
const defaultMaxDepth = 32

// Resolver walks a descriptor graph, composing prefixes parent-to-child
// and resolving each type independently. Resolution is plain
// synchronous recursion over the static descriptor graph.
type Resolver struct {
	separator     string
	caseSensitive bool
	nestedEnv     bool
	reader        EnvReader
	files         []*FileSource
	args          []string
	strategy      MergeStrategy
	maxDepth      int
}

// NewResolver creates a resolver with separator "_", case-insensitive
// environment matching and the deep merge strategy.
func NewResolver() *Resolver {
	return &Resolver{
		separator: "_",
		reader:    OSEnv{},
		strategy:  MergeDeep,
		maxDepth:  defaultMaxDepth,
	}
}

// WithSeparator sets the prefix composition and variable name separator.
func (r *Resolver) WithSeparator(sep string) *Resolver {
	r.separator = sep
	return r
}

// CaseSensitive controls environment name matching.
func (r *Resolver) CaseSensitive(sensitive bool) *Resolver {
	r.caseSensitive = sensitive
	return r
}

// NestedEnv enables nested key expansion on the per-type environment
// scan, letting variables address deeper paths within one type.
func (r *Resolver) NestedEnv(nested bool) *Resolver {
	r.nestedEnv = nested
	return r
}

// WithReader substitutes the environment reader.
func (r *Resolver) WithReader(reader EnvReader) *Resolver {
	r.reader = reader
	return r
}

// WithFile adds a config file that contributes to the root type's tree.
func (r *Resolver) WithFile(file *FileSource) *Resolver {
	r.files = append(r.files, file)
	return r
}

// WithArgs adds command-line arguments consulted for each field's flag.
func (r *Resolver) WithArgs(args []string) *Resolver {
	r.args = args
	return r
}

// WithMergeStrategy selects the per-type merge strategy.
func (r *Resolver) WithMergeStrategy(strategy MergeStrategy) *Resolver {
	r.strategy = strategy
	return r
}

// WithMaxDepth overrides the recursion guard.
func (r *Resolver) WithMaxDepth(depth int) *Resolver {
	r.maxDepth = depth
	return r
}

// Resolve produces the fully resolved tree for a descriptor set, with
// no parent prefix above it.
func (r *Resolver) Resolve(spec *Struct) (Tree, error) {
	fileTree, err := r.collectFiles()
	if err != nil {
		return nil, err
	}
	return r.resolve(spec, "", fileTree, 0)
}

// ResolveInto resolves the descriptor set and binds the result onto the
// target struct pointer.
func (r *Resolver) ResolveInto(spec *Struct, target any) error {
	tree, err := r.Resolve(spec)
	if err != nil {
		return err
	}
	return Bind(tree, target)
}

// resolve is the two-phase recursion: compose the prefix, resolve this
// type's regular fields, then resolve nested children with the composed
// prefix and splice each child's tree over the parent's entry for that
// field. The spliced child is authoritative for its subtree, so the
// generic merge result there is discarded.
func (r *Resolver) resolve(spec *Struct, parentPrefix string, fileTree Tree, depth int) (Tree, error) {
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w: descriptor graph exceeds depth %d at type %q (cycle?)",
			ErrConfiguration, r.maxDepth, spec.Name)
	}

	composed := composePrefix(parentPrefix, spec.Prefix, r.separator)

	// fileTree is this type's slice of the file-derived tree: the whole
	// collected file tree at the root, the subtree under the field's key
	// for a nested child. It merges between defaults and environment.
	trees := []Tree{r.defaultsTree(spec), fileTree}

	trees = append(trees, r.envTree(spec, composed))

	if cli, err := r.cliTree(spec); err != nil {
		return nil, err
	} else if cli != nil {
		trees = append(trees, cli)
	}

	merged := Merge(r.strategy, trees...)

	for _, field := range spec.Fields {
		if field.Skip {
			delete(merged, field.Name)
			continue
		}
		if field.Nested == nil {
			continue
		}

		// The child owns this key entirely; only its file subtree is
		// handed down.
		delete(merged, field.Name)
		childFile, _ := fileTree[field.Name].(Tree)
		child, err := r.resolve(field.Nested, composed, childFile, depth+1)
		if err != nil {
			return nil, err
		}
		merged[field.Name] = child
	}

	for _, field := range spec.Fields {
		if field.Skip || field.Nested != nil || !field.Required {
			continue
		}
		if _, ok := merged[field.Name]; !ok {
			return nil, fmt.Errorf("%w: required field %q of %s has no value (expected %s)",
				ErrBinding, field.Name, spec.Name, externalKey(composed, field, r.separator))
		}
	}

	return merged, nil
}

// collectFiles folds the configured file sources into one tree.
func (r *Resolver) collectFiles() (Tree, error) {
	trees := make([]Tree, 0, len(r.files))
	for _, file := range r.files {
		tree, err := file.Collect()
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return Merge(r.strategy, trees...), nil
}

// defaultsTree applies the field default literals.
func (r *Resolver) defaultsTree(spec *Struct) Tree {
	tree := make(Tree)
	for _, field := range spec.Fields {
		if field.Skip || field.Nested != nil || field.Default == "" {
			continue
		}
		tree[field.Name] = parseDefaultLiteral(field.Default)
	}
	return tree
}

// envTree builds the per-type environment source with the composed
// prefix and a mapping for every regular field: the explicit env-key
// override when present, the derived external key otherwise. Nested
// fields never receive a mapping; they own their own prefix chain.
func (r *Resolver) envTree(spec *Struct, composed string) Tree {
	env := NewEnv().
		WithSeparator(r.separator).
		CaseSensitive(r.caseSensitive).
		Nested(r.nestedEnv).
		WithReader(r.reader)
	if composed != "" {
		env.WithPrefix(composed)
	}

	for _, field := range spec.Fields {
		if field.Skip || field.Nested != nil {
			continue
		}
		env.WithFieldMapping(field.Name, externalKey(composed, field, r.separator))
	}

	tree, _ := env.Collect() // environment collection cannot fail
	return tree
}

// cliTree consults the resolver's arguments for each regular field's
// flag name. Returns nil when no arguments are configured.
func (r *Resolver) cliTree(spec *Struct) (Tree, error) {
	if len(r.args) == 0 {
		return nil, nil
	}

	parsed, err := NewArgs(r.args).Collect()
	if err != nil {
		return nil, err
	}

	tree := make(Tree)
	for _, field := range spec.Fields {
		if field.Skip || field.Nested != nil {
			continue
		}
		if value, ok := parsed[field.flagName()]; ok {
			tree[field.Name] = value
		}
	}
	return tree, nil
}

// composePrefix chains ancestor and descendant prefixes: either side
// empty yields the other; otherwise they join with the separator.
func composePrefix(parent, own, sep string) string {
	if own == "" {
		return parent
	}
	if parent == "" {
		return own
	}
	return parent + sep + own
}

// externalKey is the resolved variable name for an unmapped, non-nested
// field: composed_prefix + sep + UPPER(field), or UPPER(field) when the
// composed prefix is empty.
func externalKey(composed string, field Field, sep string) string {
	if field.EnvKey != "" {
		return field.EnvKey
	}
	upper := strings.ToUpper(field.Name)
	if composed == "" {
		return upper
	}
	return composed + sep + upper
}

// parseDefaultLiteral interprets a default as JSON, falling back to the
// raw string when it does not parse.
func parseDefaultLiteral(literal string) any {
	if value, err := decodeJSONValue([]byte(literal)); err == nil {
		return value
	}
	return literal
}
