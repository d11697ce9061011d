// File: confstack/builder.go
package confstack

import (
	"fmt"
	"sort"

	"github.com/spf13/pflag"
)

// ValidatorFunc inspects the fully merged tree before binding. It must
// not mutate the tree; returning an error aborts the build with no
// partial configuration.
type ValidatorFunc func(tree Tree) error

// Builder provides a fluent interface for assembling configuration.
// Sources are merged lowest precedence first: defaults, files (in
// registration order), environment, command line, overrides.
type Builder struct {
	sources    []Source
	strategy   MergeStrategy
	validators []ValidatorFunc
	err        error
}

// NewBuilder creates a builder with the deep merge strategy.
func NewBuilder() *Builder {
	return &Builder{strategy: MergeDeep}
}

// WithMergeStrategy selects how trees are combined. Default: MergeDeep.
func (b *Builder) WithMergeStrategy(strategy MergeStrategy) *Builder {
	b.strategy = strategy
	return b
}

// WithSource registers any source; it is ordered by its kind's
// precedence, and within one kind by registration order.
func (b *Builder) WithSource(src Source) *Builder {
	b.sources = append(b.sources, src)
	return b
}

// WithDefaults registers a defaults tree at lowest precedence.
func (b *Builder) WithDefaults(tree Tree) *Builder {
	return b.WithSource(NewDefaults(tree))
}

// WithDefaultsJSON registers defaults from a JSON object literal.
// A malformed literal fails the build at Build time.
func (b *Builder) WithDefaultsJSON(literal string) *Builder {
	src, err := NewDefaultsJSON(literal)
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.WithSource(src)
}

// WithFile registers a required config file with format detection.
func (b *Builder) WithFile(path string) *Builder {
	return b.WithSource(NewFile(path))
}

// WithFileFormat registers a required config file with an explicit format.
func (b *Builder) WithFileFormat(path string, format Format) *Builder {
	return b.WithSource(NewFile(path).WithFormat(format))
}

// WithOptionalFile registers a config file whose absence is a silent skip.
func (b *Builder) WithOptionalFile(path string) *Builder {
	return b.WithSource(NewFile(path).Optional())
}

// WithEnv registers an environment source.
func (b *Builder) WithEnv(env *Environment) *Builder {
	return b.WithSource(env)
}

// WithEnvPrefix registers a default environment source with the given
// prefix, nested key expansion enabled.
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	return b.WithSource(NewEnv().WithPrefix(prefix).Nested(true))
}

// WithArgs registers a command-line source over raw arguments.
func (b *Builder) WithArgs(args []string) *Builder {
	return b.WithSource(NewArgs(args))
}

// WithFlags registers a command-line source over a parsed flag set.
func (b *Builder) WithFlags(fs *pflag.FlagSet) *Builder {
	return b.WithSource(NewFlagSet(fs))
}

// WithOverrides registers explicit static overrides at highest precedence.
func (b *Builder) WithOverrides(values map[string]any) *Builder {
	return b.WithSource(NewOverrides(values))
}

// WithValidator adds a validation function run on the merged tree.
// Multiple validators execute in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build collects every source, folds the trees in precedence order
// under the configured strategy, and runs the validators. Any source
// failure aborts immediately; no partial tree is returned.
func (b *Builder) Build() (Tree, error) {
	if b.err != nil {
		return nil, b.err
	}

	ordered := make([]Source, len(b.sources))
	copy(ordered, b.sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind().precedence() < ordered[j].Kind().precedence()
	})

	trees := make([]Tree, 0, len(ordered))
	for _, src := range ordered {
		tree, err := src.Collect()
		if err != nil {
			return nil, fmt.Errorf("collect %s source: %w", src.Kind(), err)
		}
		trees = append(trees, tree)
	}

	merged := Merge(b.strategy, trees...)

	for _, validator := range b.validators {
		if err := validator(merged); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	return merged, nil
}

// BuildAndBind builds the merged tree and binds it onto the target
// struct pointer.
func (b *Builder) BuildAndBind(target any) error {
	merged, err := b.Build()
	if err != nil {
		return err
	}
	return Bind(merged, target)
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() Tree {
	tree, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return tree
}
