// File: confstack/merge.go
package confstack

// MergeStrategy selects how two trees are combined.
type MergeStrategy int

const (
	// MergeShallow replaces the full value at every top-level key.
	MergeShallow MergeStrategy = iota

	// MergeDeep recursively merges object values; any other pairing is
	// replaced by the later value. Arrays are replaced wholesale, never
	// concatenated.
	MergeDeep
)

// String returns the strategy name.
func (s MergeStrategy) String() string {
	switch s {
	case MergeShallow:
		return "shallow"
	case MergeDeep:
		return "deep"
	default:
		return "unknown"
	}
}

// Merge folds the given trees left-to-right, each subsequent tree merged
// on top of the accumulator. With no trees it returns an empty tree.
// Inputs are never mutated.
func Merge(strategy MergeStrategy, trees ...Tree) Tree {
	acc := make(Tree)
	for _, tree := range trees {
		mergeInto(acc, tree, strategy)
	}
	return acc
}

// Merge combines other on top of t and returns the result, leaving both
// operands untouched.
func (t Tree) Merge(other Tree, strategy MergeStrategy) Tree {
	out := t.Clone()
	mergeInto(out, other, strategy)
	return out
}

func mergeInto(dst, src Tree, strategy MergeStrategy) {
	for key, value := range src {
		if strategy == MergeDeep {
			srcTree, srcIsTree := value.(Tree)
			dstTree, dstIsTree := dst[key].(Tree)
			if srcIsTree && dstIsTree {
				mergeInto(dstTree, srcTree, strategy)
				continue
			}
		}
		dst[key] = cloneValue(value)
	}
}
