// File: confstack/value.go
package confstack

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tree is the hierarchical document shared by all sources. Objects are
// Trees, arrays are []any, scalars are nil, bool, int64, float64 or
// string. Values decoded from files or the environment are normalized
// to these types before they enter the merge engine.
type Tree map[string]any

// Get retrieves the value at the given path. The second return value
// reports whether every segment of the path exists.
func (t Tree) Get(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}

	current := any(t)
	for _, segment := range path {
		currentMap, ok := current.(Tree)
		if !ok {
			return nil, false
		}
		value, exists := currentMap[segment]
		if !exists {
			return nil, false
		}
		current = value
	}

	return current, true
}

// Set stores a value at the given path, creating intermediate objects as
// needed. An intermediate segment holding a non-object value is
// overwritten with a fresh object; later writes win structurally.
// An empty path is a no-op.
func (t Tree) Set(path []string, value any) {
	if len(path) == 0 {
		return
	}

	current := t
	for i := 0; i < len(path)-1; i++ {
		segment := path[i]

		next, exists := current[segment]
		if !exists {
			newTree := make(Tree)
			current[segment] = newTree
			current = newTree
			continue
		}

		if nextTree, isTree := next.(Tree); isTree {
			current = nextTree
		} else {
			newTree := make(Tree)
			current[segment] = newTree
			current = newTree
		}
	}

	current[path[len(path)-1]] = value
}

// SetPath is Set with a dot-separated path.
func (t Tree) SetPath(path string, value any) {
	if path == "" {
		return
	}
	t.Set(strings.Split(path, "."), value)
}

// Lookup retrieves the value at a dot-separated path.
func (t Tree) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	return t.Get(strings.Split(strings.TrimSuffix(path, "."), "."))
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	clone := make(Tree, len(t))
	for key, value := range t {
		clone[key] = cloneValue(value)
	}
	return clone
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Tree:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// Flatten converts the tree to a flat map whose keys are the leaf paths
// joined with sep. Empty subtrees produce no entries.
func (t Tree) Flatten(sep string) map[string]any {
	flat := make(map[string]any)
	t.flattenInto(flat, "", sep)
	return flat
}

func (t Tree) flattenInto(flat map[string]any, prefix, sep string) {
	for key, value := range t {
		path := key
		if prefix != "" {
			path = prefix + sep + key
		}

		if subtree, isTree := value.(Tree); isTree {
			subtree.flattenInto(flat, path, sep)
		} else {
			flat[path] = value
		}
	}
}

// String retrieves a string value at a dot-separated path.
// Attempts conversion from the other scalar types.
func (t Tree) String(path string) (string, error) {
	val, found := t.Lookup(path)
	if !found {
		return "", fmt.Errorf("path not present: %s", path)
	}
	if val == nil {
		return "", nil
	}

	switch v := val.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string for path %s", val, path)
	}
}

// Int64 retrieves an int64 value at a dot-separated path.
// Attempts conversion from floats, parsable strings, and booleans.
func (t Tree) Int64(path string) (int64, error) {
	val, found := t.Lookup(path)
	if !found {
		return 0, fmt.Errorf("path not present: %s", path)
	}

	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		if i, err := strconv.ParseInt(v, 0, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("cannot convert string %q to int64 for path %s", v, path)
	}

	return 0, fmt.Errorf("cannot convert type %T to int64 for path %s", val, path)
}

// Bool retrieves a boolean value at a dot-separated path.
// Attempts conversion from numbers (0=false) and parsable strings.
func (t Tree) Bool(path string) (bool, error) {
	val, found := t.Lookup(path)
	if !found {
		return false, fmt.Errorf("path not present: %s", path)
	}

	switch v := val.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		return false, fmt.Errorf("cannot convert string %q to bool for path %s", v, path)
	}

	return false, fmt.Errorf("cannot convert type %T to bool for path %s", val, path)
}

// Float64 retrieves a float64 value at a dot-separated path.
// Attempts conversion from integers, parsable strings, and booleans.
func (t Tree) Float64(path string) (float64, error) {
	val, found := t.Lookup(path)
	if !found {
		return 0.0, fmt.Errorf("path not present: %s", path)
	}

	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
		return 0.0, fmt.Errorf("cannot convert string %q to float64 for path %s", v, path)
	}

	return 0.0, fmt.Errorf("cannot convert type %T to float64 for path %s", val, path)
}

// normalizeValue converts decoder output (yaml.v3, BurntSushi/toml,
// encoding/json with UseNumber) into canonical tree values: Tree for
// objects, []any for arrays, int64/float64 for numbers.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case Tree:
		return normalizeTree(v)
	case map[string]any:
		return normalizeTree(v)
	case map[any]any:
		out := make(Tree, len(v))
		for key, elem := range v {
			out[fmt.Sprintf("%v", key)] = normalizeValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = normalizeValue(elem)
		}
		return out
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

func normalizeTree(m map[string]any) Tree {
	out := make(Tree, len(m))
	for key, value := range m {
		out[key] = normalizeValue(value)
	}
	return out
}

// isValidKeySegment checks if a single path segment is a valid bare key:
// ASCII letters, digits, underscores and dashes, no dots.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}

	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'

		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
