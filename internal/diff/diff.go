package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Diff computes the patch that transforms from into to. The result is
// deterministic: objects are walked depth-first with keys in lexicographic
// order, arrays are compared positionally, and trailing array elements are
// removed highest index first so applying the operations in order is always
// well-defined.
func Diff(from, to json.RawMessage) (Patch, error) {
	a, err := decode(from)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	b, err := decode(to)
	if err != nil {
		return nil, fmt.Errorf("decode target: %w", err)
	}

	patch := Patch{}
	diffValues("", a, b, &patch)
	return patch, nil
}

// Equal reports whether two raw JSON documents are equal as JSON values.
// Object key order is not significant; array order is.
func Equal(a, b json.RawMessage) bool {
	av, err := decode(a)
	if err != nil {
		return false
	}
	bv, err := decode(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func decode(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty JSON document")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func diffValues(path string, a, b any, patch *Patch) {
	if reflect.DeepEqual(a, b) {
		return
	}

	switch av := a.(type) {
	case map[string]any:
		if bv, ok := b.(map[string]any); ok {
			diffObjects(path, av, bv, patch)
			return
		}
	case []any:
		if bv, ok := b.([]any); ok {
			diffArrays(path, av, bv, patch)
			return
		}
	}

	*patch = append(*patch, Operation{
		Op:            OpReplace,
		Path:          path,
		Value:         b,
		OriginalValue: a,
	})
}

func diffObjects(path string, a, b map[string]any, patch *Patch) {
	keys := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		child := childPath(path, k)
		av, inA := a[k]
		bv, inB := b[k]

		switch {
		case inA && !inB:
			*patch = append(*patch, Operation{Op: OpRemove, Path: child})
		case !inA && inB:
			*patch = append(*patch, Operation{Op: OpAdd, Path: child, Value: bv})
		default:
			diffValues(child, av, bv, patch)
		}
	}
}

func diffArrays(path string, a, b []any, patch *Patch) {
	common := len(a)
	if len(b) < common {
		common = len(b)
	}

	for i := 0; i < common; i++ {
		diffValues(indexPath(path, i), a[i], b[i], patch)
	}

	// Appends grow the array one index at a time.
	for i := common; i < len(b); i++ {
		*patch = append(*patch, Operation{Op: OpAdd, Path: indexPath(path, i), Value: b[i]})
	}

	// Removals run highest index first so earlier operations never shift
	// the paths of later ones.
	for i := len(a) - 1; i >= common; i-- {
		*patch = append(*patch, Operation{Op: OpRemove, Path: indexPath(path, i)})
	}
}
