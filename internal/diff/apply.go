package diff

import (
	"encoding/json"
	"fmt"
)

// Apply transforms from by executing the patch operations in order and
// returns the resulting document. Apply(a, Diff(a, b)) reproduces b up to
// JSON value equality.
func Apply(from json.RawMessage, patch Patch) (json.RawMessage, error) {
	doc, err := decode(from)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}

	for i, op := range patch {
		tokens, err := splitPointer(op.Path)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		doc, err = applyOp(doc, tokens, op)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}

	result, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return result, nil
}

func applyOp(doc any, tokens []string, op Operation) (any, error) {
	if len(tokens) == 0 {
		switch op.Op {
		case OpAdd, OpReplace:
			return op.Value, nil
		default:
			return nil, fmt.Errorf("cannot remove document root")
		}
	}

	token := tokens[0]

	switch node := doc.(type) {
	case map[string]any:
		if len(tokens) == 1 {
			return applyToObject(node, token, op)
		}
		child, ok := node[token]
		if !ok {
			return nil, fmt.Errorf("path element %q not found", token)
		}
		updated, err := applyOp(child, tokens[1:], op)
		if err != nil {
			return nil, err
		}
		node[token] = updated
		return node, nil

	case []any:
		if len(tokens) == 1 {
			return applyToArray(node, token, op)
		}
		idx, err := arrayIndex(token, len(node), false)
		if err != nil {
			return nil, err
		}
		updated, err := applyOp(node[idx], tokens[1:], op)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil

	default:
		return nil, fmt.Errorf("path element %q addresses a scalar", token)
	}
}

func applyToObject(node map[string]any, key string, op Operation) (any, error) {
	switch op.Op {
	case OpAdd:
		node[key] = op.Value
	case OpRemove:
		if _, ok := node[key]; !ok {
			return nil, fmt.Errorf("member %q not found", key)
		}
		delete(node, key)
	case OpReplace:
		if _, ok := node[key]; !ok {
			return nil, fmt.Errorf("member %q not found", key)
		}
		node[key] = op.Value
	}
	return node, nil
}

func applyToArray(node []any, token string, op Operation) (any, error) {
	switch op.Op {
	case OpAdd:
		idx, err := arrayIndex(token, len(node), true)
		if err != nil {
			return nil, err
		}
		node = append(node, nil)
		copy(node[idx+1:], node[idx:])
		node[idx] = op.Value
		return node, nil

	case OpRemove:
		idx, err := arrayIndex(token, len(node), false)
		if err != nil {
			return nil, err
		}
		return append(node[:idx], node[idx+1:]...), nil

	default:
		idx, err := arrayIndex(token, len(node), false)
		if err != nil {
			return nil, err
		}
		node[idx] = op.Value
		return node, nil
	}
}
