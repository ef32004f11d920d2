// Package diff computes and applies deterministic structural patches between
// JSON content states. Patches contain only add, remove, and replace
// operations; relocations are expressed as remove plus add so every audit
// entry stays addressable by path. Replace operations retain the value they
// overwrote, making the audit trail self-describing.
package diff

import (
	"encoding/json"
	"fmt"
)

// Op is a patch operation kind.
type Op string

// Supported operation kinds. Move and copy are never synthesized.
const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Operation is a single patch step addressed by a JSON pointer.
// OriginalValue is set on replace operations only.
type Operation struct {
	Op            Op
	Path          string
	Value         any
	OriginalValue any
}

// Patch is an ordered sequence of operations. Applying them in order to the
// source content reproduces the target content.
type Patch []Operation

// Empty reports whether the patch contains no operations.
func (p Patch) Empty() bool {
	return len(p) == 0
}

type operationJSON struct {
	Op            Op               `json:"op"`
	Path          string           `json:"path"`
	Value         *json.RawMessage `json:"value,omitempty"`
	OriginalValue *json.RawMessage `json:"originalValue,omitempty"`
}

// MarshalJSON serializes the operation as RFC 6902 JSON Patch, extended with
// an originalValue member on replace operations. Remove operations carry no
// value members.
func (o Operation) MarshalJSON() ([]byte, error) {
	out := operationJSON{Op: o.Op, Path: o.Path}

	if o.Op == OpAdd || o.Op == OpReplace {
		raw, err := json.Marshal(o.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		rm := json.RawMessage(raw)
		out.Value = &rm
	}

	if o.Op == OpReplace {
		raw, err := json.Marshal(o.OriginalValue)
		if err != nil {
			return nil, fmt.Errorf("marshal originalValue: %w", err)
		}
		rm := json.RawMessage(raw)
		out.OriginalValue = &rm
	}

	return json.Marshal(out)
}

// UnmarshalJSON parses a serialized operation, validating the operation kind.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var in operationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Op {
	case OpAdd, OpRemove, OpReplace:
	default:
		return fmt.Errorf("unsupported patch operation %q", in.Op)
	}

	o.Op = in.Op
	o.Path = in.Path
	o.Value = nil
	o.OriginalValue = nil

	if in.Value != nil {
		if err := json.Unmarshal(*in.Value, &o.Value); err != nil {
			return err
		}
	}
	if in.OriginalValue != nil {
		if err := json.Unmarshal(*in.OriginalValue, &o.OriginalValue); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON serializes an empty patch as [] rather than null.
func (p Patch) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Operation(p))
}
