package diff

import (
	"encoding/json"
	"testing"
)

func mustDiff(t *testing.T, from, to string) Patch {
	t.Helper()
	patch, err := Diff(json.RawMessage(from), json.RawMessage(to))
	if err != nil {
		t.Fatalf("Diff(%s, %s) error: %v", from, to, err)
	}
	return patch
}

func TestDiff_Identical(t *testing.T) {
	cases := []string{
		`{}`,
		`{"firstName":"John"}`,
		`[1,2,3]`,
		`null`,
		`"text"`,
		`{"nested":{"a":[1,{"b":true}]}}`,
	}

	for _, doc := range cases {
		patch := mustDiff(t, doc, doc)
		if !patch.Empty() {
			t.Errorf("Diff(%s, %s) = %d operations, want empty patch", doc, doc, len(patch))
		}
	}
}

func TestDiff_ReplaceCarriesOriginalValue(t *testing.T) {
	patch := mustDiff(t, `{"firstName":"John"}`, `{"firstName":"Jane"}`)

	if len(patch) != 1 {
		t.Fatalf("len(patch) = %d, want 1", len(patch))
	}

	op := patch[0]
	if op.Op != OpReplace {
		t.Errorf("op = %s, want replace", op.Op)
	}
	if op.Path != "/firstName" {
		t.Errorf("path = %s, want /firstName", op.Path)
	}
	if op.Value != "Jane" {
		t.Errorf("value = %v, want Jane", op.Value)
	}
	if op.OriginalValue != "John" {
		t.Errorf("originalValue = %v, want John", op.OriginalValue)
	}
}

func TestDiff_OnlyAddRemoveReplace(t *testing.T) {
	cases := []struct {
		name     string
		from, to string
	}{
		{"relocation", `{"a":"moved"}`, `{"b":"moved"}`},
		{"array relocation", `[1,2,3]`, `[3,1,2]`},
		{"duplication", `{"a":1}`, `{"a":1,"b":1}`},
		{"nested", `{"x":{"y":[1,2]}}`, `{"x":{"z":[2,1]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			patch := mustDiff(t, tc.from, tc.to)
			for _, op := range patch {
				switch op.Op {
				case OpAdd, OpRemove, OpReplace:
				default:
					t.Errorf("unexpected operation kind %s at %s", op.Op, op.Path)
				}
			}
		})
	}
}

func TestDiff_RoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		from, to string
	}{
		{"scalar change", `{"firstName":"John"}`, `{"firstName":"Jane"}`},
		{"add member", `{}`, `{"x":1}`},
		{"remove member", `{"x":1,"y":2}`, `{"y":2}`},
		{"type change", `{"v":1}`, `{"v":"one"}`},
		{"null to value", `{"v":null}`, `{"v":[1]}`},
		{"value to null", `{"v":{"a":1}}`, `{"v":null}`},
		{"array grow", `{"xs":[1]}`, `{"xs":[1,2,3]}`},
		{"array shrink", `{"xs":[1,2,3]}`, `{"xs":[1]}`},
		{"array empty", `{"xs":[1,2,3]}`, `{"xs":[]}`},
		{"array element change", `{"xs":[1,2,3]}`, `{"xs":[1,9,3]}`},
		{"array reorder", `{"xs":[1,2,3]}`, `{"xs":[3,2,1]}`},
		{"nested objects", `{"a":{"b":{"c":1}}}`, `{"a":{"b":{"d":2}}}`},
		{"object in array", `{"xs":[{"a":1},{"b":2}]}`, `{"xs":[{"a":2}]}`},
		{"root type change", `[1,2]`, `{"a":1}`},
		{"root scalar", `1`, `2`},
		{"escaped keys", `{"a/b":1,"c~d":2}`, `{"a/b":2,"e":3}`},
		{"everything", `{"n":1,"s":"x","xs":[1,{"k":true}],"o":{"a":null}}`, `{"n":2,"xs":[{"k":false},2,3],"o":{"b":[]},"t":"new"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			patch := mustDiff(t, tc.from, tc.to)

			result, err := Apply(json.RawMessage(tc.from), patch)
			if err != nil {
				t.Fatalf("Apply error: %v", err)
			}

			if !Equal(result, json.RawMessage(tc.to)) {
				t.Errorf("Apply(from, Diff(from, to)) = %s, want %s", result, tc.to)
			}
		})
	}
}

func TestDiff_ReplaceOriginalsMatchSource(t *testing.T) {
	from := `{"a":1,"b":{"c":"old"},"xs":[true,false]}`
	to := `{"a":2,"b":{"c":"new"},"xs":[false,false]}`

	patch := mustDiff(t, from, to)

	var source map[string]any
	if err := json.Unmarshal([]byte(from), &source); err != nil {
		t.Fatal(err)
	}

	for _, op := range patch {
		if op.Op != OpReplace {
			continue
		}
		want := valueAt(t, source, op.Path)
		got, err := json.Marshal(op.OriginalValue)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Errorf("originalValue at %s = %s, want %s", op.Path, got, want)
		}
	}
}

func valueAt(t *testing.T, doc any, path string) string {
	t.Helper()
	tokens, err := splitPointer(path)
	if err != nil {
		t.Fatal(err)
	}
	current := doc
	for _, token := range tokens {
		switch node := current.(type) {
		case map[string]any:
			current = node[token]
		case []any:
			idx, err := arrayIndex(token, len(node), false)
			if err != nil {
				t.Fatal(err)
			}
			current = node[idx]
		}
	}
	raw, err := json.Marshal(current)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestDiff_Deterministic(t *testing.T) {
	from := `{"z":1,"a":{"m":[3,2,1],"k":true},"b":null}`
	to := `{"a":{"m":[1,2],"n":false},"c":"x"}`

	first, err := json.Marshal(mustDiff(t, from, to))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		next, err := json.Marshal(mustDiff(t, from, to))
		if err != nil {
			t.Fatal(err)
		}
		if string(next) != string(first) {
			t.Fatalf("iteration %d produced %s, want %s", i, next, first)
		}
	}
}

func TestDiff_ObjectKeysLexicographic(t *testing.T) {
	patch := mustDiff(t, `{"c":1,"a":1,"b":1}`, `{"c":2,"a":2,"b":2}`)

	want := []string{"/a", "/b", "/c"}
	if len(patch) != len(want) {
		t.Fatalf("len(patch) = %d, want %d", len(patch), len(want))
	}
	for i, path := range want {
		if patch[i].Path != path {
			t.Errorf("patch[%d].Path = %s, want %s", i, patch[i].Path, path)
		}
	}
}

func TestDiff_ArrayRemovalsDescend(t *testing.T) {
	patch := mustDiff(t, `[1,2,3,4]`, `[1]`)

	want := []string{"/3", "/2", "/1"}
	if len(patch) != len(want) {
		t.Fatalf("len(patch) = %d, want %d", len(patch), len(want))
	}
	for i, path := range want {
		if patch[i].Op != OpRemove {
			t.Errorf("patch[%d].Op = %s, want remove", i, patch[i].Op)
		}
		if patch[i].Path != path {
			t.Errorf("patch[%d].Path = %s, want %s", i, patch[i].Path, path)
		}
	}
}

func TestDiff_InvalidJSON(t *testing.T) {
	if _, err := Diff(json.RawMessage(`{`), json.RawMessage(`{}`)); err == nil {
		t.Error("Diff with invalid source succeeded, want error")
	}
	if _, err := Diff(json.RawMessage(`{}`), json.RawMessage(``)); err == nil {
		t.Error("Diff with empty target succeeded, want error")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"key order ignored", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"array order significant", `[1,2]`, `[2,1]`, false},
		{"whitespace ignored", `{"a": 1}`, `{"a":1}`, true},
		{"different values", `{"a":1}`, `{"a":2}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(json.RawMessage(tc.a), json.RawMessage(tc.b)); got != tc.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
