package diff

import (
	"encoding/json"
	"testing"
)

func TestOperation_MarshalShape(t *testing.T) {
	cases := []struct {
		name string
		op   Operation
		want string
	}{
		{
			"add",
			Operation{Op: OpAdd, Path: "/x", Value: float64(1)},
			`{"op":"add","path":"/x","value":1}`,
		},
		{
			"add null value",
			Operation{Op: OpAdd, Path: "/x", Value: nil},
			`{"op":"add","path":"/x","value":null}`,
		},
		{
			"remove omits value",
			Operation{Op: OpRemove, Path: "/x"},
			`{"op":"remove","path":"/x"}`,
		},
		{
			"replace carries original",
			Operation{Op: OpReplace, Path: "/firstName", Value: "Jane", OriginalValue: "John"},
			`{"op":"replace","path":"/firstName","value":"Jane","originalValue":"John"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.op)
			if err != nil {
				t.Fatalf("marshal error: %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("marshal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPatch_MarshalEmpty(t *testing.T) {
	var nilPatch Patch
	got, err := json.Marshal(nilPatch)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[]" {
		t.Errorf("marshal nil patch = %s, want []", got)
	}
}

func TestPatch_SerializationRoundTrip(t *testing.T) {
	patch := mustDiff(t,
		`{"a":1,"b":[1,2,3],"c":"keep"}`,
		`{"a":2,"b":[1],"d":null}`,
	)

	data, err := json.Marshal(patch)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Patch
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	result, err := Apply(json.RawMessage(`{"a":1,"b":[1,2,3],"c":"keep"}`), decoded)
	if err != nil {
		t.Fatalf("Apply of decoded patch error: %v", err)
	}
	if !Equal(result, json.RawMessage(`{"a":2,"b":[1],"d":null}`)) {
		t.Errorf("decoded patch applied = %s, want {\"a\":2,\"b\":[1],\"d\":null}", result)
	}
}

func TestOperation_UnmarshalRejectsMoveAndCopy(t *testing.T) {
	for _, op := range []string{"move", "copy", "test"} {
		data := `{"op":"` + op + `","path":"/a","from":"/b"}`
		var decoded Operation
		if err := json.Unmarshal([]byte(data), &decoded); err == nil {
			t.Errorf("unmarshal of %s operation succeeded, want error", op)
		}
	}
}
