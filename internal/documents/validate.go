package documents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/caseforge/dossier/internal/definitions"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// validator checks document content against definition schemas. Compiled
// schemas are cached per (name, version); definition versions are immutable
// so a cached entry never goes stale.
type validator struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
	printer  *message.Printer
}

func newValidator() *validator {
	return &validator{
		compiled: make(map[string]*jsonschema.Schema),
		printer:  message.NewPrinter(language.English),
	}
}

// validate returns a *ValidationError when content does not conform to the
// definition's schema.
func (v *validator) validate(def *definitions.Definition, content json.RawMessage) error {
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(content))
	if err != nil {
		return &ValidationError{Violations: []Violation{{Path: "", Message: "content is not valid JSON"}}}
	}

	if err := schema.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Violations: v.collect(verr, nil)}
		}
		return err
	}
	return nil
}

func (v *validator) schemaFor(def *definitions.Definition) (*jsonschema.Schema, error) {
	key := fmt.Sprintf("%s@%d", def.Name, def.Version)

	v.mu.Lock()
	defer v.mu.Unlock()

	if schema, ok := v.compiled[key]; ok {
		return schema, nil
	}

	schema, err := definitions.CompileSchema(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", key, err)
	}

	v.compiled[key] = schema
	return schema, nil
}

// collect flattens the validation error tree into leaf violations, each
// located by a JSON Pointer into the document content.
func (v *validator) collect(err *jsonschema.ValidationError, acc []Violation) []Violation {
	if len(err.Causes) == 0 {
		return append(acc, Violation{
			Path:    instancePointer(err.InstanceLocation),
			Message: err.ErrorKind.LocalizedString(v.printer),
		})
	}
	for _, cause := range err.Causes {
		acc = v.collect(cause, acc)
	}
	return acc
}

func instancePointer(location []string) string {
	if len(location) == 0 {
		return ""
	}

	var b strings.Builder
	for _, token := range location {
		b.WriteByte('/')
		token = strings.ReplaceAll(token, "~", "~0")
		token = strings.ReplaceAll(token, "/", "~1")
		b.WriteString(token)
	}
	return b.String()
}
