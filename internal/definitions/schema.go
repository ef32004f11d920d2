package definitions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CompileSchema parses and compiles raw schema content. Compilation validates
// the document against the JSON Schema meta-schema, so a successful result
// means the schema is deployable.
func CompileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return schema, nil
}

// schemaName resolves the definition name for a deploy command: the explicit
// command name when present, otherwise the base of the schema's $id with
// schema file suffixes stripped ("person.schema.json" resolves to "person").
func schemaName(cmd DeployCommand) (string, error) {
	name := cmd.Name
	if name == "" {
		name = idName(cmd.Schema)
	}

	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

func idName(raw json.RawMessage) string {
	var envelope struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.ID == "" {
		return ""
	}

	name := path.Base(envelope.ID)
	name = strings.TrimSuffix(name, ".json")
	name = strings.TrimSuffix(name, ".schema")
	return name
}
