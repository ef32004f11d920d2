// Package definitions registers and versions immutable JSON Schema document
// definitions. A definition is identified by (name, version); deployed schema
// content never changes, a new version is created instead.
package definitions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Definition is one immutable version of a named document schema.
type Definition struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Version   int64           `json:"version"`
	Schema    json.RawMessage `json:"schema"`
	ReadOnly  bool            `json:"read_only"`
	CreatedOn time.Time       `json:"created_on"`
}

// DeployCommand contains the data required to deploy a definition.
// Name may be empty, in which case it is derived from the schema's $id.
type DeployCommand struct {
	Name     string          `json:"name"`
	Schema   json.RawMessage `json:"schema"`
	ReadOnly bool            `json:"read_only"`
	Force    bool            `json:"force"`
}

// DeployStatus reports whether a deployment created a new version.
type DeployStatus string

// Deployment outcomes.
const (
	StatusCreated  DeployStatus = "created"
	StatusExisting DeployStatus = "existing"
)

// DeployResult is the outcome of a single deployment.
type DeployResult struct {
	Definition *Definition  `json:"definition"`
	Status     DeployStatus `json:"status"`
}

// DeployFailure records one failed unit of a batch deployment.
type DeployFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// DeployReport collects the outcomes of a batch deployment. A failed unit
// never aborts the batch.
type DeployReport struct {
	Deployed []DeployResult  `json:"deployed"`
	Failed   []DeployFailure `json:"failed"`
}
