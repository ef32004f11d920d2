// Package authorization defines the access-control port consumed by the
// document core. The core asks for a verdict before mutating operations and
// obeys it; it never inspects why access was denied.
package authorization

import (
	"context"
	"errors"
)

// ErrDenied is returned when the oracle rejects an operation.
var ErrDenied = errors.New("access denied")

// Action identifies the operation being authorized.
type Action string

// Actions checked by the document core.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionAssign Action = "assign"
	ActionDeploy Action = "deploy"
	ActionRemove Action = "remove"
)

// Resource identifies the entity an action targets.
type Resource struct {
	Kind string
	ID   string
}

// DocumentResource builds a resource reference for a document instance.
func DocumentResource(id string) Resource {
	return Resource{Kind: "document", ID: id}
}

// DefinitionResource builds a resource reference for a document definition name.
func DefinitionResource(name string) Resource {
	return Resource{Kind: "definition", ID: name}
}

// Oracle decides whether a principal may perform an action on a resource.
// Implementations return nil to allow and ErrDenied (possibly wrapped) to deny.
type Oracle interface {
	Check(ctx context.Context, principal string, action Action, resource Resource) error
}

// AllowAll permits every operation. It is the default oracle when no policy
// engine is wired in.
type AllowAll struct{}

func (AllowAll) Check(ctx context.Context, principal string, action Action, resource Resource) error {
	return nil
}

// DenyAll rejects every operation.
type DenyAll struct{}

func (DenyAll) Check(ctx context.Context, principal string, action Action, resource Resource) error {
	return ErrDenied
}
