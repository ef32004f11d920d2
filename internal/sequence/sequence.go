// Package sequence issues per-definition-name document sequence numbers.
// Values for a name are strictly increasing, gap-free, and delivered to
// exactly one caller each, starting at 1.
package sequence

import (
	"context"
	"errors"
)

// ErrExhausted indicates a counter reached its maximum representable value.
var ErrExhausted = errors.New("sequence exhausted")

// Generator issues the next sequence number for a definition name.
// Concurrent callers for the same name serialize; different names never
// block each other.
type Generator interface {
	Next(ctx context.Context, definitionName string) (int64, error)
}
