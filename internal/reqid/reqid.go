// Package reqid tags a context with the identifier of the GraphQL request
// it serves, so that events published during the request can be correlated.
package reqid

import (
	"context"
	"math/rand/v2"

	"go.uber.org/atomic"
)

type key struct{}

// ids starts at a random offset so identifiers from separate processes
// rarely collide.
var ids = atomic.NewInt64(rand.Int64N(1 << 40))

// NewContext returns a copy of parent carrying a fresh request ID, and the ID.
// If parent already carries one it is returned unchanged.
func NewContext(parent context.Context) (context.Context, int64) {
	if id, ok := FromContext(parent); ok {
		return parent, id
	}
	id := ids.Inc()
	return context.WithValue(parent, key{}, id), id
}

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id int64) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
