package executor

import (
	"context"

	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// Runtime resolves fields for the Executor. Errors become located errors at
// the field's path. Methods may be called concurrently for different
// operations.
type Runtime interface {
	// ResolveSync resolves a property field of source.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves the resolver fields of one depth. It is
	// only called with at least one task and must return one result per
	// task, in task order. A failing task does not fail the others.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or
	// union. The name must be one of abstractType's possible types.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue converts a scalar or enum value to its JSON-safe
	// form. A nil result completes as null.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)

	// SubscribeField opens the event stream of a subscription root field.
	// The caller closes the stream.
	SubscribeField(ctx context.Context, objectType string, field string, args map[string]any) (schema.EventStream, error)
}

// AsyncResolveTask is one resolver field of a batch. Source is the parent
// value, or the root value for root fields.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

type AsyncResolveResult struct {
	Value any
	Error error
}
