// Package fieldrt implements executor.Runtime over a compiled schema whose
// fields carry their own composed handlers.
package fieldrt

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/nrf110/effect-graphql/internal/executor"
	"github.com/nrf110/effect-graphql/internal/option"
	"github.com/nrf110/effect-graphql/internal/pipeline"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
)

// Runtime resolves fields by calling the handlers attached to the schema.
// Invariants and boundaries:
//   - Schema trust: the executor only asks for fields of the schema it runs
//     against. A missing type, field or handler is a programming error and
//     panics.
//   - Concurrency: BatchResolveAsync runs every task of a depth concurrently,
//     bounded by WithConcurrency. Handlers must be safe for concurrent use.
//   - Determinism: results preserve input ordering; partial success is
//     supported.
type Runtime struct {
	schema *schema.Schema
	limit  int
}

var _ executor.Runtime = (*Runtime)(nil)

type Option func(*Runtime)

// WithConcurrency bounds the number of handlers running at once within one
// batch. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(r *Runtime) { r.limit = n }
}

func New(s *schema.Schema, opts ...Option) *Runtime {
	r := &Runtime{schema: s}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runtime) field(objectType, field string) *schema.Field {
	t := r.schema.Types[objectType]
	if t == nil {
		panic(fmt.Sprintf("fieldrt: unknown type %s", objectType))
	}
	f := t.Field(field)
	if f == nil {
		panic(fmt.Sprintf("fieldrt: unknown field %s.%s", objectType, field))
	}
	return f
}

func (r *Runtime) handler(objectType, field string) schema.ResolveFunc {
	f := r.field(objectType, field)
	if f.Resolve == nil {
		panic(fmt.Sprintf("fieldrt: no handler for %s.%s", objectType, field))
	}
	return f.Resolve
}

// ResolveSync runs the handler of a struct-derived field.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	return r.handler(objectType, field)(ctx, source, args)
}

// BatchResolveAsync runs the handlers of one depth. Handlers are looked up
// once per (objectType, field) group; results are written into
// pre-determined slots.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type groupKey struct {
		objectType string
		field      string
	}
	handlers := make(map[groupKey]schema.ResolveFunc)
	for _, t := range tasks {
		k := groupKey{objectType: t.ObjectType, field: t.Field}
		if _, ok := handlers[k]; !ok {
			handlers[k] = r.handler(t.ObjectType, t.Field)
		}
	}

	if len(tasks) == 1 {
		t := tasks[0]
		v, err := handlers[groupKey{t.ObjectType, t.Field}](ctx, t.Source, t.Args)
		results[0] = executor.AsyncResolveResult{Value: v, Error: err}
		return results
	}

	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}
	for i, t := range tasks {
		resolve := handlers[groupKey{t.ObjectType, t.Field}]
		g.Go(func() error {
			v, err := resolve(ctx, t.Source, t.Args)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ResolveType uses the abstract type's variant function when one was
// registered. Otherwise the value's `_tag` property names the concrete type.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	t := r.schema.Types[abstractType]
	if t == nil {
		return "", fmt.Errorf("ResolveType: unknown type %s", abstractType)
	}

	var name string
	if t.ResolveVariant != nil {
		n, err := t.ResolveVariant(value)
		if err != nil {
			return "", err
		}
		name = n
	} else {
		tag, err := pipeline.PropertyResolver(shape.TagKey)(ctx, pipeline.Info{Parent: value})
		if err != nil {
			return "", fmt.Errorf("ResolveType: cannot infer concrete type of %s from %T: %w", abstractType, value, err)
		}
		s, ok := tag.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("ResolveType: cannot infer concrete type of %s from %T", abstractType, value)
		}
		name = s
	}

	for _, possible := range t.PossibleTypes {
		if possible == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("ResolveType: %s is not a possible type of %s", name, abstractType)
}

// SerializeLeafValue coerces scalars to their JSON-safe Go form and checks
// enum values against the declared values.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	value = option.Encode(value)
	if value == nil {
		return nil, nil
	}

	t := r.schema.Types[scalarOrEnumTypeName]
	if t != nil && t.Kind == schema.TypeKindEnum {
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("enum %s: %w", t.Name, err)
		}
		if !t.HasEnumValue(s) {
			return nil, fmt.Errorf("enum %s has no value %q", t.Name, s)
		}
		return s, nil
	}

	switch scalarOrEnumTypeName {
	case schema.String.Name, schema.ID.Name:
		if b, ok := value.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
		return cast.ToStringE(value)
	case schema.Int.Name:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return nil, err
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent value %d", n)
		}
		return int32(n), nil
	case schema.Float.Name:
		return cast.ToFloat64E(value)
	case schema.Boolean.Name:
		return cast.ToBoolE(value)
	}
	return value, nil
}

// SubscribeField opens the event stream of a subscription root field.
func (r *Runtime) SubscribeField(ctx context.Context, objectType string, field string, args map[string]any) (schema.EventStream, error) {
	f := r.field(objectType, field)
	if f.Subscribe == nil {
		return nil, fmt.Errorf("%s.%s is not a subscription field", objectType, field)
	}
	return f.Subscribe(ctx, args)
}
