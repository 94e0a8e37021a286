package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

type resolver func(ctx context.Context, source any, args map[string]any) (any, error)

func value(v any) resolver {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

func failing(err error) resolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

// prop reads key from a map[string]any parent.
func prop(key string) resolver {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		m, _ := source.(map[string]any)
		return m[key], nil
	}
}

// call records one resolution. Batch is 0 for sync fields and numbers the
// BatchResolveAsync calls from 1 otherwise.
type call struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
	Batch      int
}

// testRuntime resolves fields from a table keyed "Type.field" and records
// every call. Abstract values name their type in "__typename"; leaves pass
// through unchanged.
type testRuntime struct {
	mu        sync.Mutex
	resolvers map[string]resolver
	streams   map[string]func(args map[string]any) (schema.EventStream, error)
	log       []call
	batches   int
}

var _ Runtime = (*testRuntime)(nil)

func newTestRuntime(resolvers map[string]resolver) *testRuntime {
	rt := &testRuntime{
		resolvers: make(map[string]resolver),
		streams:   make(map[string]func(args map[string]any) (schema.EventStream, error)),
	}
	for k, r := range resolvers {
		rt.resolvers[k] = r
	}
	return rt
}

func (rt *testRuntime) set(key string, r resolver) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.resolvers[key] = r
}

func (rt *testRuntime) stream(key string, open func(args map[string]any) (schema.EventStream, error)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.streams[key] = open
}

func (rt *testRuntime) calls() []call {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]call(nil), rt.log...)
}

func (rt *testRuntime) resolve(ctx context.Context, batch int, objectType, field string, source any, args map[string]any) (any, error) {
	rt.mu.Lock()
	r := rt.resolvers[objectType+"."+field]
	rt.log = append(rt.log, call{ObjectType: objectType, Field: field, Source: source, Args: args, Batch: batch})
	rt.mu.Unlock()
	if r == nil {
		return nil, nil
	}
	return r(ctx, source, args)
}

func (rt *testRuntime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return rt.resolve(ctx, 0, objectType, field, source, args)
}

func (rt *testRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	rt.mu.Lock()
	rt.batches++
	batch := rt.batches
	rt.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := rt.resolve(ctx, batch, t.ObjectType, t.Field, t.Source, t.Args)
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (rt *testRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %s", abstractType)
}

func (rt *testRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (rt *testRuntime) SubscribeField(_ context.Context, objectType, field string, args map[string]any) (schema.EventStream, error) {
	rt.mu.Lock()
	open := rt.streams[objectType+"."+field]
	rt.mu.Unlock()
	if open == nil {
		return nil, fmt.Errorf("no stream for %s.%s", objectType, field)
	}
	return open(args)
}

func newSchema(query *schema.Type, more ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("").AddBuiltins().SetQueryType(query.Name).AddType(query)
	for _, t := range more {
		sch.AddType(t)
	}
	return sch
}

func object(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

// propertyField is a sync field; resolverField is async.
func propertyField(name string, typ *schema.TypeRef) *schema.Field {
	return schema.NewField(name, "", typ)
}

func resolverField(name string, typ *schema.TypeRef) *schema.Field {
	return schema.NewField(name, "", typ).SetAsync(true)
}

func parse(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(strings.TrimSpace(q))
	require.NoError(t, err)
	return doc
}
