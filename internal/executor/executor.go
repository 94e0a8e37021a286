package executor

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/samber/lo"

	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// Executor runs documents that were validated against its schema. It is
// safe for concurrent use as long as its Runtime is.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// ExecuteRequest runs a query or mutation. initialValue is the source of the
// root fields.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation, rootType, variables, errResult := e.prepare(document, operationName, variableValues)
	if errResult != nil {
		return errResult
	}
	return e.execute(ctx, document, rootType, operation.SelectionSet, variables, initialValue)
}

// prepare selects the operation, coerces its variables and finds its root
// type. A non-nil result reports a request error.
func (e *Executor) prepare(
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (*language.OperationDefinition, *schema.Type, map[string]any, *ExecutionResult) {
	operation := selectOperation(document, operationName)
	if operation == nil {
		return nil, nil, nil, requestError("operation not found")
	}
	variables, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return nil, nil, nil, requestError("%s", err)
	}
	var rootType *schema.Type
	switch operation.Operation {
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		rootType = e.schema.GetQueryType()
	}
	if rootType == nil {
		return nil, nil, nil, requestError("schema has no %s type", operation.Operation)
	}
	return operation, rootType, variables, nil
}

// selectOperation picks the named operation, or the only one when name is
// empty.
func selectOperation(document *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(name)
}

// execution is one run of a selection set: the response being filled, the
// resolver fields waiting for the next batch and the errors so far.
type execution struct {
	ctx       context.Context
	runtime   Runtime
	schema    *schema.Schema
	document  *language.QueryDocument
	variables map[string]any

	data   map[string]any
	queue  []queued
	errors []GraphQLError
	// nulled holds the response paths already set to null. Queued fields
	// below them are dropped.
	nulled map[string]struct{}
}

// queued is a resolver field waiting for its depth's batch.
type queued struct {
	task   AsyncResolveTask
	path   Path
	typ    *schema.TypeRef
	fields []*language.Field
	// owner is the nearest nullable position above path, or nil when every
	// ancestor up to the root field is non-null.
	owner Path
}

// pending fills a response slot until its batch completes.
type pending struct{}

func (e *Executor) execute(
	ctx context.Context,
	document *language.QueryDocument,
	rootType *schema.Type,
	selectionSet language.SelectionSet,
	variables map[string]any,
	rootValue any,
) *ExecutionResult {
	x := &execution{
		ctx:       ctx,
		runtime:   e.runtime,
		schema:    e.schema,
		document:  document,
		variables: variables,
		errors:    []GraphQLError{},
		nulled:    make(map[string]struct{}),
	}
	x.data = x.selectionSet(rootType, selectionSet, rootValue, nil, nil)
	for len(x.queue) > 0 {
		x.flush()
	}
	return &ExecutionResult{Data: x.data, Errors: x.errors}
}

// selectionSet completes the selected fields of one object value. Resolver
// fields are queued and left pending. A null non-null field nulls the
// object, except at the root where only that field becomes null.
func (x *execution) selectionSet(t *schema.Type, selectionSet language.SelectionSet, source any, path, owner Path) map[string]any {
	out := make(map[string]any)
	for _, group := range x.collectFields(t, selectionSet) {
		if group.fields[0].Name == "__typename" {
			out[group.name] = t.Name
			continue
		}
		def := t.Field(group.fields[0].Name)
		v := x.field(t, def, group.fields, source, path.With(group.name), owner)
		if isNullish(v) {
			if schema.IsNonNull(def.Type) && len(path) > 0 {
				x.markNulled(path)
				return nil
			}
			v = nil
		}
		out[group.name] = v
	}
	return out
}

func (x *execution) field(parent *schema.Type, def *schema.Field, fields []*language.Field, source any, path, owner Path) any {
	args := x.arguments(def, fields[0].Arguments, path)
	if def.Async {
		x.queue = append(x.queue, queued{
			task:   AsyncResolveTask{ObjectType: parent.Name, Field: def.Name, Source: source, Args: args},
			path:   path,
			typ:    def.Type,
			fields: fields,
			owner:  owner,
		})
		return pending{}
	}
	v, err := x.runtime.ResolveSync(x.ctx, parent.Name, def.Name, source, args)
	if err != nil {
		x.addError(err.Error(), path)
		return nil
	}
	return x.completeValue(def.Type, fields, v, path, owner)
}

// flush resolves every live queued field in one batch and completes the
// results. Completion queues the next depth.
func (x *execution) flush() {
	live := lo.Reject(x.queue, func(q queued, _ int) bool { return x.isNulled(q.path) })
	x.queue = nil
	if len(live) == 0 {
		return
	}
	results := x.runtime.BatchResolveAsync(x.ctx, lo.Map(live, func(q queued, _ int) AsyncResolveTask { return q.task }))
	for i, q := range live {
		x.settle(q, results[i])
	}
}

func (x *execution) settle(q queued, res AsyncResolveResult) {
	if x.isNulled(q.path) {
		return
	}
	var v any
	if res.Error != nil {
		x.addError(res.Error.Error(), q.path)
	} else {
		v = x.completeValue(q.typ, q.fields, res.Value, q.path, q.owner)
	}
	if !isNullish(v) {
		setAt(x.data, q.path, v)
		return
	}
	if !schema.IsNonNull(q.typ) {
		setAt(x.data, q.path, nil)
		return
	}
	target := q.owner
	if len(target) == 0 {
		target = q.path[:1]
	}
	setAt(x.data, target, nil)
	x.markNulled(target)
}

// completeValue turns a resolved value into its response form. owner is the
// nearest nullable position above path.
func (x *execution) completeValue(t *schema.TypeRef, fields []*language.Field, v any, path, owner Path) any {
	if !schema.IsNonNull(t) {
		if isNullish(v) {
			return nil
		}
		return x.completeNullable(t, fields, v, path, path)
	}
	if isNullish(v) {
		if !x.hasErrorAt(path) {
			x.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
		}
		return nil
	}
	return x.completeNullable(schema.Unwrap(t), fields, v, path, owner)
}

func (x *execution) completeNullable(t *schema.TypeRef, fields []*language.Field, v any, path, owner Path) any {
	if schema.IsList(t) {
		return x.completeList(schema.Unwrap(t), fields, v, path, owner)
	}
	name := schema.GetNamedType(t)
	def := x.schema.Types[name]
	switch def.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := x.runtime.SerializeLeafValue(x.ctx, name, v)
		if err != nil {
			x.addError(err.Error(), path)
			return nil
		}
		return out
	case schema.TypeKindInterface, schema.TypeKindUnion:
		concrete, err := x.runtime.ResolveType(x.ctx, name, v)
		if err != nil {
			x.addError(err.Error(), path)
			return nil
		}
		def = x.schema.Types[concrete]
	}
	var sub language.SelectionSet
	for _, f := range fields {
		sub = append(sub, f.SelectionSet...)
	}
	obj := x.selectionSet(def, sub, v, path, owner)
	if obj == nil {
		return nil
	}
	return obj
}

func (x *execution) completeList(item *schema.TypeRef, fields []*language.Field, v any, path, owner Path) any {
	items, ok := listItems(v)
	if !ok {
		x.addError(fmt.Sprintf("Expected list value, got %T", v), path)
		return nil
	}
	out := make([]any, len(items))
	for i, it := range items {
		c := x.completeValue(item, fields, it, path.With(i), owner)
		if isNullish(c) && schema.IsNonNull(item) {
			x.markNulled(path)
			return nil
		}
		out[i] = c
	}
	return out
}

func listItems(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func (x *execution) addError(message string, path Path) {
	x.errors = append(x.errors, GraphQLError{Message: message, Path: path})
}

func (x *execution) hasErrorAt(path Path) bool {
	return slices.ContainsFunc(x.errors, func(e GraphQLError) bool { return slices.Equal(e.Path, path) })
}

func (x *execution) markNulled(path Path) {
	x.nulled[path.String()] = struct{}{}
}

// isNulled reports whether path or one of its ancestors was nulled.
func (x *execution) isNulled(path Path) bool {
	if len(x.nulled) == 0 {
		return false
	}
	for i := 1; i <= len(path); i++ {
		if _, ok := x.nulled[path[:i].String()]; ok {
			return true
		}
	}
	return false
}

// setAt writes v at path. A path running through a null value is left
// alone: it was pruned after the write was scheduled.
func setAt(root map[string]any, path Path, v any) {
	var cur any = root
	last := len(path) - 1
	for i, elem := range path {
		switch e := elem.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return
			}
			if i == last {
				m[e] = v
				return
			}
			cur = m[e]
		case int:
			s, ok := cur.([]any)
			if !ok || e >= len(s) {
				return
			}
			if i == last {
				s[e] = v
				return
			}
			cur = s[e]
		}
	}
}

// isNullish reports nil, including typed nil pointers, maps and slices.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
