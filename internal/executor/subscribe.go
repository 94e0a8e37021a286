package executor

import (
	"context"
	"sync"

	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// ResultStream is the response stream of a subscription operation. Each call
// to Next pulls one source event and executes the operation against it.
// At most one goroutine may call Next at a time.
type ResultStream struct {
	exec      *Executor
	document  *language.QueryDocument
	rootType  *schema.Type
	operation *language.OperationDefinition
	variables map[string]any
	events    schema.EventStream

	closeOnce sync.Once
	closeErr  error
}

// Subscribe opens the source event stream of a subscription operation.
// Request errors, including a failure to open the stream, are returned as
// an ExecutionResult and the stream is nil.
func (e *Executor) Subscribe(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
) (*ResultStream, *ExecutionResult) {
	operation, rootType, variables, errResult := e.prepare(document, operationName, variableValues)
	if errResult != nil {
		return nil, errResult
	}
	if operation.Operation != language.Subscription {
		return nil, requestError("operation is a %s, not a subscription", operation.Operation)
	}

	x := &execution{ctx: ctx, runtime: e.runtime, schema: e.schema, document: document, variables: variables}
	groups := x.collectFields(rootType, operation.SelectionSet)
	if len(groups) != 1 {
		return nil, requestError("subscription must select exactly one top level field")
	}
	field := groups[0].fields[0]
	path := Path{groups[0].name}

	args := x.arguments(rootType.Field(field.Name), field.Arguments, path)
	if len(x.errors) > 0 {
		return nil, &ExecutionResult{Errors: x.errors}
	}
	events, err := e.runtime.SubscribeField(ctx, rootType.Name, field.Name, args)
	if err != nil {
		return nil, &ExecutionResult{Errors: []GraphQLError{{Message: err.Error(), Path: path}}}
	}
	return &ResultStream{
		exec:      e,
		document:  document,
		rootType:  rootType,
		operation: operation,
		variables: variables,
		events:    events,
	}, nil
}

// Next blocks for the next source event and returns its execution result.
// ok is false once the source is exhausted. A source failure is returned as
// err and ends the stream.
func (s *ResultStream) Next(ctx context.Context) (result *ExecutionResult, ok bool, err error) {
	event, ok, err := s.events.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return s.exec.execute(ctx, s.document, s.rootType, s.operation.SelectionSet, s.variables, event), true, nil
}

// Close stops the source stream. It is safe to call more than once.
func (s *ResultStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.events.Close()
	})
	return s.closeErr
}
