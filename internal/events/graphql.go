// Package events defines the lifecycle events the engine publishes on its
// event bus.
package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation. For a
// subscription it is emitted when the subscription is rejected, ends or is
// closed, and Duration covers its whole lifetime.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// SubscriptionEvent is emitted for every source event a subscription
// executes.
type SubscriptionEvent struct {
	OperationName string
	Field         string
	Errors        []error
	Duration      time.Duration
}

// SchemaCompiled is emitted after a schema has been compiled.
type SchemaCompiled struct {
	Types        int
	Degradations int
	Duration     time.Duration
}
