// Package executor runs GraphQL operations over a compiled schema.
//
// The compiler gives every field a handler. The pipeline package builds it
// from the registered resolver, the field's directive transformers and the
// global middleware. A handler sees its field through a pipeline.Info: the
// parent type and field name, the parent value and the coerced arguments.
// The executor never calls handlers directly. It asks a Runtime. For a
// compiled schema that is fieldrt, wrapped by the introspection package
// when introspection is enabled.
//
// # Property fields and resolver fields
//
// A field derived from a struct shape reads one property of its parent
// value. It is sync (schema.Field.Async is false) and runs through
// Runtime.ResolveSync while its parent is completed. Registered fields
// carry a resolver and are async, root fields included. They are queued
// and run through Runtime.BatchResolveAsync in one call per depth, so an
// operation whose resolver fields nest d deep makes exactly d batch calls.
//
// # Completion
//
// Lists accept any Go slice. Leaves go through Runtime.SerializeLeafValue.
// A handler whose return shape is optional already turns an Option into its
// value or nil, and the leaf serializer unwraps any Option that still
// reaches a leaf, so None always completes as null. Interfaces and unions
// go through Runtime.ResolveType.
//
// A null or failed non-null field nulls its nearest nullable ancestor and
// records a located error. When no ancestor below the root is nullable the
// root field itself becomes null. Queued fields below a nulled path are
// dropped before their batch runs.
//
// # Subscriptions
//
// Subscribe opens the event stream of the single root field. Each
// ResultStream.Next executes the operation with the event as root value.
//
// Documents must already be validated against the schema, as
// language.LoadQuery does. Unknown fields and arguments are not reported
// here.
package executor
