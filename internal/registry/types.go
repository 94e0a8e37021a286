package registry

import (
	"context"

	"github.com/nrf110/effect-graphql/internal/pipeline"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
	"github.com/nrf110/effect-graphql/internal/stream"
)

// ObjectType registers an output object type. Name defaults to the
// identifier annotation of Schema.
type ObjectType struct {
	Name        string
	Schema      shape.Node
	Interfaces  []string
	Directives  []pipeline.Application
	Description string
}

// InterfaceType registers an interface. Its fields come from Schema.
type InterfaceType struct {
	Name           string
	Schema         shape.Node
	ResolveVariant schema.VariantFunc
	Description    string
}

// EnumType registers an enum. Values may be omitted when Schema is a union
// of string literals; they are then taken from the literals in order.
type EnumType struct {
	Name        string
	Values      []string
	Schema      shape.Node
	Description string
}

// UnionType registers a union of registered object types. Schema, when set,
// is the union shape the registration stands for.
type UnionType struct {
	Name           string
	Members        []string
	Schema         shape.Node
	ResolveVariant schema.VariantFunc
	Description    string
}

// InputType registers an input object type.
type InputType struct {
	Name        string
	Schema      shape.Node
	Description string
}

// Directive registers a directive. Args is a struct shape; Apply may be nil
// for directives that only annotate the schema.
type Directive struct {
	Name        string
	Description string
	Locations   []string
	Args        shape.Node
	Apply       pipeline.DirectiveFunc
}

// Middleware is a global field transformer.
type Middleware = pipeline.Middleware

// Field registers a query or mutation root field, or (through ObjectField)
// a resolver-backed field on an object type.
type Field struct {
	Name              string
	Description       string
	Args              shape.Node
	Returns           shape.Node
	Directives        []pipeline.Application
	Resolve           pipeline.Resolver
	DeprecationReason string
}

// ObjectField adds a resolver-backed field to the object type named Type.
// The resolver receives the parent value in Info.Parent.
type ObjectField struct {
	Type  string
	Field Field
}

// SubscribeFunc opens the live sequence of a subscription field.
type SubscribeFunc func(ctx context.Context, info pipeline.Info) (stream.Source, error)

// Subscription registers a subscription root field. Resolve is optional and
// maps each event to the field value.
type Subscription struct {
	Name        string
	Description string
	Args        shape.Node
	Returns     shape.Node
	Directives  []pipeline.Application
	Subscribe   SubscribeFunc
	Resolve     pipeline.Resolver
}
