// Package registry accumulates type, directive, middleware and field
// registrations in a persistent, immutable Builder.
//
// Every registration returns a new Builder and leaves the receiver untouched,
// so a Builder can be shared and extended from several places. Categories
// that a registration does not touch are shared between the old and the new
// Builder.
package registry

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/nrf110/effect-graphql/internal/shape"
)

// RegistrationError is the panic value of an invalid registration.
type RegistrationError struct {
	Category string
	Name     string
	Reason   string
}

func (e *RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("registry: cannot register %s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("registry: cannot register %s %q: %s", e.Category, e.Name, e.Reason)
}

// list is a persistent singly linked list, newest first.
type list[T any] struct {
	head T
	tail *list[T]
	size int
}

func (l *list[T]) push(v T) *list[T] {
	return &list[T]{head: v, tail: l, size: l.len() + 1}
}

func (l *list[T]) len() int {
	if l == nil {
		return 0
	}
	return l.size
}

func (l *list[T]) any(pred func(T) bool) bool {
	for n := l; n != nil; n = n.tail {
		if pred(n.head) {
			return true
		}
	}
	return false
}

// items returns the elements in insertion order.
func (l *list[T]) items() []T {
	out := make([]T, 0, l.len())
	for n := l; n != nil; n = n.tail {
		out = append(out, n.head)
	}
	return lo.Reverse(out)
}

// Builder is an immutable set of registrations.
type Builder struct {
	objects       *list[ObjectType]
	interfaces    *list[InterfaceType]
	enums         *list[EnumType]
	unions        *list[UnionType]
	inputs        *list[InputType]
	directives    *list[Directive]
	middleware    *list[Middleware]
	queries       *list[Field]
	mutations     *list[Field]
	subscriptions *list[Subscription]
	objectFields  *list[ObjectField]
}

// New returns an empty Builder.
func New() *Builder { return &Builder{} }

func (b *Builder) clone() *Builder {
	c := *b
	return &c
}

func deriveName(category, name string, node shape.Node) string {
	if name != "" {
		return name
	}
	if id := shape.IdentifierOf(node); id != "" {
		return id
	}
	panic(&RegistrationError{Category: category, Reason: "no name given and the schema has no identifier"})
}

func requireName(category, name string) {
	if name == "" {
		panic(&RegistrationError{Category: category, Reason: "name is required"})
	}
}

func duplicate(category, name string) {
	panic(&RegistrationError{Category: category, Name: name, Reason: "name already registered"})
}

func (b *Builder) ObjectType(t ObjectType) *Builder {
	t.Name = deriveName("object type", t.Name, t.Schema)
	if b.objects.any(func(o ObjectType) bool { return o.Name == t.Name }) {
		duplicate("object type", t.Name)
	}
	c := b.clone()
	c.objects = b.objects.push(t)
	return c
}

func (b *Builder) InterfaceType(t InterfaceType) *Builder {
	t.Name = deriveName("interface type", t.Name, t.Schema)
	if b.interfaces.any(func(o InterfaceType) bool { return o.Name == t.Name }) {
		duplicate("interface type", t.Name)
	}
	c := b.clone()
	c.interfaces = b.interfaces.push(t)
	return c
}

func (b *Builder) EnumType(t EnumType) *Builder {
	t.Name = deriveName("enum type", t.Name, t.Schema)
	if len(t.Values) == 0 {
		t.Values = literalValues(t.Schema)
	}
	if len(t.Values) == 0 {
		panic(&RegistrationError{Category: "enum type", Name: t.Name, Reason: "no values"})
	}
	t.Values = lo.Uniq(t.Values)
	if b.enums.any(func(o EnumType) bool { return o.Name == t.Name }) {
		duplicate("enum type", t.Name)
	}
	c := b.clone()
	c.enums = b.enums.push(t)
	return c
}

func (b *Builder) UnionType(t UnionType) *Builder {
	t.Name = deriveName("union type", t.Name, t.Schema)
	if len(t.Members) == 0 {
		panic(&RegistrationError{Category: "union type", Name: t.Name, Reason: "no members"})
	}
	if b.unions.any(func(o UnionType) bool { return o.Name == t.Name }) {
		duplicate("union type", t.Name)
	}
	c := b.clone()
	c.unions = b.unions.push(t)
	return c
}

func (b *Builder) InputType(t InputType) *Builder {
	t.Name = deriveName("input type", t.Name, t.Schema)
	if b.inputs.any(func(o InputType) bool { return o.Name == t.Name }) {
		duplicate("input type", t.Name)
	}
	c := b.clone()
	c.inputs = b.inputs.push(t)
	return c
}

func (b *Builder) Directive(d Directive) *Builder {
	requireName("directive", d.Name)
	if b.directives.any(func(o Directive) bool { return o.Name == d.Name }) {
		duplicate("directive", d.Name)
	}
	c := b.clone()
	c.directives = b.directives.push(d)
	return c
}

// Middleware appends global middleware. The first registered middleware is
// the outermost.
func (b *Builder) Middleware(m Middleware) *Builder {
	requireName("middleware", m.Name)
	c := b.clone()
	c.middleware = b.middleware.push(m)
	return c
}

func (b *Builder) Query(f Field) *Builder {
	requireName("query field", f.Name)
	if b.queries.any(func(o Field) bool { return o.Name == f.Name }) {
		duplicate("query field", f.Name)
	}
	c := b.clone()
	c.queries = b.queries.push(f)
	return c
}

func (b *Builder) Mutation(f Field) *Builder {
	requireName("mutation field", f.Name)
	if b.mutations.any(func(o Field) bool { return o.Name == f.Name }) {
		duplicate("mutation field", f.Name)
	}
	c := b.clone()
	c.mutations = b.mutations.push(f)
	return c
}

func (b *Builder) Subscription(s Subscription) *Builder {
	requireName("subscription field", s.Name)
	if s.Subscribe == nil {
		panic(&RegistrationError{Category: "subscription field", Name: s.Name, Reason: "subscribe is required"})
	}
	if b.subscriptions.any(func(o Subscription) bool { return o.Name == s.Name }) {
		duplicate("subscription field", s.Name)
	}
	c := b.clone()
	c.subscriptions = b.subscriptions.push(s)
	return c
}

func (b *Builder) ObjectField(f ObjectField) *Builder {
	requireName("object field", f.Type)
	requireName("object field", f.Field.Name)
	if b.objectFields.any(func(o ObjectField) bool { return o.Type == f.Type && o.Field.Name == f.Field.Name }) {
		duplicate("object field", f.Type+"."+f.Field.Name)
	}
	c := b.clone()
	c.objectFields = b.objectFields.push(f)
	return c
}

// Snapshot freezes the registrations into ordered slices.
func (b *Builder) Snapshot() *Snapshot {
	return &Snapshot{
		Objects:       b.objects.items(),
		Interfaces:    b.interfaces.items(),
		Enums:         b.enums.items(),
		Unions:        b.unions.items(),
		Inputs:        b.inputs.items(),
		Directives:    b.directives.items(),
		Middleware:    b.middleware.items(),
		Queries:       b.queries.items(),
		Mutations:     b.mutations.items(),
		Subscriptions: b.subscriptions.items(),
		ObjectFields:  b.objectFields.items(),
	}
}

func literalValues(n shape.Node) []string {
	u, ok := n.(*shape.Union)
	if !ok {
		return nil
	}
	var values []string
	for _, m := range u.Members {
		lit, ok := m.(*shape.Literal)
		if !ok {
			return nil
		}
		s, ok := lit.Value.(string)
		if !ok {
			return nil
		}
		values = append(values, s)
	}
	return values
}
