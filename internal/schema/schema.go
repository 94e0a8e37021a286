package schema

import (
	"context"
	"sync"
)

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input).
//
// Fields and input fields may be supplied as thunks. A thunk runs at most once,
// on the first call to Fields or InputFields, which is what lets a type refer
// to itself (directly or through other types) without forward declarations.
// A thunk must not call Fields or InputFields on the type that owns it.
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Interfaces     []string     // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string     // For INTERFACE and UNION
	EnumValues     []*EnumValue // For ENUM
	Directives     []*AppliedDirective
	SpecifiedByURL *string

	// ResolveVariant picks the concrete object type name of a value of this
	// INTERFACE or UNION type. Nil means the runtime's default convention.
	ResolveVariant VariantFunc

	fields      lazy[*Field]      // For OBJECT and INTERFACE
	inputFields lazy[*InputValue] // For INPUT_OBJECT
	ref         *TypeRef
}

// Fields returns the fields of an object or interface, materializing them on
// first access.
func (t *Type) Fields() []*Field { return t.fields.get() }

// InputFields returns the fields of an input object, materializing them on
// first access.
func (t *Type) InputFields() []*InputValue { return t.inputFields.get() }

// Field returns the field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// SetFieldsThunk installs the deferred field constructor.
func (t *Type) SetFieldsThunk(fn func() []*Field) *Type {
	t.fields.setThunk(fn)
	return t
}

// SetInputFieldsThunk installs the deferred input field constructor.
func (t *Type) SetInputFieldsThunk(fn func() []*InputValue) *Type {
	t.inputFields.setThunk(fn)
	return t
}

// Ref returns the canonical named reference to t. Every call returns the same
// pointer.
func (t *Type) Ref() *TypeRef {
	if t.ref == nil {
		t.ref = &TypeRef{Kind: TypeRefKindNamed, Named: t.Name, Def: t}
	}
	return t.ref
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue // formerly ArgumentDefinitionMap
	Async             bool
	IsDeprecated      bool
	DeprecationReason string
	Directives        []*AppliedDirective

	// Resolve produces the field value from its parent value and coerced
	// arguments. For subscription fields it maps each event to the field value.
	Resolve ResolveFunc
	// Subscribe is set on subscription root fields only.
	Subscribe SubscribeFunc
}

// ResolveFunc resolves one field of one parent value.
type ResolveFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// SubscribeFunc opens the event stream of a subscription field.
type SubscribeFunc func(ctx context.Context, args map[string]any) (EventStream, error)

// VariantFunc maps a value of an abstract type to a concrete type name.
type VariantFunc func(value any) (string, error)

// EventStream is a pull-based, cancellable sequence of subscription events.
type EventStream interface {
	// Next blocks until an event is available. ok is false once the stream
	// is exhausted.
	Next(ctx context.Context) (value any, ok bool, err error)
	Close() error
}

// AppliedDirective is a directive attached to a type or field definition.
type AppliedDirective struct {
	Name string
	Args map[string]any
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// IsInput reports whether values of this kind may appear in input positions.
func (k TypeKind) IsInput() bool {
	return k == TypeKindScalar || k == TypeKindEnum || k == TypeKindInputObject
}

// IsOutput reports whether values of this kind may appear in result positions.
func (k TypeKind) IsOutput() bool {
	return k != TypeKindInputObject
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
	Def    *Type    // For named types built from a *Type
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// NamedDef returns the innermost *Type the reference was built from, or nil
// for references built by name only.
func (t *TypeRef) NamedDef() *Type {
	current := t
	for current != nil {
		if current.Kind == TypeRefKindNamed {
			return current.Def
		}
		current = current.OfType
	}
	return nil
}

// String prints the reference in SDL form, e.g. "[Book!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	}
	return t.Named
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef {
	if t.IsNonNull() {
		return t
	}
	return &TypeRef{Kind: TypeRefKindNonNull, OfType: t}
}
func ListType(t *TypeRef) *TypeRef   { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// Nullable strips an outer Non-Null wrapper.
func Nullable(t *TypeRef) *TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }

type lazy[T any] struct {
	once   sync.Once
	static []T
	thunk  func() []T
	items  []T
	done   bool
}

func (l *lazy[T]) setThunk(fn func() []T) { l.thunk = fn }

func (l *lazy[T]) add(item T) {
	if l.done {
		l.items = append(l.items, item)
		return
	}
	l.static = append(l.static, item)
}

func (l *lazy[T]) get() []T {
	l.once.Do(func() {
		l.items = append(l.items, l.static...)
		if l.thunk != nil {
			l.items = append(l.items, l.thunk()...)
			l.thunk = nil
		}
		l.done = true
	})
	return l.items
}
