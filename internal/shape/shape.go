package shape

import (
	"fmt"
	"sync"
)

// Kind identifies the variant of a Node.
type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindList
	KindTuple
	KindLiteral
	KindUnion
	KindTransformation
	KindDeclaration
	KindSuspend
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "Primitive"
	case KindStruct:
		return "Struct"
	case KindList:
		return "List"
	case KindTuple:
		return "Tuple"
	case KindLiteral:
		return "Literal"
	case KindUnion:
		return "Union"
	case KindTransformation:
		return "Transformation"
	case KindDeclaration:
		return "Declaration"
	case KindSuspend:
		return "Suspend"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is an immutable description of a value's shape. Nodes are compared by
// identity: two structurally equal nodes built by separate constructor calls
// are different nodes.
type Node interface {
	Kind() Kind
	Annotations() Annotations
}

// Annotations carry naming and documentation metadata attached to a node.
type Annotations struct {
	// Identifier is the declared name of the shape, used to derive GraphQL
	// type names when a registration does not name the type explicitly.
	Identifier  string
	Description string
}

func (a Annotations) merge(b Annotations) Annotations {
	if b.Identifier != "" {
		a.Identifier = b.Identifier
	}
	if b.Description != "" {
		a.Description = b.Description
	}
	return a
}

// TagKey is the name of the internal discriminator property of tagged structs.
const TagKey = "_tag"

// OptionConstructor is the constructor id of the optional-value container.
const OptionConstructor = "Option"

type PrimitiveKind string

const (
	String  PrimitiveKind = "string"
	Int     PrimitiveKind = "int"
	Number  PrimitiveKind = "number"
	Boolean PrimitiveKind = "boolean"
	ID      PrimitiveKind = "id"
	Unknown PrimitiveKind = "unknown"
)

type Primitive struct {
	Prim PrimitiveKind
	ann  Annotations
}

func (*Primitive) Kind() Kind                 { return KindPrimitive }
func (p *Primitive) Annotations() Annotations { return p.ann }

// Property is a single named member of a Struct.
type Property struct {
	Name     string
	Type     Node
	Optional bool
}

type Struct struct {
	Fields []Property
	ann    Annotations
}

func (*Struct) Kind() Kind                 { return KindStruct }
func (s *Struct) Annotations() Annotations { return s.ann }

// Property returns the property with the given name.
func (s *Struct) Property(name string) (Property, bool) {
	for _, p := range s.Fields {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

type List struct {
	Elem Node
	ann  Annotations
}

func (*List) Kind() Kind                 { return KindList }
func (l *List) Annotations() Annotations { return l.ann }

type Tuple struct {
	Elems []Node
	ann   Annotations
}

func (*Tuple) Kind() Kind                 { return KindTuple }
func (t *Tuple) Annotations() Annotations { return t.ann }

// Literal is a single constant value: string, bool, int, float64 or nil.
type Literal struct {
	Value any
	ann   Annotations
}

func (*Literal) Kind() Kind                 { return KindLiteral }
func (l *Literal) Annotations() Annotations { return l.ann }

type Union struct {
	Members []Node
	ann     Annotations
}

func (*Union) Kind() Kind                 { return KindUnion }
func (u *Union) Annotations() Annotations { return u.ann }

// Transformation marks the boundary between an external (From) and internal
// (To) representation of the same value.
type Transformation struct {
	From Node
	To   Node
	ann  Annotations
}

func (*Transformation) Kind() Kind                 { return KindTransformation }
func (t *Transformation) Annotations() Annotations { return t.ann }

// Declaration wraps a generic container such as the optional-value container.
type Declaration struct {
	Constructor string
	Params      []Node
	ann         Annotations
}

func (*Declaration) Kind() Kind                 { return KindDeclaration }
func (d *Declaration) Annotations() Annotations { return d.ann }

// Suspend defers construction of a node until first use. It is how
// self-referential shapes are expressed.
type Suspend struct {
	thunk func() Node
	once  sync.Once
	node  Node
	ann   Annotations
}

func (*Suspend) Kind() Kind                 { return KindSuspend }
func (s *Suspend) Annotations() Annotations { return s.ann }

// Force evaluates the thunk once and returns the memoized node.
func (s *Suspend) Force() Node {
	s.once.Do(func() { s.node = s.thunk() })
	return s.node
}
