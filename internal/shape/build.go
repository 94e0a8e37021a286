package shape

func newPrimitive(k PrimitiveKind) Node { return &Primitive{Prim: k} }

func StringType() Node  { return newPrimitive(String) }
func IntType() Node     { return newPrimitive(Int) }
func NumberType() Node  { return newPrimitive(Number) }
func BooleanType() Node { return newPrimitive(Boolean) }
func IDType() Node      { return newPrimitive(ID) }

// UnknownType is a primitive with no GraphQL counterpart.
func UnknownType() Node { return newPrimitive(Unknown) }

// Field declares a required struct property.
func Field(name string, t Node) Property { return Property{Name: name, Type: t} }

// OptionalField declares a struct property that may be omitted.
func OptionalField(name string, t Node) Property {
	return Property{Name: name, Type: t, Optional: true}
}

func StructOf(props ...Property) *Struct {
	fields := make([]Property, len(props))
	copy(fields, props)
	return &Struct{Fields: fields}
}

// Tagged builds a struct carrying a `_tag` discriminator literal ahead of the
// given properties. The tag doubles as the struct's identifier.
func Tagged(tag string, props ...Property) *Struct {
	fields := make([]Property, 0, len(props)+1)
	fields = append(fields, Property{Name: TagKey, Type: Lit(tag)})
	fields = append(fields, props...)
	return &Struct{Fields: fields, ann: Annotations{Identifier: tag}}
}

func ListOf(elem Node) *List { return &List{Elem: elem} }

func TupleOf(elems ...Node) *Tuple {
	out := make([]Node, len(elems))
	copy(out, elems)
	return &Tuple{Elems: out}
}

func Lit(v any) *Literal { return &Literal{Value: v} }

// Null is the null literal.
func Null() *Literal { return &Literal{Value: nil} }

func UnionOf(members ...Node) *Union {
	out := make([]Node, len(members))
	copy(out, members)
	return &Union{Members: out}
}

// Literals builds a union of literal members, the structural form of an enum.
func Literals(values ...any) *Union {
	members := make([]Node, len(values))
	for i, v := range values {
		members[i] = Lit(v)
	}
	return &Union{Members: members}
}

// NullOr is the structural "optional": a union of t and the null literal.
func NullOr(t Node) *Union { return UnionOf(t, Null()) }

func Transform(from, to Node) *Transformation { return &Transformation{From: from, To: to} }

func Declare(constructor string, params ...Node) *Declaration {
	out := make([]Node, len(params))
	copy(out, params)
	return &Declaration{Constructor: constructor, Params: out}
}

// Option wraps t in the optional-value container.
func Option(t Node) *Declaration { return Declare(OptionConstructor, t) }

// OptionFromNullOr decodes an external nullable t into an internal Option.
func OptionFromNullOr(t Node) *Transformation { return Transform(NullOr(t), Option(t)) }

// Lazy defers node construction until first use.
func Lazy(thunk func() Node) *Suspend { return &Suspend{thunk: thunk} }

// Annotate returns a copy of n carrying the merged annotations. The copy is a
// new node with its own identity; n itself is unchanged.
func Annotate(n Node, a Annotations) Node {
	switch v := n.(type) {
	case *Primitive:
		return &Primitive{Prim: v.Prim, ann: v.ann.merge(a)}
	case *Struct:
		return &Struct{Fields: v.Fields, ann: v.ann.merge(a)}
	case *List:
		return &List{Elem: v.Elem, ann: v.ann.merge(a)}
	case *Tuple:
		return &Tuple{Elems: v.Elems, ann: v.ann.merge(a)}
	case *Literal:
		return &Literal{Value: v.Value, ann: v.ann.merge(a)}
	case *Union:
		return &Union{Members: v.Members, ann: v.ann.merge(a)}
	case *Transformation:
		return &Transformation{From: v.From, To: v.To, ann: v.ann.merge(a)}
	case *Declaration:
		return &Declaration{Constructor: v.Constructor, Params: v.Params, ann: v.ann.merge(a)}
	case *Suspend:
		return &Suspend{thunk: v.Force, ann: v.ann.merge(a)}
	}
	return n
}

// Named is shorthand for annotating n with an identifier.
func Named(n Node, identifier string) Node {
	return Annotate(n, Annotations{Identifier: identifier})
}

// Describe is shorthand for annotating n with a description.
func Describe(n Node, description string) Node {
	return Annotate(n, Annotations{Description: description})
}
