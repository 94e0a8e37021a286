package schema

var stringType = NewType("String", TypeKindScalar,
	"The `String` scalar type represents textual data, represented as UTF-8 character sequences.")

var intType = NewType("Int", TypeKindScalar,
	"The `Int` scalar type represents non-fractional signed whole numeric values.")

var floatType = NewType("Float", TypeKindScalar,
	"The `Float` scalar type represents signed double-precision fractional values.")

var booleanType = NewType("Boolean", TypeKindScalar,
	"The `Boolean` scalar type represents `true` or `false`.")

var idType = NewType("ID", TypeKindScalar,
	"The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.")

// Built-in scalar types. They are shared by every schema.
var (
	String  = stringType
	Int     = intType
	Float   = floatType
	Boolean = booleanType
	ID      = idType
)

// BuiltinScalars returns the specified scalar types.
func BuiltinScalars() []*Type {
	return []*Type{stringType, intType, floatType, booleanType, idType}
}

// IsBuiltinScalar reports whether t is one of the specified scalars.
func IsBuiltinScalar(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        NonNullType(booleanType.Ref()),
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        NonNullType(booleanType.Ref()),
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

// IsBuiltinDirective reports whether d is @include or @skip.
func IsBuiltinDirective(d *Directive) bool {
	return d == includeDirective || d == skipDirective
}
