package introspection

import (
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// extend returns a shallow copy of original carrying the introspection types
// and a Query type with the __schema and __type meta fields appended. The
// original schema is left untouched.
func extend(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)+8),
		Directives:       original.Directives,
		Description:      original.Description,
	}
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for _, t := range metaTypes() {
		extended.AddType(t)
	}

	query := original.GetQueryType()
	if query == nil {
		return extended
	}
	// Query types carry a sync.Once, so the copy is a fresh type reading the
	// original's fields through a thunk.
	withMeta := schema.NewType(query.Name, query.Kind, query.Description)
	withMeta.Interfaces = query.Interfaces
	withMeta.Directives = query.Directives
	withMeta.SetFieldsThunk(func() []*schema.Field {
		fields := append([]*schema.Field(nil), query.Fields()...)
		return append(fields,
			schema.NewField("__schema", "Access the current type schema of this server.",
				schema.NonNullType(named("__Schema"))),
			schema.NewField("__type", "Request the type information of a single type.", named("__Type")).
				AddArgument(schema.NewInputValue("name", "The name of the type to look up.",
					schema.NonNullType(schema.String.Ref()))),
		)
	})
	extended.Types[query.Name] = withMeta
	return extended
}

func named(name string) *schema.TypeRef { return schema.NamedType(name) }

func listOf(name string) *schema.TypeRef {
	return schema.ListType(schema.NonNullType(named(name)))
}

func includeDeprecated() *schema.InputValue {
	return schema.NewInputValue("includeDeprecated", "", schema.Boolean.Ref()).SetDefault(false)
}

func object(name, description string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, description)
	for _, f := range fields {
		t.AddField(f)
	}
	return t
}

func enum(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}

// metaTypes builds the introspection types. They are rebuilt per schema so
// that no lazy field state is shared between schemas.
func metaTypes() []*schema.Type {
	str := schema.String.Ref
	boolean := schema.Boolean.Ref
	nonNull := schema.NonNullType

	return []*schema.Type{
		object("__Schema", "A GraphQL Schema defines the capabilities of a GraphQL server.",
			schema.NewField("description", "", str()),
			schema.NewField("types", "A list of all types supported by this server.", nonNull(listOf("__Type"))),
			schema.NewField("queryType", "The type that query operations will be rooted at.", nonNull(named("__Type"))),
			schema.NewField("mutationType", "", named("__Type")),
			schema.NewField("subscriptionType", "", named("__Type")),
			schema.NewField("directives", "A list of all directives supported by this server.", nonNull(listOf("__Directive"))),
		),
		object("__Type", "The fundamental unit of any GraphQL Schema is the type.",
			schema.NewField("kind", "", nonNull(named("__TypeKind"))),
			schema.NewField("name", "", str()),
			schema.NewField("description", "", str()),
			schema.NewField("specifiedByURL", "", str()),
			schema.NewField("fields", "", listOf("__Field")).AddArgument(includeDeprecated()),
			schema.NewField("interfaces", "", listOf("__Type")),
			schema.NewField("possibleTypes", "", listOf("__Type")),
			schema.NewField("enumValues", "", listOf("__EnumValue")).AddArgument(includeDeprecated()),
			schema.NewField("inputFields", "", listOf("__InputValue")).AddArgument(includeDeprecated()),
			schema.NewField("ofType", "", named("__Type")),
			schema.NewField("isOneOf", "", boolean()),
		),
		object("__Field", "",
			schema.NewField("name", "", nonNull(str())),
			schema.NewField("description", "", str()),
			schema.NewField("args", "", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated()),
			schema.NewField("type", "", nonNull(named("__Type"))),
			schema.NewField("isDeprecated", "", nonNull(boolean())),
			schema.NewField("deprecationReason", "", str()),
		),
		object("__InputValue", "",
			schema.NewField("name", "", nonNull(str())),
			schema.NewField("description", "", str()),
			schema.NewField("type", "", nonNull(named("__Type"))),
			schema.NewField("defaultValue", "", str()),
			schema.NewField("isDeprecated", "", nonNull(boolean())),
			schema.NewField("deprecationReason", "", str()),
		),
		object("__EnumValue", "",
			schema.NewField("name", "", nonNull(str())),
			schema.NewField("description", "", str()),
			schema.NewField("isDeprecated", "", nonNull(boolean())),
			schema.NewField("deprecationReason", "", str()),
		),
		object("__Directive", "",
			schema.NewField("name", "", nonNull(str())),
			schema.NewField("description", "", str()),
			schema.NewField("isRepeatable", "", nonNull(boolean())),
			schema.NewField("locations", "", nonNull(listOf("__DirectiveLocation"))),
			schema.NewField("args", "", nonNull(listOf("__InputValue"))).AddArgument(includeDeprecated()),
		),
		enum("__TypeKind",
			"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL"),
		enum("__DirectiveLocation",
			"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION"),
	}
}
