package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	executor "github.com/nrf110/effect-graphql/internal/executor"
	"github.com/nrf110/effect-graphql/internal/fieldrt"
	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

func buildSchema() *schema.Schema {
	status := schema.NewType("Status", schema.TypeKindEnum, "").
		AddEnumValue(schema.NewEnumValue("ACTIVE", "")).
		AddEnumValue(schema.NewEnumValue("RETIRED", "").Deprecate("gone"))
	user := schema.NewType("User", schema.TypeKindObject, "A person.")
	user.AddField(schema.NewField("name", "", schema.NonNullType(schema.String.Ref())))
	user.AddField(schema.NewField("tags", "", schema.ListType(schema.NonNullType(schema.String.Ref()))))

	query := schema.NewType("Query", schema.TypeKindObject, "")
	hello := schema.NewField("hello", "", schema.String.Ref())
	hello.Resolve = func(context.Context, any, map[string]any) (any, error) { return "world", nil }
	query.AddField(hello)
	return schema.NewSchema("").AddBuiltins().SetQueryType("Query").
		AddType(query).AddType(user).AddType(status)
}

func run(t *testing.T, q string) map[string]any {
	t.Helper()
	sch := buildSchema()
	w := Wrap(fieldrt.New(sch), sch)
	doc, err := language.ParseQuery(q)
	require.NoError(t, err)
	res := executor.NewExecutor(w.Runtime, w.Schema).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRootTypes(t *testing.T) {
	data := run(t, "{ __schema { queryType { name } mutationType { name } } }")
	require.Equal(t, map[string]any{
		"__schema": map[string]any{
			"queryType":    map[string]any{"name": "Query"},
			"mutationType": nil,
		},
	}, data)
}

func TestTypeLookupWithWrappers(t *testing.T) {
	data := run(t, `{
		__type(name: "User") {
			kind
			description
			fields { name type { kind name ofType { kind name ofType { kind name } } } }
		}
	}`)
	require.Equal(t, map[string]any{
		"kind":        "OBJECT",
		"description": "A person.",
		"fields": []any{
			map[string]any{"name": "name", "type": map[string]any{
				"kind": "NON_NULL", "name": nil,
				"ofType": map[string]any{"kind": "SCALAR", "name": "String", "ofType": nil},
			}},
			map[string]any{"name": "tags", "type": map[string]any{
				"kind": "LIST", "name": nil,
				"ofType": map[string]any{"kind": "NON_NULL", "name": nil,
					"ofType": map[string]any{"kind": "SCALAR", "name": "String"}},
			}},
		},
	}, data["__type"])
}

func TestEnumValuesDeprecation(t *testing.T) {
	data := run(t, `{
		active: __type(name: "Status") { enumValues { name } }
		all: __type(name: "Status") { enumValues(includeDeprecated: true) { name deprecationReason } }
		missing: __type(name: "Nope") { name }
	}`)
	require.Equal(t, map[string]any{"enumValues": []any{map[string]any{"name": "ACTIVE"}}}, data["active"])
	require.Equal(t, map[string]any{"enumValues": []any{
		map[string]any{"name": "ACTIVE", "deprecationReason": nil},
		map[string]any{"name": "RETIRED", "deprecationReason": "gone"},
	}}, data["all"])
	require.Nil(t, data["missing"])
}

func TestDelegatesToBase(t *testing.T) {
	data := run(t, "{ hello __typename }")
	require.Equal(t, map[string]any{"hello": "world", "__typename": "Query"}, data)
}

func TestOriginalSchemaUntouched(t *testing.T) {
	sch := buildSchema()
	w := Wrap(fieldrt.New(sch), sch)
	require.Nil(t, sch.Types["__Schema"])
	require.Nil(t, sch.GetQueryType().Field("__schema"))
	require.NotNil(t, w.Schema.GetQueryType().Field("__schema"))
	require.NotNil(t, w.Schema.GetQueryType().Field("hello"))
}
