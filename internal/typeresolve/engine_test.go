package typeresolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/nrf110/effect-graphql/internal/lookup"
	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
)

// shells creates an empty named type per registration, the way the compiler
// does before resolving anything.
func shells(snap *registry.Snapshot) map[string]*schema.Type {
	types := make(map[string]*schema.Type)
	for _, o := range snap.Objects {
		types[o.Name] = schema.NewType(o.Name, schema.TypeKindObject, "")
	}
	for _, i := range snap.Interfaces {
		types[i.Name] = schema.NewType(i.Name, schema.TypeKindInterface, "")
	}
	for _, u := range snap.Unions {
		types[u.Name] = schema.NewType(u.Name, schema.TypeKindUnion, "")
	}
	for _, en := range snap.Enums {
		types[en.Name] = schema.NewType(en.Name, schema.TypeKindEnum, "")
	}
	for _, in := range snap.Inputs {
		types[in.Name] = schema.NewType(in.Name, schema.TypeKindInputObject, "")
	}
	return types
}

func newEngine(b *registry.Builder, opts ...Option) (*Engine, map[string]*schema.Type) {
	snap := b.Snapshot()
	types := shells(snap)
	return New(lookup.Build(snap), types, opts...), types
}

var (
	statusShape = shape.Named(shape.Literals("ACTIVE", "INACTIVE"), "Status")
	circleShape = shape.Tagged("Circle", shape.Field("radius", shape.NumberType()))
	squareShape = shape.Tagged("Square", shape.Field("side", shape.NumberType()))
	filterShape = shape.Named(shape.StructOf(shape.OptionalField("name", shape.StringType())), "Filter")
	nodeShape   = shape.Named(shape.StructOf(shape.Field("id", shape.IDType())), "Node")
	shapeUnion  = shape.Named(shape.UnionOf(circleShape, squareShape), "Shape")
)

func catalog() *registry.Builder {
	return registry.New().
		EnumType(registry.EnumType{Schema: statusShape}).
		ObjectType(registry.ObjectType{Schema: circleShape}).
		ObjectType(registry.ObjectType{Schema: squareShape}).
		UnionType(registry.UnionType{Schema: shapeUnion, Members: []string{"Circle", "Square"}}).
		InterfaceType(registry.InterfaceType{Schema: nodeShape}).
		InputType(registry.InputType{Schema: filterShape})
}

func TestRegisteredTypesResolveToThemselves(t *testing.T) {
	e, types := newEngine(catalog())

	for _, tc := range []struct {
		node  shape.Node
		name  string
		input bool
	}{
		{node: statusShape, name: "Status"},
		{node: statusShape, name: "Status", input: true},
		{node: circleShape, name: "Circle"},
		{node: squareShape, name: "Square"},
		{node: shapeUnion, name: "Shape"},
		{node: nodeShape, name: "Node"},
		{node: filterShape, name: "Filter", input: true},
	} {
		var got *schema.TypeRef
		if tc.input {
			got = e.Input(tc.node)
		} else {
			got = e.Output(tc.node)
		}
		require.Same(t, types[tc.name].Ref(), got, tc.name)
		require.Same(t, types[tc.name], got.NamedDef(), tc.name)
	}
	require.Empty(t, e.Degradations())
}

func TestEnumScenario(t *testing.T) {
	e, types := newEngine(registry.New().EnumType(registry.EnumType{Name: "Status", Values: []string{"ACTIVE", "INACTIVE"}}))
	status := types["Status"]

	require.Same(t, status, e.Output(shape.Literals("ACTIVE", "INACTIVE")).NamedDef())
	require.Same(t, status, e.Output(shape.Literals("INACTIVE", "ACTIVE")).NamedDef())
	require.Same(t, status, e.Output(shape.Lit("ACTIVE")).NamedDef())
	require.Same(t, status, e.Input(shape.Lit("INACTIVE")).NamedDef())

	// an unknown literal maps by kind
	require.Same(t, schema.String, e.Output(shape.Lit("PENDING")).NamedDef())
	require.Empty(t, e.Degradations())
}

func TestTaggedUnionBySet(t *testing.T) {
	e, types := newEngine(catalog())

	// a fresh union of the same tagged members matches the registered union
	fresh := shape.UnionOf(
		shape.Tagged("Square", shape.Field("side", shape.NumberType())),
		shape.Tagged("Circle", shape.Field("radius", shape.NumberType())),
	)
	require.Same(t, types["Shape"], e.Output(fresh).NamedDef())
}

func TestUnionScanAndFallback(t *testing.T) {
	e, types := newEngine(catalog())

	// Union[T, null] resolves to T
	require.Same(t, types["Circle"], e.Output(shape.NullOr(circleShape)).NamedDef())
	require.Same(t, types["Filter"], e.Input(shape.NullOr(filterShape)).NamedDef())

	// no registered member: the first non-null member resolves structurally
	require.Same(t, schema.Int, e.Output(shape.UnionOf(shape.Null(), shape.IntType(), shape.StringType())).NamedDef())
}

func TestInputFilterDirectAndOptional(t *testing.T) {
	e, types := newEngine(catalog())
	filter := types["Filter"]

	require.Same(t, filter.Ref(), e.Input(filterShape))
	require.Same(t, filter.Ref(), e.Input(shape.Option(filterShape)))
	require.Same(t, filter.Ref(), e.Input(shape.OptionFromNullOr(filterShape)))
}

func TestStructuralMappings(t *testing.T) {
	e, types := newEngine(catalog())

	for _, tc := range []struct {
		name string
		node shape.Node
		want string
	}{
		{name: "string", node: shape.StringType(), want: "String"},
		{name: "int", node: shape.IntType(), want: "Int"},
		{name: "number", node: shape.NumberType(), want: "Float"},
		{name: "boolean", node: shape.BooleanType(), want: "Boolean"},
		{name: "id", node: shape.IDType(), want: "ID"},
		{name: "list", node: shape.ListOf(circleShape), want: "[Circle]"},
		{name: "tuple", node: shape.TupleOf(shape.IntType(), shape.IntType()), want: "[Int]"},
		{name: "option", node: shape.Option(shape.IntType()), want: "Int"},
		{name: "nested list", node: shape.ListOf(shape.ListOf(shape.StringType())), want: "[[String]]"},
		{name: "transformation", node: shape.Transform(shape.StringType(), shape.IntType()), want: "Int"},
		{name: "declaration", node: shape.Declare("Brand", shape.IDType()), want: "ID"},
		{name: "suspend", node: shape.Lazy(func() shape.Node { return squareShape }), want: "Square"},
		{name: "bool literal", node: shape.Lit(true), want: "Boolean"},
		{name: "float literal", node: shape.Lit(1.5), want: "Float"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, e.Output(tc.node).String())
		})
	}
	require.Same(t, types["Square"], e.Output(shape.ListOf(squareShape)).NamedDef())
	require.Empty(t, e.Degradations())

	// inputs take the external side of a transformation
	require.Equal(t, "String", e.Input(shape.Transform(shape.StringType(), shape.IntType())).String())
}

func TestDegradations(t *testing.T) {
	e, _ := newEngine(catalog())

	anon := shape.StructOf(shape.Field("x", shape.IntType()))
	require.Same(t, schema.String.Ref(), e.OutputAt(anon, "Query.anon"))
	require.Same(t, schema.String.Ref(), e.Output(shape.UnknownType()))
	// a registered output object is not an input
	require.Same(t, schema.String.Ref(), e.InputAt(circleShape, "Query.f(arg)"))
	require.NoError(t, e.Err())

	want := []Degradation{
		{Path: "Query.anon", Shape: "{x: int}"},
		{Shape: "unknown"},
		{Path: "Query.f(arg)", Shape: `{_tag: "Circle", radius: number}`, Input: true},
	}
	if diff := cmp.Diff(want, e.Degradations()); diff != "" {
		t.Errorf("degradations mismatch (-want +got):\n%s", diff)
	}
}

func TestStrictErr(t *testing.T) {
	e, _ := newEngine(registry.New(), WithStrict(true))
	require.NoError(t, e.Err())

	e.OutputAt(shape.StructOf(), "Query.bad")
	err := e.Err()
	require.Error(t, err)
	var de *DegradationError
	require.ErrorAs(t, err, &de)
	require.Len(t, de.Degradations, 1)
	require.Equal(t, "unresolvable shapes: Query.bad: output shape {} resolved to String", err.Error())
}

func TestUnregisteredRecursionTerminates(t *testing.T) {
	e, _ := newEngine(registry.New())
	var loop shape.Node
	loop = shape.Lazy(func() shape.Node { return shape.ListOf(loop) })

	ref := e.Output(loop)
	require.True(t, ref.IsList())
	require.Len(t, e.Degradations(), 1)
}

func TestFieldsNullability(t *testing.T) {
	e, types := newEngine(catalog())

	person := shape.Named(shape.StructOf(
		shape.Field("name", shape.StringType()),
		shape.OptionalField("nickname", shape.StringType()),
		shape.Field("age", shape.Option(shape.IntType())),
		shape.OptionalField("email", shape.OptionFromNullOr(shape.StringType())),
		shape.Field("status", statusShape),
		shape.Field("shapes", shape.ListOf(shapeUnion)),
		shape.Field("brand", shape.Declare("Brand", shape.Option(shape.StringType()))),
		shape.Field("code", shape.Declare("Code", shape.StringType())),
	), "Person")

	fields := e.Fields(person, false, "Person")
	got := map[string]string{}
	var encoded []string
	for _, f := range fields {
		got[f.Name] = f.Type.String()
		if f.EncodeOption {
			encoded = append(encoded, f.Name)
		}
	}
	require.Equal(t, map[string]string{
		"name":     "String!",
		"nickname": "String",
		"age":      "Int",
		"email":    "String",
		"status":   "Status!",
		"shapes":   "[Shape]!",
		"brand":    "String",
		"code":     "String!",
	}, got)
	require.Equal(t, []string{"age", "email", "brand"}, encoded)
	require.True(t, Nullable(shape.Declare("Brand", shape.Option(shape.StringType()))))
	require.False(t, Nullable(shape.Declare("Code", shape.StringType())))
	require.Equal(t, "name", fields[0].Name)
	require.Same(t, types["Status"], fields[4].Type.NamedDef())

	// the discriminator is not a field
	circle := e.Fields(circleShape, false, "Circle")
	require.Len(t, circle, 1)
	require.Equal(t, "radius", circle[0].Name)
}
