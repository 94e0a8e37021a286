package lookup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/shape"
)

func TestOutputIdentity(t *testing.T) {
	inner := shape.StructOf(shape.Field("id", shape.IDType()))
	wrapped := shape.Named(shape.Transform(shape.StructOf(), inner), "User")
	branded := shape.Declare("Brand", shape.StructOf(shape.Field("n", shape.IntType())))

	c := Build(registry.New().
		ObjectType(registry.ObjectType{Schema: wrapped}).
		ObjectType(registry.ObjectType{Name: "Counter", Schema: branded}).
		Snapshot())

	for _, n := range []shape.Node{wrapped, inner} {
		e, ok := c.Output(n)
		require.True(t, ok)
		require.Equal(t, Entry{Object, "User"}, e)
	}

	e, ok := c.Output(branded.Params[0])
	require.True(t, ok)
	require.Equal(t, "Counter", e.Name)

	// a structurally equal node is a different node, but its identifier matches
	e, ok = c.Output(shape.Named(shape.StructOf(), "User"))
	require.True(t, ok)
	require.Equal(t, "User", e.Name)

	_, ok = c.Output(shape.StructOf(shape.Field("id", shape.IDType())))
	require.False(t, ok)
	_, ok = c.Input(wrapped)
	require.False(t, ok)
}

func TestInputIdentity(t *testing.T) {
	external := shape.StructOf(shape.OptionalField("name", shape.StringType()))
	filter := shape.Named(shape.Transform(external, shape.StructOf()), "Filter")

	c := Build(registry.New().InputType(registry.InputType{Schema: filter}).Snapshot())

	for _, n := range []shape.Node{filter, external} {
		e, ok := c.Input(n)
		require.True(t, ok)
		require.Equal(t, Entry{Input, "Filter"}, e)
	}
	_, ok := c.Output(filter)
	require.False(t, ok)
}

func TestEnumLookups(t *testing.T) {
	status := shape.Named(shape.Literals("ACTIVE", "INACTIVE"), "Status")
	c := Build(registry.New().
		EnumType(registry.EnumType{Schema: status}).
		EnumType(registry.EnumType{Name: "Level", Values: []string{"LOW", "HIGH"}}).
		Snapshot())

	name, ok := c.EnumBySet([]any{"INACTIVE", "ACTIVE"})
	require.True(t, ok)
	require.Equal(t, "Status", name)

	name, ok = c.EnumBySet([]any{"ACTIVE", "INACTIVE", "ACTIVE"})
	require.True(t, ok)
	require.Equal(t, "Status", name)

	_, ok = c.EnumBySet([]any{"ACTIVE"})
	require.False(t, ok)

	name, ok = c.EnumByLiteral("HIGH")
	require.True(t, ok)
	require.Equal(t, "Level", name)

	e, ok := c.Input(status)
	require.True(t, ok)
	require.Equal(t, Entry{Enum, "Status"}, e)
}

func TestEnumLiteralsKeepTheirType(t *testing.T) {
	c := Build(registry.New().
		EnumType(registry.EnumType{Name: "Answer", Values: []string{"true", "false", "1", "null"}}).
		Snapshot())

	name, ok := c.EnumByLiteral("true")
	require.True(t, ok)
	require.Equal(t, "Answer", name)

	for _, v := range []any{true, false, 1, nil} {
		_, ok := c.EnumByLiteral(v)
		require.False(t, ok, "%T %v", v, v)
	}
	_, ok = c.EnumBySet([]any{true, false, 1, nil})
	require.False(t, ok)
}

func TestUnionBySet(t *testing.T) {
	c := Build(registry.New().
		UnionType(registry.UnionType{Name: "Shape", Members: []string{"Circle", "Square"}}).
		Snapshot())

	name, ok := c.UnionBySet([]string{"Square", "Circle"})
	require.True(t, ok)
	require.Equal(t, "Shape", name)

	_, ok = c.UnionBySet([]string{"Square"})
	require.False(t, ok)
}

func TestCanonicalKey(t *testing.T) {
	require.Equal(t, CanonicalKey([]string{"b", "a", "b"}), CanonicalKey([]string{"a", "b"}))
	require.NotEqual(t, CanonicalKey([]string{"a"}), CanonicalKey([]string{"a", "b"}))
}
