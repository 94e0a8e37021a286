package fieldrt

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nrf110/effect-graphql/internal/executor"
	"github.com/nrf110/effect-graphql/internal/option"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/stream"
)

func echo(ctx context.Context, source any, args map[string]any) (any, error) {
	return args["v"], nil
}

func testSchema() *schema.Schema {
	status := schema.NewType("Status", schema.TypeKindEnum, "").
		AddEnumValue(schema.NewEnumValue("ACTIVE", "")).
		AddEnumValue(schema.NewEnumValue("INACTIVE", ""))

	user := schema.NewType("User", schema.TypeKindObject, "")
	user.AddField(&schema.Field{Name: "name", Type: schema.String.Ref(), Resolve: func(_ context.Context, source any, _ map[string]any) (any, error) {
		return source.(map[string]any)["name"], nil
	}})
	bot := schema.NewType("Bot", schema.TypeKindObject, "")

	actor := schema.NewType("Actor", schema.TypeKindUnion, "").AddPossibleType("User").AddPossibleType("Bot")
	named := schema.NewType("Named", schema.TypeKindInterface, "").AddPossibleType("User")
	named.ResolveVariant = func(value any) (string, error) {
		if value == "u" {
			return "User", nil
		}
		return "", errors.New("not named")
	}

	query := schema.NewType("Query", schema.TypeKindObject, "")
	query.AddField(&schema.Field{Name: "echo", Async: true, Resolve: echo})
	query.AddField(&schema.Field{Name: "fail", Async: true, Resolve: func(context.Context, any, map[string]any) (any, error) {
		return nil, errors.New("boom")
	}})
	query.AddField(&schema.Field{Name: "bare"})

	sub := schema.NewType("Subscription", schema.TypeKindObject, "")
	sub.AddField(&schema.Field{Name: "ticks", Subscribe: func(ctx context.Context, _ map[string]any) (schema.EventStream, error) {
		return stream.Adapt(ctx, stream.FromSlice(1, 2)), nil
	}})

	s := schema.NewSchema("").AddBuiltins().SetQueryType("Query").SetSubscriptionType("Subscription")
	s.AddType(status).AddType(user).AddType(bot).AddType(actor).AddType(named).AddType(query).AddType(sub)
	return s
}

func TestResolveSync(t *testing.T) {
	rt := New(testSchema())
	v, err := rt.ResolveSync(context.Background(), "User", "name", map[string]any{"name": "Ada"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Ada", v)
}

func TestUnknownFieldPanics(t *testing.T) {
	rt := New(testSchema())
	require.Panics(t, func() { _, _ = rt.ResolveSync(context.Background(), "User", "missing", nil, nil) })
	require.Panics(t, func() { _, _ = rt.ResolveSync(context.Background(), "Ghost", "name", nil, nil) })
	require.Panics(t, func() {
		rt.BatchResolveAsync(context.Background(), []executor.AsyncResolveTask{{ObjectType: "Query", Field: "bare"}})
	})
}

func TestBatchResolveAsyncOrderAndPartialFailure(t *testing.T) {
	rt := New(testSchema(), WithConcurrency(2))
	tasks := []executor.AsyncResolveTask{
		{ObjectType: "Query", Field: "echo", Args: map[string]any{"v": 1}},
		{ObjectType: "Query", Field: "fail"},
		{ObjectType: "Query", Field: "echo", Args: map[string]any{"v": 3}},
		{ObjectType: "Query", Field: "echo", Args: map[string]any{"v": 4}},
	}
	results := rt.BatchResolveAsync(context.Background(), tasks)
	require.Len(t, results, 4)
	require.Equal(t, 1, results[0].Value)
	require.EqualError(t, results[1].Error, "boom")
	require.Equal(t, 3, results[2].Value)
	require.Equal(t, 4, results[3].Value)

	require.Empty(t, rt.BatchResolveAsync(context.Background(), nil))
}

func TestBatchResolveAsyncRunsConcurrently(t *testing.T) {
	var running, peak atomic.Int32
	slow := func(context.Context, any, map[string]any) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	}
	query := schema.NewType("Query", schema.TypeKindObject, "")
	query.AddField(&schema.Field{Name: "slow", Async: true, Resolve: slow})
	s := schema.NewSchema("").AddBuiltins().SetQueryType("Query").AddType(query)

	tasks := make([]executor.AsyncResolveTask, 4)
	for i := range tasks {
		tasks[i] = executor.AsyncResolveTask{ObjectType: "Query", Field: "slow"}
	}
	New(s).BatchResolveAsync(context.Background(), tasks)
	require.Greater(t, peak.Load(), int32(1))
}

func TestResolveType(t *testing.T) {
	rt := New(testSchema())
	ctx := context.Background()

	for _, tc := range []struct {
		name  string
		value any
		want  string
	}{
		{name: "map", value: map[string]any{"_tag": "User"}, want: "User"},
		{name: "struct", value: struct {
			Tag string `graphql:"_tag"`
		}{Tag: "Bot"}, want: "Bot"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rt.ResolveType(ctx, "Actor", tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := rt.ResolveType(ctx, "Actor", map[string]any{"_tag": "Admin"})
	require.EqualError(t, err, "ResolveType: Admin is not a possible type of Actor")
	_, err = rt.ResolveType(ctx, "Actor", map[string]any{})
	require.Error(t, err)

	got, err := rt.ResolveType(ctx, "Named", "u")
	require.NoError(t, err)
	require.Equal(t, "User", got)
	_, err = rt.ResolveType(ctx, "Named", "x")
	require.EqualError(t, err, "not named")
}

func TestSerializeLeafValue(t *testing.T) {
	rt := New(testSchema())
	ctx := context.Background()

	for _, tc := range []struct {
		typ   string
		in    any
		want  any
		isErr bool
	}{
		{typ: "String", in: "s", want: "s"},
		{typ: "String", in: 12, want: "12"},
		{typ: "String", in: []byte{0x01, 0x02, 0xFF}, want: "AQL/"},
		{typ: "ID", in: 7, want: "7"},
		{typ: "Int", in: 5, want: int32(5)},
		{typ: "Int", in: int64(1) << 40, isErr: true},
		{typ: "Int", in: "x", isErr: true},
		{typ: "Float", in: float32(1.5), want: 1.5},
		{typ: "Boolean", in: true, want: true},
		{typ: "Status", in: "ACTIVE", want: "ACTIVE"},
		{typ: "Status", in: "PENDING", isErr: true},
		{typ: "String", in: nil, want: nil},
		{typ: "String", in: option.None[string](), want: nil},
		{typ: "String", in: option.Some("x"), want: "x"},
	} {
		got, err := rt.SerializeLeafValue(ctx, tc.typ, tc.in)
		if tc.isErr {
			require.Error(t, err, "%s %v", tc.typ, tc.in)
			continue
		}
		require.NoError(t, err, "%s %v", tc.typ, tc.in)
		require.Equal(t, tc.want, got, "%s %v", tc.typ, tc.in)
	}
}

func TestSubscribeField(t *testing.T) {
	rt := New(testSchema())
	events, err := rt.SubscribeField(context.Background(), "Subscription", "ticks", nil)
	require.NoError(t, err)
	defer events.Close()

	v, ok, err := events.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, err = rt.SubscribeField(context.Background(), "Query", "echo", nil)
	require.Error(t, err)
}
