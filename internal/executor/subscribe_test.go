package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	schema "github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/stream"
)

func subscriptionSchema() *schema.Schema {
	query := object("Query", propertyField("a", schema.String.Ref()))
	ticks := resolverField("ticks", schema.NonNullType(schema.Int.Ref())).
		AddArgument(schema.NewInputValue("factor", "", schema.NonNullType(schema.Int.Ref())))
	sub := object("Subscription", ticks, propertyField("other", schema.String.Ref()))
	return newSchema(query, sub).SetSubscriptionType("Subscription")
}

func TestSubscribe_ExecutesPerEvent(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(map[string]resolver{
		"Subscription.ticks": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return source.(int) * args["factor"].(int), nil
		},
	})
	var opened map[string]any
	rt.stream("Subscription.ticks", func(args map[string]any) (schema.EventStream, error) {
		opened = args
		return stream.Adapt(ctx, stream.FromSlice(1, 2)), nil
	})
	exec := NewExecutor(rt, subscriptionSchema())

	results, errRes := exec.Subscribe(ctx, parse(t, "subscription { ticks(factor: 10) }"), "", nil)
	require.Nil(t, errRes)
	defer results.Close()
	require.Equal(t, map[string]any{"factor": 10}, opened)

	for _, want := range []int{10, 20} {
		gotRes, ok, err := results.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		wantRes := &ExecutionResult{Data: map[string]any{"ticks": want}, Errors: []GraphQLError{}}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	}

	_, ok, err := results.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, results.Close())
	require.NoError(t, results.Close())
}

func TestSubscribe_RequestErrors(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(nil)
	rt.stream("Subscription.ticks", func(args map[string]any) (schema.EventStream, error) {
		return nil, errors.New("upstream unavailable")
	})
	exec := NewExecutor(rt, subscriptionSchema())

	for _, tc := range []struct {
		name  string
		query string
		want  []GraphQLError
	}{
		{
			name:  "NotASubscription",
			query: "{ a }",
			want:  []GraphQLError{{Message: "operation is a query, not a subscription"}},
		},
		{
			name:  "TwoRootFields",
			query: "subscription { ticks(factor: 1) other }",
			want:  []GraphQLError{{Message: "subscription must select exactly one top level field"}},
		},
		{
			name:  "MissingArgument",
			query: "subscription { ticks }",
			want:  []GraphQLError{{Message: "argument 'factor' of required type was not provided", Path: Path{"ticks"}}},
		},
		{
			name:  "StreamFailure",
			query: "subscription { ticks(factor: 1) }",
			want:  []GraphQLError{{Message: "upstream unavailable", Path: Path{"ticks"}}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			results, errRes := exec.Subscribe(ctx, parse(t, tc.query), "", nil)
			require.Nil(t, results)
			require.NotNil(t, errRes)
			if diff := cmp.Diff(tc.want, errRes.Errors); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSubscribe_SourceFailure(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(map[string]resolver{
		"Subscription.ticks": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return source, nil
		},
	})
	rt.stream("Subscription.ticks", func(args map[string]any) (schema.EventStream, error) {
		return stream.Adapt(ctx, stream.SourceFunc(func(ctx context.Context, yield func(any) error) error {
			if err := yield(1); err != nil {
				return err
			}
			return errors.New("feed dropped")
		})), nil
	})
	exec := NewExecutor(rt, subscriptionSchema())

	results, errRes := exec.Subscribe(ctx, parse(t, "subscription { ticks(factor: 1) }"), "", nil)
	require.Nil(t, errRes)
	defer results.Close()

	gotRes, ok, err := results.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]any{"ticks": 1}, gotRes.Data)

	_, ok, err = results.Next(ctx)
	require.EqualError(t, err, "feed dropped")
	require.False(t, ok)
}
