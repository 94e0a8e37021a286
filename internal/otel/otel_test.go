package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/nrf110/effect-graphql/internal/eventbus"
	events "github.com/nrf110/effect-graphql/internal/events"
	pipeline "github.com/nrf110/effect-graphql/internal/pipeline"
	reqid "github.com/nrf110/effect-graphql/internal/reqid"
)

func newTracing() (*Tracing, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return New(tp.Tracer("test")), rec
}

func TestOperationAndFieldSpans(t *testing.T) {
	tr, rec := newTracing()
	bus := eventbus.New()
	unregister := tr.Register(bus)
	defer unregister()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, bus, events.GraphQLStart{OperationName: "Q", OperationType: "query"})

	mw := tr.FieldMiddleware(nil)
	info := pipeline.Info{ParentTypeName: "Query", FieldName: "user"}
	ok := mw.Apply(func(context.Context) (any, error) { return "v", nil }, info)
	v, err := ok(ctx)
	require.NoError(t, err)
	require.Equal(t, "v", v)

	failing := mw.Apply(func(context.Context) (any, error) { return nil, errors.New("boom") }, info)
	_, err = failing(ctx)
	require.EqualError(t, err, "boom")

	eventbus.Publish(ctx, bus, events.GraphQLFinish{OperationName: "Q", OperationType: "query", Errors: []error{err}})

	spans := rec.Ended()
	require.Len(t, spans, 3)
	require.Equal(t, "graphql.field Query.user", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, "graphql.operation", spans[2].Name())
	require.Equal(t, codes.Error, spans[2].Status().Code)

	op := spans[2].SpanContext()
	require.Equal(t, op.SpanID(), spans[0].Parent().SpanID())
	require.Equal(t, op.TraceID(), spans[1].SpanContext().TraceID())
}

func TestFinishWithoutStartIsIgnored(t *testing.T) {
	tr, rec := newTracing()
	bus := eventbus.New()
	tr.Register(bus)

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, bus, events.GraphQLFinish{})
	eventbus.Publish(context.Background(), bus, events.GraphQLStart{})
	require.Empty(t, rec.Ended())
	require.Empty(t, rec.Started())
}

func TestSubscriptionEventSpan(t *testing.T) {
	tr, rec := newTracing()
	bus := eventbus.New()
	tr.Register(bus)

	eventbus.Publish(context.Background(), bus, events.SubscriptionEvent{OperationName: "S", Field: "ticks"})
	spans := rec.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "graphql.subscription.event", spans[0].Name())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	tr, shutdown, err := Setup(context.Background(), "", "svc")
	require.NoError(t, err)
	require.NotNil(t, tr)
	require.NoError(t, shutdown(context.Background()))
}
