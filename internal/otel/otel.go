// Package otel turns engine lifecycle events and field resolutions into
// OpenTelemetry spans.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	eventbus "github.com/nrf110/effect-graphql/internal/eventbus"
	events "github.com/nrf110/effect-graphql/internal/events"
	pipeline "github.com/nrf110/effect-graphql/internal/pipeline"
	reqid "github.com/nrf110/effect-graphql/internal/reqid"
)

const instrumentationName = "github.com/nrf110/effect-graphql"

// Setup installs an OTLP/gRPC exporting tracer provider and returns a Tracing
// bound to it. If endpoint is empty nothing is exported and the returned
// Tracing uses the global (no-op by default) provider.
func Setup(ctx context.Context, endpoint, service string) (*Tracing, func(context.Context) error, error) {
	if endpoint == "" {
		return New(otel.Tracer(instrumentationName)), func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)
	return New(tp.Tracer(instrumentationName)), tp.Shutdown, nil
}

// Tracing opens one span per GraphQL operation and, through FieldMiddleware,
// one child span per resolved field. Operation spans are correlated with
// field spans by the request ID carried in the context.
type Tracing struct {
	tracer     trace.Tracer
	operations sync.Map // request ID -> trace.Span
}

func New(tracer trace.Tracer) *Tracing { return &Tracing{tracer: tracer} }

// Register subscribes to the engine's lifecycle events on bus.
func (t *Tracing) Register(bus *eventbus.Bus) (unregister func()) {
	unsubscribe := []func(){
		eventbus.Subscribe(bus, t.operationStarted),
		eventbus.Subscribe(bus, t.operationFinished),
		eventbus.Subscribe(bus, t.subscriptionEvent),
	}
	return func() {
		for _, u := range unsubscribe {
			u()
		}
	}
}

func (t *Tracing) operationStarted(ctx context.Context, e events.GraphQLStart) {
	rid, ok := reqid.FromContext(ctx)
	if !ok {
		return
	}
	_, span := t.tracer.Start(ctx, "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	t.operations.Store(rid, span)
}

func (t *Tracing) operationFinished(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := t.operations.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
	if len(e.Errors) > 0 {
		span.SetStatus(codes.Error, e.Errors[0].Error())
	}
	span.End()
}

func (t *Tracing) subscriptionEvent(ctx context.Context, e events.SubscriptionEvent) {
	_, span := t.tracer.Start(t.parent(ctx), "graphql.subscription.event")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.field", e.Field),
		attribute.Int("graphql.error_count", len(e.Errors)),
	)
	span.End()
}

// parent returns ctx with the operation span of its request attached, unless
// ctx already carries a span.
func (t *Tracing) parent(ctx context.Context) context.Context {
	if trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx
	}
	rid, ok := reqid.FromContext(ctx)
	if !ok {
		return ctx
	}
	if v, ok := t.operations.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

// FieldMiddleware returns a middleware that runs each matching field inside
// its own span. A nil match traces every field.
func (t *Tracing) FieldMiddleware(match func(pipeline.Info) bool) pipeline.Middleware {
	return pipeline.Middleware{
		Name:  "otel.field",
		Match: match,
		Apply: func(next pipeline.Computation, info pipeline.Info) pipeline.Computation {
			return func(ctx context.Context) (any, error) {
				ctx, span := t.tracer.Start(t.parent(ctx), "graphql.field "+info.ParentTypeName+"."+info.FieldName,
					trace.WithAttributes(
						attribute.String("graphql.field.parent", info.ParentTypeName),
						attribute.String("graphql.field.name", info.FieldName),
					))
				defer span.End()

				v, err := next(ctx)
				if err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, err.Error())
				}
				return v, err
			}
		},
	}
}
