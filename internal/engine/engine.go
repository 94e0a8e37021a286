// Package engine ties the pieces together: it compiles a registry into a
// schema, validates incoming documents against it and executes them.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jensneuse/abstractlogger"

	"github.com/nrf110/effect-graphql/internal/compiler"
	"github.com/nrf110/effect-graphql/internal/eventbus"
	"github.com/nrf110/effect-graphql/internal/events"
	"github.com/nrf110/effect-graphql/internal/executor"
	"github.com/nrf110/effect-graphql/internal/fieldrt"
	"github.com/nrf110/effect-graphql/internal/introspection"
	"github.com/nrf110/effect-graphql/internal/language"
	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/reqid"
	"github.com/nrf110/effect-graphql/internal/typeresolve"
)

// Request is one GraphQL operation to run.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type Options struct {
	Strict bool
	// Timeout bounds Execute when the incoming context has no deadline.
	// 0 means no default timeout.
	Timeout time.Duration
	// Concurrency bounds concurrently running resolvers per batch. 0 means
	// unbounded.
	Concurrency   int
	Introspection bool
	Logger        abstractlogger.Logger
	Bus           *eventbus.Bus
}

type Option func(*Options)

func WithStrict(strict bool) Option { return func(o *Options) { o.Strict = strict } }
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithConcurrency(n int) Option { return func(o *Options) { o.Concurrency = n } }
func WithIntrospection(enable bool) Option { return func(o *Options) { o.Introspection = enable } }
func WithLogger(logger abstractlogger.Logger) Option { return func(o *Options) { o.Logger = logger } }
func WithEventBus(bus *eventbus.Bus) Option { return func(o *Options) { o.Bus = bus } }

// Engine serves operations against one compiled schema. It is safe for
// concurrent use.
type Engine struct {
	result *compiler.Result
	exec   *executor.Executor
	opt    Options
}

// New compiles b and prepares it for execution.
func New(b *registry.Builder, opts ...Option) (*Engine, error) {
	opt := Options{Introspection: true, Logger: abstractlogger.NoopLogger}
	for _, f := range opts {
		f(&opt)
	}

	start := time.Now()
	res, err := compiler.Compile(b, compiler.WithStrict(opt.Strict), compiler.WithLogger(opt.Logger))
	if err != nil {
		return nil, err
	}
	eventbus.Publish(context.Background(), opt.Bus, events.SchemaCompiled{
		Types:        len(res.Schema.Types),
		Degradations: len(res.Degradations),
		Duration:     time.Since(start),
	})

	var runtime executor.Runtime = fieldrt.New(res.Schema, fieldrt.WithConcurrency(opt.Concurrency))
	sch := res.Schema
	if opt.Introspection {
		w := introspection.Wrap(runtime, sch)
		runtime, sch = w.Runtime, w.Schema
	}
	return &Engine{
		result: res,
		exec:   executor.NewExecutor(runtime, sch),
		opt:    opt,
	}, nil
}

// SDL returns the schema in GraphQL schema definition language.
func (e *Engine) SDL() string { return e.result.SDL }

// Degradations lists the shapes that could not be resolved and were exposed
// as String.
func (e *Engine) Degradations() []typeresolve.Degradation { return e.result.Degradations }

// load parses and validates the request document.
func (e *Engine) load(req Request) (*language.QueryDocument, *Response) {
	doc, errs := language.LoadQuery(e.result.AST, req.Query)
	if len(errs) > 0 {
		return nil, errorsResponse(errs)
	}
	return doc, nil
}

func findOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	op := doc.Operations.ForName(name)
	if op == nil && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	return op
}

func operationType(doc *language.QueryDocument, name string) string {
	if op := findOperation(doc, name); op != nil {
		return string(op.Operation)
	}
	return ""
}

// Execute runs a query or mutation.
func (e *Engine) Execute(ctx context.Context, req Request) *Response {
	if _, ok := ctx.Deadline(); !ok && e.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opt.Timeout)
		defer cancel()
	}
	ctx, rid := reqid.NewContext(ctx)

	doc, errRes := e.load(req)
	if errRes != nil {
		return errRes
	}
	opType := operationType(doc, req.OperationName)
	if opType == string(language.Subscription) {
		return messageResponse("subscription operations must be run with Subscribe")
	}

	start := time.Now()
	eventbus.Publish(ctx, e.opt.Bus, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := e.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	duration := time.Since(start)
	eventbus.Publish(ctx, e.opt.Bus, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        resultErrors(result),
		Duration:      duration,
	})

	e.opt.Logger.Debug("graphql operation",
		abstractlogger.Any("request_id", rid),
		abstractlogger.String("operation", req.OperationName),
		abstractlogger.String("type", opType),
		abstractlogger.Int("errors", len(result.Errors)),
		abstractlogger.Any("duration", duration),
	)
	return toResponse(result)
}

// Subscribe starts a subscription operation. Exactly one of the returned
// values is non-nil. The operation stays open, for events and tracing, until
// the subscription ends or is closed.
func (e *Engine) Subscribe(ctx context.Context, req Request) (*Subscription, *Response) {
	ctx, rid := reqid.NewContext(ctx)

	doc, errRes := e.load(req)
	if errRes != nil {
		return nil, errRes
	}
	opType := operationType(doc, req.OperationName)

	start := time.Now()
	eventbus.Publish(ctx, e.opt.Bus, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	stream, result := e.exec.Subscribe(ctx, doc, req.OperationName, req.Variables)
	if result != nil {
		eventbus.Publish(ctx, e.opt.Bus, events.GraphQLFinish{
			Query:         req.Query,
			OperationName: req.OperationName,
			OperationType: opType,
			Errors:        resultErrors(result),
			Duration:      time.Since(start),
		})
		return nil, toResponse(result)
	}

	e.opt.Logger.Debug("graphql subscription started",
		abstractlogger.Any("request_id", rid),
		abstractlogger.String("operation", req.OperationName),
	)
	return &Subscription{
		ctx:    ctx,
		rid:    rid,
		stream: stream,
		bus:    e.opt.Bus,
		req:    req,
		opType: opType,
		start:  start,
		field:  rootField(doc, req.OperationName),
	}, nil
}

func rootField(doc *language.QueryDocument, name string) string {
	op := findOperation(doc, name)
	if op == nil {
		return ""
	}
	for _, sel := range op.SelectionSet {
		if f, ok := sel.(*language.Field); ok {
			return f.Name
		}
	}
	return ""
}

func resultErrors(result *executor.ExecutionResult) []error {
	if result == nil {
		return nil
	}
	errs := make([]error, len(result.Errors))
	for i := range result.Errors {
		errs[i] = result.Errors[i]
	}
	return errs
}

// Subscription is a running subscription. Next and Close follow the
// executor's ResultStream contract.
type Subscription struct {
	ctx    context.Context
	rid    int64
	stream *executor.ResultStream
	bus    *eventbus.Bus
	req    Request
	opType string
	start  time.Time
	field  string

	finishOnce sync.Once
}

// Next waits for the next event and returns its response. ok is false once
// the subscription has ended; a source failure is returned as err. The event
// is resolved under ctx tagged with the subscription's request ID.
func (s *Subscription) Next(ctx context.Context) (*Response, bool, error) {
	ctx = reqid.WithID(ctx, s.rid)
	start := time.Now()
	result, ok, err := s.stream.Next(ctx)
	if err != nil {
		s.finish(err)
		return nil, false, fmt.Errorf("subscription %s: %w", s.field, err)
	}
	if !ok {
		s.finish(nil)
		return nil, false, nil
	}
	eventbus.Publish(ctx, s.bus, events.SubscriptionEvent{
		OperationName: s.req.OperationName,
		Field:         s.field,
		Errors:        resultErrors(result),
		Duration:      time.Since(start),
	})
	return toResponse(result), true, nil
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() error {
	err := s.stream.Close()
	s.finish(nil)
	return err
}

// finish publishes GraphQLFinish for the whole subscription, once.
func (s *Subscription) finish(err error) {
	s.finishOnce.Do(func() {
		var errs []error
		if err != nil {
			errs = []error{err}
		}
		eventbus.Publish(s.ctx, s.bus, events.GraphQLFinish{
			Query:         s.req.Query,
			OperationName: s.req.OperationName,
			OperationType: s.opType,
			Errors:        errs,
			Duration:      time.Since(s.start),
		})
	})
}
