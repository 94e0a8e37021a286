package pipeline

import (
	"context"
	"fmt"

	"github.com/nrf110/effect-graphql/internal/option"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/stream"
)

// Pipeline holds the directive transformers and the global middleware that
// field handlers are composed from.
type Pipeline struct {
	directives map[string]DirectiveFunc
	middleware []Middleware
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDirective registers the transformer of a directive. A directive with
// no transformer is accepted and has no runtime effect.
func WithDirective(name string, fn DirectiveFunc) Option {
	return func(p *Pipeline) { p.directives[name] = fn }
}

// WithMiddleware appends middleware. Registration order is significant.
func WithMiddleware(m ...Middleware) Option {
	return func(p *Pipeline) { p.middleware = append(p.middleware, m...) }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{directives: make(map[string]DirectiveFunc)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Application is a directive attached to a field, with its arguments.
type Application struct {
	Name string
	Args map[string]any
}

// FieldSpec describes a field whose handler is to be built.
type FieldSpec struct {
	TypeName   string
	FieldName  string
	Resolve    Resolver
	Directives []Application
	// EncodeOption converts an Option result to its nullable form. It is set
	// when the declared return shape is or wraps the optional-value container.
	EncodeOption bool
}

// SubscriptionSpec describes a subscription root field.
type SubscriptionSpec struct {
	TypeName  string
	FieldName string
	Subscribe func(ctx context.Context, info Info) (stream.Source, error)
	// Resolve maps each event to the field value; Info.Parent is the event.
	// Nil means the event itself is the value.
	Resolve      Resolver
	Directives   []Application
	EncodeOption bool
}

func (p *Pipeline) transformers(apps []Application) []Transformer {
	out := make([]Transformer, 0, len(apps))
	for _, app := range apps {
		fn, ok := p.directives[app.Name]
		if !ok || fn == nil {
			continue
		}
		out = append(out, fn(app.Args))
	}
	return out
}

// Handler builds the executable resolver of a field.
func (p *Pipeline) Handler(spec FieldSpec) schema.ResolveFunc {
	directives := p.transformers(spec.Directives)
	resolve := spec.Resolve
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		info := Info{
			FieldName:      spec.FieldName,
			ParentTypeName: spec.TypeName,
			Parent:         source,
			Args:           args,
		}
		run := Compose(func(ctx context.Context) (any, error) {
			return resolve(ctx, info)
		}, directives, p.middleware, info)

		v, err := run(ctx)
		if err != nil {
			return nil, err
		}
		if spec.EncodeOption {
			return option.Encode(v), nil
		}
		return v, nil
	}
}

// SubscribeHandler builds the subscribe step of a subscription field. The
// step runs inside the global middleware; directives apply to the per-event
// resolve built by SubscriptionResolve.
func (p *Pipeline) SubscribeHandler(spec SubscriptionSpec) schema.SubscribeFunc {
	subscribe := spec.Subscribe
	return func(ctx context.Context, args map[string]any) (schema.EventStream, error) {
		info := Info{
			FieldName:      spec.FieldName,
			ParentTypeName: spec.TypeName,
			Args:           args,
		}
		run := Compose(func(ctx context.Context) (any, error) {
			return subscribe(ctx, info)
		}, nil, p.middleware, info)

		v, err := run(ctx)
		if err != nil {
			return nil, err
		}
		src, ok := v.(stream.Source)
		if !ok {
			return nil, fmt.Errorf("subscription %s.%s: subscribe produced %T, want stream.Source", spec.TypeName, spec.FieldName, v)
		}
		return stream.Adapt(ctx, src), nil
	}
}

// SubscriptionResolve builds the per-event resolver of a subscription field.
func (p *Pipeline) SubscriptionResolve(spec SubscriptionSpec) schema.ResolveFunc {
	resolve := spec.Resolve
	if resolve == nil {
		resolve = func(_ context.Context, info Info) (any, error) { return info.Parent, nil }
	}
	return p.Handler(FieldSpec{
		TypeName:     spec.TypeName,
		FieldName:    spec.FieldName,
		Resolve:      resolve,
		Directives:   spec.Directives,
		EncodeOption: spec.EncodeOption,
	})
}
