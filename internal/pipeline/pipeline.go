// Package pipeline builds the executable handler of a field: the user's
// resolver wrapped by field directives, then by global middleware, followed
// by optional-value encoding.
//
// Wrapping order is fixed. For directives [D0, D1] and middleware [M0, M1]
// the handler runs M0(M1(D0(D1(resolver)))): the first registered middleware
// is outermost and the first declared directive is the outermost directive.
package pipeline

import (
	"context"
)

// Computation is a deferred field computation.
type Computation func(ctx context.Context) (any, error)

// Info describes one field invocation. Middleware predicates match on it.
type Info struct {
	FieldName      string
	ParentTypeName string
	Parent         any
	Args           map[string]any
}

// Transformer wraps a computation in another one.
type Transformer func(Computation) Computation

// DirectiveFunc turns the arguments of one directive application into a
// transformer.
type DirectiveFunc func(args map[string]any) Transformer

// Middleware is a globally registered transformer. A nil Match matches every
// field.
type Middleware struct {
	Name  string
	Match func(Info) bool
	Apply func(next Computation, info Info) Computation
}

func (m Middleware) matches(info Info) bool {
	return m.Match == nil || m.Match(info)
}

// Resolver is the user's field logic.
type Resolver func(ctx context.Context, info Info) (any, error)

// Compose wraps resolver with directives and then middleware. Middleware
// whose predicate rejects info is left out of the chain entirely.
func Compose(resolver Computation, directives []Transformer, middleware []Middleware, info Info) Computation {
	c := resolver
	for i := len(directives) - 1; i >= 0; i-- {
		if directives[i] != nil {
			c = directives[i](c)
		}
	}
	for i := len(middleware) - 1; i >= 0; i-- {
		m := middleware[i]
		if m.Apply == nil || !m.matches(info) {
			continue
		}
		c = m.Apply(c, info)
	}
	return c
}
