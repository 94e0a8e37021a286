// Package typeresolve maps schema nodes to concrete GraphQL types.
//
// Registered names always win over structural inference. A node is resolved
// in this order:
//
//  1. registry lookup by identity, then by identifier annotation;
//  2. transformations: the internal side for outputs, the external side for
//     inputs;
//  3. unions: all-literal unions match an enum by value set, tagged unions
//     match a union by member set, otherwise the first member that is a
//     registered type, otherwise the first non-null member;
//  4. a single literal matches the enum declaring it;
//  5. lists and tuples become lists of their (nullable) element;
//  6. the optional-value container becomes its inner type, other
//     declarations their first parameter;
//  7. suspensions are forced and resolved;
//  8. primitives map to built-in scalars and anything else to String.
//
// Step 8 never fails. Each fallback of a shape that is not a primitive is
// recorded as a Degradation.
package typeresolve

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nrf110/effect-graphql/internal/lookup"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
)

// maxDepth bounds resolution of unregistered self-referential shapes.
const maxDepth = 64

// Degradation records a shape that fell back to String.
type Degradation struct {
	Path  string
	Shape string
	Input bool
}

func (d Degradation) String() string {
	side := "output"
	if d.Input {
		side = "input"
	}
	if d.Path == "" {
		return fmt.Sprintf("%s shape %s resolved to String", side, d.Shape)
	}
	return fmt.Sprintf("%s: %s shape %s resolved to String", d.Path, side, d.Shape)
}

// DegradationError is returned by Err in strict mode.
type DegradationError struct {
	Degradations []Degradation
}

func (e *DegradationError) Error() string {
	parts := make([]string, len(e.Degradations))
	for i, d := range e.Degradations {
		parts[i] = d.String()
	}
	return "unresolvable shapes: " + strings.Join(parts, "; ")
}

type Engine struct {
	cache  *lookup.Cache
	types  map[string]*schema.Type
	strict bool

	mu           sync.Mutex
	degradations []Degradation
}

type Option func(*Engine)

// WithStrict makes Err report recorded degradations.
func WithStrict(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// New returns an engine resolving against cache. types holds the named types
// of the schema under construction, keyed by name; cache entries must have a
// counterpart in it.
func New(cache *lookup.Cache, types map[string]*schema.Type, opts ...Option) *Engine {
	e := &Engine{cache: cache, types: types}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Output resolves n for a result position. The returned reference is never
// wrapped in Non-Null.
func (e *Engine) Output(n shape.Node) *schema.TypeRef { return e.OutputAt(n, "") }

// OutputAt is Output with the location reported in degradations.
func (e *Engine) OutputAt(n shape.Node, path string) *schema.TypeRef {
	return e.resolve(n, path, false, 0)
}

// Input resolves n for an argument or input field position.
func (e *Engine) Input(n shape.Node) *schema.TypeRef { return e.InputAt(n, "") }

func (e *Engine) InputAt(n shape.Node, path string) *schema.TypeRef {
	return e.resolve(n, path, true, 0)
}

// Degradations returns the fallbacks recorded so far.
func (e *Engine) Degradations() []Degradation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Degradation, len(e.degradations))
	copy(out, e.degradations)
	return out
}

func (e *Engine) Strict() bool { return e.strict }

// Err returns a *DegradationError in strict mode when any shape degraded.
func (e *Engine) Err() error {
	if !e.strict {
		return nil
	}
	if d := e.Degradations(); len(d) > 0 {
		return &DegradationError{Degradations: d}
	}
	return nil
}

func (e *Engine) degrade(n shape.Node, path string, input bool) *schema.TypeRef {
	e.mu.Lock()
	e.degradations = append(e.degradations, Degradation{Path: path, Shape: shape.Render(n), Input: input})
	e.mu.Unlock()
	return schema.String.Ref()
}

func (e *Engine) registered(n shape.Node, input bool) (*schema.TypeRef, bool) {
	var (
		entry lookup.Entry
		ok    bool
	)
	if input {
		entry, ok = e.cache.Input(n)
	} else {
		entry, ok = e.cache.Output(n)
	}
	if !ok {
		return nil, false
	}
	t := e.types[entry.Name]
	if t == nil {
		return nil, false
	}
	return t.Ref(), true
}

func (e *Engine) resolve(n shape.Node, path string, input bool, depth int) *schema.TypeRef {
	if n == nil {
		return e.degrade(n, path, input)
	}
	if depth > maxDepth {
		return e.degrade(n, path, input)
	}

	if ref, ok := e.registered(n, input); ok {
		return ref
	}

	switch v := n.(type) {
	case *shape.Transformation:
		if input {
			return e.resolve(v.From, path, input, depth+1)
		}
		return e.resolve(v.To, path, input, depth+1)

	case *shape.Union:
		return e.resolveUnion(v, path, input, depth)

	case *shape.Literal:
		if name, ok := e.cache.EnumByLiteral(v.Value); ok {
			if t := e.types[name]; t != nil {
				return t.Ref()
			}
		}
		if ref, ok := literalScalar(v.Value); ok {
			return ref
		}
		return e.degrade(n, path, input)

	case *shape.List:
		return schema.ListType(e.resolve(v.Elem, path, input, depth+1))

	case *shape.Tuple:
		if len(v.Elems) == 0 {
			return schema.ListType(e.degrade(n, path, input))
		}
		return schema.ListType(e.resolve(v.Elems[0], path, input, depth+1))

	case *shape.Declaration:
		if inner, ok := shape.OptionInner(v); ok {
			return e.resolve(inner, path, input, depth+1)
		}
		if len(v.Params) == 0 {
			return e.degrade(n, path, input)
		}
		return e.resolve(v.Params[0], path, input, depth+1)

	case *shape.Suspend:
		return e.resolve(v.Force(), path, input, depth+1)

	case *shape.Primitive:
		if ref, ok := primitiveScalar(v.Prim); ok {
			return ref
		}
	}
	return e.degrade(n, path, input)
}

func (e *Engine) resolveUnion(u *shape.Union, path string, input bool, depth int) *schema.TypeRef {
	members := nonNullMembers(u.Members)
	if len(members) == 0 {
		return e.degrade(u, path, input)
	}

	if values, ok := literalValues(members); ok {
		if name, ok := e.cache.EnumBySet(values); ok {
			if t := e.types[name]; t != nil {
				return t.Ref()
			}
		}
	}

	if !input {
		if tags, ok := memberTags(members); ok {
			if name, ok := e.cache.UnionBySet(tags); ok {
				if t := e.types[name]; t != nil {
					return t.Ref()
				}
			}
		}
	}

	for _, m := range members {
		if ref, ok := e.registered(m, input); ok {
			return ref
		}
	}

	return e.resolve(members[0], path, input, depth+1)
}

func nonNullMembers(members []shape.Node) []shape.Node {
	out := make([]shape.Node, 0, len(members))
	for _, m := range members {
		if lit, ok := m.(*shape.Literal); ok && lit.Value == nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

func literalValues(members []shape.Node) ([]any, bool) {
	values := make([]any, 0, len(members))
	for _, m := range members {
		lit, ok := m.(*shape.Literal)
		if !ok {
			return nil, false
		}
		values = append(values, lit.Value)
	}
	return values, true
}

func memberTags(members []shape.Node) ([]string, bool) {
	tags := make([]string, 0, len(members))
	for _, m := range members {
		tag := shape.Tag(m)
		if tag == "" {
			return nil, false
		}
		tags = append(tags, tag)
	}
	return tags, true
}

func primitiveScalar(k shape.PrimitiveKind) (*schema.TypeRef, bool) {
	switch k {
	case shape.String:
		return schema.String.Ref(), true
	case shape.Int:
		return schema.Int.Ref(), true
	case shape.Number:
		return schema.Float.Ref(), true
	case shape.Boolean:
		return schema.Boolean.Ref(), true
	case shape.ID:
		return schema.ID.Ref(), true
	}
	return nil, false
}

func literalScalar(v any) (*schema.TypeRef, bool) {
	switch v.(type) {
	case string:
		return schema.String.Ref(), true
	case bool:
		return schema.Boolean.Ref(), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return schema.Int.Ref(), true
	case float32, float64:
		return schema.Float.Ref(), true
	}
	return nil, false
}
