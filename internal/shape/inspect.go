package shape

import (
	"fmt"
	"strings"
)

// IsOption reports whether n is the optional-value container, directly or
// through a wrapper: the internal side of a transformation, a suspension, or
// the first parameter of any other declaration.
func IsOption(n Node) bool {
	for depth := 0; n != nil && depth < 16; depth++ {
		switch v := n.(type) {
		case *Declaration:
			if v.Constructor == OptionConstructor {
				return true
			}
			if len(v.Params) == 0 {
				return false
			}
			n = v.Params[0]
		case *Transformation:
			n = v.To
		case *Suspend:
			n = v.Force()
		default:
			return false
		}
	}
	return false
}

// OptionInner returns the type parameter of an optional-value container.
func OptionInner(n Node) (Node, bool) {
	d, ok := n.(*Declaration)
	if !ok || d.Constructor != OptionConstructor || len(d.Params) == 0 {
		return nil, false
	}
	return d.Params[0], true
}

// IdentifierOf returns the identifier annotation of n, looking through
// transformations to their internal side.
func IdentifierOf(n Node) string {
	if n == nil {
		return ""
	}
	if id := n.Annotations().Identifier; id != "" {
		return id
	}
	if t, ok := n.(*Transformation); ok {
		return IdentifierOf(t.To)
	}
	return ""
}

// Tag returns the discriminator of a union member: the `_tag` literal of a
// struct when present, otherwise its identifier.
func Tag(n Node) string {
	switch v := n.(type) {
	case *Struct:
		if p, ok := v.Property(TagKey); ok {
			if lit, ok := p.Type.(*Literal); ok {
				if s, ok := lit.Value.(string); ok {
					return s
				}
			}
		}
	case *Transformation:
		if id := v.ann.Identifier; id != "" {
			return id
		}
		return Tag(v.To)
	case *Suspend:
		if id := v.ann.Identifier; id != "" {
			return id
		}
		return Tag(v.Force())
	}
	return n.Annotations().Identifier
}

// LiteralKey renders a literal value in the canonical form used for set
// comparisons. Strings are their own key; other values are prefixed with
// their Go type so that 1, true and null never equal "1", "true" and "null".
func LiteralKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}

// Render returns a short human readable rendering of n, used in
// diagnostics.
func Render(n Node) string {
	var b strings.Builder
	render(&b, n, 0)
	return b.String()
}

func render(b *strings.Builder, n Node, depth int) {
	if depth > 4 {
		b.WriteString("…")
		return
	}
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	if id := n.Annotations().Identifier; id != "" && depth > 0 {
		b.WriteString(id)
		return
	}
	switch v := n.(type) {
	case *Primitive:
		b.WriteString(string(v.Prim))
	case *Struct:
		b.WriteString("{")
		for i, p := range v.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			if p.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			render(b, p.Type, depth+1)
		}
		b.WriteString("}")
	case *List:
		b.WriteString("Array<")
		render(b, v.Elem, depth+1)
		b.WriteString(">")
	case *Tuple:
		b.WriteString("[")
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, e, depth+1)
		}
		b.WriteString("]")
	case *Literal:
		switch x := v.Value.(type) {
		case nil:
			b.WriteString("null")
		case string:
			fmt.Fprintf(b, "%q", x)
		default:
			fmt.Fprint(b, x)
		}
	case *Union:
		for i, m := range v.Members {
			if i > 0 {
				b.WriteString(" | ")
			}
			render(b, m, depth+1)
		}
	case *Transformation:
		b.WriteString("(")
		render(b, v.From, depth+1)
		b.WriteString(" <-> ")
		render(b, v.To, depth+1)
		b.WriteString(")")
	case *Declaration:
		b.WriteString(v.Constructor)
		b.WriteString("<")
		for i, p := range v.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, p, depth+1)
		}
		b.WriteString(">")
	case *Suspend:
		b.WriteString("<suspended>")
	default:
		fmt.Fprintf(b, "%T", n)
	}
}
