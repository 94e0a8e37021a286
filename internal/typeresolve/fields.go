package typeresolve

import (
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
)

// FieldShape is one struct property resolved to a field type.
type FieldShape struct {
	Name        string
	Description string
	Node        shape.Node
	Type        *schema.TypeRef
	// EncodeOption is set when the property holds the optional-value
	// container, whose values must be encoded on the way out.
	EncodeOption bool
}

// StructOf finds the struct a registered schema describes, looking through
// transformations (internal side for outputs, external side for inputs),
// declarations and suspensions.
func StructOf(n shape.Node, input bool) (*shape.Struct, bool) {
	for depth := 0; n != nil && depth < maxDepth; depth++ {
		switch v := n.(type) {
		case *shape.Struct:
			return v, true
		case *shape.Transformation:
			if input {
				n = v.From
			} else {
				n = v.To
			}
		case *shape.Declaration:
			if len(v.Params) == 0 {
				return nil, false
			}
			n = v.Params[0]
		case *shape.Suspend:
			n = v.Force()
		default:
			return nil, false
		}
	}
	return nil, false
}

// Fields converts the struct behind n into field shapes, in declaration
// order, skipping the `_tag` discriminator. A field is non-null unless the
// property is optional or holds the optional-value container. path prefixes
// the locations reported in degradations.
func (e *Engine) Fields(n shape.Node, input bool, path string) []FieldShape {
	st, ok := StructOf(n, input)
	if !ok {
		return nil
	}
	out := make([]FieldShape, 0, len(st.Fields))
	for _, p := range st.Fields {
		if p.Name == shape.TagKey || p.Type == nil {
			continue
		}
		fieldPath := p.Name
		if path != "" {
			fieldPath = path + "." + p.Name
		}
		var ref *schema.TypeRef
		if input {
			ref = e.InputAt(p.Type, fieldPath)
		} else {
			ref = e.OutputAt(p.Type, fieldPath)
		}
		isOption := shape.IsOption(p.Type)
		out = append(out, FieldShape{
			Name:         p.Name,
			Description:  p.Type.Annotations().Description,
			Node:         p.Type,
			Type:         FieldType(ref, p.Optional || isOption),
			EncodeOption: isOption,
		})
	}
	return out
}

// FieldType wraps ref in Non-Null unless nullable.
func FieldType(ref *schema.TypeRef, nullable bool) *schema.TypeRef {
	if nullable {
		return ref
	}
	return schema.NonNullType(ref)
}

// Nullable reports whether a value of shape n may be absent: n is or wraps
// the optional-value container.
func Nullable(n shape.Node) bool { return shape.IsOption(n) }
