package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// coerceVariableValues coerces the provided variables against the
// operation's variable definitions. Absent variables take their default or
// stay absent; a missing required variable is an error.
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	provided map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	for _, def := range operation.VariableDefinitions {
		name, t := def.Variable, def.Type
		v, ok := provided[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				v, _ = inputValue(def.DefaultValue, nil)
			case t.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t)
			default:
				continue
			}
		}
		if v == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t)
		}
		cv, err := coerceValue(sch, v, typeRef(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

func typeRef(t *language.Type) *schema.TypeRef {
	var ref *schema.TypeRef
	if t.Elem != nil {
		ref = schema.ListType(typeRef(t.Elem))
	} else {
		ref = schema.NamedType(t.NamedType)
	}
	if t.NonNull {
		return schema.NonNullType(ref)
	}
	return ref
}

// arguments coerces the arguments of one field. A failure is recorded as a
// located error and the argument is left out.
func (x *execution) arguments(def *schema.Field, args language.ArgumentList, path Path) map[string]any {
	out := make(map[string]any, len(def.Arguments))
	for _, a := range def.Arguments {
		var (
			v  any
			ok bool
		)
		if arg := args.ForName(a.Name); arg != nil {
			v, ok = inputValue(arg.Value, x.variables)
		}
		if !ok {
			if a.DefaultValue != nil {
				out[a.Name] = a.DefaultValue
			} else if schema.IsNonNull(a.Type) {
				x.addError(fmt.Sprintf("argument '%s' of required type was not provided", a.Name), path)
			}
			continue
		}
		cv, err := coerceValue(x.schema, v, a.Type)
		if err != nil {
			x.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", a.Name, err), path)
			continue
		}
		out[a.Name] = cv
	}
	return out
}

// inputValue converts a literal to its Go form, substituting variables at
// any depth. ok is false for a variable that was not provided; inside an
// object such a field is left out so its default applies.
func inputValue(v *language.Value, variables map[string]any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch v.Kind {
	case language.Variable:
		val, ok := variables[v.Raw]
		return val, ok
	case language.IntValue:
		n, _ := strconv.Atoi(v.Raw)
		return n, true
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f, true
	case language.BooleanValue:
		return v.Raw == "true", true
	case language.NullValue:
		return nil, true
	case language.ListValue:
		out := make([]any, len(v.Children))
		for i, c := range v.Children {
			out[i], _ = inputValue(c.Value, variables)
		}
		return out, true
	case language.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			if val, ok := inputValue(c.Value, variables); ok {
				out[c.Name] = val
			}
		}
		return out, true
	}
	// String, block string and enum literals keep their raw text.
	return v.Raw, true
}

// coerceValue coerces an input value to t. Named types are looked up in sch
// when the reference does not carry its definition.
func coerceValue(sch *schema.Schema, v any, t *schema.TypeRef) (any, error) {
	if schema.IsNonNull(t) {
		if v == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(sch, v, schema.Unwrap(t))
	}
	if v == nil {
		return nil, nil
	}
	if schema.IsList(t) {
		item := schema.Unwrap(t)
		items, ok := v.([]any)
		if !ok {
			// A single value is a list of one.
			items = []any{v}
		}
		out := make([]any, len(items))
		for i, it := range items {
			c, err := coerceValue(sch, it, item)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}

	name := schema.GetNamedType(t)
	def := t.NamedDef()
	if def == nil && sch != nil {
		def = sch.Types[name]
	}
	if def != nil {
		switch def.Kind {
		case schema.TypeKindEnum:
			s, ok := v.(string)
			if !ok || !def.HasEnumValue(s) {
				return nil, fmt.Errorf("value %v is not a member of enum %s", v, def.Name)
			}
			return s, nil
		case schema.TypeKindInputObject:
			return coerceInputObject(sch, def, v)
		}
	}

	switch name {
	case schema.Int.Name:
		return coerceInt(v)
	case schema.Float.Name:
		return coerceFloat(v)
	case schema.String.Name:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.Boolean.Name:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.ID.Name:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if n, err := coerceInt(v); err == nil {
			return strconv.Itoa(n.(int)), nil
		}
	default:
		// Custom scalars pass through; their handlers parse them.
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to %s", v, v, name)
}

// coerceInputObject coerces a map to the fields of an input object type,
// applying defaults and rejecting unknown or missing required fields.
func coerceInputObject(sch *schema.Schema, input *schema.Type, v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", v, v, input.Name)
	}
	fields := input.InputFields()
	known := make(map[string]bool, len(fields))
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		known[f.Name] = true
		fv, present := m[f.Name]
		if !present {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("required field '%s' of input object %s was not provided", f.Name, input.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, fv, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of input object %s: %w", f.Name, input.Name, err)
		}
		out[f.Name] = cv
	}
	for name := range m {
		if !known[name] {
			return nil, fmt.Errorf("unknown field '%s' for input object %s", name, input.Name)
		}
	}
	return out, nil
}

// coerceInt accepts Go integers and integral floats, which is how JSON
// variables arrive, within the 32-bit range of GraphQL Int.
func coerceInt(v any) (any, error) {
	var n int64
	switch v := v.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("cannot coerce %v (%T) to int", v, v)
		}
		n = int64(v)
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to int", v, v)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("cannot coerce %d to int: out of 32-bit range", n)
	}
	return int(n), nil
}

func coerceFloat(v any) (any, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", v, v)
}
