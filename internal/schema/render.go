package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render prints s as SDL. Types and directives are sorted by name and the
// built-in scalars and directives are left out, so equal schemas print
// equal text.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{schema: s}
	w.schemaBlock()

	for _, name := range sortedKeys(s.Types) {
		t := s.Types[name]
		if IsBuiltinScalar(t) {
			continue
		}
		w.typeDef(t)
	}
	for _, name := range sortedKeys(s.Directives) {
		d := s.Directives[name]
		if IsBuiltinDirective(d) {
			continue
		}
		w.directiveDef(d)
	}
	return strings.TrimRight(w.b.String(), "\n") + "\n"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type sdlWriter struct {
	schema *Schema
	b      strings.Builder
}

func (w *sdlWriter) str(parts ...string) {
	for _, p := range parts {
		w.b.WriteString(p)
	}
}

// schemaBlock is printed only when a root type is not named after its
// operation.
func (w *sdlWriter) schemaBlock() {
	roots := [...]struct{ op, standard, name string }{
		{"query", "Query", w.schema.QueryType},
		{"mutation", "Mutation", w.schema.MutationType},
		{"subscription", "Subscription", w.schema.SubscriptionType},
	}
	custom := false
	for _, r := range roots {
		if r.name != "" && r.name != r.standard {
			custom = true
		}
	}
	if !custom {
		return
	}
	w.str("schema {\n")
	for _, r := range roots {
		if r.name != "" {
			w.str("  ", r.op, ": ", r.name, "\n")
		}
	}
	w.str("}\n\n")
}

func (w *sdlWriter) typeDef(t *Type) {
	w.description(t.Description, "")
	switch t.Kind {
	case TypeKindScalar:
		w.str("scalar ", t.Name)
		w.applied(t.Directives)
		if t.SpecifiedByURL != nil {
			w.str(" @specifiedBy(url: ", strconv.Quote(*t.SpecifiedByURL), ")")
		}
		w.str("\n\n")
	case TypeKindEnum:
		w.str("enum ", t.Name)
		w.applied(t.Directives)
		w.str(" {\n")
		for _, v := range t.EnumValues {
			w.description(v.Description, "  ")
			w.str("  ", v.Name)
			w.deprecated(v.IsDeprecated, v.DeprecationReason)
			w.str("\n")
		}
		w.str("}\n\n")
	case TypeKindInputObject:
		w.str("input ", t.Name)
		w.applied(t.Directives)
		w.str(" {\n")
		for _, f := range t.InputFields() {
			w.description(f.Description, "  ")
			w.str("  ")
			w.inputValue(f)
			w.deprecated(f.IsDeprecated, f.DeprecationReason)
			w.str("\n")
		}
		w.str("}\n\n")
	case TypeKindObject, TypeKindInterface:
		keyword := "type "
		if t.Kind == TypeKindInterface {
			keyword = "interface "
		}
		w.str(keyword, t.Name)
		if len(t.Interfaces) > 0 {
			w.str(" implements ", strings.Join(t.Interfaces, " & "))
		}
		w.applied(t.Directives)
		w.str(" {\n")
		for _, f := range t.Fields() {
			w.field(f)
		}
		w.str("}\n\n")
	case TypeKindUnion:
		w.str("union ", t.Name)
		w.applied(t.Directives)
		w.str(" = ", strings.Join(t.PossibleTypes, " | "), "\n\n")
	}
}

func (w *sdlWriter) field(f *Field) {
	w.description(f.Description, "  ")
	w.str("  ", f.Name)
	w.arguments(f.Arguments)
	w.str(": ", f.Type.String())
	w.applied(f.Directives)
	w.deprecated(f.IsDeprecated, f.DeprecationReason)
	w.str("\n")
}

func (w *sdlWriter) directiveDef(d *Directive) {
	w.description(d.Description, "")
	w.str("directive @", d.Name)
	w.arguments(d.Arguments)
	if d.IsRepeatable {
		w.str(" repeatable")
	}
	w.str(" on ", strings.Join(d.Locations, " | "), "\n\n")
}

func (w *sdlWriter) arguments(args []*InputValue) {
	if len(args) == 0 {
		return
	}
	w.str("(")
	for i, a := range args {
		if i > 0 {
			w.str(", ")
		}
		w.inputValue(a)
	}
	w.str(")")
}

func (w *sdlWriter) inputValue(v *InputValue) {
	w.str(v.Name, ": ", v.Type.String())
	if v.DefaultValue != nil {
		w.str(" = ", w.value(v.DefaultValue, v.Type))
	}
}

// applied prints directive applications with their arguments sorted by
// name.
func (w *sdlWriter) applied(directives []*AppliedDirective) {
	for _, d := range directives {
		w.str(" @", d.Name)
		if len(d.Args) == 0 {
			continue
		}
		def := w.schema.Directives[d.Name]
		parts := make([]string, 0, len(d.Args))
		for _, name := range sortedKeys(d.Args) {
			var t *TypeRef
			if def != nil {
				for _, a := range def.Arguments {
					if a.Name == name {
						t = a.Type
					}
				}
			}
			parts = append(parts, name+": "+w.value(d.Args[name], t))
		}
		w.str("(", strings.Join(parts, ", "), ")")
	}
}

func (w *sdlWriter) deprecated(is bool, reason string) {
	if !is {
		return
	}
	w.str(" @deprecated")
	if reason != "" {
		w.str("(reason: ", strconv.Quote(reason), ")")
	}
}

// description prints a block string. Only a triple quote needs escaping
// inside one.
func (w *sdlWriter) description(desc, indent string) {
	if desc == "" {
		return
	}
	w.str(indent, `"""`, "\n", indent, strings.ReplaceAll(desc, `"""`, `\"""`), "\n", indent, `"""`, "\n")
}

// value prints a literal. t, when known, decides whether a string is an
// enum value and prints bare.
func (w *sdlWriter) value(v any, t *TypeRef) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		if w.isEnum(t) {
			return v
		}
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		item := listItem(t)
		parts := make([]string, len(v))
		for i, it := range v {
			parts[i] = w.value(it, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		var fields []*InputValue
		if def := w.named(t); def != nil && def.Kind == TypeKindInputObject {
			fields = def.InputFields()
		}
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			var ft *TypeRef
			for _, f := range fields {
				if f.Name == k {
					ft = f.Type
				}
			}
			parts = append(parts, k+": "+w.value(v[k], ft))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// listItem is the item type of a list reference, looking through non-null.
func listItem(t *TypeRef) *TypeRef {
	if t != nil && t.Kind == TypeRefKindNonNull {
		t = t.OfType
	}
	if t == nil || t.Kind != TypeRefKindList {
		return nil
	}
	return t.OfType
}

func (w *sdlWriter) named(t *TypeRef) *Type {
	if t == nil {
		return nil
	}
	if def := t.NamedDef(); def != nil {
		return def
	}
	return w.schema.Types[t.GetNamedType()]
}

func (w *sdlWriter) isEnum(t *TypeRef) bool {
	def := w.named(t)
	return def != nil && def.Kind == TypeKindEnum
}
