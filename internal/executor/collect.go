package executor

import (
	"slices"

	language "github.com/nrf110/effect-graphql/internal/language"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// fieldGroup holds the field nodes that share one response name.
type fieldGroup struct {
	name   string
	fields []*language.Field
}

// collectFields groups the fields selected on t by response name, in
// document order. Fragments are expanded when their type condition applies
// to t; each named fragment is expanded once.
func (x *execution) collectFields(t *schema.Type, selectionSet language.SelectionSet) []fieldGroup {
	var groups []fieldGroup
	index := make(map[string]int)
	expanded := make(map[string]bool)

	var walk func(language.SelectionSet)
	walk = func(selectionSet language.SelectionSet) {
		for _, sel := range selectionSet {
			switch sel := sel.(type) {
			case *language.Field:
				if !x.included(sel.Directives) {
					continue
				}
				name := sel.Alias
				if name == "" {
					name = sel.Name
				}
				if i, ok := index[name]; ok {
					groups[i].fields = append(groups[i].fields, sel)
					continue
				}
				index[name] = len(groups)
				groups = append(groups, fieldGroup{name: name, fields: []*language.Field{sel}})
			case *language.InlineFragment:
				if x.included(sel.Directives) && x.applies(t, sel.TypeCondition) {
					walk(sel.SelectionSet)
				}
			case *language.FragmentSpread:
				if !x.included(sel.Directives) || expanded[sel.Name] {
					continue
				}
				expanded[sel.Name] = true
				def := x.document.Fragments.ForName(sel.Name)
				if def != nil && x.included(def.Directives) && x.applies(t, def.TypeCondition) {
					walk(def.SelectionSet)
				}
			}
		}
	}
	walk(selectionSet)
	return groups
}

// included evaluates @skip and @include.
func (x *execution) included(directives language.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil && x.condition(d) {
		return false
	}
	if d := directives.ForName("include"); d != nil && !x.condition(d) {
		return false
	}
	return true
}

func (x *execution) condition(d *language.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	v, _ := inputValue(arg.Value, x.variables)
	b, _ := v.(bool)
	return b
}

// applies reports whether a type condition names t, an interface t
// implements or a union t belongs to.
func (x *execution) applies(t *schema.Type, condition string) bool {
	if condition == "" || condition == t.Name || slices.Contains(t.Interfaces, condition) {
		return true
	}
	abstract := x.schema.Types[condition]
	if abstract == nil {
		return false
	}
	switch abstract.Kind {
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return slices.Contains(abstract.PossibleTypes, t.Name)
	}
	return false
}
