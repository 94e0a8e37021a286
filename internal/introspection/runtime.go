// Package introspection answers the __schema and __type meta fields by
// wrapping another executor.Runtime.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	executor "github.com/nrf110/effect-graphql/internal/executor"
	schema "github.com/nrf110/effect-graphql/internal/schema"
)

// Wrapper holds the wrapping runtime and the schema extended with the
// introspection types. Both must be handed to the same executor.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap extends sch with introspection types and returns a runtime that
// resolves meta fields itself and delegates everything else to base.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	extended := extend(sch)
	return &Wrapper{
		Runtime: &runtime{base: base, described: sch, extended: extended},
		Schema:  extended,
	}
}

type runtime struct {
	base      executor.Runtime
	described *schema.Schema // what introspection queries report on
	extended  *schema.Schema
}

var _ executor.Runtime = (*runtime)(nil)

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if strings.HasPrefix(objectType, "__") {
		return r.resolveMeta(source, field, args)
	}
	if objectType == r.extended.QueryType {
		switch field {
		case "__schema":
			return r.described, nil
		case "__type":
			name, _ := args["name"].(string)
			if t := r.described.Types[name]; t != nil {
				return t, nil
			}
			return nil, nil
		}
	}
	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	if strings.HasPrefix(typ, "__") {
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

func (r *runtime) SubscribeField(ctx context.Context, objectType string, field string, args map[string]any) (schema.EventStream, error) {
	return r.base.SubscribeField(ctx, objectType, field, args)
}

func (r *runtime) resolveMeta(source any, field string, args map[string]any) (any, error) {
	var (
		v     any
		found bool
	)
	switch src := source.(type) {
	case *schema.Schema:
		v, found = schemaField(src, field)
	case *schema.Type:
		v, found = typeField(r.described, src, field, args)
	case *schema.TypeRef:
		v, found = typeRefField(r.described, src, field, args)
	case *schema.Field:
		v, found = fieldField(src, field, args)
	case *schema.InputValue:
		v, found = inputValueField(src, field)
	case *schema.EnumValue:
		v, found = enumValueField(src, field)
	case *schema.Directive:
		v, found = directiveField(src, field, args)
	}
	if !found {
		return nil, fmt.Errorf("introspection: cannot resolve %s on %T", field, source)
	}
	return v, nil
}

func byName[T any](items []T, name func(T) string) []T {
	sort.Slice(items, func(i, j int) bool { return name(items[i]) < name(items[j]) })
	return items
}

func withDeprecated(args map[string]any) bool {
	b, _ := args["includeDeprecated"].(bool)
	return b
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func schemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return byName(lo.Values(sch.Types), func(t *schema.Type) string { return t.Name }), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return sch.GetMutationType(), true
	case "subscriptionType":
		return sch.GetSubscriptionType(), true
	case "directives":
		return byName(lo.Values(sch.Directives), func(d *schema.Directive) string { return d.Name }), true
	case "description":
		return sch.Description, true
	}
	return nil, false
}

func typeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "isOneOf":
		return false, true
	case "ofType":
		// LIST and NON_NULL are TypeRef nodes; a named type has no ofType.
		return nil, true
	case "fields":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		fields := lo.Filter(t.Fields(), func(f *schema.Field, _ int) bool {
			return withDeprecated(args) || !f.IsDeprecated
		})
		return fields, true
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		return lookupTypes(sch, t.Interfaces), true
	case "possibleTypes":
		if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			return nil, true
		}
		return lookupTypes(sch, t.PossibleTypes), true
	case "enumValues":
		if t.Kind != schema.TypeKindEnum {
			return nil, true
		}
		return lo.Filter(t.EnumValues, func(v *schema.EnumValue, _ int) bool {
			return withDeprecated(args) || !v.IsDeprecated
		}), true
	case "inputFields":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return lo.Filter(t.InputFields(), func(v *schema.InputValue, _ int) bool {
			return withDeprecated(args) || !v.IsDeprecated
		}), true
	}
	return nil, false
}

func lookupTypes(sch *schema.Schema, names []string) []*schema.Type {
	out := lo.FilterMap(names, func(name string, _ int) (*schema.Type, bool) {
		t := sch.Types[name]
		return t, t != nil
	})
	return byName(out, func(t *schema.Type) string { return t.Name })
}

func typeRefField(sch *schema.Schema, ref *schema.TypeRef, field string, args map[string]any) (any, bool) {
	if ref.Kind == schema.TypeRefKindNamed {
		def := ref.Def
		if def == nil {
			def = sch.Types[ref.Named]
		}
		if def == nil {
			return nil, true
		}
		return typeField(sch, def, field, args)
	}
	switch field {
	case "kind":
		return string(ref.Kind), true
	case "ofType":
		return ref.OfType, true
	case "name", "description", "specifiedByURL", "isOneOf",
		"fields", "interfaces", "possibleTypes", "enumValues", "inputFields":
		return nil, true
	}
	return nil, false
}

func fieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "args":
		return lo.Filter(f.Arguments, func(a *schema.InputValue, _ int) bool {
			return withDeprecated(args) || !a.IsDeprecated
		}), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func inputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return fmt.Sprintf("%v", a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func enumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func directiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := append([]string(nil), d.Locations...)
		sort.Strings(locs)
		return locs, true
	case "args":
		return lo.Filter(d.Arguments, func(a *schema.InputValue, _ int) bool {
			return withDeprecated(args) || !a.IsDeprecated
		}), true
	}
	return nil, false
}
