package registry

import "github.com/samber/lo"

// Snapshot is the frozen content of a Builder, in registration order.
type Snapshot struct {
	Objects       []ObjectType
	Interfaces    []InterfaceType
	Enums         []EnumType
	Unions        []UnionType
	Inputs        []InputType
	Directives    []Directive
	Middleware    []Middleware
	Queries       []Field
	Mutations     []Field
	Subscriptions []Subscription
	ObjectFields  []ObjectField
}

func (s *Snapshot) Object(name string) (ObjectType, bool) {
	return lo.Find(s.Objects, func(o ObjectType) bool { return o.Name == name })
}

func (s *Snapshot) Interface(name string) (InterfaceType, bool) {
	return lo.Find(s.Interfaces, func(o InterfaceType) bool { return o.Name == name })
}

func (s *Snapshot) Union(name string) (UnionType, bool) {
	return lo.Find(s.Unions, func(o UnionType) bool { return o.Name == name })
}

func (s *Snapshot) Directive(name string) (Directive, bool) {
	return lo.Find(s.Directives, func(o Directive) bool { return o.Name == name })
}

// FieldsOf returns the ObjectField registrations of the named type.
func (s *Snapshot) FieldsOf(typeName string) []Field {
	return lo.FilterMap(s.ObjectFields, func(f ObjectField, _ int) (Field, bool) {
		return f.Field, f.Type == typeName
	})
}

// Len is the total number of named type registrations.
func (s *Snapshot) Len() int {
	return len(s.Objects) + len(s.Interfaces) + len(s.Enums) + len(s.Unions) + len(s.Inputs)
}
