package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// FieldGetter lets a parent value expose its properties without reflection.
type FieldGetter interface {
	GetField(name string) (any, bool)
}

// PropertyResolver returns the default resolver of a struct-derived field.
// It reads name from the parent value, which may be a FieldGetter, a map keyed
// by string, or a Go struct (or pointer to one). Struct fields match on their
// `graphql` tag first and then on their name, ignoring case.
func PropertyResolver(name string) Resolver {
	return func(_ context.Context, info Info) (any, error) {
		return property(info.Parent, name)
	}
}

func property(parent any, name string) (any, error) {
	switch p := parent.(type) {
	case nil:
		return nil, nil
	case FieldGetter:
		v, _ := p.GetField(name)
		return v, nil
	case map[string]any:
		return p[name], nil
	}

	rv := reflect.ValueOf(parent)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		idx, ok := structFieldIndex(rv.Type(), name)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", rv.Type(), name)
		}
		return rv.FieldByIndex(idx).Interface(), nil
	}
	return nil, fmt.Errorf("cannot read field %q of %T", name, parent)
}

type fieldKey struct {
	t    reflect.Type
	name string
}

var fieldIndexCache sync.Map // fieldKey -> []int

func structFieldIndex(t reflect.Type, name string) ([]int, bool) {
	key := fieldKey{t: t, name: name}
	if idx, ok := fieldIndexCache.Load(key); ok {
		return idx.([]int), idx.([]int) != nil
	}

	var found []int
	fields := reflect.VisibleFields(t)
	for _, f := range fields {
		if f.IsExported() && tagName(f) == name {
			found = f.Index
			break
		}
	}
	if found == nil {
		for _, f := range fields {
			if f.IsExported() && !f.Anonymous && tagName(f) == "" && strings.EqualFold(f.Name, name) {
				found = f.Index
				break
			}
		}
	}
	fieldIndexCache.Store(key, found)
	return found, found != nil
}

func tagName(f reflect.StructField) string {
	tag := f.Tag.Get("graphql")
	if i := strings.IndexByte(tag, ','); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
