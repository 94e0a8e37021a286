// Package lookup builds the reverse-lookup cache used by type resolution:
// from schema nodes to the names they were registered under, and from
// literal and tag sets to enums and unions.
//
// A cache is built once per compile pass from a complete registry snapshot
// and is read-only afterwards.
package lookup

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/shape"
)

type Category int

const (
	Object Category = iota
	Interface
	Enum
	Union
	Input
)

func (c Category) String() string {
	switch c {
	case Object:
		return "object"
	case Interface:
		return "interface"
	case Enum:
		return "enum"
	case Union:
		return "union"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// Entry names a registered type.
type Entry struct {
	Category Category
	Name     string
}

type Cache struct {
	output        map[shape.Node]Entry
	input         map[shape.Node]Entry
	outputIdent   map[string]Entry
	inputIdent    map[string]Entry
	literalToEnum map[string]string
	enumSets      map[string]string
	unionSets     map[string]string
}

// maxUnwrap bounds how many wrapper layers are indexed per registration.
const maxUnwrap = 16

// Build indexes every registration of snap.
func Build(snap *registry.Snapshot) *Cache {
	c := &Cache{
		output:        make(map[shape.Node]Entry),
		input:         make(map[shape.Node]Entry),
		outputIdent:   make(map[string]Entry),
		inputIdent:    make(map[string]Entry),
		literalToEnum: make(map[string]string),
		enumSets:      make(map[string]string),
		unionSets:     make(map[string]string),
	}

	for _, o := range snap.Objects {
		c.addOutput(o.Schema, Entry{Object, o.Name})
	}
	for _, i := range snap.Interfaces {
		c.addOutput(i.Schema, Entry{Interface, i.Name})
	}
	for _, u := range snap.Unions {
		c.addOutput(u.Schema, Entry{Union, u.Name})
		setKey := CanonicalKey(u.Members)
		if _, exists := c.unionSets[setKey]; !exists {
			c.unionSets[setKey] = u.Name
		}
	}
	for _, e := range snap.Enums {
		entry := Entry{Enum, e.Name}
		c.addOutput(e.Schema, entry)
		c.addInput(e.Schema, entry)
		for _, v := range e.Values {
			if _, exists := c.literalToEnum[v]; !exists {
				c.literalToEnum[v] = e.Name
			}
		}
		setKey := CanonicalKey(e.Values)
		if _, exists := c.enumSets[setKey]; !exists {
			c.enumSets[setKey] = e.Name
		}
	}
	for _, in := range snap.Inputs {
		c.addInput(in.Schema, Entry{Input, in.Name})
	}
	return c
}

// addOutput indexes n and the forms it unwraps to on the output side.
func (c *Cache) addOutput(n shape.Node, e Entry) {
	if n == nil {
		return
	}
	if id := shape.IdentifierOf(n); id != "" {
		if _, exists := c.outputIdent[id]; !exists {
			c.outputIdent[id] = e
		}
	}
	for depth := 0; n != nil && depth < maxUnwrap; depth++ {
		if _, exists := c.output[n]; !exists {
			c.output[n] = e
		}
		n = unwrap(n, false)
	}
}

// addInput indexes n and the forms it unwraps to on the input side.
func (c *Cache) addInput(n shape.Node, e Entry) {
	if n == nil {
		return
	}
	if id := inputIdentifier(n); id != "" {
		if _, exists := c.inputIdent[id]; !exists {
			c.inputIdent[id] = e
		}
	}
	for depth := 0; n != nil && depth < maxUnwrap; depth++ {
		if _, exists := c.input[n]; !exists {
			c.input[n] = e
		}
		n = unwrap(n, true)
	}
}

// unwrap returns the next intermediate form of n: the internal side of a
// transformation for outputs or its external side for inputs, the inner
// parameter of a declaration, or the target of a suspension.
func unwrap(n shape.Node, input bool) shape.Node {
	switch v := n.(type) {
	case *shape.Transformation:
		if input {
			return v.From
		}
		return v.To
	case *shape.Declaration:
		if len(v.Params) == 0 {
			return nil
		}
		return v.Params[0]
	case *shape.Suspend:
		return v.Force()
	}
	return nil
}

func inputIdentifier(n shape.Node) string {
	if id := n.Annotations().Identifier; id != "" {
		return id
	}
	if t, ok := n.(*shape.Transformation); ok && t.From != nil {
		return inputIdentifier(t.From)
	}
	return ""
}

// Output returns the registration n stands for in a result position,
// matching first by identity and then by identifier annotation.
func (c *Cache) Output(n shape.Node) (Entry, bool) {
	if n == nil {
		return Entry{}, false
	}
	if e, ok := c.output[n]; ok {
		return e, true
	}
	if id := shape.IdentifierOf(n); id != "" {
		e, ok := c.outputIdent[id]
		return e, ok
	}
	return Entry{}, false
}

// Input is Output for argument and input field positions.
func (c *Cache) Input(n shape.Node) (Entry, bool) {
	if n == nil {
		return Entry{}, false
	}
	if e, ok := c.input[n]; ok {
		return e, true
	}
	if id := inputIdentifier(n); id != "" {
		e, ok := c.inputIdent[id]
		return e, ok
	}
	return Entry{}, false
}

// IdentifierName returns the output registration carrying identifier id.
func (c *Cache) IdentifierName(id string) (Entry, bool) {
	e, ok := c.outputIdent[id]
	return e, ok
}

// EnumByLiteral returns the enum that declares value.
func (c *Cache) EnumByLiteral(value any) (string, bool) {
	name, ok := c.literalToEnum[shape.LiteralKey(value)]
	return name, ok
}

// EnumBySet returns the enum whose value set equals values, in any order.
func (c *Cache) EnumBySet(values []any) (string, bool) {
	keys := lo.Map(values, func(v any, _ int) string { return shape.LiteralKey(v) })
	name, ok := c.enumSets[CanonicalKey(keys)]
	return name, ok
}

// UnionBySet returns the union whose member names equal tags, in any order.
func (c *Cache) UnionBySet(tags []string) (string, bool) {
	name, ok := c.unionSets[CanonicalKey(tags)]
	return name, ok
}

// CanonicalKey renders a set of strings as a sorted, deduplicated key.
func CanonicalKey(values []string) string {
	set := lo.Uniq(values)
	sorted := make([]string, len(set))
	copy(sorted, set)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
