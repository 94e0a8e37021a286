package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// Validate renders s to SDL and loads it with gqlparser, which checks the
// document against the GraphQL type system rules. The loaded schema is
// returned so that queries can be validated against it.
func Validate(s *Schema) (*ast.Schema, error) {
	sdl := Render(s)
	loaded, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl, BuiltIn: false})
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return loaded, nil
}
