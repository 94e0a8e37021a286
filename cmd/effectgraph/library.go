package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nrf110/effect-graphql/internal/option"
	"github.com/nrf110/effect-graphql/internal/pipeline"
	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/shape"
	"github.com/nrf110/effect-graphql/internal/stream"
)

// The demo schema: a small library catalogue.

type author struct {
	ID   string `graphql:"id"`
	Name string `graphql:"name"`
}

type book struct {
	Tag      string                `graphql:"_tag"`
	ID       string                `graphql:"id"`
	Title    string                `graphql:"title"`
	Status   string                `graphql:"status"`
	AuthorID string                `graphql:"-"`
	Subtitle option.Option[string] `graphql:"subtitle"`
}

type magazine struct {
	Tag   string `graphql:"_tag"`
	ID    string `graphql:"id"`
	Title string `graphql:"title"`
	Issue int    `graphql:"issue"`
}

var (
	statusShape = shape.Literals("AVAILABLE", "BORROWED", "LOST")

	nodeShape = shape.Named(shape.StructOf(shape.Field("id", shape.IDType())), "Node")

	authorShape shape.Node
	bookShape   shape.Node

	magazineShape = shape.Tagged("Magazine",
		shape.Field("id", shape.IDType()),
		shape.Field("title", shape.StringType()),
		shape.Field("issue", shape.IntType()),
	)

	bookFilterShape = shape.Named(shape.StructOf(
		shape.OptionalField("title", shape.StringType()),
		shape.OptionalField("status", statusShape),
	), "BookFilter")
)

func init() {
	authorShape = shape.Describe(shape.Named(shape.StructOf(
		shape.Field("id", shape.IDType()),
		shape.Field("name", shape.StringType()),
	), "Author"), "A person who wrote at least one book.")

	bookShape = shape.Tagged("Book",
		shape.Field("id", shape.IDType()),
		shape.Field("title", shape.StringType()),
		shape.Field("subtitle", shape.Option(shape.StringType())),
		shape.Field("status", statusShape),
	)
}

type library struct {
	authors map[string]author
	books   []book
	issues  []magazine
}

func newLibrary() *library {
	return &library{
		authors: map[string]author{
			"a1": {ID: "a1", Name: "Ursula K. Le Guin"},
			"a2": {ID: "a2", Name: "Stanisław Lem"},
		},
		books: []book{
			{Tag: "Book", ID: "b1", Title: "The Dispossessed", Status: "AVAILABLE", AuthorID: "a1",
				Subtitle: option.Some("An Ambiguous Utopia")},
			{Tag: "Book", ID: "b2", Title: "The Left Hand of Darkness", Status: "BORROWED", AuthorID: "a1",
				Subtitle: option.None[string]()},
			{Tag: "Book", ID: "b3", Title: "Solaris", Status: "AVAILABLE", AuthorID: "a2",
				Subtitle: option.None[string]()},
		},
		issues: []magazine{{Tag: "Magazine", ID: "m1", Title: "Analog", Issue: 42}},
	}
}

func (l *library) filter(f map[string]any) []book {
	out := []book{}
	for _, b := range l.books {
		if title, ok := f["title"].(string); ok && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(title)) {
			continue
		}
		if status, ok := f["status"].(string); ok && b.Status != status {
			continue
		}
		out = append(out, b)
	}
	return out
}

// upper is the transformer of the @upper directive.
func upper(map[string]any) pipeline.Transformer {
	return func(next pipeline.Computation) pipeline.Computation {
		return func(ctx context.Context) (any, error) {
			v, err := next(ctx)
			if s, ok := v.(string); ok {
				return strings.ToUpper(s), err
			}
			return v, err
		}
	}
}

// registerLibrary adds the demo types and root fields to b.
func registerLibrary(b *registry.Builder, l *library, tick time.Duration) *registry.Builder {
	return b.
		EnumType(registry.EnumType{Name: "Status", Values: []string{"AVAILABLE", "BORROWED", "LOST"}}).
		InterfaceType(registry.InterfaceType{Schema: nodeShape}).
		ObjectType(registry.ObjectType{Schema: authorShape, Interfaces: []string{"Node"}}).
		ObjectType(registry.ObjectType{Schema: bookShape, Interfaces: []string{"Node"}}).
		ObjectType(registry.ObjectType{Schema: magazineShape, Interfaces: []string{"Node"}}).
		UnionType(registry.UnionType{Name: "Publication", Members: []string{"Book", "Magazine"}}).
		InputType(registry.InputType{Schema: bookFilterShape}).
		Directive(registry.Directive{
			Name:        "upper",
			Description: "Upper-cases the string result of a field.",
			Locations:   []string{"FIELD_DEFINITION"},
			Apply:       upper,
		}).
		ObjectField(registry.ObjectField{Type: "Book", Field: registry.Field{
			Name:    "author",
			Returns: authorShape,
			Resolve: func(_ context.Context, info pipeline.Info) (any, error) {
				return l.authors[info.Parent.(book).AuthorID], nil
			},
		}}).
		ObjectField(registry.ObjectField{Type: "Author", Field: registry.Field{
			Name:    "books",
			Returns: shape.ListOf(bookShape),
			Resolve: func(_ context.Context, info pipeline.Info) (any, error) {
				id := info.Parent.(author).ID
				out := []book{}
				for _, b := range l.books {
					if b.AuthorID == id {
						out = append(out, b)
					}
				}
				return out, nil
			},
		}}).
		ObjectField(registry.ObjectField{Type: "Author", Field: registry.Field{
			Name:       "shout",
			Returns:    shape.StringType(),
			Directives: []pipeline.Application{{Name: "upper"}},
			Resolve: func(_ context.Context, info pipeline.Info) (any, error) {
				return info.Parent.(author).Name, nil
			},
		}}).
		Query(registry.Field{
			Name:    "books",
			Args:    shape.StructOf(shape.Field("filter", shape.Option(bookFilterShape))),
			Returns: shape.ListOf(bookShape),
			Resolve: func(_ context.Context, info pipeline.Info) (any, error) {
				f, _ := option.Encode(info.Args["filter"]).(map[string]any)
				return l.filter(f), nil
			},
		}).
		Query(registry.Field{
			Name:    "authors",
			Returns: shape.ListOf(authorShape),
			Resolve: func(context.Context, pipeline.Info) (any, error) {
				ids := make([]string, 0, len(l.authors))
				for id := range l.authors {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				out := make([]author, len(ids))
				for i, id := range ids {
					out[i] = l.authors[id]
				}
				return out, nil
			},
		}).
		Query(registry.Field{
			Name:    "publications",
			Returns: shape.ListOf(shape.UnionOf(bookShape, magazineShape)),
			Resolve: func(context.Context, pipeline.Info) (any, error) {
				out := make([]any, 0, len(l.books)+len(l.issues))
				for _, b := range l.books {
					out = append(out, b)
				}
				for _, m := range l.issues {
					out = append(out, m)
				}
				return out, nil
			},
		}).
		Mutation(registry.Field{
			Name:    "borrow",
			Args:    shape.StructOf(shape.Field("id", shape.IDType())),
			Returns: bookShape,
			Resolve: func(_ context.Context, info pipeline.Info) (any, error) {
				id := info.Args["id"].(string)
				for i := range l.books {
					if l.books[i].ID != id {
						continue
					}
					if l.books[i].Status != "AVAILABLE" {
						return nil, fmt.Errorf("book %s is %s", id, strings.ToLower(l.books[i].Status))
					}
					l.books[i].Status = "BORROWED"
					return l.books[i], nil
				}
				return nil, fmt.Errorf("no book with id %s", id)
			},
		}).
		Subscription(registry.Subscription{
			Name:    "countdown",
			Args:    shape.StructOf(shape.Field("from", shape.IntType())),
			Returns: shape.IntType(),
			Subscribe: func(_ context.Context, info pipeline.Info) (stream.Source, error) {
				from := info.Args["from"].(int)
				if from < 0 {
					return nil, fmt.Errorf("countdown from %d: must not be negative", from)
				}
				return stream.SourceFunc(func(ctx context.Context, yield func(any) error) error {
					t := time.NewTicker(tick)
					defer t.Stop()
					for n := from; n >= 0; n-- {
						if err := yield(n); err != nil {
							return err
						}
						select {
						case <-ctx.Done():
							return ctx.Err()
						case <-t.C:
						}
					}
					return nil
				}), nil
			},
		})
}
