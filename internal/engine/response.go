package engine

import (
	"github.com/nrf110/effect-graphql/internal/executor"
	"github.com/nrf110/effect-graphql/internal/language"
)

// Location is a position in the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error is a GraphQL error in response form.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the result of one operation or one subscription event, shaped
// for JSON encoding.
type Response struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors,omitempty"`
}

func messageResponse(message string) *Response {
	return &Response{Errors: []Error{{Message: message}}}
}

// errorsResponse reports request errors found before execution.
func errorsResponse(errs language.ErrorList) *Response {
	out := &Response{Errors: make([]Error, len(errs))}
	for i, e := range errs {
		re := Error{Message: e.Message, Extensions: e.Extensions}
		for _, l := range e.Locations {
			re.Locations = append(re.Locations, Location{Line: l.Line, Column: l.Column})
		}
		out.Errors[i] = re
	}
	return out
}

func toResponse(res *executor.ExecutionResult) *Response {
	out := &Response{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]Error, len(res.Errors))
	for i, e := range res.Errors {
		re := Error{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			re.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				re.Path[j] = pe
			}
		}
		out.Errors[i] = re
	}
	return out
}
