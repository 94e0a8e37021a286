package executor

import (
	"fmt"
	"strings"
)

// Path locates a value in the response: field response names and list
// indexes, from the root down.
type Path []any

// With returns a copy of p extended by elem.
func (p Path) With(elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// String renders p as "books.[1].title".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, elem := range p {
		if n, ok := elem.(int); ok {
			parts[i] = fmt.Sprintf("[%d]", n)
			continue
		}
		parts[i] = fmt.Sprint(elem)
	}
	return strings.Join(parts, ".")
}

// GraphQLError is a located execution error. Path is empty for request
// errors raised before execution starts.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return e.Path.String() + ": " + e.Message
}

// ExecutionResult is the outcome of one operation run, or of one
// subscription event. Data is nil when the request failed before execution.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

func requestError(format string, args ...any) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf(format, args...)}}}
}
