package compiler

import (
	"fmt"
	"strings"
)

// Violation is one structural problem found while compiling registrations.
type Violation struct {
	Message string `json:"message"`
	// Path locates the problem, e.g. "Query.users(filter)".
	Path string `json:"path,omitempty"`
}

type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.Path != "" {
			line += " at " + v.Path
		}
		msg += line + "\n"
	}
	return msg
}

// Messages are matched by tests; keep them stable.

func violationNoQueryFields() *Violation {
	return &Violation{Message: "Schema must declare at least one query field"}
}

func violationDuplicateTypeName(name string, categories []string) *Violation {
	return &Violation{Message: fmt.Sprintf("Type name %q is registered as %s", name, strings.Join(categories, " and "))}
}

func violationReservedTypeName(name string) *Violation {
	return &Violation{Message: fmt.Sprintf("Type name %q is reserved", name)}
}

func violationUnknownUnionMember(union, member string) *Violation {
	return &Violation{Message: fmt.Sprintf("Union %q member %q is not a registered object type", union, member), Path: union}
}

func violationUnknownInterface(typeName, iface string) *Violation {
	return &Violation{Message: fmt.Sprintf("Type %q implements %q, which is not a registered interface", typeName, iface), Path: typeName}
}

func violationMissingInterfaceField(typeName, iface, field string) *Violation {
	return &Violation{Message: fmt.Sprintf("Type %q does not provide field %q of interface %q", typeName, field, iface), Path: typeName}
}

func violationUnknownFieldOwner(typeName, field string) *Violation {
	return &Violation{Message: fmt.Sprintf("Field %q is attached to %q, which is not a registered object or interface type", field, typeName), Path: typeName + "." + field}
}

func violationUnknownDirective(directive, path string) *Violation {
	return &Violation{Message: "Unknown directive @" + directive, Path: path}
}

func violationDirectiveLocation(directive, location, path string) *Violation {
	return &Violation{Message: fmt.Sprintf("Directive @%s is not allowed on %s", directive, location), Path: path}
}

func violationArgsNotStruct(path string) *Violation {
	return &Violation{Message: "Arguments must be declared as a struct shape", Path: path}
}

func violationMissingResolver(path string) *Violation {
	return &Violation{Message: "Field has no resolver", Path: path}
}

func violationDuplicateField(typeName, field string) *Violation {
	return &Violation{Message: fmt.Sprintf("Duplicate field %q found in type %q", field, typeName), Path: typeName + "." + field}
}

func violationNotAStruct(kind, typeName string) *Violation {
	return &Violation{Message: fmt.Sprintf("The schema of %s %q is not a struct shape", kind, typeName), Path: typeName}
}
