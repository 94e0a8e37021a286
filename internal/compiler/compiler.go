// Package compiler turns a registry snapshot into an executable schema.
//
// Named types are created first as empty shells so that field types can refer
// to any of them, including themselves. Fields are attached as thunks and
// materialized after every shell exists.
package compiler

import (
	"fmt"
	"sort"

	"github.com/jensneuse/abstractlogger"
	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/nrf110/effect-graphql/internal/lookup"
	"github.com/nrf110/effect-graphql/internal/pipeline"
	"github.com/nrf110/effect-graphql/internal/registry"
	"github.com/nrf110/effect-graphql/internal/schema"
	"github.com/nrf110/effect-graphql/internal/shape"
	"github.com/nrf110/effect-graphql/internal/typeresolve"
)

// Root operation type names.
const (
	QueryTypeName        = "Query"
	MutationTypeName     = "Mutation"
	SubscriptionTypeName = "Subscription"
)

// Directive locations checked for applied directives.
const (
	locationObject          = "OBJECT"
	locationFieldDefinition = "FIELD_DEFINITION"
)

// Result is a compiled schema.
type Result struct {
	Schema *schema.Schema
	// AST is the gqlparser view of the rendered SDL. Nil when SDL validation
	// is disabled.
	AST          *ast.Schema
	SDL          string
	Degradations []typeresolve.Degradation
}

type options struct {
	strict      bool
	logger      abstractlogger.Logger
	validateSDL bool
}

type Option func(*options)

// WithStrict fails compilation when any shape cannot be resolved instead of
// falling back to String.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

func WithLogger(logger abstractlogger.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithoutSDLValidation skips loading the rendered SDL with gqlparser.
func WithoutSDLValidation() Option {
	return func(o *options) { o.validateSDL = false }
}

type builder struct {
	opts     options
	snap     *registry.Snapshot
	schema   *schema.Schema
	types    map[string]*schema.Type
	engine   *typeresolve.Engine
	pipeline *pipeline.Pipeline

	violations []*Violation
}

func (b *builder) addViolation(v ...*Violation) {
	b.violations = append(b.violations, v...)
}

// Compile builds the schema described by the registrations of rb.
func Compile(rb *registry.Builder, opts ...Option) (*Result, error) {
	o := options{logger: abstractlogger.NoopLogger, validateSDL: true}
	for _, opt := range opts {
		opt(&o)
	}

	snap := rb.Snapshot()
	b := &builder{
		opts:   o,
		snap:   snap,
		schema: schema.NewSchema("").AddBuiltins(),
		types:  make(map[string]*schema.Type),
	}

	b.checkNames()
	b.createShells()

	b.engine = typeresolve.New(lookup.Build(snap), b.types, typeresolve.WithStrict(o.strict))
	b.pipeline = b.newPipeline()

	b.declareDirectives()
	b.attachFields()
	b.buildRoots()
	b.checkReferences()

	// materialize every thunk while the builder is still around to collect
	// violations and degradations
	names := lo.Keys(b.schema.Types)
	sort.Strings(names)
	for _, name := range names {
		t := b.schema.Types[name]
		t.Fields()
		t.InputFields()
	}
	b.checkImplementations()

	if len(b.violations) > 0 {
		return nil, fmt.Errorf("compile schema: %w", ValidationError(b.violations))
	}

	degradations := b.engine.Degradations()
	if err := b.engine.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	for _, d := range degradations {
		o.logger.Warn("shape degraded to String",
			abstractlogger.String("path", d.Path),
			abstractlogger.String("shape", d.Shape),
		)
	}

	res := &Result{
		Schema:       b.schema,
		SDL:          schema.Render(b.schema),
		Degradations: degradations,
	}
	if o.validateSDL {
		doc, err := schema.Validate(b.schema)
		if err != nil {
			return nil, fmt.Errorf("compile schema: %w", err)
		}
		res.AST = doc
	}

	o.logger.Debug("schema compiled",
		abstractlogger.Int("types", snap.Len()),
		abstractlogger.Int("queries", len(snap.Queries)),
		abstractlogger.Int("mutations", len(snap.Mutations)),
		abstractlogger.Int("subscriptions", len(snap.Subscriptions)),
		abstractlogger.Int("degradations", len(degradations)),
	)
	return res, nil
}

func (b *builder) newPipeline() *pipeline.Pipeline {
	opts := make([]pipeline.Option, 0, len(b.snap.Directives)+1)
	for _, d := range b.snap.Directives {
		if d.Apply != nil {
			opts = append(opts, pipeline.WithDirective(d.Name, d.Apply))
		}
	}
	opts = append(opts, pipeline.WithMiddleware(b.snap.Middleware...))
	return pipeline.New(opts...)
}

// checkNames reports names used by more than one registration category and
// registrations that shadow built-in or root types.
func (b *builder) checkNames() {
	categories := make(map[string][]string)
	note := func(category, name string) {
		categories[name] = append(categories[name], category)
	}
	for _, t := range b.snap.Objects {
		note("object", t.Name)
	}
	for _, t := range b.snap.Interfaces {
		note("interface", t.Name)
	}
	for _, t := range b.snap.Enums {
		note("enum", t.Name)
	}
	for _, t := range b.snap.Unions {
		note("union", t.Name)
	}
	for _, t := range b.snap.Inputs {
		note("input", t.Name)
	}

	reserved := map[string]bool{QueryTypeName: true}
	for _, t := range schema.BuiltinScalars() {
		reserved[t.Name] = true
	}
	if len(b.snap.Mutations) > 0 {
		reserved[MutationTypeName] = true
	}
	if len(b.snap.Subscriptions) > 0 {
		reserved[SubscriptionTypeName] = true
	}

	names := lo.Keys(categories)
	sort.Strings(names)
	for _, name := range names {
		if reserved[name] {
			b.addViolation(violationReservedTypeName(name))
			continue
		}
		if cats := categories[name]; len(cats) > 1 {
			b.addViolation(violationDuplicateTypeName(name, cats))
		}
	}
}

func description(explicit string, n shape.Node) string {
	if explicit != "" || n == nil {
		return explicit
	}
	return n.Annotations().Description
}

// addShell registers t unless the name is taken; the first registration wins.
func (b *builder) addShell(t *schema.Type) {
	if _, taken := b.schema.Types[t.Name]; taken {
		return
	}
	b.types[t.Name] = t
	b.schema.AddType(t)
}

func (b *builder) createShells() {
	for _, en := range b.snap.Enums {
		t := schema.NewType(en.Name, schema.TypeKindEnum, description(en.Description, en.Schema))
		for _, v := range en.Values {
			t.AddEnumValue(schema.NewEnumValue(v, ""))
		}
		b.addShell(t)
	}
	for _, u := range b.snap.Unions {
		t := schema.NewType(u.Name, schema.TypeKindUnion, description(u.Description, u.Schema))
		for _, m := range u.Members {
			t.AddPossibleType(m)
		}
		t.ResolveVariant = u.ResolveVariant
		b.addShell(t)
	}
	for _, i := range b.snap.Interfaces {
		t := schema.NewType(i.Name, schema.TypeKindInterface, description(i.Description, i.Schema))
		t.ResolveVariant = i.ResolveVariant
		for _, o := range b.snap.Objects {
			if lo.Contains(o.Interfaces, i.Name) {
				t.AddPossibleType(o.Name)
			}
		}
		b.addShell(t)
	}
	for _, o := range b.snap.Objects {
		t := schema.NewType(o.Name, schema.TypeKindObject, description(o.Description, o.Schema))
		for _, name := range o.Interfaces {
			t.AddInterface(name)
		}
		for _, app := range o.Directives {
			b.checkApplied(app, locationObject, o.Name)
			t.AddDirective(&schema.AppliedDirective{Name: app.Name, Args: app.Args})
		}
		b.addShell(t)
	}
	for _, in := range b.snap.Inputs {
		b.addShell(schema.NewType(in.Name, schema.TypeKindInputObject, description(in.Description, in.Schema)))
	}
}

func (b *builder) declareDirectives() {
	for _, d := range b.snap.Directives {
		sd := schema.NewDirective(d.Name, d.Description)
		for _, loc := range d.Locations {
			sd.AddLocation(loc)
		}
		if d.Args != nil {
			path := "@" + d.Name
			if _, ok := typeresolve.StructOf(d.Args, true); !ok {
				b.addViolation(violationArgsNotStruct(path))
			}
			for _, f := range b.engine.Fields(d.Args, true, path) {
				sd.AddArgument(schema.NewInputValue(f.Name, f.Description, f.Type))
			}
		}
		b.schema.AddDirective(sd)
	}
}

// checkApplied reports an applied directive that is not declared or not
// allowed at location.
func (b *builder) checkApplied(app pipeline.Application, location, path string) {
	d, ok := b.snap.Directive(app.Name)
	if !ok {
		b.addViolation(violationUnknownDirective(app.Name, path))
		return
	}
	if !lo.Contains(d.Locations, location) {
		b.addViolation(violationDirectiveLocation(app.Name, location, path))
	}
}

func (b *builder) attachFields() {
	for _, o := range b.snap.Objects {
		b.attachOutputFields(b.types[o.Name], "object", o.Schema)
	}
	for _, i := range b.snap.Interfaces {
		b.attachOutputFields(b.types[i.Name], "interface", i.Schema)
	}
	for _, in := range b.snap.Inputs {
		t, n := b.types[in.Name], in.Schema
		if t == nil || t.Kind != schema.TypeKindInputObject {
			continue
		}
		if _, ok := typeresolve.StructOf(n, true); !ok {
			b.addViolation(violationNotAStruct("input type", in.Name))
			continue
		}
		t.SetInputFieldsThunk(func() []*schema.InputValue {
			fields := b.engine.Fields(n, true, t.Name)
			out := make([]*schema.InputValue, len(fields))
			for i, f := range fields {
				out[i] = schema.NewInputValue(f.Name, f.Description, f.Type)
			}
			return out
		})
	}
}

// attachOutputFields installs the fields of an object or interface: the
// properties of its struct shape followed by its resolver-backed fields.
func (b *builder) attachOutputFields(t *schema.Type, kind string, n shape.Node) {
	if t == nil || (t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface) {
		return
	}
	if n != nil {
		if _, ok := typeresolve.StructOf(n, false); !ok {
			b.addViolation(violationNotAStruct(kind+" type", t.Name))
			n = nil
		}
	}
	extra := b.snap.FieldsOf(t.Name)
	t.SetFieldsThunk(func() []*schema.Field {
		var out []*schema.Field
		seen := make(map[string]bool)
		if n != nil {
			for _, f := range b.engine.Fields(n, false, t.Name) {
				sf := schema.NewField(f.Name, f.Description, f.Type)
				sf.Resolve = b.pipeline.Handler(pipeline.FieldSpec{
					TypeName:     t.Name,
					FieldName:    f.Name,
					Resolve:      pipeline.PropertyResolver(f.Name),
					EncodeOption: f.EncodeOption,
				})
				seen[f.Name] = true
				out = append(out, sf)
			}
		}
		for _, f := range extra {
			if seen[f.Name] {
				b.addViolation(violationDuplicateField(t.Name, f.Name))
				continue
			}
			seen[f.Name] = true
			out = append(out, b.buildField(t.Name, f))
		}
		return out
	})
}

func (b *builder) buildRoots() {
	if len(b.snap.Queries) == 0 {
		b.addViolation(violationNoQueryFields())
	}
	b.buildRoot(QueryTypeName, b.snap.Queries)
	b.schema.SetQueryType(QueryTypeName)

	if len(b.snap.Mutations) > 0 {
		b.buildRoot(MutationTypeName, b.snap.Mutations)
		b.schema.SetMutationType(MutationTypeName)
	}

	if len(b.snap.Subscriptions) > 0 {
		t := schema.NewType(SubscriptionTypeName, schema.TypeKindObject, "")
		subs := b.snap.Subscriptions
		t.SetFieldsThunk(func() []*schema.Field {
			out := make([]*schema.Field, len(subs))
			for i, s := range subs {
				out[i] = b.buildSubscription(s)
			}
			return out
		})
		b.schema.AddType(t)
		b.schema.SetSubscriptionType(SubscriptionTypeName)
	}
}

func (b *builder) buildRoot(name string, fields []registry.Field) {
	t := schema.NewType(name, schema.TypeKindObject, "")
	t.SetFieldsThunk(func() []*schema.Field {
		out := make([]*schema.Field, len(fields))
		for i, f := range fields {
			out[i] = b.buildField(name, f)
		}
		return out
	})
	b.schema.AddType(t)
}

// fieldShell builds the parts shared by every resolver-backed field: the
// return type, the arguments and the applied directives.
func (b *builder) fieldShell(typeName, name, desc string, args, returns shape.Node, apps []pipeline.Application) *schema.Field {
	path := typeName + "." + name
	ret := typeresolve.FieldType(b.engine.OutputAt(returns, path), typeresolve.Nullable(returns))
	f := schema.NewField(name, desc, ret)

	if args != nil {
		if _, ok := typeresolve.StructOf(args, true); !ok {
			b.addViolation(violationArgsNotStruct(path))
		}
		for _, a := range b.engine.Fields(args, true, path) {
			f.AddArgument(schema.NewInputValue(a.Name, a.Description, a.Type))
		}
	}
	for _, app := range apps {
		b.checkApplied(app, locationFieldDefinition, path)
		f.AddDirective(&schema.AppliedDirective{Name: app.Name, Args: app.Args})
	}
	return f
}

func (b *builder) buildField(typeName string, rf registry.Field) *schema.Field {
	f := b.fieldShell(typeName, rf.Name, rf.Description, rf.Args, rf.Returns, rf.Directives)
	if rf.DeprecationReason != "" {
		f.Deprecate(rf.DeprecationReason)
	}
	if rf.Resolve == nil {
		b.addViolation(violationMissingResolver(typeName + "." + rf.Name))
		return f
	}
	f.Resolve = b.pipeline.Handler(pipeline.FieldSpec{
		TypeName:     typeName,
		FieldName:    rf.Name,
		Resolve:      rf.Resolve,
		Directives:   rf.Directives,
		EncodeOption: typeresolve.Nullable(rf.Returns),
	})
	return f.SetAsync(true)
}

func (b *builder) buildSubscription(s registry.Subscription) *schema.Field {
	f := b.fieldShell(SubscriptionTypeName, s.Name, s.Description, s.Args, s.Returns, s.Directives)
	spec := pipeline.SubscriptionSpec{
		TypeName:     SubscriptionTypeName,
		FieldName:    s.Name,
		Subscribe:    s.Subscribe,
		Resolve:      s.Resolve,
		Directives:   s.Directives,
		EncodeOption: typeresolve.Nullable(s.Returns),
	}
	f.Subscribe = b.pipeline.SubscribeHandler(spec)
	f.Resolve = b.pipeline.SubscriptionResolve(spec)
	return f.SetAsync(true)
}

// checkReferences reports names that do not point at a type of the expected
// kind.
func (b *builder) checkReferences() {
	for _, u := range b.snap.Unions {
		for _, m := range u.Members {
			if t := b.types[m]; t == nil || t.Kind != schema.TypeKindObject {
				b.addViolation(violationUnknownUnionMember(u.Name, m))
			}
		}
	}
	for _, o := range b.snap.Objects {
		for _, name := range o.Interfaces {
			if t := b.types[name]; t == nil || t.Kind != schema.TypeKindInterface {
				b.addViolation(violationUnknownInterface(o.Name, name))
			}
		}
	}
	for _, of := range b.snap.ObjectFields {
		t := b.types[of.Type]
		if t == nil || (t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface) {
			b.addViolation(violationUnknownFieldOwner(of.Type, of.Field.Name))
		}
	}
}

// checkImplementations reports objects missing a field of an interface they
// implement. Field types are not compared.
func (b *builder) checkImplementations() {
	for _, o := range b.snap.Objects {
		t := b.types[o.Name]
		if t == nil || t.Kind != schema.TypeKindObject {
			continue
		}
		for _, name := range o.Interfaces {
			iface := b.types[name]
			if iface == nil || iface.Kind != schema.TypeKindInterface {
				continue
			}
			for _, f := range iface.Fields() {
				if t.Field(f.Name) == nil {
					b.addViolation(violationMissingInterfaceField(o.Name, name, f.Name))
				}
			}
		}
	}
}
