// Package dsl provides a small construction DSL for building schema
// documents programmatically, avoiding raw map manipulation and the
// spelling mistakes that come with it. Builders produce plain value trees
// (map[string]any) that feed Compiler.AddResource directly; all resolution
// logic stays out of this package.
package dsl

// Builder assembles one schema object. Methods may be called in any order;
// later calls to the same keyword overwrite earlier ones.
type Builder struct {
	obj map[string]any
}

// Schema builds a schema document.
func Schema(build func(*Builder)) map[string]any {
	b := &Builder{obj: map[string]any{}}
	build(b)
	return b.obj
}

// Custom sets an arbitrary keyword, the escape hatch for vocabularies this
// package has no method for.
func (b *Builder) Custom(keyword string, value any) { b.obj[keyword] = value }

func (b *Builder) ID(url string)         { b.obj["$id"] = url }
func (b *Builder) Ref(url string)        { b.obj["$ref"] = url }
func (b *Builder) DynamicRef(url string) { b.obj["$dynamicRef"] = url }
func (b *Builder) Anchor(name string)    { b.obj["$anchor"] = name }
func (b *Builder) DynamicAnchor(name string) {
	b.obj["$dynamicAnchor"] = name
}

// MetaSchema sets the $schema declaration.
func (b *Builder) MetaSchema(url string) { b.obj["$schema"] = url }

// Defs populates $defs.
func (b *Builder) Defs(build func(*Defs)) {
	d := &Defs{m: map[string]any{}}
	build(d)
	b.obj["$defs"] = d.m
}

func (b *Builder) Title(text string)       { b.obj["title"] = text }
func (b *Builder) Description(text string) { b.obj["description"] = text }
func (b *Builder) Default(v any)           { b.obj["default"] = v }

// Type shorthands.
func (b *Builder) Array()   { b.obj["type"] = "array" }
func (b *Builder) Boolean() { b.obj["type"] = "boolean" }
func (b *Builder) Integer() { b.obj["type"] = "integer" }
func (b *Builder) Number()  { b.obj["type"] = "number" }
func (b *Builder) Null()    { b.obj["type"] = "null" }
func (b *Builder) Object()  { b.obj["type"] = "object" }
func (b *Builder) String()  { b.obj["type"] = "string" }

func (b *Builder) Type(t string) { b.obj["type"] = t }
func (b *Builder) Types(types ...string) {
	list := make([]any, 0, len(types))
	for _, t := range types {
		list = append(list, t)
	}
	b.obj["type"] = list
}

func (b *Builder) Enum(values ...any) { b.obj["enum"] = values }
func (b *Builder) Const(v any)        { b.obj["const"] = v }

func (b *Builder) MultipleOf(n float64)       { b.obj["multipleOf"] = n }
func (b *Builder) Maximum(n float64)          { b.obj["maximum"] = n }
func (b *Builder) ExclusiveMaximum(n float64) { b.obj["exclusiveMaximum"] = n }
func (b *Builder) Minimum(n float64)          { b.obj["minimum"] = n }
func (b *Builder) ExclusiveMinimum(n float64) { b.obj["exclusiveMinimum"] = n }

func (b *Builder) MaxLength(n int)      { b.obj["maxLength"] = n }
func (b *Builder) MinLength(n int)      { b.obj["minLength"] = n }
func (b *Builder) Pattern(expr string)  { b.obj["pattern"] = expr }
func (b *Builder) Format(name string)   { b.obj["format"] = name }

// Items sets the single-schema items form.
func (b *Builder) Items(build func(*Builder)) {
	b.obj["items"] = Schema(build)
}

// TupleItems sets the array form of items.
func (b *Builder) TupleItems(build func(*List)) {
	l := &List{}
	build(l)
	b.obj["items"] = l.items
}

// PrefixItems sets the 2020-12 tuple keyword.
func (b *Builder) PrefixItems(build func(*List)) {
	l := &List{}
	build(l)
	b.obj["prefixItems"] = l.items
}

func (b *Builder) AdditionalItems(allow bool) { b.obj["additionalItems"] = allow }
func (b *Builder) AdditionalItemsSchema(build func(*Builder)) {
	b.obj["additionalItems"] = Schema(build)
}

func (b *Builder) MaxItems(n int)         { b.obj["maxItems"] = n }
func (b *Builder) MinItems(n int)         { b.obj["minItems"] = n }
func (b *Builder) UniqueItems(unique bool) { b.obj["uniqueItems"] = unique }

func (b *Builder) Contains(build func(*Builder)) { b.obj["contains"] = Schema(build) }

func (b *Builder) MaxProperties(n int) { b.obj["maxProperties"] = n }
func (b *Builder) MinProperties(n int) { b.obj["minProperties"] = n }

func (b *Builder) Required(names ...string) {
	list := make([]any, 0, len(names))
	for _, n := range names {
		list = append(list, n)
	}
	b.obj["required"] = list
}

// Properties populates the properties map.
func (b *Builder) Properties(build func(*Defs)) {
	d := &Defs{m: map[string]any{}}
	build(d)
	b.obj["properties"] = d.m
}

// PatternProperties populates patternProperties; keys are regular
// expressions.
func (b *Builder) PatternProperties(build func(*Defs)) {
	d := &Defs{m: map[string]any{}}
	build(d)
	b.obj["patternProperties"] = d.m
}

func (b *Builder) AdditionalProperties(allow bool) { b.obj["additionalProperties"] = allow }
func (b *Builder) AdditionalPropertiesSchema(build func(*Builder)) {
	b.obj["additionalProperties"] = Schema(build)
}

func (b *Builder) PropertyNames(build func(*Builder)) { b.obj["propertyNames"] = Schema(build) }

// Dependencies populates the pre-2019 dependencies keyword, which mixes
// schema and property-list dependencies.
func (b *Builder) Dependencies(build func(*Dependencies)) {
	d := &Dependencies{m: map[string]any{}}
	build(d)
	b.obj["dependencies"] = d.m
}

func (b *Builder) AllOf(build func(*List)) { b.obj["allOf"] = buildList(build) }
func (b *Builder) AnyOf(build func(*List)) { b.obj["anyOf"] = buildList(build) }
func (b *Builder) OneOf(build func(*List)) { b.obj["oneOf"] = buildList(build) }
func (b *Builder) Not(build func(*Builder)) { b.obj["not"] = Schema(build) }

func (b *Builder) If(build func(*Builder))   { b.obj["if"] = Schema(build) }
func (b *Builder) Then(build func(*Builder)) { b.obj["then"] = Schema(build) }
func (b *Builder) Else(build func(*Builder)) { b.obj["else"] = Schema(build) }

func (b *Builder) ContentMediaType(mediaType string) { b.obj["contentMediaType"] = mediaType }
func (b *Builder) ContentEncoding(encoding string)   { b.obj["contentEncoding"] = encoding }

// Defs builds a name-to-schema map ($defs, properties, patternProperties).
type Defs struct {
	m map[string]any
}

// Set adds one named schema.
func (d *Defs) Set(name string, build func(*Builder)) {
	d.m[name] = Schema(build)
}

// List builds a schema array (allOf, anyOf, oneOf, tuple items).
type List struct {
	items []any
}

// Add appends one schema.
func (l *List) Add(build func(*Builder)) {
	l.items = append(l.items, Schema(build))
}

func buildList(build func(*List)) []any {
	l := &List{}
	build(l)
	return l.items
}

// Dependencies builds the pre-2019 dependencies keyword.
type Dependencies struct {
	m map[string]any
}

// Schema adds a schema dependency: when property is present, the whole
// object must match the built schema.
func (d *Dependencies) Schema(property string, build func(*Builder)) {
	d.m[property] = Schema(build)
}

// Properties adds a property dependency: when property is present, the
// named properties must be too.
func (d *Dependencies) Properties(property string, names ...string) {
	list := make([]any, 0, len(names))
	for _, n := range names {
		list = append(list, n)
	}
	d.m[property] = list
}
