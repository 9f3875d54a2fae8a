package jsonschema

import (
	"math/big"
	"regexp"
)

// SchemaIndex is the stable handle of a compiled schema node inside a
// Schemas store.
type SchemaIndex int

// PatternSchema pairs a patternProperties regexp with its compiled schema.
type PatternSchema struct {
	Regexp *regexp.Regexp
	Schema SchemaIndex
}

// Schema is one compiled validator node. Subschemas are referenced by index
// into the owning Schemas store, never by pointer, so cyclic schema graphs
// need no cyclic data structure. Nil pointer fields mean the keyword is
// absent.
type Schema struct {
	Idx          SchemaIndex
	Loc          URLPtr
	DraftVersion int

	// Resource is the index of the enclosing resource's root node (the node
	// itself for resource roots). DynamicAnchors is populated on resource
	// roots only and drives runtime dynamic-reference resolution.
	Resource       SchemaIndex
	DynamicAnchors map[Anchor]SchemaIndex

	// Always is set for boolean schemas.
	Always *bool

	Ref *SchemaIndex
	// DynamicRef covers $dynamicRef and $recursiveRef: the statically
	// resolved fallback index, plus the anchor consulted against the runtime
	// scope chain ($recursiveAnchor maps to the empty name). A nil anchor
	// means the reference behaves statically.
	DynamicRef       *SchemaIndex
	DynamicRefAnchor *Anchor

	Types []string
	Enum  []any
	Const []any // length 1 when the keyword is present

	MultipleOf       *big.Rat
	Maximum          *big.Rat
	ExclusiveMaximum *big.Rat
	Minimum          *big.Rat
	ExclusiveMinimum *big.Rat

	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp

	MinItems            *int
	MaxItems            *int
	UniqueItems         bool
	Items               *SchemaIndex
	TupleItems          []SchemaIndex
	AdditionalItems     *SchemaIndex
	AdditionalItemsBool *bool
	Contains            *SchemaIndex
	MinContains         *int
	MaxContains         *int

	MinProperties            *int
	MaxProperties            *int
	Required                 []string
	Properties               map[string]SchemaIndex
	PatternProperties        []PatternSchema
	AdditionalProperties     *SchemaIndex
	AdditionalPropertiesBool *bool
	PropertyNames            *SchemaIndex
	DependentRequired        map[string][]string
	DependentSchemas         map[string]SchemaIndex

	AllOf []SchemaIndex
	AnyOf []SchemaIndex
	OneOf []SchemaIndex
	Not   *SchemaIndex
	If    *SchemaIndex
	Then  *SchemaIndex
	Else  *SchemaIndex

	Format       string
	assertFormat func(any) bool

	ContentEncoding  string
	ContentMediaType string
	decodeContent    func(string) ([]byte, error)
	checkMediaType   func([]byte) error
}

// Schemas is the output store of compilation: an index of compiled nodes.
// It is mutated only by Compile calls; once compilation is done it is
// read-only and safe for concurrent Validate calls.
type Schemas struct {
	// MaxDepth bounds validation recursion; zero means DefaultMaxDepth.
	MaxDepth int

	list  []*Schema
	index map[URLPtr]SchemaIndex
	keys  []URLPtr
}

// DefaultMaxDepth is the validation recursion bound used when
// Schemas.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Get returns the compiled node at idx.
func (s *Schemas) Get(idx SchemaIndex) *Schema {
	return s.list[idx]
}

// Len reports how many nodes have been compiled.
func (s *Schemas) Len() int { return len(s.list) }

func (s *Schemas) indexOf(up URLPtr) (SchemaIndex, bool) {
	idx, ok := s.index[up]
	return idx, ok
}

// add pre-registers a node for up so self- and mutually-referential graphs
// terminate: any later resolution of up sees the index before the node's
// keywords are compiled.
func (s *Schemas) add(up URLPtr) *Schema {
	if s.index == nil {
		s.index = map[URLPtr]SchemaIndex{}
	}
	idx := SchemaIndex(len(s.list))
	sch := &Schema{Idx: idx, Loc: up, Resource: idx}
	s.list = append(s.list, sch)
	s.index[up] = idx
	s.keys = append(s.keys, up)
	return sch
}

func (s *Schemas) snapshot() int { return len(s.list) }

// rollback drops every node added after the snapshot so a failed compile
// leaves nothing observable.
func (s *Schemas) rollback(mark int) {
	for _, up := range s.keys[mark:] {
		delete(s.index, up)
	}
	s.list = s.list[:mark]
	s.keys = s.keys[:mark]
}
