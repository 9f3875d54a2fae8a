package jsonschema

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strconv"
)

// Compiler orchestrates one or more Roots and drives compilation of schema
// locations into indexed validator nodes. Configuration (default draft,
// optional assertion categories, per-scheme loaders) must be settled before
// the first Compile call. A Compiler is not safe for concurrent use;
// compiled Schemas are.
type Compiler struct {
	roots         map[string]*Root
	docs          map[string]any
	loaders       map[string]URLLoader
	defaultDraft  *Draft
	assertFormat  bool
	assertContent bool
}

// NewCompiler returns a Compiler defaulting to Draft2020 with a file: loader
// registered.
func NewCompiler() *Compiler {
	return &Compiler{
		roots:        map[string]*Root{},
		docs:         map[string]any{},
		loaders:      map[string]URLLoader{"file": FileLoader{}},
		defaultDraft: Draft2020,
	}
}

// DefaultDraft sets the draft assumed for documents without a $schema
// declaration.
func (c *Compiler) DefaultDraft(d *Draft) { c.defaultDraft = d }

// AssertFormat enables format assertions, which the drafts mark as
// non-normative and which are otherwise annotations.
func (c *Compiler) AssertFormat() { c.assertFormat = true }

// AssertContent enables contentEncoding/contentMediaType assertions
// (draft 7; later drafts specify content keywords as annotation-only).
func (c *Compiler) AssertContent() { c.assertContent = true }

// RegisterLoader installs the loader used for URLs of the given scheme.
func (c *Compiler) RegisterLoader(scheme string, loader URLLoader) {
	c.loaders[scheme] = loader
}

// AddResource registers doc under url ahead of compilation. Registering the
// same URL twice is a no-op for identical content and an error otherwise.
func (c *Compiler) AddResource(rawURL string, doc any) error {
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return err
	}
	if existing, ok := c.docs[u]; ok {
		if equals(existing, doc) {
			return nil
		}
		return &DuplicateResourceError{URL: u}
	}
	c.docs[u] = doc
	return nil
}

// Compile resolves loc (an absolute URL with optional fragment) to a schema
// location, compiles it and everything reachable from it into schemas, and
// returns the entry point's index. Compiling the same resolved location
// twice returns the same index. On failure nothing is added to schemas.
func (c *Compiler) Compile(schemas *Schemas, loc string) (SchemaIndex, error) {
	mark := schemas.snapshot()
	idx, err := c.compile(schemas, loc)
	if err != nil {
		schemas.rollback(mark)
		return 0, err
	}
	return idx, nil
}

// MustCompile is Compile panicking on error, for schemas known good at
// build time.
func (c *Compiler) MustCompile(schemas *Schemas, loc string) SchemaIndex {
	idx, err := c.Compile(schemas, loc)
	if err != nil {
		panic(err)
	}
	return idx
}

func (c *Compiler) compile(schemas *Schemas, loc string) (SchemaIndex, error) {
	rawURL, frag, err := splitFragment(loc)
	if err != nil {
		return 0, err
	}
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return 0, err
	}
	root, err := c.ensureRoot(u)
	if err != nil {
		return 0, err
	}
	up, err := root.ResolveFragment(frag)
	if err != nil {
		return 0, err
	}
	return c.compilePtr(schemas, up)
}

func (c *Compiler) loadDocument(u string) (any, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, &ParseURLError{URL: u, Err: err}
	}
	loader, ok := c.loaders[parsed.Scheme]
	if !ok {
		return nil, &LoadURLError{URL: u, Err: fmt.Errorf("no loader registered for scheme %q", parsed.Scheme)}
	}
	doc, err := loader.Load(u)
	if err != nil {
		return nil, &LoadURLError{URL: u, Err: err}
	}
	return doc, nil
}

// ensureRoot returns the Root for u, building it (and fetching the document
// through the scheme loader) on first use. Roots are cached only on
// successful construction.
func (c *Compiler) ensureRoot(u string) (*Root, error) {
	if r, ok := c.roots[u]; ok {
		return r, nil
	}
	doc, ok := c.docs[u]
	if !ok {
		loaded, err := c.loadDocument(u)
		if err != nil {
			return nil, err
		}
		doc = loaded
		c.docs[u] = doc
	}
	draft, vocabs, err := c.draftOf(doc, u, map[string]bool{u: true})
	if err != nil {
		return nil, err
	}
	root := &Root{
		Draft:      draft,
		Resources:  map[JSONPointer]*Resource{},
		URL:        u,
		MetaVocabs: vocabs,
	}
	if err := root.AddSubschema(doc, ""); err != nil {
		return nil, err
	}
	c.roots[u] = root
	return root, nil
}

// draftOf determines the draft in effect for doc: an explicit $schema wins,
// chasing custom meta-schemas until a known draft is reached; otherwise the
// compiler default applies. A custom meta-schema's $vocabulary object
// becomes the document's explicit vocabulary list.
func (c *Compiler) draftOf(doc any, u string, seen map[string]bool) (*Draft, []string, error) {
	obj, _ := doc.(map[string]any)
	sv, declared := obj["$schema"]
	if !declared {
		return c.defaultDraft, nil, nil
	}
	s, ok := sv.(string)
	if !ok {
		return nil, nil, &ParseURLError{URL: u, Err: errors.New("$schema must be a string")}
	}
	if d := draftFromURL(s); d != nil {
		return d, nil, nil
	}
	metaURL, err := parseAbsoluteURL(s)
	if err != nil {
		return nil, nil, &UnsupportedDraftError{URL: s}
	}
	if seen[metaURL] {
		return nil, nil, &MetaSchemaCycleError{URL: metaURL}
	}
	seen[metaURL] = true
	metaDoc, ok := c.docs[metaURL]
	if !ok {
		loaded, err := c.loadDocument(metaURL)
		if err != nil {
			return nil, nil, err
		}
		metaDoc = loaded
		c.docs[metaURL] = metaDoc
	}
	draft, _, err := c.draftOf(metaDoc, metaURL, seen)
	if err != nil {
		return nil, nil, err
	}
	vocabs, err := metaVocabs(metaDoc, metaURL, draft)
	if err != nil {
		return nil, nil, err
	}
	return draft, vocabs, nil
}

// metaVocabs extracts the $vocabulary declarations of a custom meta-schema.
// Unknown vocabularies are fatal when required, skipped otherwise.
func metaVocabs(doc any, u string, draft *Draft) ([]string, error) {
	if draft.version < 2019 {
		return nil, nil
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, nil
	}
	vv, ok := obj["$vocabulary"].(map[string]any)
	if !ok {
		return nil, nil
	}
	var vocabs []string
	for vocabURL, reqv := range vv {
		required, _ := reqv.(bool)
		name, known := draft.vocabName(vocabURL)
		if !known {
			if required {
				return nil, &UnsupportedVocabularyError{URL: u, Vocabulary: vocabURL}
			}
			continue
		}
		vocabs = append(vocabs, name)
	}
	return vocabs, nil
}

// resolveURLFrag resolves an already-absolute reference: inside the
// referencing root first, then across every registered root (embedded
// resources are reachable by their own ids), and finally by fetching the
// target document.
func (c *Compiler) resolveURLFrag(from *Root, uf URLFrag) (URLPtr, error) {
	if up, err := from.Resolve(uf); err != nil {
		return URLPtr{}, err
	} else if up != nil {
		return *up, nil
	}
	for _, r := range c.roots {
		if r == from {
			continue
		}
		up, err := r.Resolve(uf)
		if err != nil {
			return URLPtr{}, err
		}
		if up != nil {
			return *up, nil
		}
	}
	r, err := c.ensureRoot(uf.URL)
	if err != nil {
		return URLPtr{}, err
	}
	up, err := r.Resolve(uf)
	if err != nil {
		return URLPtr{}, err
	}
	if up == nil {
		return URLPtr{}, &UnresolvableRefError{URL: from.URL, Reference: uf.Format()}
	}
	return *up, nil
}

// compileRefTarget resolves ref against the base URL in effect at up and
// compiles the target, returning both its index and resolved address.
func (c *Compiler) compileRefTarget(schemas *Schemas, root *Root, up URLPtr, ref string) (SchemaIndex, URLPtr, error) {
	base := root.BaseURL(up.Ptr)
	uf, err := resolveRef(base, ref)
	if err != nil {
		return 0, URLPtr{}, err
	}
	target, err := c.resolveURLFrag(root, uf)
	if err != nil {
		return 0, URLPtr{}, err
	}
	idx, err := c.compilePtr(schemas, target)
	if err != nil {
		return 0, URLPtr{}, err
	}
	return idx, target, nil
}

// compilePtr compiles the schema at a fully resolved location. The index is
// registered before keyword compilation so cyclic references terminate.
func (c *Compiler) compilePtr(schemas *Schemas, up URLPtr) (SchemaIndex, error) {
	if idx, ok := schemas.indexOf(up); ok {
		return idx, nil
	}
	root, ok := c.roots[up.URL]
	if !ok {
		return 0, &BugError{Msg: fmt.Sprintf("no root registered for %q", up.URL)}
	}
	doc := c.docs[up.URL]
	if err := root.AddSubschema(doc, up.Ptr); err != nil {
		return 0, err
	}
	v, err := up.Ptr.Lookup(doc, up.URL)
	if err != nil {
		return 0, err
	}

	sch := schemas.add(up)
	sch.DraftVersion = root.Draft.version

	res := root.Resource(up.Ptr)
	if res == nil {
		return 0, &BugError{Msg: fmt.Sprintf("no root resource found for %q", up.URL)}
	}
	if res.Ptr == up.Ptr {
		sch.Resource = sch.Idx
		if len(res.DynamicAnchors) > 0 {
			sch.DynamicAnchors = map[Anchor]SchemaIndex{}
			for name := range res.DynamicAnchors {
				tptr, ok := res.Anchors[name]
				if !ok {
					return 0, &BugError{Msg: fmt.Sprintf("dynamic anchor %q has no static pointer in %q", name, up.URL)}
				}
				tidx, err := c.compilePtr(schemas, URLPtr{URL: up.URL, Ptr: tptr})
				if err != nil {
					return 0, err
				}
				sch.DynamicAnchors[name] = tidx
			}
		}
	} else {
		ridx, err := c.compilePtr(schemas, URLPtr{URL: up.URL, Ptr: res.Ptr})
		if err != nil {
			return 0, err
		}
		sch.Resource = ridx
	}

	if err := c.compileValue(schemas, root, up, v, sch); err != nil {
		return 0, err
	}
	return sch.Idx, nil
}

func (c *Compiler) compileValue(schemas *Schemas, root *Root, up URLPtr, v any, sch *Schema) error {
	switch val := v.(type) {
	case bool:
		if root.Draft.version == 4 {
			return &InvalidSchemaError{URL: up.URL, Ptr: up.Ptr}
		}
		b := val
		sch.Always = &b
		return nil
	case map[string]any:
		return c.compileObject(schemas, root, up, val, sch)
	default:
		return &InvalidSchemaError{URL: up.URL, Ptr: up.Ptr}
	}
}

func (c *Compiler) compileObject(schemas *Schemas, root *Root, up URLPtr, obj map[string]any, sch *Schema) error {
	draft := root.Draft
	ptr := up.Ptr

	sub := func(tokens ...string) (SchemaIndex, error) {
		p := ptr
		for _, t := range tokens {
			p = p.Append(t)
		}
		return c.compilePtr(schemas, URLPtr{URL: up.URL, Ptr: p})
	}

	// core references; the core vocabulary is always enabled
	if refStr, ok := obj["$ref"].(string); ok {
		idx, _, err := c.compileRefTarget(schemas, root, up, refStr)
		if err != nil {
			return err
		}
		sch.Ref = &idx
		if draft.version < 2019 {
			// $ref siblings are ignored before 2019-09
			return nil
		}
	}
	if draft.version == 2019 {
		if rv, ok := obj["$recursiveRef"]; ok {
			s, ok := rv.(string)
			if !ok || s != "#" {
				return &ParseURLError{URL: up.String(), Err: errors.New(`$recursiveRef must be "#"`)}
			}
			idx, target, err := c.compileRefTarget(schemas, root, up, "#")
			if err != nil {
				return err
			}
			sch.DynamicRef = &idx
			if troot, ok := c.roots[target.URL]; ok {
				if _, dyn := troot.Resource(target.Ptr).DynamicAnchors[""]; dyn {
					empty := Anchor("")
					sch.DynamicRefAnchor = &empty
				}
			}
		}
	}
	if draft.version == 2020 {
		if refStr, ok := obj["$dynamicRef"].(string); ok {
			idx, target, err := c.compileRefTarget(schemas, root, up, refStr)
			if err != nil {
				return err
			}
			sch.DynamicRef = &idx
			if _, frag, err := splitFragment(refStr); err == nil {
				if anchor, isAnchor := frag.Anchor(); isAnchor {
					if troot, ok := c.roots[target.URL]; ok {
						if _, dyn := troot.Resource(target.Ptr).DynamicAnchors[anchor]; dyn {
							a := anchor
							sch.DynamicRefAnchor = &a
						}
					}
				}
			}
		}
	}

	if root.HasVocab("applicator") {
		if err := c.compileApplicators(schemas, root, up, obj, sch, sub); err != nil {
			return err
		}
	}
	if root.HasVocab("validation") {
		if err := compileAssertions(draft, obj, sch); err != nil {
			return err
		}
	}
	if f, ok := obj["format"].(string); ok {
		sch.Format = f
		if c.formatAsserting(root) {
			sch.assertFormat = formatCheckers[f]
		}
	}
	if draft.version == 7 && c.assertContent {
		if ce, ok := obj["contentEncoding"].(string); ok {
			sch.ContentEncoding = ce
			sch.decodeContent = contentDecoders[ce]
		}
		if cm, ok := obj["contentMediaType"].(string); ok {
			sch.ContentMediaType = cm
			sch.checkMediaType = mediaTypeCheckers[cm]
		}
	}
	return nil
}

// formatAsserting decides whether format compiles as an assertion for the
// given document: a compiler toggle gated by the document's format
// vocabulary, or an explicit format-assertion vocabulary in 2020-12.
func (c *Compiler) formatAsserting(root *Root) bool {
	switch {
	case root.Draft.version < 2019:
		return c.assertFormat
	case root.Draft.version == 2019:
		return c.assertFormat && root.HasVocab("format")
	default:
		if root.HasVocab("format-assertion") {
			return true
		}
		return c.assertFormat && root.HasVocab("format-annotation")
	}
}

func (c *Compiler) compileApplicators(schemas *Schemas, root *Root, up URLPtr, obj map[string]any, sch *Schema, sub func(...string) (SchemaIndex, error)) error {
	draft := root.Draft

	subList := func(kwd string) ([]SchemaIndex, error) {
		arr, ok := obj[kwd].([]any)
		if !ok {
			return nil, nil
		}
		idxs := make([]SchemaIndex, 0, len(arr))
		for i := range arr {
			idx, err := sub(kwd, strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			idxs = append(idxs, idx)
		}
		return idxs, nil
	}

	var err error
	if sch.AllOf, err = subList("allOf"); err != nil {
		return err
	}
	if sch.AnyOf, err = subList("anyOf"); err != nil {
		return err
	}
	if sch.OneOf, err = subList("oneOf"); err != nil {
		return err
	}
	if _, ok := obj["not"]; ok {
		idx, err := sub("not")
		if err != nil {
			return err
		}
		sch.Not = &idx
	}
	if draft.version >= 7 {
		if _, ok := obj["if"]; ok {
			idx, err := sub("if")
			if err != nil {
				return err
			}
			sch.If = &idx
			if _, ok := obj["then"]; ok {
				tidx, err := sub("then")
				if err != nil {
					return err
				}
				sch.Then = &tidx
			}
			if _, ok := obj["else"]; ok {
				eidx, err := sub("else")
				if err != nil {
					return err
				}
				sch.Else = &eidx
			}
		}
	}

	if props, ok := obj["properties"].(map[string]any); ok {
		sch.Properties = map[string]SchemaIndex{}
		for name := range props {
			idx, err := sub("properties", name)
			if err != nil {
				return err
			}
			sch.Properties[name] = idx
		}
	}
	if patterns, ok := obj["patternProperties"].(map[string]any); ok {
		for expr := range patterns {
			re, err := regexp.Compile(expr)
			if err != nil {
				return &InvalidSchemaError{URL: up.URL, Ptr: up.Ptr.Append("patternProperties")}
			}
			idx, err := sub("patternProperties", expr)
			if err != nil {
				return err
			}
			sch.PatternProperties = append(sch.PatternProperties, PatternSchema{Regexp: re, Schema: idx})
		}
	}
	if ap, ok := obj["additionalProperties"]; ok {
		if b, isBool := ap.(bool); isBool {
			sch.AdditionalPropertiesBool = &b
		} else {
			idx, err := sub("additionalProperties")
			if err != nil {
				return err
			}
			sch.AdditionalProperties = &idx
		}
	}
	if draft.version >= 6 {
		if _, ok := obj["propertyNames"]; ok {
			idx, err := sub("propertyNames")
			if err != nil {
				return err
			}
			sch.PropertyNames = &idx
		}
	}

	if draft.version < 2019 {
		if deps, ok := obj["dependencies"].(map[string]any); ok {
			for name, dep := range deps {
				if names, isList := dep.([]any); isList {
					var req []string
					for _, n := range names {
						if s, ok := n.(string); ok {
							req = append(req, s)
						}
					}
					if sch.DependentRequired == nil {
						sch.DependentRequired = map[string][]string{}
					}
					sch.DependentRequired[name] = req
					continue
				}
				idx, err := sub("dependencies", name)
				if err != nil {
					return err
				}
				if sch.DependentSchemas == nil {
					sch.DependentSchemas = map[string]SchemaIndex{}
				}
				sch.DependentSchemas[name] = idx
			}
		}
	} else if deps, ok := obj["dependentSchemas"].(map[string]any); ok {
		sch.DependentSchemas = map[string]SchemaIndex{}
		for name := range deps {
			idx, err := sub("dependentSchemas", name)
			if err != nil {
				return err
			}
			sch.DependentSchemas[name] = idx
		}
	}

	// array applicators differ across the 2020-12 boundary
	if draft.version == 2020 {
		if arr, ok := obj["prefixItems"].([]any); ok {
			for i := range arr {
				idx, err := sub("prefixItems", strconv.Itoa(i))
				if err != nil {
					return err
				}
				sch.TupleItems = append(sch.TupleItems, idx)
			}
		}
		if _, ok := obj["items"]; ok {
			idx, err := sub("items")
			if err != nil {
				return err
			}
			sch.Items = &idx
		}
	} else if items, ok := obj["items"]; ok {
		if arr, isArr := items.([]any); isArr {
			for i := range arr {
				idx, err := sub("items", strconv.Itoa(i))
				if err != nil {
					return err
				}
				sch.TupleItems = append(sch.TupleItems, idx)
			}
			if ai, ok := obj["additionalItems"]; ok {
				if b, isBool := ai.(bool); isBool {
					sch.AdditionalItemsBool = &b
				} else {
					idx, err := sub("additionalItems")
					if err != nil {
						return err
					}
					sch.AdditionalItems = &idx
				}
			}
		} else {
			idx, err := sub("items")
			if err != nil {
				return err
			}
			sch.Items = &idx
		}
	}
	if draft.version >= 6 {
		if _, ok := obj["contains"]; ok {
			idx, err := sub("contains")
			if err != nil {
				return err
			}
			sch.Contains = &idx
			if draft.version >= 2019 {
				sch.MinContains = getInt(obj, "minContains")
				sch.MaxContains = getInt(obj, "maxContains")
			}
		}
	}
	return nil
}

// compileAssertions compiles the non-applicator validation keywords.
// Keyword values with the wrong shape compile as inert annotations; the
// meta-schema is the place that diagnoses those.
func compileAssertions(draft *Draft, obj map[string]any, sch *Schema) error {
	if tv, ok := obj["type"]; ok {
		switch t := tv.(type) {
		case string:
			sch.Types = []string{t}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					sch.Types = append(sch.Types, s)
				}
			}
		}
	}
	if ev, ok := obj["enum"].([]any); ok {
		sch.Enum = ev
	}
	if draft.version >= 6 {
		if cv, ok := obj["const"]; ok {
			sch.Const = []any{cv}
		}
	}

	if r := getRat(obj, "multipleOf"); r != nil && r.Sign() > 0 {
		sch.MultipleOf = r
	}
	sch.Maximum = getRat(obj, "maximum")
	sch.Minimum = getRat(obj, "minimum")
	if draft.version == 4 {
		// draft4 models exclusivity as boolean modifiers
		if b, ok := obj["exclusiveMaximum"].(bool); ok && b {
			sch.ExclusiveMaximum = sch.Maximum
			sch.Maximum = nil
		}
		if b, ok := obj["exclusiveMinimum"].(bool); ok && b {
			sch.ExclusiveMinimum = sch.Minimum
			sch.Minimum = nil
		}
	} else {
		sch.ExclusiveMaximum = getRat(obj, "exclusiveMaximum")
		sch.ExclusiveMinimum = getRat(obj, "exclusiveMinimum")
	}

	sch.MaxLength = getInt(obj, "maxLength")
	sch.MinLength = getInt(obj, "minLength")
	if p, ok := obj["pattern"].(string); ok {
		if re, err := regexp.Compile(p); err == nil {
			sch.Pattern = re
		}
	}

	sch.MaxItems = getInt(obj, "maxItems")
	sch.MinItems = getInt(obj, "minItems")
	if b, ok := obj["uniqueItems"].(bool); ok {
		sch.UniqueItems = b
	}

	sch.MaxProperties = getInt(obj, "maxProperties")
	sch.MinProperties = getInt(obj, "minProperties")
	if req, ok := obj["required"].([]any); ok {
		for _, item := range req {
			if s, ok := item.(string); ok {
				sch.Required = append(sch.Required, s)
			}
		}
	}
	if draft.version >= 2019 {
		if deps, ok := obj["dependentRequired"].(map[string]any); ok {
			sch.DependentRequired = map[string][]string{}
			for name, names := range deps {
				var req []string
				if list, ok := names.([]any); ok {
					for _, n := range list {
						if s, ok := n.(string); ok {
							req = append(req, s)
						}
					}
				}
				sch.DependentRequired[name] = req
			}
		}
	}
	return nil
}

func getRat(obj map[string]any, kwd string) *big.Rat {
	v, ok := obj[kwd]
	if !ok {
		return nil
	}
	r, ok := numOf(v)
	if !ok {
		return nil
	}
	return r
}

func getInt(obj map[string]any, kwd string) *int {
	v, ok := obj[kwd]
	if !ok {
		return nil
	}
	r, ok := numOf(v)
	if !ok || !r.IsInt() || r.Sign() < 0 || !r.Num().IsInt64() {
		return nil
	}
	n := int(r.Num().Int64())
	return &n
}
