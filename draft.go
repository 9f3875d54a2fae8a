package jsonschema

import (
	"strconv"
	"strings"
)

// position classifies where subschemas live under a keyword: the keyword
// value itself, each value of a name-to-schema map, or each element of a
// schema array.
type position int

const (
	posSelf position = iota
	posProp
	posItem
)

// Draft is one variant of the closed strategy table. Everything that differs
// between spec versions — the identifier keyword, how anchors are declared,
// which keywords hold subschemas, the default vocabularies — lives here, so
// the resolution code never branches on version ad hoc.
type Draft struct {
	version int
	url     string

	idKwd            string
	anchorInID       bool   // pre-2019: plain-name fragment inside the id keyword
	anchorKwd        string // "$anchor", or "" when anchors live in the id fragment
	dynamicAnchorKwd string // "" when the draft has no dynamic anchors
	boolDynAnchor    bool   // $recursiveAnchor is a boolean, not a name

	subschemas    map[string]position
	vocabPrefix   string
	defaultVocabs []string
	knownVocabs   []string
}

// Version returns the draft's year-style version number (4, 6, 7, 2019, 2020).
func (d *Draft) Version() int { return d.version }

// URL returns the draft's canonical meta-schema URL.
func (d *Draft) URL() string { return d.url }

func subschemaTable(entries ...map[string]position) map[string]position {
	m := map[string]position{}
	for _, e := range entries {
		for k, v := range e {
			m[k] = v
		}
	}
	return m
}

var subschemas4 = map[string]position{
	"not":                  posSelf,
	"additionalProperties": posSelf,
	"additionalItems":      posSelf,
	"properties":           posProp,
	"patternProperties":    posProp,
	"definitions":          posProp,
	"dependencies":         posProp,
	"items":                posItem,
	"allOf":                posItem,
	"anyOf":                posItem,
	"oneOf":                posItem,
}

var subschemas6 = map[string]position{
	"propertyNames": posSelf,
	"contains":      posSelf,
}

var subschemas7 = map[string]position{
	"if":   posSelf,
	"then": posSelf,
	"else": posSelf,
}

var subschemas2019 = map[string]position{
	"$defs":                 posProp,
	"dependentSchemas":      posProp,
	"unevaluatedProperties": posSelf,
	"unevaluatedItems":      posSelf,
	"contentSchema":         posSelf,
}

var subschemas2020 = map[string]position{
	"prefixItems": posItem,
}

// Draft variants, one per supported spec version.
var (
	Draft4 = &Draft{
		version:    4,
		url:        "http://json-schema.org/draft-04/schema",
		idKwd:      "id",
		anchorInID: true,
		subschemas: subschemaTable(subschemas4),
	}
	Draft6 = &Draft{
		version:    6,
		url:        "http://json-schema.org/draft-06/schema",
		idKwd:      "$id",
		anchorInID: true,
		subschemas: subschemaTable(subschemas4, subschemas6),
	}
	Draft7 = &Draft{
		version:    7,
		url:        "http://json-schema.org/draft-07/schema",
		idKwd:      "$id",
		anchorInID: true,
		subschemas: subschemaTable(subschemas4, subschemas6, subschemas7),
	}
	Draft2019 = &Draft{
		version:          2019,
		url:              "https://json-schema.org/draft/2019-09/schema",
		idKwd:            "$id",
		anchorKwd:        "$anchor",
		dynamicAnchorKwd: "$recursiveAnchor",
		boolDynAnchor:    true,
		subschemas:       subschemaTable(subschemas4, subschemas6, subschemas7, subschemas2019),
		vocabPrefix:      "https://json-schema.org/draft/2019-09/vocab/",
		defaultVocabs:    []string{"core", "applicator", "validation", "meta-data", "format", "content"},
		knownVocabs:      []string{"core", "applicator", "validation", "meta-data", "format", "content"},
	}
	Draft2020 = &Draft{
		version:          2020,
		url:              "https://json-schema.org/draft/2020-12/schema",
		idKwd:            "$id",
		anchorKwd:        "$anchor",
		dynamicAnchorKwd: "$dynamicAnchor",
		subschemas:       subschemaTable(subschemas4, subschemas6, subschemas7, subschemas2019, subschemas2020),
		vocabPrefix:      "https://json-schema.org/draft/2020-12/vocab/",
		defaultVocabs:    []string{"core", "applicator", "unevaluated", "validation", "meta-data", "format-annotation", "content"},
		knownVocabs:      []string{"core", "applicator", "unevaluated", "validation", "meta-data", "format-annotation", "format-assertion", "content"},
	}
)

var drafts = []*Draft{Draft4, Draft6, Draft7, Draft2019, Draft2020}

// draftFromURL matches a $schema declaration against the known meta-schema
// URLs, tolerating http/https interchange and an empty trailing fragment.
func draftFromURL(u string) *Draft {
	u, frag, _ := strings.Cut(u, "#")
	if frag != "" {
		return nil
	}
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "https://")
	for _, d := range drafts {
		du := strings.TrimPrefix(d.url, "http://")
		du = strings.TrimPrefix(du, "https://")
		if u == du {
			return d
		}
	}
	return nil
}

// vocabName maps a vocabulary URL onto this draft's short name, reporting
// whether the vocabulary is one this implementation knows.
func (d *Draft) vocabName(vocabURL string) (string, bool) {
	if d.vocabPrefix == "" || !strings.HasPrefix(vocabURL, d.vocabPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(vocabURL, d.vocabPrefix)
	for _, known := range d.knownVocabs {
		if name == known {
			return name, true
		}
	}
	return "", false
}

// isBoundary reports whether obj starts a new resource: its identifier
// keyword carries a non-empty URL part. A pure-fragment id (pre-2019 anchor
// form) is not a boundary.
func (d *Draft) isBoundary(obj map[string]any) bool {
	id, ok := obj[d.idKwd].(string)
	if !ok {
		return false
	}
	u, _, err := splitFragment(id)
	return err == nil && u != ""
}

// collectResources walks the subtree at ptr discovering embedded resource
// boundaries under this draft's rules, inserting one Resource per boundary
// keyed by its pointer from the document root. Anchors of each freshly
// inserted resource are collected in the same pass. Revisiting an already
// registered pointer is a no-op.
func (d *Draft) collectResources(v any, base string, ptr JSONPointer, rootURL string, resources map[JSONPointer]*Resource) error {
	if _, ok := resources[ptr]; ok {
		return nil
	}

	obj, isObj := v.(map[string]any)
	if !isObj {
		// boolean schemas declare nothing, but the document root always
		// owns a resource
		if _, isBool := v.(bool); isBool && ptr.IsEmpty() {
			resources[ptr] = newResource(ptr, base)
		}
		return nil
	}

	newBase := base
	hasID := false
	if idv, ok := obj[d.idKwd]; ok {
		id, ok := idv.(string)
		if !ok {
			return &InvalidIDError{URL: rootURL, Ptr: ptr, Msg: d.idKwd + " must be a string"}
		}
		idURL, idFrag, err := splitFragment(id)
		if err != nil {
			return &InvalidIDError{URL: rootURL, Ptr: ptr, Msg: err.Error()}
		}
		if !d.anchorInID && idFrag.String() != "" {
			return &InvalidIDError{URL: rootURL, Ptr: ptr, Msg: "fragment not allowed in " + d.idKwd}
		}
		if idURL != "" {
			abs, err := resolveURL(base, idURL)
			if err != nil {
				return &InvalidIDError{URL: rootURL, Ptr: ptr, Msg: err.Error()}
			}
			newBase = abs
			hasID = true
		}
	}

	if ptr.IsEmpty() || hasID {
		res := newResource(ptr, newBase)
		resources[ptr] = res
		if err := d.collectAnchors(v, ptr, res, rootURL); err != nil {
			return err
		}
	}

	for kwd, pos := range d.subschemas {
		sv, ok := obj[kwd]
		if !ok {
			continue
		}
		kwdPtr := ptr.Append(kwd)
		switch pos {
		case posSelf:
			if err := d.collectResources(sv, newBase, kwdPtr, rootURL, resources); err != nil {
				return err
			}
		case posItem:
			arr, isArr := sv.([]any)
			if !isArr {
				// items accepts a single schema as well as an array
				if err := d.collectResources(sv, newBase, kwdPtr, rootURL, resources); err != nil {
					return err
				}
				continue
			}
			for i, item := range arr {
				if err := d.collectResources(item, newBase, kwdPtr.Append(strconv.Itoa(i)), rootURL, resources); err != nil {
					return err
				}
			}
		case posProp:
			m, isMap := sv.(map[string]any)
			if !isMap {
				continue
			}
			for name, pv := range m {
				if err := d.collectResources(pv, newBase, kwdPtr.Append(name), rootURL, resources); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// collectAnchors walks the subtree at ptr recording static and dynamic
// anchor declarations into res, stopping at nested resource boundaries
// (those own their anchors). Declaring a dynamic anchor under a draft
// without dynamic anchors fails the document.
func (d *Draft) collectAnchors(v any, ptr JSONPointer, res *Resource, rootURL string) error {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return nil
	}
	if ptr != res.Ptr && d.isBoundary(obj) {
		return nil
	}

	if d.anchorInID {
		if id, ok := obj[d.idKwd].(string); ok {
			if _, frag, err := splitFragment(id); err == nil {
				if name, isAnchor := frag.Anchor(); isAnchor {
					if err := res.addAnchor(name, ptr, rootURL); err != nil {
						return err
					}
				}
			}
		}
	}
	if d.anchorKwd != "" {
		if av, ok := obj[d.anchorKwd]; ok {
			name, ok := av.(string)
			if !ok || name == "" {
				return &InvalidAnchorError{URL: rootURL, Ptr: ptr, Msg: d.anchorKwd + " must be a non-empty string"}
			}
			if err := res.addAnchor(Anchor(name), ptr, rootURL); err != nil {
				return err
			}
		}
	}

	switch {
	case d.dynamicAnchorKwd == "":
		for _, kwd := range [...]string{"$dynamicAnchor", "$recursiveAnchor"} {
			if _, ok := obj[kwd]; ok {
				return &DynamicAnchorNotSupportedError{URL: rootURL, Ptr: ptr, Keyword: kwd}
			}
		}
	case d.boolDynAnchor:
		if rv, ok := obj[d.dynamicAnchorKwd]; ok {
			b, ok := rv.(bool)
			if !ok {
				return &InvalidAnchorError{URL: rootURL, Ptr: ptr, Msg: d.dynamicAnchorKwd + " must be a boolean"}
			}
			if b {
				if err := res.addAnchor("", ptr, rootURL); err != nil {
					return err
				}
				res.DynamicAnchors[""] = struct{}{}
			}
		}
	default:
		if av, ok := obj[d.dynamicAnchorKwd]; ok {
			name, ok := av.(string)
			if !ok || name == "" {
				return &InvalidAnchorError{URL: rootURL, Ptr: ptr, Msg: d.dynamicAnchorKwd + " must be a non-empty string"}
			}
			if err := res.addAnchor(Anchor(name), ptr, rootURL); err != nil {
				return err
			}
			res.DynamicAnchors[Anchor(name)] = struct{}{}
		}
	}

	for kwd, pos := range d.subschemas {
		sv, ok := obj[kwd]
		if !ok {
			continue
		}
		kwdPtr := ptr.Append(kwd)
		switch pos {
		case posSelf:
			if err := d.collectAnchors(sv, kwdPtr, res, rootURL); err != nil {
				return err
			}
		case posItem:
			arr, isArr := sv.([]any)
			if !isArr {
				if err := d.collectAnchors(sv, kwdPtr, res, rootURL); err != nil {
					return err
				}
				continue
			}
			for i, item := range arr {
				if err := d.collectAnchors(item, kwdPtr.Append(strconv.Itoa(i)), res, rootURL); err != nil {
					return err
				}
			}
		case posProp:
			m, isMap := sv.(map[string]any)
			if !isMap {
				continue
			}
			for name, pv := range m {
				if err := d.collectAnchors(pv, kwdPtr.Append(name), res, rootURL); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
