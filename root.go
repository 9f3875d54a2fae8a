package jsonschema

import (
	"fmt"
	"strings"
)

// Resource is one resolution scope inside a document: a subtree that
// establishes its own base URL. Cross-resource lookups always go back through
// the owning Root's map, keyed by pointer; resources never link to each other
// directly even though the logical reference graph is cyclic.
type Resource struct {
	// Ptr is the resource's own pointer from the document root.
	Ptr JSONPointer
	// ID is the effective base URL, inherited or set by the identifier keyword.
	ID string
	// Anchors maps statically resolvable anchor names to their pointer from
	// the document root.
	Anchors map[Anchor]JSONPointer
	// DynamicAnchors holds the names resolvable only against the runtime
	// scope chain.
	DynamicAnchors map[Anchor]struct{}
}

func newResource(ptr JSONPointer, id string) *Resource {
	return &Resource{
		Ptr:            ptr,
		ID:             id,
		Anchors:        map[Anchor]JSONPointer{},
		DynamicAnchors: map[Anchor]struct{}{},
	}
}

func (res *Resource) addAnchor(name Anchor, ptr JSONPointer, rootURL string) error {
	if old, ok := res.Anchors[name]; ok {
		if old == ptr {
			return nil
		}
		return &DuplicateAnchorError{URL: rootURL, Anchor: name, Ptr1: old, Ptr2: ptr}
	}
	res.Anchors[name] = ptr
	return nil
}

// Root owns one registered document's resource graph. The resource keyed by
// the empty pointer always exists once the Root is usable.
type Root struct {
	Draft     *Draft
	Resources map[JSONPointer]*Resource
	URL       string
	// MetaVocabs is the explicit vocabulary list declared by the document's
	// meta-schema; nil means the draft defaults apply.
	MetaVocabs []string
}

// HasVocab reports whether the named vocabulary is enabled for this
// document. Drafts predating vocabulary support enable everything, as does
// the reserved core vocabulary. An explicit meta-schema list decides
// membership when present, else the draft defaults.
func (r *Root) HasVocab(name string) bool {
	if r.Draft.version < 2019 || name == "core" {
		return true
	}
	vocabs := r.MetaVocabs
	if vocabs == nil {
		vocabs = r.Draft.defaultVocabs
	}
	for _, v := range vocabs {
		if v == name {
			return true
		}
	}
	return false
}

// Resource returns the most specific registered resource whose pointer
// prefixes ptr, trimming one path segment at a time and falling back to the
// root resource. This is the "nearest enclosing base URI" rule. Trimming at
// raw '/' is escape-correct: RFC 6901 escapes slashes inside tokens as ~1,
// so every raw '/' is a real segment separator.
func (r *Root) Resource(ptr JSONPointer) *Resource {
	p := string(ptr)
	for {
		if res, ok := r.Resources[JSONPointer(p)]; ok {
			return res
		}
		i := strings.LastIndexByte(p, '/')
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return r.Resources[""]
}

// BaseURL returns the base URL in effect at ptr.
func (r *Root) BaseURL(ptr JSONPointer) string {
	return r.Resource(ptr).ID
}

func (r *Root) rootResource() (*Resource, error) {
	res, ok := r.Resources[""]
	if !ok {
		return nil, &BugError{Msg: fmt.Sprintf("no root resource found for %q", r.URL)}
	}
	return res, nil
}

func (r *Root) resolveFragmentIn(frag Fragment, res *Resource) (URLPtr, error) {
	var ptr JSONPointer
	if anchor, ok := frag.Anchor(); ok {
		p, ok := res.Anchors[anchor]
		if !ok {
			return URLPtr{}, &AnchorNotFoundError{
				URL:       r.URL,
				Reference: fragmentString(res.ID, frag.String()),
			}
		}
		ptr = p
	} else {
		p, _ := frag.Pointer()
		// relative to the resource's own location, not the document root
		ptr = res.Ptr.Concat(p)
	}
	return URLPtr{URL: r.URL, Ptr: ptr}, nil
}

// ResolveFragment resolves a fragment against this root's document resource.
func (r *Root) ResolveFragment(frag Fragment) (URLPtr, error) {
	res, err := r.rootResource()
	if err != nil {
		return URLPtr{}, err
	}
	return r.resolveFragmentIn(frag, res)
}

// Resolve resolves uf inside this root. A nil result with nil error means
// the reference is external to this document; the compiler treats that as
// "look elsewhere", never as a failure.
func (r *Root) Resolve(uf URLFrag) (*URLPtr, error) {
	var res *Resource
	if uf.URL == r.URL {
		rr, err := r.rootResource()
		if err != nil {
			return nil, err
		}
		res = rr
	} else {
		for _, candidate := range r.Resources {
			if candidate.ID == uf.URL {
				res = candidate
				break
			}
		}
		if res == nil {
			return nil, nil
		}
	}
	up, err := r.resolveFragmentIn(uf.Frag, res)
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// AddSubschema registers the subtree at ptr as part of this root's resource
// graph: resource collection first, then anchor collection for ptr against
// whichever resource owns it. Revisiting a pointer is idempotent.
func (r *Root) AddSubschema(doc any, ptr JSONPointer) error {
	v, err := ptr.Lookup(doc, r.URL)
	if err != nil {
		return err
	}
	if ptr.IsEmpty() {
		switch v.(type) {
		case map[string]any, bool:
		default:
			return &InvalidSchemaError{URL: r.URL, Ptr: ptr}
		}
	}
	base := r.URL
	if len(r.Resources) > 0 {
		base = r.BaseURL(ptr)
	}
	if err := r.Draft.collectResources(v, base, ptr, r.URL, r.Resources); err != nil {
		return err
	}
	if _, isResource := r.Resources[ptr]; !isResource {
		res := r.Resource(ptr)
		if err := r.Draft.collectAnchors(v, ptr, res, r.URL); err != nil {
			return err
		}
	}
	return nil
}
