package jsonschema

import (
	"errors"
	"net/url"
	"strings"
)

var (
	errFragmentNotAllowed = errors.New("fragment not allowed")
	errNotAbsolute        = errors.New("url must be absolute")
)

// Anchor is a bare anchor name, the value of an $anchor or $dynamicAnchor
// keyword. The empty name is reserved for $recursiveAnchor.
type Anchor string

// Fragment is the parsed fragment portion of a reference: either an anchor
// name or a JSON Pointer.
type Fragment struct {
	anchor Anchor
	ptr    JSONPointer
	isPtr  bool
}

// FragmentPointer wraps a JSON Pointer as a Fragment.
func FragmentPointer(ptr JSONPointer) Fragment {
	return Fragment{ptr: ptr, isPtr: true}
}

// FragmentAnchor wraps an anchor name as a Fragment.
func FragmentAnchor(a Anchor) Fragment {
	return Fragment{anchor: a}
}

// parseFragment interprets the decoded fragment text: empty or leading slash
// means a JSON Pointer, anything else an anchor name.
func parseFragment(s string) Fragment {
	if s == "" || strings.HasPrefix(s, "/") {
		return FragmentPointer(JSONPointer(s))
	}
	return FragmentAnchor(Anchor(s))
}

// Pointer returns the pointer form, if this fragment is one.
func (f Fragment) Pointer() (JSONPointer, bool) { return f.ptr, f.isPtr }

// Anchor returns the anchor form, if this fragment is one.
func (f Fragment) Anchor() (Anchor, bool) { return f.anchor, !f.isPtr }

func (f Fragment) String() string {
	if f.isPtr {
		return string(f.ptr)
	}
	return string(f.anchor)
}

// URLFrag is a reference split into an absolute document URL and a fragment,
// the parsed form of a $ref before resolution.
type URLFrag struct {
	URL  string
	Frag Fragment
}

// Format renders the reference as url#fragment, the shape used verbatim in
// error messages.
func (uf URLFrag) Format() string {
	return fragmentString(uf.URL, uf.Frag.String())
}

func fragmentString(u, frag string) string {
	if frag == "" {
		return u
	}
	return u + "#" + frag
}

// URLPtr is a fully resolved schema address: an absolute document URL plus a
// pointer inside that document. It is comparable and serves as the
// compilation key.
type URLPtr struct {
	URL string
	Ptr JSONPointer
}

func (up URLPtr) String() string {
	return fragmentString(up.URL, string(up.Ptr))
}

// splitFragment separates the fragment from a reference string and decodes
// any percent-encoding in it.
func splitFragment(ref string) (string, Fragment, error) {
	base, frag, found := strings.Cut(ref, "#")
	if !found {
		return base, FragmentPointer(""), nil
	}
	decoded, err := url.PathUnescape(frag)
	if err != nil {
		return "", Fragment{}, &ParseURLError{URL: ref, Err: err}
	}
	return base, parseFragment(decoded), nil
}

// resolveRef resolves a reference string against an absolute base URL,
// yielding the absolute target document URL and parsed fragment.
func resolveRef(base, ref string) (URLFrag, error) {
	refURL, frag, err := splitFragment(ref)
	if err != nil {
		return URLFrag{}, err
	}
	if refURL == "" {
		return URLFrag{URL: base, Frag: frag}, nil
	}
	abs, err := resolveURL(base, refURL)
	if err != nil {
		return URLFrag{}, err
	}
	return URLFrag{URL: abs, Frag: frag}, nil
}

// resolveURL resolves a fragmentless URI-reference against base.
func resolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", &ParseURLError{URL: ref, Err: err}
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", &ParseURLError{URL: base, Err: err}
	}
	return b.ResolveReference(r).String(), nil
}

// parseAbsoluteURL validates that u is an absolute, fragmentless URL and
// returns it normalized.
func parseAbsoluteURL(u string) (string, error) {
	base, frag, err := splitFragment(u)
	if err != nil {
		return "", err
	}
	if frag.String() != "" {
		return "", &ParseURLError{URL: u, Err: errFragmentNotAllowed}
	}
	p, err := url.Parse(base)
	if err != nil {
		return "", &ParseURLError{URL: u, Err: err}
	}
	if !p.IsAbs() {
		return "", &ParseURLError{URL: u, Err: errNotAbsolute}
	}
	return p.String(), nil
}
