package jsonschema

import (
	"strconv"
	"strings"
)

// JSONPointer is an immutable root-relative path per RFC 6901. The empty
// pointer denotes the document root. Pointers are cheap to copy and compare
// and serve as the stable keys of a Root's resource map.
type JSONPointer string

// Concat joins two pointers. The receiver must be root-relative and q is
// interpreted relative to it.
func (p JSONPointer) Concat(q JSONPointer) JSONPointer {
	return p + q
}

// Append extends the pointer by a single unescaped token.
func (p JSONPointer) Append(tok string) JSONPointer {
	return p + JSONPointer("/"+escapeToken(tok))
}

// IsEmpty reports whether the pointer denotes the document root.
func (p JSONPointer) IsEmpty() bool { return p == "" }

// Tokens splits the pointer into its unescaped reference tokens.
func (p JSONPointer) Tokens() []string {
	if p == "" {
		return nil
	}
	parts := strings.Split(string(p)[1:], "/")
	for i, part := range parts {
		parts[i] = unescapeToken(part)
	}
	return parts
}

// Lookup returns the value the pointer addresses inside doc. url names the
// document for error reporting only.
func (p JSONPointer) Lookup(doc any, url string) (any, error) {
	v := doc
	for _, tok := range p.Tokens() {
		switch t := v.(type) {
		case map[string]any:
			sub, ok := t[tok]
			if !ok {
				return nil, &PointerNotFoundError{URL: url, Ptr: p}
			}
			v = sub
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(t) {
				return nil, &PointerNotFoundError{URL: url, Ptr: p}
			}
			v = t[i]
		default:
			return nil, &PointerNotFoundError{URL: url, Ptr: p}
		}
	}
	return v, nil
}

func escapeToken(tok string) string {
	if !strings.ContainsAny(tok, "~/") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}

func unescapeToken(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~1", "/")
	return strings.ReplaceAll(tok, "~0", "~")
}
