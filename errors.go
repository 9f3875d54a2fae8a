package jsonschema

import (
	"fmt"
	"strings"
)

// Compile-time failures are tagged error types so callers can switch on the
// failure kind with errors.As. Every error carries the document URL and, where
// it exists, the original reference text so diagnostics can be reconstructed
// without re-parsing anything.

// PointerNotFoundError indicates a JSON Pointer does not address a value
// inside its document.
type PointerNotFoundError struct {
	URL string
	Ptr JSONPointer
}

func (e *PointerNotFoundError) Error() string {
	return fmt.Sprintf("jsonschema: %q not found in %q", e.Ptr, e.URL)
}

// InvalidDocumentError indicates a document could not be decoded into a value
// tree (malformed JSON/YAML, duplicate object keys, trailing content).
type InvalidDocumentError struct {
	URL string
	Err error
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("jsonschema: invalid document %q: %v", e.URL, e.Err)
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// AnchorNotFoundError indicates a named anchor is absent from the resource a
// reference resolved to. Reference holds the original reference text verbatim.
type AnchorNotFoundError struct {
	URL       string
	Reference string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("jsonschema: anchor %q not found in %q", e.Reference, e.URL)
}

// UnresolvableRefError indicates a reference whose target exists in no
// registered or loadable document.
type UnresolvableRefError struct {
	URL       string
	Reference string
}

func (e *UnresolvableRefError) Error() string {
	return fmt.Sprintf("jsonschema: unable to resolve %q from %q", e.Reference, e.URL)
}

// LoadURLError indicates the loader for a scheme failed, or no loader is
// registered for the scheme at all.
type LoadURLError struct {
	URL string
	Err error
}

func (e *LoadURLError) Error() string {
	return fmt.Sprintf("jsonschema: error loading %q: %v", e.URL, e.Err)
}

func (e *LoadURLError) Unwrap() error { return e.Err }

// ParseURLError indicates a URL or reference string is not a valid
// URI-reference.
type ParseURLError struct {
	URL string
	Err error
}

func (e *ParseURLError) Error() string {
	return fmt.Sprintf("jsonschema: invalid url %q: %v", e.URL, e.Err)
}

func (e *ParseURLError) Unwrap() error { return e.Err }

// UnsupportedDraftError indicates a $schema declaration naming no known draft
// and no loadable meta-schema.
type UnsupportedDraftError struct {
	URL string
}

func (e *UnsupportedDraftError) Error() string {
	return fmt.Sprintf("jsonschema: unsupported draft %q", e.URL)
}

// MetaSchemaCycleError indicates a meta-schema chain that loops back on
// itself before reaching a known draft.
type MetaSchemaCycleError struct {
	URL string
}

func (e *MetaSchemaCycleError) Error() string {
	return fmt.Sprintf("jsonschema: cycle in meta-schema chain at %q", e.URL)
}

// UnsupportedVocabularyError indicates a meta-schema requires a vocabulary
// this implementation does not know.
type UnsupportedVocabularyError struct {
	URL        string
	Vocabulary string
}

func (e *UnsupportedVocabularyError) Error() string {
	return fmt.Sprintf("jsonschema: %q requires unsupported vocabulary %q", e.URL, e.Vocabulary)
}

// InvalidIDError indicates an identifier keyword whose value is not a string
// or not a valid URI-reference, or that carries a fragment where the draft
// forbids one.
type InvalidIDError struct {
	URL string
	Ptr JSONPointer
	Msg string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("jsonschema: invalid id at %q in %q: %s", e.Ptr, e.URL, e.Msg)
}

// InvalidAnchorError indicates an anchor keyword whose value is malformed.
type InvalidAnchorError struct {
	URL string
	Ptr JSONPointer
	Msg string
}

func (e *InvalidAnchorError) Error() string {
	return fmt.Sprintf("jsonschema: invalid anchor at %q in %q: %s", e.Ptr, e.URL, e.Msg)
}

// DuplicateAnchorError indicates two locations in the same resource declare
// the same anchor name.
type DuplicateAnchorError struct {
	URL    string
	Anchor Anchor
	Ptr1   JSONPointer
	Ptr2   JSONPointer
}

func (e *DuplicateAnchorError) Error() string {
	return fmt.Sprintf("jsonschema: duplicate anchor %q in %q at %q and %q", e.Anchor, e.URL, e.Ptr1, e.Ptr2)
}

// DynamicAnchorNotSupportedError indicates a dynamic-anchor keyword declared
// under a draft that has no dynamic anchors.
type DynamicAnchorNotSupportedError struct {
	URL     string
	Ptr     JSONPointer
	Keyword string
}

func (e *DynamicAnchorNotSupportedError) Error() string {
	return fmt.Sprintf("jsonschema: %q at %q in %q is not supported by the document draft", e.Keyword, e.Ptr, e.URL)
}

// DuplicateResourceError indicates AddResource was called twice for the same
// URL with different content.
type DuplicateResourceError struct {
	URL string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("jsonschema: resource %q already registered with different content", e.URL)
}

// InvalidSchemaError indicates a value at a schema position that is neither
// an object nor a boolean (booleans require draft6 or later).
type InvalidSchemaError struct {
	URL string
	Ptr JSONPointer
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("jsonschema: value at %q in %q is not a schema", e.Ptr, e.URL)
}

// BugError reports a broken internal invariant. Callers hitting one should
// treat it as a defect in this library, not a problem with their schemas.
type BugError struct {
	Msg string
}

func (e *BugError) Error() string {
	return fmt.Sprintf("jsonschema: bug: %s (please report this)", e.Msg)
}

// Validation failure codes. These mirror the keyword or rule that failed and
// appear on every node of a ValidationError tree.
const (
	CodeInvalid          = "invalid"
	CodeSchemaFalse      = "schema_false"
	CodeUnknownKey       = "unknown_key"
	CodeInvalidType      = "invalid_type"
	CodeInvalidEnum      = "invalid_enum"
	CodeInvalidConst     = "invalid_const"
	CodeMultipleOf       = "multiple_of"
	CodeTooBig           = "too_big"
	CodeTooSmall         = "too_small"
	CodeTooLong          = "too_long"
	CodeTooShort         = "too_short"
	CodePattern          = "pattern"
	CodeInvalidFormat    = "invalid_format"
	CodeInvalidContent   = "invalid_content"
	CodeTooManyItems     = "too_many_items"
	CodeTooFewItems      = "too_few_items"
	CodeNotUnique        = "not_unique"
	CodeContains         = "contains"
	CodeTooManyProps     = "too_many_properties"
	CodeTooFewProps      = "too_few_properties"
	CodeRequired         = "required"
	CodeDependency       = "dependency"
	CodePropertyName     = "property_name"
	CodeAllOf            = "all_of"
	CodeAnyOf            = "any_of"
	CodeOneOf            = "one_of"
	CodeNot              = "not"
	CodeCondition        = "condition"
	CodeRef              = "ref"
	CodeMaxDepthExceeded = "max_depth_exceeded"
)

// ValidationError describes why an instance failed validation. It is a tree:
// applicator keywords attach the failures of their subschemas as Causes. It is
// an ordinary result value, distinct from the compile-time errors above.
type ValidationError struct {
	// SchemaURL is the absolute location of the failing schema node.
	SchemaURL string
	// InstanceLocation addresses the failing value inside the instance.
	InstanceLocation JSONPointer
	// Code is one of the Code* constants.
	Code    string
	Message string
	Causes  []*ValidationError
}

// Error summarizes the first few leaf failures, root first.
func (e *ValidationError) Error() string {
	leaves := e.leaves(nil)
	const maxShown = 4
	b := &strings.Builder{}
	b.WriteString("jsonschema: validation failed")
	lim := len(leaves)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		l := leaves[i]
		fmt.Fprintf(b, "\n  at %q [%s]: %s", l.InstanceLocation, l.Code, l.Message)
	}
	if n := len(leaves); n > lim {
		fmt.Fprintf(b, "\n  ... (%d more)", n-lim)
	}
	return b.String()
}

// Leaves flattens the cause tree into the individual failing assertions.
func (e *ValidationError) Leaves() []*ValidationError {
	return e.leaves(nil)
}

func (e *ValidationError) leaves(acc []*ValidationError) []*ValidationError {
	if len(e.Causes) == 0 {
		return append(acc, e)
	}
	for _, c := range e.Causes {
		acc = c.leaves(acc)
	}
	return acc
}
