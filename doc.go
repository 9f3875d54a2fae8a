// Package jsonschema compiles JSON Schema documents (drafts 4, 6, 7,
// 2019-09 and 2020-12) into indexed validators and applies them to decoded
// JSON values. It implements the full resource and reference model:
// embedded resources with their own base URLs, static and dynamic anchors,
// cross-document references loaded through pluggable per-scheme loaders,
// and vocabulary gating driven by meta-schemas.
//
// Design policy:
//   - Keep the public API in the root package (Compiler, Schemas, Root, the
//     identifier types and errors); put the construction DSL under dsl/ and
//     the CLI under cmd/jsv.
//   - Drafts are a closed strategy table; nothing outside draft.go branches
//     on version ad hoc.
//   - Schemas are referenced by index, never by pointer, so cyclic schema
//     graphs compile and validate without cyclic data structures.
//
// Typical usage:
//
//	doc, err := jsonschema.UnmarshalJSON(reader)
//	c := jsonschema.NewCompiler()
//	if err := c.AddResource("https://example.com/schema.json", doc); err != nil { ... }
//	schemas := &jsonschema.Schemas{}
//	idx, err := c.Compile(schemas, "https://example.com/schema.json")
//	if err := schemas.Validate(instance, idx); err != nil { ... }
//
// Validation failures are *ValidationError trees, ordinary values distinct
// from the typed compile-time errors.
package jsonschema
