package jsonschema_test

import (
	"encoding/json"
	"testing"

	"github.com/averik/jsonschema"
)

func TestValidate_Types(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"type": "integer",
	})
	cases := []struct {
		name  string
		v     any
		valid bool
	}{
		{"int", 3, true},
		{"integral number", json.Number("2.0"), true},
		{"integral float", float64(4), true},
		{"fraction", json.Number("2.5"), false},
		{"string", "2", false},
		{"null", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := schemas.Validate(tc.v, idx)
			if (err == nil) != tc.valid {
				t.Fatalf("valid=%v, err=%v", tc.valid, err)
			}
		})
	}
}

func TestValidate_EnumConstNumericEquality(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"enum": []any{json.Number("1"), "one"},
	})
	if err := schemas.Validate(json.Number("1.0"), idx); err != nil {
		t.Fatalf("1.0 should equal 1: %v", err)
	}
	if err := schemas.Validate("one", idx); err != nil {
		t.Fatalf("string member rejected: %v", err)
	}
	if err := schemas.Validate(json.Number("2"), idx); err == nil {
		t.Fatalf("2 accepted")
	}

	schemas, idx = compileDoc(t, "http://example.com/c.json", map[string]any{
		"const": json.Number("10"),
	})
	if err := schemas.Validate(float64(10), idx); err != nil {
		t.Fatalf("10.0 should equal const 10: %v", err)
	}
	if err := schemas.Validate(float64(11), idx); err == nil {
		t.Fatalf("11 accepted")
	}
}

func TestValidate_MultipleOfExact(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"multipleOf": json.Number("0.0001"),
	})
	if err := schemas.Validate(json.Number("0.0075"), idx); err != nil {
		t.Fatalf("0.0075 is an exact multiple of 0.0001: %v", err)
	}
	if err := schemas.Validate(json.Number("0.00015"), idx); err == nil {
		t.Fatalf("0.00015 accepted")
	}
}

func TestValidate_NumericBounds(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"minimum":          json.Number("0"),
		"exclusiveMaximum": json.Number("100"),
	})
	if err := schemas.Validate(json.Number("0"), idx); err != nil {
		t.Fatalf("minimum is inclusive: %v", err)
	}
	if err := schemas.Validate(json.Number("100"), idx); err == nil {
		t.Fatalf("exclusiveMaximum is exclusive")
	}
	if err := schemas.Validate(json.Number("-1"), idx); err == nil {
		t.Fatalf("-1 accepted")
	}
}

func TestValidate_StringLengthInRunes(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"minLength": 5,
		"maxLength": 5,
	})
	if err := schemas.Validate("héllo", idx); err != nil {
		t.Fatalf("length counts runes, not bytes: %v", err)
	}
	if err := schemas.Validate("hi", idx); err == nil {
		t.Fatalf("short string accepted")
	}
}

func TestValidate_Pattern(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"pattern": "^[a-z]+-[0-9]+$",
	})
	if err := schemas.Validate("abc-42", idx); err != nil {
		t.Fatalf("match rejected: %v", err)
	}
	if err := schemas.Validate("abc", idx); err == nil {
		t.Fatalf("non-match accepted")
	}
	// pattern is not anchored implicitly elsewhere, but non-strings pass
	if err := schemas.Validate(7, idx); err != nil {
		t.Fatalf("non-string hit pattern: %v", err)
	}
}

func TestValidate_ObjectKeywords(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"type":     "object",
		"required": []any{"name"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"patternProperties": map[string]any{
			"^x-": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	})

	if err := schemas.Validate(map[string]any{"name": "a", "x-tag": "b"}, idx); err != nil {
		t.Fatalf("valid object rejected: %v", err)
	}
	if err := schemas.Validate(map[string]any{"name": "a", "other": 1}, idx); err == nil {
		t.Fatalf("additional property accepted")
	} else {
		verr := err.(*jsonschema.ValidationError)
		leaf := verr.Leaves()[0]
		if leaf.Code != jsonschema.CodeUnknownKey {
			t.Fatalf("code: %q", leaf.Code)
		}
		if leaf.InstanceLocation != "" {
			t.Fatalf("unknown key reported at %q, want object location", leaf.InstanceLocation)
		}
	}
	if err := schemas.Validate(map[string]any{}, idx); err == nil {
		t.Fatalf("missing required accepted")
	}
}

func TestValidate_PropertyNames(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"propertyNames": map[string]any{"maxLength": 3},
	})
	if err := schemas.Validate(map[string]any{"abc": 1}, idx); err != nil {
		t.Fatalf("short key rejected: %v", err)
	}
	err := schemas.Validate(map[string]any{"toolong": 1}, idx)
	if err == nil {
		t.Fatalf("long key accepted")
	}
	leaf := err.(*jsonschema.ValidationError)
	if leaf.Code != jsonschema.CodePropertyName {
		t.Fatalf("code: %q", leaf.Code)
	}
}

func TestValidate_DependentRequired(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"dependentRequired": map[string]any{
			"credit_card": []any{"billing_address"},
		},
	})
	if err := schemas.Validate(map[string]any{"credit_card": "4111"}, idx); err == nil {
		t.Fatalf("missing dependent property accepted")
	}
	if err := schemas.Validate(map[string]any{"credit_card": "4111", "billing_address": "x"}, idx); err != nil {
		t.Fatalf("satisfied dependency rejected: %v", err)
	}
	if err := schemas.Validate(map[string]any{"name": "a"}, idx); err != nil {
		t.Fatalf("dependency triggered without its property: %v", err)
	}
}

func TestValidate_Draft7Dependencies(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"dependencies": map[string]any{
			"a": []any{"b"},
			"c": map[string]any{"required": []any{"d"}},
		},
	})
	if err := schemas.Validate(map[string]any{"a": 1}, idx); err == nil {
		t.Fatalf("property-list dependency not enforced")
	}
	if err := schemas.Validate(map[string]any{"c": 1}, idx); err == nil {
		t.Fatalf("schema dependency not enforced")
	}
	if err := schemas.Validate(map[string]any{"a": 1, "b": 2, "c": 3, "d": 4}, idx); err != nil {
		t.Fatalf("satisfied dependencies rejected: %v", err)
	}
}

func TestValidate_TupleItemsDraft7(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"items": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "number"},
		},
		"additionalItems": false,
	})
	if err := schemas.Validate([]any{"a", float64(1)}, idx); err != nil {
		t.Fatalf("valid tuple rejected: %v", err)
	}
	if err := schemas.Validate([]any{"a", "b"}, idx); err == nil {
		t.Fatalf("wrong tuple type accepted")
	}
	if err := schemas.Validate([]any{"a", float64(1), true}, idx); err == nil {
		t.Fatalf("extra item accepted with additionalItems false")
	}
}

func TestValidate_PrefixItems2020(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"prefixItems": []any{
			map[string]any{"type": "string"},
		},
		"items": map[string]any{"type": "number"},
	})
	if err := schemas.Validate([]any{"a", float64(1), float64(2)}, idx); err != nil {
		t.Fatalf("valid array rejected: %v", err)
	}
	if err := schemas.Validate([]any{"a", "b"}, idx); err == nil {
		t.Fatalf("non-number rest accepted")
	}
}

func TestValidate_Contains(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"contains":    map[string]any{"type": "number"},
		"minContains": 2,
		"maxContains": 3,
	})
	if err := schemas.Validate([]any{"x", float64(1), float64(2)}, idx); err != nil {
		t.Fatalf("two matches rejected: %v", err)
	}
	if err := schemas.Validate([]any{"x", float64(1)}, idx); err == nil {
		t.Fatalf("one match accepted with minContains 2")
	}
	if err := schemas.Validate([]any{float64(1), float64(2), float64(3), float64(4)}, idx); err == nil {
		t.Fatalf("four matches accepted with maxContains 3")
	}
}

func TestValidate_UniqueItems(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"uniqueItems": true,
	})
	if err := schemas.Validate([]any{float64(1), "1"}, idx); err != nil {
		t.Fatalf("number and string are distinct: %v", err)
	}
	if err := schemas.Validate([]any{json.Number("1"), float64(1)}, idx); err == nil {
		t.Fatalf("numerically equal items accepted")
	}
	if err := schemas.Validate([]any{
		map[string]any{"a": float64(1)},
		map[string]any{"a": json.Number("1.0")},
	}, idx); err == nil {
		t.Fatalf("deeply equal objects accepted")
	}
}

func TestValidate_Combinators(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"oneOf": []any{
			map[string]any{"type": "integer"},
			map[string]any{"minimum": 10},
		},
	})
	if err := schemas.Validate(json.Number("3"), idx); err != nil {
		t.Fatalf("integer below 10 matches exactly one: %v", err)
	}
	if err := schemas.Validate(json.Number("12"), idx); err == nil {
		t.Fatalf("12 matches both branches, must fail oneOf")
	}
	if err := schemas.Validate(json.Number("3.5"), idx); err == nil {
		t.Fatalf("3.5 matches neither branch")
	}

	schemas, idx = compileDoc(t, "http://example.com/not.json", map[string]any{
		"not": map[string]any{"type": "string"},
	})
	if err := schemas.Validate("text", idx); err == nil {
		t.Fatalf("string accepted under not")
	}
	if err := schemas.Validate(1, idx); err != nil {
		t.Fatalf("non-string rejected under not: %v", err)
	}
}

func TestValidate_IfThenElse(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"if":   map[string]any{"type": "string"},
		"then": map[string]any{"minLength": 3},
		"else": map[string]any{"minimum": 0},
	})
	if err := schemas.Validate("abcd", idx); err != nil {
		t.Fatalf("then branch: %v", err)
	}
	if err := schemas.Validate("ab", idx); err == nil {
		t.Fatalf("short string accepted by then branch")
	}
	if err := schemas.Validate(json.Number("5"), idx); err != nil {
		t.Fatalf("else branch: %v", err)
	}
	if err := schemas.Validate(json.Number("-5"), idx); err == nil {
		t.Fatalf("negative number accepted by else branch")
	}
}

func TestValidate_BooleanSchemas(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"properties": map[string]any{
			"open":   true,
			"closed": false,
		},
	})
	if err := schemas.Validate(map[string]any{"open": "anything"}, idx); err != nil {
		t.Fatalf("true schema rejected: %v", err)
	}
	err := schemas.Validate(map[string]any{"closed": 1}, idx)
	if err == nil {
		t.Fatalf("false schema accepted")
	}
	if leaf := err.(*jsonschema.ValidationError).Leaves()[0]; leaf.Code != jsonschema.CodeSchemaFalse {
		t.Fatalf("code: %q", leaf.Code)
	}
}

func TestValidate_DepthLimit(t *testing.T) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("http://example.com/loop.json", map[string]any{
		"$ref": "#",
	}); err != nil {
		t.Fatal(err)
	}
	var schemas jsonschema.Schemas
	schemas.MaxDepth = 16
	idx, err := c.Compile(&schemas, "http://example.com/loop.json")
	if err != nil {
		t.Fatalf("self-reference must compile: %v", err)
	}
	verr := schemas.Validate("anything", idx)
	if verr == nil {
		t.Fatalf("unbounded recursion reported valid")
	}
	if got := verr.(*jsonschema.ValidationError).Code; got != jsonschema.CodeMaxDepthExceeded {
		t.Fatalf("code: %q", got)
	}
}

func TestValidate_DynamicRef2020(t *testing.T) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("http://example.com/tree.json", map[string]any{
		"$id":            "http://example.com/tree.json",
		"$dynamicAnchor": "node",
		"type":           "object",
		"properties": map[string]any{
			"children": map[string]any{
				"type":  "array",
				"items": map[string]any{"$dynamicRef": "#node"},
			},
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddResource("http://example.com/strict-tree.json", map[string]any{
		"$id":            "http://example.com/strict-tree.json",
		"$dynamicAnchor": "node",
		"$ref":           "tree.json",
		"required":       []any{"data"},
	}); err != nil {
		t.Fatal(err)
	}

	var schemas jsonschema.Schemas
	treeIdx, err := c.Compile(&schemas, "http://example.com/tree.json")
	if err != nil {
		t.Fatal(err)
	}
	strictIdx, err := c.Compile(&schemas, "http://example.com/strict-tree.json")
	if err != nil {
		t.Fatal(err)
	}

	instance := map[string]any{
		"data": 1,
		"children": []any{
			map[string]any{"children": []any{}},
		},
	}
	// plain tree has no data requirement anywhere
	if err := schemas.Validate(instance, treeIdx); err != nil {
		t.Fatalf("tree rejected instance: %v", err)
	}
	// strict tree re-binds the node anchor for the whole recursion, so the
	// child missing data fails even though the ref lands inside tree.json
	if err := schemas.Validate(instance, strictIdx); err == nil {
		t.Fatalf("strict tree accepted child without data")
	}
	withData := map[string]any{
		"data": 1,
		"children": []any{
			map[string]any{"data": 2, "children": []any{}},
		},
	}
	if err := schemas.Validate(withData, strictIdx); err != nil {
		t.Fatalf("strict tree rejected complete instance: %v", err)
	}
}

func TestValidate_RecursiveRef2019(t *testing.T) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("http://example.com/tree.json", map[string]any{
		"$schema":          "https://json-schema.org/draft/2019-09/schema",
		"$id":              "http://example.com/tree.json",
		"$recursiveAnchor": true,
		"type":             "object",
		"properties": map[string]any{
			"children": map[string]any{
				"type":  "array",
				"items": map[string]any{"$recursiveRef": "#"},
			},
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddResource("http://example.com/strict-tree.json", map[string]any{
		"$schema":          "https://json-schema.org/draft/2019-09/schema",
		"$id":              "http://example.com/strict-tree.json",
		"$recursiveAnchor": true,
		"$ref":             "tree.json",
		"required":         []any{"data"},
	}); err != nil {
		t.Fatal(err)
	}

	var schemas jsonschema.Schemas
	strictIdx, err := c.Compile(&schemas, "http://example.com/strict-tree.json")
	if err != nil {
		t.Fatal(err)
	}
	instance := map[string]any{
		"data": 1,
		"children": []any{
			map[string]any{"children": []any{}},
		},
	}
	if err := schemas.Validate(instance, strictIdx); err == nil {
		t.Fatalf("recursive anchor did not rebind to the outer resource")
	}
}

func TestValidate_FormatAssertions(t *testing.T) {
	doc := map[string]any{"format": "ipv4"}

	// annotation by default
	schemas, idx := compileDoc(t, "http://example.com/s.json", doc)
	if err := schemas.Validate("not-an-ip", idx); err != nil {
		t.Fatalf("format asserted without opt-in: %v", err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource("http://example.com/s.json", doc); err != nil {
		t.Fatal(err)
	}
	var asserted jsonschema.Schemas
	aidx, err := c.Compile(&asserted, "http://example.com/s.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := asserted.Validate("127.0.0.1", aidx); err != nil {
		t.Fatalf("valid ipv4 rejected: %v", err)
	}
	if err := asserted.Validate("1.2.3.4.5", aidx); err == nil {
		t.Fatalf("invalid ipv4 accepted")
	}
	if err := asserted.Validate("::1", aidx); err == nil {
		t.Fatalf("ipv6 address accepted as ipv4")
	}
	// string formats leave non-strings alone
	if err := asserted.Validate(42, aidx); err != nil {
		t.Fatalf("non-string hit format assertion: %v", err)
	}
}

func TestValidate_ContentAssertionsDraft7(t *testing.T) {
	doc := map[string]any{
		"$schema":          "http://json-schema.org/draft-07/schema#",
		"contentEncoding":  "base64",
		"contentMediaType": "application/json",
	}
	c := jsonschema.NewCompiler()
	c.AssertContent()
	if err := c.AddResource("http://example.com/s.json", doc); err != nil {
		t.Fatal(err)
	}
	var schemas jsonschema.Schemas
	idx, err := c.Compile(&schemas, "http://example.com/s.json")
	if err != nil {
		t.Fatal(err)
	}

	// base64 of {"ok":true}
	if err := schemas.Validate("eyJvayI6dHJ1ZX0=", idx); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}
	if err := schemas.Validate("!!!not base64!!!", idx); err == nil {
		t.Fatalf("broken encoding accepted")
	}
	// base64 of {oops
	if err := schemas.Validate("e29vcHM=", idx); err == nil {
		t.Fatalf("broken json payload accepted")
	}
}

func TestValidationError_Shape(t *testing.T) {
	schemas, idx := compileDoc(t, "http://example.com/s.json", map[string]any{
		"type":     "object",
		"required": []any{"a", "b"},
		"properties": map[string]any{
			"c": map[string]any{"type": "string"},
		},
	})
	err := schemas.Validate(map[string]any{"c": 1}, idx)
	if err == nil {
		t.Fatalf("invalid instance accepted")
	}
	verr := err.(*jsonschema.ValidationError)
	leaves := verr.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves, want 3", len(leaves))
	}
	var sawType bool
	for _, l := range leaves {
		if l.Code == jsonschema.CodeInvalidType && l.InstanceLocation == "/c" {
			sawType = true
		}
	}
	if !sawType {
		t.Fatalf("no invalid_type leaf at /c: %v", verr)
	}
	if verr.Error() == "" {
		t.Fatalf("empty error text")
	}
}
