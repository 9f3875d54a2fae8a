package jsonschema_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/averik/jsonschema"
)

func TestUnmarshalJSON_NumbersStayLexical(t *testing.T) {
	v, err := jsonschema.UnmarshalJSON(strings.NewReader(`{"n": 0.0075, "big": 12345678901234567890}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	obj := v.(map[string]any)
	n, ok := obj["n"].(json.Number)
	if !ok {
		t.Fatalf("number decoded as %T, want json.Number", obj["n"])
	}
	if string(n) != "0.0075" {
		t.Fatalf("lexical form lost: %q", n)
	}
	if big, ok := obj["big"].(json.Number); !ok || string(big) != "12345678901234567890" {
		t.Fatalf("big integer: %v (%T)", obj["big"], obj["big"])
	}
}

func TestUnmarshalJSON_DuplicateKeys(t *testing.T) {
	_, err := jsonschema.UnmarshalJSON(strings.NewReader(`{"a": {"b": 1, "b": 2}}`))
	if err == nil {
		t.Fatalf("duplicate keys accepted")
	}
	if !strings.Contains(err.Error(), `duplicate key "b"`) {
		t.Fatalf("error text: %v", err)
	}
}

func TestUnmarshalJSON_TrailingContent(t *testing.T) {
	_, err := jsonschema.UnmarshalJSON(strings.NewReader(`{} {}`))
	if err == nil || !strings.Contains(err.Error(), "trailing content") {
		t.Fatalf("got %v, want trailing content error", err)
	}
}

func TestUnmarshalYAML(t *testing.T) {
	v, err := jsonschema.UnmarshalYAML([]byte("type: object\nrequired:\n  - name\n"))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("decoded as %T", v)
	}
	if obj["type"] != "object" {
		t.Fatalf("type: %v", obj["type"])
	}
	req, ok := obj["required"].([]any)
	if !ok || len(req) != 1 || req[0] != "name" {
		t.Fatalf("required: %v", obj["required"])
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(jsonPath, []byte(`{"type": "string"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(yamlPath, []byte("type: number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var l jsonschema.FileLoader
	v, err := l.Load("file://" + filepath.ToSlash(jsonPath))
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if v.(map[string]any)["type"] != "string" {
		t.Fatalf("json content: %v", v)
	}

	v, err = l.Load("file://" + filepath.ToSlash(yamlPath))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if v.(map[string]any)["type"] != "number" {
		t.Fatalf("yaml content: %v", v)
	}

	if _, err := l.Load("file://remotehost/etc/schema.json"); err == nil {
		t.Fatalf("non-local file host accepted")
	}

	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(`{]`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = l.Load("file://" + filepath.ToSlash(badPath))
	var inv *jsonschema.InvalidDocumentError
	if !errors.As(err, &inv) {
		t.Fatalf("got %v, want InvalidDocumentError", err)
	}
}
