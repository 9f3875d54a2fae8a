package jsonschema

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// URLLoader loads the document a URL addresses. One implementation is
// registered per scheme; the compiler invokes it only for URLs with no
// already-registered root and performs no retries or caching of its own
// beyond keying roots by URL.
type URLLoader interface {
	Load(url string) (any, error)
}

// FileLoader loads file: URLs, decoding by extension: .yaml/.yml via YAML,
// everything else as JSON.
type FileLoader struct{}

// Load implements URLLoader.
func (FileLoader) Load(rawURL string) (any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		return nil, fmt.Errorf("unsupported file host %q", u.Host)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = UnmarshalYAML(data)
	default:
		v, err = UnmarshalJSON(strings.NewReader(string(data)))
	}
	if err != nil {
		return nil, &InvalidDocumentError{URL: rawURL, Err: err}
	}
	return v, nil
}

// HTTPLoader loads http: and https: URLs. The zero value uses
// http.DefaultClient. It is not registered by default; callers opt in via
// Compiler.RegisterLoader.
type HTTPLoader struct {
	Client *http.Client
}

// Load implements URLLoader.
func (l HTTPLoader) Load(rawURL string) (any, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", rawURL, resp.StatusCode)
	}
	var v any
	if strings.Contains(resp.Header.Get("Content-Type"), "yaml") {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		v, err = UnmarshalYAML(data)
		if err != nil {
			return nil, &InvalidDocumentError{URL: rawURL, Err: err}
		}
		return v, nil
	}
	v, err = UnmarshalJSON(resp.Body)
	if err != nil {
		return nil, &InvalidDocumentError{URL: rawURL, Err: err}
	}
	return v, nil
}

// UnmarshalJSON decodes one JSON document into a value tree of
// null/bool/json.Number/string/[]any/map[string]any. Numbers stay lexical
// (json.Number) so comparison semantics are exact. Duplicate object keys and
// trailing content are rejected.
func UnmarshalJSON(r io.Reader) (any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec, "")
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing content after top-level value")
	}
	return v, nil
}

func decodeValue(dec *gojson.Decoder, ptr JSONPointer) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			obj := map[string]any{}
			for {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if d, ok := keyTok.(gojson.Delim); ok && d == '}' {
					return obj, nil
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string at %q", ptr)
				}
				if _, exists := obj[key]; exists {
					return nil, fmt.Errorf("duplicate key %q at %q", key, ptr)
				}
				val, err := decodeValue(dec, ptr.Append(key))
				if err != nil {
					return nil, err
				}
				obj[key] = val
			}
		case '[':
			arr := []any{}
			for i := 0; ; i++ {
				if !dec.More() {
					// consume the closing bracket
					if _, err := dec.Token(); err != nil {
						return nil, err
					}
					return arr, nil
				}
				item, err := decodeValue(dec, ptr.Append(fmt.Sprintf("%d", i)))
				if err != nil {
					return nil, err
				}
				arr = append(arr, item)
			}
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// UnmarshalYAML decodes one YAML document into the same value-tree shape as
// UnmarshalJSON. yaml.v3 already rejects duplicate mapping keys.
func UnmarshalYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
