package jsonschema

import (
	"encoding/base64"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Format assertions apply to strings only; every other type passes, per the
// format keyword's definition. Unknown format names compile as annotations,
// so absence from this table is not an error.
var formatCheckers = map[string]func(any) bool{
	"date-time":     stringFormat(isDateTime),
	"date":          stringFormat(isDate),
	"time":          stringFormat(isTime),
	"duration":      stringFormat(isDuration),
	"email":         stringFormat(isEmail),
	"hostname":      stringFormat(isHostname),
	"ipv4":          stringFormat(isIPv4),
	"ipv6":          stringFormat(isIPv6),
	"uri":           stringFormat(isURI),
	"uri-reference": stringFormat(isURIReference),
	"uuid":          stringFormat(isUUID),
	"regex":         stringFormat(isRegex),
	"json-pointer":  stringFormat(isJSONPointer),
}

func stringFormat(check func(string) bool) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return true
		}
		return check(s)
	}
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isTime(s string) bool {
	_, err := time.Parse("15:04:05Z07:00", s)
	return err == nil
}

var durationRE = regexp.MustCompile(`^P(\d+W|(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?)$`)

func isDuration(s string) bool {
	if !durationRE.MatchString(s) {
		return false
	}
	// at least one component, and T must introduce one
	return s != "P" && !strings.HasSuffix(s, "T")
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Name == "" && addr.Address == s
}

var hostnameLabelRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

func isHostname(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) > 63 || !hostnameLabelRE.MatchString(label) {
			return false
		}
	}
	return true
}

func isIPv4(s string) bool {
	return !strings.Contains(s, ":") && net.ParseIP(s) != nil
}

func isIPv6(s string) bool {
	return strings.Contains(s, ":") && net.ParseIP(s) != nil
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func isURIReference(s string) bool {
	_, err := url.Parse(s)
	return err == nil
}

func isUUID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.String() == strings.ToLower(s)
}

func isRegex(s string) bool {
	_, err := regexp.Compile(s)
	return err == nil
}

func isJSONPointer(s string) bool {
	if s == "" {
		return true
	}
	if !strings.HasPrefix(s, "/") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			continue
		}
		if i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1') {
			return false
		}
	}
	return true
}

var contentDecoders = map[string]func(string) ([]byte, error){
	"base64": base64.StdEncoding.DecodeString,
}

var mediaTypeCheckers = map[string]func([]byte) error{
	"application/json": func(data []byte) error {
		var v any
		return gojson.Unmarshal(data, &v)
	},
}
