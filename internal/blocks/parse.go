package blocks

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrParseFailure is returned when a model reply contains no parseable JSON
// object.
var ErrParseFailure = errors.New("blocks: model reply is not a JSON block definition")

var fenceMarker = regexp.MustCompile("```(?:javascript|js)?\n?")

// untrusted is the model reply before any field has been checked.
type untrusted map[string]json.RawMessage

// Defaulted names a field that was missing or malformed and got replaced.
type Defaulted struct {
	Field string
	Value string
}

// ParseResponse extracts a block definition from a raw model reply. The
// greedy span from the first '{' to the last '}' must be a JSON object;
// every field inside it is validated with defaulting and never fails.
func ParseResponse(raw string) (Definition, []Defaulted, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Definition{}, nil, ErrParseFailure
	}
	var obj untrusted
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return Definition{}, nil, errors.Join(ErrParseFailure, err)
	}
	if obj == nil {
		return Definition{}, nil, ErrParseFailure
	}
	def, defaulted := obj.validate()
	return def, defaulted, nil
}

func (u untrusted) validate() (Definition, []Defaulted) {
	var defaulted []Defaulted
	note := func(field, value string) string {
		defaulted = append(defaulted, Defaulted{Field: field, Value: value})
		return value
	}

	def := Definition{}
	if s, ok := u.str("name"); ok && strings.TrimSpace(s) != "" {
		def.Name = s
	} else {
		def.Name = note("name", DefaultName)
	}
	if s, ok := u.str("description"); ok && strings.TrimSpace(s) != "" {
		def.Description = s
	} else {
		def.Description = note("description", DefaultDescription)
	}
	if s, ok := u.str("type"); ok && Kind(s).Valid() {
		def.Kind = Kind(s)
	} else {
		def.Kind = Kind(note("type", string(KindStatement)))
	}
	if s, ok := u.str("color"); ok && ValidColor(s) {
		def.Color = s
	} else {
		def.Color = note("color", DefaultColor)
	}
	def.HasInput = strings.TrimSpace(string(u["hasInput"])) == "true"

	code, _ := u.str("code")
	def.Code = NormalizeCode(code)
	if def.Code == DefaultCode && strings.TrimSpace(code) != DefaultCode {
		note("code", DefaultCode)
	}
	return def, defaulted
}

func (u untrusted) str(field string) (string, bool) {
	raw, ok := u[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// NormalizeCode strips markdown fence markers anywhere in code and trims the
// result. Removal repeats until no marker is left, so the output never
// contains a fence and NormalizeCode(NormalizeCode(s)) == NormalizeCode(s).
func NormalizeCode(code string) string {
	for {
		next := fenceMarker.ReplaceAllString(code, "")
		if next == code {
			break
		}
		code = next
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return DefaultCode
	}
	return code
}
