package blocks

import (
	"fmt"
	"regexp"
	"strings"

	"blockvibe/internal/util/jsonutil"
)

const (
	// Placeholder marks where the single user-supplied value is substituted.
	Placeholder = "{{INPUT}}"

	DefaultColor  = "#5b67a5"
	FallbackColor = "#5C68A6"

	DefaultName        = "custom block"
	DefaultDescription = "user-defined block"
	DefaultCode        = `console.log("executed");`

	// FallbackNameRunes bounds the display name of a fallback definition.
	FallbackNameRunes = 20
)

// Definition is a user-synthesized block type: display metadata plus the
// code template the generator materializes for every placed instance.
type Definition struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Kind        Kind   `json:"type" yaml:"type"`
	Color       string `json:"color" yaml:"color"`
	HasInput    bool   `json:"hasInput" yaml:"hasInput"`
	Code        string `json:"code" yaml:"code"`
}

// Accent is one entry of the suggested color palette.
type Accent struct {
	Category string
	Color    string
}

// Palette is the closed set of accent colors offered to the model, keyed by
// semantic category.
var Palette = []Accent{
	{Category: "general", Color: DefaultColor},
	{Category: "output", Color: "#a55b80"},
	{Category: "logic", Color: "#5ba55b"},
	{Category: "math", Color: "#5b80a5"},
	{Category: "text", Color: "#a5745b"},
	{Category: "ui", Color: "#a55b99"},
	{Category: "data", Color: "#745ba5"},
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether s is a #rgb or #rrggbb hex color.
func ValidColor(s string) bool {
	return hexColor.MatchString(s)
}

// DefaultDefinition is substituted when a model reply cannot be parsed at all.
func DefaultDefinition() Definition {
	return Definition{
		Name:        "generated block",
		Description: "auto-generated block",
		Kind:        KindStatement,
		Color:       DefaultColor,
		HasInput:    false,
		Code:        DefaultCode,
	}
}

// Fallback builds a usable definition from the raw description alone. It is
// deterministic: the same description always yields the same definition.
func Fallback(description string) Definition {
	description = strings.TrimSpace(description)
	name := description
	if r := []rune(name); len(r) > FallbackNameRunes {
		name = string(r[:FallbackNameRunes])
	}
	if name == "" {
		name = DefaultName
	}
	return Definition{
		Name:        name,
		Description: description,
		Kind:        KindStatement,
		Color:       FallbackColor,
		HasInput:    false,
		Code:        fallbackCode(description),
	}
}

func fallbackCode(description string) string {
	comment := strings.Join(strings.Fields(description), " ")
	msg, err := jsonutil.MarshalNoEscape(description + " executed")
	if err != nil {
		msg = []byte(`"executed"`)
	}
	return fmt.Sprintf("// %s\nconsole.log(%s);", comment, msg)
}
