package blocks

import "strings"

// Kind determines how a block connects to its siblings and how its template
// is instantiated.
type Kind string

const (
	KindStatement Kind = "statement"
	KindValue     Kind = "value"
	KindBoolean   Kind = "boolean"
	KindOutput    Kind = "output"
)

// Kinds lists the closed kind enumeration in prompt order.
var Kinds = []Kind{KindStatement, KindValue, KindBoolean, KindOutput}

var kindSemantics = map[Kind]string{
	KindStatement: "Commands that execute actions (can connect before/after)",
	KindValue:     "Returns a value (can be used as input to other blocks)",
	KindBoolean:   "Returns true/false",
	KindOutput:    "Displays or outputs something",
}

// Valid reports whether k belongs to the closed enumeration.
func (k Kind) Valid() bool {
	_, ok := kindSemantics[k]
	return ok
}

// Expression reports whether instances of k are substitutable operands
// rather than sequenced statements.
func (k Kind) Expression() bool {
	return k == KindValue || k == KindBoolean
}

// Semantics returns the one-line description used in prompts.
func (k Kind) Semantics() string {
	return kindSemantics[k]
}

// ParseKind coerces an external value into a Kind. Anything outside the
// enumeration becomes KindStatement.
func ParseKind(s string) Kind {
	k := Kind(strings.TrimSpace(s))
	if k.Valid() {
		return k
	}
	return KindStatement
}
