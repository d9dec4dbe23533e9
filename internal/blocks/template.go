package blocks

import "strings"

// Snippet is an instantiated code template. It stays opaque data: nothing in
// this module evaluates it.
type Snippet struct {
	code       string
	expression bool
}

// Instantiate materializes def's template for one placed block. When the
// block takes an input, every placeholder is replaced by input verbatim; an
// empty input empties the placeholder.
func Instantiate(def Definition, input string) Snippet {
	code := def.Code
	if def.HasInput {
		code = strings.ReplaceAll(code, Placeholder, input)
	}
	return Snippet{code: code, expression: def.Kind.Expression()}
}

func (s Snippet) String() string { return s.code }

// IsExpression reports whether the snippet is an operand rather than a
// statement.
func (s Snippet) IsExpression() bool { return s.expression }

// Statement returns the snippet terminated for sequencing in a program.
// Expressions used at the top level get a statement terminator first.
func (s Snippet) Statement() string {
	if s.expression {
		return s.code + ";\n"
	}
	return s.code + "\n"
}
