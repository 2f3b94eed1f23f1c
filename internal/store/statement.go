package store

import "strings"

// Params maps placeholder names to the values bound to them. Keys are the
// placeholder name without its sigil; a leading ':' or '@' is tolerated and
// ignored.
type Params map[string]any

// Statement is a query together with its parameters. It is scoped to a
// single operation.
type Statement struct {
	SQL    string
	Params Params
}

// Empty reports whether the statement carries no SQL. Optional statements
// such as existence checks are skipped when empty.
func (s Statement) Empty() bool {
	return strings.TrimSpace(s.SQL) == ""
}

// Normalized returns a copy of p with placeholder sigils stripped from keys.
func (p Params) Normalized() Params {
	out := make(Params, len(p))
	for key, value := range p {
		out[strings.TrimLeft(key, ":@")] = value
	}
	return out
}
