package search

import (
	"strings"
)

// Query is a node of a parsed search expression.
type Query interface {
	String() string
	query()
}

// MatchAll matches every document. It is what an empty query or a bare "*"
// parses to.
type MatchAll struct{}

// Term matches documents that hold Value in Field, or in any field when Field
// is empty. Value is lowercased. Phrase terms match any token containing the
// value; Wildcard terms treat '*' and '?' as glob characters.
type Term struct {
	Field    string
	Value    string
	Phrase   bool
	Wildcard bool
}

// Bool combines clauses. A document matches when it matches every Must clause,
// no MustNot clause, and at least one Should clause if there are no Must
// clauses. Should clauses next to Must clauses only add to the score.
type Bool struct {
	Must    []Query
	Should  []Query
	MustNot []Query
}

func (MatchAll) query() {}
func (Term) query()     {}
func (Bool) query()     {}

func (MatchAll) String() string { return "*:*" }

func (t Term) String() string {
	v := t.Value
	if t.Phrase {
		v = `"` + v + `"`
	}
	if t.Field == "" {
		return v
	}
	return t.Field + ":" + v
}

func (b Bool) String() string {
	var parts []string
	for _, q := range b.Must {
		parts = append(parts, "+"+q.String())
	}
	for _, q := range b.Should {
		parts = append(parts, q.String())
	}
	for _, q := range b.MustNot {
		parts = append(parts, "-"+q.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
