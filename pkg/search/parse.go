package search

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokPhrase
	tokField
	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokAnd
	tokOr
	tokNot
)

type token struct {
	kind tokenKind
	text string
	pos  int
	// wild is set on words holding an unescaped '*' or '?'.
	wild bool
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokPhrase:
		return fmt.Sprintf("%q", t.text)
	case tokField:
		return t.text + ":"
	}
	return t.text
}

// ParseError reports a malformed query string.
type ParseError struct {
	Query string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid query at position %d: %s", e.Pos, e.Msg)
}

func isSyntax(r rune) bool {
	switch r {
	case '(', ')', '"', ':', '\\':
		return true
	}
	return unicode.IsSpace(r)
}

func lex(s string) ([]token, error) {
	var (
		toks []token
		rs   = []rune(s)
	)
	fail := func(pos int, format string, args ...any) error {
		return &ParseError{Query: s, Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-' || r == '!':
			toks = append(toks, token{kind: tokMinus, text: string(r), pos: i})
			i++
		case r == '"':
			start := i
			var b strings.Builder
			for i++; ; i++ {
				if i >= len(rs) {
					return nil, fail(start, "unterminated phrase")
				}
				if rs[i] == '\\' && i+1 < len(rs) {
					i++
					b.WriteRune(rs[i])
					continue
				}
				if rs[i] == '"' {
					i++
					break
				}
				b.WriteRune(rs[i])
			}
			toks = append(toks, token{kind: tokPhrase, text: b.String(), pos: start})
		case r == ':':
			return nil, fail(i, "missing field name")
		default:
			start := i
			var (
				b    strings.Builder
				wild bool
			)
			for i < len(rs) && !isSyntax(rs[i]) {
				if rs[i] == '*' || rs[i] == '?' {
					wild = true
				}
				b.WriteRune(rs[i])
				i++
			}
			for i < len(rs) && rs[i] == '\\' {
				if i+1 >= len(rs) {
					return nil, fail(i, "dangling escape")
				}
				b.WriteRune(rs[i+1])
				i += 2
				for i < len(rs) && !isSyntax(rs[i]) {
					if rs[i] == '*' || rs[i] == '?' {
						wild = true
					}
					b.WriteRune(rs[i])
					i++
				}
			}
			text := b.String()
			if i < len(rs) && rs[i] == ':' {
				toks = append(toks, token{kind: tokField, text: text, pos: start})
				i++
				continue
			}
			kind := tokWord
			switch text {
			case "AND", "&&":
				kind = tokAnd
			case "OR", "||":
				kind = tokOr
			case "NOT":
				kind = tokNot
			}
			toks = append(toks, token{kind: kind, text: text, pos: start, wild: wild})
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type occur int

const (
	should occur = iota
	must
	mustNot
)

type clause struct {
	occur occur
	q     Query
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Query: p.src, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads a Lucene style query string. Clauses are OR'ed unless joined by
// AND or prefixed with '+'; '-', '!' and NOT exclude. A blank query matches
// everything.
func Parse(s string) (Query, error) {
	if strings.TrimSpace(s) == "" {
		return MatchAll{}, nil
	}
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{src: s, toks: toks}
	q, err := p.parseClauses("", 0)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", t.describe())
	}
	return q, nil
}

func (p *parser) parseClauses(field string, depth int) (Query, error) {
	var (
		clauses []clause
		conj    tokenKind
	)
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			return build(clauses), p.danglingConj(conj, t)
		case tokRParen:
			if depth == 0 {
				return nil, p.errorf(t, "unbalanced ')'")
			}
			return build(clauses), p.danglingConj(conj, t)
		case tokAnd, tokOr:
			p.next()
			if len(clauses) == 0 || conj != tokEOF {
				return nil, p.errorf(t, "unexpected %s", t.text)
			}
			conj = t.kind
			continue
		}

		oc := should
		switch t.kind {
		case tokPlus:
			p.next()
			oc = must
		case tokMinus, tokNot:
			p.next()
			oc = mustNot
		default:
			if conj == tokAnd {
				oc = must
			}
		}
		q, err := p.parseClause(field, depth)
		if err != nil {
			return nil, err
		}
		if conj == tokAnd {
			if last := &clauses[len(clauses)-1]; last.occur == should {
				last.occur = must
			}
		}
		clauses = append(clauses, clause{occur: oc, q: q})
		conj = tokEOF
	}
}

func (p *parser) danglingConj(conj tokenKind, at token) error {
	if conj == tokEOF {
		return nil
	}
	return p.errorf(at, "missing clause after operator")
}

func (p *parser) parseClause(field string, depth int) (Query, error) {
	t := p.next()
	switch t.kind {
	case tokField:
		if field != "" {
			return nil, p.errorf(t, "nested field %q inside %q", t.text, field)
		}
		if t.text == "" {
			return nil, p.errorf(t, "missing field name")
		}
		return p.parseClause(t.text, depth)
	case tokLParen:
		q, err := p.parseClauses(field, depth+1)
		if err != nil {
			return nil, err
		}
		if end := p.next(); end.kind != tokRParen {
			return nil, p.errorf(end, "missing ')'")
		}
		return q, nil
	case tokWord:
		if t.text == "*" && field == "" {
			return MatchAll{}, nil
		}
		return Term{Field: field, Value: strings.ToLower(t.text), Wildcard: t.wild}, nil
	case tokPhrase:
		if t.text == "" {
			return nil, p.errorf(t, "empty phrase")
		}
		return Term{Field: field, Value: strings.ToLower(t.text), Phrase: true}, nil
	}
	return nil, p.errorf(t, "unexpected %s", t.describe())
}

func build(clauses []clause) Query {
	if len(clauses) == 0 {
		return MatchAll{}
	}
	if len(clauses) == 1 && clauses[0].occur != mustNot {
		return clauses[0].q
	}
	var b Bool
	for _, c := range clauses {
		switch c.occur {
		case must:
			b.Must = append(b.Must, c.q)
		case mustNot:
			b.MustNot = append(b.MustNot, c.q)
		default:
			b.Should = append(b.Should, c.q)
		}
	}
	return b
}
