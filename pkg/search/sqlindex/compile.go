package sqlindex

import (
	"strings"

	"github.com/hrdemo/company/pkg/search"
)

// statement is a SQL fragment with its positional '?' arguments.
type statement struct {
	SQL  string
	Vars []any
}

func (s *statement) add(sql string, vars ...any) {
	s.SQL += sql
	s.Vars = append(s.Vars, vars...)
}

func (s *statement) append(o statement) {
	s.add(o.SQL, o.Vars...)
}

const likeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a glob into a LIKE pattern escaped with '\'.
func likePattern(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			b.WriteString(likeEscaper.Replace(string(r)))
		}
	}
	return b.String()
}

func compileTerm(t search.Term) statement {
	var s statement
	s.add("EXISTS (SELECT 1 FROM search_terms t WHERE t.kind = d.kind AND t.doc_id = d.id")
	if t.Field != "" {
		s.add(" AND t.field = ?", t.Field)
	}
	switch {
	case t.Phrase:
		s.add(" AND t.token LIKE ? ESCAPE '"+likeEscape+"'", "%"+likeEscaper.Replace(t.Value)+"%")
	case t.Wildcard:
		s.add(" AND t.token LIKE ? ESCAPE '"+likeEscape+"'", likePattern(t.Value))
	default:
		s.add(" AND t.token = ?", t.Value)
	}
	s.add(")")
	return s
}

// compileMatch renders the boolean condition selecting documents aliased d.
func compileMatch(q search.Query) statement {
	switch q := q.(type) {
	case search.Term:
		return compileTerm(q)
	case search.Bool:
		var parts []statement
		for _, c := range q.Must {
			parts = append(parts, compileMatch(c))
		}
		for _, c := range q.MustNot {
			var s statement
			s.add("NOT ")
			s.append(compileMatch(c))
			parts = append(parts, s)
		}
		if len(q.Must) == 0 && len(q.Should) > 0 {
			var anyOf statement
			anyOf.add("(")
			for i, c := range q.Should {
				if i > 0 {
					anyOf.add(" OR ")
				}
				anyOf.append(compileMatch(c))
			}
			anyOf.add(")")
			parts = append(parts, anyOf)
		}
		if len(parts) == 0 {
			return statement{SQL: "1 = 1"}
		}
		var s statement
		s.add("(")
		for i, p := range parts {
			if i > 0 {
				s.add(" AND ")
			}
			s.append(p)
		}
		s.add(")")
		return s
	}
	return statement{SQL: "1 = 1"}
}

// compileScore renders the number of matched terms, mirroring compileMatch.
func compileScore(q search.Query) statement {
	switch q := q.(type) {
	case search.Term:
		var s statement
		s.add("CASE WHEN ")
		s.append(compileTerm(q))
		s.add(" THEN 1 ELSE 0 END")
		return s
	case search.Bool:
		scored := append(append([]search.Query{}, q.Must...), q.Should...)
		if len(scored) == 0 {
			return statement{SQL: "0"}
		}
		var s statement
		s.add("(")
		for i, c := range scored {
			if i > 0 {
				s.add(" + ")
			}
			s.append(compileClauseScore(c))
		}
		s.add(")")
		return s
	}
	return statement{SQL: "1"}
}

// compileClauseScore scores a nested clause only for documents it matches.
func compileClauseScore(q search.Query) statement {
	if _, ok := q.(search.Bool); !ok {
		return compileScore(q)
	}
	var s statement
	s.add("CASE WHEN ")
	s.append(compileMatch(q))
	s.add(" THEN ")
	s.append(compileScore(q))
	s.add(" ELSE 0 END")
	return s
}

func searchStatement(kind string, q search.Query, offset, limit int) statement {
	var s statement
	s.add("SELECT d.id, d.body, ")
	s.append(compileScore(q))
	s.add(" AS score FROM search_documents d WHERE d.kind = ? AND ", kind)
	s.append(compileMatch(q))
	s.add(" ORDER BY score DESC, d.id ASC")
	if limit > 0 {
		s.add(" LIMIT ? OFFSET ?", limit, offset)
	}
	return s
}

func countStatement(kind string, q search.Query) statement {
	var s statement
	s.add("SELECT COUNT(*) FROM search_documents d WHERE d.kind = ? AND ", kind)
	s.append(compileMatch(q))
	return s
}
