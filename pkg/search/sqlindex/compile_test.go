package sqlindex

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/hrdemo/company/pkg/search"
)

func render(s statement) []byte {
	var b bytes.Buffer
	b.WriteString(s.SQL)
	b.WriteByte('\n')
	for _, v := range s.Vars {
		fmt.Fprintf(&b, "%#v\n", v)
	}
	return b.Bytes()
}

func TestCompiledStatements(t *testing.T) {
	tests := []struct {
		name string
		stmt statement
	}{
		{
			name: "search_term",
			stmt: searchStatement("task", search.Term{Field: "title", Value: "foo"}, 0, 20),
		},
		{
			name: "search_bool",
			stmt: searchStatement("employee", search.Bool{
				Must:    []search.Query{search.Term{Field: "lastName", Value: "smith"}},
				Should:  []search.Query{search.Term{Value: "jo*", Wildcard: true}},
				MustNot: []search.Query{search.Term{Field: "email", Value: "a_b%", Phrase: true}},
			}, 40, 20),
		},
		{
			name: "search_match_all",
			stmt: searchStatement("region", search.MatchAll{}, 0, 0),
		},
		{
			name: "search_not_only",
			stmt: searchStatement("task", search.Bool{
				MustNot: []search.Query{search.Term{Field: "title", Value: "draft"}},
			}, 0, 10),
		},
		{
			name: "count_or",
			stmt: countStatement("job", search.Bool{
				Should: []search.Query{
					search.Term{Field: "tasks.id", Value: "t1"},
					search.Term{Field: "tasks.id", Value: "t?", Wildcard: true},
				},
			}),
		},
	}

	g := goldie.New(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, render(tt.stmt))
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"jo*":    "jo%",
		"a?c":    "a_c",
		"50%":    `50\%`,
		"snake_": `snake\_`,
		`back\`:  `back\\`,
		"*":      "%",
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
