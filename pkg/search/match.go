package search

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// MatchToken reports whether a single indexed token satisfies the term.
func (t Term) MatchToken(token string) bool {
	switch {
	case t.Phrase:
		return strings.Contains(token, t.Value)
	case t.Wildcard:
		g, err := compileGlob(t.Value)
		return err == nil && g.Match(token)
	default:
		return token == t.Value
	}
}

var globs sync.Map // pattern -> glob.Glob

// globMeta lists the glob syntax beyond '*' and '?', which query values use
// literally.
var globMeta = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`)

// compileGlob compiles a wildcard value where '*' spans any run of runes and
// '?' exactly one.
func compileGlob(pattern string) (glob.Glob, error) {
	if g, ok := globs.Load(pattern); ok {
		return g.(glob.Glob), nil
	}
	g, err := glob.Compile(globMeta.Replace(pattern))
	if err != nil {
		return nil, err
	}
	globs.Store(pattern, g)
	return g, nil
}
