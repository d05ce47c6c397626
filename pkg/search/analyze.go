package search

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/buger/jsonparser"
)

// Field holds the distinct tokens found under one dotted JSON path.
type Field struct {
	Name   string
	Tokens []string
}

// Analyze flattens a JSON document into dotted field paths. Array elements
// share the path of their array, so every task of a job lands in "tasks.id".
// Each scalar contributes its full lowercased value and its lowercased words.
func Analyze(body []byte) ([]Field, error) {
	fields := map[string]map[string]struct{}{}
	if err := walk(body, jsonparser.Object, "", fields); err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	out := make([]Field, 0, len(fields))
	for name, set := range fields {
		tokens := make([]string, 0, len(set))
		for tok := range set {
			tokens = append(tokens, tok)
		}
		slices.Sort(tokens)
		out = append(out, Field{Name: name, Tokens: tokens})
	}
	slices.SortFunc(out, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func walk(value []byte, typ jsonparser.ValueType, path string, fields map[string]map[string]struct{}) error {
	switch typ {
	case jsonparser.Object:
		return jsonparser.ObjectEach(value, func(key, v []byte, t jsonparser.ValueType, _ int) error {
			name := string(key)
			if path != "" {
				name = path + "." + name
			}
			return walk(v, t, name, fields)
		})
	case jsonparser.Array:
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, t jsonparser.ValueType, _ int, _ error) {
			if inner == nil {
				inner = walk(v, t, path, fields)
			}
		})
		if err != nil {
			return err
		}
		return inner
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return err
		}
		addTokens(fields, path, s)
	case jsonparser.Number, jsonparser.Boolean:
		addTokens(fields, path, string(value))
	}
	return nil
}

func addTokens(fields map[string]map[string]struct{}, path, value string) {
	value = strings.ToLower(strings.TrimSpace(value))
	if path == "" || value == "" {
		return
	}
	set := fields[path]
	if set == nil {
		set = map[string]struct{}{}
		fields[path] = set
	}
	set[value] = struct{}{}
	for _, w := range Words(value) {
		set[w] = struct{}{}
	}
}

// Words splits s into lowercased runs of letters and digits.
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
