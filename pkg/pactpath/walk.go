package pactpath

import (
	"sort"
	"strconv"
)

// Match is one concrete location resolved by Walk.
type Match struct {
	Path  Path
	Value interface{}
}

// Walk evaluates the expression against a decoded JSON value (maps, slices and scalars as
// produced by encoding/json) or a flat metadata map. Wildcards fork the evaluation into one
// result per key or element; object keys are visited in sorted order.
func (p Path) Walk(value interface{}) []Match {
	if len(p.tokens) == 0 || p.tokens[0].Kind != Root {
		return nil
	}
	var matches []Match
	walk(p.tokens[1:], RootPath(), value, &matches)
	return matches
}

func walk(tokens []Token, at Path, value interface{}, matches *[]Match) {
	if len(tokens) == 0 {
		*matches = append(*matches, Match{Path: at, Value: value})
		return
	}

	t := tokens[0]
	switch v := value.(type) {
	case map[string]interface{}:
		switch t.Kind {
		case Field:
			if child, ok := v[t.Name]; ok {
				walk(tokens[1:], at.Join(t.Name), child, matches)
			}
		case Index:
			key := strconv.Itoa(t.Index)
			if child, ok := v[key]; ok {
				walk(tokens[1:], at.Join(key), child, matches)
			}
		case Star:
			for _, key := range sortedKeys(v) {
				walk(tokens[1:], at.Join(key), v[key], matches)
			}
		}
	case []interface{}:
		switch t.Kind {
		case Index:
			if t.Index < len(v) {
				walk(tokens[1:], at.JoinIndex(t.Index), v[t.Index], matches)
			}
		case StarIndex, Star:
			for i, child := range v {
				walk(tokens[1:], at.JoinIndex(i), child, matches)
			}
		}
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
