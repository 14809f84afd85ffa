package pactpath

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		wantTokens []Token
	}{
		{
			name:       "root",
			expr:       "$",
			wantTokens: []Token{{Kind: Root}},
		},
		{
			name: "fields and wildcard index",
			expr: "$.a.b[*]",
			wantTokens: []Token{
				{Kind: Root},
				{Kind: Field, Name: "a"},
				{Kind: Field, Name: "b"},
				{Kind: StarIndex},
			},
		},
		{
			name: "quoted field and index",
			expr: "$['first name'][2].*",
			wantTokens: []Token{
				{Kind: Root},
				{Kind: Field, Name: "first name"},
				{Kind: Index, Index: 2},
				{Kind: Star},
			},
		},
		{
			name:       "plain entry name is a single field",
			expr:       "Content-Type",
			wantTokens: []Token{{Kind: Root}, {Kind: Field, Name: "Content-Type"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTokens, p.Tokens())
			assert.Equal(t, tt.expr, p.String())
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, expr := range []string{"", "$.", "$..a", "$[", "$[1", "$[a]", "$['a'", "$['a'x", "$[*", "$a", "$[-1]", "$['']"} {
		t.Run(expr, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := Parse(expr)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedPath), "error %v", err)
			})
		})
	}
}

func TestCanonical(t *testing.T) {
	p := RootPath().Join("a").Join("b c").JoinIndex(0)
	assert.Equal(t, "$.a['b c'][0]", p.String())
	assert.Equal(t, []string{"$", "a", "b c", "0"}, p.Fragments())
}

func TestWeight(t *testing.T) {
	concrete := RootPath().Join("a").Join("b").JoinIndex(1)
	tests := []struct {
		expr   string
		weight int
	}{
		{"$", 2},
		{"$.a", 4},
		{"$.a.b[1]", 16},
		{"$.a.b[*]", 8},
		{"$.*.b[*]", 4},
		{"$.a.c", 0},
		{"$.a.b[0]", 0},
		{"$.a.b[1].c", 0},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.weight, MustParse(tt.expr).Weight(concrete))
		})
	}

	assert.True(t, MustParse("$.a.b[*]").MatchesExactly(concrete))
	assert.False(t, MustParse("$.a").MatchesExactly(concrete))
	assert.True(t, MustParse("$.a").Matches(concrete))
}

func TestWeightFold(t *testing.T) {
	rule := MustParse("Content-Type")
	concrete := RootPath().Join("content-type")
	assert.Equal(t, 0, rule.Weight(concrete))
	assert.Equal(t, 4, rule.WeightFold(concrete))
}

func TestWalk(t *testing.T) {
	value := map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"id": 1.0},
			map[string]interface{}{"id": 2.0},
		},
		"meta": map[string]interface{}{"b": "x", "a": "y"},
	}

	matches := MustParse("$.items[*].id").Walk(value)
	require.Len(t, matches, 2)
	assert.Equal(t, "$.items[0].id", matches[0].Path.String())
	assert.Equal(t, 1.0, matches[0].Value)
	assert.Equal(t, "$.items[1].id", matches[1].Path.String())

	matches = MustParse("$.meta.*").Walk(value)
	require.Len(t, matches, 2)
	assert.Equal(t, "$.meta.a", matches[0].Path.String())
	assert.Equal(t, "$.meta.b", matches[1].Path.String())

	assert.Empty(t, MustParse("$.missing[0]").Walk(value))
}
