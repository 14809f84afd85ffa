// Package pactpath implements the path expressions used to attach matching rules and
// generators to locations inside bodies, headers, query parameters and message metadata.
//
// Expressions start with the root marker `$` followed by any number of segments:
// `.name`, `['any name']`, `[3]`, `[*]` and `.*`. An expression that does not start with
// `$` names a single entry (a header, query parameter or metadata key) and is kept verbatim.
package pactpath

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrMalformedPath = errors.New("malformed path expression")

type TokenKind int

const (
	Root TokenKind = iota
	Field
	Index
	StarIndex
	Star
)

type Token struct {
	Kind  TokenKind
	Name  string
	Index int
}

func (t Token) String() string {
	switch t.Kind {
	case Root:
		return "$"
	case Field:
		if isIdentifier(t.Name) {
			return "." + t.Name
		}
		return "['" + t.Name + "']"
	case Index:
		return "[" + strconv.Itoa(t.Index) + "]"
	case StarIndex:
		return "[*]"
	default:
		return ".*"
	}
}

// Path is an immutable, parsed path expression.
type Path struct {
	tokens []Token
	expr   string
}

// RootPath returns the path `$`.
func RootPath() Path {
	return Path{tokens: []Token{{Kind: Root}}, expr: "$"}
}

// Parse parses a textual path expression.
func Parse(expr string) (Path, error) {
	if expr == "" {
		return Path{}, errors.Wrap(ErrMalformedPath, "empty expression")
	}
	if !strings.HasPrefix(expr, "$") {
		return Path{tokens: []Token{{Kind: Root}, {Kind: Field, Name: expr}}, expr: expr}, nil
	}

	tokens := []Token{{Kind: Root}}
	i := 1
	for i < len(expr) {
		switch expr[i] {
		case '.':
			i++
			if i < len(expr) && expr[i] == '*' {
				tokens = append(tokens, Token{Kind: Star})
				i++
				continue
			}
			start := i
			for i < len(expr) && expr[i] != '.' && expr[i] != '[' {
				i++
			}
			if start == i {
				return Path{}, errors.Wrapf(ErrMalformedPath, "empty segment at position %d in %q", start, expr)
			}
			tokens = append(tokens, Token{Kind: Field, Name: expr[start:i]})
		case '[':
			token, next, err := parseBracket(expr, i)
			if err != nil {
				return Path{}, err
			}
			tokens = append(tokens, token)
			i = next
		default:
			return Path{}, errors.Wrapf(ErrMalformedPath, "unexpected character %q at position %d in %q", expr[i], i, expr)
		}
	}

	return Path{tokens: tokens, expr: expr}, nil
}

func parseBracket(expr string, open int) (Token, int, error) {
	i := open + 1
	if i >= len(expr) {
		return Token{}, 0, errors.Wrapf(ErrMalformedPath, "unterminated bracket at position %d in %q", open, expr)
	}

	switch {
	case expr[i] == '*':
		if i+1 >= len(expr) || expr[i+1] != ']' {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "expected ']' after '*' at position %d in %q", i, expr)
		}
		return Token{Kind: StarIndex}, i + 2, nil
	case expr[i] == '\'':
		end := strings.IndexByte(expr[i+1:], '\'')
		if end < 0 {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "unterminated quoted field at position %d in %q", i, expr)
		}
		name := expr[i+1 : i+1+end]
		closing := i + 1 + end + 1
		if closing >= len(expr) || expr[closing] != ']' {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "expected ']' after quoted field at position %d in %q", closing, expr)
		}
		if name == "" {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "empty quoted field at position %d in %q", i, expr)
		}
		return Token{Kind: Field, Name: name}, closing + 1, nil
	default:
		end := strings.IndexByte(expr[i:], ']')
		if end < 0 {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "unterminated bracket at position %d in %q", open, expr)
		}
		digits := expr[i : i+end]
		index, err := strconv.Atoi(digits)
		if err != nil || index < 0 || digits == "" {
			return Token{}, 0, errors.Wrapf(ErrMalformedPath, "invalid index %q at position %d in %q", digits, i, expr)
		}
		return Token{Kind: Index, Index: index}, i + end + 1, nil
	}
}

// MustParse is like Parse but panics on a malformed expression. Intended for literals.
func MustParse(expr string) Path {
	p, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the expression the path was parsed from, or its canonical rendering
// for paths built with Join/JoinIndex.
func (p Path) String() string {
	if p.expr != "" {
		return p.expr
	}
	return p.Canonical()
}

// Canonical renders the path from its tokens.
func (p Path) Canonical() string {
	var sb strings.Builder
	for _, t := range p.tokens {
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (p Path) Tokens() []Token {
	return append([]Token(nil), p.tokens...)
}

func (p Path) Len() int {
	return len(p.tokens)
}

func (p Path) IsEmpty() bool {
	return len(p.tokens) == 0
}

func (p Path) IsRoot() bool {
	return len(p.tokens) == 1 && p.tokens[0].Kind == Root
}

// HasWildcard reports whether the path contains a `*` or `[*]` segment.
func (p Path) HasWildcard() bool {
	for _, t := range p.tokens {
		if t.Kind == Star || t.Kind == StarIndex {
			return true
		}
	}
	return false
}

// LastField returns the name of the final field token, if the path ends in one.
func (p Path) LastField() (string, bool) {
	if len(p.tokens) == 0 {
		return "", false
	}
	last := p.tokens[len(p.tokens)-1]
	return last.Name, last.Kind == Field
}

// FromTokens builds a path from tokens, adding the root token when it is missing.
func FromTokens(tokens []Token) Path {
	if len(tokens) == 0 || tokens[0].Kind != Root {
		tokens = append([]Token{{Kind: Root}}, tokens...)
	}
	return Path{tokens: append([]Token(nil), tokens...)}
}

func (p Path) Join(name string) Path {
	return p.with(Token{Kind: Field, Name: name})
}

func (p Path) JoinIndex(index int) Path {
	return p.with(Token{Kind: Index, Index: index})
}

func (p Path) with(t Token) Path {
	base := p.tokens
	if len(base) == 0 {
		base = []Token{{Kind: Root}}
	}
	tokens := make([]Token, len(base), len(base)+1)
	copy(tokens, base)
	return Path{tokens: append(tokens, t)}
}

// Fragments renders each token as the string it matches in a concrete location,
// e.g. `$.a[0]` -> ["$", "a", "0"].
func (p Path) Fragments() []string {
	fragments := make([]string, len(p.tokens))
	for i, t := range p.tokens {
		switch t.Kind {
		case Root:
			fragments[i] = "$"
		case Field:
			fragments[i] = t.Name
		case Index:
			fragments[i] = strconv.Itoa(t.Index)
		case StarIndex:
			fragments[i] = "[*]"
		default:
			fragments[i] = "*"
		}
	}
	return fragments
}

// Weight scores how well the expression matches the concrete path. Every matching token
// contributes a factor of 2 for an exact match and 1 for a wildcard; any mismatch, or an
// expression longer than the concrete path, yields 0. Expressions shorter than the
// concrete path match its prefix, which is how rules cascade to nested values.
func (p Path) Weight(concrete Path) int {
	return p.weight(concrete.Fragments(), false)
}

// WeightFold is Weight with case-insensitive field comparison, used for header names.
func (p Path) WeightFold(concrete Path) int {
	return p.weight(concrete.Fragments(), true)
}

func (p Path) weight(fragments []string, fold bool) int {
	if len(p.tokens) == 0 || len(p.tokens) > len(fragments) {
		return 0
	}
	weight := 1
	for i, t := range p.tokens {
		weight *= matchToken(t, fragments[i], fold)
		if weight == 0 {
			return 0
		}
	}
	return weight
}

func matchToken(t Token, fragment string, fold bool) int {
	switch t.Kind {
	case Root:
		if fragment == "$" {
			return 2
		}
	case Field:
		if fragment == t.Name || (fold && strings.EqualFold(fragment, t.Name)) {
			return 2
		}
	case Index:
		if i, err := strconv.Atoi(fragment); err == nil && i == t.Index {
			return 2
		}
	case StarIndex:
		if _, err := strconv.Atoi(fragment); err == nil {
			return 1
		}
	case Star:
		return 1
	}
	return 0
}

func (p Path) Matches(concrete Path) bool {
	return p.Weight(concrete) > 0
}

func (p Path) MatchesExactly(concrete Path) bool {
	return p.Len() == concrete.Len() && p.Weight(concrete) > 0
}

func (p Path) Equal(other Path) bool {
	if len(p.tokens) != len(other.tokens) {
		return false
	}
	for i := range p.tokens {
		if p.tokens[i] != other.tokens[i] {
			return false
		}
	}
	return true
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r == '-' || r == '@' || r == ':' || r == '#' || r == '$' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
