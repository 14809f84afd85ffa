package generators

import (
	"regexp/syntax"
	"strings"

	"github.com/pkg/errors"
)

const maxRepeat = 10

// randomFromRegex produces a string matching pattern by walking its parsed syntax tree.
func randomFromRegex(pattern string, src *Source) (string, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", errors.Wrapf(err, "unable to parse regex %q", pattern)
	}
	var sb strings.Builder
	writeRegex(&sb, re, src)
	return sb.String(), nil
}

func writeRegex(sb *strings.Builder, re *syntax.Regexp, src *Source) {
	switch re.Op {
	case syntax.OpLiteral:
		sb.WriteString(string(re.Rune))
	case syntax.OpCharClass:
		sb.WriteRune(runeFromClass(re.Rune, src))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		sb.WriteString(src.stringFrom(alphanumeric, 1))
	case syntax.OpCapture:
		writeRegex(sb, re.Sub[0], src)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			writeRegex(sb, sub, src)
		}
	case syntax.OpAlternate:
		writeRegex(sb, re.Sub[src.Intn(len(re.Sub))], src)
	case syntax.OpStar:
		repeat(sb, re.Sub[0], 0, maxRepeat, src)
	case syntax.OpPlus:
		repeat(sb, re.Sub[0], 1, maxRepeat, src)
	case syntax.OpQuest:
		repeat(sb, re.Sub[0], 0, 1, src)
	case syntax.OpRepeat:
		max := re.Max
		if max < 0 {
			max = re.Min + maxRepeat
		}
		repeat(sb, re.Sub[0], re.Min, max, src)
	}
	// anchors, word boundaries and empty matches produce no output
}

func repeat(sb *strings.Builder, re *syntax.Regexp, min, max int, src *Source) {
	n := int(src.IntRange(int64(min), int64(max)))
	for i := 0; i < n; i++ {
		writeRegex(sb, re, src)
	}
}

// runeFromClass picks a rune from the class ranges, preferring printable ASCII.
func runeFromClass(ranges []rune, src *Source) rune {
	var candidates []rune
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if lo < 0x20 {
			lo = 0x20
		}
		if hi > 0x7e {
			hi = 0x7e
		}
		for r := lo; r <= hi; r++ {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		if len(ranges) == 0 {
			return 'x'
		}
		return ranges[0]
	}
	return candidates[src.Intn(len(candidates))]
}
