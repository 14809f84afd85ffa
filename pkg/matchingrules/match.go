package matchingrules

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	log "github.com/sirupsen/logrus"
)

// Mismatch describes one failed comparison.
type Mismatch struct {
	Path     string `json:"path"`
	RuleKind string `json:"ruleKind"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s", m.Path, m.Message)
}

type MatchResult struct {
	Mismatches []Mismatch
}

func (r MatchResult) Matched() bool {
	return len(r.Mismatches) == 0
}

type matcher struct {
	category   Category
	mismatches []Mismatch
}

func (c Category) matchAt(at pactpath.Path, expected, actual interface{}) []Mismatch {
	m := &matcher{category: c}
	m.compare(at, expected, actual, nil)
	return m.mismatches
}

// MatchBody compares two decoded JSON documents and returns every mismatch. Object keys
// are visited in sorted order; unexpected keys in actual are allowed.
func (c Category) MatchBody(expected, actual interface{}) []Mismatch {
	return c.matchAt(pactpath.RootPath(), expected, actual)
}

// MatchContent compares two raw bodies. JSON bodies are decoded and compared with
// MatchBody; anything else is compared as a whole, using the root rules when present.
func (c Category) MatchContent(expected, actual []byte, ct contenttype.ContentType) []Mismatch {
	root := pactpath.RootPath()
	if ct.IsJSON() {
		e, err := DecodeJSON(expected)
		if err == nil {
			a, err := DecodeJSON(actual)
			if err != nil {
				return []Mismatch{{
					Path:     root.String(),
					RuleKind: Equality{}.Kind(),
					Expected: string(expected),
					Actual:   string(actual),
					Message:  fmt.Sprintf("Failed to parse the actual body: %v", err),
				}}
			}
			return c.MatchBody(e, a)
		}
		log.Warnf("expected body is not valid JSON, comparing it as text: %v", err)
	}

	if rules, exact, ok := c.Resolve(root); ok && exact {
		m := &matcher{category: c}
		m.applyRules(root, rules, expected, actual)
		return m.mismatches
	}
	if !bytes.Equal(expected, actual) {
		return []Mismatch{{
			Path:     root.String(),
			RuleKind: Equality{}.Kind(),
			Expected: string(expected),
			Actual:   string(actual),
			Message:  fmt.Sprintf("Expected body '%s' to be equal to '%s'", actual, expected),
		}}
	}
	return nil
}

// MatchValue compares a single value such as a path, method or status code.
func (c Category) MatchValue(expected, actual interface{}) []Mismatch {
	return c.matchAt(pactpath.RootPath(), expected, actual)
}

// MatchStatus compares HTTP status codes using the rules of the status category.
func (m MatchingRules) MatchStatus(expected, actual int) []Mismatch {
	return m.Category(CategoryStatus).MatchValue(expected, actual)
}

// MatchValues compares multi-valued maps such as headers and query parameters. Header
// names are compared case-insensitively; unexpected query parameters are mismatches.
func (c Category) MatchValues(expected, actual map[string][]string) []Mismatch {
	m := &matcher{category: c}
	fold := c.Name == CategoryHeader

	for _, key := range sortedValueKeys(expected) {
		at := pactpath.RootPath().Join(key)
		exp := expected[key]
		act, found := lookupValues(actual, key, fold)
		if !found {
			m.add(at, Equality{}.Kind(), exp, nil, fmt.Sprintf("Expected %s '%s' but was missing", c.label(), key))
			continue
		}

		if rules, _, ok := c.Resolve(at); ok {
			for i, value := range act {
				var e interface{}
				if len(exp) > 0 {
					e = exp[minInt(i, len(exp)-1)]
				}
				m.applyRules(at, rules, e, value)
			}
			continue
		}

		if fold {
			exp, act = splitHeaderValues(exp), splitHeaderValues(act)
		}
		if !equalStrings(exp, act) {
			m.add(at, Equality{}.Kind(), exp, act, fmt.Sprintf("Expected %s '%s' to have value %s but received %s",
				c.label(), key, render(stringsToValues(exp)), render(stringsToValues(act))))
		}
	}

	if c.Name == CategoryQuery {
		for _, key := range sortedValueKeys(actual) {
			if _, ok := expected[key]; !ok {
				m.add(pactpath.RootPath().Join(key), Equality{}.Kind(), nil, actual[key],
					fmt.Sprintf("Unexpected query parameter '%s' received", key))
			}
		}
	}
	return m.mismatches
}

// MatchMetadata compares message metadata. Keys missing from actual are mismatches.
func (c Category) MatchMetadata(expected, actual map[string]interface{}) []Mismatch {
	m := &matcher{category: c}
	for _, key := range sortedKeys(expected) {
		at := pactpath.RootPath().Join(key)
		value, ok := actual[key]
		if !ok {
			m.add(at, Equality{}.Kind(), expected[key], nil, fmt.Sprintf("Expected metadata key '%s' but was missing", key))
			continue
		}
		m.compare(at, expected[key], value, nil)
	}
	return m.mismatches
}

func (c Category) label() string {
	switch c.Name {
	case CategoryHeader:
		return "header"
	case CategoryQuery:
		return "query parameter"
	}
	return c.Name
}

func (m *matcher) add(at pactpath.Path, kind string, expected, actual interface{}, message string) {
	m.mismatches = append(m.mismatches, Mismatch{
		Path:     at.String(),
		RuleKind: kind,
		Expected: render(expected),
		Actual:   render(actual),
		Message:  message,
	})
}

func (m *matcher) compare(at pactpath.Path, expected, actual interface{}, inherited *RuleList) {
	rules, exact, ok := m.category.Resolve(at)
	if inherited != nil && (!ok || !exact) {
		rules, ok = *inherited, true
	}
	if !ok {
		m.compareStructure(at, expected, actual)
		return
	}
	m.applyRules(at, rules, expected, actual)
	if rules.comparesWhole() {
		return
	}
	m.descend(at, rules, expected, actual)
}

// applyRules evaluates every rule of the list and records the failures according to the
// list's logic.
func (m *matcher) applyRules(at pactpath.Path, rules RuleList, expected, actual interface{}) {
	var failures []Mismatch
	passed := 0
	for _, r := range rules.Rules {
		if u, ok := r.(Unknown); ok {
			log.Warnf("skipping unknown matcher %q at %s", u.Type, at)
			continue
		}
		if err := r.Match(expected, actual); err != nil {
			failures = append(failures, Mismatch{
				Path:     at.String(),
				RuleKind: r.Kind(),
				Expected: render(expected),
				Actual:   render(actual),
				Message:  err.Error(),
			})
			continue
		}
		passed++
	}
	if rules.logic() == Or && passed > 0 {
		return
	}
	m.mismatches = append(m.mismatches, failures...)
}

func (m *matcher) descend(at pactpath.Path, rules RuleList, expected, actual interface{}) {
	var inherited *RuleList
	if cascaded := rules.cascaded(); !cascaded.IsEmpty() {
		inherited = &cascaded
	}

	switch e := expected.(type) {
	case []interface{}:
		a, ok := actual.([]interface{})
		if !ok {
			return
		}
		for _, r := range rules.Rules {
			if contains, ok := r.(ArrayContains); ok {
				m.arrayContains(at, contains, e, a)
				return
			}
		}
		if rules.eachLike() {
			if len(e) == 0 {
				return
			}
			for i, item := range a {
				m.compare(at.JoinIndex(i), e[0], item, elementRules(rules, inherited))
			}
			return
		}
		m.compareList(at, e, a, inherited)

	case map[string]interface{}:
		a, ok := actual.(map[string]interface{})
		if !ok {
			return
		}
		for _, r := range rules.Rules {
			if eachKey, ok := r.(EachKey); ok {
				for _, key := range sortedKeys(a) {
					m.applyRules(at.Join(key), eachKey.Rules, nil, key)
				}
			}
		}
		if !rules.ignoresKeys() {
			m.compareObject(at, e, a, inherited)
			return
		}
		keys := sortedKeys(e)
		for _, key := range sortedKeys(a) {
			exp, found := e[key]
			if !found {
				if len(keys) == 0 {
					continue
				}
				exp = e[keys[0]]
			}
			m.compare(at.Join(key), exp, a[key], elementRules(rules, inherited))
		}
	}
}

// elementRules returns the rules applied to each element of a container: the inner rules
// of an EachValue matcher, otherwise the cascaded rules.
func elementRules(rules RuleList, inherited *RuleList) *RuleList {
	for _, r := range rules.Rules {
		if eachValue, ok := r.(EachValue); ok {
			inner := eachValue.Rules
			return &inner
		}
	}
	return inherited
}

func (m *matcher) compareStructure(at pactpath.Path, expected, actual interface{}) {
	switch e := expected.(type) {
	case map[string]interface{}:
		if a, ok := actual.(map[string]interface{}); ok {
			m.compareObject(at, e, a, nil)
			return
		}
	case []interface{}:
		if a, ok := actual.([]interface{}); ok {
			m.compareList(at, e, a, nil)
			return
		}
	}
	if err := (Equality{}).Match(expected, actual); err != nil {
		m.add(at, Equality{}.Kind(), expected, actual, err.Error())
	}
}

func (m *matcher) compareObject(at pactpath.Path, expected, actual map[string]interface{}, inherited *RuleList) {
	for _, key := range sortedKeys(expected) {
		value, ok := actual[key]
		if !ok {
			m.add(at.Join(key), Equality{}.Kind(), expected[key], nil,
				fmt.Sprintf("Expected key '%s' but was missing", key))
			continue
		}
		m.compare(at.Join(key), expected[key], value, inherited)
	}
}

func (m *matcher) compareList(at pactpath.Path, expected, actual []interface{}, inherited *RuleList) {
	if len(expected) != len(actual) {
		m.add(at, Equality{}.Kind(), expected, actual,
			fmt.Sprintf("Expected a list with %d elements but received %d elements", len(expected), len(actual)))
	}
	for i := 0; i < len(expected) && i < len(actual); i++ {
		m.compare(at.JoinIndex(i), expected[i], actual[i], inherited)
	}
}

func (m *matcher) arrayContains(at pactpath.Path, rule ArrayContains, expected, actual []interface{}) {
	for _, variant := range rule.Variants {
		if variant.Index < 0 || variant.Index >= len(expected) {
			m.add(at, rule.Kind(), expected, actual,
				fmt.Sprintf("ArrayContains variant %d has no expected element", variant.Index))
			continue
		}
		want := expected[variant.Index]
		found := false
		for _, item := range actual {
			if len(variant.Rules.matchAt(pactpath.RootPath(), want, item)) == 0 {
				found = true
				break
			}
		}
		if !found {
			m.add(at, rule.Kind(), want, actual,
				fmt.Sprintf("Variant at index %d (%s) was not found in the actual list", variant.Index, render(want)))
		}
	}
}

func lookupValues(values map[string][]string, key string, fold bool) ([]string, bool) {
	if v, ok := values[key]; ok {
		return v, true
	}
	if !fold {
		return nil, false
	}
	for _, k := range sortedValueKeys(values) {
		if strings.EqualFold(k, key) {
			return values[k], true
		}
	}
	return nil, false
}

func splitHeaderValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsToValues(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func sortedValueKeys(values map[string][]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
