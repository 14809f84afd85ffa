package matchingrules

import (
	"sort"

	"github.com/form3tech-oss/pact-core/pkg/pactpath"
)

const (
	CategoryBody     = "body"
	CategoryHeader   = "header"
	CategoryPath     = "path"
	CategoryQuery    = "query"
	CategoryStatus   = "status"
	CategoryMetadata = "metadata"
	CategoryContent  = "content"
	CategoryMethod   = "method"
)

type RuleLogic string

const (
	And RuleLogic = "AND"
	Or  RuleLogic = "OR"
)

// RuleList is the group of rules declared for one path.
type RuleList struct {
	Rules []Rule
	Logic RuleLogic
}

func NewRuleList(rules ...Rule) RuleList {
	return RuleList{Rules: rules, Logic: And}
}

func (l RuleList) IsEmpty() bool {
	return len(l.Rules) == 0
}

func (l RuleList) logic() RuleLogic {
	if l.Logic == Or {
		return Or
	}
	return And
}

// cascaded returns the rules that apply to the children of the value the list was
// declared on, with length bounds dropped.
func (l RuleList) cascaded() RuleList {
	var rules []Rule
	for _, r := range l.Rules {
		if cascades(r) {
			rules = append(rules, Type{})
		}
	}
	if len(rules) > 1 {
		rules = rules[:1]
	}
	return RuleList{Rules: rules, Logic: l.logic()}
}

func (l RuleList) eachLike() bool {
	for _, r := range l.Rules {
		if eachLike(r) {
			return true
		}
	}
	return false
}

// comparesWhole reports whether the list holds an equality rule, which already covers
// every child of the value.
func (l RuleList) comparesWhole() bool {
	for _, r := range l.Rules {
		if _, ok := r.(Equality); ok {
			return true
		}
	}
	return false
}

func (l RuleList) ignoresKeys() bool {
	for _, r := range l.Rules {
		switch r.(type) {
		case Values, EachKey, EachValue:
			return true
		}
	}
	return false
}

type Entry struct {
	Path  pactpath.Path
	Rules RuleList
}

// Category holds the rule lists of one category in declaration order.
type Category struct {
	Name    string
	entries []Entry
}

func NewCategory(name string) Category {
	return Category{Name: name}
}

// With returns a copy of the category with the rule list set for path, replacing any
// list declared for an equivalent expression, so $.a and $['a'] share one entry.
func (c Category) With(path pactpath.Path, rules RuleList) Category {
	entries := make([]Entry, 0, len(c.entries)+1)
	replaced := false
	for _, e := range c.entries {
		if e.Path.Equal(path) {
			entries = append(entries, Entry{Path: path, Rules: rules})
			replaced = true
			continue
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, Entry{Path: path, Rules: rules})
	}
	return Category{Name: c.Name, entries: entries}
}

// WithRule returns a copy of the category with rule appended to the list for path.
func (c Category) WithRule(path pactpath.Path, rule Rule) Category {
	list, _ := c.Lookup(path.String())
	rules := append(append([]Rule(nil), list.Rules...), rule)
	return c.With(path, RuleList{Rules: rules, Logic: list.logic()})
}

func (c Category) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c Category) IsEmpty() bool {
	return len(c.entries) == 0
}

func (c Category) Len() int {
	return len(c.entries)
}

func (c Category) Lookup(path string) (RuleList, bool) {
	parsed, err := pactpath.Parse(path)
	for _, e := range c.entries {
		if e.Path.String() == path || (err == nil && e.Path.Equal(parsed)) {
			return e.Rules, true
		}
	}
	return RuleList{}, false
}

func (c Category) weight(rule, concrete pactpath.Path) int {
	if c.Name == CategoryHeader {
		return rule.WeightFold(concrete)
	}
	return rule.Weight(concrete)
}

// Resolve selects the rule list for a concrete location. Candidates are expressions that
// match the whole location, plus shorter expressions matching a prefix of it whose rules
// cascade. The highest weight wins, then the longest expression, then the first declared.
// exact reports whether the selected expression covers the whole location.
func (c Category) Resolve(concrete pactpath.Path) (rules RuleList, exact bool, ok bool) {
	best, bestWeight, bestLen := -1, 0, 0
	var bestRules RuleList
	for i, e := range c.entries {
		weight := c.weight(e.Path, concrete)
		if weight == 0 {
			continue
		}
		candidate := e.Rules
		if e.Path.Len() < concrete.Len() {
			candidate = candidate.cascaded()
			if candidate.IsEmpty() {
				continue
			}
		}
		if weight > bestWeight || (weight == bestWeight && e.Path.Len() > bestLen) {
			best, bestWeight, bestLen, bestRules = i, weight, e.Path.Len(), candidate
		}
	}
	if best < 0 {
		return RuleList{}, false, false
	}
	return bestRules, bestLen == concrete.Len(), true
}

// MatchingRules is the full rule set of an interaction part, keyed by category.
type MatchingRules struct {
	categories map[string]Category
}

func (m MatchingRules) Category(name string) Category {
	if c, ok := m.categories[name]; ok {
		return c
	}
	return NewCategory(name)
}

// With returns a copy of the set with rule appended for path in category.
func (m MatchingRules) With(category string, path pactpath.Path, rule Rule) MatchingRules {
	return m.WithCategory(m.Category(category).WithRule(path, rule))
}

// WithCategory returns a copy of the set with the category replaced.
func (m MatchingRules) WithCategory(c Category) MatchingRules {
	categories := make(map[string]Category, len(m.categories)+1)
	for k, v := range m.categories {
		categories[k] = v
	}
	if c.IsEmpty() {
		delete(categories, c.Name)
	} else {
		categories[c.Name] = c
	}
	if len(categories) == 0 {
		return MatchingRules{}
	}
	return MatchingRules{categories: categories}
}

func (m MatchingRules) IsEmpty() bool {
	for _, c := range m.categories {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// CategoryNames returns the non-empty categories in sorted order.
func (m MatchingRules) CategoryNames() []string {
	names := make([]string, 0, len(m.categories))
	for name, c := range m.categories {
		if !c.IsEmpty() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Matches compares expected and actual at a concrete path of category, descending into
// nested values, and returns every mismatch found.
func (m MatchingRules) Matches(category string, path pactpath.Path, expected, actual interface{}) MatchResult {
	if path.IsEmpty() {
		path = pactpath.RootPath()
	}
	return MatchResult{Mismatches: m.Category(category).matchAt(path, expected, actual)}
}
