package matchingrules

import (
	"encoding/json"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// single-value categories carry one rule list instead of a path map
var singleValueCategories = map[string]bool{
	CategoryPath:   true,
	CategoryStatus: true,
	CategoryMethod: true,
}

// FromJSON decodes a `matchingRules` object. Both the flat V2 form (`$.body.a`,
// `$.headers.X`) and the nested V3/V4 form (`{"body": {"$.a": {"matchers": [...]}}}`)
// are accepted. Rules that cannot be decoded are skipped with a warning; unknown matcher
// types are kept as Unknown.
func FromJSON(data []byte) (MatchingRules, error) {
	if len(data) == 0 {
		return MatchingRules{}, nil
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return MatchingRules{}, errors.Errorf("matching rules must be a JSON object, got %s", root.Raw)
	}

	flat := false
	root.ForEach(func(key, _ gjson.Result) bool {
		flat = strings.HasPrefix(key.String(), "$")
		return !flat
	})
	if flat {
		return decodeFlat(root), nil
	}

	var result MatchingRules
	root.ForEach(func(name, value gjson.Result) bool {
		result = result.WithCategory(decodeCategory(name.String(), value))
		return true
	})
	return result, nil
}

// FromValue decodes matching rules from an already unmarshalled JSON value.
func FromValue(value interface{}) (MatchingRules, error) {
	if value == nil {
		return MatchingRules{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return MatchingRules{}, errors.Wrap(err, "unable to encode matching rules")
	}
	return FromJSON(data)
}

// CategoryFromJSON decodes a single path to rule list object, as found inside
// ArrayContains variants.
func CategoryFromJSON(name string, data []byte) Category {
	if len(data) == 0 {
		return NewCategory(name)
	}
	return decodeCategory(name, gjson.ParseBytes(data))
}

var flatCategories = map[string]string{
	"body":    CategoryBody,
	"headers": CategoryHeader,
	"header":  CategoryHeader,
	"query":   CategoryQuery,
	"path":    CategoryPath,
	"status":  CategoryStatus,
	"method":  CategoryMethod,
}

func decodeFlat(root gjson.Result) MatchingRules {
	var result MatchingRules
	root.ForEach(func(key, value gjson.Result) bool {
		path, err := pactpath.Parse(key.String())
		if err != nil {
			log.Warnf("ignoring matching rule: %v", err)
			return true
		}
		tokens := path.Tokens()
		if len(tokens) < 2 || tokens[1].Kind != pactpath.Field {
			log.Warnf("ignoring matching rule %q: no category", key.String())
			return true
		}
		category, ok := flatCategories[tokens[1].Name]
		if !ok {
			log.Warnf("ignoring matching rule %q: unknown category %q", key.String(), tokens[1].Name)
			return true
		}

		var target pactpath.Path
		switch category {
		case CategoryHeader, CategoryQuery:
			if len(tokens) < 3 {
				log.Warnf("ignoring matching rule %q: missing %s name", key.String(), category)
				return true
			}
			target = pactpath.FromTokens([]pactpath.Token{{Kind: pactpath.Field, Name: tokens[2].Name}})
		default:
			target = pactpath.FromTokens(tokens[2:])
		}

		if !value.IsObject() {
			log.Warnf("ignoring matching rule %q: not a JSON object", key.String())
			return true
		}
		result = result.With(category, target, decodeRule(value))
		return true
	})
	return result
}

func decodeCategory(name string, value gjson.Result) Category {
	category := NewCategory(name)
	if !value.IsObject() {
		log.Warnf("matching rules for category %q must be a JSON object, ignoring", name)
		return category
	}

	if singleValueCategories[name] && (value.Get("matchers").Exists() || value.Get("match").Exists()) {
		if list, ok := decodeRuleList(name, "$", value); ok {
			category = category.With(pactpath.RootPath(), list)
		}
		return category
	}

	value.ForEach(func(key, rules gjson.Result) bool {
		path, err := pactpath.Parse(key.String())
		if err != nil {
			log.Warnf("ignoring %s matching rule: %v", name, err)
			return true
		}
		if list, ok := decodeRuleList(name, key.String(), rules); ok {
			category = category.With(path, list)
		}
		return true
	})
	return category
}

func decodeRuleList(category, path string, value gjson.Result) (RuleList, bool) {
	if !value.IsObject() {
		log.Warnf("ignoring %s matching rule for %q: not a JSON object", category, path)
		return RuleList{}, false
	}
	list := RuleList{Logic: And}
	if strings.EqualFold(value.Get("combine").String(), string(Or)) {
		list.Logic = Or
	}

	matchers := value.Get("matchers")
	if !matchers.Exists() {
		list.Rules = []Rule{decodeRule(value)}
		return list, true
	}
	if !matchers.IsArray() {
		log.Warnf("ignoring %s matching rule for %q: matchers must be a list", category, path)
		return RuleList{}, false
	}
	matchers.ForEach(func(_, m gjson.Result) bool {
		if !m.IsObject() {
			log.Warnf("ignoring %s matcher for %q: not a JSON object", category, path)
			return true
		}
		list.Rules = append(list.Rules, decodeRule(m))
		return true
	})
	if list.IsEmpty() {
		return RuleList{}, false
	}
	return list, true
}

func decodeRule(value gjson.Result) Rule {
	kind := value.Get("match").String()
	if kind == "" {
		kind = inferKind(value)
	}

	switch kind {
	case "equality":
		return Equality{}
	case "regex":
		return Regex{Pattern: value.Get("regex").String()}
	case "type":
		lo, hi := value.Get("min"), value.Get("max")
		switch {
		case lo.Exists() && hi.Exists():
			return MinMaxType{Min: int(lo.Int()), Max: int(hi.Int())}
		case lo.Exists():
			return MinType{Min: int(lo.Int())}
		case hi.Exists():
			return MaxType{Max: int(hi.Int())}
		}
		return Type{}
	case "min":
		return MinType{Min: int(value.Get("min").Int())}
	case "max":
		return MaxType{Max: int(value.Get("max").Int())}
	case "include":
		return Include{Value: value.Get("value").String()}
	case "number":
		return Number{}
	case "integer":
		return Integer{}
	case "decimal", "real":
		return Decimal{}
	case "null":
		return Null{}
	case "date":
		return Date{Format: formatOf(value, "date")}
	case "time":
		return Time{Format: formatOf(value, "time")}
	case "timestamp", "datetime":
		return Timestamp{Format: formatOf(value, "timestamp")}
	case "boolean":
		return Boolean{}
	case "contentType", "content-type":
		return ContentType{Value: value.Get("value").String()}
	case "notEmpty":
		return NotEmpty{}
	case "semver":
		return Semver{}
	case "statusCode":
		return decodeStatusCode(value)
	case "values":
		return Values{}
	case "eachKey":
		return EachKey{Rules: decodeNested(value)}
	case "eachValue":
		return EachValue{Rules: decodeNested(value)}
	case "arrayContains":
		return decodeArrayContains(value)
	}

	log.Warnf("%v %q, it will be kept but not evaluated", ErrUnknownMatcher, kind)
	raw, _ := value.Value().(map[string]interface{})
	delete(raw, "match")
	return Unknown{Type: kind, Raw: raw}
}

// inferKind handles rule objects written without a `match` key.
func inferKind(value gjson.Result) string {
	switch {
	case value.Get("regex").Exists():
		return "regex"
	case value.Get("min").Exists() || value.Get("max").Exists():
		return "type"
	case value.Get("timestamp").Exists():
		return "timestamp"
	case value.Get("date").Exists():
		return "date"
	case value.Get("time").Exists():
		return "time"
	}
	return ""
}

func formatOf(value gjson.Result, legacy string) string {
	if f := value.Get("format"); f.Exists() {
		return f.String()
	}
	return value.Get(legacy).String()
}

func decodeStatusCode(value gjson.Result) Rule {
	status := value.Get("status")
	if status.IsArray() {
		var codes []int
		status.ForEach(func(_, c gjson.Result) bool {
			codes = append(codes, int(c.Int()))
			return true
		})
		return StatusCode{Status: StatusCodes, Codes: codes}
	}
	return StatusCode{Status: HTTPStatus(status.String())}
}

func decodeNested(value gjson.Result) RuleList {
	list := RuleList{Logic: And}
	value.Get("rules").ForEach(func(_, r gjson.Result) bool {
		if r.IsObject() {
			list.Rules = append(list.Rules, decodeRule(r))
		}
		return true
	})
	return list
}

func decodeArrayContains(value gjson.Result) Rule {
	var variants []ArrayContainsVariant
	value.Get("variants").ForEach(func(_, variant gjson.Result) bool {
		gens := variant.Get("generators")
		variants = append(variants, ArrayContainsVariant{
			Index:      int(variant.Get("index").Int()),
			Rules:      CategoryFromJSON(CategoryBody, []byte(variant.Get("rules").Raw)),
			Generators: generators.CategoryFromJSON(generators.CategoryBody, []byte(gens.Raw)),
		})
		return true
	})
	return ArrayContains{Variants: variants}
}

// ToJSON encodes the rule set in the nested V3/V4 form. An empty set encodes to nil.
func (m MatchingRules) ToJSON() map[string]interface{} {
	names := m.CategoryNames()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		c := m.categories[name]
		if singleValueCategories[name] && len(c.entries) == 1 && c.entries[0].Path.IsRoot() {
			out[name] = c.entries[0].Rules.toJSON()
			continue
		}
		out[name] = c.toJSON()
	}
	return out
}

// ToV2JSON encodes the rule set in the flat V2 form. V2 holds one rule per path, so only
// the first rule of each list is written.
func (m MatchingRules) ToV2JSON() map[string]interface{} {
	names := m.CategoryNames()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]interface{})
	for _, name := range names {
		for _, e := range m.categories[name].entries {
			if len(e.Rules.Rules) > 1 {
				log.Warnf("V2 matching rules only support one rule per path, dropping %d rule(s) for %s %s",
					len(e.Rules.Rules)-1, name, e.Path)
			}
			out[flatKey(name, e.Path)] = e.Rules.Rules[0].ToJSON()
		}
	}
	return out
}

func flatKey(category string, path pactpath.Path) string {
	switch category {
	case CategoryHeader, CategoryQuery:
		name := category
		if category == CategoryHeader {
			name = "headers"
		}
		field, _ := path.LastField()
		return pactpath.RootPath().Join(name).Join(field).Canonical()
	case CategoryPath, CategoryStatus, CategoryMethod:
		return "$." + category
	}
	tokens := append([]pactpath.Token{{Kind: pactpath.Field, Name: category}}, path.Tokens()[1:]...)
	return pactpath.FromTokens(tokens).Canonical()
}

func (c Category) toJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(c.entries))
	for _, e := range c.entries {
		out[e.Path.String()] = e.Rules.toJSON()
	}
	return out
}

func (l RuleList) toJSON() map[string]interface{} {
	return map[string]interface{}{
		"combine":  string(l.logic()),
		"matchers": l.rulesJSON(),
	}
}

func (l RuleList) rulesJSON() []interface{} {
	out := make([]interface{}, 0, len(l.Rules))
	for _, r := range l.Rules {
		out = append(out, r.ToJSON())
	}
	return out
}
