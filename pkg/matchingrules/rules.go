package matchingrules

import (
	"regexp"
	"strings"
	"sync"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/timefmt"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

var ErrUnknownMatcher = errors.New("unknown matcher")

// Rule is a single matching rule. Match reports why actual does not satisfy the rule
// given the expected value, or nil when it does. Rules that work on containers
// (Values, EachKey, EachValue, ArrayContains) only check the container shape here; the
// engine handles their elements.
type Rule interface {
	Kind() string
	Match(expected, actual interface{}) error
	ToJSON() map[string]interface{}
	rule()
}

type Equality struct{}

func (Equality) Kind() string { return "equality" }
func (Equality) rule()        {}

func (Equality) Match(expected, actual interface{}) error {
	if !equalValues(expected, actual) {
		return errors.Errorf("Expected %s to be equal to %s", render(actual), render(expected))
	}
	return nil
}

func (r Equality) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

type Regex struct {
	Pattern string
}

func (Regex) Kind() string { return "regex" }
func (Regex) rule()        {}

var regexCache sync.Map

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

func (r Regex) Match(_, actual interface{}) error {
	re, err := compileRegex(r.Pattern)
	if err != nil {
		return errors.Wrapf(err, "Invalid regex %q", r.Pattern)
	}
	s, ok := asString(actual)
	if !ok {
		return errors.Errorf("Expected %s to match '%s'", render(actual), r.Pattern)
	}
	if !re.MatchString(s) {
		return errors.Errorf("Expected '%s' to match '%s'", s, r.Pattern)
	}
	return nil
}

func (r Regex) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind(), "regex": r.Pattern}
}

type Type struct{}

func (Type) Kind() string { return "type" }
func (Type) rule()        {}

func (Type) Match(expected, actual interface{}) error {
	return matchType(expected, actual)
}

func (r Type) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

func matchType(expected, actual interface{}) error {
	if kindOf(expected) != kindOf(actual) {
		return errors.Errorf("Expected %s (%s) to be the same type as %s (%s)",
			render(actual), kindOf(actual), render(expected), kindOf(expected))
	}
	return nil
}

// MinType, MaxType and MinMaxType match by type and, for arrays, bound the length.
type MinType struct {
	Min int
}

func (MinType) Kind() string { return "min-type" }
func (MinType) rule()        {}

func (r MinType) Match(expected, actual interface{}) error {
	if err := matchType(expected, actual); err != nil {
		return err
	}
	if items, ok := actual.([]interface{}); ok && len(items) < r.Min {
		return errors.Errorf("Expected %s to have minimum size of %d", render(actual), r.Min)
	}
	return nil
}

func (r MinType) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": "type", "min": r.Min}
}

type MaxType struct {
	Max int
}

func (MaxType) Kind() string { return "max-type" }
func (MaxType) rule()        {}

func (r MaxType) Match(expected, actual interface{}) error {
	if err := matchType(expected, actual); err != nil {
		return err
	}
	if items, ok := actual.([]interface{}); ok && len(items) > r.Max {
		return errors.Errorf("Expected %s to have maximum size of %d", render(actual), r.Max)
	}
	return nil
}

func (r MaxType) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": "type", "max": r.Max}
}

type MinMaxType struct {
	Min int
	Max int
}

func (MinMaxType) Kind() string { return "min-max-type" }
func (MinMaxType) rule()        {}

func (r MinMaxType) Match(expected, actual interface{}) error {
	if err := (MinType{Min: r.Min}).Match(expected, actual); err != nil {
		return err
	}
	return MaxType{Max: r.Max}.Match(expected, actual)
}

func (r MinMaxType) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": "type", "min": r.Min, "max": r.Max}
}

type Include struct {
	Value string
}

func (Include) Kind() string { return "include" }
func (Include) rule()        {}

func (r Include) Match(_, actual interface{}) error {
	s, ok := asString(actual)
	if !ok || !strings.Contains(s, r.Value) {
		return errors.Errorf("Expected %s to include '%s'", render(actual), r.Value)
	}
	return nil
}

func (r Include) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind(), "value": r.Value}
}

type Number struct{}

func (Number) Kind() string { return "number" }
func (Number) rule()        {}

func (Number) Match(_, actual interface{}) error {
	if _, ok := toDecimal(actual); !ok {
		return errors.Errorf("Expected %s to be a number", render(actual))
	}
	return nil
}

func (r Number) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

type Integer struct{}

func (Integer) Kind() string { return "integer" }
func (Integer) rule()        {}

func (Integer) Match(_, actual interface{}) error {
	d, ok := toDecimal(actual)
	if !ok || !d.IsInteger() || strings.ContainsAny(render(actual), ".eE") {
		return errors.Errorf("Expected %s to be an integer", render(actual))
	}
	return nil
}

func (r Integer) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

// Decimal matches numbers with a fractional part or written with a decimal point.
type Decimal struct{}

func (Decimal) Kind() string { return "decimal" }
func (Decimal) rule()        {}

func (Decimal) Match(_, actual interface{}) error {
	d, ok := toDecimal(actual)
	if !ok || (d.IsInteger() && !strings.Contains(render(actual), ".")) {
		return errors.Errorf("Expected %s to be a decimal number", render(actual))
	}
	return nil
}

func (r Decimal) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

type Null struct{}

func (Null) Kind() string { return "null" }
func (Null) rule()        {}

func (Null) Match(_, actual interface{}) error {
	if actual != nil {
		return errors.Errorf("Expected %s to be null", render(actual))
	}
	return nil
}

func (r Null) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

// Date, Time and Timestamp parse the actual value with a Java style pattern.
type Date struct {
	Format string
}

func (Date) Kind() string { return "date" }
func (Date) rule()        {}

func (r Date) Match(_, actual interface{}) error {
	return matchTime(actual, r.Format, timefmt.DefaultDate, "date")
}

func (r Date) ToJSON() map[string]interface{} {
	return formatJSON(r.Kind(), r.Format)
}

type Time struct {
	Format string
}

func (Time) Kind() string { return "time" }
func (Time) rule()        {}

func (r Time) Match(_, actual interface{}) error {
	return matchTime(actual, r.Format, timefmt.DefaultTime, "time")
}

func (r Time) ToJSON() map[string]interface{} {
	return formatJSON(r.Kind(), r.Format)
}

type Timestamp struct {
	Format string
}

func (Timestamp) Kind() string { return "timestamp" }
func (Timestamp) rule()        {}

func (r Timestamp) Match(_, actual interface{}) error {
	return matchTime(actual, r.Format, timefmt.DefaultDateTime, "timestamp")
}

func (r Timestamp) ToJSON() map[string]interface{} {
	return formatJSON(r.Kind(), r.Format)
}

func formatJSON(kind, format string) map[string]interface{} {
	out := map[string]interface{}{"match": kind}
	if format != "" {
		out["format"] = format
	}
	return out
}

type Boolean struct{}

func (Boolean) Kind() string { return "boolean" }
func (Boolean) rule()        {}

func (Boolean) Match(_, actual interface{}) error {
	switch v := actual.(type) {
	case bool:
		return nil
	case string:
		if v == "true" || v == "false" {
			return nil
		}
	}
	return errors.Errorf("Expected %s to be a boolean", render(actual))
}

func (r Boolean) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

// ContentType sniffs the actual value and compares the detected type with Value.
type ContentType struct {
	Value string
}

func (ContentType) Kind() string { return "contentType" }
func (ContentType) rule()        {}

func (r ContentType) Match(_, actual interface{}) error {
	expected, err := contenttype.Parse(r.Value)
	if err != nil {
		return errors.Wrapf(err, "Invalid content type %q", r.Value)
	}
	var data []byte
	switch v := actual.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		data = []byte(render(actual))
	}
	detected, _ := contenttype.Detect(data)
	if !detected.Equivalent(expected) {
		return errors.Errorf("Expected binary contents to have content type '%s' but detected contents was '%s'",
			expected.BaseType(), detected.BaseType())
	}
	return nil
}

func (r ContentType) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind(), "value": r.Value}
}

type NotEmpty struct{}

func (NotEmpty) Kind() string { return "notEmpty" }
func (NotEmpty) rule()        {}

func (NotEmpty) Match(expected, actual interface{}) error {
	empty := false
	switch v := actual.(type) {
	case nil:
		empty = true
	case string:
		empty = v == ""
	case []interface{}:
		empty = len(v) == 0
	case map[string]interface{}:
		empty = len(v) == 0
	}
	if empty {
		return errors.Errorf("Expected %s to not be empty", render(actual))
	}
	if expected != nil {
		return matchType(expected, actual)
	}
	return nil
}

func (r NotEmpty) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

type Semver struct{}

func (Semver) Kind() string { return "semver" }
func (Semver) rule()        {}

func (Semver) Match(_, actual interface{}) error {
	s, ok := actual.(string)
	if !ok {
		return errors.Errorf("Expected %s to be a semantic version", render(actual))
	}
	if _, err := version.NewSemver(s); err != nil {
		return errors.Errorf("'%s' is not a valid semantic version", s)
	}
	return nil
}

func (r Semver) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

type HTTPStatus string

const (
	StatusInformation HTTPStatus = "info"
	StatusSuccess     HTTPStatus = "success"
	StatusRedirect    HTTPStatus = "redirect"
	StatusClientError HTTPStatus = "clientError"
	StatusServerError HTTPStatus = "serverError"
	StatusNonError    HTTPStatus = "nonError"
	StatusError       HTTPStatus = "error"
	StatusCodes       HTTPStatus = "statusCodes"
)

// StatusCode matches an HTTP status by class, or against an explicit list when Status is
// StatusCodes.
type StatusCode struct {
	Status HTTPStatus
	Codes  []int
}

func (StatusCode) Kind() string { return "statusCode" }
func (StatusCode) rule()        {}

func (r StatusCode) Match(_, actual interface{}) error {
	d, ok := toDecimal(actual)
	if !ok || !d.IsInteger() {
		return errors.Errorf("Expected status code %s to be an integer", render(actual))
	}
	code := int(d.IntPart())
	var matched bool
	switch r.Status {
	case StatusInformation:
		matched = code >= 100 && code < 200
	case StatusSuccess:
		matched = code >= 200 && code < 300
	case StatusRedirect:
		matched = code >= 300 && code < 400
	case StatusClientError:
		matched = code >= 400 && code < 500
	case StatusServerError:
		matched = code >= 500 && code < 600
	case StatusNonError:
		matched = code < 400
	case StatusError:
		matched = code >= 400
	default:
		for _, c := range r.Codes {
			if c == code {
				matched = true
				break
			}
		}
	}
	if !matched {
		if r.Status == StatusCodes || r.Status == "" {
			return errors.Errorf("Expected status code %d to be one of %v", code, r.Codes)
		}
		return errors.Errorf("Expected status code %d to be a %s status", code, r.Status)
	}
	return nil
}

func (r StatusCode) ToJSON() map[string]interface{} {
	if r.Status == StatusCodes || r.Status == "" {
		codes := make([]interface{}, len(r.Codes))
		for i, c := range r.Codes {
			codes[i] = c
		}
		return map[string]interface{}{"match": r.Kind(), "status": codes}
	}
	return map[string]interface{}{"match": r.Kind(), "status": string(r.Status)}
}

// Values ignores the keys of a map and matches each value against the expected ones.
type Values struct{}

func (Values) Kind() string { return "values" }
func (Values) rule()        {}

func (Values) Match(expected, actual interface{}) error {
	return matchContainer("values", expected, actual)
}

func (r Values) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind()}
}

// EachKey applies Rules to every key of a map.
type EachKey struct {
	Rules RuleList
}

func (EachKey) Kind() string { return "eachKey" }
func (EachKey) rule()        {}

func (r EachKey) Match(_, actual interface{}) error {
	if _, ok := actual.(map[string]interface{}); !ok {
		return errors.Errorf("Expected %s to be a map", render(actual))
	}
	return nil
}

func (r EachKey) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind(), "rules": r.Rules.rulesJSON()}
}

// EachValue applies Rules to every value of a map or element of an array.
type EachValue struct {
	Rules RuleList
}

func (EachValue) Kind() string { return "eachValue" }
func (EachValue) rule()        {}

func (r EachValue) Match(expected, actual interface{}) error {
	return matchContainer("eachValue", expected, actual)
}

func (r EachValue) ToJSON() map[string]interface{} {
	return map[string]interface{}{"match": r.Kind(), "rules": r.Rules.rulesJSON()}
}

func matchContainer(kind string, _, actual interface{}) error {
	switch actual.(type) {
	case map[string]interface{}, []interface{}:
		return nil
	}
	return errors.Errorf("%s matcher can only be applied to a map or a list, got %s", kind, render(actual))
}

// ArrayContainsVariant is one expected element; Rules and Generators use paths relative
// to the element.
type ArrayContainsVariant struct {
	Index      int
	Rules      Category
	Generators generators.Category
}

// ArrayContains requires that, for each variant, some actual element matches the
// expected element at the variant's index.
type ArrayContains struct {
	Variants []ArrayContainsVariant
}

func (ArrayContains) Kind() string { return "arrayContains" }
func (ArrayContains) rule()        {}

func (r ArrayContains) Match(_, actual interface{}) error {
	if _, ok := actual.([]interface{}); !ok {
		return errors.Errorf("Expected %s to be a list", render(actual))
	}
	return nil
}

func (r ArrayContains) ToJSON() map[string]interface{} {
	variants := make([]interface{}, 0, len(r.Variants))
	for _, v := range r.Variants {
		variant := map[string]interface{}{
			"index": v.Index,
			"rules": v.Rules.toJSON(),
		}
		if !v.Generators.IsEmpty() {
			variant["generators"] = v.Generators.ToJSON()
		}
		variants = append(variants, variant)
	}
	return map[string]interface{}{"match": r.Kind(), "variants": variants}
}

// Unknown keeps a rule this package does not understand; it never produces a mismatch.
type Unknown struct {
	Type string
	Raw  map[string]interface{}
}

func (r Unknown) Kind() string { return r.Type }
func (Unknown) rule()          {}

func (Unknown) Match(interface{}, interface{}) error {
	return nil
}

func (r Unknown) ToJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Raw)+1)
	for k, v := range r.Raw {
		out[k] = v
	}
	if r.Type != "" {
		out["match"] = r.Type
	}
	return out
}

// cascades reports whether a rule also applies to the children of the value it is
// declared on.
func cascades(r Rule) bool {
	switch r.(type) {
	case Type, MinType, MaxType, MinMaxType:
		return true
	}
	return false
}

// eachLike reports whether array elements are matched against the first expected element.
func eachLike(r Rule) bool {
	switch r.(type) {
	case Type, MinType, MaxType, MinMaxType, Values, EachValue:
		return true
	}
	return false
}
