package generators

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/timefmt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RandomInt generates an integer in [Min, Max].
type RandomInt struct {
	Min int64
	Max int64
}

func (RandomInt) Kind() string { return "RandomInt" }
func (RandomInt) generator()   {}

func (g RandomInt) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return ctx.random().IntRange(g.Min, g.Max), nil
}

func (g RandomInt) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "min": g.Min, "max": g.Max}
}

// RandomDecimal generates a decimal number with the given number of digits.
type RandomDecimal struct {
	Digits int
}

func (RandomDecimal) Kind() string { return "RandomDecimal" }
func (RandomDecimal) generator()   {}

func (g RandomDecimal) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	if err := checkLength(g.Kind(), "digits", g.Digits); err != nil {
		return nil, err
	}
	src := ctx.random()
	n := g.Digits
	if n < 1 {
		n = 1
	}
	s := src.stringFrom(digits[1:], 1) + src.stringFrom(digits, n-1)
	if n > 1 {
		point := 1 + src.Intn(n-1)
		s = s[:point] + "." + s[point:]
	}
	return json.Number(s), nil
}

func (g RandomDecimal) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "digits": g.Digits}
}

// RandomHexadecimal generates a lower-case hexadecimal string.
type RandomHexadecimal struct {
	Digits int
}

func (RandomHexadecimal) Kind() string { return "RandomHexadecimal" }
func (RandomHexadecimal) generator()   {}

func (g RandomHexadecimal) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	if err := checkLength(g.Kind(), "digits", g.Digits); err != nil {
		return nil, err
	}
	return ctx.random().stringFrom(hexDigits, g.Digits), nil
}

func (g RandomHexadecimal) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "digits": g.Digits}
}

// RandomString generates an alphanumeric string.
type RandomString struct {
	Size int
}

func (RandomString) Kind() string { return "RandomString" }
func (RandomString) generator()   {}

func (g RandomString) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	if err := checkLength(g.Kind(), "size", g.Size); err != nil {
		return nil, err
	}
	return ctx.random().stringFrom(alphanumeric, g.Size), nil
}

func (g RandomString) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "size": g.Size}
}

// Regex generates a string matching the pattern.
type Regex struct {
	Pattern string
}

func (Regex) Kind() string { return "Regex" }
func (Regex) generator()   {}

func (g Regex) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return randomFromRegex(g.Pattern, ctx.random())
}

func (g Regex) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "regex": g.Pattern}
}

type UUIDFormat string

const (
	UUIDSimple              UUIDFormat = "simple"
	UUIDLowerCaseHyphenated UUIDFormat = "lower-case-hyphenated"
	UUIDUpperCaseHyphenated UUIDFormat = "upper-case-hyphenated"
	UUIDURN                 UUIDFormat = "URN"
)

// UUID generates a random UUID rendered in Format.
type UUID struct {
	Format UUIDFormat
}

func (UUID) Kind() string { return "Uuid" }
func (UUID) generator()   {}

func (g UUID) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	id, err := uuid.NewRandomFromReader(ctx.random())
	if err != nil {
		return nil, errors.Wrap(err, "unable to generate uuid")
	}
	switch g.Format {
	case UUIDSimple:
		return strings.ReplaceAll(id.String(), "-", ""), nil
	case UUIDUpperCaseHyphenated:
		return strings.ToUpper(id.String()), nil
	case UUIDURN:
		return id.URN(), nil
	default:
		return id.String(), nil
	}
}

func (g UUID) ToJSON() map[string]interface{} {
	out := map[string]interface{}{"type": g.Kind()}
	if g.Format != "" {
		out["format"] = string(g.Format)
	}
	return out
}

// Date, Time and DateTime generate the current (or offset) time in Format. Expression is
// an optional offset such as `+ 1 day` or `tomorrow`.
type Date struct {
	Format     string
	Expression string
}

func (Date) Kind() string { return "Date" }
func (Date) generator()   {}

func (g Date) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return formatTime(ctx, g.Format, timefmt.DefaultDate, g.Expression)
}

func (g Date) ToJSON() map[string]interface{} {
	return timeJSON(g.Kind(), g.Format, g.Expression)
}

type Time struct {
	Format     string
	Expression string
}

func (Time) Kind() string { return "Time" }
func (Time) generator()   {}

func (g Time) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return formatTime(ctx, g.Format, timefmt.DefaultTime, g.Expression)
}

func (g Time) ToJSON() map[string]interface{} {
	return timeJSON(g.Kind(), g.Format, g.Expression)
}

type DateTime struct {
	Format     string
	Expression string
}

func (DateTime) Kind() string { return "DateTime" }
func (DateTime) generator()   {}

func (g DateTime) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return formatTime(ctx, g.Format, timefmt.DefaultDateTime, g.Expression)
}

func (g DateTime) ToJSON() map[string]interface{} {
	return timeJSON(g.Kind(), g.Format, g.Expression)
}

func timeJSON(kind, format, expression string) map[string]interface{} {
	out := map[string]interface{}{"type": kind}
	if format != "" {
		out["format"] = format
	}
	if expression != "" {
		out["expression"] = expression
	}
	return out
}

func formatTime(ctx *Context, format, defaultFormat, expression string) (interface{}, error) {
	if format == "" {
		format = defaultFormat
	}
	at, err := applyTimeExpression(ctx.now(), expression)
	if err != nil {
		return nil, err
	}
	formatted, err := timefmt.Format(format, at)
	if err != nil {
		return nil, err
	}
	return formatted, nil
}

type RandomBoolean struct{}

func (RandomBoolean) Kind() string { return "RandomBoolean" }
func (RandomBoolean) generator()   {}

func (g RandomBoolean) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	return ctx.random().Bool(), nil
}

func (g RandomBoolean) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind()}
}

type DataType string

const (
	DataTypeRaw     DataType = "RAW"
	DataTypeString  DataType = "STRING"
	DataTypeInteger DataType = "INTEGER"
	DataTypeDecimal DataType = "DECIMAL"
	DataTypeFloat   DataType = "FLOAT"
	DataTypeBoolean DataType = "BOOLEAN"
)

// ProviderState substitutes values from the provider state parameters. Expression is
// a parameter name, a JSONPath (`$.user.id`) or a template with `${name}` placeholders.
type ProviderState struct {
	Expression string
	DataType   DataType
}

func (ProviderState) Kind() string { return "ProviderState" }
func (ProviderState) generator()   {}

func (g ProviderState) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	value, err := evaluateExpression(g.Expression, ctx.providerState())
	if err != nil {
		return nil, err
	}
	return coerce(value, g.DataType)
}

func (g ProviderState) ToJSON() map[string]interface{} {
	out := map[string]interface{}{"type": g.Kind(), "expression": g.Expression}
	if g.DataType != "" {
		out["dataType"] = string(g.DataType)
	}
	return out
}

// MockServerURL rewrites a recorded URL so that it points at the running mock server.
// The first capture group of Regex applied to the value is appended to the mock server
// base URL.
type MockServerURL struct {
	Example string
	Regex   string
}

func (MockServerURL) Kind() string { return "MockServerURL" }
func (MockServerURL) generator()   {}

func (g MockServerURL) Generate(ctx *Context, current interface{}) (interface{}, error) {
	if ctx == nil || ctx.MockServerURL == "" {
		return nil, errors.WithStack(ErrMissingMockServerURL)
	}
	re, err := regexp.Compile(g.Regex)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to compile mock server URL regex %q", g.Regex)
	}
	source, ok := current.(string)
	if !ok || source == "" {
		source = g.Example
	}
	groups := re.FindStringSubmatch(source)
	if len(groups) < 2 {
		return nil, errors.Errorf("mock server URL regex %q did not capture a path from %q", g.Regex, source)
	}
	return strings.TrimSuffix(ctx.MockServerURL, "/") + groups[1], nil
}

func (g MockServerURL) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind(), "example": g.Example, "regex": g.Regex}
}

// RequestPath substitutes the path of the request being generated.
type RequestPath struct{}

func (RequestPath) Kind() string { return "RequestPath" }
func (RequestPath) generator()   {}

func (g RequestPath) Generate(ctx *Context, _ interface{}) (interface{}, error) {
	if ctx == nil || ctx.RequestPath == "" {
		return nil, errors.WithStack(ErrMissingRequestPath)
	}
	return ctx.RequestPath, nil
}

func (g RequestPath) ToJSON() map[string]interface{} {
	return map[string]interface{}{"type": g.Kind()}
}

// ArrayContainsVariant holds the generators for one expected element, with paths relative
// to the element.
type ArrayContainsVariant struct {
	Index      int
	Generators Category
}

// ArrayContains applies per-element generators to an array.
type ArrayContains struct {
	Variants []ArrayContainsVariant
}

func (ArrayContains) Kind() string { return "ArrayContains" }
func (ArrayContains) generator()   {}

func (g ArrayContains) Generate(ctx *Context, current interface{}) (interface{}, error) {
	items, ok := current.([]interface{})
	if !ok {
		return nil, errors.Errorf("ArrayContains generator can only be applied to an array, got %T", current)
	}
	result := make([]interface{}, len(items))
	copy(result, items)

	var failures []string
	for _, variant := range g.Variants {
		if variant.Index < 0 || variant.Index >= len(result) {
			continue
		}
		value, errs := variant.Generators.ApplyToValue(ctx, result[variant.Index])
		for _, err := range errs {
			failures = append(failures, fmt.Sprintf("[%d] %s", variant.Index, err))
		}
		result[variant.Index] = value
	}
	if len(failures) > 0 {
		return nil, errors.Errorf("ArrayContains generator failed: %s", strings.Join(failures, ", "))
	}
	return result, nil
}

func (g ArrayContains) ToJSON() map[string]interface{} {
	variants := make([]interface{}, 0, len(g.Variants))
	for _, v := range g.Variants {
		variants = append(variants, map[string]interface{}{
			"index":      v.Index,
			"generators": v.Generators.ToJSON(),
		})
	}
	return map[string]interface{}{"type": g.Kind(), "variants": variants}
}

// Unknown preserves a generator this package does not understand so that it survives a
// decode/encode round trip. Generating with it fails with ErrUnknownGenerator.
type Unknown struct {
	Type string
	Raw  map[string]interface{}
}

func (g Unknown) Kind() string { return g.Type }
func (Unknown) generator()     {}

func (g Unknown) Generate(*Context, interface{}) (interface{}, error) {
	return nil, errors.Wrapf(ErrUnknownGenerator, "generator type %q", g.Type)
}

func (g Unknown) ToJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(g.Raw)+1)
	for k, v := range g.Raw {
		out[k] = v
	}
	out["type"] = g.Type
	return out
}
