package generators

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type location struct {
	path  pactpath.Path
	set   string
	value gjson.Result
	gen   Generator
}

// ApplyToBody runs the body generators over a JSON document in a single depth-first
// pass and returns the rewritten document. Every failing location keeps its original
// value and contributes one error; the remaining locations are still generated.
// Documents that are not JSON are only affected by a generator on the root path `$`.
func (c Category) ApplyToBody(ctx *Context, body []byte) ([]byte, []error) {
	if c.IsEmpty() || len(body) == 0 {
		return body, nil
	}
	if !gjson.ValidBytes(body) {
		return c.applyToText(ctx, body)
	}

	var locations []location
	collect(c, pactpath.RootPath(), nil, gjson.ParseBytes(body), &locations)

	var errs []error
	out := body
	for _, loc := range locations {
		generated, err := loc.gen.Generate(ctx, loc.value.Value())
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "unable to generate value for %s", loc.path))
			continue
		}
		if loc.path.IsRoot() {
			encoded, err := json.Marshal(generated)
			if err != nil {
				errs = append(errs, errors.Wrapf(err, "unable to encode generated value for %s", loc.path))
				continue
			}
			out = encoded
			continue
		}
		updated, err := sjson.SetBytes(out, loc.set, generated)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "unable to write generated value for %s", loc.path))
			continue
		}
		out = updated
	}

	for _, err := range errs {
		log.Warn(err)
	}
	return out, errs
}

// collect visits every location of the document depth first. A location replaced by a
// generator is not descended into.
func collect(c Category, at pactpath.Path, set []string, value gjson.Result, locations *[]location) {
	if gen, ok := c.Resolve(at); ok {
		*locations = append(*locations, location{path: at, set: strings.Join(set, "."), value: value, gen: gen})
		return
	}

	switch {
	case value.IsObject():
		value.ForEach(func(key, child gjson.Result) bool {
			name := key.String()
			collect(c, at.Join(name), append(append([]string(nil), set...), escapeSetPath(name)), child, locations)
			return true
		})
	case value.IsArray():
		i := 0
		value.ForEach(func(_, child gjson.Result) bool {
			collect(c, at.JoinIndex(i), append(append([]string(nil), set...), strconv.Itoa(i)), child, locations)
			i++
			return true
		})
	}
}

// escapeSetPath escapes the characters sjson treats as path syntax.
func escapeSetPath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', ':':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (c Category) applyToText(ctx *Context, body []byte) ([]byte, []error) {
	gen, ok := c.Resolve(pactpath.RootPath())
	if !ok {
		return body, nil
	}
	generated, err := gen.Generate(ctx, string(body))
	if err != nil {
		err = errors.Wrap(err, "unable to generate body")
		log.Warn(err)
		return body, []error{err}
	}
	return []byte(fmt.Sprintf("%v", generated)), nil
}

// ApplyToValue runs the generators over an already decoded JSON value and returns a new
// value; the input is not modified.
func (c Category) ApplyToValue(ctx *Context, value interface{}) (interface{}, []error) {
	if c.IsEmpty() {
		return value, nil
	}
	var errs []error
	result := applyTree(c, ctx, pactpath.RootPath(), value, &errs)
	return result, errs
}

func applyTree(c Category, ctx *Context, at pactpath.Path, value interface{}, errs *[]error) interface{} {
	if gen, ok := c.Resolve(at); ok {
		generated, err := gen.Generate(ctx, value)
		if err != nil {
			*errs = append(*errs, errors.Wrapf(err, "unable to generate value for %s", at))
			return value
		}
		return generated
	}

	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, child := range v {
			result[key] = applyTree(c, ctx, at.Join(key), child, errs)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, child := range v {
			result[i] = applyTree(c, ctx, at.JoinIndex(i), child, errs)
		}
		return result
	default:
		return value
	}
}

// ApplyToValues runs the generators over a multi-valued map such as headers or query
// parameters. Keys are single-field paths; generated values are rendered as strings.
func (c Category) ApplyToValues(ctx *Context, values map[string][]string) (map[string][]string, []error) {
	result := make(map[string][]string, len(values))
	for k, v := range values {
		result[k] = append([]string(nil), v...)
	}
	if c.IsEmpty() {
		return result, nil
	}

	var errs []error
	for _, key := range sortedValueKeys(values) {
		gen, ok := c.Resolve(pactpath.RootPath().Join(key))
		if !ok {
			continue
		}
		var current interface{}
		if len(values[key]) > 0 {
			current = values[key][0]
		}
		generated, err := gen.Generate(ctx, current)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "unable to generate %s %q", c.Name, key))
			continue
		}
		result[key] = []string{fmt.Sprintf("%v", generated)}
	}
	return result, errs
}

// ApplyToMetadata runs the generators over message metadata.
func (c Category) ApplyToMetadata(ctx *Context, metadata map[string]interface{}) (map[string]interface{}, []error) {
	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	if c.IsEmpty() {
		return result, nil
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value := metadata[key]
		gen, ok := c.Resolve(pactpath.RootPath().Join(key))
		if !ok {
			continue
		}
		generated, err := gen.Generate(ctx, value)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "unable to generate metadata %q", key))
			continue
		}
		result[key] = generated
	}
	return result, errs
}

// ApplyToString runs the root generator of the category (path and status categories)
// over a single value.
func (c Category) ApplyToString(ctx *Context, value string) (string, error) {
	gen, ok := c.Resolve(pactpath.RootPath())
	if !ok {
		return value, nil
	}
	generated, err := gen.Generate(ctx, value)
	if err != nil {
		return value, errors.Wrapf(err, "unable to generate %s", c.Name)
	}
	return fmt.Sprintf("%v", generated), nil
}

func sortedValueKeys(values map[string][]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
