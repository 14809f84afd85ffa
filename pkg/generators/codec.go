package generators

import (
	"encoding/json"

	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// single-value categories carry one generator object instead of a path map
var singleValueCategories = map[string]bool{
	CategoryPath:   true,
	CategoryStatus: true,
	"method":       true,
}

// FromJSON decodes the `generators` object of an interaction part. Categories and paths
// keep their document order. Malformed paths and unknown generator types are reported
// as warnings; unknown types are kept as Unknown so they survive re-encoding.
func FromJSON(data []byte) (Generators, error) {
	if len(data) == 0 {
		return Generators{}, nil
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Generators{}, errors.Errorf("generators must be a JSON object, got %s", root.Raw)
	}

	var result Generators
	root.ForEach(func(name, value gjson.Result) bool {
		category := decodeCategory(name.String(), value)
		if !category.IsEmpty() {
			result = result.WithCategory(category)
		}
		return true
	})
	return result, nil
}

// FromValue decodes generators from an already unmarshalled JSON value.
func FromValue(value interface{}) (Generators, error) {
	if value == nil {
		return Generators{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return Generators{}, errors.Wrap(err, "unable to encode generators")
	}
	return FromJSON(data)
}

// CategoryFromJSON decodes a single path to generator object, as found inside
// ArrayContains variants.
func CategoryFromJSON(name string, data []byte) Category {
	if len(data) == 0 {
		return NewCategory(name)
	}
	return decodeCategory(name, gjson.ParseBytes(data))
}

func decodeCategory(name string, value gjson.Result) Category {
	category := NewCategory(name)
	if !value.IsObject() {
		log.Warnf("generators for category %q must be a JSON object, ignoring", name)
		return category
	}

	if singleValueCategories[name] && value.Get("type").Exists() {
		return category.With(pactpath.RootPath(), decodeGenerator(value))
	}

	value.ForEach(func(key, gen gjson.Result) bool {
		path, err := pactpath.Parse(key.String())
		if err != nil {
			log.Warnf("ignoring %s generator: %v", name, err)
			return true
		}
		if !gen.IsObject() {
			log.Warnf("ignoring %s generator for %q: not a JSON object", name, key.String())
			return true
		}
		category = category.With(path, decodeGenerator(gen))
		return true
	})
	return category
}

func decodeGenerator(value gjson.Result) Generator {
	kind := value.Get("type").String()
	switch kind {
	case "RandomInt":
		return RandomInt{Min: intOr(value, "min", 0), Max: intOr(value, "max", 10)}
	case "RandomDecimal":
		return RandomDecimal{Digits: int(intOr(value, "digits", 10))}
	case "RandomHexadecimal":
		return RandomHexadecimal{Digits: int(intOr(value, "digits", 10))}
	case "RandomString":
		return RandomString{Size: int(intOr(value, "size", 10))}
	case "Regex":
		return Regex{Pattern: value.Get("regex").String()}
	case "Uuid":
		return UUID{Format: UUIDFormat(value.Get("format").String())}
	case "Date":
		return Date{Format: value.Get("format").String(), Expression: value.Get("expression").String()}
	case "Time":
		return Time{Format: value.Get("format").String(), Expression: value.Get("expression").String()}
	case "DateTime", "Timestamp":
		return DateTime{Format: value.Get("format").String(), Expression: value.Get("expression").String()}
	case "RandomBoolean":
		return RandomBoolean{}
	case "ProviderState":
		return ProviderState{Expression: value.Get("expression").String(), DataType: DataType(value.Get("dataType").String())}
	case "MockServerURL":
		return MockServerURL{Example: value.Get("example").String(), Regex: value.Get("regex").String()}
	case "RequestPath":
		return RequestPath{}
	case "ArrayContains":
		return decodeArrayContains(value)
	}

	log.Warnf("unknown generator type %q, it will be kept but not applied", kind)
	raw, _ := value.Value().(map[string]interface{})
	delete(raw, "type")
	return Unknown{Type: kind, Raw: raw}
}

func decodeArrayContains(value gjson.Result) Generator {
	var variants []ArrayContainsVariant
	value.Get("variants").ForEach(func(_, variant gjson.Result) bool {
		variants = append(variants, ArrayContainsVariant{
			Index:      int(variant.Get("index").Int()),
			Generators: decodeCategory(CategoryBody, variant.Get("generators")),
		})
		return true
	})
	return ArrayContains{Variants: variants}
}

func intOr(value gjson.Result, key string, def int64) int64 {
	v := value.Get(key)
	if !v.Exists() {
		return def
	}
	return v.Int()
}

// ToJSON encodes the generator set; empty categories are omitted and an empty set
// encodes to nil.
func (g Generators) ToJSON() map[string]interface{} {
	names := g.CategoryNames()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(names))
	for _, name := range names {
		c := g.categories[name]
		if singleValueCategories[name] && len(c.entries) == 1 && c.entries[0].Path.IsRoot() {
			out[name] = c.entries[0].Generator.ToJSON()
			continue
		}
		out[name] = c.ToJSON()
	}
	return out
}

// ToJSON encodes the category as a path to generator object.
func (c Category) ToJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(c.entries))
	for _, e := range c.entries {
		out[e.Path.String()] = e.Generator.ToJSON()
	}
	return out
}
