package matchingrules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/form3tech-oss/pact-core/pkg/timefmt"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DecodeJSON decodes a JSON document keeping numbers as json.Number so numeric rules see
// the value as written.
func DecodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, errors.Wrap(err, "unable to decode JSON")
	}
	return value, nil
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func render(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case json.Number:
		return t.String()
	case []byte:
		return strconv.Quote(string(t))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// asString renders scalars as the text a regex or include rule is applied to.
func asString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil, []interface{}, map[string]interface{}:
		return "", false
	}
	if d, ok := toDecimal(v); ok {
		return d.String(), true
	}
	return "", false
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int8:
		return decimal.NewFromInt(int64(t)), true
	case int16:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return decimal.NewFromInt(int64(t)), true
	case uint8:
		return decimal.NewFromInt(int64(t)), true
	case uint16:
		return decimal.NewFromInt(int64(t)), true
	case uint32:
		return decimal.NewFromInt(int64(t)), true
	case uint64:
		return decimal.NewFromInt(int64(t)), true
	}
	return decimal.Decimal{}, false
}

// equalValues compares decoded JSON values structurally, numbers by value.
func equalValues(a, b interface{}) bool {
	if da, ok := toDecimal(a); ok {
		db, ok := toDecimal(b)
		return ok && da.Equal(db)
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []interface{}:
		y, ok := b.([]interface{})
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValues(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		y, ok := b.(map[string]interface{})
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			other, ok := y[k]
			if !ok || !equalValues(v, other) {
				return false
			}
		}
		return true
	}
	return render(a) == render(b)
}

func matchTime(actual interface{}, format, defaultFormat, kind string) error {
	if format == "" {
		format = defaultFormat
	}
	s, ok := actual.(string)
	if !ok {
		return errors.Errorf("Expected %s to be a %s string", render(actual), kind)
	}
	if _, err := timefmt.Parse(format, s); err != nil {
		if errors.Is(err, timefmt.ErrUnsupportedPattern) {
			return errors.Wrapf(err, "Invalid %s format %q", kind, format)
		}
		return errors.Errorf("Expected '%s' to match a %s pattern of '%s'", s, kind, format)
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
