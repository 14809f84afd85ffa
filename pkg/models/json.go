package models

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/tidwall/gjson"
)

// jsonValue decodes a gjson result into a plain value, keeping numbers as json.Number.
func jsonValue(r gjson.Result) interface{} {
	if !r.Exists() {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(r.Raw)))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return r.Value()
	}
	return value
}

func jsonObject(r gjson.Result) map[string]interface{} {
	m, _ := jsonValue(r).(map[string]interface{})
	return m
}

// stringValue renders a scalar the way it appears in JSON, without quotes for strings.
func stringValue(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.String()
	}
	return r.Raw
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValues(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
