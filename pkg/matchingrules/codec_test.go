package matchingrules

import (
	"encoding/json"
	"testing"

	"github.com/form3tech-oss/pact-core/pkg/pactpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONNested(t *testing.T) {
	data := []byte(`{
		"body": {
			"$.id": {"combine": "AND", "matchers": [{"match": "integer"}]},
			"$.items": {"matchers": [{"match": "type", "min": 1}]},
			"$.name": {"combine": "OR", "matchers": [{"match": "regex", "regex": "^[a-z]+$"}, {"match": "null"}]},
			"$.when": {"matchers": [{"match": "timestamp", "timestamp": "yyyy-MM-dd"}]},
			"$.future": {"matchers": [{"match": "shinyNewMatcher", "level": 3}]}
		},
		"header": {"X-Id": {"matchers": [{"match": "regex", "regex": "\\d+"}]}},
		"path": {"combine": "AND", "matchers": [{"match": "regex", "regex": "/orders/\\d+"}]},
		"status": {"matchers": [{"match": "statusCode", "status": [200, 202]}]}
	}`)

	rules, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "header", "path", "status"}, rules.CategoryNames())

	body := rules.Category(CategoryBody)
	require.Equal(t, 5, body.Len())
	assert.Equal(t, "$.id", body.Entries()[0].Path.String())

	items, ok := body.Lookup("$.items")
	require.True(t, ok)
	assert.Equal(t, []Rule{MinType{Min: 1}}, items.Rules)

	name, _ := body.Lookup("$.name")
	assert.Equal(t, Or, name.Logic)
	assert.Equal(t, []Rule{Regex{Pattern: "^[a-z]+$"}, Null{}}, name.Rules)

	when, _ := body.Lookup("$.when")
	assert.Equal(t, []Rule{Timestamp{Format: "yyyy-MM-dd"}}, when.Rules)

	future, _ := body.Lookup("$.future")
	assert.Equal(t, []Rule{Unknown{Type: "shinyNewMatcher", Raw: map[string]interface{}{"level": 3.0}}}, future.Rules)

	path, ok := rules.Category(CategoryPath).Lookup("$")
	require.True(t, ok)
	assert.Equal(t, []Rule{Regex{Pattern: `/orders/\d+`}}, path.Rules)

	status, _ := rules.Category(CategoryStatus).Lookup("$")
	assert.Equal(t, []Rule{StatusCode{Status: StatusCodes, Codes: []int{200, 202}}}, status.Rules)
}

func TestNestedRoundTrip(t *testing.T) {
	data := []byte(`{
		"body": {
			"$.id": {"combine": "AND", "matchers": [{"match": "integer"}]},
			"$.events": {"combine": "AND", "matchers": [{"match": "arrayContains", "variants": [
				{"index": 0, "rules": {"$.id": {"combine": "AND", "matchers": [{"match": "number"}]}},
				 "generators": {"$.id": {"type": "RandomInt", "min": 1, "max": 9}}}
			]}]},
			"$.scores": {"combine": "AND", "matchers": [{"match": "eachKey", "rules": [{"match": "regex", "regex": "[a-z]+"}]}]},
			"$.future": {"combine": "AND", "matchers": [{"match": "shinyNewMatcher", "level": 3}]}
		},
		"query": {"page": {"combine": "AND", "matchers": [{"match": "type", "min": 1, "max": 2}]}},
		"status": {"combine": "AND", "matchers": [{"match": "statusCode", "status": "success"}]}
	}`)

	rules, err := FromJSON(data)
	require.NoError(t, err)

	encoded, err := json.Marshal(rules.ToJSON())
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(encoded))
}

func TestFromJSONFlat(t *testing.T) {
	data := []byte(`{
		"$.body.items": {"min": 1, "match": "type"},
		"$.body.items[*].id": {"match": "regex", "regex": "\\d+"},
		"$.body": {"match": "type"},
		"$.headers.Content-Type": {"regex": "application/json.*"},
		"$.query.page": {"match": "integer"},
		"$.path": {"regex": "/items/\\d+"}
	}`)

	rules, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "header", "path", "query"}, rules.CategoryNames())

	body := rules.Category(CategoryBody)
	require.Equal(t, 3, body.Len())
	assert.Equal(t, "$.items", body.Entries()[0].Path.String())
	assert.Equal(t, "$.items[*].id", body.Entries()[1].Path.String())
	assert.True(t, body.Entries()[2].Path.IsRoot())

	header, ok := rules.Category(CategoryHeader).Lookup("$.Content-Type")
	require.True(t, ok)
	assert.Equal(t, []Rule{Regex{Pattern: "application/json.*"}}, header.Rules)

	query, ok := rules.Category(CategoryQuery).Lookup("$.page")
	require.True(t, ok)
	assert.Equal(t, []Rule{Integer{}}, query.Rules)

	path, ok := rules.Category(CategoryPath).Lookup("$")
	require.True(t, ok)
	assert.Equal(t, []Rule{Regex{Pattern: `/items/\d+`}}, path.Rules)
}

func TestToV2JSON(t *testing.T) {
	rules := MatchingRules{}.
		With(CategoryBody, pactpath.MustParse("$.items"), MinType{Min: 1}).
		With(CategoryBody, pactpath.MustParse("$.items"), Integer{}).
		With(CategoryBody, pactpath.MustParse("$['a b']"), Type{}).
		With(CategoryHeader, pactpath.MustParse("X-Id"), Regex{Pattern: `\d+`}).
		With(CategoryPath, pactpath.RootPath(), Regex{Pattern: "/x"})

	assert.Equal(t, map[string]interface{}{
		"$.body.items":   map[string]interface{}{"match": "type", "min": 1},
		"$.body['a b']":  map[string]interface{}{"match": "type"},
		"$.headers.X-Id": map[string]interface{}{"match": "regex", "regex": `\d+`},
		"$.path":         map[string]interface{}{"match": "regex", "regex": "/x"},
	}, rules.ToV2JSON())

	again, err := FromValue(rules.ToV2JSON())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Category(CategoryBody).Len())
}

func TestFromJSONSkipsMalformed(t *testing.T) {
	rules, err := FromJSON([]byte(`{"body": {"$[": {"matchers": []}, "$.a": {"matchers": "nope"}, "$.b": {"matchers": [{"match": "null"}]}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, rules.Category(CategoryBody).Len())

	_, err = FromJSON([]byte(`"text"`))
	assert.Error(t, err)

	empty, err := FromJSON(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.ToJSON())
}
