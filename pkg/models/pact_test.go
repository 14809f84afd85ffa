package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const v3Pact = `{
	"consumer": {"name": "web"},
	"provider": {"name": "users"},
	"interactions": [{
		"description": "get a user",
		"providerStates": [{"name": "user 1 exists", "params": {"id": 1}}],
		"request": {"method": "GET", "path": "/users/1", "query": {"fields": ["name"]}},
		"response": {
			"status": 200,
			"headers": {"Content-Type": "application/json"},
			"body": {"id": 1, "name": "Mary"},
			"matchingRules": {"body": {"$.name": {"matchers": [{"match": "type"}]}}}
		}
	}],
	"messages": [{
		"description": "user created",
		"contents": {"id": 1},
		"metadata": {"contentType": "application/json"}
	}],
	"metadata": {"pactSpecification": {"version": "3.0.0"}, "pactRust": {"version": "1.0.0"}}
}`

func TestDetectSpecVersion(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected SpecVersion
	}{
		{name: "pactSpecification", json: `{"metadata": {"pactSpecification": {"version": "2.0.0"}}}`, expected: V2},
		{name: "pact-specification", json: `{"metadata": {"pact-specification": {"version": "1.1.0"}}}`, expected: V1_1},
		{name: "pactSpecificationVersion", json: `{"metadata": {"pactSpecificationVersion": "1.0.0"}}`, expected: V1},
		{name: "short version", json: `{"metadata": {"pactSpecification": {"version": "4.0"}}}`, expected: V4},
		{name: "no metadata", json: `{}`, expected: DefaultSpecVersion},
		{name: "unparseable version", json: `{"metadata": {"pactSpecification": {"version": "latest"}}}`, expected: DefaultSpecVersion},
		{
			name:     "typed interactions force V4",
			json:     `{"metadata": {"pactSpecification": {"version": "3.0.0"}}, "interactions": [{"type": "Synchronous/HTTP"}]}`,
			expected: V4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, detectSpecVersion(gjson.Parse(tt.json)))
		})
	}
}

func TestLoadV3Pact(t *testing.T) {
	pact, err := LoadPact([]byte(v3Pact))
	require.NoError(t, err)

	assert.Equal(t, V3, pact.SpecVersion)
	assert.Equal(t, "web", pact.Consumer.Name)
	assert.Equal(t, "users", pact.Provider.Name)
	require.Len(t, pact.Interactions, 2)

	http := pact.Interactions[0]
	assert.True(t, http.IsRequestResponse())
	assert.Nil(t, http.Key)
	assert.Equal(t, []string{"name"}, http.Variant.(HTTPExchange).Request.Query["fields"])
	ct, ok := http.ContentType()
	require.True(t, ok)
	assert.True(t, ct.IsJSON())
	assert.False(t, http.MatchingRules().IsEmpty())

	message := pact.Interactions[1]
	assert.True(t, message.IsMessage())
	assert.Equal(t, `{"id":1}`, string(message.ContentsForVerification().Value))
}

func TestLoadV4PactAssignsKeys(t *testing.T) {
	data := `{
		"consumer": {"name": "a"},
		"provider": {"name": "b"},
		"interactions": [
			{"type": "Synchronous/HTTP", "description": "one", "request": {"method": "GET", "path": "/"}, "response": {"status": 204}},
			{"type": "Asynchronous/Messages", "description": "two", "key": "kept", "contents": {"content": "hi", "contentType": "text/plain"}}
		],
		"metadata": {"pactSpecification": {"version": "4.0"}}
	}`

	pact, err := LoadPact([]byte(data))
	require.NoError(t, err)
	require.Len(t, pact.Interactions, 2)

	require.NotNil(t, pact.Interactions[0].Key)
	assert.Equal(t, pact.Interactions[0].CalcKey(), *pact.Interactions[0].Key)
	assert.Equal(t, "kept", *pact.Interactions[1].Key)

	found, ok := pact.Interaction(*pact.Interactions[0].Key)
	require.True(t, ok)
	assert.Equal(t, "one", found.Description)
	found, ok = pact.Interaction("two")
	require.True(t, ok)
	assert.Equal(t, "kept", *found.Key)
	_, ok = pact.Interaction("three")
	assert.False(t, ok)
}

func TestLoadPactAggregatesErrors(t *testing.T) {
	data := `{
		"interactions": [
			{"type": "Plugin/Thing", "description": "bad type"},
			{"type": "Synchronous/HTTP", "description": "good", "request": {}, "response": {}},
			{"type": "Synchronous/Messages", "description": "no response", "request": {}}
		]
	}`

	pact, err := LoadPact([]byte(data))
	require.Error(t, err)

	var aggregate *AggregateDecodeError
	require.True(t, errors.As(err, &aggregate))
	assert.Len(t, aggregate.Errors, 2)
	assert.Contains(t, err.Error(), "bad type")
	assert.Contains(t, err.Error(), "no response")
	assert.True(t, errors.Is(err, ErrUnknownInteractionType))
	assert.True(t, errors.Is(err, ErrMissingRequiredField))

	require.Len(t, pact.Interactions, 1)
	assert.Equal(t, "good", pact.Interactions[0].Description)
}

func TestLoadPactRejectsMalformedFiles(t *testing.T) {
	for _, data := range []string{`[]`, `{"interactions": `, `{"interactions": {}}`} {
		t.Run(data, func(t *testing.T) {
			_, err := LoadPact([]byte(data))
			assert.True(t, errors.Is(err, ErrMalformedJSON), "%v", err)
		})
	}
}

func TestMalformedFileErrorKeepsValidUTF8(t *testing.T) {
	data := `["a` + strings.Repeat("é", 40) + `"]`
	_, err := LoadPact([]byte(data))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedJSON))
	assert.True(t, utf8.ValidString(err.Error()), "%q", err.Error())
	assert.Contains(t, err.Error(), "...")
}

func TestConvertV3PactToV4(t *testing.T) {
	pact, err := LoadPact([]byte(v3Pact))
	require.NoError(t, err)

	data, err := pact.ToJSON(V4)
	require.NoError(t, err)

	out := gjson.ParseBytes(data)
	assert.Equal(t, "4.0.0", out.Get("metadata.pactSpecification.version").String())
	assert.Equal(t, CoreVersion, out.Get("metadata.pactCore.version").String())
	assert.Equal(t, "1.0.0", out.Get("metadata.pactRust.version").String())
	assert.False(t, out.Get("messages").Exists())
	assert.Equal(t, []string{TypeSynchronousHTTP, TypeAsynchronousMessages}, []string{
		out.Get("interactions.0.type").String(),
		out.Get("interactions.1.type").String(),
	})
	assert.True(t, out.Get("interactions.0.key").Exists())
	assert.Equal(t, "application/json", out.Get("interactions.0.response.body.contentType").String())
	assert.Equal(t, int64(1), out.Get("interactions.0.response.body.content.id").Int())

	reloaded, err := LoadPact(data)
	require.NoError(t, err)
	assert.Equal(t, V4, reloaded.SpecVersion)
	require.Len(t, reloaded.Interactions, 2)
	for i := range pact.Interactions {
		assert.True(t, pact.Interactions[i].Equal(reloaded.Interactions[i]), "interaction %d differs", i)
	}
}

func TestConvertV4PactToV3(t *testing.T) {
	pact, err := LoadPact([]byte(v3Pact))
	require.NoError(t, err)
	v4, err := pact.ToJSON(V4)
	require.NoError(t, err)
	loaded, err := LoadPact(v4)
	require.NoError(t, err)

	data, err := loaded.ToJSON(V3)
	require.NoError(t, err)

	out := gjson.ParseBytes(data)
	assert.Equal(t, "3.0.0", out.Get("metadata.pactSpecification.version").String())
	assert.Equal(t, int64(1), out.Get("interactions.#").Int())
	assert.Equal(t, int64(1), out.Get("messages.#").Int())
	assert.False(t, out.Get("interactions.0.key").Exists())
	assert.False(t, out.Get("interactions.0.type").Exists())
	assert.Equal(t, "Mary", out.Get("interactions.0.response.body.name").String())
}

func TestSyncMessagesCannotBeWrittenBeforeV4(t *testing.T) {
	request, err := NewMessageBuilder().Body(TextBody("ping")).Build()
	require.NoError(t, err)
	pact := Pact{
		Consumer:     Pacticipant{Name: "a"},
		Provider:     Pacticipant{Name: "b"},
		Interactions: []Interaction{NewSyncMessages("ping", request, request)},
	}

	_, err = pact.ToJSON(V3)
	assert.True(t, errors.Is(err, ErrUnsupportedSpecVersion))

	data, err := pact.ToJSON(SpecUnknown)
	assert.True(t, errors.Is(err, ErrUnsupportedSpecVersion), "unknown versions are written as %s", DefaultSpecVersion)
	assert.Nil(t, data)
}
