package models

import (
	"encoding/json"
	"testing"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageContentsFromJSON(t *testing.T) {
	data := `{
		"contents": {"content": "aGVsbG8=", "contentType": "application/octet-stream", "encoded": "base64"},
		"metadata": {"queue": "q1", "retries": 3},
		"matchingRules": {"metadata": {"queue": {"matchers": [{"match": "regex", "regex": "q\\d"}]}}},
		"generators": {"metadata": {"queue": {"type": "Regex", "regex": "q\\d"}}}
	}`

	m, err := MessageContentsFromJSON([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "hello", string(m.Body.Value))
	assert.Equal(t, "q1", m.Metadata["queue"])
	assert.False(t, m.MatchingRules.IsEmpty())
	assert.False(t, m.Generators.IsEmpty())

	out := m.ToJSON()
	assert.Equal(t, "base64", out["contents"].(map[string]interface{})["encoded"])
	assert.Contains(t, out, "matchingRules")
	assert.Contains(t, out, "generators")
}

func TestMessageContentsDefaults(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "no metadata", json: `{"contents": {"content": "x"}}`},
		{name: "metadata is not an object", json: `{"contents": {"content": "x"}, "metadata": [1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MessageContentsFromJSON([]byte(tt.json))
			require.NoError(t, err)

			assert.NotNil(t, m.Metadata)
			assert.Empty(t, m.Metadata)
			assert.True(t, m.MatchingRules.IsEmpty())
			assert.True(t, m.Generators.IsEmpty())

			out := m.ToJSON()
			assert.NotContains(t, out, "metadata")
			assert.NotContains(t, out, "matchingRules")
			assert.NotContains(t, out, "generators")
		})
	}
}

func TestMessageContentsMustBeObject(t *testing.T) {
	_, err := MessageContentsFromJSON([]byte(`"text"`))
	assert.True(t, errors.Is(err, ErrMalformedJSON))
}

func TestMissingContentsAreLeftOut(t *testing.T) {
	m, err := MessageContentsFromJSON([]byte(`{}`))
	require.NoError(t, err)

	assert.True(t, m.Body.IsMissing())
	assert.Empty(t, m.ToJSON())
}

func TestMessageContentTypePrecedence(t *testing.T) {
	jsonType := contenttype.MustParse(contenttype.JSON)

	tests := []struct {
		name     string
		contents MessageContents
		expected string
	}{
		{
			name: "explicit content type wins over metadata",
			contents: MessageContents{
				Body:     NewBody([]byte(`plain`), &jsonType),
				Metadata: map[string]interface{}{"content-type": "text/plain"},
			},
			expected: "application/json",
		},
		{
			name: "metadata wins over sniffing",
			contents: MessageContents{
				Body:     NewBody([]byte(`{"a":1}`), nil),
				Metadata: map[string]interface{}{"contentType": "text/plain"},
			},
			expected: "text/plain",
		},
		{
			name: "Content-Type wins over other spellings",
			contents: MessageContents{
				Body:     NewBody([]byte(`{"a":1}`), nil),
				Metadata: map[string]interface{}{"content-type": "text/plain", "Content-Type": "application/xml"},
			},
			expected: "application/xml",
		},
		{
			name:     "sniffed from the body",
			contents: MessageContents{Body: NewBody([]byte(`[1, 2]`), nil)},
			expected: "application/json",
		},
		{
			name: "metadata without a body",
			contents: MessageContents{
				Metadata: map[string]interface{}{"contentType": "application/xml"},
			},
			expected: "application/xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ok := tt.contents.ContentType()
			require.True(t, ok)
			assert.Equal(t, tt.expected, ct.BaseType())
		})
	}
}

func TestMessageContentTypeUnknown(t *testing.T) {
	_, ok := MessageContents{}.ContentType()
	assert.False(t, ok)
}

func TestMetadataToHeaders(t *testing.T) {
	headers := MetadataToHeaders(map[string]interface{}{
		"contentType": "application/json",
		"retries":     3,
		"nothing":     nil,
		"nested":      map[string]interface{}{"a": 1},
		"list":        []interface{}{1},
	})

	assert.Equal(t, map[string][]string{
		"contentType": {"application/json"},
		"retries":     {"3"},
		"nothing":     {"null"},
	}, headers)
}

func TestBodyEnvelope(t *testing.T) {
	jsonType := contenttype.MustParse(contenttype.JSON)

	tests := []struct {
		name     string
		body     Body
		expected string
	}{
		{name: "missing", body: MissingBody(), expected: ``},
		{name: "null", body: NullBody(), expected: `null`},
		{name: "empty", body: NewBody(nil, &jsonType), expected: `{"content":"","contentType":"application/json","encoded":false}`},
		{name: "json", body: NewBody([]byte(`{"a":1}`), &jsonType), expected: `{"content":{"a":1},"contentType":"application/json","encoded":false}`},
		{name: "text", body: TextBody("hi"), expected: `{"content":"hi","contentType":"text/plain","encoded":false}`},
		{
			name:     "binary",
			body:     NewBody([]byte{0x00, 0x01, 0xff}, &contenttype.ContentType{MainType: "application", SubType: "octet-stream"}),
			expected: `{"content":"AAH/","contentType":"application/octet-stream","encoded":"base64"}`,
		},
		{
			name:     "text hint",
			body:     Body{State: BodyPresent, Value: []byte("abc"), ContentType: &contenttype.ContentType{MainType: "application", SubType: "x-custom"}, Hint: HintText},
			expected: `{"content":"abc","contentType":"application/x-custom","contentTypeHint":"TEXT","encoded":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MessageContents{Body: tt.body}
			out := m.ToJSON()
			if tt.expected == "" {
				assert.NotContains(t, out, "contents")
				return
			}
			data, err := json.Marshal(out["contents"])
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			decoded, err := MessageContentsFromJSON([]byte(`{"contents":` + string(data) + `}`))
			require.NoError(t, err)
			assert.True(t, tt.body.Equal(decoded.Body), "expected %s, got %s", tt.body, decoded.Body)
		})
	}
}
