package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyedInteraction(t *testing.T) Interaction {
	return NewHTTPInteraction("get a user", userRequest(t, true), userResponse(t)).
		WithProviderStates(NewProviderState("user exists", map[string]interface{}{"id": 1}))
}

func TestWithKeyIsIdempotent(t *testing.T) {
	i := keyedInteraction(t)

	once := i.WithKey()
	twice := once.WithKey()

	require.NotNil(t, once.Key)
	assert.Len(t, *once.Key, 16)
	assert.Equal(t, *once.Key, *twice.Key)
	assert.Nil(t, i.Key, "WithKey must not modify the receiver")
}

func TestWithKeyKeepsExistingKey(t *testing.T) {
	key := "custom"
	i := keyedInteraction(t)
	i.Key = &key

	assert.Equal(t, "custom", *i.WithKey().Key)
	assert.Equal(t, i.CalcKey(), *i.Rekey().Key)
}

func TestKeyIgnoresAnnotations(t *testing.T) {
	i := keyedInteraction(t)
	id := "broker-id"

	annotated := i.WithComments(map[string]interface{}{"text": []interface{}{"a note"}})
	annotated.ID = &id

	assert.Equal(t, i.CalcKey(), annotated.CalcKey())
}

func TestKeyChangesWithContent(t *testing.T) {
	base := keyedInteraction(t)

	otherResponse := userResponse(t)
	otherResponse.Status = 200
	otherRequest := userRequest(t, true)
	otherRequest.Body = TextBody("changed")

	tests := []struct {
		name    string
		changed Interaction
	}{
		{
			name:    "description",
			changed: func() Interaction { c := base.Clone(); c.Description = "get another user"; return c }(),
		},
		{
			name:    "provider state params",
			changed: base.WithProviderStates(NewProviderState("user exists", map[string]interface{}{"id": 2})),
		},
		{
			name:    "provider state name",
			changed: base.WithProviderStates(NewProviderState("user is missing", map[string]interface{}{"id": 1})),
		},
		{
			name:    "request body",
			changed: NewHTTPInteraction("get a user", otherRequest, userResponse(t)).WithProviderStates(base.ProviderStates...),
		},
		{
			name:    "response status",
			changed: NewHTTPInteraction("get a user", userRequest(t, true), otherResponse).WithProviderStates(base.ProviderStates...),
		},
		{
			name:    "pending",
			changed: base.WithPending(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base.CalcKey(), tt.changed.CalcKey())
		})
	}
}

func TestKeyIsIndependentOfKeyOrder(t *testing.T) {
	first := `{
		"type": "Synchronous/HTTP",
		"description": "d",
		"providerStates": [{"name": "s", "params": {"a": 1, "b": 2}}],
		"request": {"method": "POST", "path": "/", "headers": {"A": "1", "B": "2"},
			"body": {"content": {"x": 1, "y": {"p": true, "q": null}}, "contentType": "application/json"}},
		"response": {"status": 200}
	}`
	second := `{
		"response": {"status": 200},
		"request": {"body": {"contentType": "application/json", "content": {"y": {"q": null, "p": true}, "x": 1}},
			"headers": {"B": "2", "A": "1"}, "path": "/", "method": "POST"},
		"providerStates": [{"params": {"b": 2, "a": 1}, "name": "s"}],
		"description": "d",
		"type": "Synchronous/HTTP"
	}`

	a, err := InteractionFromJSON([]byte(first), 0, V4)
	require.NoError(t, err)
	b, err := InteractionFromJSON([]byte(second), 0, V4)
	require.NoError(t, err)

	assert.Equal(t, a.CalcKey(), b.CalcKey())
	assert.True(t, a.Equal(b))
}
