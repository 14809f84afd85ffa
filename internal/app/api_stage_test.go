package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/form3tech-oss/pact-core/pkg/client"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const userPact = `{
	"consumer": {"name": "web"},
	"provider": {"name": "users"},
	"interactions": [{
		"description": "get a user",
		"providerStates": [{"name": "user exists", "params": {"id": 1}}],
		"request": {"method": "GET", "path": "/users/1"},
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
	"metadata": {"pactSpecification": {"version": "3.0.0"}}
}`

type APIStage struct {
	t            *testing.T
	assert       *assert.Assertions
	require      *require.Assertions
	client       *client.Client
	pact         string
	summary      client.PactSummary
	interactions []client.InteractionSummary
	interaction  json.RawMessage
	converted    []byte
	matched      client.MatchResponse
	generated    client.GenerateResponse
	waited       client.InteractionSummary
	err          error
}

func NewAPIStage(t *testing.T) (*APIStage, *APIStage, *APIStage) {
	s := &APIStage{
		t:       t,
		assert:  assert.New(t),
		require: require.New(t),
		client:  client.New(adminURL.String()),
	}

	s.t.Cleanup(func() {
		s.client.DeleteInteractions()
	})

	return s, s, s
}

func (s *APIStage) and() *APIStage {
	return s
}

func (s *APIStage) a_v3_pact_for_users() *APIStage {
	s.pact = userPact
	return s
}

func (s *APIStage) a_malformed_pact() *APIStage {
	s.pact = `{"interactions": [{"type": "Synchronous/Messages", "description": "no response", "request": {}}]}`
	return s
}

func (s *APIStage) the_pact_has_been_loaded() *APIStage {
	return s.the_pact_is_loaded().and().no_error_is_returned()
}

func (s *APIStage) the_pact_is_loaded() *APIStage {
	s.summary, s.err = s.client.LoadPact([]byte(s.pact))
	return s
}

func (s *APIStage) the_interactions_are_listed() *APIStage {
	s.interactions, s.err = s.client.Interactions()
	return s
}

func (s *APIStage) the_interaction_is_fetched(keyOrDescription string) *APIStage {
	s.interaction, s.err = s.client.Interaction(keyOrDescription)
	return s
}

func (s *APIStage) the_pact_is_converted_to(version string) *APIStage {
	s.converted, s.err = s.client.Convert([]byte(s.pact), version)
	return s
}

func (s *APIStage) values_are_matched(req client.MatchRequest) *APIStage {
	s.matched, s.err = s.client.Match(req)
	return s
}

func (s *APIStage) values_are_generated(req client.GenerateRequest) *APIStage {
	s.generated, s.err = s.client.Generate(req)
	return s
}

func (s *APIStage) waiting_for_(interaction string, timeout time.Duration) *APIStage {
	s.waited, s.err = s.client.WaitForInteraction(interaction, timeout)
	return s
}

func (s *APIStage) waiting_for_while_(interaction string, while func()) *APIStage {
	var (
		wg     sync.WaitGroup
		waited client.InteractionSummary
		err    error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		waited, err = s.client.WaitForInteraction(interaction, 5*time.Second)
	}()
	time.Sleep(50 * time.Millisecond)
	while()
	wg.Wait()
	s.waited, s.err = waited, err
	return s
}

func (s *APIStage) no_error_is_returned() *APIStage {
	s.require.NoError(s.err)
	return s
}

func (s *APIStage) the_error_is_(sentinel error) *APIStage {
	s.require.Error(s.err)
	s.assert.True(errors.Is(s.err, sentinel), "unexpected error %v", s.err)
	return s
}

func (s *APIStage) the_error_contains_(message string) *APIStage {
	s.require.Error(s.err)
	s.assert.Contains(s.err.Error(), message)
	return s
}

func (s *APIStage) the_summary_lists_(descriptions ...string) *APIStage {
	s.require.Len(s.summary.Interactions, len(descriptions))
	for i, description := range descriptions {
		s.assert.Equal(description, s.summary.Interactions[i].Description)
		s.assert.Len(s.summary.Interactions[i].Key, 16)
	}
	return s
}

func (s *APIStage) the_summary_is_for_(consumer, provider, version string) *APIStage {
	s.assert.Equal(consumer, s.summary.Consumer)
	s.assert.Equal(provider, s.summary.Provider)
	s.assert.Equal(version, s.summary.PactSpecification)
	return s
}

func (s *APIStage) the_registry_holds_(descriptions ...string) *APIStage {
	s.require.NoError(s.err)
	s.require.Len(s.interactions, len(descriptions))
	for i, description := range descriptions {
		s.assert.Equal(description, s.interactions[i].Description)
	}
	return s
}

func (s *APIStage) the_first_interaction_key() string {
	s.require.NotEmpty(s.summary.Interactions)
	return s.summary.Interactions[0].Key
}

func (s *APIStage) the_interaction_has_(path, value string) *APIStage {
	s.require.NoError(s.err)
	s.assert.Equal(value, gjson.GetBytes(s.interaction, path).String())
	return s
}

func (s *APIStage) the_converted_pact_has_(path, value string) *APIStage {
	s.require.NoError(s.err)
	s.assert.Equal(value, gjson.GetBytes(s.converted, path).String())
	return s
}

func (s *APIStage) the_converted_pact_has_no_(path string) *APIStage {
	s.require.NoError(s.err)
	s.assert.False(gjson.GetBytes(s.converted, path).Exists())
	return s
}

func (s *APIStage) the_values_match() *APIStage {
	s.require.NoError(s.err)
	s.assert.True(s.matched.Matched)
	s.assert.Empty(s.matched.Mismatches)
	return s
}

func (s *APIStage) the_mismatches_are_at_(paths ...string) *APIStage {
	s.require.NoError(s.err)
	s.assert.False(s.matched.Matched)
	actual := make([]string, 0, len(s.matched.Mismatches))
	for _, m := range s.matched.Mismatches {
		actual = append(actual, m.Path)
	}
	s.assert.Equal(paths, actual)
	return s
}

func (s *APIStage) the_generated_body_has_(path string, check func(gjson.Result) bool) *APIStage {
	s.require.NoError(s.err)
	s.assert.Empty(s.generated.Errors)
	value := gjson.GetBytes(s.generated.Body, path)
	s.assert.True(check(value), "unexpected value %s at %s", value.Raw, path)
	return s
}

func (s *APIStage) the_generated_header_is_(name, value string) *APIStage {
	s.require.NoError(s.err)
	s.assert.Equal([]string{value}, s.generated.Values[name])
	return s
}

func (s *APIStage) generation_reports_(count int) *APIStage {
	s.require.NoError(s.err)
	s.assert.Len(s.generated.Errors, count)
	return s
}

func (s *APIStage) the_waited_interaction_is_(description string) *APIStage {
	s.require.NoError(s.err)
	s.assert.Equal(description, s.waited.Description)
	return s
}
