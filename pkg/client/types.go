package client

import (
	"encoding/json"

	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
)

type PactSummary struct {
	Consumer          string               `json:"consumer"`
	Provider          string               `json:"provider"`
	PactSpecification string               `json:"pact_specification"`
	Interactions      []InteractionSummary `json:"interactions"`
}

type InteractionSummary struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Pending     bool   `json:"pending,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// MatchRequest compares Actual against Expected using the matching rules of Category.
// Rules is a matchingRules document in either the V2 or the V3+ form. Header and query
// values are objects of string arrays, status values are numbers and metadata values are
// objects; everything else is compared as a JSON body.
type MatchRequest struct {
	Category string          `json:"category,omitempty"`
	Rules    json.RawMessage `json:"rules,omitempty"`
	Expected json.RawMessage `json:"expected"`
	Actual   json.RawMessage `json:"actual"`
}

type MatchResponse struct {
	Matched    bool                     `json:"matched"`
	Mismatches []matchingrules.Mismatch `json:"mismatches"`
}

// GenerateRequest applies the generators of Category to Body. Header and query generators
// apply to Values, metadata generators to Metadata, and path and status generators to the
// single Value.
type GenerateRequest struct {
	Category      string                 `json:"category,omitempty"`
	Generators    json.RawMessage        `json:"generators"`
	Body          json.RawMessage        `json:"body,omitempty"`
	Values        map[string][]string    `json:"values,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Value         interface{}            `json:"value,omitempty"`
	ProviderState map[string]interface{} `json:"provider_state,omitempty"`
	MockServerURL string                 `json:"mock_server_url,omitempty"`
	Seed          *int64                 `json:"seed,omitempty"`
}

type GenerateResponse struct {
	Body     json.RawMessage        `json:"body,omitempty"`
	Values   map[string][]string    `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Value    interface{}            `json:"value,omitempty"`
	Errors   []string               `json:"errors,omitempty"`
}
