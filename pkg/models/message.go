package models

import (
	"fmt"

	"github.com/form3tech-oss/pact-core/pkg/contenttype"
	"github.com/form3tech-oss/pact-core/pkg/generators"
	"github.com/form3tech-oss/pact-core/pkg/matchingrules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// MessageContents is the payload of a message interaction part.
type MessageContents struct {
	Body          Body
	Metadata      map[string]interface{}
	MatchingRules matchingrules.MatchingRules
	Generators    generators.Generators
}

// MessageContentsFromJSON decodes the V4 message contents form
// `{"contents": <body envelope>, "metadata": {...}, "matchingRules": {...}, "generators": {...}}`.
func MessageContentsFromJSON(data []byte) (MessageContents, error) {
	if !gjson.ValidBytes(data) {
		return MessageContents{}, errors.Wrap(ErrMalformedJSON, "message contents are not valid JSON")
	}
	return messageContentsFromResult(gjson.ParseBytes(data))
}

func messageContentsFromResult(r gjson.Result) (MessageContents, error) {
	if !r.IsObject() {
		return MessageContents{}, errors.Wrapf(ErrMalformedJSON, "Expected a JSON object for the message contents, got '%s'", r.Raw)
	}

	metadata := metadataFromJSON(r, "metadata")
	rules, err := matchingrules.FromJSON([]byte(r.Get("matchingRules").Raw))
	if err != nil {
		log.Warnf("ignoring message matching rules: %v", err)
	}
	gens, err := generators.FromJSON([]byte(r.Get("generators").Raw))
	if err != nil {
		log.Warnf("ignoring message generators: %v", err)
	}
	return MessageContents{
		Body:          bodyFromEnvelope(r.Get("contents")),
		Metadata:      metadata,
		MatchingRules: rules,
		Generators:    gens,
	}, nil
}

// metadataFromJSON reads a metadata object; anything else is ignored with a warning and
// yields an empty map.
func metadataFromJSON(r gjson.Result, keys ...string) map[string]interface{} {
	for _, key := range keys {
		value := r.Get(key)
		if !value.Exists() {
			continue
		}
		if !value.IsObject() {
			log.Warnf("%s must be a JSON object, but received %s. Ignoring", key, value.Raw)
			return map[string]interface{}{}
		}
		return jsonObject(value)
	}
	return map[string]interface{}{}
}

// ToJSON encodes the contents in the V4 form. Empty parts are left out.
func (m MessageContents) ToJSON() map[string]interface{} {
	out := map[string]interface{}{}
	m.writeJSON(out)
	return out
}

func (m MessageContents) writeJSON(out map[string]interface{}) {
	if contents := m.Body.toEnvelope(MetadataToHeaders(m.Metadata)); contents != nil {
		out["contents"] = contents
	}
	if len(m.Metadata) > 0 {
		out["metadata"] = copyMap(m.Metadata)
	}
	if rules := m.MatchingRules.ToJSON(); rules != nil {
		out["matchingRules"] = rules
	}
	if gens := m.Generators.ToJSON(); gens != nil {
		out["generators"] = gens
	}
}

// ContentType resolves the content type of the message from the body, then the metadata,
// then the body bytes.
func (m MessageContents) ContentType() (contenttype.ContentType, bool) {
	if !m.Body.IsPresent() && m.Body.ContentType == nil {
		if ct, ok := contenttype.FromHeaders(MetadataToHeaders(m.Metadata)); ok {
			return ct, true
		}
		return contenttype.ContentType{}, false
	}
	ct, err := contenttype.Resolve(m.Body.ContentType, MetadataToHeaders(m.Metadata), m.Body.Value)
	if err != nil {
		return ct, false
	}
	return ct, true
}

func (m MessageContents) Clone() MessageContents {
	return MessageContents{
		Body:          m.Body.Clone(),
		Metadata:      copyMap(m.Metadata),
		MatchingRules: m.MatchingRules,
		Generators:    m.Generators,
	}
}

func (m MessageContents) String() string {
	keys := sortedKeys(m.Metadata)
	return fmt.Sprintf("Message Contents ( contents: %s, metadata: %v )", m.Body, keys)
}

// MetadataToHeaders projects the scalar metadata entries onto a header map. Objects and
// arrays are left out; null is rendered as "null".
func MetadataToHeaders(metadata map[string]interface{}) map[string][]string {
	headers := make(map[string][]string, len(metadata))
	for k, v := range metadata {
		switch t := v.(type) {
		case map[string]interface{}, []interface{}:
			continue
		case nil:
			headers[k] = []string{"null"}
		case string:
			headers[k] = []string{t}
		default:
			headers[k] = []string{fmt.Sprintf("%v", t)}
		}
	}
	return headers
}
