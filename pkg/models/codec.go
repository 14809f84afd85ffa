package models

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// InteractionFromJSON decodes one interaction written for the given specification version.
// index is the position of the interaction in its file and names interactions that have
// no description. V1-V3 interactions decode as HTTP exchanges unless they carry message
// contents.
func InteractionFromJSON(data []byte, index int, version SpecVersion) (Interaction, error) {
	if !gjson.ValidBytes(data) {
		return Interaction{}, errors.Wrap(ErrMalformedJSON, "interaction is not valid JSON")
	}
	return interactionFromResult(gjson.ParseBytes(data), index, version, "")
}

// interactionFromResult decodes an interaction. defaultType is used by pre-V4 files, where
// the array the interaction was read from decides its kind.
func interactionFromResult(r gjson.Result, index int, version SpecVersion, defaultType string) (Interaction, error) {
	if !r.IsObject() {
		return Interaction{}, errors.Wrapf(ErrMalformedJSON, "Expected a JSON object for the interaction, got '%s'", r.Raw)
	}
	if version == SpecUnknown {
		version = DefaultSpecVersion
	}

	i := Interaction{
		Description:    fmt.Sprintf("Interaction %d", index),
		ProviderStates: providerStatesFromJSON(r),
	}
	if description := r.Get("description"); description.Exists() {
		i.Description = description.String()
	}
	if id := r.Get("_id"); id.Exists() && id.Type != gjson.Null {
		s := stringValue(id)
		i.ID = &s
	}
	if key := r.Get("key"); key.Exists() && key.Type != gjson.Null {
		s := stringValue(key)
		i.Key = &s
	}
	if comments := r.Get("comments"); comments.Exists() {
		if comments.IsObject() {
			i.Comments = jsonObject(comments)
		} else {
			log.Warnf("interaction comments must be a JSON object, but received %s. Ignoring", comments.Raw)
		}
	}
	i.Pending = r.Get("pending").Bool()

	typeName := interactionType(r, version, defaultType)
	var err error
	switch typeName {
	case TypeSynchronousHTTP:
		i.Variant, err = httpExchangeFromJSON(r, i.Description, version)
	case TypeAsynchronousMessages:
		i.Variant, err = asyncMessageFromJSON(r, version)
	case TypeSynchronousMessages:
		i.Variant, err = syncMessagesFromJSON(r, i.Description)
	default:
		err = errors.Wrapf(ErrUnknownInteractionType, "interaction '%s' has type '%s'", i.Description, typeName)
	}
	if err != nil {
		return Interaction{}, err
	}
	return i, nil
}

// interactionType reads the V4 `type` discriminator, falling back to the shape of the
// interaction when it is absent.
func interactionType(r gjson.Result, version SpecVersion, defaultType string) string {
	if version >= V4 {
		if t := r.Get("type"); t.Exists() {
			return t.String()
		}
	}
	if defaultType != "" {
		return defaultType
	}
	switch {
	case r.Get("response").IsArray():
		return TypeSynchronousMessages
	case r.Get("request").Exists() || r.Get("response").Exists():
		return TypeSynchronousHTTP
	case r.Get("contents").Exists():
		return TypeAsynchronousMessages
	}
	return TypeSynchronousHTTP
}

// httpExchangeFromJSON decodes an HTTP interaction. V4 files must carry both parts; older
// versions fall back to the default request and response.
func httpExchangeFromJSON(r gjson.Result, description string, version SpecVersion) (HTTPExchange, error) {
	if version >= V4 {
		for _, part := range []string{"request", "response"} {
			if !r.Get(part).Exists() {
				return HTTPExchange{}, errors.Wrapf(ErrMissingRequiredField, "'%s' is missing the %s", description, part)
			}
		}
	}

	req, err := requestFromJSON(r.Get("request"), version)
	if err != nil {
		return HTTPExchange{}, err
	}
	resp, err := responseFromJSON(r.Get("response"), version)
	if err != nil {
		return HTTPExchange{}, err
	}
	return HTTPExchange{Request: req, Response: resp}, nil
}

func asyncMessageFromJSON(r gjson.Result, version SpecVersion) (AsyncMessage, error) {
	if version >= V4 {
		contents, err := messageContentsFromResult(r)
		if err != nil {
			return AsyncMessage{}, err
		}
		return AsyncMessage{Contents: contents}, nil
	}

	metadata := metadataFromJSON(r, "metadata", "metaData")
	return AsyncMessage{Contents: MessageContents{
		Body:          bodyFromLegacy(r.Get("contents"), MetadataToHeaders(metadata)),
		Metadata:      metadata,
		MatchingRules: rulesFromJSON(r.Get("matchingRules")),
		Generators:    generatorsFromJSON(r.Get("generators")),
	}}, nil
}

func syncMessagesFromJSON(r gjson.Result, description string) (SyncMessages, error) {
	request := r.Get("request")
	if !request.Exists() {
		return SyncMessages{}, errors.Wrapf(ErrMissingRequiredField, "'%s' is missing the request", description)
	}
	req, err := messageContentsFromResult(request)
	if err != nil {
		return SyncMessages{}, errors.Wrap(err, "Failed to parse SynchronousMessages request")
	}

	response := r.Get("response")
	if !response.Exists() {
		return SyncMessages{}, errors.Wrapf(ErrMissingRequiredField, "'%s' is missing the response", description)
	}
	if !response.IsArray() {
		return SyncMessages{}, errors.Wrapf(ErrMalformedJSON, "Expected the response of '%s' to be a JSON array, got '%s'", description, response.Raw)
	}

	var (
		responses []MessageContents
		errs      []error
	)
	response.ForEach(func(_, element gjson.Result) bool {
		contents, err := messageContentsFromResult(element)
		if err != nil {
			errs = append(errs, err)
			return true
		}
		responses = append(responses, contents)
		return true
	})
	if err := aggregate("Failed to parse SynchronousMessages responses", errs); err != nil {
		return SyncMessages{}, err
	}
	return SyncMessages{Request: req, Responses: responses}, nil
}

// ToJSON encodes the interaction for the given specification version. Key, comments and
// pending only exist from V4; messages need at least V3 and synchronous messages V4.
func (i Interaction) ToJSON(version SpecVersion) (map[string]interface{}, error) {
	out, err := i.toJSON(version)
	if err != nil {
		return nil, err
	}
	if version >= V4 && i.Key != nil {
		out["key"] = *i.Key
	}
	return out, nil
}

// toJSON writes everything but the key, which CalcKey hashes the output of.
func (i Interaction) toJSON(version SpecVersion) (map[string]interface{}, error) {
	if version == SpecUnknown {
		version = DefaultSpecVersion
	}
	out := map[string]interface{}{"description": i.Description}
	if i.ID != nil {
		out["_id"] = *i.ID
	}
	writeProviderStates(out, i.ProviderStates, version)
	if version >= V4 {
		out["type"] = i.TypeName()
		if i.Pending {
			out["pending"] = true
		}
		if len(i.Comments) > 0 {
			out["comments"] = copyMap(i.Comments)
		}
	}

	switch v := i.Variant.(type) {
	case HTTPExchange:
		out["request"] = v.Request.toJSON(version)
		out["response"] = v.Response.toJSON(version)
	case AsyncMessage:
		if version < V3 {
			return nil, errors.Wrapf(ErrUnsupportedSpecVersion, "'%s' is a message, which needs specification 3.0.0 or later", i.Description)
		}
		if version >= V4 {
			v.Contents.writeJSON(out)
			break
		}
		if contents := v.Contents.Body.toLegacy(MetadataToHeaders(v.Contents.Metadata)); contents != nil {
			out["contents"] = contents
		}
		if len(v.Contents.Metadata) > 0 {
			out["metadata"] = copyMap(v.Contents.Metadata)
		}
		if rules := v.Contents.MatchingRules.ToJSON(); rules != nil {
			out["matchingRules"] = rules
		}
		if gens := v.Contents.Generators.ToJSON(); gens != nil {
			out["generators"] = gens
		}
	case SyncMessages:
		if version < V4 {
			return nil, errors.Wrapf(ErrUnsupportedSpecVersion, "'%s' is a synchronous message, which needs specification 4.0.0", i.Description)
		}
		out["request"] = v.Request.ToJSON()
		responses := make([]interface{}, 0, len(v.Responses))
		for _, r := range v.Responses {
			responses = append(responses, r.ToJSON())
		}
		out["response"] = responses
	default:
		return nil, errors.Errorf("interaction '%s' has no variant", i.Description)
	}
	return out, nil
}

// writeProviderStates writes the V3+ list, or the single provider state name of V1 and V2.
func writeProviderStates(out map[string]interface{}, states []ProviderState, version SpecVersion) {
	if len(states) == 0 {
		return
	}
	if version >= V3 {
		out["providerStates"] = providerStatesToJSON(states)
		return
	}
	if len(states) > 1 {
		log.Warnf("specification %s supports a single provider state, only writing '%s'", version, states[0].Name)
	}
	out["providerState"] = states[0].Name
}
