package models

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// CoreVersion is written to the metadata of every contract file this package emits.
const CoreVersion = "0.1.0"

type Pacticipant struct {
	Name string
}

// Pact is a contract file: the interactions a consumer expects from a provider.
type Pact struct {
	Consumer     Pacticipant
	Provider     Pacticipant
	Interactions []Interaction
	Metadata     map[string]interface{}
	// SpecVersion is the version the file was read as.
	SpecVersion SpecVersion
}

// LoadPact decodes a contract file of any specification version. Interactions that fail to
// decode do not stop the others: all failures are returned as one AggregateDecodeError
// together with the interactions that did decode.
func LoadPact(data []byte) (Pact, error) {
	if !gjson.ValidBytes(data) {
		return Pact{}, errors.Wrap(ErrMalformedJSON, "pact file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Pact{}, errors.Wrapf(ErrMalformedJSON, "Expected a JSON object for the pact file, got '%s'", truncate(root.Raw))
	}

	version := detectSpecVersion(root)
	pact := Pact{
		Consumer:    Pacticipant{Name: root.Get("consumer.name").String()},
		Provider:    Pacticipant{Name: root.Get("provider.name").String()},
		Metadata:    jsonObject(root.Get("metadata")),
		SpecVersion: version,
	}
	log.Debugf("loading pact between %s and %s as specification %s", pact.Consumer.Name, pact.Provider.Name, version)

	var errs []error
	index := 0
	for _, section := range []struct {
		key         string
		defaultType string
	}{
		{key: "interactions", defaultType: TypeSynchronousHTTP},
		{key: "messages", defaultType: TypeAsynchronousMessages},
	} {
		list := root.Get(section.key)
		if !list.Exists() {
			continue
		}
		if !list.IsArray() {
			errs = append(errs, errors.Wrapf(ErrMalformedJSON, "Expected %s to be a JSON array, got '%s'", section.key, truncate(list.Raw)))
			continue
		}
		defaultType := section.defaultType
		if version >= V4 {
			defaultType = ""
		}
		list.ForEach(func(_, value gjson.Result) bool {
			interaction, err := interactionFromResult(value, index, version, defaultType)
			index++
			if err != nil {
				errs = append(errs, err)
				return true
			}
			if version >= V4 {
				interaction = interaction.WithKey()
			}
			pact.Interactions = append(pact.Interactions, interaction)
			return true
		})
	}

	return pact, aggregate("Failed to load pact", errs)
}

// Interaction finds an interaction by key, falling back to its description.
func (p Pact) Interaction(keyOrDescription string) (Interaction, bool) {
	for _, i := range p.Interactions {
		if i.Key != nil && *i.Key == keyOrDescription {
			return i.Clone(), true
		}
	}
	for _, i := range p.Interactions {
		if i.Description == keyOrDescription {
			return i.Clone(), true
		}
	}
	return Interaction{}, false
}

// ToJSON encodes the contract file for the given specification version; SpecUnknown
// keeps the version the file was loaded as. V4 files carry every interaction in one
// `interactions` array. Older versions split messages into `messages`.
func (p Pact) ToJSON(version SpecVersion) ([]byte, error) {
	if version == SpecUnknown {
		version = p.SpecVersion
	}
	if version == SpecUnknown {
		version = DefaultSpecVersion
	}

	out := map[string]interface{}{
		"consumer": map[string]interface{}{"name": p.Consumer.Name},
		"provider": map[string]interface{}{"name": p.Provider.Name},
		"metadata": p.metadataJSON(version),
	}

	interactions := []interface{}{}
	var messages []interface{}
	for _, i := range p.Interactions {
		if version >= V4 {
			i = i.WithKey()
		}
		encoded, err := i.ToJSON(version)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode pact")
		}
		if version < V4 && i.IsMessage() {
			messages = append(messages, encoded)
			continue
		}
		interactions = append(interactions, encoded)
	}
	if len(interactions) > 0 || len(messages) == 0 {
		out["interactions"] = interactions
	}
	if len(messages) > 0 {
		out["messages"] = messages
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode pact")
	}
	return data, nil
}

func (p Pact) metadataJSON(version SpecVersion) map[string]interface{} {
	metadata := copyMap(p.Metadata)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	delete(metadata, "pact-specification")
	delete(metadata, "pactSpecificationVersion")
	metadata["pactSpecification"] = map[string]interface{}{"version": version.String()}
	metadata["pactCore"] = map[string]interface{}{"version": CoreVersion}
	return metadata
}

// truncate shortens raw to at most 50 bytes without splitting a UTF-8 sequence.
func truncate(raw string) string {
	if len(raw) <= 50 {
		return raw
	}
	end := 50
	for end > 0 && !utf8.RuneStart(raw[end]) {
		end--
	}
	return raw[:end] + "..."
}
