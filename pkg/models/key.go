package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"
)

// WithKey returns a copy of the interaction carrying its identity key. An existing key is
// kept as is; use Rekey to replace it.
func (i Interaction) WithKey() Interaction {
	out := i.Clone()
	if out.Key == nil {
		key := i.CalcKey()
		out.Key = &key
	}
	return out
}

// Rekey returns a copy of the interaction with a freshly calculated key.
func (i Interaction) Rekey() Interaction {
	out := i.Clone()
	key := i.CalcKey()
	out.Key = &key
	return out
}

// CalcKey hashes the canonical form of the interaction. The id, key and comments are not
// part of it. Every object, including JSON bodies, is written with sorted keys, so the key
// depends neither on map iteration order nor on the key order of the source document.
func (i Interaction) CalcKey() string {
	return fmt.Sprintf("%016x", xxhash.Sum64(i.canonical()))
}

func (i Interaction) canonical() []byte {
	projection, err := i.toJSON(V4)
	if err != nil {
		log.Warnf("unable to build the canonical form of '%s': %v", i.Description, err)
		projection = map[string]interface{}{"description": i.Description}
	}
	delete(projection, "_id")
	delete(projection, "comments")

	data, err := json.Marshal(projection)
	if err != nil {
		log.Warnf("unable to encode the canonical form of '%s': %v", i.Description, err)
		return data
	}

	// decoding and encoding again sorts the keys of raw JSON bodies too
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var sorted interface{}
	if err := dec.Decode(&sorted); err != nil {
		return data
	}
	canonical, err := json.Marshal(sorted)
	if err != nil {
		return data
	}
	return canonical
}

// Equal reports whether two interactions have the same canonical form, which ignores the
// id, key and comments.
func (i Interaction) Equal(other Interaction) bool {
	return bytes.Equal(i.canonical(), other.canonical())
}
