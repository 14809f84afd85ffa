package models

import (
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ProviderState is a named precondition the provider establishes before an interaction
// is replayed.
type ProviderState struct {
	Name   string
	Params map[string]interface{}
}

func NewProviderState(name string, params map[string]interface{}) ProviderState {
	return ProviderState{Name: name, Params: copyMap(params)}
}

func (p ProviderState) Clone() ProviderState {
	return ProviderState{Name: p.Name, Params: copyMap(p.Params)}
}

func (p ProviderState) toJSON() map[string]interface{} {
	out := map[string]interface{}{"name": p.Name}
	if len(p.Params) > 0 {
		out["params"] = copyMap(p.Params)
	}
	return out
}

// providerStatesFromJSON reads `providerStates` (V3/V4 list), `provider_states`, or the
// single `providerState`/`provider_state` name used by V1 and V2.
func providerStatesFromJSON(r gjson.Result) []ProviderState {
	for _, key := range []string{"providerStates", "provider_states"} {
		list := r.Get(key)
		if !list.Exists() {
			continue
		}
		if !list.IsArray() {
			log.Warnf("%s must be a JSON array, but received %s. Ignoring", key, list.Raw)
			return nil
		}
		var states []ProviderState
		list.ForEach(func(_, state gjson.Result) bool {
			switch {
			case state.IsObject():
				states = append(states, ProviderState{
					Name:   stringValue(state.Get("name")),
					Params: jsonObject(state.Get("params")),
				})
			case state.Type == gjson.String:
				states = append(states, ProviderState{Name: state.String()})
			default:
				log.Warnf("ignoring provider state %s, it must be a JSON object", state.Raw)
			}
			return true
		})
		return states
	}

	for _, key := range []string{"providerState", "provider_state"} {
		if name := r.Get(key); name.Exists() && name.Type != gjson.Null {
			return []ProviderState{{Name: stringValue(name)}}
		}
	}
	return nil
}

func providerStatesToJSON(states []ProviderState) []interface{} {
	out := make([]interface{}, 0, len(states))
	for _, s := range states {
		out = append(out, s.toJSON())
	}
	return out
}

func cloneProviderStates(states []ProviderState) []ProviderState {
	if states == nil {
		return nil
	}
	out := make([]ProviderState, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}
