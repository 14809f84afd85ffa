package api

import (
	"sort"
	"sync"

	"github.com/form3tech-oss/pact-core/pkg/models"
)

// Interactions is the registry of loaded interactions. Every interaction is reachable by
// its key and by its description; a later interaction with the same description
// replaces the earlier one for description lookups.
type Interactions struct {
	interactions sync.Map
	notify       *notify
}

func NewInteractions() *Interactions {
	return &Interactions{notify: newNotify()}
}

// Store keys the interaction if needed, registers it and wakes every waiter.
func (i *Interactions) Store(interaction models.Interaction) models.Interaction {
	interaction = interaction.WithKey()
	i.interactions.Store(*interaction.Key, interaction)
	if interaction.Description != "" {
		i.interactions.Store(interaction.Description, interaction)
	}
	i.notify.Notify()
	return interaction
}

func (i *Interactions) Load(keyOrDescription string) (models.Interaction, bool) {
	result, ok := i.interactions.Load(keyOrDescription)
	if !ok {
		return models.Interaction{}, false
	}
	return result.(models.Interaction).Clone(), true
}

func (i *Interactions) Clear() {
	i.interactions.Range(func(k, _ interface{}) bool {
		i.interactions.Delete(k)
		return true
	})
	i.notify.Notify()
}

// All returns every registered interaction once, ordered by description then key.
func (i *Interactions) All() []models.Interaction {
	byKey := make(map[string]models.Interaction)
	i.interactions.Range(func(_, v interface{}) bool {
		interaction := v.(models.Interaction)
		byKey[*interaction.Key] = interaction
		return true
	})

	result := make([]models.Interaction, 0, len(byKey))
	for _, interaction := range byKey {
		result = append(result, interaction.Clone())
	}
	sort.Slice(result, func(a, b int) bool {
		if result[a].Description != result[b].Description {
			return result[a].Description < result[b].Description
		}
		return *result[a].Key < *result[b].Key
	})
	return result
}
