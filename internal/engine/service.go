// Package engine implements the QuestForge task and progression engine: the
// task lifecycle state machine, the reward economy and leveling curve, streak
// and daily-statistics aggregation, recurring-task expansion, and the alliance
// boss-mission contribution model.
package engine

import (
	"github.com/questforge/questforge/internal/memory"
	"github.com/questforge/questforge/types"
)

// Service encapsulates all engine business logic. Collaborators (persistence,
// notification, equipment effects) are injected; there are no package-level
// singletons.
type Service struct {
	store    *memory.Store
	notifier types.Notifier
	effects  types.EffectProvider

	users    *keyedMutex // serializes per-user ledger/stats mutation
	missions *keyedMutex // guards the shared boss-health critical section
}

// NewService creates an engine service. A nil notifier or effects provider
// falls back to the no-op implementations.
func NewService(store *memory.Store, notifier types.Notifier, effects types.EffectProvider) *Service {
	if notifier == nil {
		notifier = types.NopNotifier{}
	}
	if effects == nil {
		effects = types.NoEffects
	}
	return &Service{
		store:    store,
		notifier: notifier,
		effects:  effects,
		users:    newKeyedMutex(),
		missions: newKeyedMutex(),
	}
}

// Store exposes the underlying store for the sync collaborator's
// mark-synced/list-unsynced surface.
func (s *Service) Store() *memory.Store { return s.store }
