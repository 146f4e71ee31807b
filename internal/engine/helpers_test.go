package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/questforge/questforge/internal/memory"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
	"github.com/stretchr/testify/require"
)

// eventRecorder captures notifier events for assertions.
type eventRecorder struct {
	mu       sync.Mutex
	levelUps []types.LevelUpEvent
	resolved []types.MissionResolvedEvent
}

func (r *eventRecorder) LevelUp(ev types.LevelUpEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelUps = append(r.levelUps, ev)
}

func (r *eventRecorder) MissionResolved(ev types.MissionResolvedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, ev)
}

func (r *eventRecorder) LevelUps() []types.LevelUpEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.LevelUpEvent(nil), r.levelUps...)
}

func (r *eventRecorder) Resolved() []types.MissionResolvedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.MissionResolvedEvent(nil), r.resolved...)
}

// newTestService builds a service over an ephemeral store. Pass nil effects
// for the neutral provider.
func newTestService(t *testing.T, effects types.EffectProvider) (*Service, *eventRecorder) {
	t.Helper()
	store, err := memory.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	rec := &eventRecorder{}
	return NewService(store, rec, effects), rec
}

// mustCreateTask creates an active one-off task for tests.
func mustCreateTask(t *testing.T, svc *Service, owner string, d models.Difficulty, i models.Importance) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(CreateTaskParams{
		OwnerID:    owner,
		Title:      "test task",
		Difficulty: d,
		Importance: i,
	})
	require.NoError(t, err)
	return task
}

// mustCreateMission creates an active mission with the given leader and a
// window containing now.
func mustCreateMission(t *testing.T, svc *Service, leader string, health int) *models.AllianceMission {
	t.Helper()
	now := time.Now().UTC()
	m, err := svc.CreateMission(CreateMissionParams{
		Title:    "slay the backlog",
		BossName: "Procrastinatus",
		Health:   health,
		StartAt:  now.Add(-time.Hour),
		EndAt:    now.AddDate(0, 0, 7),
		LeaderID: leader,
	})
	require.NoError(t, err)
	return m
}
