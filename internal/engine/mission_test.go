package engine

import (
	"testing"
	"time"

	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMission_EnrollsLeader(t *testing.T) {
	svc, _ := newTestService(t, nil)

	m := mustCreateMission(t, svc, "alice", 500)
	assert.Equal(t, models.MissionActive, m.Status)
	assert.Equal(t, 500, m.BossHealth)
	assert.Equal(t, 500, m.MaxHealth)

	got, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	require.Len(t, members, 1)
	assert.Equal(t, "alice", members[0].UserID)
	assert.Equal(t, models.RoleLeader, members[0].Role)
	assert.True(t, members[0].NoFailedTasks)
}

func TestJoinMission(t *testing.T) {
	svc, _ := newTestService(t, nil)
	m := mustCreateMission(t, svc, "alice", 500)

	require.NoError(t, svc.JoinMission(m.ID, "bob", models.RoleMember))

	_, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// Unknown mission.
	err = svc.JoinMission("b7f9c1ae-0000-4000-8000-000000000000", "carol", models.RoleMember)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CodeNotFound))
}

func TestRecordContribution_DamagesBoss(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Now().UTC()
	m := mustCreateMission(t, svc, "alice", 100)

	res, err := svc.RecordContribution(m.ID, "alice", models.DifficultyEasy, models.ImportanceNormal, now)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Damage)
	assert.Equal(t, 90, res.BossHealth)
	assert.False(t, res.Resolved)

	_, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 10, members[0].DamageDealt)
	assert.Equal(t, 1, members[0].Attacks)
	assert.Equal(t, 1, members[0].EasyCompletions)
	assert.Equal(t, 0, members[0].HardCompletions)
}

func TestRecordContribution_NonMemberRejected(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Now().UTC()
	m := mustCreateMission(t, svc, "alice", 100)

	_, err := svc.RecordContribution(m.ID, "mallory", models.DifficultyEasy, models.ImportanceNormal, now)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CodeNotFound))
}

func TestRecordContribution_DefeatResolvesOnce(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()
	m := mustCreateMission(t, svc, "alice", 30)

	// 40 damage against 30 health floors at zero and resolves the mission.
	res, err := svc.RecordContribution(m.ID, "alice", models.DifficultyVeryHard, models.ImportanceNormal, now)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Damage)
	assert.Equal(t, 0, res.BossHealth)
	assert.True(t, res.Resolved)

	got, _, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionResolved, got.Status)
	assert.Equal(t, 0, got.BossHealth)

	events := rec.Resolved()
	require.Len(t, events, 1)
	assert.Equal(t, m.ID, events[0].MissionID)
	assert.Equal(t, types.MissionOutcomeBossDefeated, events[0].Outcome)
}

func TestRecordContribution_AfterResolveCountsPersonalOnly(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()
	m := mustCreateMission(t, svc, "alice", 30)

	_, err := svc.RecordContribution(m.ID, "alice", models.DifficultyVeryHard, models.ImportanceNormal, now)
	require.NoError(t, err)

	res, err := svc.RecordContribution(m.ID, "alice", models.DifficultyHard, models.ImportanceNormal, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.BossHealth)
	assert.False(t, res.Resolved)

	got, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionResolved, got.Status)
	assert.Equal(t, 0, got.BossHealth, "a resolved boss takes no further damage")
	assert.Equal(t, 2, members[0].Attacks, "personal counters keep accruing")
	assert.Len(t, rec.Resolved(), 1, "no second resolution event")
}

func TestRecordContribution_EffectMultipliers(t *testing.T) {
	svc, _ := newTestService(t, types.StaticEffects{M: types.Multipliers{Attack: 2.0, PP: 1.0, ExtraAttack: true}})
	now := time.Now().UTC()
	m := mustCreateMission(t, svc, "alice", 100)

	res, err := svc.RecordContribution(m.ID, "alice", models.DifficultyEasy, models.ImportanceNormal, now)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Damage, "attack multiplier doubles the base damage")

	_, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, members[0].Attacks, "extra-attack effect credits two attacks")
}

func TestComplete_FeedsActiveMissions(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Now().UTC()

	m := mustCreateMission(t, svc, "alice", 100)
	task := mustCreateTask(t, svc, "alice", models.DifficultyHard, models.ImportanceNormal)

	_, err := svc.Complete(task.ID, now)
	require.NoError(t, err)

	got, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.BossHealth)
	assert.Equal(t, 20, members[0].DamageDealt)
	assert.Equal(t, 1, members[0].HardCompletions)
}

func TestRecordChatMessage_CountsDistinctDays(t *testing.T) {
	svc, _ := newTestService(t, nil)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	m := mustCreateMission(t, svc, "alice", 100)

	first, err := svc.RecordChatMessage(m.ID, "alice", now)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := svc.RecordChatMessage(m.ID, "alice", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, again, "a second message on the same day does not count")

	nextDay, err := svc.RecordChatMessage(m.ID, "alice", now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, nextDay)

	_, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, members[0].ChatDays)
}

func TestRecordStoreVisit(t *testing.T) {
	svc, _ := newTestService(t, nil)
	m := mustCreateMission(t, svc, "alice", 100)

	require.NoError(t, svc.RecordStoreVisit(m.ID, "alice"))
	require.NoError(t, svc.RecordStoreVisit(m.ID, "alice"))

	_, members, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, members[0].StoreVisits)
}

func TestExpireMissions(t *testing.T) {
	svc, rec := newTestService(t, nil)
	now := time.Now().UTC()

	m, err := svc.CreateMission(CreateMissionParams{
		Title:    "short window",
		BossName: "Procrastinatus",
		Health:   100,
		StartAt:  now.AddDate(0, 0, -8),
		EndAt:    now.Add(-time.Hour),
		LeaderID: "alice",
	})
	require.NoError(t, err)
	ongoing := mustCreateMission(t, svc, "bob", 100)

	n, err := svc.ExpireMissions(now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, err := svc.Mission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionExpired, got.Status)

	got, _, err = svc.Mission(ongoing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MissionActive, got.Status)

	events := rec.Resolved()
	require.Len(t, events, 1)
	assert.Equal(t, types.MissionOutcomeExpired, events[0].Outcome)

	// Idempotent.
	n, err = svc.ExpireMissions(now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, rec.Resolved(), 1)
}
