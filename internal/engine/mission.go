package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/questforge/questforge/internal/config"
	"github.com/questforge/questforge/internal/memory"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

// CreateMissionParams carries the fields of a new alliance mission.
type CreateMissionParams struct {
	Title    string
	BossName string
	Health   int
	StartAt  time.Time
	EndAt    time.Time
	LeaderID string
}

// CreateMission creates an active mission with the leader enrolled.
func (s *Service) CreateMission(p CreateMissionParams) (*models.AllianceMission, error) {
	now := time.Now().UTC()
	m := &models.AllianceMission{
		ID:         uuid.New().String(),
		Title:      p.Title,
		BossName:   p.BossName,
		MaxHealth:  p.Health,
		BossHealth: p.Health,
		Status:     models.MissionActive,
		StartAt:    p.StartAt,
		EndAt:      p.EndAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := models.ValidateStruct(m); err != nil {
		return nil, fmt.Errorf("validate mission: %w", err)
	}
	if err := s.store.CreateMission(m); err != nil {
		return nil, err
	}
	if err := s.JoinMission(m.ID, p.LeaderID, models.RoleLeader); err != nil {
		return nil, err
	}
	slog.Info("mission created", "mission", m.ID, "boss", m.BossName, "health", m.MaxHealth)
	return m, nil
}

// JoinMission enrolls a user. The clean-record flag starts true and is only
// ever cleared.
func (s *Service) JoinMission(missionID, userID string, role models.MissionRole) error {
	if _, err := s.store.GetMission(missionID); err != nil {
		return err
	}
	member := &models.MissionMember{
		MissionID:     missionID,
		UserID:        userID,
		Role:          role,
		NoFailedTasks: true,
		JoinedAt:      time.Now().UTC(),
	}
	if err := models.ValidateStruct(member); err != nil {
		return fmt.Errorf("validate member: %w", err)
	}
	return s.store.AddMember(member)
}

// ContributionResult reports the effect of one qualifying contribution.
type ContributionResult struct {
	Damage     int
	BossHealth int
	Resolved   bool // true when this contribution defeated the boss
}

// RecordContribution converts a qualifying task completion into boss damage
// for the given mission. Member counters always update; the shared health
// pool only while the mission is active. All writes land in one transaction.
func (s *Service) RecordContribution(missionID, userID string, difficulty models.Difficulty, importance models.Importance, at time.Time) (*ContributionResult, error) {
	if _, err := s.store.GetMember(missionID, userID); err != nil {
		return nil, err
	}

	unlock := s.missions.lock(missionID)
	defer unlock()

	var res *ContributionResult
	err := s.store.InTx(func(tx *memory.Store) error {
		var err error
		res, err = s.contributeLocked(tx, missionID, userID, difficulty, importance, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.Resolved {
		s.notifier.MissionResolved(types.MissionResolvedEvent{
			MissionID: missionID,
			Outcome:   types.MissionOutcomeBossDefeated,
		})
		slog.Info("mission resolved", "mission", missionID, "lastHitBy", userID)
	}
	return res, nil
}

// contributeLocked applies one contribution against the given store view.
// The caller holds the mission lock and, on the completion path, an open
// transaction; events for a resolved mission are emitted by the caller after
// commit.
func (s *Service) contributeLocked(tx *memory.Store, missionID, userID string, difficulty models.Difficulty, importance models.Importance, at time.Time) (*ContributionResult, error) {
	mult := s.effects.MultipliersFor(userID)
	attackMult := mult.Attack
	if attackMult <= 0 {
		attackMult = 1.0
	}
	attackCredit := 1
	if mult.ExtraAttack {
		attackCredit = 2
	}

	day := models.DayKey(at)
	attacksToday, err := tx.IncrementAttackDay(missionID, userID, day, attackCredit)
	if err != nil {
		return nil, err
	}
	damage := missionDamage(difficulty, importance, attackMult, attacksToday)

	easy, hard := 0, 1
	if models.IsEasy(difficulty) {
		easy, hard = 1, 0
	}
	if err := tx.ApplyMemberContribution(missionID, userID, damage, attackCredit, easy, hard); err != nil {
		return nil, err
	}

	res := &ContributionResult{Damage: damage}

	// Shared boss health is the only cross-member point of contention; the
	// CAS additionally guards against writers outside this process.
	for attempt := 0; ; attempt++ {
		m, err := tx.GetMission(missionID)
		if err != nil {
			return nil, err
		}
		res.BossHealth = m.BossHealth
		if m.Status != models.MissionActive || m.BossHealth == 0 {
			// Resolved or expired: contribution counts for personal stats only.
			return res, nil
		}

		newHealth := m.BossHealth - damage
		if newHealth < 0 {
			newHealth = 0
		}
		ok, err := tx.CasBossHealth(missionID, m.BossHealth, newHealth, at)
		if err != nil {
			return nil, err
		}
		if !ok {
			if attempt+1 >= config.BossHealthRetries {
				return nil, types.NewEngineError(types.CodeConflict,
					fmt.Sprintf("boss health update for mission %s kept losing the race", missionID), nil)
			}
			continue
		}

		res.BossHealth = newHealth
		if newHealth == 0 {
			changed, err := tx.SetMissionStatus(missionID, models.MissionActive, models.MissionResolved, at)
			if err != nil {
				return nil, err
			}
			res.Resolved = changed
		}
		return res, nil
	}
}

// RecordStoreVisit credits an in-app shop visit toward the member's bonus.
func (s *Service) RecordStoreVisit(missionID, userID string) error {
	if _, err := s.store.GetMember(missionID, userID); err != nil {
		return err
	}
	return s.store.IncrementStoreVisits(missionID, userID)
}

// RecordChatMessage credits a chat message; only the first message of a
// calendar day extends the member's distinct-day count.
func (s *Service) RecordChatMessage(missionID, userID string, at time.Time) (bool, error) {
	if _, err := s.store.GetMember(missionID, userID); err != nil {
		return false, err
	}
	return s.store.RecordChatDay(missionID, userID, models.DayKey(at))
}

// ExpireMissions marks active missions whose window elapsed as expired and
// emits one resolution event per mission. Idempotent via the status guard.
func (s *Service) ExpireMissions(now time.Time) (int, error) {
	past, err := s.store.ListActiveMissionsPastEnd(now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, m := range past {
		changed, err := s.store.SetMissionStatus(m.ID, models.MissionActive, models.MissionExpired, now)
		if err != nil {
			slog.Warn("expire mission", "mission", m.ID, "error", err)
			continue
		}
		if changed {
			expired++
			s.notifier.MissionResolved(types.MissionResolvedEvent{
				MissionID: m.ID,
				Outcome:   types.MissionOutcomeExpired,
			})
		}
	}
	return expired, nil
}

// Mission returns a mission with its member records.
func (s *Service) Mission(missionID string) (*models.AllianceMission, []models.MissionMember, error) {
	m, err := s.store.GetMission(missionID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.store.ListMembers(missionID)
	if err != nil {
		return nil, nil, err
	}
	return m, members, nil
}
