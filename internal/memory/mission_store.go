package memory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

// CreateMission inserts a mission row.
func (s *Store) CreateMission(m *models.AllianceMission) error {
	_, err := s.h.Exec(`
		INSERT INTO missions (id, title, boss_name, max_health, boss_health, status, start_at, end_at, created_at, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Title, m.BossName, m.MaxHealth, m.BossHealth, string(m.Status),
		timeString(m.StartAt), timeString(m.EndAt), timeString(m.CreatedAt), timeString(m.UpdatedAt), boolToInt(m.Synced))
	if err != nil {
		return fmt.Errorf("insert mission %s: %w", m.ID, err)
	}
	return nil
}

// GetMission retrieves a mission by id.
func (s *Store) GetMission(id string) (*models.AllianceMission, error) {
	row := s.h.QueryRow(`
		SELECT id, title, boss_name, max_health, boss_health, status, start_at, end_at, created_at, updated_at, synced
		FROM missions WHERE id = ?
	`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, types.NewEngineError(types.CodeNotFound, fmt.Sprintf("mission %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get mission %s: %w", id, err)
	}
	return m, nil
}

// ListActiveMissionsForUser returns active missions whose window contains at
// and in which the user participates.
func (s *Store) ListActiveMissionsForUser(userID string, at time.Time) ([]models.AllianceMission, error) {
	rows, err := s.h.Query(`
		SELECT m.id, m.title, m.boss_name, m.max_health, m.boss_health, m.status, m.start_at, m.end_at, m.created_at, m.updated_at, m.synced
		FROM missions m
		JOIN mission_members mm ON mm.mission_id = m.id
		WHERE mm.user_id = ? AND m.status = 'active' AND m.start_at <= ? AND m.end_at > ?
		ORDER BY m.start_at ASC
	`, userID, timeString(at), timeString(at))
	if err != nil {
		return nil, fmt.Errorf("list active missions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AllianceMission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mission rows: %w", err)
	}
	return out, nil
}

// ListActiveMissionsPastEnd returns active missions whose window has elapsed.
func (s *Store) ListActiveMissionsPastEnd(now time.Time) ([]models.AllianceMission, error) {
	rows, err := s.h.Query(`
		SELECT id, title, boss_name, max_health, boss_health, status, start_at, end_at, created_at, updated_at, synced
		FROM missions WHERE status = 'active' AND end_at <= ?
	`, timeString(now))
	if err != nil {
		return nil, fmt.Errorf("list expired missions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AllianceMission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mission rows: %w", err)
	}
	return out, nil
}

// SetMissionStatus transitions a mission's status with a guard on the current
// status, mirroring UpdateTaskStatus.
func (s *Store) SetMissionStatus(id string, from, to models.MissionStatus, at time.Time) (bool, error) {
	res, err := s.h.Exec(`
		UPDATE missions SET status = ?, updated_at = ?, synced = 0
		WHERE id = ? AND status = ?
	`, string(to), timeString(at), id, string(from))
	if err != nil {
		return false, fmt.Errorf("set mission status %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mission status rows affected: %w", err)
	}
	return n > 0, nil
}

// CasBossHealth writes newHealth only when the row still holds oldHealth.
// Returns false on a lost race; callers re-read and retry.
func (s *Store) CasBossHealth(id string, oldHealth, newHealth int, at time.Time) (bool, error) {
	res, err := s.h.Exec(`
		UPDATE missions SET boss_health = ?, updated_at = ?, synced = 0
		WHERE id = ? AND boss_health = ?
	`, newHealth, timeString(at), id, oldHealth)
	if err != nil {
		return false, fmt.Errorf("cas boss health %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("boss health rows affected: %w", err)
	}
	return n > 0, nil
}

// AddMember enrolls a user in a mission. noFailedTasks starts true.
func (s *Store) AddMember(m *models.MissionMember) error {
	_, err := s.h.Exec(`
		INSERT INTO mission_members (mission_id, user_id, role, damage_dealt, store_visits, attacks,
			easy_completions, hard_completions, chat_days, no_failed_tasks, joined_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.MissionID, m.UserID, string(m.Role), m.DamageDealt, m.StoreVisits, m.Attacks,
		m.EasyCompletions, m.HardCompletions, m.ChatDays, boolToInt(m.NoFailedTasks),
		timeString(m.JoinedAt), boolToInt(m.Synced))
	if err != nil {
		return fmt.Errorf("insert mission member %s/%s: %w", m.MissionID, m.UserID, err)
	}
	return nil
}

// GetMember retrieves one member record.
func (s *Store) GetMember(missionID, userID string) (*models.MissionMember, error) {
	row := s.h.QueryRow(`
		SELECT mission_id, user_id, role, damage_dealt, store_visits, attacks,
			easy_completions, hard_completions, chat_days, no_failed_tasks, joined_at, synced
		FROM mission_members WHERE mission_id = ? AND user_id = ?
	`, missionID, userID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, types.NewEngineError(types.CodeNotFound,
			fmt.Sprintf("user %s is not a member of mission %s", userID, missionID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get mission member: %w", err)
	}
	return m, nil
}

// ListMembers returns all member records for a mission.
func (s *Store) ListMembers(missionID string) ([]models.MissionMember, error) {
	rows, err := s.h.Query(`
		SELECT mission_id, user_id, role, damage_dealt, store_visits, attacks,
			easy_completions, hard_completions, chat_days, no_failed_tasks, joined_at, synced
		FROM mission_members WHERE mission_id = ? ORDER BY joined_at ASC
	`, missionID)
	if err != nil {
		return nil, fmt.Errorf("list mission members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.MissionMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission member: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("member rows: %w", err)
	}
	return out, nil
}

// ApplyMemberContribution increments a member's own counters. Counters are
// single-writer per member, so plain increments suffice.
func (s *Store) ApplyMemberContribution(missionID, userID string, damage, attacks, easy, hard int) error {
	res, err := s.h.Exec(`
		UPDATE mission_members SET
			damage_dealt = damage_dealt + ?,
			attacks = attacks + ?,
			easy_completions = easy_completions + ?,
			hard_completions = hard_completions + ?,
			synced = 0
		WHERE mission_id = ? AND user_id = ?
	`, damage, attacks, easy, hard, missionID, userID)
	if err != nil {
		return fmt.Errorf("apply member contribution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewEngineError(types.CodeNotFound,
			fmt.Sprintf("user %s is not a member of mission %s", userID, missionID), nil)
	}
	return nil
}

// IncrementStoreVisits bumps a member's store-visit counter.
func (s *Store) IncrementStoreVisits(missionID, userID string) error {
	_, err := s.h.Exec(`
		UPDATE mission_members SET store_visits = store_visits + 1, synced = 0
		WHERE mission_id = ? AND user_id = ?
	`, missionID, userID)
	if err != nil {
		return fmt.Errorf("increment store visits: %w", err)
	}
	return nil
}

// ClearNoFailedTasks permanently clears the member's clean-record flag.
func (s *Store) ClearNoFailedTasks(missionID, userID string) error {
	_, err := s.h.Exec(`
		UPDATE mission_members SET no_failed_tasks = 0, synced = 0
		WHERE mission_id = ? AND user_id = ?
	`, missionID, userID)
	if err != nil {
		return fmt.Errorf("clear no_failed_tasks: %w", err)
	}
	return nil
}

// IncrementAttackDay bumps the member's attack tally for the day by n and
// returns the tally before the bump, which decides the diminishing cutoff.
func (s *Store) IncrementAttackDay(missionID, userID, day string, n int) (int, error) {
	row := s.h.QueryRow(`
		SELECT attacks FROM mission_attack_days
		WHERE mission_id = ? AND user_id = ? AND day = ?
	`, missionID, userID, day)
	var before int
	if err := row.Scan(&before); err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("read attack day: %w", err)
	}
	_, err := s.h.Exec(`
		INSERT INTO mission_attack_days (mission_id, user_id, day, attacks)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mission_id, user_id, day) DO UPDATE SET attacks = attacks + excluded.attacks
	`, missionID, userID, day, n)
	if err != nil {
		return 0, fmt.Errorf("increment attack day: %w", err)
	}
	return before, nil
}

// RecordChatDay registers a chat message on the given day, bumping the
// distinct-day counter only the first time that day is seen.
func (s *Store) RecordChatDay(missionID, userID, day string) (bool, error) {
	res, err := s.h.Exec(`
		INSERT OR IGNORE INTO mission_chat_days (mission_id, user_id, day) VALUES (?, ?, ?)
	`, missionID, userID, day)
	if err != nil {
		return false, fmt.Errorf("record chat day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("chat day rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if _, err := s.h.Exec(`
		UPDATE mission_members SET chat_days = chat_days + 1, synced = 0
		WHERE mission_id = ? AND user_id = ?
	`, missionID, userID); err != nil {
		return false, fmt.Errorf("increment chat days: %w", err)
	}
	return true, nil
}

func scanMission(row rowScanner) (*models.AllianceMission, error) {
	var (
		m         models.AllianceMission
		status    string
		startAt   string
		endAt     string
		createdAt string
		updatedAt string
		synced    int
	)
	if err := row.Scan(&m.ID, &m.Title, &m.BossName, &m.MaxHealth, &m.BossHealth,
		&status, &startAt, &endAt, &createdAt, &updatedAt, &synced); err != nil {
		return nil, err
	}
	m.Status = models.MissionStatus(status)
	m.Synced = synced != 0
	var err error
	if m.StartAt, err = parseTime(startAt); err != nil {
		return nil, fmt.Errorf("parse start_at: %w", err)
	}
	if m.EndAt, err = parseTime(endAt); err != nil {
		return nil, fmt.Errorf("parse end_at: %w", err)
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &m, nil
}

func scanMember(row rowScanner) (*models.MissionMember, error) {
	var (
		m        models.MissionMember
		role     string
		noFailed int
		joinedAt string
		synced   int
	)
	if err := row.Scan(&m.MissionID, &m.UserID, &role, &m.DamageDealt, &m.StoreVisits, &m.Attacks,
		&m.EasyCompletions, &m.HardCompletions, &m.ChatDays, &noFailed, &joinedAt, &synced); err != nil {
		return nil, err
	}
	m.Role = models.MissionRole(role)
	m.NoFailedTasks = noFailed != 0
	m.Synced = synced != 0
	var err error
	if m.JoinedAt, err = parseTime(joinedAt); err != nil {
		return nil, fmt.Errorf("parse joined_at: %w", err)
	}
	return &m, nil
}
