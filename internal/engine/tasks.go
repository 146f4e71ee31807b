package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/questforge/questforge/internal/config"
	"github.com/questforge/questforge/internal/memory"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

// CreateTaskParams carries the caller-supplied fields of a new task.
type CreateTaskParams struct {
	OwnerID     string
	Title       string
	Description string
	Category    string
	Difficulty  models.Difficulty
	Importance  models.Importance
	DueAt       *time.Time
	Recurrence  *models.Recurrence
}

// CreateTask validates and persists a new active task. A task with a
// recurrence descriptor is a master template; its timed instances are
// materialized by the expander, never completed directly.
func (s *Service) CreateTask(p CreateTaskParams) (*models.Task, error) {
	now := time.Now().UTC()
	t := &models.Task{
		ID:          uuid.New().String(),
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		Difficulty:  p.Difficulty,
		Importance:  p.Importance,
		Status:      models.StatusActive,
		DueAt:       p.DueAt,
		Recurrence:  p.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := models.ValidateStruct(t); err != nil {
		return nil, fmt.Errorf("validate task: %w", err)
	}
	if err := s.store.CreateTask(t); err != nil {
		return nil, err
	}
	slog.Debug("task created", "task", t.ID, "owner", t.OwnerID, "master", t.IsMaster())
	return t, nil
}

// UpdateTaskParams carries the editable fields. Nil pointers leave the field
// unchanged.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Category    *string
	Difficulty  *models.Difficulty
	Importance  *models.Importance
	DueAt       *time.Time
}

// UpdateTask edits a non-terminal task. Editing a recurring master propagates
// title/description/difficulty/importance to all future non-terminal
// instances; completed instances keep the attributes they had when completed.
func (s *Service) UpdateTask(id string, p UpdateTaskParams) (*models.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if t.Status.IsTerminal() {
		return nil, types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is %s and cannot be updated", id, t.Status), nil)
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.Importance != nil {
		t.Importance = *p.Importance
	}
	if p.DueAt != nil {
		t.DueAt = p.DueAt
	}
	t.UpdatedAt = time.Now().UTC()
	t.Synced = false

	if err := models.ValidateStruct(t); err != nil {
		return nil, fmt.Errorf("validate task: %w", err)
	}
	if err := s.store.UpdateTask(t); err != nil {
		return nil, err
	}
	if t.IsMaster() {
		if err := s.propagateMasterEdit(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// DeleteTask removes a task. Deleting a recurring master cascades: the ids of
// all non-terminal generated instances are collected first, then deleted in
// one batch together with the master. Terminal instances — completed, failed
// or canceled — are history and are retained, as are all completion records.
func (s *Service) DeleteTask(id string) (int, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return 0, err
	}

	ids := []string{t.ID}
	if t.IsMaster() {
		instances, err := s.store.ListTasks(memory.TaskFilter{ParentID: t.ID})
		if err != nil {
			return 0, err
		}
		for _, inst := range instances {
			if !inst.Status.IsTerminal() {
				ids = append(ids, inst.ID)
			}
		}
	}
	n, err := s.store.DeleteTasks(ids)
	if err != nil {
		return 0, err
	}
	slog.Info("task deleted", "task", id, "cascaded", n-1)
	return n, nil
}

// CompleteResult reports what one completion earned.
type CompleteResult struct {
	Task      *models.Task
	XPAwarded int
	Streak    int
	LevelUps  []types.LevelUpEvent
}

// Complete finishes an active task at the given time and applies the full
// reward pipeline — completion record, ledger XP and level-ups, streak, daily
// stats, and mission contributions — in one transaction under the owner's
// lock, so a failure partway leaves no partial rewards behind.
// Completing a task in any other state fails with invalid_state_transition
// and changes nothing.
func (s *Service) Complete(taskID string, at time.Time) (*CompleteResult, error) {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	unlock := s.users.lock(t.OwnerID)
	defer unlock()

	// Re-read under the lock; a concurrent expiry or completion may have won.
	t, err = s.store.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusActive {
		return nil, types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is %s, only active tasks can be completed", taskID, t.Status), nil)
	}
	if t.IsMaster() {
		return nil, types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is a recurring template; complete one of its instances", taskID), nil)
	}

	// Mission state is shared across users; take those locks before opening
	// the transaction, in sorted order, so two completions never deadlock.
	missions, err := s.store.ListActiveMissionsForUser(t.OwnerID, at)
	if err != nil {
		return nil, err
	}
	missionIDs := make([]string, 0, len(missions))
	for _, m := range missions {
		missionIDs = append(missionIDs, m.ID)
	}
	sort.Strings(missionIDs)
	for _, id := range missionIDs {
		unlock := s.missions.lock(id)
		defer unlock()
	}

	day := models.DayKey(at)
	var (
		xp       int
		streak   int
		events   []types.LevelUpEvent
		resolved []string
	)
	err = s.store.InTx(func(tx *memory.Store) error {
		priorToday, err := tx.CountCompletionsOnDay(t.OwnerID, day, t.Difficulty)
		if err != nil {
			return err
		}
		xp = rewardXP(t.Difficulty, t.Importance, priorToday)

		ok, err := tx.UpdateTaskStatus(taskID, models.StatusActive, models.StatusCompleted, at, &at)
		if err != nil {
			return err
		}
		if !ok {
			// Lost a benign race with expireOverdue; no rewards are applied.
			return types.NewEngineError(types.CodeInvalidStateTransition,
				fmt.Sprintf("task %s changed state concurrently", taskID), nil)
		}

		completion := &models.TaskCompletion{
			ID:          uuid.New().String(),
			TaskID:      t.ID,
			OwnerID:     t.OwnerID,
			Difficulty:  t.Difficulty,
			Importance:  t.Importance,
			XPAwarded:   xp,
			CompletedAt: at,
		}
		if err := tx.InsertCompletion(completion); err != nil {
			return err
		}

		ledger, err := tx.GetOrCreateLedger(t.OwnerID)
		if err != nil {
			return err
		}
		streak = updateStreakLocked(ledger, day)
		events = s.applyXPLocked(ledger, xp)
		ledger.UpdatedAt = at
		ledger.Synced = false
		if err := tx.UpdateLedger(ledger); err != nil {
			return err
		}

		if err := tx.UpsertDailyStats(t.OwnerID, day, 1, xp, streak); err != nil {
			return err
		}

		for _, id := range missionIDs {
			res, err := s.contributeLocked(tx, id, t.OwnerID, t.Difficulty, t.Importance, at)
			if err != nil {
				return fmt.Errorf("mission contribution %s: %w", id, err)
			}
			if res.Resolved {
				resolved = append(resolved, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range events {
		s.notifier.LevelUp(ev)
	}
	for _, id := range resolved {
		s.notifier.MissionResolved(types.MissionResolvedEvent{
			MissionID: id,
			Outcome:   types.MissionOutcomeBossDefeated,
		})
		slog.Info("mission resolved", "mission", id, "lastHitBy", t.OwnerID)
	}
	completedAt := at
	t.Status = models.StatusCompleted
	t.CompletedAt = &completedAt
	slog.Info("task completed", "task", taskID, "owner", t.OwnerID, "xp", xp, "levelUps", len(events))
	return &CompleteResult{Task: t, XPAwarded: xp, Streak: streak, LevelUps: events}, nil
}

// Fail transitions an active task to failed. A failure during an active
// mission window permanently clears the owner's clean-record flag.
func (s *Service) Fail(taskID string, at time.Time) error {
	return s.failTask(taskID, at)
}

func (s *Service) failTask(taskID string, at time.Time) error {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return err
	}

	unlock := s.users.lock(t.OwnerID)
	defer unlock()

	err = s.store.InTx(func(tx *memory.Store) error {
		ok, err := tx.UpdateTaskStatus(taskID, models.StatusActive, models.StatusFailed, at, nil)
		if err != nil {
			return err
		}
		if !ok {
			return types.NewEngineError(types.CodeInvalidStateTransition,
				fmt.Sprintf("task %s cannot fail from its current state", taskID), nil)
		}

		missions, err := tx.ListActiveMissionsForUser(t.OwnerID, at)
		if err != nil {
			return err
		}
		for _, m := range missions {
			if err := tx.ClearNoFailedTasks(m.ID, t.OwnerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("task failed", "task", taskID, "owner", t.OwnerID)
	return nil
}

// Cancel transitions an active or paused task to canceled.
func (s *Service) Cancel(taskID string, at time.Time) error {
	t, err := s.store.GetTask(taskID)
	if err != nil {
		return err
	}
	from := t.Status
	if !models.CanTransition(from, models.StatusCanceled) {
		return types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is %s and cannot be canceled", taskID, from), nil)
	}
	ok, err := s.store.UpdateTaskStatus(taskID, from, models.StatusCanceled, at, nil)
	if err != nil {
		return err
	}
	if !ok {
		return types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s changed state concurrently", taskID), nil)
	}
	return nil
}

// Pause suspends an active recurring instance, typically around a master edit.
func (s *Service) Pause(taskID string, at time.Time) error {
	return s.transition(taskID, models.StatusActive, models.StatusPaused, at)
}

// Resume reactivates a paused instance.
func (s *Service) Resume(taskID string, at time.Time) error {
	return s.transition(taskID, models.StatusPaused, models.StatusActive, at)
}

func (s *Service) transition(taskID string, from, to models.TaskStatus, at time.Time) error {
	ok, err := s.store.UpdateTaskStatus(taskID, from, to, at, nil)
	if err != nil {
		return err
	}
	if !ok {
		t, gerr := s.store.GetTask(taskID)
		if gerr != nil {
			return gerr
		}
		return types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is %s, cannot move to %s", taskID, t.Status, to), nil)
	}
	return nil
}

// ExpireOverdue fails every active task whose due time passed the grace
// threshold before now. The only automatic transition in the engine, and
// idempotent: a second run over the same state transitions nothing.
func (s *Service) ExpireOverdue(now time.Time) (int, error) {
	cutoff := now.Add(-config.DefaultExpiryGrace)
	overdue, err := s.store.ListOverdueActive(cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, t := range overdue {
		if t.IsMaster() {
			continue // templates never expire; their instances do
		}
		if err := s.failTask(t.ID, now); err != nil {
			if types.IsCode(err, types.CodeInvalidStateTransition) {
				continue // lost a benign race with a concurrent completion
			}
			slog.Warn("expire overdue task", "task", t.ID, "error", err)
			continue
		}
		expired++
	}
	if expired > 0 {
		slog.Info("expired overdue tasks", "count", expired)
	}
	return expired, nil
}

// GetTask returns a task by id.
func (s *Service) GetTask(id string) (*models.Task, error) {
	return s.store.GetTask(id)
}

// ListTasks lists an owner's tasks, optionally narrowed to one status.
func (s *Service) ListTasks(ownerID string, status models.TaskStatus) ([]models.Task, error) {
	return s.store.ListTasks(memory.TaskFilter{OwnerID: ownerID, Status: status})
}
