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

// ExpandAll materializes missing instances for every recurring master inside
// the rolling window ending at now+window. Safe to re-run and to run
// concurrently with itself: instances are keyed by (master id, due time), so
// a second pass over the same window creates nothing.
func (s *Service) ExpandAll(now time.Time) (int, error) {
	masters, err := s.store.ListTasks(memory.TaskFilter{MastersOnly: true})
	if err != nil {
		return 0, err
	}

	created := 0
	var exhausted error
	for _, m := range masters {
		if m.Status != models.StatusActive {
			continue
		}
		n, err := s.ExpandMaster(m.ID, now)
		created += n
		if err != nil {
			if types.IsCode(err, types.CodeRecurrenceWindowExhausted) {
				// Non-fatal; remaining occurrences materialize next tick.
				exhausted = err
				continue
			}
			return created, err
		}
	}
	return created, exhausted
}

// ExpandMaster materializes the master's missing occurrences inside the
// window. Returns how many instances were created this pass.
func (s *Service) ExpandMaster(masterID string, now time.Time) (int, error) {
	master, err := s.store.GetTask(masterID)
	if err != nil {
		return 0, err
	}
	if !master.IsMaster() {
		return 0, types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is not a recurring template", masterID), nil)
	}
	if master.Status != models.StatusActive {
		return 0, types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("master %s is %s; only active templates expand", masterID, master.Status), nil)
	}

	rec := *master.Recurrence
	horizon := now.Add(config.DefaultExpansionWindow)
	if !rec.End.IsZero() && rec.End.Before(horizon) {
		horizon = rec.End
	}

	// Skip occurrences strictly before today; missed slots are history, not
	// backfill. Today's occurrence still materializes.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := rec.Start
	for due.Before(today) {
		due = rec.Advance(due)
	}

	created := 0
	for due.Before(horizon) {
		if created >= config.MaxInstancesPerPass {
			return created, types.NewEngineError(types.CodeRecurrenceWindowExhausted,
				fmt.Sprintf("master %s hit the materialization cap of %d", masterID, config.MaxInstancesPerPass),
				map[string]any{"master": masterID, "cap": config.MaxInstancesPerPass})
		}
		dueAt := due
		inst := &models.Task{
			ID:          uuid.New().String(),
			OwnerID:     master.OwnerID,
			Title:       master.Title,
			Description: master.Description,
			Category:    master.Category,
			Difficulty:  master.Difficulty,
			Importance:  master.Importance,
			Status:      models.StatusActive,
			DueAt:       &dueAt,
			ParentID:    &master.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		inserted, err := s.store.CreateTaskIfAbsent(inst)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
		due = rec.Advance(due)
	}
	if created > 0 {
		slog.Debug("recurring instances materialized", "master", masterID, "count", created)
	}
	return created, nil
}

// propagateMasterEdit pushes the master's current attributes to all future,
// non-terminal instances. History is immutable: completed instances keep the
// attributes they had when completed. Collect ids first, then apply.
func (s *Service) propagateMasterEdit(master *models.Task) error {
	instances, err := s.store.ListTasks(memory.TaskFilter{ParentID: master.ID})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var affected []models.Task
	for _, inst := range instances {
		if inst.Status.IsTerminal() {
			continue
		}
		if inst.DueAt != nil && inst.DueAt.Before(now) {
			continue
		}
		affected = append(affected, inst)
	}

	for i := range affected {
		inst := affected[i]
		inst.Title = master.Title
		inst.Description = master.Description
		inst.Category = master.Category
		inst.Difficulty = master.Difficulty
		inst.Importance = master.Importance
		inst.UpdatedAt = now
		inst.Synced = false
		if err := s.store.UpdateTask(&inst); err != nil {
			return fmt.Errorf("propagate edit to instance %s: %w", inst.ID, err)
		}
	}
	if len(affected) > 0 {
		slog.Debug("master edit propagated", "master", master.ID, "instances", len(affected))
	}
	return nil
}

// CancelMaster cancels a recurring template and all of its future
// non-completed instances. Past completions are untouched.
func (s *Service) CancelMaster(masterID string, at time.Time) error {
	master, err := s.store.GetTask(masterID)
	if err != nil {
		return err
	}
	if !master.IsMaster() {
		return types.NewEngineError(types.CodeInvalidStateTransition,
			fmt.Sprintf("task %s is not a recurring template", masterID), nil)
	}
	if err := s.Cancel(masterID, at); err != nil {
		return err
	}

	instances, err := s.store.ListTasks(memory.TaskFilter{ParentID: masterID})
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if inst.Status.IsTerminal() {
			continue
		}
		if _, err := s.store.UpdateTaskStatus(inst.ID, inst.Status, models.StatusCanceled, at, nil); err != nil {
			return err
		}
	}
	return nil
}
