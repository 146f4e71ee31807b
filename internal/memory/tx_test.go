package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

func TestInTx_ErrorDiscardsAllWrites(t *testing.T) {
	store := newTestStore(t)

	task := sampleTask("alice")
	if err := store.CreateTask(task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := store.GetOrCreateLedger("alice"); err != nil {
		t.Fatalf("create ledger: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	day := models.DayKey(now)

	rejected := errors.New("ledger update rejected")
	err := store.InTx(func(tx *Store) error {
		ok, err := tx.UpdateTaskStatus(task.ID, models.StatusActive, models.StatusCompleted, now, &now)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatal("status guard rejected an active task")
		}
		if err := tx.InsertCompletion(&models.TaskCompletion{
			ID:          uuid.New().String(),
			TaskID:      task.ID,
			OwnerID:     "alice",
			Difficulty:  task.Difficulty,
			Importance:  task.Importance,
			XPAwarded:   20,
			CompletedAt: now,
		}); err != nil {
			return err
		}
		ledger, err := tx.GetOrCreateLedger("alice")
		if err != nil {
			return err
		}
		ledger.XP = 20
		ledger.UpdatedAt = now
		if err := tx.UpdateLedger(ledger); err != nil {
			return err
		}
		return rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("want the inner error back, got %v", err)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != models.StatusActive {
		t.Errorf("task status = %s, want active after rollback", got.Status)
	}
	n, err := store.CountCompletionsOnDay("alice", day, task.Difficulty)
	if err != nil {
		t.Fatalf("count completions: %v", err)
	}
	if n != 0 {
		t.Errorf("completions on %s = %d, want 0 after rollback", day, n)
	}
	ledger, err := store.GetOrCreateLedger("alice")
	if err != nil {
		t.Fatalf("get ledger: %v", err)
	}
	if ledger.XP != 0 {
		t.Errorf("ledger XP = %d, want 0 after rollback", ledger.XP)
	}
}

func TestInTx_RolledBackCreateIsInvisible(t *testing.T) {
	store := newTestStore(t)
	task := sampleTask("carol")

	rejected := errors.New("rejected")
	err := store.InTx(func(tx *Store) error {
		if err := tx.CreateTask(task); err != nil {
			return err
		}
		return rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("want the inner error back, got %v", err)
	}
	if _, err := store.GetTask(task.ID); !types.IsCode(err, types.CodeNotFound) {
		t.Fatalf("want not_found after rollback, got %v", err)
	}
}

func TestInTx_CommitPersistsAndNestingReusesOuter(t *testing.T) {
	store := newTestStore(t)
	task := sampleTask("bob")

	err := store.InTx(func(tx *Store) error {
		if err := tx.CreateTask(task); err != nil {
			return err
		}
		return tx.InTx(func(inner *Store) error {
			ok, err := inner.UpdateTaskStatus(task.ID, models.StatusActive, models.StatusPaused, time.Now().UTC(), nil)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("status guard rejected an active task")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("in tx: %v", err)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != models.StatusPaused {
		t.Errorf("task status = %s, want paused after commit", got.Status)
	}
}
