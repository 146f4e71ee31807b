package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleTask(owner string) *models.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Task{
		ID:         uuid.New().String(),
		OwnerID:    owner,
		Title:      "sample",
		Difficulty: models.DifficultyHard,
		Importance: models.ImportanceNormal,
		Status:     models.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTaskStore_CreateGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	due := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)
	task := sampleTask("alice")
	task.Description = "with details"
	task.Category = "work"
	task.DueAt = &due
	task.Recurrence = &models.Recurrence{
		Unit:  models.RecurrenceWeekly,
		Every: 2,
		Start: due,
		End:   due.AddDate(0, 2, 0),
	}
	if err := store.CreateTask(task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || got.Description != task.Description || got.Category != task.Category {
		t.Errorf("text fields lost: %+v", got)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Errorf("due_at round trip: got %v, want %v", got.DueAt, due)
	}
	if got.Recurrence == nil {
		t.Fatal("recurrence lost")
	}
	if got.Recurrence.Unit != models.RecurrenceWeekly || got.Recurrence.Every != 2 {
		t.Errorf("recurrence fields lost: %+v", got.Recurrence)
	}
	if !got.Recurrence.End.Equal(task.Recurrence.End) {
		t.Errorf("recurrence end: got %v, want %v", got.Recurrence.End, task.Recurrence.End)
	}
	if !got.IsMaster() {
		t.Error("round-tripped master should still be a master")
	}
}

func TestTaskStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetTask(uuid.New().String())
	if !types.IsCode(err, types.CodeNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestTaskStore_UpdateTaskStatus_Guard(t *testing.T) {
	store := newTestStore(t)
	task := sampleTask("alice")
	if err := store.CreateTask(task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	now := time.Now().UTC()

	ok, err := store.UpdateTaskStatus(task.ID, models.StatusActive, models.StatusCompleted, now, &now)
	if err != nil || !ok {
		t.Fatalf("first transition: ok=%v err=%v", ok, err)
	}

	// The guard rejects a second transition from the stale status.
	ok, err = store.UpdateTaskStatus(task.ID, models.StatusActive, models.StatusFailed, now, nil)
	if err != nil {
		t.Fatalf("guarded transition: %v", err)
	}
	if ok {
		t.Error("transition from stale status should not apply")
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
}

func TestTaskStore_CreateTaskIfAbsent_SlotKey(t *testing.T) {
	store := newTestStore(t)

	master := sampleTask("alice")
	if err := store.CreateTask(master); err != nil {
		t.Fatalf("create master: %v", err)
	}

	due := time.Now().UTC().Truncate(time.Second).Add(24 * time.Hour)
	inst := sampleTask("alice")
	inst.ParentID = &master.ID
	inst.DueAt = &due
	inserted, err := store.CreateTaskIfAbsent(inst)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}

	// Same (parent, due) slot with a fresh id must be ignored.
	dup := sampleTask("alice")
	dup.ParentID = &master.ID
	dup.DueAt = &due
	inserted, err = store.CreateTaskIfAbsent(dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Error("duplicate slot should not insert")
	}

	// A different slot for the same parent inserts fine.
	next := sampleTask("alice")
	nextDue := due.AddDate(0, 0, 1)
	next.ParentID = &master.ID
	next.DueAt = &nextDue
	inserted, err = store.CreateTaskIfAbsent(next)
	if err != nil || !inserted {
		t.Fatalf("next slot insert: inserted=%v err=%v", inserted, err)
	}
}

func TestTaskStore_ListTasksFilters(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	active := sampleTask("alice")
	if err := store.CreateTask(active); err != nil {
		t.Fatalf("create: %v", err)
	}
	done := sampleTask("alice")
	done.Status = models.StatusCompleted
	if err := store.CreateTask(done); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := sampleTask("bob")
	if err := store.CreateTask(other); err != nil {
		t.Fatalf("create: %v", err)
	}
	master := sampleTask("alice")
	master.Recurrence = &models.Recurrence{Unit: models.RecurrenceDaily, Every: 1, Start: now}
	if err := store.CreateTask(master); err != nil {
		t.Fatalf("create: %v", err)
	}

	byOwner, err := store.ListTasks(TaskFilter{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(byOwner) != 3 {
		t.Errorf("owner filter: got %d tasks, want 3", len(byOwner))
	}

	byStatus, err := store.ListTasks(TaskFilter{OwnerID: "alice", Status: models.StatusCompleted})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != done.ID {
		t.Errorf("status filter: got %+v", byStatus)
	}

	masters, err := store.ListTasks(TaskFilter{MastersOnly: true})
	if err != nil {
		t.Fatalf("list masters: %v", err)
	}
	if len(masters) != 1 || masters[0].ID != master.ID {
		t.Errorf("masters filter: got %+v", masters)
	}
}

func TestTaskStore_ListOverdueActive(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	overdue := sampleTask("alice")
	overdue.DueAt = &past
	upcoming := sampleTask("alice")
	upcoming.DueAt = &future
	undated := sampleTask("alice")
	for _, task := range []*models.Task{overdue, upcoming, undated} {
		if err := store.CreateTask(task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := store.ListOverdueActive(now)
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(got) != 1 || got[0].ID != overdue.ID {
		t.Errorf("overdue list: got %+v", got)
	}
}

func TestTaskStore_DeleteTasks(t *testing.T) {
	store := newTestStore(t)

	a := sampleTask("alice")
	b := sampleTask("alice")
	for _, task := range []*models.Task{a, b} {
		if err := store.CreateTask(task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := store.DeleteTasks([]string{a.ID, b.ID, uuid.New().String()})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}

	n, err = store.DeleteTasks(nil)
	if err != nil || n != 0 {
		t.Errorf("empty delete: n=%d err=%v", n, err)
	}
}
