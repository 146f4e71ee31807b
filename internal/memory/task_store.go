package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/questforge/questforge/models"
	"github.com/questforge/questforge/types"
)

const taskColumns = `id, owner_id, title, description, category, difficulty, importance, status,
	due_at, recur_unit, recur_every, recur_start, recur_end, parent_id,
	created_at, updated_at, completed_at, synced`

// CreateTask inserts a new task row.
func (s *Store) CreateTask(t *models.Task) error {
	_, err := s.h.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, taskArgs(t)...)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

// CreateTaskIfAbsent inserts a generated recurring instance, relying on the
// unique (parent_id, due_at) index as the idempotency key. Returns false when
// an instance for that slot already exists.
func (s *Store) CreateTaskIfAbsent(t *models.Task) (bool, error) {
	res, err := s.h.Exec(`
		INSERT OR IGNORE INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, taskArgs(t)...)
	if err != nil {
		return false, fmt.Errorf("insert task instance %s: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("instance rows affected: %w", err)
	}
	return n > 0, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(id string) (*models.Task, error) {
	row := s.h.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, types.NewEngineError(types.CodeNotFound, fmt.Sprintf("task %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// UpdateTask rewrites all mutable columns of a task row.
func (s *Store) UpdateTask(t *models.Task) error {
	var unit, start, end interface{}
	var every interface{}
	if t.Recurrence != nil {
		unit = string(t.Recurrence.Unit)
		every = t.Recurrence.Every
		start = timeString(t.Recurrence.Start)
		end = nullTimeString(&t.Recurrence.End)
	}
	res, err := s.h.Exec(`
		UPDATE tasks SET
			title = ?, description = ?, category = ?, difficulty = ?, importance = ?,
			status = ?, due_at = ?, recur_unit = ?, recur_every = ?, recur_start = ?, recur_end = ?,
			updated_at = ?, completed_at = ?, synced = ?
		WHERE id = ?
	`, t.Title, t.Description, t.Category, string(t.Difficulty), string(t.Importance),
		string(t.Status), nullTimeString(t.DueAt), unit, every, start, end,
		timeString(t.UpdatedAt), nullTimeString(t.CompletedAt), boolToInt(t.Synced), t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.NewEngineError(types.CodeNotFound, fmt.Sprintf("task %s not found", t.ID), nil)
	}
	return nil
}

// UpdateTaskStatus transitions a task's status only if it currently holds the
// expected status. Returns false when the guard fails, which is how lifecycle
// races (expire vs. complete) are detected without double-applying rewards.
func (s *Store) UpdateTaskStatus(id string, from, to models.TaskStatus, at time.Time, completedAt *time.Time) (bool, error) {
	res, err := s.h.Exec(`
		UPDATE tasks SET status = ?, updated_at = ?, completed_at = ?, synced = 0
		WHERE id = ? AND status = ?
	`, string(to), timeString(at), nullTimeString(completedAt), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update task status %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("status rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteTasks removes tasks by id. Returns the number deleted.
func (s *Store) DeleteTasks(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.h.Exec(`DELETE FROM tasks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}
	return int(n), nil
}

// TaskFilter narrows ListTasks. Zero fields are ignored.
type TaskFilter struct {
	OwnerID     string
	Status      models.TaskStatus
	ParentID    string
	DueBefore   time.Time
	DueAfter    time.Time
	MastersOnly bool
}

// ListTasks retrieves tasks matching the filter, ordered by creation time.
func (s *Store) ListTasks(f TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	var args []interface{}
	if f.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.ParentID != "" {
		query += ` AND parent_id = ?`
		args = append(args, f.ParentID)
	}
	if !f.DueBefore.IsZero() {
		query += ` AND due_at IS NOT NULL AND due_at < ?`
		args = append(args, timeString(f.DueBefore))
	}
	if !f.DueAfter.IsZero() {
		query += ` AND due_at IS NOT NULL AND due_at >= ?`
		args = append(args, timeString(f.DueAfter))
	}
	if f.MastersOnly {
		query += ` AND recur_unit IS NOT NULL AND parent_id IS NULL`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.h.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks rows: %w", err)
	}
	return out, nil
}

// ListOverdueActive returns active tasks whose due time passed before cutoff.
func (s *Store) ListOverdueActive(cutoff time.Time) ([]models.Task, error) {
	return s.ListTasks(TaskFilter{Status: models.StatusActive, DueBefore: cutoff})
}

func taskArgs(t *models.Task) []interface{} {
	var unit, every, start, end interface{}
	if t.Recurrence != nil {
		unit = string(t.Recurrence.Unit)
		every = t.Recurrence.Every
		start = timeString(t.Recurrence.Start)
		end = nullTimeString(&t.Recurrence.End)
	}
	var parent interface{}
	if t.ParentID != nil {
		parent = *t.ParentID
	}
	return []interface{}{
		t.ID, t.OwnerID, t.Title, t.Description, t.Category,
		string(t.Difficulty), string(t.Importance), string(t.Status),
		nullTimeString(t.DueAt), unit, every, start, end, parent,
		timeString(t.CreatedAt), timeString(t.UpdatedAt), nullTimeString(t.CompletedAt),
		boolToInt(t.Synced),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		category    sql.NullString
		difficulty  string
		importance  string
		status      string
		dueAt       sql.NullString
		recurUnit   sql.NullString
		recurEvery  sql.NullInt64
		recurStart  sql.NullString
		recurEnd    sql.NullString
		parentID    sql.NullString
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
		synced      int
	)
	if err := row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &description, &category, &difficulty, &importance, &status,
		&dueAt, &recurUnit, &recurEvery, &recurStart, &recurEnd, &parentID,
		&createdAt, &updatedAt, &completedAt, &synced,
	); err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Category = category.String
	t.Difficulty = models.Difficulty(difficulty)
	t.Importance = models.Importance(importance)
	t.Status = models.TaskStatus(status)
	t.Synced = synced != 0

	var err error
	if t.DueAt, err = parseNullTime(dueAt); err != nil {
		return nil, fmt.Errorf("parse due_at: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	if parentID.Valid {
		v := parentID.String
		t.ParentID = &v
	}
	if recurUnit.Valid {
		rec := models.Recurrence{
			Unit:  models.RecurrenceUnit(recurUnit.String),
			Every: int(recurEvery.Int64),
		}
		if recurStart.Valid {
			if rec.Start, err = parseTime(recurStart.String); err != nil {
				return nil, fmt.Errorf("parse recur_start: %w", err)
			}
		}
		if recurEnd.Valid && recurEnd.String != "" {
			endT, err := parseNullTime(recurEnd)
			if err != nil {
				return nil, fmt.Errorf("parse recur_end: %w", err)
			}
			if endT != nil {
				rec.End = *endT
			}
		}
		t.Recurrence = &rec
	}
	return &t, nil
}
