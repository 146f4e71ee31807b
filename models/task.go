package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the possible statuses of a task.
type TaskStatus string

const (
	StatusActive    TaskStatus = "active"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCanceled  TaskStatus = "canceled"
	StatusPaused    TaskStatus = "paused"
)

// IsTerminal reports whether the status permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// legalTransitions is the task lifecycle state machine. Terminal statuses have
// no outgoing edges; paused instances may resume or be canceled, never
// completed directly.
var legalTransitions = map[TaskStatus][]TaskStatus{
	StatusActive: {StatusCompleted, StatusFailed, StatusCanceled, StatusPaused},
	StatusPaused: {StatusActive, StatusCanceled},
}

// CanTransition reports whether the status change from -> to is legal.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Difficulty grades how demanding a task is. It selects the base XP reward.
type Difficulty string

const (
	DifficultyVeryEasy Difficulty = "very_easy"
	DifficultyEasy     Difficulty = "easy"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// Valid reports whether d is one of the defined grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyVeryEasy, DifficultyEasy, DifficultyHard, DifficultyVeryHard:
		return true
	}
	return false
}

// Importance scales the base reward.
type Importance string

const (
	ImportanceNormal        Importance = "normal"
	ImportanceImportant     Importance = "important"
	ImportanceVeryImportant Importance = "very_important"
	ImportanceSpecial       Importance = "special"
)

// Valid reports whether i is one of the defined grades.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceNormal, ImportanceImportant, ImportanceVeryImportant, ImportanceSpecial:
		return true
	}
	return false
}

// RecurrenceUnit is the interval unit of a recurring master task.
type RecurrenceUnit string

const (
	RecurrenceDaily   RecurrenceUnit = "day"
	RecurrenceWeekly  RecurrenceUnit = "week"
	RecurrenceMonthly RecurrenceUnit = "month"
)

// Recurrence describes how a master task repeats. Instances are generated by
// the expander inside [Start, End); a zero End means no end bound.
type Recurrence struct {
	Unit  RecurrenceUnit `json:"unit" validate:"required,oneof=day week month"`
	Every int            `json:"every" validate:"required,min=1"`
	Start time.Time      `json:"start" validate:"required"`
	End   time.Time      `json:"end,omitempty"`
}

// NextAfter returns the first scheduled occurrence strictly after t, given the
// recurrence anchored at Start.
func (r Recurrence) NextAfter(t time.Time) time.Time {
	due := r.Start
	for !due.After(t) {
		due = r.Advance(due)
	}
	return due
}

// Advance returns the occurrence following due.
func (r Recurrence) Advance(due time.Time) time.Time {
	switch r.Unit {
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7*r.Every)
	case RecurrenceMonthly:
		return due.AddDate(0, r.Every, 0)
	default:
		return due.AddDate(0, 0, r.Every)
	}
}

// Task represents one unit of real-world work.
//
// A recurring template ("master") carries a Recurrence descriptor and is never
// completed itself; the expander materializes timed instances pointing back at
// it via ParentID.
type Task struct {
	ID          string      `json:"id" validate:"required,uuid4"`
	OwnerID     string      `json:"ownerId" validate:"required"`
	Title       string      `json:"title" validate:"required,min=1,max=255"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	Difficulty  Difficulty  `json:"difficulty" validate:"required,oneof=very_easy easy hard very_hard"`
	Importance  Importance  `json:"importance" validate:"required,oneof=normal important very_important special"`
	Status      TaskStatus  `json:"status" validate:"required,oneof=active completed failed canceled paused"`
	DueAt       *time.Time  `json:"dueAt,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
	ParentID    *string     `json:"parentId,omitempty" validate:"omitempty,uuid4"` // master task of a generated instance
	CreatedAt   time.Time   `json:"createdAt" validate:"required"`
	UpdatedAt   time.Time   `json:"updatedAt" validate:"required"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Synced      bool        `json:"synced"`
}

// IsMaster reports whether the task is a recurring template.
func (t *Task) IsMaster() bool {
	return t.Recurrence != nil && t.ParentID == nil
}

// TaskCompletion records one successful completion of one task instance.
// Created exactly once per completion and never mutated afterwards.
type TaskCompletion struct {
	ID          string     `json:"id" validate:"required,uuid4"`
	TaskID      string     `json:"taskId" validate:"required,uuid4"`
	OwnerID     string     `json:"ownerId" validate:"required"` // denormalized for aggregation
	Difficulty  Difficulty `json:"difficulty" validate:"required,oneof=very_easy easy hard very_hard"`
	Importance  Importance `json:"importance" validate:"required,oneof=normal important very_important special"`
	XPAwarded   int        `json:"xpAwarded" validate:"min=0"`
	CompletedAt time.Time  `json:"completedAt" validate:"required"`
	Synced      bool       `json:"synced"`
}

// global validator instance
var validate = validator.New()

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}
