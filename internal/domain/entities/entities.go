package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrNotToggleable    = errors.New("task cannot be toggled")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidTaskType  = errors.New("invalid task type")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrOrphanedInstance = errors.New("virtual instance has no owning template")
)

// Enums and types
type TaskType string

const (
	TaskTypeBasic        TaskType = "basic"
	TaskTypeRoutine      TaskType = "routine"
	TaskTypeRelated      TaskType = "related"
	TaskTypeLongInterval TaskType = "long_interval"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// TaskID identifies a task row. Persisted rows carry a UUID string;
// virtual instances carry a synthetic id of the form "{templateID}_{YYYY-MM-DD}"
// which exists only inside a materialized working set and must never be
// stored or used as a foreign key.
type TaskID string

// NewTaskID generates an id for a freshly persisted row.
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

// DefaultHorizonMonths is how far a template without an end date is
// expanded past its start date.
const DefaultHorizonMonths = 3

// Task is the single row shape shared by plain tasks, templates, overrides
// and (in memory only) virtual instances.
type Task struct {
	ID                 TaskID         `json:"id" db:"id"`
	UserID             uuid.UUID      `json:"user_id" db:"user_id"`
	Title              string         `json:"title" db:"title"`
	Type               TaskType       `json:"type" db:"type"`
	DueDate            *time.Time     `json:"due_date" db:"due_date"`
	Completed          bool           `json:"completed" db:"completed"`
	Notes              *string        `json:"notes" db:"notes"`
	IsTemplate         bool           `json:"is_template" db:"is_template"`
	StartDate          *time.Time     `json:"start_date" db:"start_date"`
	EndDate            *time.Time     `json:"end_date" db:"end_date"`
	DaysSelected       []time.Weekday `json:"days_selected" db:"days_selected"`
	RecurrenceInterval *int           `json:"recurrence_interval" db:"recurrence_interval"`
	CompletedDates     []string       `json:"completed_dates" db:"completed_dates"`
	ExcludedDates      []string       `json:"excluded_dates" db:"excluded_dates"`
	ParentTaskID       *TaskID        `json:"parent_task_id" db:"parent_task_id"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// User owns task rows.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Timezone     string    `json:"timezone" db:"timezone"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy. The mutation coordinator snapshots pre-state
// with it before applying an optimistic change.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.Notes != nil {
		n := *t.Notes
		c.Notes = &n
	}
	if t.StartDate != nil {
		d := *t.StartDate
		c.StartDate = &d
	}
	if t.EndDate != nil {
		d := *t.EndDate
		c.EndDate = &d
	}
	if t.RecurrenceInterval != nil {
		i := *t.RecurrenceInterval
		c.RecurrenceInterval = &i
	}
	if t.ParentTaskID != nil {
		p := *t.ParentTaskID
		c.ParentTaskID = &p
	}
	c.DaysSelected = append([]time.Weekday(nil), t.DaysSelected...)
	c.CompletedDates = append([]string(nil), t.CompletedDates...)
	c.ExcludedDates = append([]string(nil), t.ExcludedDates...)
	return &c
}

// EffectiveEndDate resolves a template's open-ended range to a concrete
// expansion horizon.
func (t *Task) EffectiveEndDate(horizonMonths int) time.Time {
	if t.EndDate != nil {
		return *t.EndDate
	}
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}
	start := time.Now()
	if t.StartDate != nil {
		start = *t.StartDate
	}
	return Midnight(start).AddDate(0, horizonMonths, 0)
}

// HasCompletedDate reports whether the template marks the given calendar
// day as done.
func (t *Task) HasCompletedDate(dateStr string) bool {
	return containsString(t.CompletedDates, dateStr)
}

// HasExcludedDate reports whether the template suppresses the given
// calendar day.
func (t *Task) HasExcludedDate(dateStr string) bool {
	return containsString(t.ExcludedDates, dateStr)
}

// WithCompletedDate returns the completed-date set with dateStr added or
// removed. The receiver is not modified; the coordinator writes the new
// set back to the template row in one step.
func (t *Task) WithCompletedDate(dateStr string, done bool) []string {
	return withDate(t.CompletedDates, dateStr, done)
}

// WithExcludedDate returns the excluded-date set with dateStr added.
func (t *Task) WithExcludedDate(dateStr string) []string {
	return withDate(t.ExcludedDates, dateStr, true)
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func withDate(set []string, dateStr string, present bool) []string {
	out := make([]string, 0, len(set)+1)
	for _, v := range set {
		if v != dateStr {
			out = append(out, v)
		}
	}
	if present {
		out = append(out, dateStr)
	}
	return out
}

// Utility methods
func (tt TaskType) IsValid() bool {
	switch tt {
	case TaskTypeBasic, TaskTypeRoutine, TaskTypeRelated, TaskTypeLongInterval:
		return true
	default:
		return false
	}
}

func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleAdmin, UserRoleUser:
		return true
	default:
		return false
	}
}
