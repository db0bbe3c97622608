package ports

import (
	"time"

	"github.com/dayplan/core/internal/domain/entities"
)

// CreateTaskRequest creates a plain or related task.
type CreateTaskRequest struct {
	Title        string           `json:"title" validate:"required"`
	Type         entities.TaskType `json:"type" validate:"required"`
	DueDate      *time.Time       `json:"due_date"`
	Notes        *string          `json:"notes"`
	ParentTaskID *entities.TaskID `json:"parent_task_id"`
}

// CreateTemplateRequest creates a recurring-task definition.
type CreateTemplateRequest struct {
	Title              string           `json:"title" validate:"required"`
	Type               entities.TaskType `json:"type" validate:"required"`
	Notes              *string          `json:"notes"`
	StartDate          time.Time        `json:"start_date" validate:"required"`
	EndDate            *time.Time       `json:"end_date"`
	DaysSelected       []time.Weekday   `json:"days_selected"`
	RecurrenceInterval *int             `json:"recurrence_interval"`
}

// UpdateTaskRequest is a partial patch routed through the mutation
// coordinator. Nil fields are untouched.
type UpdateTaskRequest struct {
	Title              *string          `json:"title"`
	Notes              *string          `json:"notes"`
	DueDate            *time.Time       `json:"due_date"`
	StartDate          *time.Time       `json:"start_date"`
	EndDate            *time.Time       `json:"end_date"`
	DaysSelected       []time.Weekday   `json:"days_selected"`
	RecurrenceInterval *int             `json:"recurrence_interval"`
}

// TouchesSchedule reports whether the patch changes schedule-defining
// fields of a template, which forces its instances to be rematerialized.
func (r UpdateTaskRequest) TouchesSchedule() bool {
	return r.StartDate != nil || r.EndDate != nil || r.DaysSelected != nil || r.RecurrenceInterval != nil
}

// Auth request/response types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
	Timezone string `json:"timezone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type UpdateUserRequest struct {
	Username *string `json:"username"`
	Timezone *string `json:"timezone"`
}
