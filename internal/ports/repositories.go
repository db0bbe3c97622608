package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dayplan/core/internal/domain/entities"
)

// TaskStore is the abstract record store task rows live in. The engine
// issues independent writes against it with no transaction scope; a
// failure partway through a multi-step mutation leaves the remote side
// partially applied, and only the in-memory side is reverted.
type TaskStore interface {
	// ListByUser returns every persisted row for a user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)
	// ListForRange returns plain tasks due inside [from, to] plus every
	// template whose [start_date, end_date] overlaps it (a null end date
	// is open-ended) along with the templates' override rows.
	ListForRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.Task, error)
	GetByID(ctx context.Context, id entities.TaskID) (*entities.Task, error)
	Insert(ctx context.Context, task *entities.Task) error
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id entities.TaskID) error
	// DeleteOverrides removes every persisted override row referencing a
	// template. Related rows are left alone.
	DeleteOverrides(ctx context.Context, parent entities.TaskID) error
	// ClearParent unlinks related tasks from a deleted parent without
	// deleting them.
	ClearParent(ctx context.Context, parent entities.TaskID) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role     *entities.UserRole
	IsActive *bool
	Search   *string
	Limit    int
	Offset   int
}
