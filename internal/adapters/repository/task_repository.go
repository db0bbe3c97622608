package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dayplan/core/internal/domain/entities"
	"github.com/dayplan/core/internal/ports"
)

// TaskStoreImpl implements the TaskStore interface on Postgres.
type TaskStoreImpl struct {
	db *sqlx.DB
}

// NewTaskStore creates a new task store
func NewTaskStore(db *sqlx.DB) ports.TaskStore {
	return &TaskStoreImpl{db: db}
}

const taskColumns = `id, user_id, title, type, due_date, completed, notes, is_template,
	start_date, end_date, days_selected, recurrence_interval,
	completed_dates, excluded_dates, parent_task_id, created_at, updated_at`

func (r *TaskStoreImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListForRange fetches the rows a bounded month view needs: plain tasks due
// inside the range, templates whose schedule overlaps it, and every child
// row (overrides included) so reconciliation can substitute them before the
// range filter is applied.
func (r *TaskStoreImpl) ListForRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		  AND (
			(is_template = FALSE AND parent_task_id IS NULL AND due_date >= $2 AND due_date < $3)
			OR (is_template = TRUE AND start_date < $3 AND (end_date IS NULL OR end_date >= $2))
			OR (is_template = FALSE AND parent_task_id IS NOT NULL)
		  )
		ORDER BY created_at, id`

	upper := entities.Midnight(to).AddDate(0, 0, 1)
	rows, err := r.db.QueryContext(ctx, query, userID, entities.Midnight(from), upper)
	if err != nil {
		return nil, fmt.Errorf("list tasks for range: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *TaskStoreImpl) GetByID(ctx context.Context, id entities.TaskID) (*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *TaskStoreImpl) Insert(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, type, due_date, completed, notes, is_template,
			start_date, end_date, days_selected, recurrence_interval,
			completed_dates, excluded_dates, parent_task_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	if task.ID == "" {
		task.ID = entities.NewTaskID()
	}

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Type, task.DueDate, task.Completed,
		task.Notes, task.IsTemplate, task.StartDate, task.EndDate,
		weekdayArray(task.DaysSelected), task.RecurrenceInterval,
		pq.StringArray(task.CompletedDates), pq.StringArray(task.ExcludedDates),
		taskIDOrNil(task.ParentTaskID), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskStoreImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, type = $3, due_date = $4, completed = $5, notes = $6,
			is_template = $7, start_date = $8, end_date = $9, days_selected = $10,
			recurrence_interval = $11, completed_dates = $12, excluded_dates = $13,
			parent_task_id = $14, updated_at = $15
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Type, task.DueDate, task.Completed, task.Notes,
		task.IsTemplate, task.StartDate, task.EndDate,
		weekdayArray(task.DaysSelected), task.RecurrenceInterval,
		pq.StringArray(task.CompletedDates), pq.StringArray(task.ExcludedDates),
		taskIDOrNil(task.ParentTaskID), task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if affected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskStoreImpl) Delete(ctx context.Context, id entities.TaskID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *TaskStoreImpl) DeleteOverrides(ctx context.Context, parent entities.TaskID) error {
	query := `
		DELETE FROM tasks
		WHERE parent_task_id = $1 AND is_template = FALSE AND type <> $2`

	if _, err := r.db.ExecContext(ctx, query, parent, entities.TaskTypeRelated); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	return nil
}

func (r *TaskStoreImpl) ClearParent(ctx context.Context, parent entities.TaskID) error {
	query := `
		UPDATE tasks
		SET parent_task_id = NULL, updated_at = NOW()
		WHERE parent_task_id = $1 AND type = $2`

	if _, err := r.db.ExecContext(ctx, query, parent, entities.TaskTypeRelated); err != nil {
		return fmt.Errorf("clear parent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*entities.Task, error) {
	var (
		task         entities.Task
		days         pq.Int64Array
		completed    pq.StringArray
		excluded     pq.StringArray
		parentTaskID sql.NullString
	)

	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Type, &task.DueDate,
		&task.Completed, &task.Notes, &task.IsTemplate, &task.StartDate,
		&task.EndDate, &days, &task.RecurrenceInterval,
		&completed, &excluded, &parentTaskID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.DaysSelected = toWeekdays(days)
	task.CompletedDates = []string(completed)
	task.ExcludedDates = []string(excluded)
	if parentTaskID.Valid {
		p := entities.TaskID(parentTaskID.String)
		task.ParentTaskID = &p
	}
	return &task, nil
}

func scanTasks(rows *sql.Rows) ([]*entities.Task, error) {
	var tasks []*entities.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func weekdayArray(days []time.Weekday) pq.Int64Array {
	if days == nil {
		return nil
	}
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func toWeekdays(days pq.Int64Array) []time.Weekday {
	if days == nil {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

func taskIDOrNil(id *entities.TaskID) interface{} {
	if id == nil {
		return nil
	}
	return string(*id)
}
