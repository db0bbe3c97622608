package planner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dayplan/core/internal/domain/entities"
)

// fakeStore is an in-memory TaskStore with per-operation failure
// injection, used to exercise the coordinator's optimistic-revert paths.
type fakeStore struct {
	rows   map[entities.TaskID]*entities.Task
	failOn map[string]error
	calls  []string
}

func newFakeStore(rows ...*entities.Task) *fakeStore {
	s := &fakeStore{
		rows:   make(map[entities.TaskID]*entities.Task),
		failOn: make(map[string]error),
	}
	for _, r := range rows {
		s.rows[r.ID] = r.Clone()
	}
	return s
}

func (s *fakeStore) fail(op string, err error) {
	s.failOn[op] = err
}

func (s *fakeStore) check(op string) error {
	s.calls = append(s.calls, op)
	return s.failOn[op]
}

func (s *fakeStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	if err := s.check("list"); err != nil {
		return nil, err
	}
	var out []*entities.Task
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *fakeStore) ListForRange(ctx context.Context, userID uuid.UUID, _, _ time.Time) ([]*entities.Task, error) {
	return s.ListByUser(ctx, userID)
}

func (s *fakeStore) GetByID(_ context.Context, id entities.TaskID) (*entities.Task, error) {
	if err := s.check("get"); err != nil {
		return nil, err
	}
	r, ok := s.rows[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return r.Clone(), nil
}

func (s *fakeStore) Insert(_ context.Context, task *entities.Task) error {
	if err := s.check("insert"); err != nil {
		return err
	}
	s.rows[task.ID] = task.Clone()
	return nil
}

func (s *fakeStore) Update(_ context.Context, task *entities.Task) error {
	if err := s.check("update"); err != nil {
		return err
	}
	if _, ok := s.rows[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	s.rows[task.ID] = task.Clone()
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id entities.TaskID) error {
	if err := s.check("delete"); err != nil {
		return err
	}
	if _, ok := s.rows[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) DeleteOverrides(_ context.Context, parent entities.TaskID) error {
	if err := s.check("delete_overrides"); err != nil {
		return err
	}
	for id, r := range s.rows {
		if !r.IsTemplate && r.Type != entities.TaskTypeRelated && r.ParentTaskID != nil && *r.ParentTaskID == parent {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *fakeStore) ClearParent(_ context.Context, parent entities.TaskID) error {
	if err := s.check("clear_parent"); err != nil {
		return err
	}
	for _, r := range s.rows {
		if r.Type == entities.TaskTypeRelated && r.ParentTaskID != nil && *r.ParentTaskID == parent {
			r.ParentTaskID = nil
		}
	}
	return nil
}
