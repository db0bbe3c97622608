package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dayplan/core/internal/domain/entities"
	"github.com/dayplan/core/internal/infrastructure/config"
	"github.com/dayplan/core/internal/infrastructure/logger"
	"github.com/dayplan/core/internal/planner"
	"github.com/dayplan/core/internal/ports"
)

// PlannerService owns one working set per user and runs every task read
// and mutation through the recurrence engine. Mutations are serialized per
// user: toggle and delete both read-modify-write the owning template's
// date sets, and the record store offers no atomic add-to-set primitive.
type PlannerService struct {
	store   ports.TaskStore
	logger  *logger.Logger
	horizon int

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type session struct {
	mu    sync.Mutex
	coord *planner.Coordinator
}

// NewPlannerService creates a new planner service
func NewPlannerService(store ports.TaskStore, cfg config.PlannerConfig, logger *logger.Logger) *PlannerService {
	horizon := cfg.HorizonMonths
	if horizon <= 0 {
		horizon = entities.DefaultHorizonMonths
	}
	return &PlannerService{
		store:    store,
		logger:   logger,
		horizon:  horizon,
		sessions: make(map[uuid.UUID]*session),
	}
}

// LoadTasks materializes the full unified collection for a user and makes
// it the user's current working set. A store read failure is treated as an
// empty result: the previous working set stays untouched and is returned
// as-is.
func (s *PlannerService) LoadTasks(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	sess := s.sessionFor(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warnw("Task load failed, keeping previous working set", "user_id", userID, "error", err)
		return s.snapshotLocked(sess), nil
	}

	set := planner.NewWorkingSet(planner.BuildCollection(rows, s.horizon))
	sess.coord = planner.NewCoordinator(set, s.store, s.logger, s.horizon)
	return set.Tasks(), nil
}

// LoadRange materializes the collection for a bounded date range and makes
// it the user's current working set. Occurrences are filtered to the range
// only after override reconciliation has run.
func (s *PlannerService) LoadRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*entities.Task, error) {
	sess := s.sessionFor(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	rows, err := s.store.ListForRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Warnw("Range load failed, keeping previous working set", "user_id", userID, "error", err)
		return s.snapshotLocked(sess), nil
	}

	set := planner.NewWorkingSet(planner.BuildRangeCollection(rows, from, to, s.horizon))
	sess.coord = planner.NewCoordinator(set, s.store, s.logger, s.horizon)
	return set.Tasks(), nil
}

// CreateTask persists a plain or related task and adds it to the working set.
func (s *PlannerService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if !req.Type.IsValid() || req.Type == entities.TaskTypeRoutine || req.Type == entities.TaskTypeLongInterval {
		return nil, entities.ErrInvalidTaskType
	}

	now := time.Now()
	task := &entities.Task{
		ID:           entities.NewTaskID(),
		UserID:       userID,
		Title:        req.Title,
		Type:         req.Type,
		DueDate:      req.DueDate,
		Notes:        req.Notes,
		ParentTaskID: req.ParentTaskID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Insert(ctx, task); err != nil {
		return nil, err
	}

	sess := s.sessionFor(userID)
	sess.mu.Lock()
	if sess.coord != nil {
		sess.coord.Set().Put(task)
	}
	sess.mu.Unlock()

	s.logger.Infow("Task created", "task_id", task.ID, "type", task.Type)
	return task, nil
}

// CreateTemplate persists a recurring-task definition and materializes its
// virtual instances into the working set.
func (s *PlannerService) CreateTemplate(ctx context.Context, userID uuid.UUID, req ports.CreateTemplateRequest) (*entities.Task, error) {
	if req.Type != entities.TaskTypeRoutine && req.Type != entities.TaskTypeLongInterval {
		return nil, entities.ErrInvalidTaskType
	}
	start := entities.Midnight(req.StartDate)
	if req.EndDate != nil && req.EndDate.Before(start) {
		return nil, entities.ErrInvalidDateRange
	}

	now := time.Now()
	tpl := &entities.Task{
		ID:                 entities.NewTaskID(),
		UserID:             userID,
		Title:              req.Title,
		Type:               req.Type,
		Notes:              req.Notes,
		IsTemplate:         true,
		StartDate:          &start,
		DaysSelected:       req.DaysSelected,
		RecurrenceInterval: req.RecurrenceInterval,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.EndDate != nil {
		end := entities.Midnight(*req.EndDate)
		tpl.EndDate = &end
	}

	if err := s.store.Insert(ctx, tpl); err != nil {
		return nil, err
	}

	sess := s.sessionFor(userID)
	sess.mu.Lock()
	if sess.coord != nil {
		set := sess.coord.Set()
		set.Put(tpl)
		for _, inst := range planner.Materialize(tpl, planner.ExpandTemplate(tpl, s.horizon)) {
			set.Put(inst)
		}
	}
	sess.mu.Unlock()

	s.logger.Infow("Template created", "task_id", tpl.ID, "type", tpl.Type)
	return tpl, nil
}

// ToggleTask flips a task's completed state through the coordinator and
// returns the task's current representation.
func (s *PlannerService) ToggleTask(ctx context.Context, userID uuid.UUID, id entities.TaskID) (*entities.Task, error) {
	coord, sess, err := s.coordinatorFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := coord.Toggle(ctx, id); err != nil {
		return nil, err
	}
	if t, ok := coord.Set().Get(id); ok {
		return t, nil
	}
	return nil, entities.ErrTaskNotFound
}

// UpdateTask patches a task through the coordinator and returns its current
// representation. For a promoted virtual instance the returned record
// carries the freshly generated override id.
func (s *PlannerService) UpdateTask(ctx context.Context, userID uuid.UUID, id entities.TaskID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	coord, sess, err := s.coordinatorFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	before, ok := coord.Set().Get(id)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	ref, hadRef := before.Ref()

	if err := coord.Update(ctx, id, req); err != nil {
		return nil, err
	}

	if t, ok := coord.Set().Get(id); ok {
		return t, nil
	}
	// Promotion replaced the synthetic id; resolve through the occurrence
	// index instead.
	if hadRef {
		if t, ok := coord.Set().Occurrence(ref.TemplateID, ref.DateString()); ok {
			return t, nil
		}
	}
	return nil, entities.ErrTaskNotFound
}

// DeleteTask removes a task through the coordinator.
func (s *PlannerService) DeleteTask(ctx context.Context, userID uuid.UUID, id entities.TaskID) error {
	coord, sess, err := s.coordinatorFor(ctx, userID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return coord.Delete(ctx, id)
}

func (s *PlannerService) sessionFor(userID uuid.UUID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

// coordinatorFor returns the user's coordinator, loading the full working
// set first if this session has never loaded one.
func (s *PlannerService) coordinatorFor(ctx context.Context, userID uuid.UUID) (*planner.Coordinator, *session, error) {
	sess := s.sessionFor(userID)

	sess.mu.Lock()
	coord := sess.coord
	sess.mu.Unlock()
	if coord != nil {
		return coord, sess, nil
	}

	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.coord == nil {
		set := planner.NewWorkingSet(planner.BuildCollection(rows, s.horizon))
		sess.coord = planner.NewCoordinator(set, s.store, s.logger, s.horizon)
	}
	return sess.coord, sess, nil
}

func (s *PlannerService) snapshotLocked(sess *session) []*entities.Task {
	if sess.coord == nil {
		return []*entities.Task{}
	}
	return sess.coord.Set().Tasks()
}
