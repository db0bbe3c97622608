package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dayplan/core/internal/application/services"
	"github.com/dayplan/core/internal/domain/entities"
	"github.com/dayplan/core/internal/infrastructure/logger"
	"github.com/dayplan/core/internal/ports"
)

// TaskHandler exposes the planner over HTTP
type TaskHandler struct {
	plannerService *services.PlannerService
	logger         *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(plannerService *services.PlannerService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		plannerService: plannerService,
		logger:         logger,
	}
}

// ListTasks returns the user's full unified collection: plain tasks,
// templates, and one occurrence per template per eligible date.
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	tasks, err := h.plannerService.LoadTasks(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// ListRange returns the collection bounded to [from, to] calendar days.
func (h *TaskHandler) ListRange(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	from, err := entities.ParseDateString(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
	}
	to, err := entities.ParseDateString(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
	}

	tasks, err := h.plannerService.LoadRange(c.Request().Context(), userID, from, to)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// CreateTask creates a plain or related task
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.plannerService.CreateTask(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("Task creation failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// CreateTemplate creates a recurring-task definition
func (h *TaskHandler) CreateTemplate(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req ports.CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tpl, err := h.plannerService.CreateTemplate(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("Template creation failed", "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, tpl)
}

// ToggleTask flips a task's completed state
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id := entities.TaskID(c.Param("id"))
	task, err := h.plannerService.ToggleTask(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask patches a task. Editing a virtual instance promotes it to a
// persisted override; the response carries the new record.
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	id := entities.TaskID(c.Param("id"))
	task, err := h.plannerService.UpdateTask(c.Request().Context(), userID, id, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id := entities.TaskID(c.Param("id"))
	if err := h.plannerService.DeleteTask(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
