package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dayplan/core/internal/application/services"
	"github.com/dayplan/core/internal/infrastructure/logger"
	"github.com/dayplan/core/internal/ports"
)

// UserHandler handles user profile requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetCurrentUser returns the authenticated user's profile
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser updates the authenticated user's profile
func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("User update failed", "error", err, "user_id", userID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteCurrentUser removes the authenticated user's account
func (h *UserHandler) DeleteCurrentUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.userService.DeleteUser(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
