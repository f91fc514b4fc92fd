package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tmoran/ridelink/internal/middleware"
)

// UserHandler serves the current-user endpoint.
type UserHandler struct{}

// NewUserHandler creates a new UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// GetCurrentUser returns the user resolved by the CurrentUser middleware.
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	user := middleware.UserFromContext(c)
	if user == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "User not found"})
	}
	return c.JSON(http.StatusOK, user)
}
