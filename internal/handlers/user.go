package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile and account requests
type UserHandler struct {
	svc *interactions.Service
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(svc *interactions.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// RegisterProfileRoutes registers routes for the authenticated account
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
}

// RegisterUserRoutes registers public account routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/followers", h.ListFollowers)
	g.GET("/users/:id/following", h.ListFollowing)
}

// GetProfile returns the authenticated account with its counts
func (h *UserHandler) GetProfile(c echo.Context) error {
	id := middleware.AccountID(c)
	view, err := h.svc.GetAccountView(c.Request().Context(), id, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateProfile edits the authenticated account
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id := middleware.AccountID(c)
	account, err := h.svc.UpdateProfile(c.Request().Context(), id, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// GetUser returns any account, with viewer_follows for a signed-in viewer
func (h *UserHandler) GetUser(c echo.Context) error {
	view, err := h.svc.GetAccountView(c.Request().Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// ListFollowers pages through an account's followers
func (h *UserHandler) ListFollowers(c echo.Context) error {
	cursor, limit, err := page(c)
	if err != nil {
		return err
	}
	result, err := h.svc.ListFollowers(c.Request().Context(), c.Param("id"), cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListFollowing pages through the accounts an account follows
func (h *UserHandler) ListFollowing(c echo.Context) error {
	cursor, limit, err := page(c)
	if err != nil {
		return err
	}
	result, err := h.svc.ListFollowing(c.Request().Context(), c.Param("id"), cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
