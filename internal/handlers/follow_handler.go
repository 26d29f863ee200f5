package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow edge mutations
type FollowHandler struct {
	svc *interactions.Service
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(svc *interactions.Service) *FollowHandler {
	return &FollowHandler{svc: svc}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.POST("/users/:id/follow/toggle", h.ToggleFollow)
}

// Follow makes the authenticated account follow :id
func (h *FollowHandler) Follow(c echo.Context) error {
	res, err := h.svc.Follow(c.Request().Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// Unfollow removes the authenticated account's edge to :id
func (h *FollowHandler) Unfollow(c echo.Context) error {
	res, err := h.svc.Unfollow(c.Request().Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// ToggleFollow flips the authenticated account's edge to :id
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	res, err := h.svc.ToggleFollow(c.Request().Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
