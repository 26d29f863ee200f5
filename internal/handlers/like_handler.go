package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	svc *interactions.Service
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(svc *interactions.Service) *LikeHandler {
	return &LikeHandler{svc: svc}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.POST("/posts/:post_id/likes/toggle", h.ToggleLike)
}

// LikePost likes a post. Liking twice returns the same state.
func (h *LikeHandler) LikePost(c echo.Context) error {
	res, err := h.svc.Like(c.Request().Context(), middleware.AccountID(c), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// UnlikePost removes a like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	res, err := h.svc.Unlike(c.Request().Context(), middleware.AccountID(c), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// ToggleLike flips the like state
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	res, err := h.svc.ToggleLike(c.Request().Context(), middleware.AccountID(c), c.Param("post_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}
