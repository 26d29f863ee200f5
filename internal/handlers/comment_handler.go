package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	svc *interactions.Service
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(svc *interactions.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// RegisterCommentRoutes registers comment mutation routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// RegisterPublicCommentRoutes registers comment reads
func (h *CommentHandler) RegisterPublicCommentRoutes(g *echo.Group) {
	g.GET("/posts/:post_id/comments", h.ListComments)
}

// CreateComment comments on a post as the authenticated account
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.svc.CreateComment(c.Request().Context(), middleware.AccountID(c), c.Param("post_id"), req.Body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// ListComments returns a page of comments, oldest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	cursor, limit, err := page(c)
	if err != nil {
		return err
	}
	result, err := h.svc.ListComments(c.Request().Context(), c.Param("post_id"), cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteComment removes a comment; allowed for its author and the post author
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	if err := h.svc.DeleteComment(c.Request().Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
