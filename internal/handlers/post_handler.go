package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	svc *interactions.Service
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(svc *interactions.Service) *PostHandler {
	return &PostHandler{svc: svc}
}

// RegisterPostRoutes registers post mutation routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// RegisterPublicPostRoutes registers post reads
func (h *PostHandler) RegisterPublicPostRoutes(g *echo.Group) {
	g.GET("/posts/:id", h.GetPost)
}

// CreatePost publishes a post for the authenticated account
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.svc.CreatePost(c.Request().Context(), middleware.AccountID(c), req.Body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetPost returns a post view
func (h *PostHandler) GetPost(c echo.Context) error {
	view, err := h.svc.GetPostView(c.Request().Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// UpdatePost edits a post owned by the authenticated account
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var req models.UpdatePostRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.svc.EditPost(c.Request().Context(), middleware.AccountID(c), c.Param("id"), req.Body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeletePost removes a post owned by the authenticated account
func (h *PostHandler) DeletePost(c echo.Context) error {
	if err := h.svc.DeletePost(c.Request().Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
