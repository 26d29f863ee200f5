package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/feed"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves feed pages
type FeedHandler struct {
	assembler *feed.Assembler
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(assembler *feed.Assembler) *FeedHandler {
	return &FeedHandler{assembler: assembler}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns one page of ?scope=global|author|following|keyword and
// ?order=chronological|trending
func (h *FeedHandler) GetFeed(c echo.Context) error {
	cursor, limit, err := page(c)
	if err != nil {
		return err
	}
	result, err := h.assembler.Feed(c.Request().Context(), feed.Query{
		Scope:    feed.Scope(c.QueryParam("scope")),
		Order:    feed.Order(c.QueryParam("order")),
		ViewerID: middleware.AccountID(c),
		AuthorID: c.QueryParam("author_id"),
		Keyword:  c.QueryParam("q"),
		Cursor:   cursor,
		Limit:    limit,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
