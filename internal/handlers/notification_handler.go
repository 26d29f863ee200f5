package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/notify"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the authenticated account's notifications
type NotificationHandler struct {
	inbox *notify.Inbox
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(inbox *notify.Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns a page of notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	cursor, limit, err := page(c)
	if err != nil {
		return err
	}
	result, err := h.inbox.List(c.Request().Context(), middleware.AccountID(c), cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetUnreadCount returns the derived unread count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	n, err := h.inbox.UnreadCount(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"unread_count": n})
}

// MarkAsRead marks one notification read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	if err := h.inbox.MarkAsRead(c.Request().Context(), middleware.AccountID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead marks every notification read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	n, err := h.inbox.MarkAllAsRead(c.Request().Context(), middleware.AccountID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
