package notify

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
)

// Page is one page of a recipient's notifications, newest first.
type Page struct {
	Items      []models.NotificationView `json:"items"`
	NextCursor string                    `json:"next_cursor"`
}

// Inbox is the read side of notifications.
type Inbox struct {
	notifications repositories.NotificationRepository
	accounts      repositories.AccountRepository
	limits        config.FeedConfig
	timeout       time.Duration
}

// NewInbox creates an Inbox. Page sizes follow the feed limits.
func NewInbox(store *repositories.Store, limits config.FeedConfig, timeout time.Duration) *Inbox {
	return &Inbox{
		notifications: store.Notifications,
		accounts:      store.Accounts,
		limits:        limits,
		timeout:       timeout,
	}
}

// List returns a page of recipientID's notifications with actor summaries.
func (i *Inbox) List(ctx context.Context, recipientID, cursor string, limit int) (*Page, error) {
	after, err := repositories.DecodeKeyset(cursor)
	if err != nil {
		return nil, err
	}
	ctx, cancel := i.bound(ctx)
	defer cancel()

	limit = i.limit(limit)
	rows, err := i.notifications.ListByRecipient(ctx, recipientID, after, limit+1)
	if err != nil {
		return nil, err
	}
	more := len(rows) > limit
	if more {
		rows = rows[:limit]
	}

	actorIDs := make([]string, len(rows))
	for k, n := range rows {
		actorIDs[k] = n.ActorID
	}
	actors, err := i.accounts.GetByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: make([]models.NotificationView, 0, len(rows))}
	for _, n := range rows {
		actor := models.AccountSummary{ID: n.ActorID}
		if acc, ok := actors[n.ActorID]; ok {
			actor = acc.ToSummary()
		}
		page.Items = append(page.Items, models.NotificationView{Notification: n, Actor: actor})
	}
	if more {
		last := rows[len(rows)-1]
		page.NextCursor = repositories.EncodeKeyset(repositories.Keyset{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UnreadCount is derived from live rows on every call.
func (i *Inbox) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	return i.notifications.CountUnread(ctx, recipientID)
}

// MarkAsRead marks one notification read. Only its recipient may do so.
func (i *Inbox) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	ctx, cancel := i.bound(ctx)
	defer cancel()

	n, err := i.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.RecipientID != recipientID {
		return apperr.Unauthorized("notifications.mark_read", "notification belongs to another account")
	}
	if n.Read {
		return nil
	}
	return i.notifications.MarkRead(ctx, notificationID)
}

// MarkAllAsRead marks every unread notification of recipientID read and
// reports how many changed.
func (i *Inbox) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()

	changed, err := i.notifications.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Debug().Str("recipient_id", recipientID).Int64("changed", changed).Msg("notifications marked read")
	return changed, nil
}

func (i *Inbox) limit(n int) int {
	switch {
	case n <= 0:
		return i.limits.DefaultLimit
	case n > i.limits.MaxLimit:
		return i.limits.MaxLimit
	default:
		return n
	}
}

func (i *Inbox) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, i.timeout)
}
