// Package notify turns interaction transitions into notification records and
// serves the recipient's inbox. Fan-out runs inside the caller's transaction
// and only on a state transition, so a redundant write never notifies twice.
package notify

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
)

// FanOut creates and optionally retracts notifications.
type FanOut struct {
	retract bool
}

// NewFanOut creates a FanOut honoring the retraction policy in cfg.
func NewFanOut(cfg config.NotificationsConfig) *FanOut {
	return &FanOut{retract: cfg.RetractOnRemoval}
}

// Liked notifies the post author that actorID liked post. Self-likes yield nil.
func (f *FanOut) Liked(ctx context.Context, tx *repositories.Store, actorID string, post *models.Post) (*models.Notification, error) {
	return f.emit(ctx, tx, post.AuthorID, actorID, models.NotificationLike, &post.ID)
}

// Commented notifies the post author about a new comment by actorID.
func (f *FanOut) Commented(ctx context.Context, tx *repositories.Store, actorID string, post *models.Post) (*models.Notification, error) {
	return f.emit(ctx, tx, post.AuthorID, actorID, models.NotificationComment, &post.ID)
}

// Followed notifies followeeID of a new follower.
func (f *FanOut) Followed(ctx context.Context, tx *repositories.Store, followerID, followeeID string) (*models.Notification, error) {
	return f.emit(ctx, tx, followeeID, followerID, models.NotificationFollow, nil)
}

// Unliked retracts the like notification when retraction is enabled.
func (f *FanOut) Unliked(ctx context.Context, tx *repositories.Store, actorID string, post *models.Post) (bool, error) {
	return f.withdraw(ctx, tx, post.AuthorID, actorID, models.NotificationLike, &post.ID)
}

// Uncommented retracts one comment notification when retraction is enabled.
func (f *FanOut) Uncommented(ctx context.Context, tx *repositories.Store, actorID string, post *models.Post) (bool, error) {
	return f.withdraw(ctx, tx, post.AuthorID, actorID, models.NotificationComment, &post.ID)
}

// Unfollowed retracts the follow notification when retraction is enabled.
func (f *FanOut) Unfollowed(ctx context.Context, tx *repositories.Store, followerID, followeeID string) (bool, error) {
	return f.withdraw(ctx, tx, followeeID, followerID, models.NotificationFollow, nil)
}

func (f *FanOut) emit(ctx context.Context, tx *repositories.Store, recipientID, actorID string, kind models.NotificationKind, subject *string) (*models.Notification, error) {
	if recipientID == actorID {
		return nil, nil
	}
	n := &models.Notification{
		RecipientID:   recipientID,
		ActorID:       actorID,
		Kind:          kind,
		SubjectPostID: subject,
	}
	if err := tx.Notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (f *FanOut) withdraw(ctx context.Context, tx *repositories.Store, recipientID, actorID string, kind models.NotificationKind, subject *string) (bool, error) {
	if !f.retract || recipientID == actorID {
		return false, nil
	}
	return tx.Notifications.DeleteLatestMatching(ctx, recipientID, actorID, kind, subject)
}
