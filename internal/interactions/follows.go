package interactions

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
)

// Follow creates the edge followerID -> followeeID. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error) {
	return s.setFollow(ctx, followerID, followeeID, func(tx *repositories.Store) (bool, bool, *models.Notification, error) {
		return s.insertFollow(ctx, tx, followerID, followeeID)
	})
}

// Unfollow removes the edge followerID -> followeeID. The reverse edge is untouched.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error) {
	return s.setFollow(ctx, followerID, followeeID, func(tx *repositories.Store) (bool, bool, *models.Notification, error) {
		return s.deleteFollow(ctx, tx, followerID, followeeID)
	})
}

// ToggleFollow flips the edge followerID -> followeeID.
func (s *Service) ToggleFollow(ctx context.Context, followerID, followeeID string) (*models.FollowResult, error) {
	return s.setFollow(ctx, followerID, followeeID, func(tx *repositories.Store) (bool, bool, *models.Notification, error) {
		following, changed, n, err := s.deleteFollow(ctx, tx, followerID, followeeID)
		if err != nil || changed {
			return following, changed, n, err
		}
		return s.insertFollow(ctx, tx, followerID, followeeID)
	})
}

type followMutation func(tx *repositories.Store) (following, changed bool, n *models.Notification, err error)

func (s *Service) setFollow(ctx context.Context, followerID, followeeID string, mutate followMutation) (*models.FollowResult, error) {
	const op = "follows.set"
	if followerID == followeeID {
		return nil, apperr.Validation(op, "an account cannot follow itself")
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var (
		following, changed bool
		notice             *models.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Accounts.GetByID(ctx, followerID); err != nil {
			return err
		}
		if _, err := tx.Accounts.GetByID(ctx, followeeID); err != nil {
			return err
		}
		var err error
		following, changed, notice, err = mutate(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	onChange := metrics.OutcomeRemoved
	if following {
		onChange = metrics.OutcomeCreated
	}
	recordTransition(kindFollow, outcome(changed, onChange), notice)
	return &models.FollowResult{Following: following}, nil
}

func (s *Service) insertFollow(ctx context.Context, tx *repositories.Store, followerID, followeeID string) (bool, bool, *models.Notification, error) {
	created, err := tx.Follows.Insert(ctx, followerID, followeeID, s.now())
	if err != nil || !created {
		return true, false, nil, err
	}
	n, err := s.fanout.Followed(ctx, tx, followerID, followeeID)
	return true, true, n, err
}

func (s *Service) deleteFollow(ctx context.Context, tx *repositories.Store, followerID, followeeID string) (bool, bool, *models.Notification, error) {
	removed, err := tx.Follows.Delete(ctx, followerID, followeeID)
	if err != nil || !removed {
		return false, false, nil, err
	}
	_, err = s.fanout.Unfollowed(ctx, tx, followerID, followeeID)
	return false, true, nil, err
}
