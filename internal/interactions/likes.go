package interactions

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
)

// Like sets userID's like on postID. Liking an already-liked post is a
// no-op that neither fails nor notifies again.
func (s *Service) Like(ctx context.Context, userID, postID string) (*models.LikeResult, error) {
	return s.setLike(ctx, userID, postID, func(tx *repositories.Store, post *models.Post) (bool, bool, *models.Notification, error) {
		return s.insertLike(ctx, tx, userID, post)
	})
}

// Unlike clears userID's like on postID. Unliking a post that is not liked
// is a no-op.
func (s *Service) Unlike(ctx context.Context, userID, postID string) (*models.LikeResult, error) {
	return s.setLike(ctx, userID, postID, func(tx *repositories.Store, post *models.Post) (bool, bool, *models.Notification, error) {
		return s.deleteLike(ctx, tx, userID, post)
	})
}

// ToggleLike flips userID's like on postID. The delete is attempted first so
// the toggle is a single keyed write in either direction.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (*models.LikeResult, error) {
	return s.setLike(ctx, userID, postID, func(tx *repositories.Store, post *models.Post) (bool, bool, *models.Notification, error) {
		liked, changed, n, err := s.deleteLike(ctx, tx, userID, post)
		if err != nil || changed {
			return liked, changed, n, err
		}
		return s.insertLike(ctx, tx, userID, post)
	})
}

type likeMutation func(tx *repositories.Store, post *models.Post) (liked, changed bool, n *models.Notification, err error)

func (s *Service) setLike(ctx context.Context, userID, postID string, mutate likeMutation) (*models.LikeResult, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.Accounts.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	var (
		liked, changed bool
		notice         *models.Notification
	)
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		liked, changed, notice, err = mutate(tx, post)
		return err
	})
	if err != nil {
		return nil, err
	}
	onChange := metrics.OutcomeRemoved
	if liked {
		onChange = metrics.OutcomeCreated
	}
	recordTransition(kindLike, outcome(changed, onChange), notice)
	return &models.LikeResult{Liked: liked}, nil
}

func (s *Service) insertLike(ctx context.Context, tx *repositories.Store, userID string, post *models.Post) (bool, bool, *models.Notification, error) {
	created, err := tx.Likes.Insert(ctx, userID, post.ID, s.now())
	if err != nil || !created {
		return true, false, nil, err
	}
	n, err := s.fanout.Liked(ctx, tx, userID, post)
	return true, true, n, err
}

func (s *Service) deleteLike(ctx context.Context, tx *repositories.Store, userID string, post *models.Post) (bool, bool, *models.Notification, error) {
	removed, err := tx.Likes.Delete(ctx, userID, post.ID)
	if err != nil || !removed {
		return false, false, nil, err
	}
	_, err = s.fanout.Unliked(ctx, tx, userID, post)
	return false, true, nil, err
}
