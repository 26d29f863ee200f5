package interactions

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/validators"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
)

// CreatePost publishes body for authorID and returns its view.
func (s *Service) CreatePost(ctx context.Context, authorID, body string) (*models.PostView, error) {
	const op = "posts.create"
	if err := validators.CheckBody(op, body); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.Accounts.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	post := &models.Post{AuthorID: authorID, Body: body, CreatedAt: s.now()}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	metrics.RecordInteraction(kindPost, metrics.OutcomeCreated)
	logging.Ctx(ctx).Info().Str("post_id", post.ID).Str("author_id", authorID).Msg("post created")
	return s.postView(ctx, post, authorID)
}

// EditPost replaces the body of postID. Only the author may edit.
func (s *Service) EditPost(ctx context.Context, actorID, postID, body string) (*models.PostView, error) {
	const op = "posts.edit"
	if err := validators.CheckBody(op, body); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, apperr.Unauthorized(op, "only the author may edit a post")
	}
	editedAt := s.now()
	if err := s.store.Posts.UpdateBody(ctx, postID, body, editedAt); err != nil {
		return nil, err
	}
	post.Body = body
	post.EditedAt = &editedAt
	return s.postView(ctx, post, actorID)
}

// DeletePost removes postID with its likes, comments and notifications.
// Only the author may delete.
func (s *Service) DeletePost(ctx context.Context, actorID, postID string) error {
	const op = "posts.delete"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	post, err := s.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperr.Unauthorized(op, "only the author may delete a post")
	}
	if err := s.store.Posts.Delete(ctx, postID); err != nil {
		return err
	}
	metrics.RecordInteraction(kindPost, metrics.OutcomeRemoved)
	logging.Ctx(ctx).Info().Str("post_id", postID).Msg("post deleted")
	return nil
}

// GetPostView returns one post with engagement relative to viewerID.
func (s *Service) GetPostView(ctx context.Context, postID, viewerID string) (*models.PostView, error) {
	return s.views.View(ctx, postID, viewerID)
}

func (s *Service) postView(ctx context.Context, post *models.Post, viewerID string) (*models.PostView, error) {
	views, err := s.views.Views(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
