package interactions

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/internal/validators"
)

// CommentPage is one page of a post's comments, oldest first.
type CommentPage struct {
	Items      []models.CommentView `json:"items"`
	NextCursor string               `json:"next_cursor"`
}

// CreateComment adds a comment and notifies the post author.
func (s *Service) CreateComment(ctx context.Context, authorID, postID, body string) (*models.CommentView, error) {
	const op = "comments.create"
	if err := validators.CheckBody(op, body); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	author, err := s.store.Accounts.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: postID, AuthorID: authorID, Body: body, CreatedAt: s.now()}
	var notice *models.Notification
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		post, err := tx.Posts.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}
		notice, err = s.fanout.Commented(ctx, tx, authorID, post)
		return err
	})
	if err != nil {
		return nil, err
	}
	recordTransition(kindComment, metrics.OutcomeCreated, notice)
	return &models.CommentView{Comment: *comment, Author: author.ToSummary()}, nil
}

// DeleteComment removes a comment. The comment author and the post author
// may both delete it.
func (s *Service) DeleteComment(ctx context.Context, actorID, commentID string) error {
	const op = "comments.delete"
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var removed bool
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		comment, err := tx.Comments.GetByID(ctx, commentID)
		if err != nil {
			return err
		}
		post, err := tx.Posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return err
		}
		if actorID != comment.AuthorID && actorID != post.AuthorID {
			return apperr.Unauthorized(op, "only the comment or post author may delete a comment")
		}
		if removed, err = tx.Comments.Delete(ctx, commentID); err != nil || !removed {
			return err
		}
		_, err = s.fanout.Uncommented(ctx, tx, comment.AuthorID, post)
		return err
	})
	if err != nil {
		return err
	}
	recordTransition(kindComment, outcome(removed, metrics.OutcomeRemoved), nil)
	return nil
}

// ListComments pages through a post's comments in (created_at, id) order.
func (s *Service) ListComments(ctx context.Context, postID, cursor string, limit int) (*CommentPage, error) {
	after, err := repositories.DecodeKeyset(cursor)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.Posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	limit = s.limit(limit)
	comments, err := s.store.Comments.ListByPost(ctx, postID, after, limit+1)
	if err != nil {
		return nil, err
	}
	more := len(comments) > limit
	if more {
		comments = comments[:limit]
	}

	authorIDs := make([]string, len(comments))
	for i, c := range comments {
		authorIDs[i] = c.AuthorID
	}
	authors, err := s.store.Accounts.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	page := &CommentPage{Items: make([]models.CommentView, 0, len(comments))}
	for _, c := range comments {
		author := models.AccountSummary{ID: c.AuthorID}
		if acc, ok := authors[c.AuthorID]; ok {
			author = acc.ToSummary()
		}
		page.Items = append(page.Items, models.CommentView{Comment: c, Author: author})
	}
	if more {
		last := comments[len(comments)-1]
		page.NextCursor = repositories.EncodeKeyset(repositories.Keyset{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
