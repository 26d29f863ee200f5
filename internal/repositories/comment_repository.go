package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// Delete removes a comment; removed is false when it did not exist.
	Delete(ctx context.Context, id string) (removed bool, err error)
	// ListByPost returns comments oldest first, starting after the keyset.
	ListByPost(ctx context.Context, postID string, after *Keyset, limit int) ([]models.Comment, error)
	// CountByPostIDs returns live comment counts in one query. Posts without comments are absent.
	CountByPostIDs(ctx context.Context, postIDs []string) (map[string]int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// Create creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = NewID()
	}
	comment.CreatedAt = stamp(comment.CreatedAt)
	return translate(ctx, "comments.create", r.db.WithContext(ctx).Create(comment).Error)
}

// GetByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comments.get", "comment", id)
		}
		return nil, translate(ctx, "comments.get", err)
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return false, translate(ctx, "comments.delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresCommentRepository) ListByPost(ctx context.Context, postID string, after *Keyset, limit int) ([]models.Comment, error) {
	comments := []models.Comment{}
	q := keysetAfter(r.db.WithContext(ctx).Where("post_id = ?", postID), "id", after)
	err := q.Order("created_at ASC").Order("id ASC").Limit(limit).Find(&comments).Error
	return comments, translate(ctx, "comments.list", err)
}

func (r *PostgresCommentRepository) CountByPostIDs(ctx context.Context, postIDs []string) (map[string]int64, error) {
	return countsByPost(ctx, r.db, &models.Comment{}, "comments.count", postIDs)
}
