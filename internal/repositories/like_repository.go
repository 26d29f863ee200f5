package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Insert adds the like; created is false when the user already liked the post.
	Insert(ctx context.Context, userID, postID string, at time.Time) (created bool, err error)
	// Delete removes the like; removed is false when there was none.
	Delete(ctx context.Context, userID, postID string) (removed bool, err error)
	Exists(ctx context.Context, userID, postID string) (bool, error)
	// CountByPostIDs returns live like counts in one query. Posts without likes are absent.
	CountByPostIDs(ctx context.Context, postIDs []string) (map[string]int64, error)
	// LikedPostIDs returns which of postIDs userID has liked, in one query.
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) Insert(ctx context.Context, userID, postID string, at time.Time) (bool, error) {
	like := models.Like{UserID: userID, PostID: postID, CreatedAt: stamp(at)}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
	if res.Error != nil {
		return false, translate(ctx, "likes.insert", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresLikeRepository) Delete(ctx context.Context, userID, postID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
	if res.Error != nil {
		return false, translate(ctx, "likes.delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Exists checks if a user has liked a specific post
func (r *PostgresLikeRepository) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, translate(ctx, "likes.exists", err)
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) CountByPostIDs(ctx context.Context, postIDs []string) (map[string]int64, error) {
	return countsByPost(ctx, r.db, &models.Like{}, "likes.count", postIDs)
}

func (r *PostgresLikeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return result, nil
	}
	var liked []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, translate(ctx, "likes.liked_post_ids", err)
	}
	for _, id := range liked {
		result[id] = true
	}
	return result, nil
}
