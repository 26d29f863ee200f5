package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	// Insert adds the edge; created is false when it already existed.
	Insert(ctx context.Context, followerID, followeeID string, at time.Time) (created bool, err error)
	// Delete removes the edge; removed is false when it did not exist.
	Delete(ctx context.Context, followerID, followeeID string) (removed bool, err error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	FolloweeIDs(ctx context.Context, followerID string) ([]string, error)
	CountFollowers(ctx context.Context, accountID string) (int64, error)
	CountFollowing(ctx context.Context, accountID string) (int64, error)
	// ListFollowers pages edges pointing at accountID; the keyset id is the follower id.
	ListFollowers(ctx context.Context, accountID string, after *Keyset, limit int) ([]models.FollowEdge, error)
	// ListFollowing pages edges leaving accountID; the keyset id is the followee id.
	ListFollowing(ctx context.Context, accountID string, after *Keyset, limit int) ([]models.FollowEdge, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) Insert(ctx context.Context, followerID, followeeID string, at time.Time) (bool, error) {
	edge := models.FollowEdge{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: stamp(at)}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
	if res.Error != nil {
		return false, translate(ctx, "follows.insert", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PostgresFollowRepository) Delete(ctx context.Context, followerID, followeeID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.FollowEdge{})
	if res.Error != nil {
		return false, translate(ctx, "follows.delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresFollowRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, translate(ctx, "follows.exists", err)
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) FolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ?", followerID).
		Pluck("followee_id", &ids).Error
	return ids, translate(ctx, "follows.followee_ids", err)
}

func (r *PostgresFollowRepository) CountFollowers(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowEdge{}).Where("followee_id = ?", accountID).Count(&count).Error
	return count, translate(ctx, "follows.count_followers", err)
}

func (r *PostgresFollowRepository) CountFollowing(ctx context.Context, accountID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowEdge{}).Where("follower_id = ?", accountID).Count(&count).Error
	return count, translate(ctx, "follows.count_following", err)
}

func (r *PostgresFollowRepository) ListFollowers(ctx context.Context, accountID string, after *Keyset, limit int) ([]models.FollowEdge, error) {
	return r.list(ctx, "followee_id", "follower_id", accountID, after, limit)
}

func (r *PostgresFollowRepository) ListFollowing(ctx context.Context, accountID string, after *Keyset, limit int) ([]models.FollowEdge, error) {
	return r.list(ctx, "follower_id", "followee_id", accountID, after, limit)
}

func (r *PostgresFollowRepository) list(ctx context.Context, anchor, other, accountID string, after *Keyset, limit int) ([]models.FollowEdge, error) {
	edges := []models.FollowEdge{}
	q := r.db.WithContext(ctx).Where(anchor+" = ?", accountID)
	q = keysetBefore(q, other, after)
	err := q.Order("created_at DESC").Order(other + " DESC").Limit(limit).Find(&edges).Error
	return edges, translate(ctx, "follows.list", err)
}
