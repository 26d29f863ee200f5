package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post range scan. A nil AuthorIDs means every author;
// a non-nil empty slice matches nothing. Keyword is a case-insensitive
// substring of the body.
type PostFilter struct {
	AuthorIDs []string
	Keyword   string
}

// ScoreKeyset is the last-seen sort key of a trending page: (score, created_at, id).
type ScoreKeyset struct {
	Score     int64
	CreatedAt time.Time
	ID        string
}

// ScoredPost is a post with its trending score.
type ScoredPost struct {
	models.Post
	Score int64
}

// TrendingLister is implemented by post stores that rank by engagement
// themselves, over every post of the filter. Score is
// likeWeight*likes + commentWeight*comments.
type TrendingLister interface {
	ListTrending(ctx context.Context, filter PostFilter, likeWeight, commentWeight int64, after *ScoreKeyset, limit int) ([]ScoredPost, error)
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// List returns posts ordered by (created_at, id) descending, starting after the keyset.
	List(ctx context.Context, filter PostFilter, after *Keyset, limit int) ([]models.Post, error)
	UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error
	// Delete removes the post and its likes, comments and notifications. Deleting an absent post is a no-op.
	Delete(ctx context.Context, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB

	// inTx makes GetByID hold a share lock until commit, so a concurrent
	// Delete cannot remove the post under a like or comment being written.
	inTx bool
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) bindTx(tx *gorm.DB) PostRepository {
	return &PostgresPostRepository{db: tx, inTx: true}
}

// Create inserts a post, assigning id and created_at when unset.
func (r *PostgresPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = NewID()
	}
	post.CreatedAt = stamp(post.CreatedAt)
	return translate(ctx, "posts.create", r.db.WithContext(ctx).Create(post).Error)
}

// GetByID retrieves a post by id
func (r *PostgresPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	q := r.db.WithContext(ctx)
	if r.inTx {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthShare})
	}
	if err := q.Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("posts.get", "post", id)
		}
		return nil, translate(ctx, "posts.get", err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) List(ctx context.Context, filter PostFilter, after *Keyset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return posts, nil
	}
	q := applyPostFilter(r.db.WithContext(ctx).Model(&models.Post{}), filter)
	q = keysetBefore(q, "id", after)
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, translate(ctx, "posts.list", err)
	}
	return posts, nil
}

// ListTrending ranks in SQL: posts left-joined to grouped like and comment
// counts, ordered by (score, created_at, id) descending.
func (r *PostgresPostRepository) ListTrending(ctx context.Context, filter PostFilter, likeWeight, commentWeight int64, after *ScoreKeyset, limit int) ([]ScoredPost, error) {
	ranked := []ScoredPost{}
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return ranked, nil
	}
	likes := r.db.WithContext(ctx).Model(&models.Like{}).Select("post_id, COUNT(*) AS n").Group("post_id")
	comments := r.db.WithContext(ctx).Model(&models.Comment{}).Select("post_id, COUNT(*) AS n").Group("post_id")
	scored := r.db.WithContext(ctx).Model(&models.Post{}).
		Select(fmt.Sprintf("posts.*, %d * COALESCE(l.n, 0) + %d * COALESCE(c.n, 0) AS score", likeWeight, commentWeight)).
		Joins("LEFT JOIN (?) AS l ON l.post_id = posts.id", likes).
		Joins("LEFT JOIN (?) AS c ON c.post_id = posts.id", comments)
	scored = applyPostFilter(scored, filter)

	q := r.db.WithContext(ctx).Table("(?) AS ranked", scored)
	if after != nil {
		q = q.Where("(score < ? OR (score = ? AND (created_at < ? OR (created_at = ? AND id < ?))))",
			after.Score, after.Score, after.CreatedAt, after.CreatedAt, after.ID)
	}
	err := q.Order("score DESC").Order("created_at DESC").Order("id DESC").Limit(limit).Find(&ranked).Error
	if err != nil {
		return nil, translate(ctx, "posts.list_trending", err)
	}
	return ranked, nil
}

func applyPostFilter(q *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.AuthorIDs != nil {
		q = q.Where("author_id IN ?", filter.AuthorIDs)
	}
	if filter.Keyword != "" {
		q = q.Where(`LOWER(body) LIKE ? ESCAPE '\'`, likePattern(filter.Keyword))
	}
	return q
}

// UpdateBody replaces the body and sets updated_at.
func (r *PostgresPostRepository) UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"body": body, "updated_at": editedAt.UTC()})
	if res.Error != nil {
		return translate(ctx, "posts.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("posts.update", "post", id)
	}
	return nil
}

// Delete cascades to dependents inside one transaction. The post row is
// locked first so writers holding a share lock on it finish before the
// dependents are removed; the foreign keys cascade whatever remains.
func (r *PostgresPostRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []models.Post
		if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Select("id").Where("id = ?", id).Find(&locked).Error; err != nil {
			return err
		}
		if len(locked) == 0 {
			return nil
		}
		if err := deletePostDependents(tx, id); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Post{}).Error
	})
	return translate(ctx, "posts.delete", err)
}

func (r *PostgresPostRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, translate(ctx, "posts.count_by_author", err)
}

// deletePostDependents removes every row that references the post.
func deletePostDependents(tx *gorm.DB, postID string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	return tx.Where("subject_post_id = ?", postID).Delete(&models.Notification{}).Error
}
