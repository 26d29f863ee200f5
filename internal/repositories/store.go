// Package repositories is the graph store adapter: typed point reads, keyset
// range reads and single-row atomic mutations over accounts, posts, follow
// edges, likes, comments and notifications.
//
// Inserts keyed by a natural unique constraint (likes, follow edges) are
// idempotent: a duplicate insert reports created=false instead of failing,
// and deletes of absent rows report removed=false. Callers use those flags to
// detect state transitions.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Keyset is the last-seen sort key of a page: (created_at, id).
type Keyset struct {
	CreatedAt time.Time
	ID        string
}

// Store groups the repositories that share one relational connection.
type Store struct {
	db            *gorm.DB
	Accounts      AccountRepository
	Credentials   CredentialRepository
	Posts         PostRepository
	Follows       FollowRepository
	Likes         LikeRepository
	Comments      CommentRepository
	Notifications NotificationRepository
}

// txBinder is implemented by repositories that can join a GORM transaction.
type txBinder interface {
	bindTx(tx *gorm.DB) PostRepository
}

// NewStore builds every relational repository on db. posts may be nil, in
// which case posts are kept in PostgreSQL too.
func NewStore(db *gorm.DB, posts PostRepository) *Store {
	if posts == nil {
		posts = NewPostgresPostRepository(db)
	}
	return &Store{
		db:            db,
		Accounts:      NewPostgresAccountRepository(db),
		Credentials:   NewPostgresCredentialRepository(db),
		Posts:         posts,
		Follows:       NewPostgresFollowRepository(db),
		Likes:         NewPostgresLikeRepository(db),
		Comments:      NewPostgresCommentRepository(db),
		Notifications: NewPostgresNotificationRepository(db),
	}
}

// Transaction runs fn with a Store whose relational repositories share one
// transaction. fn must use only tx; the root store may hold the sole connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(s.bind(gtx))
	})
	var appErr *apperr.Error
	if err != nil && !errors.As(err, &appErr) {
		return translate(ctx, "store.transaction", err)
	}
	return err
}

func (s *Store) bind(gtx *gorm.DB) *Store {
	posts := s.Posts
	if b, ok := posts.(txBinder); ok {
		posts = b.bindTx(gtx)
	}
	return &Store{
		db:            gtx,
		Accounts:      NewPostgresAccountRepository(gtx),
		Credentials:   NewPostgresCredentialRepository(gtx),
		Posts:         posts,
		Follows:       NewPostgresFollowRepository(gtx),
		Likes:         NewPostgresLikeRepository(gtx),
		Comments:      NewPostgresCommentRepository(gtx),
		Notifications: NewPostgresNotificationRepository(gtx),
	}
}

// AutoMigrate creates or updates every relation the service owns.
//
// Likes, comments and notifications reference their post with ON DELETE
// CASCADE. When posts live in MongoDB (relationalPosts false) the connection
// must be opened with DisableForeignKeyConstraintWhenMigrating, and only the
// account references are added here.
func AutoMigrate(db *gorm.DB, relationalPosts bool) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Credential{},
		&models.Post{},
		&models.FollowEdge{},
		&models.Like{},
		&models.Comment{},
		&models.Notification{},
	); err != nil {
		return err
	}
	if relationalPosts {
		return nil
	}
	m := db.Migrator()
	for _, ref := range accountReferences {
		if m.HasConstraint(ref.model, ref.relation) {
			continue
		}
		if err := m.CreateConstraint(ref.model, ref.relation); err != nil {
			return fmt.Errorf("constraint %s: %w", ref.relation, err)
		}
	}
	return nil
}

var accountReferences = []struct {
	model    interface{}
	relation string
}{
	{&models.FollowEdge{}, "Follower"},
	{&models.FollowEdge{}, "Followee"},
	{&models.Like{}, "User"},
	{&models.Comment{}, "AuthorAccount"},
	{&models.Notification{}, "Recipient"},
	{&models.Notification{}, "ActorAccount"},
}

// NewID returns a fresh opaque, time-sortable identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Now is the store clock: UTC at the microsecond precision PostgreSQL keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return Now()
	}
	return t.UTC()
}

// translate classifies a driver error under the apperr taxonomy.
func translate(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.ErrNotFound, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		// The referenced post or account was deleted under us.
		return apperr.Wrap(apperr.ErrNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), mongo.IsDuplicateKeyError(err):
		return apperr.Wrap(apperr.ErrConflict, op, err)
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err),
		ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Wrap(apperr.ErrTimeout, op, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return apperr.Wrap(apperr.ErrUnavailable, op, err)
	}
}

// likePattern builds a case-insensitive LIKE pattern matching q anywhere.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

// keysetBefore restricts a (created_at DESC, id DESC) scan to rows after k.
func keysetBefore(db *gorm.DB, idColumn string, k *Keyset) *gorm.DB {
	if k == nil {
		return db
	}
	return db.Where(
		fmt.Sprintf("(created_at < ? OR (created_at = ? AND %s < ?))", idColumn),
		k.CreatedAt, k.CreatedAt, k.ID,
	)
}

// keysetAfter restricts a (created_at ASC, id ASC) scan to rows after k.
func keysetAfter(db *gorm.DB, idColumn string, k *Keyset) *gorm.DB {
	if k == nil {
		return db
	}
	return db.Where(
		fmt.Sprintf("(created_at > ? OR (created_at = ? AND %s > ?))", idColumn),
		k.CreatedAt, k.CreatedAt, k.ID,
	)
}

type countRow struct {
	PostID string
	N      int64
}

func countsByPost(ctx context.Context, db *gorm.DB, model interface{}, op string, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []countRow
	err := db.WithContext(ctx).Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(ctx, op, err)
	}
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}
