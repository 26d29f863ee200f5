package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

// MongoPostRepository keeps posts in MongoDB while their likes, comments and
// notifications stay in PostgreSQL.
type MongoPostRepository struct {
	collection *mongo.Collection
	pgDB       *gorm.DB
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database, pgDB *gorm.DB) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts"), pgDB: pgDB}
}

func (r *MongoPostRepository) bindTx(tx *gorm.DB) PostRepository {
	return &MongoPostRepository{collection: r.collection, pgDB: tx}
}

// EnsureIndexes creates the indexes the range scans rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return translate(ctx, "posts.ensure_indexes", err)
}

// Create inserts a post. BSON dates keep milliseconds, so created_at is truncated to match.
func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = NewID()
	}
	post.CreatedAt = stamp(post.CreatedAt).Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, post)
	return translate(ctx, "posts.create", err)
}

// GetByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("posts.get", "post", id)
		}
		return nil, translate(ctx, "posts.get", err)
	}
	normalizePost(&post)
	return &post, nil
}

func (r *MongoPostRepository) List(ctx context.Context, filter PostFilter, after *Keyset, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if filter.AuthorIDs != nil && len(filter.AuthorIDs) == 0 {
		return posts, nil
	}
	query := bson.D{}
	if filter.AuthorIDs != nil {
		query = append(query, bson.E{Key: "author_id", Value: bson.M{"$in": filter.AuthorIDs}})
	}
	if filter.Keyword != "" {
		query = append(query, bson.E{Key: "body", Value: bson.M{
			"$regex": regexp.QuoteMeta(filter.Keyword), "$options": "i",
		}})
	}
	if after != nil {
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.M{"created_at": bson.M{"$lt": after.CreatedAt}},
			bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
		}})
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, translate(ctx, "posts.list", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, translate(ctx, "posts.list", err)
	}
	for i := range posts {
		normalizePost(&posts[i])
	}
	return posts, nil
}

func (r *MongoPostRepository) UpdateBody(ctx context.Context, id, body string, editedAt time.Time) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"body": body, "updated_at": editedAt.UTC()},
	})
	if err != nil {
		return translate(ctx, "posts.update", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("posts.update", "post", id)
	}
	return nil
}

// Delete removes relational dependents first and the document last, inside
// one PostgreSQL transaction so a failed document delete rolls them back.
func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	err := r.pgDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePostDependents(tx, id); err != nil {
			return err
		}
		_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	return translate(ctx, "posts.delete", err)
}

func (r *MongoPostRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"author_id": authorID})
	return n, translate(ctx, "posts.count_by_author", err)
}

func normalizePost(p *models.Post) {
	p.CreatedAt = p.CreatedAt.UTC()
	if p.EditedAt != nil {
		t := p.EditedAt.UTC()
		p.EditedAt = &t
	}
}
