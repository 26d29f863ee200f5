package models

import "time"

// Post is a short text post owned by AuthorID. It is stored either in
// PostgreSQL (gorm) or MongoDB (bson) depending on database.post_store.
type Post struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	AuthorID  string     `json:"author_id" gorm:"size:36;not null;index:idx_posts_author_created,priority:1" bson:"author_id"`
	Body      string     `json:"body" gorm:"type:text;not null" bson:"body"`
	CreatedAt time.Time  `json:"created_at" gorm:"not null;index:idx_posts_author_created,priority:2;index:idx_posts_created" bson:"created_at"`
	EditedAt  *time.Time `json:"updated_at" gorm:"column:updated_at" bson:"updated_at,omitempty"` // set only on edit
}

// PostView is the read-model the presentation layer renders. Counts are
// derived from live rows on every read.
type PostView struct {
	Post
	Author         AccountSummary `json:"author"`
	Hashtags       []string       `json:"hashtags"`
	LikeCount      int64          `json:"like_count"`
	CommentCount   int64          `json:"comment_count"`
	ViewerHasLiked bool           `json:"viewer_has_liked"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Body string `json:"body" validate:"required,maxgraphemes=280"`
}

// UpdatePostRequest defines the request body for editing a post
type UpdatePostRequest struct {
	Body string `json:"body" validate:"required,maxgraphemes=280"`
}
