package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	PostID    string    `json:"post_id" gorm:"size:36;not null;index:idx_comments_post_created,priority:1"`
	AuthorID  string    `json:"author_id" gorm:"size:36;not null"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_comments_post_created,priority:2"`

	Post          *Post    `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorAccount *Account `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// CommentView is a comment with its author summary.
type CommentView struct {
	Comment
	Author AccountSummary `json:"author"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,maxgraphemes=280"`
}
