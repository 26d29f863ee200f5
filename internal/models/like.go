package models

import "time"

// Like is a user's like on a post. (UserID, PostID) is the key, so a user
// likes a given post at most once.
type Like struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:36"`
	PostID    string    `json:"post_id" gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time `json:"created_at"`

	User *Account `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Post *Post    `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// LikeResult is returned by like mutations.
type LikeResult struct {
	Liked bool `json:"liked"`
}
