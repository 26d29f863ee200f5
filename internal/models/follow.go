package models

import "time"

// FollowEdge is a directed follow relationship. The ordered pair is the key.
type FollowEdge struct {
	FollowerID string    `json:"follower_id" gorm:"primaryKey;size:36"`
	FolloweeID string    `json:"followee_id" gorm:"primaryKey;size:36;index"`
	CreatedAt  time.Time `json:"created_at"`

	Follower *Account `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followee *Account `json:"-" gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE"`
}

// TableName pins the relation name.
func (FollowEdge) TableName() string { return "follow_edges" }

// FollowResult is returned by follow mutations.
type FollowResult struct {
	Following bool `json:"following"`
}
