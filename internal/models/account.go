package models

import "time"

// Account is one registered user. It is mutated only by its owner and never hard-deleted.
type Account struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Handle      string    `json:"handle" gorm:"size:30;not null"`
	HandleKey   string    `json:"-" gorm:"size:30;not null;uniqueIndex"` // lower-cased Handle
	DisplayName string    `json:"display_name" gorm:"size:200"`
	Bio         string    `json:"bio" gorm:"type:text"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// AccountSummary is the compact author/actor shape embedded in read-models.
type AccountSummary struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ToSummary converts an Account to its compact form.
func (a *Account) ToSummary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}

// AccountView is an account with derived relationship counts.
type AccountView struct {
	Account
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	PostCount      int64 `json:"post_count"`
	ViewerFollows  bool  `json:"viewer_follows"`
}

// RegisterAccountRequest defines the profile fields supplied at registration.
type RegisterAccountRequest struct {
	Handle      string `json:"handle" validate:"required,handle"`
	DisplayName string `json:"display_name" validate:"maxgraphemes=50"`
	Bio         string `json:"bio" validate:"maxgraphemes=160"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
}

// UpdateProfileRequest defines a partial profile update. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,maxgraphemes=50"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,maxgraphemes=160"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
