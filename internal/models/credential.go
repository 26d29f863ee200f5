package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Credential links an Account to its login material. The engine never reads it.
type Credential struct {
	AccountID    string    `json:"account_id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:320;uniqueIndex;not null"`
	PasswordHash string    `json:"-"`
	FirebaseUID  *string   `json:"firebase_uid,omitempty" gorm:"size:128;uniqueIndex"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignupRequest registers an account with local email/password credentials.
type SignupRequest struct {
	RegisterAccountRequest
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SigninRequest authenticates with local credentials.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest exchanges a Firebase ID token for a local token.
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	Handle  string `json:"handle,omitempty" validate:"omitempty,handle"` // used only on first login
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	AccountID string `json:"account_id"`
	Handle    string `json:"handle"`
	jwt.RegisteredClaims
}
