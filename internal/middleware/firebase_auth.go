package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseResolver accepts Firebase ID tokens of users who have linked an
// account through firebase-login.
type FirebaseResolver struct {
	verifier    IDTokenVerifier
	credentials repositories.CredentialRepository
}

// NewFirebaseResolver creates a FirebaseResolver.
func NewFirebaseResolver(verifier IDTokenVerifier, credentials repositories.CredentialRepository) *FirebaseResolver {
	return &FirebaseResolver{verifier: verifier, credentials: credentials}
}

// ResolveToken verifies idToken and maps its UID to the linked account.
func (f *FirebaseResolver) ResolveToken(ctx context.Context, idToken string) (string, error) {
	token, err := f.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}
	cred, err := f.credentials.GetByFirebaseUID(ctx, token.UID)
	if err != nil {
		return "", err
	}
	return cred.AccountID, nil
}
