package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories/repotest"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/", func(c echo.Context) error {
		seen = AccountID(c)
		return c.NoContent(http.StatusNoContent)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTRoundTrip(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	token, err := issuer.Issue(&models.Account{ID: "acc-1", Handle: "alice"})
	require.NoError(t, err)

	rec, seen := serve(t, JWTAuthMiddleware(issuer), "Bearer "+token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "acc-1", seen)
}

func TestJWTRejectsBadTokens(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	other, err := NewJWTIssuer("other", time.Hour).Issue(&models.Account{ID: "acc-1"})
	require.NoError(t, err)

	expiredIssuer := NewJWTIssuer("secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(&models.Account{ID: "acc-1"})
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"scheme":    "Token abc",
		"signature": "Bearer " + other,
		"expired":   "Bearer " + expired,
	} {
		rec, _ := serve(t, JWTAuthMiddleware(issuer), header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestOptionalAuth(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)

	rec, seen := serve(t, OptionalAuthMiddleware(issuer), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, seen)

	rec, _ = serve(t, OptionalAuthMiddleware(issuer), "Bearer junk")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubVerifier map[string]string

func (s stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := s[idToken]
	if !ok {
		return nil, errors.New("bad id token")
	}
	return &auth.Token{UID: uid}, nil
}

func TestFirebaseResolverFallback(t *testing.T) {
	ctx := context.Background()
	s := repotest.NewStore(t)
	uid := "fb-uid"
	require.NoError(t, s.Credentials.Create(ctx, &models.Credential{AccountID: "acc-9", Email: "x@example.com", FirebaseUID: &uid}))

	issuer := NewJWTIssuer("secret", time.Hour)
	fb := NewFirebaseResolver(stubVerifier{"good": uid, "unlinked": "nobody"}, s.Credentials)

	rec, seen := serve(t, JWTAuthMiddleware(issuer, fb), "Bearer good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "acc-9", seen)

	rec, _ = serve(t, JWTAuthMiddleware(issuer, fb), "Bearer unlinked")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
