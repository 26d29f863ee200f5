package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// AccountIDKey is the echo context key holding the authenticated account id.
const AccountIDKey = "accountID"

var errMissingToken = errors.New("missing bearer token")

// TokenResolver maps a bearer token to the account it authenticates.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (accountID string, err error)
}

// JWTIssuer signs and verifies local HS256 tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a JWTIssuer. Tokens expire after ttl.
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for account.
func (j *JWTIssuer) Issue(account *models.Account) (string, error) {
	now := j.now()
	claims := &models.JwtCustomClaims{
		AccountID: account.ID,
		Handle:    account.Handle,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// ResolveToken verifies a token produced by Issue.
func (j *JWTIssuer) ResolveToken(_ context.Context, tokenString string) (string, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.AccountID == "" {
		return "", errors.New("invalid token")
	}
	return claims.AccountID, nil
}

// JWTAuthMiddleware requires a bearer token accepted by one of resolvers and
// stores the account id under AccountIDKey.
func JWTAuthMiddleware(resolvers ...TokenResolver) echo.MiddlewareFunc {
	return authMiddleware(true, resolvers)
}

// OptionalAuthMiddleware authenticates when a bearer token is present and
// lets anonymous requests through. A present but invalid token is still rejected.
func OptionalAuthMiddleware(resolvers ...TokenResolver) echo.MiddlewareFunc {
	return authMiddleware(false, resolvers)
}

func authMiddleware(required bool, resolvers []TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if errors.Is(err, errMissingToken) && !required {
				return next(c)
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			ctx := c.Request().Context()
			for _, r := range resolvers {
				if accountID, err := r.ResolveToken(ctx, tokenString); err == nil {
					c.Set(AccountIDKey, accountID)
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("Authorization header must be in Bearer format")
	}
	return parts[1], nil
}

// AccountID returns the authenticated account id, or "" for anonymous requests.
func AccountID(c echo.Context) string {
	id, _ := c.Get(AccountIDKey).(string)
	return id
}
