package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/interactions"
	"github.com/anonto42/nano-midea/feedengine/internal/middleware"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	svc         *interactions.Service
	accounts    repositories.AccountRepository
	credentials repositories.CredentialRepository
	issuer      *middleware.JWTIssuer
	firebase    middleware.IDTokenVerifier // nil when Firebase is not configured
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svc *interactions.Service, store *repositories.Store, issuer *middleware.JWTIssuer, firebase middleware.IDTokenVerifier) *AuthHandler {
	return &AuthHandler{
		svc:         svc,
		accounts:    store.Accounts,
		credentials: store.Credentials,
		issuer:      issuer,
		firebase:    firebase,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

type tokenResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// Signup registers an account with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	cred := &models.Credential{Email: strings.ToLower(req.Email), PasswordHash: string(hashed)}
	account, err := h.svc.RegisterWithCredential(c.Request().Context(), req.RegisterAccountRequest, cred)
	if err != nil {
		return httpError(err)
	}
	return h.respondWithToken(c, http.StatusCreated, account)
}

// SignIn authenticates with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	cred, err := h.credentials.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		return httpError(err)
	}
	if cred.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	account, err := h.accounts.GetByID(ctx, cred.AccountID)
	if err != nil {
		return httpError(err)
	}
	return h.respondWithToken(c, http.StatusOK, account)
}

// FirebaseLogin verifies a Firebase ID token and issues a local token. The
// first login creates the account (handle required) or links an existing
// email credential.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebase == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Firebase login is not configured")
	}
	var req models.FirebaseLoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebase.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	uid := token.UID
	email, _ := token.Claims["email"].(string)
	email = strings.ToLower(email)

	cred, err := h.credentials.GetByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case !errors.Is(err, apperr.ErrNotFound):
		return httpError(err)
	case email != "":
		cred, err = h.credentials.GetByEmail(ctx, email)
		if err == nil {
			if err := h.credentials.SetFirebaseUID(ctx, cred.AccountID, uid); err != nil {
				return httpError(err)
			}
			break
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return httpError(err)
		}
		fallthrough
	default:
		if req.Handle == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "handle is required on first login")
		}
		name, _ := token.Claims["name"].(string)
		if email == "" {
			email = uid + "@firebase.local"
		}
		cred = &models.Credential{Email: email, FirebaseUID: &uid}
		account, err := h.svc.RegisterWithCredential(ctx, models.RegisterAccountRequest{Handle: req.Handle, DisplayName: name}, cred)
		if err != nil {
			return httpError(err)
		}
		logging.Ctx(ctx).Info().Str("account_id", account.ID).Msg("account created from firebase login")
		return h.respondWithToken(c, http.StatusCreated, account)
	}

	account, err := h.accounts.GetByID(ctx, cred.AccountID)
	if err != nil {
		return httpError(err)
	}
	return h.respondWithToken(c, http.StatusOK, account)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, account *models.Account) error {
	token, err := h.issuer.Issue(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, tokenResponse{Token: token, Account: account})
}
