package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories/repotest"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t *testing.T
	e *echo.Echo
}

func newClient(t *testing.T, verifier *fakeVerifier) *client {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	e := echo.New()
	if verifier != nil {
		SetupRoutes(e, cfg, repotest.NewStore(t), verifier)
	} else {
		SetupRoutes(e, cfg, repotest.NewStore(t), nil)
	}
	return &client{t: t, e: e}
}

func (c *client) do(method, path, token string, body interface{}, out interface{}) int {
	c.t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type session struct {
	Token   string `json:"token"`
	Account struct {
		ID     string `json:"id"`
		Handle string `json:"handle"`
	} `json:"account"`
}

func (c *client) signup(handle string) session {
	c.t.Helper()
	var s session
	code := c.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"handle":   handle,
		"email":    handle + "@example.com",
		"password": "correct horse",
	}, &s)
	require.Equal(c.t, http.StatusCreated, code)
	require.NotEmpty(c.t, s.Token)
	return s
}

type postView struct {
	ID             string   `json:"id"`
	Body           string   `json:"body"`
	LikeCount      int64    `json:"like_count"`
	CommentCount   int64    `json:"comment_count"`
	ViewerHasLiked bool     `json:"viewer_has_liked"`
	Hashtags       []string `json:"hashtags"`
	Author         struct {
		Handle string `json:"handle"`
	} `json:"author"`
}

func TestHealth(t *testing.T) {
	c := newClient(t, nil)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "", nil, nil))
}

func TestAuthFlow(t *testing.T) {
	c := newClient(t, nil)
	alice := c.signup("alice")

	var s session
	code := c.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "ALICE@example.com", "password": "correct horse",
	}, &s)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, alice.Account.ID, s.Account.ID)

	code = c.do(http.MethodPost, "/api/v1/auth/signin", "", map[string]string{
		"email": "alice@example.com", "password": "wrong password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = c.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"handle": "Alice", "email": "other@example.com", "password": "correct horse",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)

	code = c.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"handle": "x", "email": "x@example.com", "password": "correct horse",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/profile", "", nil, nil))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/profile", alice.Token, nil, nil))

	assert.Equal(t, http.StatusNotImplemented, c.do(http.MethodPost, "/api/v1/auth/firebase-login", "",
		map[string]string{"idToken": "t"}, nil))
}

func TestLikeAndNotificationFlow(t *testing.T) {
	c := newClient(t, nil)
	alice := c.signup("alice")
	bob := c.signup("bob")

	var post postView
	code := c.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"body": "hello #world"}, &post)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []string{"world"}, post.Hashtags)

	var liked struct {
		Liked bool `json:"liked"`
	}
	for i := 0; i < 2; i++ {
		code = c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/likes", bob.Token, nil, &liked)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, liked.Liked)
	}

	var view postView
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/posts/"+post.ID, bob.Token, nil, &view))
	assert.Equal(t, int64(1), view.LikeCount)
	assert.True(t, view.ViewerHasLiked)

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/posts/"+post.ID, "", nil, &view))
	assert.False(t, view.ViewerHasLiked)

	var unread struct {
		UnreadCount int64 `json:"unread_count"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/notifications/unread-count", alice.Token, nil, &unread))
	assert.Equal(t, int64(1), unread.UnreadCount)

	var inbox struct {
		Items []struct {
			ID    string `json:"id"`
			Kind  string `json:"kind"`
			Actor struct {
				Handle string `json:"handle"`
			} `json:"actor"`
		} `json:"items"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/notifications", alice.Token, nil, &inbox))
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, "like", inbox.Items[0].Kind)
	assert.Equal(t, "bob", inbox.Items[0].Actor.Handle)

	notificationPath := "/api/v1/notifications/" + inbox.Items[0].ID + "/read"
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPut, notificationPath, bob.Token, nil, nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodPut, notificationPath, alice.Token, nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/notifications/unread-count", alice.Token, nil, &unread))
	assert.Equal(t, int64(0), unread.UnreadCount)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/likes/toggle", bob.Token, nil, &liked))
	assert.False(t, liked.Liked)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/v1/posts/missing/likes", bob.Token, nil, nil))
}

func TestPostOwnershipOverHTTP(t *testing.T) {
	c := newClient(t, nil)
	alice := c.signup("alice")
	bob := c.signup("bob")

	var post postView
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"body": "mine"}, &post))

	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPut, "/api/v1/posts/"+post.ID, bob.Token, map[string]string{"body": "yours"}, nil))
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodDelete, "/api/v1/posts/"+post.ID, bob.Token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"body": strings.Repeat("a", 281)}, nil))

	var edited postView
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/api/v1/posts/"+post.ID, alice.Token, map[string]string{"body": "edited"}, &edited))
	assert.Equal(t, "edited", edited.Body)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/api/v1/posts/"+post.ID, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/v1/posts/"+post.ID, "", nil, nil))
}

func TestFollowAndFeedOverHTTP(t *testing.T) {
	c := newClient(t, nil)
	carol := c.signup("carol")
	alice := c.signup("alice")

	var p postView
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"body": "from alice"}, &p))

	var feedPage struct {
		Items      []postView `json:"items"`
		NextCursor string     `json:"next_cursor"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/feed?scope=following", carol.Token, nil, &feedPage))
	assert.Empty(t, feedPage.Items)

	var following struct {
		Following bool `json:"following"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/v1/users/"+alice.Account.ID+"/follow/toggle", carol.Token, nil, &following))
	assert.True(t, following.Following)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/v1/users/"+carol.Account.ID+"/follow", carol.Token, nil, nil))

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/feed?scope=following&order=trending", carol.Token, nil, &feedPage))
	require.Len(t, feedPage.Items, 1)
	assert.Equal(t, "alice", feedPage.Items[0].Author.Handle)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/v1/feed?scope=following", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/v1/feed?limit=abc", "", nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/feed?scope=keyword&q=ALICE", "", nil, &feedPage))
	assert.Len(t, feedPage.Items, 1)

	var profile struct {
		FollowerCount int64 `json:"follower_count"`
		ViewerFollows bool  `json:"viewer_follows"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/users/"+alice.Account.ID, carol.Token, nil, &profile))
	assert.Equal(t, int64(1), profile.FollowerCount)
	assert.True(t, profile.ViewerFollows)

	var followers struct {
		Items []struct {
			Handle string `json:"handle"`
		} `json:"items"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/users/"+alice.Account.ID+"/followers", "", nil, &followers))
	require.Len(t, followers.Items, 1)
	assert.Equal(t, "carol", followers.Items[0].Handle)
}

func TestCommentsOverHTTP(t *testing.T) {
	c := newClient(t, nil)
	alice := c.signup("alice")
	bob := c.signup("bob")

	var p postView
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/posts", alice.Token, map[string]string{"body": "talk"}, &p))

	var comment struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/posts/"+p.ID+"/comments", bob.Token, map[string]string{"body": "hi"}, &comment))

	var comments struct {
		Items []struct {
			Body string `json:"body"`
		} `json:"items"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/posts/"+p.ID+"/comments", "", nil, &comments))
	require.Len(t, comments.Items, 1)

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, alice.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/api/v1/comments/"+comment.ID, alice.Token, nil, nil))
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "valid" {
		return nil, assert.AnError
	}
	return &auth.Token{UID: "fb-1", Claims: map[string]interface{}{"email": "Fb@Example.com", "name": "Fire Base"}}, nil
}

func TestFirebaseLogin(t *testing.T) {
	c := newClient(t, &fakeVerifier{})

	body := map[string]string{"idToken": "valid"}
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/v1/auth/firebase-login", "", body, nil),
		"handle is required on first login")

	body["handle"] = "firefan"
	var first session
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/auth/firebase-login", "", body, &first))

	var again session
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "valid"}, &again))
	assert.Equal(t, first.Account.ID, again.Account.ID)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/v1/auth/firebase-login", "", map[string]string{"idToken": "bogus"}, nil))

	// The raw Firebase ID token is also accepted as a bearer token.
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/profile", "valid", nil, nil))
}
