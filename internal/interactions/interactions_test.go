package interactions

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/engagement"
	"github.com/anonto42/nano-midea/feedengine/internal/feed"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/notify"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories/repotest"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	store *repositories.Store
	inbox *notify.Inbox
	feed  *feed.Assembler
}

func newFixture(t *testing.T, retract bool) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.RetractOnRemoval = retract
	store := repotest.NewStore(t)
	assembler := feed.NewAssembler(store, engagement.NewAggregator(store.Likes, store.Comments), cfg.Feed, cfg.Database.StoreTimeout)
	return &fixture{
		svc:   NewService(store, notify.NewFanOut(cfg.Notifications), assembler, cfg),
		store: store,
		inbox: notify.NewInbox(store, cfg.Feed, cfg.Database.StoreTimeout),
		feed:  assembler,
	}
}

func (f *fixture) register(t *testing.T, handle string) *models.Account {
	t.Helper()
	acc, err := f.svc.RegisterAccount(context.Background(), models.RegisterAccountRequest{Handle: handle, DisplayName: handle})
	require.NoError(t, err)
	return acc
}

func (f *fixture) unread(t *testing.T, accountID string) int64 {
	t.Helper()
	n, err := f.inbox.UnreadCount(context.Background(), accountID)
	require.NoError(t, err)
	return n
}

func TestAliceBobLikeScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	p1, err := f.svc.CreatePost(ctx, alice.ID, "hello")
	require.NoError(t, err)

	res, err := f.svc.ToggleLike(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)

	view, err := f.svc.GetPostView(ctx, p1.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.True(t, view.ViewerHasLiked)
	assert.Equal(t, int64(1), f.unread(t, alice.ID))

	page, err := f.inbox.List(ctx, alice.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	n := page.Items[0]
	assert.Equal(t, models.NotificationLike, n.Kind)
	assert.Equal(t, bob.ID, n.ActorID)
	assert.Equal(t, "bob", n.Actor.Handle)
	require.NotNil(t, n.SubjectPostID)
	assert.Equal(t, p1.ID, *n.SubjectPostID)

	// A duplicate like through the idempotent path changes nothing.
	res, err = f.svc.Like(ctx, bob.ID, p1.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)

	view, err = f.svc.GetPostView(ctx, p1.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.Equal(t, int64(1), f.unread(t, alice.ID))
}

func TestToggleLikeTwiceUnlikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.svc.CreatePost(ctx, alice.ID, "hello")
	require.NoError(t, err)

	res, err := f.svc.ToggleLike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	res, err = f.svc.ToggleLike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)

	res, err = f.svc.Unlike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)

	view, err := f.svc.GetPostView(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.LikeCount)
	assert.False(t, view.ViewerHasLiked)
	assert.Equal(t, int64(1), f.unread(t, alice.ID), "unlike does not retract by default")
}

func TestUnlikeRetractsWhenEnabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.svc.CreatePost(ctx, alice.ID, "hello")
	require.NoError(t, err)

	_, err = f.svc.Like(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), f.unread(t, alice.ID))
	_, err = f.svc.Unlike(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.unread(t, alice.ID))
}

func TestConcurrentDuplicateLikesConverge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.svc.CreatePost(ctx, alice.ID, "race me")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Like(ctx, bob.ID, p.ID)
			if err == nil && !res.Liked {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := f.svc.GetPostView(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.Equal(t, int64(1), f.unread(t, alice.ID))
}

func TestSelfLikeAndSelfCommentDoNotNotify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	p, err := f.svc.CreatePost(ctx, alice.ID, "me")
	require.NoError(t, err)

	res, err := f.svc.Like(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	_, err = f.svc.CreateComment(ctx, alice.ID, p.ID, "talking to myself")
	require.NoError(t, err)

	view, err := f.svc.GetPostView(ctx, p.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.LikeCount)
	assert.Equal(t, int64(1), view.CommentCount)
	assert.Equal(t, int64(0), f.unread(t, alice.ID))
}

func TestLikeMissingPost(t *testing.T) {
	f := newFixture(t, false)
	bob := f.register(t, "bob")
	_, err := f.svc.Like(context.Background(), bob.ID, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.ToggleLike(context.Background(), "ghost", "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCarolAliceFollowScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	carol := f.register(t, "carol")

	res, err := f.svc.ToggleFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)
	res, err = f.svc.ToggleFollow(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)

	aliceView, err := f.svc.GetAccountView(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceView.FollowerCount)
	assert.Equal(t, int64(1), aliceView.FollowingCount)
	assert.True(t, aliceView.ViewerFollows)

	res, err = f.svc.ToggleFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)

	exists, err := f.store.Follows.Exists(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.store.Follows.Exists(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, int64(1), f.unread(t, alice.ID))
	assert.Equal(t, int64(1), f.unread(t, carol.ID))
}

func TestFollowIsIdempotentAndNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	for i := 0; i < 3; i++ {
		res, err := f.svc.Follow(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, res.Following)
	}
	assert.Equal(t, int64(1), f.unread(t, alice.ID))

	for i := 0; i < 2; i++ {
		res, err := f.svc.Unfollow(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, res.Following)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")

	_, err := f.svc.ToggleFollow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Follow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, int64(0), f.unread(t, alice.ID))

	_, err = f.svc.Follow(ctx, alice.ID, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFollowerListsPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	star := f.register(t, "star")
	var fans []string
	for _, h := range []string{"fan_a", "fan_b", "fan_c"} {
		fan := f.register(t, h)
		fans = append(fans, fan.ID)
		_, err := f.store.Follows.Insert(ctx, fan.ID, star.ID, repotest.At(len(fans)))
		require.NoError(t, err)
	}

	page, err := f.svc.ListFollowers(ctx, star.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "fan_c", page.Items[0].Handle)
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.ListFollowers(ctx, star.ID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "fan_a", page.Items[0].Handle)
	assert.Empty(t, page.NextCursor)

	following, err := f.svc.ListFollowing(ctx, fans[0], "", 0)
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, star.ID, following.Items[0].ID)

	_, err = f.svc.ListFollowers(ctx, "ghost", "", 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegisterAccountGuards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.register(t, "Alice")

	_, err := f.svc.RegisterAccount(ctx, models.RegisterAccountRequest{Handle: "alice"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	for _, bad := range []string{"al", "has space", strings.Repeat("x", 31), "émile"} {
		_, err = f.svc.RegisterAccount(ctx, models.RegisterAccountRequest{Handle: bad})
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}

	_, err = f.svc.RegisterAccount(ctx, models.RegisterAccountRequest{Handle: "bio_guy", Bio: strings.Repeat("b", 161)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRegisterWithCredentialRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.svc.RegisterWithCredential(ctx, models.RegisterAccountRequest{Handle: "first"},
		&models.Credential{Email: "a@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = f.svc.RegisterWithCredential(ctx, models.RegisterAccountRequest{Handle: "second"},
		&models.Credential{Email: "a@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.store.Accounts.GetByHandle(ctx, "second")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "the account insert rolls back with the credential")
}

func TestUpdateProfileOwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	bio := "gopher"

	_, err := f.svc.UpdateProfile(ctx, bob.ID, alice.ID, models.UpdateProfileRequest{Bio: &bio})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	updated, err := f.svc.UpdateProfile(ctx, alice.ID, alice.ID, models.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "gopher", updated.Bio)
	assert.Equal(t, "alice", updated.DisplayName)

	long := strings.Repeat("n", 51)
	_, err = f.svc.UpdateProfile(ctx, alice.ID, alice.ID, models.UpdateProfileRequest{DisplayName: &long})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPostOwnershipAndCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.svc.CreatePost(ctx, alice.ID, "original #draft")
	require.NoError(t, err)
	assert.Nil(t, p.EditedAt)
	assert.Equal(t, []string{"draft"}, p.Hashtags)

	_, err = f.svc.EditPost(ctx, bob.ID, p.ID, "hijack")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	edited, err := f.svc.EditPost(ctx, alice.ID, p.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Body)
	assert.NotNil(t, edited.EditedAt)

	_, err = f.svc.Like(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateComment(ctx, bob.ID, p.ID, "nice")
	require.NoError(t, err)
	require.Equal(t, int64(2), f.unread(t, alice.ID))

	assert.ErrorIs(t, f.svc.DeletePost(ctx, bob.ID, p.ID), apperr.ErrUnauthorized)
	require.NoError(t, f.svc.DeletePost(ctx, alice.ID, p.ID))

	_, err = f.svc.GetPostView(ctx, p.ID, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, int64(0), f.unread(t, alice.ID))
	liked, err := f.store.Likes.Exists(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestPostBodyValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")

	_, err := f.svc.CreatePost(ctx, alice.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.CreatePost(ctx, alice.ID, " ")
	assert.NoError(t, err, "whitespace is a character")
	_, err = f.svc.CreatePost(ctx, alice.ID, strings.Repeat("a", 281))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// 280 flags are 560 runes but 280 graphemes.
	_, err = f.svc.CreatePost(ctx, alice.ID, strings.Repeat("🇳🇴", 280))
	assert.NoError(t, err)

	_, err = f.svc.CreatePost(ctx, "ghost", "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCommentLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")
	p, err := f.svc.CreatePost(ctx, alice.ID, "discuss")
	require.NoError(t, err)

	c1, err := f.svc.CreateComment(ctx, bob.ID, p.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, "bob", c1.Author.Handle)
	c2, err := f.svc.CreateComment(ctx, carol.ID, p.ID, "second")
	require.NoError(t, err)
	c3, err := f.svc.CreateComment(ctx, carol.ID, p.ID, "third")
	require.NoError(t, err)

	page, err := f.svc.ListComments(ctx, p.ID, "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, c1.ID, page.Items[0].ID)
	assert.Equal(t, c2.ID, page.Items[1].ID)
	page, err = f.svc.ListComments(ctx, p.ID, page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, c3.ID, page.Items[0].ID)

	// Carol may not delete Bob's comment; Alice owns the post and may.
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, carol.ID, c1.ID), apperr.ErrUnauthorized)
	require.NoError(t, f.svc.DeleteComment(ctx, alice.ID, c1.ID))
	require.NoError(t, f.svc.DeleteComment(ctx, carol.ID, c2.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, carol.ID, c2.ID), apperr.ErrNotFound)

	view, err := f.svc.GetPostView(ctx, p.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.CommentCount)
	assert.Equal(t, int64(3), f.unread(t, alice.ID))

	_, err = f.svc.CreateComment(ctx, bob.ID, "missing", "hello?")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.ListComments(ctx, "missing", "", 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFollowingFeedAfterFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	dave := f.register(t, "dave")
	erin := f.register(t, "erin")
	own, err := f.svc.CreatePost(ctx, dave.ID, "dave")
	require.NoError(t, err)
	_, err = f.svc.CreatePost(ctx, erin.ID, "erin")
	require.NoError(t, err)

	page, err := f.feed.Feed(ctx, feed.Query{Scope: feed.ScopeFollowing, ViewerID: dave.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, own.ID, page.Items[0].ID)

	_, err = f.svc.Follow(ctx, dave.ID, erin.ID)
	require.NoError(t, err)
	page, err = f.feed.Feed(ctx, feed.Query{Scope: feed.ScopeFollowing, ViewerID: dave.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}
