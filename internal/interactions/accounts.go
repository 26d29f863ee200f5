package interactions

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/internal/validators"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// AccountPage is one page of a follower or following list.
type AccountPage struct {
	Items      []models.AccountSummary `json:"items"`
	NextCursor string                  `json:"next_cursor"`
}

// RegisterAccount creates an account. A handle already taken, ignoring case,
// fails with apperr.ErrConflict.
func (s *Service) RegisterAccount(ctx context.Context, req models.RegisterAccountRequest) (*models.Account, error) {
	return s.RegisterWithCredential(ctx, req, nil)
}

// RegisterWithCredential creates an account and, when cred is non-nil, its
// login credential in one transaction.
func (s *Service) RegisterWithCredential(ctx context.Context, req models.RegisterAccountRequest, cred *models.Credential) (*models.Account, error) {
	const op = "accounts.register"
	if err := checkProfile(op, req.Handle, req.DisplayName, req.Bio); err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	account := &models.Account{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		CreatedAt:   s.now(),
	}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		_, err := tx.Accounts.GetByHandle(ctx, req.Handle)
		switch {
		case err == nil:
			return apperr.Conflict(op, "handle %q is taken", req.Handle)
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
		if err := tx.Accounts.Create(ctx, account); err != nil {
			return err
		}
		if cred == nil {
			return nil
		}
		_, err = tx.Credentials.GetByEmail(ctx, cred.Email)
		switch {
		case err == nil:
			return apperr.Conflict(op, "email is already registered")
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
		cred.AccountID = account.ID
		cred.CreatedAt = account.CreatedAt
		return tx.Credentials.Create(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("account_id", account.ID).Str("handle", account.Handle).Msg("account registered")
	return account, nil
}

// UpdateProfile applies req to accountID. Only the owner may do so.
func (s *Service) UpdateProfile(ctx context.Context, actorID, accountID string, req models.UpdateProfileRequest) (*models.Account, error) {
	const op = "accounts.update"
	if actorID != accountID {
		return nil, apperr.Unauthorized(op, "profiles are edited only by their owner")
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	account, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if req.DisplayName != nil {
		account.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		account.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		account.AvatarURL = *req.AvatarURL
	}
	if err := checkProfile(op, account.Handle, account.DisplayName, account.Bio); err != nil {
		return nil, err
	}
	if err := s.store.Accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountView returns an account with derived relationship counts.
// viewerID may be empty.
func (s *Service) GetAccountView(ctx context.Context, accountID, viewerID string) (*models.AccountView, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	account, err := s.store.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	view := &models.AccountView{Account: *account}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.Follows.CountFollowers(gctx, accountID)
		view.FollowerCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Follows.CountFollowing(gctx, accountID)
		view.FollowingCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.Posts.CountByAuthor(gctx, accountID)
		view.PostCount = n
		return err
	})
	if viewerID != "" && viewerID != accountID {
		g.Go(func() error {
			ok, err := s.store.Follows.Exists(gctx, viewerID, accountID)
			view.ViewerFollows = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// ListFollowers pages through the accounts following accountID, newest first.
func (s *Service) ListFollowers(ctx context.Context, accountID, cursor string, limit int) (*AccountPage, error) {
	return s.listEdges(ctx, accountID, cursor, limit, true)
}

// ListFollowing pages through the accounts accountID follows, newest first.
func (s *Service) ListFollowing(ctx context.Context, accountID, cursor string, limit int) (*AccountPage, error) {
	return s.listEdges(ctx, accountID, cursor, limit, false)
}

func (s *Service) listEdges(ctx context.Context, accountID, cursor string, limit int, followers bool) (*AccountPage, error) {
	after, err := repositories.DecodeKeyset(cursor)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.Accounts.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	limit = s.limit(limit)
	var edges []models.FollowEdge
	if followers {
		edges, err = s.store.Follows.ListFollowers(ctx, accountID, after, limit+1)
	} else {
		edges, err = s.store.Follows.ListFollowing(ctx, accountID, after, limit+1)
	}
	if err != nil {
		return nil, err
	}
	more := len(edges) > limit
	if more {
		edges = edges[:limit]
	}

	other := func(e models.FollowEdge) string {
		if followers {
			return e.FollowerID
		}
		return e.FolloweeID
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = other(e)
	}
	accounts, err := s.store.Accounts.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	page := &AccountPage{Items: make([]models.AccountSummary, 0, len(edges))}
	for _, id := range ids {
		summary := models.AccountSummary{ID: id}
		if acc, ok := accounts[id]; ok {
			summary = acc.ToSummary()
		}
		page.Items = append(page.Items, summary)
	}
	if more {
		last := edges[len(edges)-1]
		page.NextCursor = repositories.EncodeKeyset(repositories.Keyset{CreatedAt: last.CreatedAt, ID: other(last)})
	}
	return page, nil
}

func checkProfile(op, handle, displayName, bio string) error {
	if err := validators.CheckHandle(op, handle); err != nil {
		return err
	}
	if err := validators.CheckMaxLen(op, "display_name", displayName, validators.DisplayNameMaxLen); err != nil {
		return err
	}
	return validators.CheckMaxLen(op, "bio", bio, validators.BioMaxLen)
}
