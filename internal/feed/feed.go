// Package feed assembles paginated, ordered PostView pages for a viewing
// context. Ordering is either chronological, keyed by (created_at, id), or
// trending, keyed by (score, created_at, id) with score recomputed from live
// engagement on every request.
package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/feedengine/internal/apperr"
	"github.com/anonto42/nano-midea/feedengine/internal/engagement"
	"github.com/anonto42/nano-midea/feedengine/internal/metrics"
	"github.com/anonto42/nano-midea/feedengine/internal/models"
	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"github.com/anonto42/nano-midea/feedengine/pkg/config"
	"github.com/anonto42/nano-midea/feedengine/pkg/logging"
)

// Scope selects which posts a feed draws from.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeAuthor    Scope = "author"
	ScopeFollowing Scope = "following"
	ScopeKeyword   Scope = "keyword"
)

// Order selects how a feed is ranked.
type Order string

const (
	OrderChronological Order = "chronological"
	OrderTrending      Order = "trending"
)

// Query describes one feed page request. Zero Scope and Order mean global
// and chronological.
type Query struct {
	Scope    Scope
	Order    Order
	ViewerID string // optional except for ScopeFollowing
	AuthorID string // ScopeAuthor
	Keyword  string // ScopeKeyword
	Cursor   string
	Limit    int
}

// Page is one page of a feed. NextCursor is empty on the last page.
type Page struct {
	Items      []models.PostView `json:"items"`
	NextCursor string            `json:"next_cursor"`
}

// Assembler builds feed pages and single post views.
type Assembler struct {
	posts      repositories.PostRepository
	follows    repositories.FollowRepository
	accounts   repositories.AccountRepository
	aggregator *engagement.Aggregator
	cfg        config.FeedConfig
	timeout    time.Duration
}

// NewAssembler creates an Assembler. timeout bounds each call; zero disables it.
func NewAssembler(store *repositories.Store, aggregator *engagement.Aggregator, cfg config.FeedConfig, timeout time.Duration) *Assembler {
	return &Assembler{
		posts:      store.Posts,
		follows:    store.Follows,
		accounts:   store.Accounts,
		aggregator: aggregator,
		cfg:        cfg,
		timeout:    timeout,
	}
}

// Feed returns one page of q.
func (a *Assembler) Feed(ctx context.Context, q Query) (*Page, error) {
	if q.Scope == "" {
		q.Scope = ScopeGlobal
	}
	if q.Order == "" {
		q.Order = OrderChronological
	}
	if q.Order != OrderChronological && q.Order != OrderTrending {
		return nil, apperr.Validation("feed.get", "unknown order %q", q.Order)
	}
	after, err := decodeCursor(q.Cursor, q.Order)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()
	defer metrics.ObserveFeed(string(q.Scope), string(q.Order), time.Now())

	filter, err := a.filter(ctx, q)
	if err != nil {
		return nil, err
	}
	limit := a.Limit(q.Limit)

	var page *Page
	if q.Order == OrderTrending {
		page, err = a.trending(ctx, filter, q.ViewerID, after, limit)
	} else {
		page, err = a.chronological(ctx, filter, q.ViewerID, after, limit)
	}
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Str("scope", string(q.Scope)).
		Str("order", string(q.Order)).
		Int("items", len(page.Items)).
		Msg("feed assembled")
	return page, nil
}

// Limit clamps a caller-supplied page size. Non-positive means the default.
func (a *Assembler) Limit(n int) int {
	switch {
	case n <= 0:
		return a.cfg.DefaultLimit
	case n > a.cfg.MaxLimit:
		return a.cfg.MaxLimit
	default:
		return n
	}
}

func (a *Assembler) filter(ctx context.Context, q Query) (repositories.PostFilter, error) {
	switch q.Scope {
	case ScopeGlobal:
		return repositories.PostFilter{}, nil
	case ScopeAuthor:
		if q.AuthorID == "" {
			return repositories.PostFilter{}, apperr.Validation("feed.get", "author scope requires an author id")
		}
		if _, err := a.accounts.GetByID(ctx, q.AuthorID); err != nil {
			return repositories.PostFilter{}, err
		}
		return repositories.PostFilter{AuthorIDs: []string{q.AuthorID}}, nil
	case ScopeFollowing:
		if q.ViewerID == "" {
			return repositories.PostFilter{}, apperr.Validation("feed.get", "following scope requires a viewer")
		}
		ids, err := a.follows.FolloweeIDs(ctx, q.ViewerID)
		if err != nil {
			return repositories.PostFilter{}, err
		}
		return repositories.PostFilter{AuthorIDs: append(ids, q.ViewerID)}, nil
	case ScopeKeyword:
		kw := strings.TrimSpace(q.Keyword)
		if kw == "" {
			return repositories.PostFilter{}, apperr.Validation("feed.get", "keyword scope requires a query")
		}
		return repositories.PostFilter{Keyword: kw}, nil
	default:
		return repositories.PostFilter{}, apperr.Validation("feed.get", "unknown scope %q", q.Scope)
	}
}

func (a *Assembler) chronological(ctx context.Context, filter repositories.PostFilter, viewerID string, after *cursor, limit int) (*Page, error) {
	var keyset *repositories.Keyset
	if after != nil {
		keyset = &repositories.Keyset{CreatedAt: after.CreatedAt, ID: after.ID}
	}
	posts, err := a.posts.List(ctx, filter, keyset, limit+1)
	if err != nil {
		return nil, err
	}
	more := len(posts) > limit
	if more {
		posts = posts[:limit]
	}
	views, err := a.Views(ctx, posts, viewerID)
	if err != nil {
		return nil, err
	}
	page := &Page{Items: views}
	if more {
		last := posts[len(posts)-1]
		page.NextCursor = encodeCursor(cursor{Order: OrderChronological, CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

type ranked struct {
	post  models.Post
	score int64
}

// less reports whether x ranks before y.
func (x ranked) less(y ranked) bool {
	if x.score != y.score {
		return x.score > y.score
	}
	if !x.post.CreatedAt.Equal(y.post.CreatedAt) {
		return x.post.CreatedAt.After(y.post.CreatedAt)
	}
	return x.post.ID > y.post.ID
}

func (a *Assembler) trending(ctx context.Context, filter repositories.PostFilter, viewerID string, after *cursor, limit int) (*Page, error) {
	var (
		window []ranked
		more   bool
		err    error
	)
	if lister, ok := a.posts.(repositories.TrendingLister); ok {
		window, more, err = a.rankInStore(ctx, lister, filter, after, limit)
	} else {
		window, more, err = a.rankScanned(ctx, filter, viewerID, after, limit)
	}
	if err != nil {
		return nil, err
	}

	selected := make([]models.Post, len(window))
	for i, r := range window {
		selected[i] = r.post
	}
	views, err := a.Views(ctx, selected, viewerID)
	if err != nil {
		return nil, err
	}
	page := &Page{Items: views}
	if more {
		last := window[len(window)-1]
		page.NextCursor = encodeCursor(cursor{
			Order:     OrderTrending,
			Score:     last.score,
			CreatedAt: last.post.CreatedAt,
			ID:        last.post.ID,
		})
	}
	return page, nil
}

// rankInStore lets the store rank every post of the scope.
func (a *Assembler) rankInStore(ctx context.Context, lister repositories.TrendingLister, filter repositories.PostFilter, after *cursor, limit int) ([]ranked, bool, error) {
	var keyset *repositories.ScoreKeyset
	if after != nil {
		keyset = &repositories.ScoreKeyset{Score: after.Score, CreatedAt: after.CreatedAt, ID: after.ID}
	}
	rows, err := lister.ListTrending(ctx, filter, engagement.LikeWeight, engagement.CommentWeight, keyset, limit+1)
	if err != nil {
		return nil, false, err
	}
	more := len(rows) > limit
	if more {
		rows = rows[:limit]
	}
	window := make([]ranked, len(rows))
	for i, row := range rows {
		window[i] = ranked{post: row.Post, score: row.Score}
	}
	return window, more, nil
}

// rankScanned ranks in memory over the trending_scan_limit most recent posts
// of the scope. Used for post stores that cannot join engagement, where older
// posts past the scan window are not ranked.
func (a *Assembler) rankScanned(ctx context.Context, filter repositories.PostFilter, viewerID string, after *cursor, limit int) ([]ranked, bool, error) {
	posts, err := a.posts.List(ctx, filter, nil, a.cfg.TrendingScanLimit)
	if err != nil {
		return nil, false, err
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	eng, err := a.aggregator.Aggregate(ctx, ids, viewerID)
	if err != nil {
		return nil, false, err
	}

	all := make([]ranked, 0, len(posts))
	for _, p := range posts {
		all = append(all, ranked{post: p, score: eng[p.ID].Score()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].less(all[j]) })

	start := 0
	if after != nil {
		pivot := ranked{post: models.Post{ID: after.ID, CreatedAt: after.CreatedAt}, score: after.Score}
		start = sort.Search(len(all), func(i int) bool { return pivot.less(all[i]) })
	}
	window := all[start:]
	more := len(window) > limit
	if more {
		window = window[:limit]
	}
	if len(posts) == a.cfg.TrendingScanLimit {
		logging.Ctx(ctx).Debug().Int("scan_limit", a.cfg.TrendingScanLimit).Msg("trending ranked a truncated scan")
	}
	return window, more, nil
}

// View returns the PostView of a single post.
func (a *Assembler) View(ctx context.Context, postID, viewerID string) (*models.PostView, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	post, err := a.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := a.Views(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Views decorates posts with author, hashtags and engagement, preserving order
// and dropping repeated ids.
func (a *Assembler) Views(ctx context.Context, posts []models.Post, viewerID string) ([]models.PostView, error) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	eng, err := a.aggregator.Aggregate(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	return a.render(ctx, posts, eng)
}

func (a *Assembler) render(ctx context.Context, posts []models.Post, eng map[string]engagement.Engagement) ([]models.PostView, error) {
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	authors, err := a.accounts.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		author := models.AccountSummary{ID: p.AuthorID}
		if acc, ok := authors[p.AuthorID]; ok {
			author = acc.ToSummary()
		}
		e := eng[p.ID]
		views = append(views, models.PostView{
			Post:           p,
			Author:         author,
			Hashtags:       Hashtags(p.Body),
			LikeCount:      e.LikeCount,
			CommentCount:   e.CommentCount,
			ViewerHasLiked: e.ViewerHasLiked,
		})
	}
	return views, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
