// Package engagement derives per-post like and comment counts and the
// viewer-relative liked flag from live rows. Nothing here is cached or stored.
package engagement

import (
	"context"

	"github.com/anonto42/nano-midea/feedengine/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// Weights of the trending score.
const (
	LikeWeight    = 2
	CommentWeight = 3
)

// Engagement is the derived state of one post.
type Engagement struct {
	LikeCount      int64
	CommentCount   int64
	ViewerHasLiked bool
}

// Score is the deterministic trending score of e.
func (e Engagement) Score() int64 {
	return Score(e.LikeCount, e.CommentCount)
}

// Score weighs likes and comments into a single rank value.
func Score(likes, comments int64) int64 {
	return LikeWeight*likes + CommentWeight*comments
}

// Aggregator batches engagement reads for a set of posts.
type Aggregator struct {
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
}

// NewAggregator creates an Aggregator over the given repositories.
func NewAggregator(likes repositories.LikeRepository, comments repositories.CommentRepository) *Aggregator {
	return &Aggregator{likes: likes, comments: comments}
}

// Aggregate returns one entry for every id in postIDs, zero-valued when a
// post has no likes or comments. viewerID may be empty. The store is hit a
// fixed number of times regardless of len(postIDs).
func (a *Aggregator) Aggregate(ctx context.Context, postIDs []string, viewerID string) (map[string]Engagement, error) {
	ids := unique(postIDs)
	out := make(map[string]Engagement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var (
		likeCounts    map[string]int64
		commentCounts map[string]int64
		liked         map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likeCounts, err = a.likes.CountByPostIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		commentCounts, err = a.comments.CountByPostIDs(gctx, ids)
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			var err error
			liked, err = a.likes.LikedPostIDs(gctx, viewerID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		out[id] = Engagement{
			LikeCount:      likeCounts[id],
			CommentCount:   commentCounts[id],
			ViewerHasLiked: liked[id],
		}
	}
	return out, nil
}

// One returns the engagement of a single post.
func (a *Aggregator) One(ctx context.Context, postID, viewerID string) (Engagement, error) {
	all, err := a.Aggregate(ctx, []string{postID}, viewerID)
	if err != nil {
		return Engagement{}, err
	}
	return all[postID], nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
