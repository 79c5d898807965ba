// Package collect gathers a user's posts and comments, fetching both
// streams in parallel and serving repeat requests from a cache.
package collect

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/persona/internal/analysis"
	"github.com/kalambet/persona/internal/cache"
)

// Fetcher retrieves raw content from the platform.
type Fetcher interface {
	CheckUser(ctx context.Context, username string) error
	Submissions(ctx context.Context, username string, limit int) ([]analysis.ContentItem, error)
	Comments(ctx context.Context, username string, limit int) ([]analysis.ContentItem, error)
}

// Collection is the raw input of one analysis.
type Collection struct {
	Posts     []analysis.ContentItem
	Comments  []analysis.ContentItem
	FromCache bool
}

// Empty reports whether neither stream produced any item.
func (c Collection) Empty() bool {
	return len(c.Posts) == 0 && len(c.Comments) == 0
}

// Stats describes cache usage since the collector was created.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Collector fetches collections. A nil cache disables caching.
type Collector struct {
	fetcher Fetcher
	cache   cache.Cache
	workers int
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Collector running at most workers fetches at once.
func New(f Fetcher, c cache.Cache, workers int) *Collector {
	return &Collector{
		fetcher: f,
		cache:   c,
		workers: max(workers, 1),
		logger:  slog.Default(),
	}
}

// Collect returns the user's posts and comments. An unknown or suspended
// account is an error; a failure in one stream is logged and leaves that
// stream with whatever was fetched before it failed.
func (c *Collector) Collect(ctx context.Context, username string, postLimit, commentLimit int) (Collection, error) {
	key := cache.Key(username, postLimit, commentLimit)
	if c.cache != nil {
		if e, ok := c.cache.Get(key); ok {
			c.hits.Add(1)
			c.logger.Info("using cached data", "username", username)
			return Collection{Posts: e.Posts, Comments: e.Comments, FromCache: true}, nil
		}
		c.misses.Add(1)
	}

	if err := c.fetcher.CheckUser(ctx, username); err != nil {
		return Collection{}, err
	}

	var (
		posts, comments     []analysis.ContentItem
		postErr, commentErr error
	)
	g := new(errgroup.Group)
	g.SetLimit(c.workers)
	g.Go(func() error {
		posts, postErr = c.fetcher.Submissions(ctx, username, postLimit)
		if postErr != nil {
			c.logger.Warn("error fetching posts", "username", username, "kept", len(posts), "error", postErr)
		}
		return nil
	})
	g.Go(func() error {
		comments, commentErr = c.fetcher.Comments(ctx, username, commentLimit)
		if commentErr != nil {
			c.logger.Warn("error fetching comments", "username", username, "kept", len(comments), "error", commentErr)
		}
		return nil
	})
	// Stream failures are recorded above, never returned to the group.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Collection{}, err
	}

	if c.cache != nil && postErr == nil && commentErr == nil {
		c.cache.Put(key, cache.Entry{Posts: posts, Comments: comments})
	}

	c.logger.Info("collection complete", "username", username, "posts", len(posts), "comments", len(comments))
	return Collection{Posts: posts, Comments: comments}, nil
}

// Stats returns cache statistics.
func (c *Collector) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if c.cache != nil {
		s.Enabled = true
		s.Entries = c.cache.Len()
	}
	return s
}

// ClearCache drops every cached collection and returns how many were removed.
func (c *Collector) ClearCache() int {
	if c.cache == nil {
		return 0
	}
	n := c.cache.Len()
	c.cache.Clear()
	return n
}
