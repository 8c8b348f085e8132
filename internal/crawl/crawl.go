// Package crawl implements the concurrent crawler pipeline: a bounded
// worker pool that fetches URLs breadth-first, extracts metadata and
// links, and feeds documents into the index core.
package crawl

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quillsearch/quill/internal/index"
	"github.com/quillsearch/quill/internal/progress"
)

// defaultConcurrency is the worker pool size used when Config.Concurrency
// is zero, per spec.
const defaultConcurrency = 64

// Config configures a Crawler.
type Config struct {
	Fetcher       Fetcher
	HTMLExtractor HTMLExtractor
	Concurrency   int
	Logger        *slog.Logger
	Reporter      progress.Reporter
}

func (c Config) withDefaults() Config {
	if c.Fetcher == nil {
		c.Fetcher = NewDefaultFetcher()
	}
	if c.HTMLExtractor == nil {
		c.HTMLExtractor = DefaultHTMLExtractor{}
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Crawler runs the breadth-first crawl pipeline against an *index.Index.
type Crawler struct {
	cfg   Config
	index *index.Index
	runID uuid.UUID
}

// New creates a Crawler that indexes documents into idx.
func New(idx *index.Index, cfg Config) *Crawler {
	return &Crawler{cfg: cfg.withDefaults(), index: idx, runID: uuid.New()}
}

// RunID identifies this crawl run in the log lines Run emits. It is not
// passed to the progress reporter.
func (c *Crawler) RunID() string {
	return c.runID.String()
}

// Result summarizes a finished crawl.
type Result struct {
	Indexed  int
	QueueLen int
}

// Run crawls breadth-first from seed until the index holds at least limit
// documents or the frontier is exhausted, whichever comes first. It
// terminates early, without error, if ctx is canceled between batches.
func (c *Crawler) Run(ctx context.Context, seed []string, limit int) (Result, error) {
	logger := c.cfg.Logger.With(slog.String("run_id", c.RunID()))

	queue := make([]string, len(seed))
	copy(queue, seed)
	seen := make(map[string]bool, len(seed))
	for _, u := range seed {
		seen[u] = true
	}
	explored := make(map[string]bool)
	errCount := 0

	for c.index.Len() < limit && len(queue) > 0 && ctx.Err() == nil {
		remaining := limit - c.index.Len()
		batchSize := min(remaining, c.cfg.Concurrency, len(queue))
		batch := queue[:batchSize]
		queue = queue[batchSize:]

		results := c.fetchBatch(ctx, batch)
		for r := range results {
			if r.err != nil {
				logger.Warn("fetch failed", slog.String("url", r.requestedURL), slog.Any("error", r.err))
				errCount++
				continue
			}

			if explored[r.finalURL] {
				continue // redirect convergence: already indexed under this final URL
			}

			meta, err := c.cfg.HTMLExtractor.Extract(r.parsedURL, r.body)
			if err != nil {
				// An unparseable body is a fetch error per the error
				// taxonomy: log and continue, without touching seen or
				// explored.
				logger.Warn("extract failed", slog.String("url", r.finalURL), slog.Any("error", err))
				errCount++
				continue
			}

			w := index.Website{
				URL:         r.finalURL,
				Name:        meta.Title,
				Description: meta.Description,
				Icon:        meta.Icon,
			}
			if _, err := c.index.AddWebsite(ctx, w, meta.Text); err != nil {
				return Result{Indexed: c.index.Len(), QueueLen: len(queue)}, err
			}

			for _, link := range meta.Links {
				if !seen[link] {
					seen[link] = true
					queue = append(queue, link)
				}
			}
			seen[r.finalURL] = true
			explored[r.requestedURL] = true
			explored[r.finalURL] = true

			logger.Info("indexed", slog.Int("count", c.index.Len()), slog.Int("limit", limit), slog.String("url", r.finalURL))
		}

		if c.cfg.Reporter != nil {
			c.cfg.Reporter.Update(progress.Event{
				Indexed:  c.index.Len(),
				Limit:    limit,
				QueueLen: len(queue),
				Errors:   errCount,
			})
		}
	}

	return Result{Indexed: c.index.Len(), QueueLen: len(queue)}, nil
}

type fetchResult struct {
	requestedURL string
	finalURL     string
	parsedURL    *url.URL
	body         []byte
	err          error
}

// fetchBatch submits every URL in batch to the worker pool and returns a
// channel that yields results in completion order, not submission order,
// and is closed once every fetch has reported.
func (c *Crawler) fetchBatch(ctx context.Context, batch []string) <-chan fetchResult {
	results := make(chan fetchResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, u := range batch {
		u := u
		g.Go(func() error {
			finalURL, body, err := c.cfg.Fetcher.Fetch(gctx, u)
			if err != nil {
				results <- fetchResult{requestedURL: u, err: err}
				return nil
			}
			parsed, parseErr := url.Parse(finalURL)
			if parseErr != nil {
				results <- fetchResult{requestedURL: u, err: parseErr}
				return nil
			}
			results <- fetchResult{requestedURL: u, finalURL: finalURL, parsedURL: parsed, body: body}
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	return results
}
