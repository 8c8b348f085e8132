package crawl

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillsearch/quill/internal/index"
)

var errFetch = errors.New("fetch failed")

// fakeFetcher maps a requested URL to a (finalURL, body) pair or error.
type fakeFetcher struct {
	redirects map[string]string // requested -> final
	bodies    map[string][]byte // final -> body
	fail      map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (string, []byte, error) {
	if f.fail[rawURL] {
		return "", nil, errFetch
	}
	final := rawURL
	if mapped, ok := f.redirects[rawURL]; ok {
		final = mapped
	}
	return final, f.bodies[final], nil
}

// fakeExtractor returns metadata driven by a test-controlled table keyed
// by page URL, so tests can script links and text without real HTML.
type fakeExtractor struct {
	byURL map[string]Metadata
}

func (f *fakeExtractor) Extract(pageURL *url.URL, _ []byte) (Metadata, error) {
	if m, ok := f.byURL[pageURL.String()]; ok {
		return m, nil
	}
	return Metadata{Title: pageURL.String()}, nil
}

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Open(t.TempDir(), index.Options{NumSegments: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

// S3 from spec.md §8: two seeds redirecting to the same final URL; the
// second completion is discarded, leaving exactly one indexed document.
func TestRun_S3_RedirectConvergence(t *testing.T) {
	idx := newTestIndex(t)

	fetcher := &fakeFetcher{
		redirects: map[string]string{"u1": "u*", "u2": "u*"},
		bodies:    map[string][]byte{"u*": []byte("hello")},
	}
	extractor := &fakeExtractor{byURL: map[string]Metadata{
		"u*": {Title: "final", Text: "hello world"},
	}}

	c := New(idx, Config{Fetcher: fetcher, HTMLExtractor: extractor, Concurrency: 2})
	result, err := c.Run(context.Background(), []string{"u1", "u2"}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, result.Indexed)
	require.Equal(t, 1, idx.Len())
}

func TestRun_FetchFailureIsSkippedNotRequeued(t *testing.T) {
	idx := newTestIndex(t)

	fetcher := &fakeFetcher{fail: map[string]bool{"bad": true}}
	extractor := &fakeExtractor{}

	c := New(idx, Config{Fetcher: fetcher, HTMLExtractor: extractor, Concurrency: 2})
	result, err := c.Run(context.Background(), []string{"bad"}, 5)
	require.NoError(t, err)
	require.Equal(t, 0, result.Indexed)
	require.Equal(t, 0, result.QueueLen)
}

func TestRun_StopsAtLimit(t *testing.T) {
	idx := newTestIndex(t)

	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"a": []byte("x"), "b": []byte("x"), "c": []byte("x"),
	}}
	extractor := &fakeExtractor{byURL: map[string]Metadata{
		"a": {Title: "a", Text: "hello"},
		"b": {Title: "b", Text: "hello"},
		"c": {Title: "c", Text: "hello"},
	}}

	c := New(idx, Config{Fetcher: fetcher, HTMLExtractor: extractor, Concurrency: 64})
	result, err := c.Run(context.Background(), []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.LessOrEqual(t, result.Indexed, 2)
}

func TestRun_DiscoversAndQueuesNewLinks(t *testing.T) {
	idx := newTestIndex(t)

	fetcher := &fakeFetcher{bodies: map[string][]byte{
		"a": []byte("x"), "b": []byte("x"),
	}}
	extractor := &fakeExtractor{byURL: map[string]Metadata{
		"a": {Title: "a", Text: "hello", Links: []string{"b"}},
		"b": {Title: "b", Text: "world"},
	}}

	c := New(idx, Config{Fetcher: fetcher, HTMLExtractor: extractor, Concurrency: 64})
	result, err := c.Run(context.Background(), []string{"a"}, 5)
	require.NoError(t, err)
	require.Equal(t, 2, result.Indexed)
}
