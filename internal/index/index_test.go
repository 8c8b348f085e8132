package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillsearch/quill/internal/segment"
)

func TestOpen_RequiresNumSegmentsForNewIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing"), Options{})
	require.Error(t, err)
}

func TestOpen_FatalOnMissingSidecars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, websitesFileName), []byte("[]"), 0o644))
	// config.json missing.
	_, err := Open(dir, Options{})
	require.Error(t, err)
}

// S1 from spec.md §8: single document, single term.
func TestAddWebsiteThenSave_S1(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer idx.Close()

	id, err := idx.AddWebsite(ctx, Website{URL: "a"}, "hello")
	require.NoError(t, err)
	require.Equal(t, 0, id)

	require.NoError(t, idx.Save(ctx))

	websitesData, err := os.ReadFile(filepath.Join(dir, websitesFileName))
	require.NoError(t, err)
	var websites []Website
	require.NoError(t, json.Unmarshal(websitesData, &websites))
	require.Len(t, websites, 1)
	require.Equal(t, 1, websites[0].WordCount)

	segID := segment.Route("hello", 4)
	segPath := filepath.Join(dir, segment.FileName(segID))
	segData, err := os.ReadFile(segPath)
	require.NoError(t, err)
	require.Equal(t, "hello:[0|0]\n", string(segData))

	configData, err := os.ReadFile(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	var cfg sidecarConfig
	require.NoError(t, json.Unmarshal(configData, &cfg))
	require.Equal(t, 1.0, cfg.AvgLength)
	require.Equal(t, 1, cfg.WordCount)
	require.Equal(t, 4, cfg.NumSegments)
}

// S2 from spec.md §8: two documents, overlapping term, single segment.
func TestFind_S2_TiesBreakByWebID(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 1})
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.AddWebsite(ctx, Website{URL: "a"}, "hello world")
	require.NoError(t, err)
	_, err = idx.AddWebsite(ctx, Website{URL: "b"}, "hello there")
	require.NoError(t, err)
	require.NoError(t, idx.Save(ctx))

	results, err := idx.Find(ctx, "hello")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a", results[0].URL)
	require.Equal(t, "b", results[1].URL)
}

// S4 from spec.md §8: flush threshold behavior with a lowered threshold.
func TestFlushThreshold_S4(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 4, Config: Config{FlushThreshold: 10}})
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.AddWebsite(ctx, Website{URL: "a"}, "one two three four five six")
	require.NoError(t, err)
	require.Equal(t, 6, idx.unsaved)

	_, err = idx.AddWebsite(ctx, Website{URL: "b"}, "seven eight nine ten eleven twelve")
	require.NoError(t, err)
	require.Equal(t, 0, idx.unsaved, "threshold crossed at 12 tokens, buffer should have flushed")
	require.Empty(t, idx.buffer)

	_, err = idx.AddWebsite(ctx, Website{URL: "c"}, "one two three")
	require.NoError(t, err)
	require.Equal(t, 3, idx.unsaved)

	require.NoError(t, idx.Save(ctx))
	require.Equal(t, 0, idx.unsaved)

	results, err := idx.Find(ctx, "one")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

// S6 from spec.md §8: query terms absent from the corpus contribute zero,
// not an error.
func TestFind_S6_MissingTerm(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.AddWebsite(ctx, Website{URL: "a"}, "hello")
	require.NoError(t, err)
	require.NoError(t, idx.Save(ctx))

	results, err := idx.Find(ctx, "hello world")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestFind_ReturnsNilForEmptyQuery(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer idx.Close()

	results, err := idx.Find(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSave_FailsOnEmptyIndex(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer idx.Close()

	err = idx.Save(context.Background())
	require.Error(t, err)
}

// Round-trip law: open(dir); add; save(); open(dir) preserves website count
// and field values.
func TestRoundTrip_SaveThenReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	_, err = idx.AddWebsite(ctx, Website{URL: "a", Name: "A", Description: "desc", Icon: "/favicon.ico"}, "hello world")
	require.NoError(t, err)
	require.NoError(t, idx.Save(ctx))
	require.NoError(t, idx.Close())

	reopened, err := Open(dir, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, 1, reopened.Len())
	require.Equal(t, 4, reopened.NumSegments())

	results, err := reopened.Find(ctx, "hello")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].URL)
	require.Equal(t, "A", results[0].Name)
}

func TestOpen_SecondInstanceFailsToLock(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer idx.Close()

	_, err = Open(dir, Options{})
	require.Error(t, err)
}

func TestOpen_ReadOnly_MultipleReadersCoexist(t *testing.T) {
	dir := t.TempDir()
	writer, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	r1, err := Open(dir, Options{ReadOnly: true})
	require.NoError(t, err)
	defer r1.Close()

	r2, err := Open(dir, Options{ReadOnly: true})
	require.NoError(t, err)
	defer r2.Close()
}

func TestOpen_ReadOnly_ConflictsWithWriter(t *testing.T) {
	dir := t.TempDir()
	writer, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	defer writer.Close()

	_, err = Open(dir, Options{ReadOnly: true})
	require.Error(t, err)
}

func TestOpen_DeleteExistingStartsFresh(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := Open(dir, Options{NumSegments: 4})
	require.NoError(t, err)
	_, err = idx.AddWebsite(ctx, Website{URL: "a"}, "hello")
	require.NoError(t, err)
	require.NoError(t, idx.Save(ctx))
	require.NoError(t, idx.Close())

	fresh, err := Open(dir, Options{NumSegments: 8, DeleteExisting: true})
	require.NoError(t, err)
	defer fresh.Close()

	require.Equal(t, 0, fresh.Len())
	require.Equal(t, 8, fresh.NumSegments())
}
