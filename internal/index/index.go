// Package index implements the persistent, segmented inverted index: the
// in-memory buffer, its periodic flush to per-segment files on disk, the
// websites.json/config.json sidecars, and query-time loading and ranking.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/quillsearch/quill/internal/bm25"
	"github.com/quillsearch/quill/internal/quillerr"
	"github.com/quillsearch/quill/internal/segment"
	"github.com/quillsearch/quill/internal/token"
)

const (
	websitesFileName = "websites.json"
	configFileName   = "config.json"
	lockFileName     = ".quill.lock"
)

// Options configures Open.
type Options struct {
	// NumSegments is required when creating a new index (the directory
	// does not yet exist, or DeleteExisting is set). It is ignored when
	// opening an existing index: num_segments is immutable after
	// creation and is read from config.json.
	NumSegments int
	// DeleteExisting recursively removes dir before creating a fresh,
	// empty index there.
	DeleteExisting bool
	// Development pretty-prints the JSON sidecars when true.
	Development bool
	// Config tunes ambient behavior (flush threshold, cache size, flush
	// concurrency). A zero Config uses DefaultConfig().
	Config Config
	// ReadOnly acquires a shared lock instead of an exclusive one, so
	// multiple read-only handles (and a concurrent writer's exclusive
	// lock, once released) can coexist on the same directory. A
	// ReadOnly Index must not call AddWebsite, Flush, or Save.
	ReadOnly bool
}

// Index is a handle on one on-disk segmented inverted index. A writer
// Index holds an exclusive lock on its directory for its entire lifetime;
// a ReadOnly Index holds a shared lock. See Close.
type Index struct {
	dir         string
	development bool
	cfg         Config
	logger      *slog.Logger

	lock *flock.Flock
	cache *segmentCache

	mu          sync.RWMutex
	websites    []Website
	buffer      map[string]map[int][]int // term -> web_id -> positions
	unsaved     int
	wordCount   int
	avgLength   float64
	numSegments int
}

// Open creates or opens an index at dir, acquiring a lock on the directory
// for the lifetime of the returned Index: exclusive for a writer, shared
// when opts.ReadOnly is set. Callers must Close it.
func Open(dir string, opts Options) (*Index, error) {
	cfg := opts.Config.withDefaults()
	logger := slog.Default().With(slog.String("component", "index"), slog.String("dir", dir))

	if opts.DeleteExisting {
		if err := os.RemoveAll(dir); err != nil {
			return nil, quillerr.Wrap(quillerr.CodeSegmentIO, fmt.Errorf("index: remove existing dir %s: %w", dir, err))
		}
	}

	cache, err := newSegmentCache(cfg.SegmentCacheSize)
	if err != nil {
		return nil, quillerr.Wrap(quillerr.CodeInternal, err)
	}

	idx := &Index{
		dir:         dir,
		development: opts.Development,
		cfg:         cfg,
		logger:      logger,
		cache:       cache,
		buffer:      make(map[string]map[int][]int),
	}

	_, statErr := os.Stat(dir)
	switch {
	case os.IsNotExist(statErr):
		if opts.NumSegments <= 0 {
			return nil, quillerr.New(quillerr.CodeInvalidConfig, "index: NumSegments is required when creating a new index", nil)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, quillerr.Wrap(quillerr.CodeSegmentIO, fmt.Errorf("index: create dir %s: %w", dir, err))
		}
		idx.numSegments = opts.NumSegments
	case statErr != nil:
		return nil, quillerr.Wrap(quillerr.CodeSegmentIO, fmt.Errorf("index: stat %s: %w", dir, statErr))
	default:
		if err := idx.load(); err != nil {
			return nil, err
		}
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	var locked bool
	if opts.ReadOnly {
		locked, err = lock.TryRLock()
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return nil, quillerr.Wrap(quillerr.CodeDirectoryLocked, fmt.Errorf("index: acquire lock on %s: %w", dir, err))
	}
	if !locked {
		return nil, quillerr.New(quillerr.CodeDirectoryLocked, fmt.Sprintf("index: %s is already open by another instance", dir), nil)
	}
	idx.lock = lock

	return idx, nil
}

// Close releases the index's directory lock. It does not flush or save.
func (idx *Index) Close() error {
	if idx.lock == nil {
		return nil
	}
	if err := idx.lock.Unlock(); err != nil {
		return quillerr.Wrap(quillerr.CodeDirectoryLocked, err)
	}
	return nil
}

// load reads websites.json and config.json from an existing directory.
// Either file missing is fatal: an incomplete index directory cannot be
// opened, per the "open on incomplete index" error kind.
func (idx *Index) load() error {
	websitesPath := filepath.Join(idx.dir, websitesFileName)
	websitesData, err := os.ReadFile(websitesPath)
	if err != nil {
		return quillerr.Wrap(quillerr.CodeSidecarMissing, fmt.Errorf("index: read %s: %w", websitesPath, err))
	}
	var websites []Website
	if err := json.Unmarshal(websitesData, &websites); err != nil {
		return quillerr.Wrap(quillerr.CodeSidecarCorrupt, fmt.Errorf("index: parse %s: %w", websitesPath, err))
	}

	configPath := filepath.Join(idx.dir, configFileName)
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return quillerr.Wrap(quillerr.CodeSidecarMissing, fmt.Errorf("index: read %s: %w", configPath, err))
	}
	var cfg sidecarConfig
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return quillerr.Wrap(quillerr.CodeSidecarCorrupt, fmt.Errorf("index: parse %s: %w", configPath, err))
	}

	idx.websites = websites
	idx.wordCount = cfg.WordCount
	idx.avgLength = cfg.AvgLength
	idx.numSegments = cfg.NumSegments
	return nil
}

// NumSegments returns the (immutable) number of segments this index was
// created with.
func (idx *Index) NumSegments() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.numSegments
}

// Len returns the number of indexed websites.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.websites)
}

// WordCount returns the total number of tokens indexed across all websites.
func (idx *Index) WordCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.wordCount
}

// AddWebsite tokenizes text, assigns w the next web_id, and appends its
// postings to the in-memory buffer. It returns the assigned web_id. When
// the unsaved-token count crosses the configured flush threshold, it
// flushes synchronously before returning.
func (idx *Index) AddWebsite(ctx context.Context, w Website, text string) (int, error) {
	tokens := token.Tokenize(text)
	w.WordCount = len(tokens)

	idx.mu.Lock()
	id := len(idx.websites)
	idx.websites = append(idx.websites, w)
	idx.wordCount += len(tokens)
	idx.unsaved += len(tokens)

	for pos, tok := range tokens {
		byWebID, ok := idx.buffer[tok]
		if !ok {
			byWebID = make(map[int][]int)
			idx.buffer[tok] = byWebID
		}
		byWebID[id] = append(byWebID[id], pos)
	}
	shouldFlush := idx.unsaved >= idx.cfg.FlushThreshold
	idx.mu.Unlock()

	if shouldFlush {
		if err := idx.Flush(ctx); err != nil {
			return id, err
		}
	}

	return id, nil
}

// Flush groups the in-memory buffer by segment, merges each segment's new
// entries into its on-disk file (concurrently across distinct segments),
// and resets the buffer. A failure merging one segment does not corrupt or
// block the others, but the overall Flush still returns the first error.
func (idx *Index) Flush(ctx context.Context) error {
	idx.mu.Lock()
	buffer := idx.buffer
	numSegments := idx.numSegments
	idx.buffer = make(map[string]map[int][]int)
	idx.unsaved = 0
	idx.mu.Unlock()

	if len(buffer) == 0 {
		return nil
	}

	bySegment := make(map[int][]segment.TermEntries)
	for term, postings := range buffer {
		segID := segment.Route(term, numSegments)
		bySegment[segID] = append(bySegment[segID], segment.TermEntries{
			Term:    term,
			Entries: segment.EncodeEntries(postings),
		})
	}
	for segID := range bySegment {
		entries := bySegment[segID]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Term < entries[j].Term })
		bySegment[segID] = entries
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(idx.cfg.FlushConcurrency)
	for segID, entries := range bySegment {
		segID, entries := segID, entries
		g.Go(func() error {
			path := filepath.Join(idx.dir, segment.FileName(segID))
			if err := segment.MergeFlush(path, entries); err != nil {
				idx.logger.Warn("segment flush failed", slog.Int("segment", segID), slog.Any("error", err))
				return quillerr.Wrap(quillerr.CodeSegmentIO, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Save flushes the buffer, then rewrites websites.json and config.json.
// Save fails if no websites have been added, since avg_length would
// otherwise require a division by zero.
func (idx *Index) Save(ctx context.Context) error {
	if err := idx.Flush(ctx); err != nil {
		return err
	}

	idx.mu.RLock()
	websites := make([]Website, len(idx.websites))
	copy(websites, idx.websites)
	wordCount := idx.wordCount
	numSegments := idx.numSegments
	n := len(websites)
	idx.mu.RUnlock()

	if n == 0 {
		return quillerr.New(quillerr.CodeEmptyIndex, "index: save requires at least one website", nil)
	}

	if err := idx.writeJSON(websitesFileName, websites); err != nil {
		return err
	}

	cfg := sidecarConfig{
		AvgLength:   float64(wordCount) / float64(n),
		WordCount:   wordCount,
		NumSegments: numSegments,
	}
	if err := idx.writeJSON(configFileName, cfg); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.avgLength = cfg.AvgLength
	idx.mu.Unlock()

	return nil
}

// writeJSON marshals v and writes it atomically (temp file + rename) to
// name inside the index directory.
func (idx *Index) writeJSON(name string, v any) error {
	var (
		data []byte
		err  error
	)
	if idx.development {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return quillerr.Wrap(quillerr.CodeInternal, err)
	}

	path := filepath.Join(idx.dir, name)
	tmp, err := os.CreateTemp(idx.dir, "."+name+"-*.tmp")
	if err != nil {
		return quillerr.Wrap(quillerr.CodeSegmentIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return quillerr.Wrap(quillerr.CodeSegmentIO, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return quillerr.Wrap(quillerr.CodeSegmentIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return quillerr.Wrap(quillerr.CodeSegmentIO, err)
	}
	return nil
}

// Find tokenizes query, loads each distinct term's postings from its
// segment (concurrently), unions the resulting web_ids into a candidate
// set, ranks them with BM25, and returns the corresponding Website records
// in ranked order.
func (idx *Index) Find(ctx context.Context, query string) ([]Website, error) {
	queryTerms := token.Tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	distinct := make([]string, 0, len(queryTerms))
	seen := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}

	idx.mu.RLock()
	numSegments := idx.numSegments
	n := len(idx.websites)
	avgLength := idx.avgLength
	idx.mu.RUnlock()

	loaded := make([]bm25.Postings, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	for i, term := range distinct {
		i, term := i, term
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			postings, err := idx.loadTerm(term, numSegments)
			if err != nil {
				return err
			}
			loaded[i] = postings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]bm25.Postings, len(distinct))
	candidateSet := make(map[int]bool)
	for i, term := range distinct {
		index[term] = loaded[i]
		for webID := range loaded[i] {
			candidateSet[webID] = true
		}
	}

	ids := make([]int, 0, len(candidateSet))
	for webID := range candidateSet {
		ids = append(ids, webID)
	}

	idx.mu.RLock()
	docLength := make(map[int]int, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(idx.websites) {
			docLength[id] = idx.websites[id].WordCount
		}
	}
	idx.mu.RUnlock()

	ranked := bm25.Rank(index, ids, queryTerms, docLength, n, avgLength)

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	results := make([]Website, 0, len(ranked))
	for _, r := range ranked {
		if r.WebID >= 0 && r.WebID < len(idx.websites) {
			results = append(results, idx.websites[r.WebID])
		}
	}
	return results, nil
}

// loadTerm loads one term's postings from its segment file, going through
// the segment cache first. A parse failure is treated as if the term were
// absent from that segment and logged at warning, per the "segment parse
// error" error kind.
func (idx *Index) loadTerm(term string, numSegments int) (bm25.Postings, error) {
	path := filepath.Join(idx.dir, segment.FileName(segment.Route(term, numSegments)))
	key := idx.cache.key(path, term)

	if cached, ok := idx.cache.get(key); ok {
		return cached, nil
	}

	postings, err := segment.LoadTerm(path, term)
	if err != nil {
		idx.logger.Warn("segment load failed, treating term as absent", slog.String("term", term), slog.Any("error", err))
		return bm25.Postings{}, nil
	}

	idx.cache.add(key, postings)
	return postings, nil
}
