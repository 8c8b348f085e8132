// Package watch notifies the query front-end when the index's sidecar
// files change on disk, so it can re-open its read-only handle without the
// crawler and the server needing to serialize through any other channel.
// It wraps github.com/fsnotify/fsnotify, the same library the teacher's
// project watcher is built on, trimmed to the single event it needs:
// "one of the watched files was just rewritten".
package watch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SidecarWatcher watches the parent directories of a fixed set of files and
// calls a callback after a file there is written (via fsnotify.Write or the
// atomic-rename pattern index.Save uses, which fsnotify reports as Create on
// the destination path). Event file names are not checked: a write or
// create of any file in a watched directory fires the callback, not only
// one of the given files.
type SidecarWatcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// New creates a SidecarWatcher for the given files. The files' parent
// directories must exist; the files themselves need not.
func New(paths []string, logger *slog.Logger) (*SidecarWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch each file's parent directory, since fsnotify on some
	// platforms cannot reliably watch a path is an atomic rename will
	// replace the inode at.
	dirs := make(map[string]bool)
	for _, p := range paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	return &SidecarWatcher{watcher: w, logger: logger}, nil
}

// Run blocks, invoking onChange whenever a file in a watched directory is
// created, written, or renamed into place, until ctx is canceled.
func (s *SidecarWatcher) Run(ctx context.Context, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			_ = s.watcher.Close()
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				onChange()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}
