// Package progress reports crawl progress to either an interactive
// terminal (a bubbletea progress bar) or, when stdout is not a terminal,
// structured log lines — mirroring the teacher's ui.Renderer split between
// a TUI and a plain renderer, picked by the same isatty check.
package progress

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Event is one progress update emitted by the crawler coordinator.
type Event struct {
	Indexed  int
	Limit    int
	QueueLen int
	Errors   int
}

// Reporter receives crawl progress events.
type Reporter interface {
	Update(Event)
	// Done stops the reporter and blocks until any terminal state it owns
	// (e.g. the alternate screen buffer) has been torn down.
	Done()
}

// New picks a TUI reporter when out is a terminal, and a log-based reporter
// otherwise, matching the teacher's NewRenderer selection.
func New(out io.Writer, logger *slog.Logger) Reporter {
	if isTTY(out) {
		if r, err := newTUIReporter(out); err == nil {
			return r
		}
	}
	return newLogReporter(logger)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
