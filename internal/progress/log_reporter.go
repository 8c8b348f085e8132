package progress

import "log/slog"

// logReporter emits progress as structured log lines, for non-interactive
// output (piped stdout, CI).
type logReporter struct {
	logger *slog.Logger
}

func newLogReporter(logger *slog.Logger) *logReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &logReporter{logger: logger}
}

func (r *logReporter) Update(e Event) {
	r.logger.Info("crawl progress",
		slog.Int("indexed", e.Indexed),
		slog.Int("limit", e.Limit),
		slog.Int("queue_len", e.QueueLen),
		slog.Int("errors", e.Errors),
	)
}

func (r *logReporter) Done() {}
