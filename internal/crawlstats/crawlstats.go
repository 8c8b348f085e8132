// Package crawlstats prints the crawl configuration banner and the
// end-of-run summary statistics block, ported from the original crawler's
// print_header and trailing print calls.
package crawlstats

import (
	"strconv"
	"strings"
	"time"

	"github.com/quillsearch/quill/internal/duration"
	"github.com/quillsearch/quill/internal/output"
)

// PrintHeader prints text framed by "-" characters, matching the original
// crawler's print_header: the line is padded to 80 characters counting its
// leading newline, so the visible rule is 79 columns wide.
func PrintHeader(w *output.Writer, text string) {
	left := strings.Repeat("-", max(40-len(text)/2, 0))
	line := "\n" + left + text
	line += strings.Repeat("-", max(80-len(line), 0))
	w.Status("", line)
}

// Config describes the crawl run about to start.
type Config struct {
	Limit  int
	Seed   []string
	Output string
}

// PrintConfig prints the "Configuration" banner.
func PrintConfig(out *output.Writer, cfg Config) {
	PrintHeader(out, "Configuration")
	out.Status("", "- Downloading "+strconv.Itoa(cfg.Limit)+" websites")
	out.Status("", "- Website seed: "+strings.Join(cfg.Seed, ", "))
	out.Status("", "- Outputdirectory: "+cfg.Output)
}

// Summary holds the final counters printed at the end of a crawl.
type Summary struct {
	Indexed   int
	WordCount int
	Duration  time.Duration
	QueueLen  int
	OutputDir string
}

// PrintSummary prints the "Statistics" banner and its summary lines.
func PrintSummary(out *output.Writer, s Summary) {
	PrintHeader(out, "Statistics")
	out.Status("", "- Indexed Websites: "+strconv.Itoa(s.Indexed))
	out.Status("", "- Indexed Words: "+strconv.Itoa(s.WordCount))
	out.Status("", "- Duration: "+duration.Format(s.Duration))
	if s.Indexed > 0 {
		avg := s.Duration / time.Duration(s.Indexed)
		out.Status("", "- Avg Duration/Websites: "+duration.Format(avg))
	}
	out.Status("", "- Websites in queue: "+strconv.Itoa(s.QueueLen))
	out.Status("", "- Saved in: "+s.OutputDir)
}
