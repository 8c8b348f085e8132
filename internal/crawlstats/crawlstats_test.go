package crawlstats

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillsearch/quill/internal/output"
)

func TestPrintSummary_OmitsAverageWhenNothingIndexed(t *testing.T) {
	var buf bytes.Buffer
	out := output.New(&buf)

	PrintSummary(out, Summary{Indexed: 0, WordCount: 0, Duration: time.Second, QueueLen: 3, OutputDir: "data/"})

	text := buf.String()
	require.Contains(t, text, "Indexed Websites: 0")
	require.NotContains(t, text, "Avg Duration")
}

func TestPrintSummary_IncludesAverageWhenIndexed(t *testing.T) {
	var buf bytes.Buffer
	out := output.New(&buf)

	PrintSummary(out, Summary{Indexed: 2, WordCount: 10, Duration: 2 * time.Second, QueueLen: 0, OutputDir: "data/"})

	text := buf.String()
	require.Contains(t, text, "Avg Duration/Websites: 1.00s")
}

func TestPrintHeader_FramesText(t *testing.T) {
	var buf bytes.Buffer
	out := output.New(&buf)

	PrintHeader(out, "Configuration")

	require.Contains(t, buf.String(), "Configuration")
	require.Contains(t, buf.String(), "-")
}
