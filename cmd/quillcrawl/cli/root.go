// Package cli implements the quillcrawl command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillsearch/quill/internal/config"
	"github.com/quillsearch/quill/internal/crawl"
	"github.com/quillsearch/quill/internal/crawlstats"
	"github.com/quillsearch/quill/internal/index"
	"github.com/quillsearch/quill/internal/logging"
	"github.com/quillsearch/quill/internal/output"
	"github.com/quillsearch/quill/internal/progress"
	"github.com/quillsearch/quill/pkg/version"
)

// Execute runs the quillcrawl command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		limit       int
		outputDir   string
		concurrency int
		development bool
		configPath  string
		numSegments int
		debug       bool
	)

	cmd := &cobra.Command{
		Use:     "quillcrawl [flags] seed...",
		Short:   "Crawl the web and build a segmented inverted index",
		Version: version.String(),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags left unset defer to the config file's values.
			if !cmd.Flags().Changed("limit") {
				limit = 0
			}
			if !cmd.Flags().Changed("output") {
				outputDir = ""
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = 0
			}
			return run(cmd.Context(), runOptions{
				seed:        args,
				limit:       limit,
				outputDir:   outputDir,
				concurrency: concurrency,
				development: development,
				configPath:  configPath,
				numSegments: numSegments,
				debug:       debug,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of websites to index")
	cmd.Flags().StringVar(&outputDir, "output", "data/", "output directory for the index")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "number of concurrent fetch workers")
	cmd.Flags().BoolVar(&development, "development", false, "pretty-print JSON sidecars")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().IntVar(&numSegments, "segments", 0, "number of index segments (default: limit * 10)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

type runOptions struct {
	seed        []string
	limit       int
	outputDir   string
	concurrency int
	development bool
	configPath  string
	numSegments int
	debug       bool
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig("crawl")
	if opts.debug {
		logCfg = logging.DebugConfig("crawl")
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("quillcrawl: set up logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	limit := firstNonZero(opts.limit, cfg.Crawl.Limit)
	outputDir := firstNonEmpty(opts.outputDir, cfg.Crawl.Output)
	concurrency := firstNonZero(opts.concurrency, cfg.Crawl.Concurrency)
	numSegments := opts.numSegments
	if numSegments <= 0 {
		numSegments = firstNonZero(cfg.Crawl.NumSegments, limit*10)
	}

	out := output.New(os.Stdout)
	crawlstats.PrintConfig(out, crawlstats.Config{Limit: limit, Seed: opts.seed, Output: outputDir})
	out.Newline()

	idx, err := index.Open(outputDir, index.Options{
		NumSegments:    numSegments,
		DeleteExisting: true,
		Development:    opts.development,
		Config: index.Config{
			FlushThreshold:   cfg.Index.FlushThreshold,
			SegmentCacheSize: cfg.Index.SegmentCacheSize,
			FlushConcurrency: cfg.Index.FlushConcurrency,
		},
	})
	if err != nil {
		return fmt.Errorf("quillcrawl: open index: %w", err)
	}
	defer idx.Close()

	reporter := progress.New(os.Stdout, logger)
	defer reporter.Done()

	crawler := crawl.New(idx, crawl.Config{
		Concurrency: concurrency,
		Logger:      logger,
		Reporter:    reporter,
	})

	crawlstats.PrintHeader(out, "Downloading")
	start := time.Now()
	result, err := crawler.Run(ctx, opts.seed, limit)
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("quillcrawl: crawl: %w", err)
	}
	if result.Indexed < limit {
		out.Warningf("frontier exhausted before reaching the requested limit (%d of %d websites indexed)", result.Indexed, limit)
	}

	logger.Info("saving index")
	if err := idx.Save(ctx); err != nil {
		return fmt.Errorf("quillcrawl: save index: %w", err)
	}
	logger.Info("saved index")
	out.Successf("index saved (%d words)", idx.WordCount())

	crawlstats.PrintSummary(out, crawlstats.Summary{
		Indexed:   result.Indexed,
		WordCount: idx.WordCount(),
		Duration:  duration,
		QueueLen:  result.QueueLen,
		OutputDir: outputDir,
	})

	return nil
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
