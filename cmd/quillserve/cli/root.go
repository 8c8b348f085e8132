// Package cli implements the quillserve command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-mizu/mizu"
	"github.com/spf13/cobra"

	"github.com/quillsearch/quill/internal/config"
	"github.com/quillsearch/quill/internal/logging"
	"github.com/quillsearch/quill/internal/output"
	"github.com/quillsearch/quill/internal/queryfront"
	"github.com/quillsearch/quill/pkg/version"
)

// Execute runs the quillserve command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		dataDir    string
		listenAddr string
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:     "quillserve [flags]",
		Short:   "Serve search queries against a quill index",
		Version: version.String(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), runOptions{
				dataDir:    dataDir,
				listenAddr: listenAddr,
				configPath: configPath,
				debug:      debug,
			})
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "data/", "path to the index directory produced by quillcrawl")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default: from config, or :8080)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

type runOptions struct {
	dataDir    string
	listenAddr string
	configPath string
	debug      bool
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig("serve")
	if opts.debug {
		logCfg = logging.DebugConfig("serve")
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("quillserve: set up logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	listenAddr := opts.listenAddr
	if listenAddr == "" {
		listenAddr = cfg.Serve.ListenAddr
	}

	out := output.New(os.Stdout)
	out.Statusf("📂", "Serving index from %s", opts.dataDir)
	out.Statusf("🌐", "Listening on %s", listenAddr)
	out.Newline()

	srv, err := queryfront.Open(opts.dataDir, logger)
	if err != nil {
		return fmt.Errorf("quillserve: open index: %w", err)
	}
	defer srv.Close()

	go func() {
		if err := srv.WatchAndReload(ctx); err != nil {
			logger.Warn("sidecar watcher stopped", slog.Any("error", err))
		}
	}()

	app := mizu.New(mizu.WithLogger(logger))
	srv.RegisterRoutes(app.Router)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: app,
	}

	logger.Info("listening", slog.String("addr", listenAddr))
	err = app.ServeContext(ctx, httpServer, func() error { return httpServer.ListenAndServe() })
	if err != nil {
		return fmt.Errorf("quillserve: serve: %w", err)
	}
	out.Warning("shut down")
	return nil
}
