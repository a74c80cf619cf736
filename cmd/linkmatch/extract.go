package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkmatch/internal/config"
	"github.com/nao1215/linkmatch/internal/database"
	"github.com/nao1215/linkmatch/internal/extractor"
	"github.com/nao1215/linkmatch/internal/fetch"
	"github.com/nao1215/linkmatch/internal/log"
	"github.com/nao1215/linkmatch/internal/model"
	"github.com/nao1215/linkmatch/internal/pipeline"
	"github.com/nao1215/linkmatch/internal/report"
	"github.com/nao1215/linkmatch/internal/transport"
)

// errExtractionFailed is returned when at least one source could not be extracted.
// The report is still written.
var errExtractionFailed = errors.New("extraction failed")

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file|url]...",
		Short: "Extract link targets from HTML files and URLs",
		Long: `Extract prints the href targets of every <a> tag found in the given sources.

A source beginning with http:// or https:// is fetched with a single HTTP/1.1
GET over a plain TCP connection (no TLS, no redirects). Anything else is read
as a local file.

Links are stripped of their #fragment and de-duplicated in first-seen order.
By default "x" and "x/" count as the same link; use --dedup exact to keep both.

Examples:
  # Extract from a local file
  linkmatch extract index.html

  # Fetch a page and print only the links
  linkmatch extract --links-only http://example.com/

  # Fetch through a local SOCKS5 proxy on a non-default port
  linkmatch extract --proxy 127.0.0.1:1080 --port 8080 http://intranet.local/

  # Fetch an onion service through a private Tor daemon (needs tor on PATH)
  linkmatch extract --embedded-tor http://exampleonionaddress.onion/

  # Extract several sources concurrently and write a Markdown report
  linkmatch extract -b 8 -m -o report.md a.html b.html http://example.com/

Configuration file (.linkmatch) example:
  defaults:
    timeout: 10s
    dedup: trailing-slash
  hosts:
    legacy.example.com:
      port: 8080
      boundary: marker`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	// Fetch behavior
	cmd.Flags().IntP("port", "p", config.DefaultPort,
		"Port dialed when a URL does not name one")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for a whole fetch, from dial to end of response")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response bytes read")
	cmd.Flags().String("boundary", config.DefaultBoundary,
		`How the body is found in a response: "header" or "marker" (<!DOCTYPE html>)`)
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with requests (empty to omit)")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("embedded-tor", false,
		"Start a private Tor daemon and fetch through it (requires tor on PATH)")
	cmd.Flags().Duration("tor-startup-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Bool("dump-body", false,
		"Copy every fetched document to stderr")

	// Matching
	cmd.Flags().String("dedup", config.DefaultDedup,
		`Duplicate detection: "trailing-slash" or "exact"`)
	cmd.Flags().String("scan-mode", config.DefaultScanMode,
		`Document scanner: "pattern" or "tokenizer"`)

	// Batch
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sources extracted concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkmatch in current or home directory)")

	// Report
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("links-only", "l", false,
		"Print bare links, one per line")

	// History
	cmd.Flags().Bool("no-save", false,
		"Do not record extractions in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	stderr := newSyncWriter(cmd.ErrOrStderr())
	logger := log.NewSecureLogger(stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runExtract(ctx, cfg, cmd.OutOrStdout(), stderr, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil {
		return verbose
	}
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// buildConfig creates a Config from flags and the configuration file.
// Flags given on the command line win over file defaults.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Port, err = flags.GetInt("port"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.Boundary, err = flags.GetString("boundary"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.EmbeddedTor, err = flags.GetBool("embedded-tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-startup-timeout"); err != nil {
		return nil, err
	}
	if cfg.DumpBody, err = flags.GetBool("dump-body"); err != nil {
		return nil, err
	}
	if cfg.Dedup, err = flags.GetString("dedup"); err != nil {
		return nil, err
	}
	if cfg.ScanMode, err = flags.GetString("scan-mode"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LinksOnly, err = flags.GetBool("links-only"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	// An explicit --config must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(cf, flags.Changed)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// runExtract extracts every target and writes the report.
func runExtract(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) (err error) {
	logger.Info("starting extraction",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
		"proxy", cfg.ProxyAddress,
		"embeddedTor", cfg.EmbeddedTor,
	)

	var store pipeline.HistoryStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Debug("database opened", "path", db.Path())
	}

	dialer, stopTor, err := newDialer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stopTor()

	var sink io.Writer
	if cfg.DumpBody {
		sink = stderr
	}

	factory, err := newPipelineFactory(cfg, dialer, store, sink, logger)
	if err != nil {
		return err
	}
	bp := pipeline.NewBatchProcessor(
		factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	start := time.Now()
	extractions, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	summary := model.Summarize(extractions)
	logger.Info("extraction finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"succeeded", summary.Succeeded,
		"failed", summary.FailedTotal(),
		"links", summary.TotalLinks,
	)

	w, closeReport, err := newReportWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeReport(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if _, err := w.Write(extractions); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d sources", errExtractionFailed, summary.FailedTotal(), summary.Sources)
	}
	return nil
}

// newDialer returns the dialer for cfg and a function releasing it. With
// --embedded-tor a private Tor daemon is started first and stopped by the
// release function.
func newDialer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*transport.Dialer, func(), error) {
	noop := func() {}

	if !cfg.EmbeddedTor {
		dialer, err := transport.NewDialer(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create dialer: %w", err)
		}
		if cfg.ProxyAddress != "" {
			if err := dialer.CheckProxy(ctx); err != nil {
				return nil, noop, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
					err, cfg.ProxyAddress)
			}
			logger.Info("SOCKS5 proxy verified", "address", cfg.ProxyAddress)
		}
		return dialer, noop, nil
	}

	logger.Warn("starting embedded Tor daemon, this may take a few minutes",
		"startupTimeout", cfg.TorStartupTimeout)
	tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := tor.Start(ctx); err != nil {
		return nil, noop, err
	}
	stop := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := tor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}
	logger.Info("embedded Tor daemon started", "socksAddr", tor.SocksAddr())

	dialer, err := tor.NewDialer(cfg.Timeout)
	if err != nil {
		stop()
		return nil, noop, fmt.Errorf("failed to create dialer: %w", err)
	}
	if err := dialer.CheckProxy(ctx); err != nil {
		stop()
		return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %w", err)
	}
	return dialer, stop, nil
}

// newPipelineFactory returns a factory building the pipeline for one source.
// Remote sources get the fetch settings of their host. The settings are
// resolved here so that a bad host entry fails before any fetch starts.
func newPipelineFactory(
	cfg *config.Config,
	dialer *transport.Dialer,
	store pipeline.HistoryStore,
	sink io.Writer,
	logger *slog.Logger,
) (func(source string) *pipeline.Pipeline, error) {
	matcherOpts := cfg.MatcherOptions()

	hostOpts := make(map[string][]fetch.Option, len(cfg.Targets))
	for _, target := range cfg.Targets {
		host := sourceHost(target)
		if _, ok := hostOpts[host]; ok {
			continue
		}
		opts, err := cfg.FetchOptions(host)
		if err != nil {
			return nil, fmt.Errorf("configuration error: %w", err)
		}
		hostOpts[host] = opts
	}

	return func(source string) *pipeline.Pipeline {
		fetchOpts := append(slices.Clone(hostOpts[sourceHost(source)]),
			fetch.WithDialer(dialer),
			fetch.WithLogger(logger),
			fetch.WithBodySink(sink),
		)
		ex := extractor.New(
			extractor.WithFetcher(fetch.New(fetchOpts...)),
			extractor.WithMatcherOptions(matcherOpts...),
			extractor.WithLogger(logger),
		)

		p := pipeline.New(pipeline.WithLogger(logger), pipeline.WithContinueOnError(true))
		p.AddStep(pipeline.NewExtractStep(ex))
		if store != nil {
			p.AddStep(pipeline.NewHistoryStep(store))
		}
		return p
	}, nil
}

// sourceHost returns the host of a remote source and "" for a local file.
func sourceHost(source string) string {
	if model.DetectSourceKind(source) != model.SourceRemote {
		return ""
	}
	return fetch.SplitAddress(source).Host
}

// syncWriter serializes writes to w. The logger and the body dump share
// stderr, and batch workers write to both concurrently.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newSyncWriter(w io.Writer) *syncWriter {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// newReportWriter returns the report writer for cfg and a function closing
// the report file. With a report file, stdout still receives the bare links.
func newReportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return formatWriter(cfg, stdout, cfg.LinksOnly), func() error { return nil }, nil
	}

	f, err := createReportFile(cfg.ReportFile)
	if err != nil {
		return nil, nil, err
	}
	w := report.NewMultiWriter(
		formatWriter(cfg, f, false),
		report.NewSimpleWriter(stdout, report.WithLinksOnly(true)),
	)
	return w, f.Close, nil
}

// formatWriter selects the writer for the configured report format.
func formatWriter(cfg *config.Config, out io.Writer, linksOnly bool) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out,
			report.WithLinksOnly(linksOnly),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// createReportFile creates path and its parent directories.
// Reports can name internal hosts, so the file is readable by the owner only.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
