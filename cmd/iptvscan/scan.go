package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/iptvscan/internal/config"
	iptvlog "github.com/nao1215/iptvscan/internal/log"
	"github.com/nao1215/iptvscan/internal/model"
	"github.com/nao1215/iptvscan/internal/pipeline"
	"github.com/nao1215/iptvscan/internal/playlist"
	"github.com/nao1215/iptvscan/internal/probe"
	"github.com/nao1215/iptvscan/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Probe every stream of an IPTV playlist",
		Long: `Scan loads an M3U playlist and checks every stream link for reachability.

Each http(s) link gets a single HEAD (or GET) request bounded by --timeout.
Links with other schemes are marked "Needs Manual Check" without any network
traffic. Results are printed as a table and exported to the output directory.

Examples:
  # Probe the default iptv-org playlist
  iptvscan scan

  # Probe a local playlist and keep only working channels
  iptvscan scan --source channels.m3u --only-available --format m3u

  # Slow servers: longer timeout, fewer probes in flight
  iptvscan scan -t 5s -n 50 --per-host 10

  # Only list the parsed playlist
  iptvscan scan --list

Configuration file (.iptvscan) example:
  source: https://iptv-org.github.io/iptv/index.m3u
  probe:
    concurrency: 200
    timeout: 2s
  export:
    formats: [csv, m3u, md]
    dir: ./out`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Source flags
	cmd.Flags().String("source", config.DefaultSource,
		"Playlist URL or local file path")
	cmd.Flags().Bool("list", false,
		"Print the parsed playlist without probing")

	// Probe flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of probes in flight")
	cmd.Flags().Int("per-host", config.DefaultPerHost,
		"Maximum number of probes in flight against one host")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Time limit for each probe")
	cmd.Flags().Int("progress", config.DefaultProgressInterval,
		"Print a progress line every N completed probes")
	cmd.Flags().String("method", config.DefaultMethod,
		"Request method used for probes (HEAD or GET)")
	cmd.Flags().String("proxy", "",
		"Route probes through a SOCKS5 proxy (e.g., socks5://127.0.0.1:1080)")
	cmd.Flags().Float64("rate", 0,
		"Maximum probe starts per second (0 means unlimited)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .iptvscan in current or home directory)")

	// Export flags
	cmd.Flags().StringSlice("format", config.DefaultFormats,
		"Export formats: csv, txt, m3u, md, json, sqlite or all")
	cmd.Flags().Bool("only-available", false,
		"Export only available channels")
	cmd.Flags().StringP("output", "o", ".",
		"Directory export files are written to")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := iptvlog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cmd.OutOrStdout(), cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in increasing order of precedence. Only flags set on the
// command line override the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path that does not exist is an error. Without -c a missing
	// file just means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.Apply(file)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if flags.Changed("source") {
		if cfg.Source, err = flags.GetString("source"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("per-host") {
		if cfg.PerHost, err = flags.GetInt("per-host"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("progress") {
		if cfg.ProgressInterval, err = flags.GetInt("progress"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("method") {
		if cfg.Method, err = flags.GetString("method"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.Rate, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("format") {
		if cfg.Formats, err = flags.GetStringSlice("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("only-available") {
		if cfg.OnlyAvailable, err = flags.GetBool("only-available"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}

	if cfg.ListOnly, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// transportOptions returns the transport settings shared by playlist
// fetching and probing.
func transportOptions(cfg *config.Config) []probe.TransportOption {
	opts := []probe.TransportOption{probe.WithPerHost(cfg.PerHost)}
	if cfg.Proxy != "" {
		opts = append(opts, probe.WithProxy(cfg.Proxy))
	}
	return opts
}

// loadPlaylist fetches and parses the configured source.
func loadPlaylist(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]*model.Entry, error) {
	transport, err := probe.NewTransport(transportOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	defer transport.CloseIdleConnections()

	loader := playlist.NewLoader(
		playlist.WithHTTPClient(&http.Client{
			Transport: transport,
			Timeout:   playlist.DefaultFetchTimeout,
		}),
		playlist.WithUserAgent(cfg.UserAgent),
		playlist.WithLogger(logger),
	)

	entries, err := loader.Load(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist %s: %w", cfg.Source, err)
	}
	return entries, nil
}

// newController builds the prober and the controller for cfg.
func newController(cfg *config.Config, out io.Writer, logger *slog.Logger) (pipeline.Controller, func(), error) {
	transport, err := probe.NewTransport(transportOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport: %w", err)
	}

	prober := probe.NewHTTPProber(
		probe.WithTimeout(cfg.Timeout),
		probe.WithMethod(cfg.Method),
		probe.WithUserAgent(cfg.UserAgent),
		probe.WithHeaders(cfg.Headers),
		probe.WithTransport(transport),
		probe.WithLogger(logger),
	)

	controller, err := pipeline.New(prober,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithPerHost(cfg.PerHost),
		pipeline.WithProgressInterval(cfg.ProgressInterval),
		pipeline.WithRate(cfg.Rate),
		pipeline.WithObserver(pipeline.MultiObserver{
			progressPrinter{out: out},
			pipeline.LogObserver{Logger: logger},
		}),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, nil, err
	}
	return controller, transport.CloseIdleConnections, nil
}

// runScan loads the playlist, probes it and writes every report.
func runScan(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"source", cfg.Source,
		"concurrency", cfg.Concurrency,
		"perHost", cfg.PerHost,
		"timeout", cfg.Timeout,
		"method", cfg.Method,
	)

	entries, err := loadPlaylist(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No IPTV links found")
		return nil
	}

	if cfg.ListOnly {
		return report.NewConsoleWriter(out).Write(entries, nil)
	}

	fmt.Fprintf(out, "Loaded %d links from %s\n", len(entries), cfg.Source)

	controller, closeIdle, err := newController(cfg, out, logger)
	if err != nil {
		return err
	}
	defer closeIdle()

	run, runErr := controller.Run(ctx, entries)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	fmt.Fprintln(out)
	if err := report.NewMultiWriter(
		report.NewConsoleWriter(out),
		report.NewSummaryWriter(out),
	).Write(entries, run); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}

	// Exports use their own context so an interrupted scan still saves
	// what was probed.
	if err := exportAll(context.WithoutCancel(ctx), out, cfg, entries, run); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("scan interrupted: %w", runErr)
	}
	return nil
}

// exportAll writes one file per configured format.
func exportAll(ctx context.Context, out io.Writer, cfg *config.Config, entries []*model.Entry, run *model.BatchRun) error {
	selected := report.SelectEntries(entries, cfg.OnlyAvailable)
	opts := report.Options{Version: getVersion()}

	for _, format := range cfg.Formats {
		path := cfg.ExportPath(format)
		if err := report.ExportFile(ctx, format, path, selected, run, opts); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d channels to %s\n", len(selected), path)
	}
	return nil
}
