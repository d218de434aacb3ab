/*
Package main is the entry point for the liscan command-line application.

liscan looks for registrable labels under the .li top-level domain. It
generates candidate labels (exhaustively, from word lists, or as repeat
patterns), asks the registry's availability service about each one over a
short-lived TCP connection, and reports what it finds.

Subcommands:
  - scan: generate candidates and query every one of them, paced and retried.
  - check: query explicit labels with the same retry policy.
  - generate: print the candidate stream without querying (dry run).

The application uses the Cobra library for command-line structure and flag
parsing. Settings come from built-in defaults, an optional YAML file given
with --config, and command-line flags, in increasing precedence.
Interruption is handled via context cancellation triggered by SIGINT or
SIGTERM; the summary is still printed.
*/
package main

/*
liscan — scanner for registrable .li domain labels
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/x-stp/liscan/internal/candidate"
	"github.com/x-stp/liscan/internal/config"
	"github.com/x-stp/liscan/internal/core"
	lio "github.com/x-stp/liscan/internal/io"
	"github.com/x-stp/liscan/internal/metrics"
	"github.com/x-stp/liscan/internal/util"
	"github.com/x-stp/liscan/internal/whois"
)

// Global flags (persistent across commands)
var (
	configFile  string
	debug       bool
	metricsAddr string
)

// Flags shared by scan, check and generate
var (
	length       int
	charset      string
	methods      []string
	minRepeats   int
	dictFile     string
	pinyinFile   string
	delay        float64
	maxRetries   int
	maxPerMinute int
	outputPath   string
	liveLogPath  string
	verbose      bool
	serverHost   string
	serverPort   int
	tld          string
	timeout      float64
	labelsFile   string
	limit        int
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "liscan",
	Short: "liscan - find registrable .li domain labels",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(debug)
		if err != nil {
			return fmt.Errorf("initialising logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Generate candidate labels and query their availability",
	Long: `Generates candidate labels with the selected methods and queries the
availability service for each one, strictly one at a time. Available domains
are printed in green and optionally written to --output and --live-log.

Methods may be given comma-separated or as further words after -m.`,
	Example: `  liscan scan -l 3 -c letters -m all
  liscan scan -l 5 -m dict,repeats --min-repeats 3 -o found.txt
  liscan scan -l 5 -m dict repeats -o found.txt
  liscan scan -l 4 -m pinyin --pinyin-dict-file pinyin.txt --delay 2`,
	Args: methodArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		return runScan(cmd.Context(), cfg)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [label...]",
	Short: "Query explicit labels with the scan retry policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		labels, err := collectLabels(args, labelsFile)
		if err != nil {
			return err
		}
		if len(labels) == 0 {
			return errors.New("no labels given: pass them as arguments or with --file")
		}
		return runCheck(cmd.Context(), cfg, labels)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print the candidate labels a scan would query, without querying",
	Args:  methodArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		return runGenerate(cmd.Context(), cfg, limit)
	},
}

func init() {
	// Persistent flags (available for all commands)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (flags override its values)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	charsetNames := make([]string, 0, len(candidate.Charsets))
	for _, c := range candidate.Charsets {
		charsetNames = append(charsetNames, string(c))
	}
	methodNames := make([]string, 0, len(candidate.Methods))
	for _, m := range candidate.Methods {
		methodNames = append(methodNames, string(m))
	}

	for _, cmd := range []*cobra.Command{scanCmd, generateCmd} {
		cmd.Flags().IntVarP(&length, "length", "l", 0, "Length of the label to scan")
		cmd.Flags().StringVarP(&charset, "chars", "c", string(candidate.CharsetAlnum), "Character set: "+strings.Join(charsetNames, ", "))
		cmd.Flags().StringSliceVarP(&methods, "methods", "m", nil, "Generation methods: "+strings.Join(methodNames, ", "))
		cmd.Flags().IntVar(&minRepeats, "min-repeats", 2, "Minimum run of identical characters for the repeats method (>= 2)")
		cmd.Flags().StringVar(&dictFile, "dict-file", config.DefaultDictFile, "Word list for the dict method")
		cmd.Flags().StringVar(&pinyinFile, "pinyin-dict-file", "", "Pinyin word list for the pinyin method")
	}
	generateCmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many labels (0 for no limit)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write labels to this file instead of stdout (.gz compresses)")

	for _, cmd := range []*cobra.Command{scanCmd, checkCmd} {
		cmd.Flags().Float64Var(&delay, "delay", core.DefaultBaseDelay.Seconds(), "Delay in seconds between queries")
		cmd.Flags().IntVar(&maxRetries, "max-retries", core.DefaultMaxRetries, "Maximum retries after a network error")
		cmd.Flags().IntVar(&maxPerMinute, "max-per-minute", 0, "Hard cap on queries per minute (0 for none)")
		cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write available domains to this file, replacing its contents (a directory gets a generated name)")
		cmd.Flags().StringVar(&liveLogPath, "live-log", "", "Write available domains with timestamps to this file as they are found")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every result, including registered domains")
		cmd.Flags().StringVar(&serverHost, "host", whois.DefaultHost, "Availability server host")
		cmd.Flags().IntVar(&serverPort, "port", whois.DefaultPort, "Availability server port")
		cmd.Flags().StringVar(&tld, "tld", whois.DefaultTLD, "Top-level domain appended to every label")
		cmd.Flags().Float64Var(&timeout, "timeout", whois.DefaultTimeout.Seconds(), "Connect and read/write timeout in seconds")
	}
	checkCmd.Flags().StringVarP(&labelsFile, "file", "f", "", "Read labels from this file, one per line")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig, ok := <-signalChan
		if !ok {
			return
		}
		logger.Info("received signal, stopping", zap.Stringer("signal", sig))
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	signal.Stop(signalChan)
	close(signalChan)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger: human-readable console output on
// stderr, development settings with --debug.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// methodArgs accepts positional words only as further generation methods,
// so "-m dict repeats" enables both.
func methodArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if f := cmd.Flags().Lookup("methods"); f == nil || !f.Changed {
		return fmt.Errorf("unexpected arguments %q", args)
	}
	for _, a := range args {
		if !candidate.Method(a).Valid() {
			return fmt.Errorf("unknown generation method %q", a)
		}
	}
	return nil
}

// loadConfig layers defaults, the --config file and explicitly set flags.
// extraMethods are positional method names that followed -m.
func loadConfig(cmd *cobra.Command, extraMethods []string) (*config.ScanConfig, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("length") {
		cfg.Length = length
	}
	if changed("chars") {
		cfg.Charset = candidate.Charset(charset)
	}
	if changed("methods") {
		cfg.Methods = cfg.Methods[:0]
		for _, m := range slices.Concat(methods, extraMethods) {
			cfg.Methods = append(cfg.Methods, candidate.Method(strings.TrimSpace(m)))
		}
	}
	if changed("min-repeats") {
		cfg.MinRepeats = minRepeats
	}
	if changed("dict-file") {
		cfg.DictFile = dictFile
	}
	if changed("pinyin-dict-file") {
		cfg.PinyinDictFile = pinyinFile
	}
	if changed("delay") {
		cfg.DelaySeconds = delay
	}
	if changed("max-retries") {
		cfg.MaxRetries = maxRetries
	}
	if changed("max-per-minute") {
		cfg.MaxPerMinute = maxPerMinute
	}
	if changed("output") {
		cfg.Output = outputPath
	}
	if changed("live-log") {
		cfg.LiveLog = liveLogPath
	}
	if changed("verbose") {
		cfg.Verbose = verbose
	}
	if changed("host") {
		cfg.Server.Host = serverHost
	}
	if changed("port") {
		cfg.Server.Port = serverPort
	}
	if changed("tld") {
		cfg.Server.TLD = tld
	}
	if changed("timeout") {
		cfg.Server.TimeoutSeconds = timeout
	}

	// check queries explicit labels; generation settings do not apply.
	validate := cfg.Validate
	if cmd.Name() == "check" {
		validate = cfg.ValidateLookup
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startMetrics serves /metrics when --metrics-addr is set. The returned
// func shuts the server down.
func startMetrics() func() {
	if metricsAddr == "" {
		return func() {}
	}
	metrics.EnableMetrics()
	if err := metrics.StartMetricsServer(metricsAddr, logger.Named("metrics")); err != nil {
		logger.Warn("failed to start metrics server", zap.String("addr", metricsAddr), zap.Error(err))
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := metrics.ShutdownMetricsServer(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}

// newScanner wires client, retry policy, pacing and sinks around source.
func newScanner(cfg *config.ScanConfig, source core.LabelSource, sinks ...core.Sink) (*core.Scanner, *core.Pacer) {
	client := whois.NewClient(cfg.ClientConfig(), logger.Named("whois"))
	retrier := core.NewRetrier(client, cfg.MaxRetries, logger.Named("retry"))
	pacer := core.NewPacer(cfg.BaseDelay(), logger.Named("pacing"), core.WithMaxPerMinute(cfg.MaxPerMinute))
	return core.NewScanner(source, retrier, pacer, logger.Named("scan"), sinks...), pacer
}

// openSinks opens the found-domain file and the live log. A failure to open
// the found file is fatal; a failing live log only produces a warning.
func openSinks(cfg *config.ScanConfig) (sinks []core.Sink, closers []func() error, err error) {
	now := time.Now()
	if cfg.Output != "" {
		path := resolveOutputPath(cfg.Output, cfg, now, ".txt")
		w, err := lio.OpenSinkFile(path, logger.Named("output"))
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open output file: %w", err)
		}
		found := lio.NewFoundSink(w)
		sinks = append(sinks, found)
		closers = append(closers, found.Close)
		cfg.Output = path
		fmt.Printf("Results will be written to: %s\n", path)
	}
	if cfg.LiveLog != "" {
		path := resolveOutputPath(cfg.LiveLog, cfg, now, ".log")
		w, err := lio.OpenSinkFile(path, logger.Named("live-log"))
		if err != nil {
			logger.Warn("cannot open live log, continuing without it", zap.String("path", path), zap.Error(err))
			cfg.LiveLog = ""
		} else {
			live := lio.NewLiveLog(w)
			sinks = append(sinks, live)
			closers = append(closers, live.Close)
			cfg.LiveLog = path
			fmt.Printf("Available domains will be logged live to: %s\n", path)
		}
	}
	return sinks, closers, nil
}

// resolveOutputPath places a generated file name inside path when path is an
// existing directory.
func resolveOutputPath(path string, cfg *config.ScanConfig, at time.Time, ext string) string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	return filepath.Join(path, util.ReportFilename(cfg.Server.TLD, cfg.Length, string(cfg.Charset), at, ext))
}

func runScan(ctx context.Context, cfg *config.ScanConfig) error {
	stopMetrics := startMetrics()
	defer stopMetrics()

	sinks, closers, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("closing output", zap.Error(err))
			}
		}
	}()

	fmt.Println("Initialising candidate generator...")
	pipeline, err := candidate.NewPipeline(cfg.Generation(), logger.Named("pipeline"))
	if err != nil {
		return err
	}
	defer pipeline.Close()

	printScanConfig(cfg, pipeline)

	if cfg.Enabled(candidate.MethodExhaustive) {
		n := candidate.Cardinality(cfg.Length, len([]rune(pipeline.Alphabet())))
		logger.Info("exhaustive enumeration size", zap.Uint64("candidates", n))
	}

	reporter := newReporter(cfg.Verbose)
	scanner, pacer := newScanner(cfg, pipeline, append([]core.Sink{reporter}, sinks...)...)
	reporter.pacer = pacer

	fmt.Println()
	fmt.Println("--- Starting availability queries ---")
	snap, err := scanner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		fmt.Println(colorize(red, "Scan interrupted by user."))
		err = nil
	} else if err != nil {
		fmt.Println()
		fmt.Println(colorize(red, fmt.Sprintf("Scan stopped by an unexpected error: %v", err)))
	}

	displayFinalScanStats(cfg, snap, pipeline.Stats())
	return err
}

func runCheck(ctx context.Context, cfg *config.ScanConfig, labels []string) error {
	stopMetrics := startMetrics()
	defer stopMetrics()

	sinks, closers, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("closing output", zap.Error(err))
			}
		}
	}()

	reporter := newReporter(true)
	scanner, pacer := newScanner(cfg, candidate.NewSliceSource(labels...), append([]core.Sink{reporter}, sinks...)...)
	reporter.pacer = pacer

	snap, err := scanner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println(colorize(red, "Check interrupted by user."))
		err = nil
	}
	displayFinalCheckStats(snap)
	return err
}

func runGenerate(ctx context.Context, cfg *config.ScanConfig, maxLabels int) error {
	pipeline, err := candidate.NewPipeline(cfg.Generation(), logger.Named("pipeline"))
	if err != nil {
		return err
	}
	defer pipeline.Close()

	emit := func(label string) error {
		_, err := fmt.Println(label)
		return err
	}
	if cfg.Output != "" {
		path := resolveOutputPath(cfg.Output, cfg, time.Now(), ".txt")
		opts := lio.DefaultWriterOptions()
		opts.Compressed = strings.HasSuffix(path, ".gz")
		w, err := lio.NewLineWriter(path, opts, logger.Named("output"))
		if err != nil {
			return fmt.Errorf("cannot open output file: %w", err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("closing output", zap.Error(err))
			}
			if n := w.Errors(); n > 0 {
				logger.Warn("output had write errors", zap.String("path", w.Path()), zap.Int64("errors", n))
			}
		}()
		logger.Info("writing labels", zap.String("path", w.Path()), zap.Bool("compressed", opts.Compressed))
		emit = w.WriteLine
	}

	var n int
	for label := range candidate.All(pipeline) {
		if ctx.Err() != nil {
			break
		}
		if err := emit(label); err != nil {
			return err
		}
		n++
		if maxLabels > 0 && n >= maxLabels {
			break
		}
	}

	stats := pipeline.Stats()
	logger.Info("generation done",
		zap.Int("emitted", n),
		zap.Int64("produced", stats.Produced),
		zap.Int64("invalid", stats.Invalid),
		zap.Int64("duplicate", stats.Duplicate))
	return nil
}

// collectLabels merges positional labels with those read from path.
func collectLabels(args []string, path string) ([]string, error) {
	labels := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			labels = append(labels, a)
		}
	}
	if path == "" {
		return labels, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening labels file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.ToLower(strings.TrimSpace(scanner.Text())); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading labels file: %w", err)
	}
	return labels, nil
}
