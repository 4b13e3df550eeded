// Command saoke-report runs the pipeline once and prints a text report.
//
// Usage:
//
//	saoke-report [-ranges file.yaml] [-chunk bytes] [source-url]
//
// The source defaults to SOURCE_URL. Progress goes to stderr, the report
// to stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"saoke/internal/backend"
	"saoke/internal/cli"
	"saoke/internal/config"
	"saoke/internal/fetch"
	"saoke/internal/log"
	"saoke/internal/report"
	"saoke/internal/services"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 2 for usage and configuration
// problems, 1 for failed runs.
func run() int {
	cli.LoadEnvFile()

	rangesFile := flag.String("ranges", os.Getenv("HISTOGRAM_RANGES_FILE"), "YAML file with histogram ranges")
	chunk := flag.Int("chunk", 0, "transfer chunk size in bytes (default CHUNK_SIZE)")
	quiet := flag.Bool("quiet", false, "do not print progress")
	flag.Parse()

	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn"), os.Getenv("LOG_FORMAT"), os.Stderr)

	cfg := config.Load()
	if flag.NArg() > 0 {
		cfg.SourceURL = flag.Arg(0)
	}
	cfg.RangesFile = *rangesFile
	if *chunk > 0 {
		cfg.ChunkSize = *chunk
	}
	// the report never serves queries nor publishes events
	cfg.TableBackend = string(backend.MemoryIndex)
	cfg.AMQPURL = ""

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ranges, err := cli.LoadRanges(cfg.RangesFile, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel := cli.GracefulShutdown(logger)
	defer cancel()

	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer be.Cleanup()

	opts := []services.Option{services.WithLogger(logger)}
	var printer *report.ProgressPrinter
	if !*quiet {
		printer = report.NewProgressPrinter(os.Stderr, 250*time.Millisecond)
		opts = append(opts, services.WithObserver(printer))
	}
	ingestor := services.NewIngestor(cfg.SourceURL, fetch.New(be.Backend.Transport, fetch.WithChunkSize(cfg.ChunkSize)), ranges, opts...)

	res, err := ingestor.Run(ctx)
	if printer != nil {
		printer.Flush()
	}
	if err != nil {
		logger.Debug("Run failed", log.FieldError, err)
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	if err := report.Write(os.Stdout, res); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
