package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/bizlens/internal/probe"
)

const defaultProbeTimeout = 10 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", probe.DefaultBaseURL, "Base URL of the BI service")
		token    = flag.String("token", probe.DefaultToken, "Authorization header value")
		fixture  = flag.String("fixture", "", "YAML fixture served by the stub upstream")
		entities = flag.Int("entities", probe.DefaultEntities, "Synthetic entity count")
		products = flag.Int("products", probe.DefaultProducts, "Synthetic product count")
		stubAddr = flag.String("stub", "", "Listen address of the stub upstream")
		rounds   = flag.Int("rounds", probe.DefaultRounds, "Calls per endpoint")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of concurrent callers")
		timeout  = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		output   = flag.String("output", "", "Results JSON file")
		logFile  = flag.String("log", "", "Log file for probe output (default: probe_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every call")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	closer, err := probe.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	config := &probe.Config{
		BaseURL:  *baseURL,
		Token:    *token,
		Fixture:  *fixture,
		Entities: *entities,
		Products: *products,
		StubAddr: *stubAddr,
		Rounds:   *rounds,
		Workers:  *workers,
		Timeout:  *timeout,
		LogFile:  *logFile,
		Output:   *output,
		Verbose:  *verbose,
	}

	if _, err := probe.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		cancel()
		_ = closer.Close()
		os.Exit(1) //nolint:gocritic // deferred calls were run above
	}
}
