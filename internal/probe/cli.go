package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/bizlens/pkg/logger"
)

// SetupLogging sends log output to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "probe_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`bizlens BI Probe
================

Calls every BI report endpoint concurrently and checks the response shape.

Usage:
  go run ./cmd/bi-probe [options]

Options:
  -url string
        Base URL of the BI service (default "http://localhost:9080")
  -token string
        Authorization header value (default "Bearer probe")
  -fixture string
        YAML fixture served by the stub upstream (default: synthetic data)
  -entities int
        Synthetic entity count (default 200)
  -products int
        Synthetic product count (default 80)
  -stub string
        Listen address of the stub upstream, e.g. 127.0.0.1:18081 (default: disabled)
  -rounds int
        Calls per endpoint (default 5)
  -workers int
        Number of concurrent callers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Results JSON file (default: none)
  -log string
        Log file for probe output (default: probe_log_TIMESTAMP.log)
  -verbose
        Log every call
  -help
        Show this help message

Examples:
  # Probe a service wired to real collaborators
  go run ./cmd/bi-probe -token "Bearer $TOKEN"

  # Serve synthetic data and point the service at it
  BIZLENS_UPSTREAM__ENTITE_URL=http://127.0.0.1:18081 \
  BIZLENS_UPSTREAM__PARAMETRAGE_URL=http://127.0.0.1:18081 \
  BIZLENS_UPSTREAM__PRODUIT_URL=http://127.0.0.1:18081 go run ./cmd &
  go run ./cmd/bi-probe -stub 127.0.0.1:18081 -entities 1000

  # Serve a fixture file
  go run ./cmd/bi-probe -stub 127.0.0.1:18081 -fixture testdata/fixture.yaml
`)
}
