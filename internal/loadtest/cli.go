package loadtest

import (
	"fmt"
	"os"

	"github.com/okian/arcade/pkg/logger"
)

// SetupLogging initializes the global logger in the given format and level.
func SetupLogging(format, level string) error {
	if err := logger.InitWithFormat(format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(level); err != nil {
		return fmt.Errorf("failed to set log level: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the load test tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Arcade Load Test Tool
=====================

Sends random packing, route and lineup problems to a running arcade service
and checks every answer: selections fit their budgets, tours are closed
permutations no longer than the input order, lineups respect the salary cap
and roster slots.

Usage:
  go run ./cmd/loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -requests int
        Number of requests to send (default 1000)
  -workers int
        Number of concurrent senders (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Seed for problem generation (default 1)
  -engines string
        Comma separated engines: packing,route,lineup (default all)
  -output string
        Save generated requests to this JSON file
  -log-format string
        text or json (default "text")
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  # Default run against a local service
  go run ./cmd/loadtest

  # Hammer only the lineup solver
  go run ./cmd/loadtest -engines lineup -requests 5000 -workers 32
`)
}
