package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/arcade/internal/loadtest"
)

const (
	defaultRequests    = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests   = flag.Int("requests", defaultRequests, "Number of requests to send")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent senders")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Int64("seed", 1, "Seed for problem generation")
		engines    = flag.String("engines", "packing,route,lineup", "Comma separated engines to exercise")
		outputFile = flag.String("output", "", "Save generated requests to this JSON file")
		logFormat  = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log every failed request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := loadtest.SetupLogging(*logFormat, level); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:    strings.TrimRight(*baseURL, "/"),
		Requests:   *requests,
		Workers:    *workers,
		Timeout:    *timeout,
		Seed:       *seed,
		Engines:    splitEngines(*engines),
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		if errors.Is(err, loadtest.ErrViolations) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func splitEngines(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
