package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/arcade/pkg/logger"
)

const directoryPermission = 0750

// ErrViolations is returned by Run when any answer broke a solver guarantee.
var ErrViolations = errors.New("load test found violations")

// Run executes a complete load test and returns its statistics. Backpressure
// and timeouts are counted but are not failures; violations are.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid load test config: %w", err)
	}
	log := logger.Get().Named("loadtest")
	stats := &Stats{StartTime: time.Now(), ByEngine: map[string]int{}}

	log.Info(ctx, "starting arcade load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Int64("seed", config.Seed),
		logger.Any("engines", config.Engines))

	if err := checkServiceHealth(ctx, config); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	cases := Generate(config.Seed, config.Requests, config.Engines)
	stats.Generated = len(cases)
	if config.OutputFile != "" {
		if err := saveCases(config.OutputFile, cases); err != nil {
			log.Warn(ctx, "failed to save cases to file", logger.Error(err))
		} else {
			log.Info(ctx, "cases saved to file", logger.String("filename", config.OutputFile))
		}
	}

	for _, r := range submit(ctx, config, cases) {
		if r.Status != 0 {
			stats.Submitted++
		}
		switch r.Outcome {
		case OutcomeOK:
			stats.Succeeded++
			stats.ByEngine[r.Case.Engine]++
		case OutcomeBackpressure:
			stats.Backpressure++
		case OutcomeTimeout:
			stats.TimedOut++
		case OutcomeViolation:
			stats.Violations++
			log.Error(ctx, "answer violates solver guarantees",
				logger.Int("case", r.Case.ID),
				logger.String("engine", r.Case.Engine),
				logger.String("request_id", r.RequestID),
				logger.Error(r.Err))
		default:
			stats.Failed++
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d of %d answers", ErrViolations, stats.Violations, stats.Submitted)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	log.Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	status, err := newHTTPClient(config.BaseURL, config.Timeout).get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

// saveCases writes the generated cases as one JSON array.
func saveCases(filename string, cases []Case) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(cases, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cases: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Submitted) * 100
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("backpressure", stats.Backpressure),
		logger.Int("timedOut", stats.TimedOut),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", stats.Violations),
		logger.Any("byEngine", stats.ByEngine),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
