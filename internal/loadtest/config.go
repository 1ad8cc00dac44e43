// Package loadtest drives a running arcade service with random solve
// requests and checks every answer against the properties the solvers
// guarantee.
package loadtest

import (
	"fmt"
	"time"
)

// Engines that can be exercised.
const (
	EnginePacking = "packing"
	EngineRoute   = "route"
	EngineLineup  = "lineup"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of requests to send
	Workers    int           // Number of concurrent senders
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Seed for instance generation; 0 means 1
	Engines    []string      // Engines to exercise, round robin
	OutputFile string        // Where to save generated cases; empty skips saving
	Verbose    bool          // Log every failed case
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("base url must not be empty")
	case c.Requests < 1:
		return fmt.Errorf("requests must be positive, got %d", c.Requests)
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive")
	case len(c.Engines) == 0:
		return fmt.Errorf("at least one engine is required")
	}
	for _, e := range c.Engines {
		if _, ok := endpoints[e]; !ok {
			return fmt.Errorf("unknown engine %q", e)
		}
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Generated    int
	Submitted    int
	Succeeded    int
	Backpressure int
	TimedOut     int
	Failed       int
	Violations   int
	ByEngine     map[string]int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
