// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file
// named by ARCADE_CONFIG, then ARCADE_* environment variables.
package config

import (
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects log output: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of solve workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the number of solve jobs waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// SolveTimeoutMS bounds one request's wait for its solve, queueing included.
	SolveTimeoutMS int `koanf:"solve_timeout_ms"`

	// MaxRequestBytes caps request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`

	// CORSOrigins lists browser origins allowed to call the API. A comma
	// separated string is accepted from the environment.
	CORSOrigins []string `koanf:"cors_origins"`

	// KnapsackMaxStates caps the exact knapsack search.
	KnapsackMaxStates int `koanf:"knapsack_max_states"`

	// RouteMaxPasses caps 2-opt sweeps.
	RouteMaxPasses int `koanf:"route_max_passes"`

	// Simulated annealing schedule. Zero temperatures are derived per instance.
	AnnealIterations  int     `koanf:"anneal_iterations"`
	AnnealInitialTemp float64 `koanf:"anneal_initial_temp"`
	AnnealCoolingRate float64 `koanf:"anneal_cooling_rate"`
	AnnealMinTemp     float64 `koanf:"anneal_min_temp"`

	// DefaultSeed is used by route comparisons that do not send a seed.
	DefaultSeed int64 `koanf:"default_seed"`

	// ILPMaxNodes caps branch and bound nodes per lineup solve.
	ILPMaxNodes int `koanf:"ilp_max_nodes"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         1024,
		SolveTimeoutMS:    30_000,
		MaxRequestBytes:   1 << 20,
		CORSOrigins:       []string{"http://localhost:5173", "http://localhost:3000"},
		KnapsackMaxStates: 4_000_000,
		RouteMaxPasses:    100,
		AnnealIterations:  10_000,
		AnnealCoolingRate: 0.999,
		DefaultSeed:       42,
		ILPMaxNodes:       100_000,
	}
}

// Validate reports the first out-of-range value, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.SolveTimeoutMS < 1:
		return fmt.Errorf("%w: solve_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxRequestBytes < 1:
		return fmt.Errorf("%w: max_request_bytes must be positive", ErrInvalidConfig)
	case c.KnapsackMaxStates < 1:
		return fmt.Errorf("%w: knapsack_max_states must be positive", ErrInvalidConfig)
	case c.RouteMaxPasses < 1:
		return fmt.Errorf("%w: route_max_passes must be positive", ErrInvalidConfig)
	case c.AnnealIterations < 0:
		return fmt.Errorf("%w: anneal_iterations must be non-negative", ErrInvalidConfig)
	case c.AnnealInitialTemp < 0 || c.AnnealMinTemp < 0:
		return fmt.Errorf("%w: anneal temperatures must be non-negative", ErrInvalidConfig)
	case !(c.AnnealCoolingRate > 0 && c.AnnealCoolingRate <= 1):
		return fmt.Errorf("%w: anneal_cooling_rate must be in (0, 1]", ErrInvalidConfig)
	case c.ILPMaxNodes < 1:
		return fmt.Errorf("%w: ilp_max_nodes must be positive", ErrInvalidConfig)
	}
	return nil
}
