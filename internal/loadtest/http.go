package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/arcade/pkg/logger"
)

var endpoints = map[string]string{
	EnginePacking: "/api/packing/compare",
	EngineRoute:   "/api/route/compare",
	EngineLineup:  "/api/lineup/solve",
}

// Outcome classifies one request.
type Outcome int

// Request outcomes.
const (
	OutcomeOK Outcome = iota
	OutcomeBackpressure
	OutcomeTimeout
	OutcomeFailed
	OutcomeViolation
)

// Result is the answer to one case.
type Result struct {
	Case      Case
	RequestID string
	Status    int
	Outcome   Outcome
	Err       error
	Latency   time.Duration
}

// httpClient wraps http.Client with the base URL.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// get performs a GET request and returns the status code.
func (c *httpClient) get(ctx context.Context, path string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// post sends body as JSON with a fresh request id.
func (c *httpClient) post(ctx context.Context, path, requestID string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, out, nil
}

// submit sends every case with config.Workers concurrent senders and
// returns the results in case order.
func submit(ctx context.Context, config *Config, cases []Case) []Result {
	log := logger.Get().Named("loadtest")
	client := newHTTPClient(config.BaseURL, config.Timeout)
	results := make([]Result, len(cases))

	next := make(chan int, config.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = submitOne(ctx, client, cases[i])
				if config.Verbose && results[i].Err != nil {
					log.Warn(ctx, "case failed",
						logger.Int("case", i),
						logger.String("engine", cases[i].Engine),
						logger.String("request_id", results[i].RequestID),
						logger.Int("status", results[i].Status),
						logger.Error(results[i].Err))
				}
			}
		}()
	}

	go func() {
		defer close(next)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case next <- i:
			}
		}
	}()

	wg.Wait()
	for i := range results {
		if results[i].Case.Path == "" {
			// never sent because ctx ended
			results[i] = Result{Case: cases[i], Outcome: OutcomeFailed, Err: ctx.Err()}
		}
	}
	return results
}

func submitOne(ctx context.Context, client *httpClient, c Case) Result {
	res := Result{Case: c, RequestID: uuid.NewString()}
	start := time.Now()
	status, body, err := client.post(ctx, c.Path, res.RequestID, c.Request)
	res.Latency = time.Since(start)
	res.Status = status
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	switch status {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		res.Outcome = OutcomeBackpressure
		return res
	case http.StatusGatewayTimeout:
		res.Outcome = OutcomeTimeout
		return res
	default:
		res.Outcome, res.Err = OutcomeFailed, fmt.Errorf("status %d: %s", status, bytes.TrimSpace(body))
		return res
	}
	if err := verify(c, body); err != nil {
		res.Outcome, res.Err = OutcomeViolation, err
	}
	return res
}
