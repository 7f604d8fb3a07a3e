// Package fetcher pulls record arrays from the exchange data API. One fetch
// is a GET with an API key header, response classification, and an
// attempt-counted retry loop with a fixed delay between attempts.
package fetcher

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"exchangesync/internal/models"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 10 * time.Second
	DefaultMaxAttempts   = 3
	DefaultRetryDelay    = 2 * time.Second

	apiKeyHeader     = "X-API-Key"
	defaultUserAgent = "exchangesync/1.0"
)

type envelope struct {
	Success  bool            `json:"success"`
	RowCount int             `json:"row_count"`
	Data     json.RawMessage `json:"data"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (e envelope) errorText() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return e.Message
}

// Options configures a Fetcher. Zero values fall back to the defaults above.
type Options struct {
	Timeout       time.Duration
	HealthTimeout time.Duration
	RetryDelay    time.Duration
	UserAgent     string
}

// Fetcher is safe for reuse across fetches. It holds no per-request state.
type Fetcher struct {
	client       *http.Client
	healthClient *http.Client
	retryDelay   time.Duration
	userAgent    string
	sleep        func(time.Duration) // swapped out in tests
}

func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = DefaultHealthTimeout
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		client:       &http.Client{Timeout: opts.Timeout},
		healthClient: &http.Client{Timeout: opts.HealthTimeout},
		retryDelay:   opts.RetryDelay,
		userAgent:    opts.UserAgent,
		sleep:        time.Sleep,
	}
}

// Fetch GETs the endpoint and returns the decoded record array. Every
// classified failure except FormatError is retried after a fixed delay until
// the attempt budget runs out; the loop is attempt-counted, not
// deadline-counted, so worst-case wall clock grows with maxAttempts.
func (f *Fetcher) Fetch(endpoint, apiKey string, maxAttempts int) ([]models.Record, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err := f.fetchOnce(endpoint, apiKey)
		if err == nil {
			if attempt > 1 {
				logrus.WithFields(logrus.Fields{"url": endpoint, "attempt": attempt}).Info("fetch recovered after retry")
			}
			return records, nil
		}
		lastErr = err
		logrus.WithFields(logrus.Fields{
			"url":          endpoint,
			"attempt":      attempt,
			"max_attempts": maxAttempts,
		}).Warnf("fetch attempt failed: %v", err)
		if !retryable(err) {
			return nil, err
		}
		if attempt < maxAttempts {
			f.sleep(f.retryDelay)
		}
	}
	return nil, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// fetchOnce runs the classification chain for a single attempt.
func (f *Fetcher) fetchOnce(endpoint, apiKey string) ([]models.Record, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ParseError{Err: err}
	}
	if !env.Success {
		msg := env.errorText()
		if msg == "" {
			msg = "API request failed"
		}
		return nil, &APIError{Message: msg}
	}
	if !isJSONArray(env.Data) {
		return nil, &FormatError{Message: "Invalid data format: expected array of records"}
	}

	var records []models.Record
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, &ParseError{Err: err}
	}
	if env.RowCount != len(records) {
		logrus.WithFields(logrus.Fields{
			"row_count": env.RowCount,
			"records":   len(records),
		}).Debug("row_count does not match record count")
	}
	return records, nil
}

// CheckHealth probes the lightweight health endpoint. It is unauthenticated
// and uses a shorter timeout than data fetches.
func (f *Fetcher) CheckHealth(url string) (*models.Health, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.healthClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	var h models.Health
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &h, nil
}

// errorMessage extracts a structured message from an error response body,
// falling back to the first 200 characters of the raw body.
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if msg := env.errorText(); msg != "" {
			return msg
		}
	}
	return truncate(string(body), 200)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
