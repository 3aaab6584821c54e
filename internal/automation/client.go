package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Logical endpoint keys served by the workflow-automation service.
const (
	EndpointGeneratePrompts = "generate_prompts"
	EndpointRunAnalysis     = "run_analysis"
	EndpointRecommendations = "get_recommendations"
	EndpointChat            = "chat_query"
)

const (
	defaultTimeoutShort = 30 * time.Second
	defaultTimeoutLong  = 240 * time.Second
	defaultMaxRetries   = 3
	defaultRetryDelay   = time.Second
)

// Options configures a Client.
type Options struct {
	Endpoints  map[string]string // Endpoint key -> webhook URL.
	AuthHeader string            // Shared static auth header name.
	AuthValue  string            // Shared static auth header value.

	TimeoutShort time.Duration // Timeout for light operations.
	TimeoutLong  time.Duration // Timeout for analysis operations.
	MaxRetries   int           // Retries after the initial attempt, 5xx only.
	RetryDelay   time.Duration // Fixed pause between retry attempts.
}

// Client performs outbound calls against the automation service with a
// uniform timeout and bounded-retry policy. It is safe for concurrent
// use; each call is blocking and bounded by its timeout.
type Client struct {
	endpoints  map[string]string
	authHeader string
	authValue  string

	client       *http.Client
	timeoutShort time.Duration
	timeoutLong  time.Duration
	maxRetries   int
	retryDelay   time.Duration
}

// NewClient constructs a Client, applying defaults for unset options.
func NewClient(opts Options) *Client {
	if opts.TimeoutShort <= 0 {
		opts.TimeoutShort = defaultTimeoutShort
	}
	if opts.TimeoutLong <= 0 {
		opts.TimeoutLong = defaultTimeoutLong
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	endpoints := make(map[string]string, len(opts.Endpoints))
	for key, url := range opts.Endpoints {
		endpoints[strings.TrimSpace(key)] = strings.TrimSpace(url)
	}
	return &Client{
		endpoints:    endpoints,
		authHeader:   strings.TrimSpace(opts.AuthHeader),
		authValue:    opts.AuthValue,
		client:       &http.Client{},
		timeoutShort: opts.TimeoutShort,
		timeoutLong:  opts.TimeoutLong,
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
	}
}

// Call posts payload to the named endpoint and returns the raw response
// body. The retry loop is explicit and bounded: 1 initial attempt plus
// maxRetries retries, 5xx statuses only. 403, 404, transport failures
// and unexpected statuses are terminal on the first occurrence.
func (c *Client) Call(ctx context.Context, endpoint string, payload any, timeout time.Duration) (json.RawMessage, error) {
	url := c.endpoints[endpoint]
	if url == "" {
		return nil, fmt.Errorf("automation: unknown endpoint %q", endpoint)
	}
	if timeout <= 0 {
		timeout = c.timeoutShort
	}

	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return nil, fmt.Errorf("automation: marshal payload: %w", errMarshal)
	}

	attempts := c.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, status, errDo := c.post(ctx, url, body, timeout)
		if errDo != nil {
			return nil, &CallError{Kind: KindTransport, Endpoint: endpoint, Attempts: attempt, Err: errDo}
		}

		switch {
		case status >= 200 && status < 300:
			return raw, nil
		case status == http.StatusForbidden:
			return nil, &CallError{Kind: KindAuth, Endpoint: endpoint, Status: status, Attempts: attempt}
		case status == http.StatusNotFound:
			return nil, &CallError{Kind: KindNotFound, Endpoint: endpoint, Status: status, Attempts: attempt}
		case status >= 500:
			if attempt == attempts {
				return nil, &CallError{Kind: KindServer, Endpoint: endpoint, Status: status, Attempts: attempt}
			}
			log.Warnf("automation %s: server status %d, retry %d/%d", endpoint, status, attempt, c.maxRetries)
			if errWait := sleepCtx(ctx, c.retryDelay); errWait != nil {
				return nil, &CallError{Kind: KindTransport, Endpoint: endpoint, Attempts: attempt, Err: errWait}
			}
		default:
			return nil, &CallError{Kind: KindUnexpectedStatus, Endpoint: endpoint, Status: status, Attempts: attempt}
		}
	}
	// Unreachable: the loop always returns on its last attempt.
	return nil, &CallError{Kind: KindServer, Endpoint: endpoint, Attempts: attempts}
}

// post performs one attempt with its own timeout.
func (c *Client) post(ctx context.Context, url string, body []byte, timeout time.Duration) (json.RawMessage, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, errReq := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if errReq != nil {
		return nil, 0, errReq
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authHeader != "" {
		req.Header.Set(c.authHeader, c.authValue)
	}

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return nil, 0, errDo
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("automation: close response body failed")
		}
	}()

	raw, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, 0, errRead
	}
	return raw, resp.StatusCode, nil
}

// sleepCtx pauses for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
