// Package harness executes HTTP requests against the service under test and records every
// exchange in the debug log of the test that made it.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/catalogqa/catalog-contract-tests/framework"
)

const maxLoggedBodyLength = 500

// TestHarness holds the connection parameters for the service under test. It has no
// per-test state and can be shared by every test in a run.
type TestHarness struct {
	baseURL string
	client  *http.Client
	logger  framework.Logger
}

// Request is an HTTP request relative to the service's base URL. If Redact is set, neither
// the request body nor the response body is logged.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
	Redact bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// NewTestHarness validates the service URL and prepares an HTTP client for it. A zero
// timeout leaves the transport's defaults in place.
func NewTestHarness(serviceBaseURL string, timeout time.Duration, logger framework.Logger) (*TestHarness, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	u, err := url.Parse(serviceBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", serviceBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q: must be an absolute http or https URL", serviceBaseURL)
	}
	return &TestHarness{
		baseURL: strings.TrimRight(serviceBaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

func (h *TestHarness) BaseURL() string {
	return h.baseURL
}

// CheckReachable sends one GET request to the service's base URL. Any HTTP response,
// whatever its status, means the service is reachable. There is no retry.
func (h *TestHarness) CheckReachable(ctx context.Context, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to service at %s\n", h.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("service is not reachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	h.logger.Printf("Service at %s responded with status %d", h.baseURL, resp.StatusCode)
	return nil
}

// Do executes the request and reads the whole response body. The request and response
// are logged to debugLogger as well as to the harness's own logger. A non-nil error
// means the exchange did not complete; HTTP error statuses are not errors.
func (h *TestHarness) Do(ctx context.Context, r Request, debugLogger framework.Logger) (Response, error) {
	logger := framework.TeeLogger(h.logger, debugLogger)

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, h.baseURL+r.Path, body)
	if err != nil {
		return Response{}, fmt.Errorf("building request %s: %w", r, err)
	}
	for k, vv := range r.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	logger.Printf(">> %s", r)
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		logger.Printf("!! %s failed: %s", r.Method+" "+r.Path, err)
		return Response{}, fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: reading response body: %w", r.Method, r.Path, err)
	}
	result := Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}
	if r.Redact {
		logger.Printf("<< %d (%s) (body redacted)", result.StatusCode, result.Duration.Round(time.Millisecond))
	} else {
		logger.Printf("<< %s", result)
	}
	return result, nil
}

// String describes the request for debug output. Headers are never included, and the
// body is left out of redacted requests.
func (r Request) String() string {
	if len(r.Body) == 0 || r.Redact {
		return r.Method + " " + r.Path
	}
	return r.Method + " " + r.Path + " " + truncate(string(r.Body))
}

func (r Response) String() string {
	s := fmt.Sprintf("%d (%s)", r.StatusCode, r.Duration.Round(time.Millisecond))
	if len(r.Body) > 0 {
		s += " " + truncate(string(r.Body))
	}
	return s
}

// BodyPreview returns the body for use in failure messages, shortened if it is long.
func (r Response) BodyPreview() string {
	if len(r.Body) == 0 {
		return "<empty>"
	}
	return truncate(string(r.Body))
}

func truncate(s string) string {
	if len(s) > maxLoggedBodyLength {
		return s[:maxLoggedBodyLength] + "..."
	}
	return s
}
