package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/quicktodo/pkg/logger"
)

// HTTPClient wraps http.Client with a base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	verbose bool
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewHTTPClient creates a new HTTP client with timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, verbose bool) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		verbose: verbose,
	}
}

// Get performs a GET request against the base URL.
func (c *HTTPClient) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.Do(req)
}

// NewRequest builds a plan request. URLs starting with "/" are relative to
// the base URL. A non-nil body is sent as JSON unless headers say otherwise.
func (c *HTTPClient) NewRequest(
	ctx context.Context, method, url string, headers map[string]string, body []byte,
) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(url), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(runHeader, "true")
	return req, nil
}

func (c *HTTPClient) resolve(url string) string {
	if strings.HasPrefix(url, "/") {
		return c.baseURL + url
	}
	return url
}

// Do sends req and reads the whole response.
func (c *HTTPClient) Do(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if c.verbose {
		logger.Get().Debug(req.Context(), "request",
			logger.String("method", req.Method),
			logger.String("url", req.URL.String()),
			logger.Int("status", resp.StatusCode))
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// JSON decodes the body into v, keeping numbers as json.Number.
func (r *Response) JSON(v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// expect fails unless the response has the wanted status.
func (r *Response) expect(status int) error {
	if r.Status != status {
		return fmt.Errorf("%w: status %d, want %d: %s", ErrUnexpected, r.Status, status, strings.TrimSpace(string(r.Body)))
	}
	return nil
}
