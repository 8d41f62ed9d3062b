// ABOUTME: Shared HTTP plumbing for the transcription and generation providers
// ABOUTME: Request timeouts, JSON posting and provider error decoding
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const requestTimeout = 10 * time.Minute

type httpClient struct {
	provider string
	timeout  time.Duration
	http     *http.Client
	logger   *log.Logger
}

func newHTTPClient(provider string, logger *log.Logger) httpClient {
	if logger == nil {
		logger = log.Default()
	}
	return httpClient{
		provider: provider,
		timeout:  requestTimeout,
		http:     &http.Client{Timeout: requestTimeout},
		logger:   logger,
	}
}

func (c httpClient) do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
	}

	// The body must stay readable after do returns, so cancel on close.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	c.logger.Debug("provider request", "provider", c.provider, "status", resp.StatusCode, "took", time.Since(start))
	return resp, nil
}

// postJSON encodes payload, posts it and decodes a successful response into out.
func (c httpClient) postJSON(ctx context.Context, url string, headers map[string]string, payload, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode %s payload: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return fmt.Errorf("create %s request: %w", c.provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}

// decodeAPIError understands the {"error": {...}} envelope all three providers use.
func (c httpClient) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		kind := apiErr.Error.Type
		if kind == "" {
			kind = apiErr.Error.Status
		}
		return fmt.Errorf("%s api error: status %d type %s message %s", c.provider, resp.StatusCode, kind, apiErr.Error.Message)
	}

	return fmt.Errorf("%s api error: status %d body %s", c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
}

func ensureAPIKey(provider, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%s api key is not configured", provider)
	}
	return nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
