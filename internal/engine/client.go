/*
PURPOSE:
  Transport for the managed sequence services.
  Performs JSON POSTs against the configured base URL with timeouts and
  retry-with-backoff, and decodes the JSON reply.

REQUIREMENTS:
  User-specified:
  - Separate connect and read timeouts.
  - Retry 429/502/503/504 and connection errors, linear backoff.
  - Bounded error bodies.

  Implementation-discovered:
  - Needs http.Client with a custom dialer to separate connect from read.
  - JSON objects keep key order (decode.go) so report columns are stable.
  - Numbers stay json.Number so CSV shows them as the service sent them.

ARCHITECTURE INTEGRATION:
  - Called by: internal/adapters
  - Uses: internal/config, internal/errors, internal/output

ERROR HANDLING:
  - New fails with a Configuration error when base_url is unset.
  - PostJSON fails with a Transport error; *StatusError is in the chain when a
    response was received, so adapters can special-case 404.
  - Retries live here and only here. Adapters never loop.

IMPLEMENTATION RULES:
  - Use net/http.
  - Enforce timeouts.
  - Honour ctx cancellation between attempts.

USAGE:
  c, err := engine.New(cfg)
  v, err := c.PostJSON(ctx, "nanomelt", map[string]any{"sequence": s})

SELF-HEALING INSTRUCTIONS:
  - If services start returning other transient codes, add them to retry_statuses in config.

RELATED FILES:
  - internal/config/config.go
  - internal/engine/decode.go
  - internal/engine/status.go

MAINTENANCE:
  - Update when the services add authentication headers.
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daryltucker/seqdash/internal/config"
	"github.com/daryltucker/seqdash/internal/errors"
	"github.com/daryltucker/seqdash/internal/output"
)

// Client posts JSON to the managed sequence services.
// It is safe for concurrent use and holds no per-run state.
type Client struct {
	Config  *config.Config
	HTTP    *http.Client
	baseURL string

	// sleep waits between attempts; tests swap it out.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. It fails when no base URL is configured.
func New(cfg *config.Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.Newf(errors.Configuration,
			"set %s (or base_url in the config file) to point at the managed sequence services", config.EnvBaseURL)
	}

	// The dialer bounds connection setup; ResponseHeaderTimeout bounds the
	// wait for the model to answer once the request is written.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	transport.ResponseHeaderTimeout = cfg.ReadTimeout

	return &Client{
		Config:  cfg,
		baseURL: base,
		HTTP: &http.Client{
			Transport: transport,
			Timeout:   cfg.ConnectTimeout + cfg.ReadTimeout,
		},
		sleep: sleepCtx,
	}, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins the base URL and an endpoint path.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// PostJSON sends payload to path and returns the decoded reply.
// Objects decode to *model.Row, arrays to []any, numbers to json.Number.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.Transport, "could not encode request", err)
	}
	url := c.URL(path)
	maxAttempts := max(c.Config.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.Config.RetryBackoff * time.Duration(attempt-1)
			output.Logger.Warn("Retrying request", "url", url, "attempt", attempt, "of", maxAttempts, "backoff", wait, "error", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, errors.Wrap(errors.Transport, "request cancelled", err)
			}
		}

		result, retry, err := c.attempt(ctx, url, body)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	return nil, errors.Wrap(errors.Transport,
		fmt.Sprintf("request failed after %d attempt(s)", maxAttempts), lastErr)
}

// attempt performs one POST. retry reports whether the failure is transient.
func (c *Client) attempt(ctx context.Context, url string, body []byte) (result any, retry bool, err error) {
	trace := &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			output.Logger.Debug("Network: Connected", "remote", info.Conn.RemoteAddr(), "reused", info.Reused)
		},
		GotFirstResponseByte: func() {
			output.Logger.Debug("Network: First Byte Received", "url", url)
		},
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(errors.Transport, "could not build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, errors.Wrap(errors.Transport, "request cancelled", ctx.Err())
		}
		if strings.Contains(err.Error(), "awaiting headers") {
			return nil, true, fmt.Errorf("timed out waiting for the service to respond: %w", err)
		}
		return nil, true, fmt.Errorf("network/connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, int64(c.previewLimit())+1))
		se := &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			URL:    url,
			Body:   truncate(string(preview), c.previewLimit()),
		}
		if slices.Contains(c.Config.RetryStatuses, resp.StatusCode) {
			return nil, true, se
		}
		return nil, false, errors.Wrap(errors.Transport, "service rejected the request", se)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}
	v, err := Decode(data)
	if err != nil {
		return nil, false, errors.Wrap(errors.Transport,
			fmt.Sprintf("non-JSON response from %s (body: %s)", url, truncate(string(data), c.previewLimit())), err)
	}
	return v, false, nil
}

func (c *Client) previewLimit() int {
	if c.Config.BodyPreviewBytes > 0 {
		return c.Config.BodyPreviewBytes
	}
	return 512
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary so the preview stays valid UTF-8
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
