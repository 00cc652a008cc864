package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
)

type clientIPKey struct{}

// WithClientIP stores the payer's IP address in the context so the transport
// can attach it to outgoing payloads when the account is configured to send
// it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the payer IP stored by WithClientIP, if any.
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// Doer executes a single HTTP request. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client sends JSON requests to the SUMIT API. Every request is sent exactly
// once: charges are not idempotent, so retrying is the caller's decision,
// never the transport's.
type Client struct {
	doer     Doer
	settings config.SettingsProvider
	logger   *slog.Logger
}

// NewClient creates a gateway transport.
func NewClient(doer Doer, settings config.SettingsProvider, logger *slog.Logger) *Client {
	return &Client{
		doer:     doer,
		settings: settings,
		logger:   logger,
	}
}

// baseURL resolves the API origin from current settings.
func (c *Client) baseURL(s config.Settings) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	env := s.Environment
	if env == "" {
		env = "www"
	}
	return fmt.Sprintf("https://%s.sumit.co.il", env)
}

// Send posts the payload to the given API path and decodes the JSON response.
// Failures to complete the exchange are returned as *TransportError; a 200
// response carrying a gateway-level failure is returned as data.
func (c *Client) Send(ctx context.Context, path string, payload map[string]any, includeClientIP bool) (map[string]any, error) {
	s := c.settings.Current()

	if includeClientIP {
		if ip := ClientIPFromContext(ctx); ip != "" {
			payload["ClientIP"] = ip
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Kind: KindDecode, Path: path, Err: fmt.Errorf("encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.APITimeout)
	defer cancel()

	url := c.baseURL(s) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, Path: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.DebugContext(ctx, "gateway request",
		slog.String("path", path),
	)

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, &TransportError{Kind: classifyErr(err), Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Kind: classifyErr(err), Path: path, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "gateway returned non-2xx status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &TransportError{
			Kind: KindNetwork,
			Path: path,
			Err:  fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 256)),
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Kind: KindDecode, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}

	return decoded, nil
}

// classifyErr distinguishes timeouts from other network failures.
func classifyErr(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
