package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// UserAgent identifies oven to remote notification services.
const UserAgent = "Oven-Go/0.1.0"

const maxResponseBytes = 64 << 10

// HTTPDoer describes the HTTP client used by backend adapters.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the bounded result of a JSON POST.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the transport-level status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Snippet returns a short single-line excerpt of the body for error messages.
func (r Response) Snippet() string {
	text := strings.Join(strings.Fields(string(r.Body)), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

// NewHTTPClient returns a client whose requests are bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON sends body to url and returns the status and up to 64 KiB of the
// response body. Non-2xx statuses are not errors here; callers inspect the
// response for their channel-specific success marker.
func PostJSON(ctx context.Context, client HTTPDoer, url string, body []byte, headers map[string]string) (Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return Response{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{StatusCode: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// DecodeJSON unmarshals the response body into v.
func DecodeJSON(resp Response, v any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Authorization formats a bearer token header value.
func Authorization(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Truncate shortens a credential for diagnostics so that only its first and
// last four characters remain visible.
func Truncate(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// IsPlaceholder reports whether value is empty or still contains the
// configured placeholder marker.
func IsPlaceholder(value, placeholder string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	placeholder = strings.TrimSpace(placeholder)
	if placeholder == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(value), strings.ToUpper(placeholder))
}
