// Package client talks to the foodhub API over HTTP with cookie sessions and
// keeps local cart and order views consistent with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"foodhub-api/apperrors"
)

const DefaultTimeout = 10 * time.Second

// Client is safe for concurrent use. The session cookie lives in its jar.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client, including its cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTransport keeps the cookie jar and timeout but routes requests through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: DefaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type errorBody struct {
	Error   string                       `json:"error"`
	Code    string                       `json:"code"`
	Details []apperrors.ValidationDetail `json:"details"`
}

// do sends one request. Non-2xx responses become *apperrors.Error of the kind
// named by the body's code. Anything that leaves the outcome unknown is a
// NetworkFailure.
func (c *Client) do(ctx context.Context, method, path string, body, out any, headers ...string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return apperrors.Wrap(apperrors.KindNetworkFailure, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.KindNetworkFailure, fmt.Sprintf("decode %s %s response", method, path), err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return apperrors.Newf(apperrors.KindNetworkFailure, "unexpected response %s", resp.Status)
	}

	kind := apperrors.KindFromCode(body.Code)
	if body.Code == "" {
		kind = kindForStatus(resp.StatusCode)
	}
	return &apperrors.Error{Kind: kind, Message: body.Error, Details: body.Details}
}

func kindForStatus(status int) apperrors.Kind {
	switch status {
	case http.StatusUnauthorized:
		return apperrors.KindUnauthenticated
	case http.StatusForbidden:
		return apperrors.KindForbidden
	case http.StatusNotFound:
		return apperrors.KindNotFound
	case http.StatusBadRequest:
		return apperrors.KindValidation
	case http.StatusConflict:
		return apperrors.KindConflict
	}
	return apperrors.KindInternal
}
