/* Copyright (C) 2025 Habitlog contributors
 *
 * This file is part of Habitlog.
 *
 * Habitlog is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Habitlog is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Habitlog.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package client provides the HTTP client of the habitlog server API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrContentTypeMismatch is returned when the server does not respond with JSON
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsTerminal reports whether the server rejected the request itself, so that
// sending it again can never succeed.
func (e *HTTPError) IsTerminal() bool {
	if e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusTooManyRequests {
		return false
	}

	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsRetryable reports whether the request may succeed if sent again
func (e *HTTPError) IsRetryable() bool {
	return !e.IsTerminal()
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRetryable classifies an error returned by the client. Transport errors,
// timeouts and server errors are retryable; rejections are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}

	return true
}

// IsTerminal is the inverse of IsRetryable for a non-nil error
func IsTerminal(err error) bool {
	return err != nil && !IsRetryable(err)
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

// Client talks to the server on behalf of one device
type Client struct {
	endpoint   string
	deviceID   string
	version    string
	httpClient *http.Client
}

// New returns a client for the given API endpoint and device. A nil
// httpClient selects a rate limited default.
func New(endpoint, deviceID, version string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewRateLimitedHTTPClient()
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		deviceID:   deviceID,
		version:    version,
		httpClient: httpClient,
	}
}

// DeviceID returns the device the client acts for
func (c *Client) DeviceID() string {
	return c.deviceID
}

func (c *Client) devicePath(format string, v ...interface{}) string {
	return fmt.Sprintf("/api/v1/devices/%s", url.PathEscape(c.deviceID)) + fmt.Sprintf(format, v...)
}

// checkRespErr turns an error status into an *HTTPError carrying the
// server's message
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	msg := strings.TrimRight(string(body), "\n")

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    msg,
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, "application/json") {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: 'application/json'. Did you configure your endpoint correctly?", got)
	}

	return nil
}

// do sends a request and decodes the JSON response into dest, if given
func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshaling payload")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return errors.Wrap(err, "constructing http request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("CLI-Version", c.version)

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "making http request")
	}
	defer res.Body.Close()

	log.Debug("HTTP %s\n", res.Status)

	if err := checkRespErr(res); err != nil {
		return errors.Wrap(err, "server responded with an error")
	}
	if err := checkContentType(res); err != nil {
		return errors.Wrap(err, "unexpected Content-Type")
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decoding response payload")
	}

	return nil
}

// HealthResp is the response of the health endpoint
type HealthResp struct {
	Status string `json:"status"`
}

// Health probes the server on behalf of the device
func (c *Client) Health(ctx context.Context) (HealthResp, error) {
	var resp HealthResp
	if err := c.do(ctx, http.MethodGet, c.devicePath("/health"), nil, &resp); err != nil {
		return resp, errors.Wrap(err, "checking health")
	}

	return resp, nil
}
