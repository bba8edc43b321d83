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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

const testTrackerID = "6c7b4a1e-0d0a-4d3f-9d0c-5b8a3b7f3a11"

func TestHTTPErrorClassification(t *testing.T) {
	testCases := []struct {
		status   int
		terminal bool
	}{
		{status: http.StatusBadRequest, terminal: true},
		{status: http.StatusNotFound, terminal: true},
		{status: http.StatusConflict, terminal: true},
		{status: http.StatusUnprocessableEntity, terminal: true},
		{status: http.StatusRequestTimeout, terminal: false},
		{status: http.StatusTooManyRequests, terminal: false},
		{status: http.StatusInternalServerError, terminal: false},
		{status: http.StatusBadGateway, terminal: false},
		{status: http.StatusServiceUnavailable, terminal: false},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d", tc.status), func(t *testing.T) {
			err := errors.Wrap(&HTTPError{StatusCode: tc.status}, "doing something")

			assert.Equal(t, IsTerminal(err), tc.terminal, "terminal mismatch")
			assert.Equal(t, IsRetryable(err), !tc.terminal, "retryable mismatch")
		})
	}
}

func TestIsRetryableTransportError(t *testing.T) {
	assert.Equal(t, IsRetryable(nil), false, "nil is not retryable")
	assert.Equal(t, IsRetryable(errors.New("connection refused")), true, "transport errors are retryable")
	assert.Equal(t, IsRetryable(context.DeadlineExceeded), true, "timeouts are retryable")
}

func TestHealth(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", "device 1", "test", nil)

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking health"))
	}

	assert.Equal(t, resp.Status, "ok", "status mismatch")
	assert.Equal(t, gotPath, "/api/v1/devices/device 1/health", "path mismatch")
}

func TestErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"tracker not found"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "d1", "test", nil)
	_, err := c.CreateCollection(context.Background(), entity.Collection{ID: testTrackerID, Name: "s"})

	var httpErr *HTTPError
	assert.Equal(t, errors.As(err, &httpErr), true, "error should be an HTTPError")
	assert.Equal(t, httpErr.StatusCode, http.StatusUnprocessableEntity, "status mismatch")
	assert.Equal(t, httpErr.Message, "tracker not found", "message mismatch")
	assert.Equal(t, IsTerminal(err), true, "validation errors are terminal")
}

func TestContentTypeMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer ts.Close()

	c := New(ts.URL, "d1", "test", nil)
	_, err := c.Health(context.Background())

	assert.Equal(t, errors.Is(err, ErrContentTypeMismatch), true, "content type mismatch expected")
	assert.Equal(t, IsRetryable(err), true, "a misconfigured endpoint should keep writes queued")
}

func TestLogEntries(t *testing.T) {
	var got LogEntriesPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPost, "method mismatch")
		assert.Equal(t, r.URL.Path, "/api/v1/devices/d1/logs", "path mismatch")

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Error(errors.Wrap(err, "decoding payload"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(LogsResp{Logs: got.Entries})
	}))
	defer ts.Close()

	g := entity.Morning
	entry := entity.LogEntry{
		ID:          "4e1d2c3b-5a6f-4b7c-8d9e-0f1a2b3c4d55",
		DeviceID:    "d1",
		TrackerID:   testTrackerID,
		CreatedAt:   1700000000000,
		Value:       entity.NumberValue(3),
		TimeKind:    entity.TimeGeneral,
		GeneralTime: &g,
		Date:        "2024-01-05",
	}

	c := New(ts.URL, "d1", "test", nil)
	logs, err := c.LogEntries(context.Background(), []entity.LogEntry{entry})
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging"))
	}

	assert.DeepEqual(t, got.Entries, []entity.LogEntry{entry}, "sent entries mismatch")
	assert.DeepEqual(t, logs, []entity.LogEntry{entry}, "returned entries mismatch")
}

func TestGetLogsFilter(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"logs":[]}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "d1", "test", nil)
	if _, err := c.GetLogs(context.Background(), LogFilter{TrackerID: testTrackerID, From: "2024-01-01"}); err != nil {
		t.Fatal(errors.Wrap(err, "getting logs"))
	}

	assert.Equal(t, gotQuery, "from=2024-01-01&tracker_id="+testTrackerID, "query mismatch")
}

func TestRequestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := New(ts.URL, "d1", "test", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetAllTrackers(ctx)
	assert.NotEqual(t, err, nil, "request should time out")
	assert.Equal(t, IsRetryable(err), true, "a timeout is retryable")
}

func TestRateLimitedTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "d1", "test", nil)
	for i := 0; i < clientRateLimitBurst; i++ {
		if _, err := c.Health(context.Background()); err != nil {
			t.Fatal(errors.Wrap(err, "checking health"))
		}
	}
}
