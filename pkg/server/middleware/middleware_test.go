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


package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/server/log"
	"github.com/pkg/errors"
)

func TestRecover(t *testing.T) {
	defer log.SetOutput(nil)
	log.SetOutput(&bytes.Buffer{})

	h := Global(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, w.Code, http.StatusInternalServerError, "status mismatch")

	var body ErrorResp
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(errors.Wrap(err, "decoding body"))
	}
	assert.Equal(t, body.Error, "internal server error", "error mismatch")
}

func TestLogging(t *testing.T) {
	defer log.SetOutput(nil)
	var buf bytes.Buffer
	log.SetOutput(&buf)

	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondError(w, http.StatusServiceUnavailable, "down")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/devices/d1/logs", nil))

	assert.Equal(t, w.Code, http.StatusServiceUnavailable, "status mismatch")
	assert.Equal(t, strings.Contains(buf.String(), `"status":503`), true, "log line mismatch")
	assert.Equal(t, strings.Contains(buf.String(), `"path":"/api/v1/devices/d1/logs"`), true, "log path mismatch")
}
