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


// Package sync exercises a device against a real server whose reachability
// can be switched off and on
package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	clictx "github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/app"
	"github.com/habitlog/habitlog/pkg/server/controllers"
	"github.com/habitlog/habitlog/pkg/server/middleware"
	"github.com/pkg/errors"
)

// remote serves the API while up and answers 503 to everything while down.
// It records the requests that reached the API.
type remote struct {
	up      atomic.Bool
	handler http.Handler

	mu       sync.Mutex
	requests []string
}

func (r *remote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.up.Load() {
		middleware.RespondError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}

	r.mu.Lock()
	r.requests = append(r.requests, req.Method+" "+req.URL.Path)
	r.mu.Unlock()

	r.handler.ServeHTTP(w, req)
}

// count returns the number of requests with the given method whose path
// ends with suffix
func (r *remote) count(method, suffix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, req := range r.requests {
		parts := strings.SplitN(req, " ", 2)
		if parts[0] == method && strings.HasSuffix(parts[1], suffix) {
			n++
		}
	}

	return n
}

// testEnv holds a device and the server it syncs with
type testEnv struct {
	Ctx       clictx.HabitlogCtx
	ServerApp *app.App
	Server    *httptest.Server

	remote *remote
}

// setupTestEnv starts a server backed by an in-memory database and a device
// pointed at it. The server starts out unreachable.
func setupTestEnv(t *testing.T) testEnv {
	a := app.NewTest(t)

	ctl := controllers.New(&a)
	r, err := controllers.NewRouter(&a, controllers.RouteConfig{
		Controllers: ctl,
		APIRoutes:   controllers.NewAPIRoutes(ctl),
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing router"))
	}

	rm := &remote{handler: r}
	server := httptest.NewServer(rm)
	t.Cleanup(server.Close)

	return testEnv{
		Ctx:       infra.InitTestCtx(t, server.URL),
		ServerApp: &a,
		Server:    server,
		remote:    rm,
	}
}

// goOnline makes the server reachable and waits for the device to notice
func (e testEnv) goOnline(t *testing.T) {
	e.remote.up.Store(true)

	if !e.Ctx.Monitor.Check(context.Background()) {
		t.Fatal("device did not connect")
	}
}

// goOffline makes the server unreachable and waits for the device to notice
func (e testEnv) goOffline(t *testing.T) {
	e.remote.up.Store(false)

	if e.Ctx.Monitor.Check(context.Background()) {
		t.Fatal("device is still connected")
	}
}

func (e testEnv) serverTrackers(t *testing.T) []entity.Tracker {
	ret, err := e.ServerApp.GetTrackers(e.Ctx.DeviceID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing trackers on the server"))
	}

	return ret
}

func (e testEnv) serverLogs(t *testing.T) []entity.LogEntry {
	ret, err := e.ServerApp.GetLogEntries(e.Ctx.DeviceID, app.LogFilter{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing log entries on the server"))
	}

	return ret
}

func queuedIDs(t *testing.T, ctx clictx.HabitlogCtx, kind entity.Kind) []string {
	items, err := ctx.Queue.List(kind)
	if err != nil {
		t.Fatal(errors.Wrapf(err, "listing queued %s", kind))
	}

	ret := []string{}
	for _, item := range items {
		ret = append(ret, item.EntityID())
	}

	return ret
}

func queueLen(t *testing.T, ctx clictx.HabitlogCtx) int {
	n, err := ctx.Queue.Len()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queued writes"))
	}

	return n
}
