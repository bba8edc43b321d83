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

package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/pkg/errors"
)

type fakeProber struct {
	mu     sync.Mutex
	status string
	err    error
	calls  int
	block  chan struct{}
}

func (p *fakeProber) set(status string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = status
	p.err = err
}

func (p *fakeProber) Health(ctx context.Context) (client.HealthResp, error) {
	p.mu.Lock()
	p.calls++
	status, err, block := p.status, p.err, p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return client.HealthResp{}, ctx.Err()
		}
	}

	return client.HealthResp{Status: status}, err
}

func (p *fakeProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name     string
		status   string
		err      error
		expected bool
	}{
		{name: "ok", status: "ok", expected: true},
		{name: "unexpected status", status: "degraded", expected: false},
		{name: "error", err: errors.New("connection refused"), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProber{status: tc.status, err: tc.err}
			m := New(p, "d1", Options{})

			assert.Equal(t, m.Check(context.Background()), tc.expected, "check result mismatch")
			assert.Equal(t, m.IsConnected(), tc.expected, "flag mismatch")
			assert.Equal(t, m.IsChecking(), false, "no check should be in flight")
		})
	}
}

func TestCheckTimeout(t *testing.T) {
	p := &fakeProber{status: "ok", block: make(chan struct{})}
	m := New(p, "d1", Options{Timeout: 20 * time.Millisecond})

	assert.Equal(t, m.Check(context.Background()), false, "a timed out probe is a disconnect")
}

func TestIsChecking(t *testing.T) {
	block := make(chan struct{})
	p := &fakeProber{status: "ok", block: block}
	m := New(p, "d1", Options{})

	done := make(chan bool)
	go func() {
		done <- m.Check(context.Background())
	}()

	deadline := time.After(time.Second)
	for !m.IsChecking() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the check to start")
		case <-time.After(time.Millisecond):
		}
	}

	close(block)
	assert.Equal(t, <-done, true, "check result mismatch")
	assert.Equal(t, m.IsChecking(), false, "check should be done")
}

func TestSubscribeTransitions(t *testing.T) {
	p := &fakeProber{status: "ok"}
	m := New(p, "d1", Options{})

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Check(context.Background())
	assert.Equal(t, <-ch, true, "should be notified of the connection")

	// No change, no notification
	m.Check(context.Background())
	select {
	case v := <-ch:
		t.Fatalf("unexpected notification %v", v)
	default:
	}

	p.set("", errors.New("down"))
	m.Check(context.Background())
	assert.Equal(t, <-ch, false, "should be notified of the disconnection")
}

func TestSubscribeLatestWins(t *testing.T) {
	p := &fakeProber{status: "ok"}
	m := New(p, "d1", Options{})

	ch, cancel := m.Subscribe()
	defer cancel()

	m.Check(context.Background())
	p.set("", errors.New("down"))
	m.Check(context.Background())
	p.set("ok", nil)
	m.Check(context.Background())

	assert.Equal(t, <-ch, true, "slow subscriber should see the latest state")
}

func TestDisabled(t *testing.T) {
	m := New(nil, "d1", Options{})

	assert.Equal(t, m.Enabled(), false, "monitor should be disabled")
	assert.Equal(t, m.Check(context.Background()), false, "disabled monitor is offline")

	m.Start(context.Background())
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("disabled monitor should not run a loop")
	}
	assert.Equal(t, m.IsConnected(), false, "disabled monitor is offline")
}

func TestStart(t *testing.T) {
	p := &fakeProber{status: "ok"}
	m := New(p, "d1", Options{Interval: 10 * time.Millisecond})

	ch, cancel := m.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	m.Start(ctx)

	select {
	case v := <-ch:
		assert.Equal(t, v, true, "eager probe should connect")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the eager probe")
	}

	deadline := time.After(time.Second)
	for p.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for periodic probes")
		case <-time.After(5 * time.Millisecond):
		}
	}

	stop()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop should stop with its context")
	}
}
