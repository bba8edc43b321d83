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

// Package connectivity tracks whether the server is reachable from this device
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/log"
)

const (
	// DefaultInterval is the default time between two probes
	DefaultInterval = 30 * time.Second
	// DefaultTimeout is the default time a probe may take
	DefaultTimeout = 10 * time.Second

	statusOK = "ok"
)

// Prober checks the health of the server on behalf of the device
type Prober interface {
	Health(ctx context.Context) (client.HealthResp, error)
}

// Options configures a Monitor
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Logger   log.Logger
}

// Monitor keeps a connected flag up to date by probing the server
// periodically. It starts out disconnected.
type Monitor struct {
	prober   Prober
	deviceID string
	interval time.Duration
	timeout  time.Duration
	logger   log.Logger

	mu        sync.Mutex
	connected bool
	checking  int
	subs      map[int]chan bool
	nextSub   int

	startOnce sync.Once
	done      chan struct{}
}

// New returns a monitor probing through the given prober. A nil prober
// disables the monitor, which then stays disconnected.
func New(prober Prober, deviceID string, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	return &Monitor{
		prober:   prober,
		deviceID: deviceID,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		subs:     map[int]chan bool{},
		done:     make(chan struct{}),
	}
}

// Enabled reports whether the monitor has a server to probe
func (m *Monitor) Enabled() bool {
	return m.prober != nil
}

// IsConnected returns the result of the latest probe
func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.connected
}

// IsChecking reports whether a probe is in flight
func (m *Monitor) IsChecking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.checking > 0
}

// Check probes the server once and updates the connected flag. Failures
// only mark the device as disconnected.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.prober == nil {
		m.set(false)
		return false
	}

	m.mu.Lock()
	m.checking++
	m.mu.Unlock()

	ok := m.probe(ctx)

	m.mu.Lock()
	m.checking--
	m.mu.Unlock()

	m.set(ok)

	return ok
}

func (m *Monitor) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.prober.Health(ctx)
	if err != nil {
		m.logger.Debug("health check for device %s failed: %s", m.deviceID, err)
		return false
	}
	if resp.Status != statusOK {
		m.logger.Debug("health check for device %s returned status '%s'", m.deviceID, resp.Status)
		return false
	}

	return true
}

func (m *Monitor) set(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == connected {
		return
	}
	m.connected = connected

	if connected {
		m.logger.Debug("device %s is connected", m.deviceID)
	} else {
		m.logger.Debug("device %s is disconnected", m.deviceID)
	}

	for _, ch := range m.subs {
		// Only the latest state matters to a slow subscriber.
		select {
		case ch <- connected:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- connected
		}
	}
}

// Subscribe returns a channel receiving the connected flag on every change,
// and a function to cancel the subscription.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++

	ch := make(chan bool, 1)
	m.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			delete(m.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// Start probes once right away and then every interval until ctx is done.
// It returns immediately. A disabled monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		if m.prober == nil {
			m.logger.Debug("no api endpoint configured, staying offline")
			close(m.done)
			return
		}

		go m.loop(ctx)
	})
}

// Done is closed once the probing loop started by Start has exited
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
