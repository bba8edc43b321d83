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

// Package clock abstracts the wall clock so that time-dependent code, such as
// log entry timestamps and the last sync time, can be tested.
package clock

import (
	"sync"
	"time"
)

// Clock tells the current time
type Clock interface {
	Now() time.Time
}

type wall struct{}

func (wall) Now() time.Time {
	return time.Now()
}

// New returns the real clock
func New() Clock {
	return wall{}
}

// Mock is a clock that only moves when told to
type Mock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMock returns a mock clock set to 2009-11-10 23:00 UTC
func NewMock() *Mock {
	return &Mock{
		now: time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC),
	}
}

// Now returns the current time of the mock
func (c *Mock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.now
}

// SetNow sets the current time of the mock
func (c *Mock) SetNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// Advance moves the mock forward by d
func (c *Mock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Millis returns the current time of c in unix milliseconds
func Millis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// Today returns the local calendar date of c as YYYY-MM-DD
func Today(c Clock) string {
	return c.Now().Format("2006-01-02")
}
