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

package infra

import (
	stdctx "context"

	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/syncer"
	"github.com/habitlog/habitlog/pkg/entity"
)

// Probe checks once whether the server is reachable. It reports false when
// no server is configured.
func Probe(c stdctx.Context, ctx context.HabitlogCtx) bool {
	if !ctx.Monitor.Enabled() {
		return false
	}

	return ctx.Monitor.Check(c)
}

// Drain sends the writes waiting in the queue if the server is reachable.
// Commands call it after a write since no background engine runs for them.
func Drain(c stdctx.Context, ctx context.HabitlogCtx) (syncer.Result, error) {
	n, err := ctx.Queue.Len()
	if err != nil {
		return syncer.Result{}, err
	}
	if n == 0 || !ctx.Monitor.IsConnected() {
		return syncer.Result{Remaining: n}, nil
	}

	return ctx.Engine.Flush(c)
}

// StillPending drains the queue, then reports whether the given entity is
// still waiting to be sent
func StillPending(c stdctx.Context, ctx context.HabitlogCtx, e entity.Entity) bool {
	if _, err := Drain(c, ctx); err != nil {
		log.Debug("draining the queue: %s\n", err)
	}

	pending, err := ctx.Queue.Has(e.EntityKind(), e.EntityID())
	if err != nil {
		log.Debug("checking the queue: %s\n", err)
		return true
	}

	return pending
}
