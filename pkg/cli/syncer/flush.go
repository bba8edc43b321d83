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

package syncer

import (
	"context"

	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// Result summarizes a flush pass
type Result struct {
	// Confirmed is the number of writes acknowledged by the server
	Confirmed int
	// DeadLettered is the number of writes the server rejected
	DeadLettered int
	// Remaining is the number of writes still queued after the pass
	Remaining int
	// LastError is the retryable error that stopped the pass, if any
	LastError error
}

// errStop signals a retryable failure ending the pass
var errStop = errors.New("flush stopped")

type flushPass struct {
	e       *Engine
	res     Result
	touched map[entity.Kind]bool
}

// Flush replays the queued writes to the server once: trackers, then
// collections, then log entries in batches. Each acknowledged write is
// confirmed immediately. A retryable failure ends the pass and leaves the
// remaining writes queued; a rejected write is moved to the dead letters and
// the pass goes on. Refreshes the cache of every kind that was written to.
//
// Writes queued during the pass wait for the next one. The returned error
// reports local storage failures only.
func (e *Engine) Flush(ctx context.Context) (Result, error) {
	e.flushMu.Lock()
	defer e.flushMu.Unlock()

	if !e.monitor.IsConnected() {
		e.settle()
		return Result{}, ErrOffline
	}

	e.setState(StateFlushing)
	defer e.settle()

	snap, err := e.queue.Snapshot()
	if err != nil {
		return Result{}, errors.Wrap(err, "snapshotting the queue")
	}

	p := &flushPass{e: e, touched: map[entity.Kind]bool{}}
	err = p.run(ctx, snap)
	if err != nil && !errors.Is(err, errStop) {
		return p.res, err
	}

	if len(p.touched) > 0 {
		kinds := []entity.Kind{}
		for _, k := range entity.Kinds {
			if p.touched[k] {
				kinds = append(kinds, k)
			}
		}

		if err := e.Refresh(ctx, kinds...); err != nil {
			e.logger.Debug("refreshing after flush: %s", err)
		}
	}

	remaining, err := e.queue.Len()
	if err != nil {
		return p.res, err
	}
	p.res.Remaining = remaining

	if p.res.Confirmed > 0 || p.res.DeadLettered > 0 {
		e.logger.Debug("flushed %d writes, %d rejected, %d remaining", p.res.Confirmed, p.res.DeadLettered, remaining)
	}

	return p.res, nil
}

func (p *flushPass) run(ctx context.Context, snap queue.Snapshot) error {
	for _, t := range snap.Trackers {
		err := p.send(ctx, func(ctx context.Context) error {
			_, err := p.e.remote.CreateTracker(ctx, t)
			return err
		}, t)
		if err != nil {
			return err
		}
	}

	for _, c := range snap.Collections {
		err := p.send(ctx, func(ctx context.Context) error {
			_, err := p.e.remote.CreateCollection(ctx, c)
			return err
		}, c)
		if err != nil {
			return err
		}
	}

	for _, batch := range chunk(snap.Logs, p.e.config.BatchSize) {
		if err := p.sendLogs(ctx, batch); err != nil {
			return err
		}
	}

	return nil
}

// sendLogs sends a batch of log entries. A rejected batch is replayed one
// entry at a time to single out the entries the server refuses.
func (p *flushPass) sendLogs(ctx context.Context, batch []entity.LogEntry) error {
	entities := make([]entity.Entity, len(batch))
	for i, l := range batch {
		entities[i] = l
	}

	call := func(entries []entity.LogEntry) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			_, err := p.e.remote.LogEntries(ctx, entries)
			return err
		}
	}

	if len(batch) == 1 {
		return p.send(ctx, call(batch), entities...)
	}

	err := p.attempt(ctx, call(batch))
	switch {
	case err == nil:
		return p.confirm(entities...)
	case client.IsTerminal(err):
		p.e.logger.Debug("batch of %d log entries rejected, replaying one by one: %s", len(batch), err)
		for _, l := range batch {
			if err := p.send(ctx, call([]entity.LogEntry{l}), l); err != nil {
				return err
			}
		}
		return nil
	default:
		p.res.LastError = err
		return errStop
	}
}

// send writes the given entities with fn and records the outcome
func (p *flushPass) send(ctx context.Context, fn func(ctx context.Context) error, entities ...entity.Entity) error {
	err := p.attempt(ctx, fn)
	switch {
	case err == nil:
		return p.confirm(entities...)
	case client.IsTerminal(err):
		for _, e := range entities {
			p.e.logger.Warnf("%s %s was rejected by the server: %s", e.EntityKind(), e.EntityID(), err)
			if err := p.e.queue.Bury(e, err.Error()); err != nil {
				return errors.Wrap(err, "recording rejected write")
			}
			p.res.DeadLettered++
		}
		return nil
	default:
		p.res.LastError = err
		return errStop
	}
}

func (p *flushPass) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rctx, cancel := p.e.requestCtx(ctx)
	defer cancel()

	return fn(rctx)
}

func (p *flushPass) confirm(entities ...entity.Entity) error {
	if err := p.e.confirm(entities...); err != nil {
		return errors.Wrap(err, "confirming writes")
	}

	for _, e := range entities {
		p.touched[e.EntityKind()] = true
	}
	p.res.Confirmed += len(entities)

	return nil
}

func chunk(items []entity.LogEntry, size int) [][]entity.LogEntry {
	var ret [][]entity.LogEntry
	for size < len(items) {
		items, ret = items[size:], append(ret, items[0:size:size])
	}
	if len(items) > 0 {
		ret = append(ret, items)
	}

	return ret
}
