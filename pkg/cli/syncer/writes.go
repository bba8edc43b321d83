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
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// submit sends a new entity to the server when possible and queues it
// otherwise. It reports whether the entity was queued. A write is also queued
// behind any writes already waiting, so that writes reach the server in
// order. A rejection by the server is returned to the caller.
func (e *Engine) submit(ctx context.Context, ent entity.Entity, send func(ctx context.Context) error) (bool, error) {
	n, err := e.queue.Len()
	if err != nil {
		return false, err
	}

	if n > 0 || !e.monitor.IsConnected() {
		if err := e.queue.Enqueue(ent); err != nil {
			return false, errors.Wrap(err, "queueing")
		}
		e.requestFlush()

		return true, nil
	}

	rctx, cancel := e.requestCtx(ctx)
	err = send(rctx)
	cancel()

	if err == nil {
		if err := e.Refresh(ctx, ent.EntityKind()); err != nil {
			e.logger.Debug("refreshing %s: %s", ent.EntityKind(), err)
			// Keep the entity visible until the next successful refresh.
			e.cacheMu.Lock()
			err = e.cache.Upsert(ent)
			e.cacheMu.Unlock()
			if err != nil {
				return false, err
			}
		}

		return false, nil
	}
	if client.IsTerminal(err) {
		return false, err
	}

	e.logger.Debug("sending %s %s failed, queueing: %s", ent.EntityKind(), ent.EntityID(), err)
	if err := e.queue.Enqueue(ent); err != nil {
		return false, errors.Wrap(err, "queueing")
	}
	e.requestFlush()

	return true, nil
}

// lookup finds an entity in the queue or the cache
func (e *Engine) lookup(kind entity.Kind, id string) (entity.Entity, bool, error) {
	ent, ok, err := e.queue.Get(kind, id)
	if err != nil || ok {
		return ent, ok, err
	}

	return e.cache.Get(kind, id)
}

// CreateTracker creates a tracker, minting its id and stamping the device
func (e *Engine) CreateTracker(ctx context.Context, t entity.Tracker) (entity.Tracker, error) {
	if t.ID == "" {
		id, err := entity.GenID()
		if err != nil {
			return entity.Tracker{}, err
		}
		t.ID = id
	}
	t.DeviceID = e.deviceID
	t.PendingSync = false

	if err := t.Validate(); err != nil {
		return entity.Tracker{}, err
	}

	queued, err := e.submit(ctx, t, func(ctx context.Context) error {
		_, err := e.remote.CreateTracker(ctx, t)
		return err
	})
	if err != nil {
		return entity.Tracker{}, errors.Wrap(err, "creating tracker")
	}

	t.PendingSync = queued
	return t, nil
}

// CreateCollection creates a collection of known trackers
func (e *Engine) CreateCollection(ctx context.Context, c entity.Collection) (entity.Collection, error) {
	if c.ID == "" {
		id, err := entity.GenID()
		if err != nil {
			return entity.Collection{}, err
		}
		c.ID = id
	}
	c.DeviceID = e.deviceID
	c.PendingSync = false

	if err := c.Validate(); err != nil {
		return entity.Collection{}, err
	}
	for _, tid := range c.TrackerIDs {
		_, ok, err := e.lookup(entity.KindTracker, tid)
		if err != nil {
			return entity.Collection{}, err
		}
		if !ok {
			return entity.Collection{}, errors.Wrapf(entity.ErrInvalid, "unknown tracker %s", tid)
		}
	}

	queued, err := e.submit(ctx, c, func(ctx context.Context) error {
		_, err := e.remote.CreateCollection(ctx, c)
		return err
	})
	if err != nil {
		return entity.Collection{}, errors.Wrap(err, "creating collection")
	}

	c.PendingSync = queued
	return c, nil
}

// LogEntry records a value against a tracker. Missing fields are filled in:
// the id, the creation time and date from the clock, and a general time of
// day from the tracker's default or the clock.
func (e *Engine) LogEntry(ctx context.Context, l entity.LogEntry) (entity.LogEntry, error) {
	if l.ID == "" {
		id, err := entity.GenID()
		if err != nil {
			return entity.LogEntry{}, err
		}
		l.ID = id
	}
	l.DeviceID = e.deviceID
	l.PendingSync = false
	if l.CreatedAt == 0 {
		l.CreatedAt = clock.Millis(e.clock)
	}
	if l.Date == "" {
		l.Date = clock.Today(e.clock)
	}

	found, ok, err := e.lookup(entity.KindTracker, l.TrackerID)
	if err != nil {
		return entity.LogEntry{}, err
	}
	if !ok {
		return entity.LogEntry{}, errors.Wrapf(entity.ErrInvalid, "unknown tracker %s", l.TrackerID)
	}
	tracker := found.(entity.Tracker)

	if l.TimeKind == "" && l.GeneralTime == nil && l.ExactTime == nil {
		g := entity.GeneralTimeAt(e.clock.Now())
		if tracker.DefaultTime != nil {
			g = *tracker.DefaultTime
		}
		l.TimeKind = entity.TimeGeneral
		l.GeneralTime = &g
	}

	if err := l.Validate(); err != nil {
		return entity.LogEntry{}, err
	}
	if err := l.Value.CheckFor(tracker.Type); err != nil {
		return entity.LogEntry{}, err
	}
	if l.CollectionID != nil {
		_, ok, err := e.lookup(entity.KindCollection, *l.CollectionID)
		if err != nil {
			return entity.LogEntry{}, err
		}
		if !ok {
			return entity.LogEntry{}, errors.Wrapf(entity.ErrInvalid, "unknown collection %s", *l.CollectionID)
		}
	}

	queued, err := e.submit(ctx, l, func(ctx context.Context) error {
		_, err := e.remote.LogEntries(ctx, []entity.LogEntry{l})
		return err
	})
	if err != nil {
		return entity.LogEntry{}, errors.Wrap(err, "logging entry")
	}

	l.PendingSync = queued
	return l, nil
}

// requireSynced fails unless the server is reachable and the target has
// reached it
func (e *Engine) requireSynced(kind entity.Kind, id string) error {
	if !e.monitor.IsConnected() {
		return ErrOffline
	}

	pending, err := e.queue.Has(kind, id)
	if err != nil {
		return err
	}
	if pending {
		return errors.Wrapf(ErrNotSynced, "%s %s", kind, id)
	}

	return nil
}

// online runs an online-only operation against the server, then refreshes
// the kinds it affects
func (e *Engine) online(ctx context.Context, kind entity.Kind, id string, fn func(ctx context.Context) error, affected ...entity.Kind) error {
	if err := e.requireSynced(kind, id); err != nil {
		return err
	}

	rctx, cancel := e.requestCtx(ctx)
	defer cancel()

	if err := fn(rctx); err != nil {
		return err
	}

	if err := e.Refresh(ctx, affected...); err != nil {
		e.logger.Debug("refreshing after %s %s changed: %s", kind, id, err)
	}

	return nil
}

// UpdateTracker edits a tracker. It needs the server.
func (e *Engine) UpdateTracker(ctx context.Context, id string, patch entity.TrackerPatch) (entity.Tracker, error) {
	var ret entity.Tracker

	err := e.online(ctx, entity.KindTracker, id, func(ctx context.Context) error {
		t, err := e.remote.UpdateTracker(ctx, id, patch)
		ret = t
		return err
	}, entity.KindTracker)
	if err != nil {
		return entity.Tracker{}, errors.Wrap(err, "updating tracker")
	}

	return ret, nil
}

// DeleteTracker deletes a tracker along with its log entries. It needs the server.
func (e *Engine) DeleteTracker(ctx context.Context, id string) error {
	err := e.online(ctx, entity.KindTracker, id, func(ctx context.Context) error {
		return e.remote.DeleteTracker(ctx, id)
	}, entity.Kinds...)

	return errors.Wrap(err, "deleting tracker")
}

// UpdateCollection edits a collection. It needs the server.
func (e *Engine) UpdateCollection(ctx context.Context, id string, patch entity.CollectionPatch) (entity.Collection, error) {
	var ret entity.Collection

	err := e.online(ctx, entity.KindCollection, id, func(ctx context.Context) error {
		c, err := e.remote.UpdateCollection(ctx, id, patch)
		ret = c
		return err
	}, entity.KindCollection)
	if err != nil {
		return entity.Collection{}, errors.Wrap(err, "updating collection")
	}

	return ret, nil
}

// DeleteCollection deletes a collection. Its log entries are kept. It needs the server.
func (e *Engine) DeleteCollection(ctx context.Context, id string) error {
	err := e.online(ctx, entity.KindCollection, id, func(ctx context.Context) error {
		return e.remote.DeleteCollection(ctx, id)
	}, entity.KindCollection, entity.KindLog)

	return errors.Wrap(err, "deleting collection")
}

// DeleteLog deletes a log entry. It needs the server.
func (e *Engine) DeleteLog(ctx context.Context, id string) error {
	err := e.online(ctx, entity.KindLog, id, func(ctx context.Context) error {
		return e.remote.DeleteLog(ctx, id)
	}, entity.KindLog)

	return errors.Wrap(err, "deleting log entry")
}
