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

// Package queue implements the durable queue of writes that have not yet been
// acknowledged by the server, and the record of writes the server rejected.
package queue

import (
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when an item is not in the queue or dead-letter record
var ErrNotFound = errors.New("not found")

// Snapshot is a copy of the queue contents, each partition in creation order
type Snapshot struct {
	Trackers    []entity.Tracker
	Collections []entity.Collection
	Logs        []entity.LogEntry
}

// Len returns the number of items in the snapshot
func (s Snapshot) Len() int {
	return len(s.Trackers) + len(s.Collections) + len(s.Logs)
}

// Queue is the pending write queue. Every mutation is persisted before it
// returns, so the queue survives restarts.
type Queue struct {
	db    *database.DB
	cache *cache.Store
	clock clock.Clock

	mu        sync.RWMutex
	listeners []func(entity.Kind)
}

// New returns a queue backed by the given database. Confirmed items are
// promoted into the given cache.
func New(db *database.DB, c *cache.Store, clk clock.Clock) *Queue {
	return &Queue{db: db, cache: c, clock: clk}
}

// Watch registers fn to be called after every change to a partition
func (q *Queue) Watch(fn func(entity.Kind)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.listeners = append(q.listeners, fn)
}

func (q *Queue) notify(kinds ...entity.Kind) {
	q.mu.RLock()
	listeners := append([]func(entity.Kind){}, q.listeners...)
	q.mu.RUnlock()

	for _, k := range uniqueKinds(kinds) {
		for _, fn := range listeners {
			fn(k)
		}
	}
}

func uniqueKinds(kinds []entity.Kind) []entity.Kind {
	seen := map[entity.Kind]bool{}
	ret := []entity.Kind{}
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			ret = append(ret, k)
		}
	}

	return ret
}

func encode(e entity.Entity) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", errors.Wrapf(err, "encoding %s %s", e.EntityKind(), e.EntityID())
	}

	return string(data), nil
}

// Enqueue appends the entity to its partition. Enqueueing an id that is
// already queued replaces its payload and keeps its position.
func (q *Queue) Enqueue(e entity.Entity) error {
	data, err := encode(e)
	if err != nil {
		return err
	}

	_, err = q.db.Exec(`INSERT INTO pending (kind, id, data, enqueued_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data`,
		string(e.EntityKind()), e.EntityID(), data, clock.Millis(q.clock))
	if err != nil {
		return errors.Wrapf(err, "enqueueing %s %s", e.EntityKind(), e.EntityID())
	}

	q.notify(e.EntityKind())

	return nil
}

// List returns the queued entities of one kind in creation order
func (q *Queue) List(kind entity.Kind) ([]entity.Entity, error) {
	rows, err := q.db.Query("SELECT data FROM pending WHERE kind = ? ORDER BY seq ASC", string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "querying pending %s", kind)
	}
	defer rows.Close()

	ret := []entity.Entity{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scanning pending row")
		}

		e, err := entity.Decode(kind, data)
		if err != nil {
			return nil, err
		}

		ret = append(ret, e)
	}

	return ret, errors.Wrap(rows.Err(), "iterating pending rows")
}

// Snapshot returns a copy of every partition
func (q *Queue) Snapshot() (Snapshot, error) {
	var ret Snapshot

	for _, kind := range entity.Kinds {
		items, err := q.List(kind)
		if err != nil {
			return Snapshot{}, err
		}

		for _, e := range items {
			switch v := e.(type) {
			case entity.Tracker:
				ret.Trackers = append(ret.Trackers, v)
			case entity.Collection:
				ret.Collections = append(ret.Collections, v)
			case entity.LogEntry:
				ret.Logs = append(ret.Logs, v)
			}
		}
	}

	return ret, nil
}

// Get returns the queued entity with the given id, if any
func (q *Queue) Get(kind entity.Kind, id string) (entity.Entity, bool, error) {
	var data []byte
	err := q.db.QueryRow("SELECT data FROM pending WHERE kind = ? AND id = ?", string(kind), id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "reading pending %s %s", kind, id)
	}

	e, err := entity.Decode(kind, data)
	if err != nil {
		return nil, false, err
	}

	return e, true, nil
}

// Has checks if the entity with the given id is queued
func (q *Queue) Has(kind entity.Kind, id string) (bool, error) {
	var n int
	if err := q.db.QueryRow("SELECT count(*) FROM pending WHERE kind = ? AND id = ?", string(kind), id).Scan(&n); err != nil {
		return false, errors.Wrapf(err, "looking up pending %s %s", kind, id)
	}

	return n > 0, nil
}

// Len returns the number of queued items
func (q *Queue) Len() (int, error) {
	var n int
	if err := q.db.QueryRow("SELECT count(*) FROM pending").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "counting pending items")
	}

	return n, nil
}

// Counts returns the number of queued items per kind
func (q *Queue) Counts() (map[entity.Kind]int, error) {
	return countByKind(q.db, "pending")
}

func countByKind(db *database.DB, table string) (map[entity.Kind]int, error) {
	rows, err := db.Query("SELECT kind, count(*) FROM " + table + " GROUP BY kind")
	if err != nil {
		return nil, errors.Wrapf(err, "counting %s", table)
	}
	defer rows.Close()

	ret := map[entity.Kind]int{}
	for _, k := range entity.Kinds {
		ret[k] = 0
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.Wrap(err, "scanning count")
		}
		ret[entity.Kind(kind)] = n
	}

	return ret, errors.Wrap(rows.Err(), "iterating counts")
}

// Clear empties every partition
func (q *Queue) Clear() error {
	if _, err := q.db.Exec("DELETE FROM pending"); err != nil {
		return errors.Wrap(err, "clearing pending items")
	}

	q.notify(entity.Kinds...)

	return nil
}

// RemoveConfirmed removes the given ids from a partition. Ids that are not
// queued are ignored.
func (q *Queue) RemoveConfirmed(kind entity.Kind, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := q.db.InTx(func(tx *database.DB) error {
		for _, id := range ids {
			if _, err := tx.Exec("DELETE FROM pending WHERE kind = ? AND id = ?", string(kind), id); err != nil {
				return errors.Wrapf(err, "removing pending %s %s", kind, id)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	q.notify(kind)

	return nil
}

// Confirm records that the server acknowledged the given entities. In one
// transaction each is removed from the queue and written to the cache, so it
// stays visible until the next refresh replaces the cache. An item whose
// payload was replaced after the acknowledged copy was read stays queued.
func (q *Queue) Confirm(entities ...entity.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	kinds := []entity.Kind{}
	err := q.db.InTx(func(tx *database.DB) error {
		for _, e := range entities {
			data, err := encode(e)
			if err != nil {
				return err
			}

			if _, err := tx.Exec("DELETE FROM pending WHERE kind = ? AND id = ? AND data = ?",
				string(e.EntityKind()), e.EntityID(), data); err != nil {
				return errors.Wrapf(err, "removing pending %s %s", e.EntityKind(), e.EntityID())
			}

			if err := cache.Upsert(tx, e); err != nil {
				return err
			}

			kinds = append(kinds, e.EntityKind())
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "confirming")
	}

	q.notify(kinds...)
	q.cache.Notify(uniqueKinds(kinds)...)

	return nil
}
