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

// Package cache stores the last known server state of each kind of entity
package cache

import (
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// Store is the local cache of server state, partitioned by kind. Entries keep
// the order in which the server returned them.
type Store struct {
	db *database.DB

	mu        sync.RWMutex
	listeners []func(entity.Kind)
}

// New returns a cache store backed by the given database
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Watch registers fn to be called after every change to a kind
func (s *Store) Watch(fn func(entity.Kind)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// Notify calls the registered listeners for the given kinds
func (s *Store) Notify(kinds ...entity.Kind) {
	s.mu.RLock()
	listeners := append([]func(entity.Kind){}, s.listeners...)
	s.mu.RUnlock()

	for _, k := range kinds {
		for _, fn := range listeners {
			fn(k)
		}
	}
}

// List returns the cached entities of the given kind in server order
func (s *Store) List(kind entity.Kind) ([]entity.Entity, error) {
	rows, err := s.db.Query("SELECT data FROM cache WHERE kind = ? ORDER BY position ASC", string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "querying cached %s", kind)
	}
	defer rows.Close()

	ret := []entity.Entity{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "scanning cache row")
		}

		e, err := entity.Decode(kind, data)
		if err != nil {
			return nil, err
		}

		ret = append(ret, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating cache rows")
	}

	return ret, nil
}

// Get returns the cached entity with the given id, if any
func (s *Store) Get(kind entity.Kind, id string) (entity.Entity, bool, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM cache WHERE kind = ? AND id = ?", string(kind), id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrapf(err, "reading cached %s %s", kind, id)
	}

	e, err := entity.Decode(kind, data)
	if err != nil {
		return nil, false, err
	}

	return e, true, nil
}

// Replace swaps the whole partition of the given kind for the given entities
func (s *Store) Replace(kind entity.Kind, entities []entity.Entity) error {
	err := s.db.InTx(func(tx *database.DB) error {
		if _, err := tx.Exec("DELETE FROM cache WHERE kind = ?", string(kind)); err != nil {
			return errors.Wrapf(err, "clearing cached %s", kind)
		}

		for i, e := range entities {
			if e.EntityKind() != kind {
				return errors.Errorf("cannot cache %s %s as %s", e.EntityKind(), e.EntityID(), kind)
			}

			data, err := json.Marshal(e)
			if err != nil {
				return errors.Wrapf(err, "encoding %s %s", kind, e.EntityID())
			}

			if _, err := tx.Exec("INSERT INTO cache (kind, id, position, data) VALUES (?, ?, ?, ?)",
				string(kind), e.EntityID(), i, string(data)); err != nil {
				return errors.Wrapf(err, "caching %s %s", kind, e.EntityID())
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.Notify(kind)

	return nil
}

// Upsert writes the entity within the given transaction. A new entity is
// placed after the existing ones; an existing one keeps its place. Callers
// own the transaction and are responsible for calling Notify after commit.
func Upsert(tx *database.DB, e entity.Entity) error {
	data, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "encoding %s %s", e.EntityKind(), e.EntityID())
	}

	kind := string(e.EntityKind())
	_, err = tx.Exec(`INSERT INTO cache (kind, id, position, data)
		VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM cache WHERE kind = ?), ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data`,
		kind, e.EntityID(), kind, string(data))
	if err != nil {
		return errors.Wrapf(err, "upserting cached %s %s", kind, e.EntityID())
	}

	return nil
}

// Upsert writes a single entity to the cache
func (s *Store) Upsert(e entity.Entity) error {
	if err := s.db.InTx(func(tx *database.DB) error {
		return Upsert(tx, e)
	}); err != nil {
		return err
	}

	s.Notify(e.EntityKind())

	return nil
}

// Counts returns the number of cached entities per kind
func (s *Store) Counts() (map[entity.Kind]int, error) {
	rows, err := s.db.Query("SELECT kind, count(*) FROM cache GROUP BY kind")
	if err != nil {
		return nil, errors.Wrap(err, "counting cache")
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
			return nil, errors.Wrap(err, "scanning cache count")
		}
		ret[entity.Kind(kind)] = n
	}

	return ret, errors.Wrap(rows.Err(), "iterating cache counts")
}
