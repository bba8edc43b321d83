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

// Package entity defines the trackers, collections and log entries shared by
// the client and the server, along with their validation rules.
package entity

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Kind is the kind of an entity. It names a partition of the local cache and
// of the pending write queue.
type Kind string

const (
	// KindTracker is the kind for trackers
	KindTracker Kind = "trackers"
	// KindCollection is the kind for collections
	KindCollection Kind = "collections"
	// KindLog is the kind for log entries
	KindLog Kind = "logs"
)

// Kinds lists every kind in dependency order. Log entries reference trackers
// and collections, and collections reference trackers, so anything replaying
// writes against the server must follow this order.
var Kinds = []Kind{KindTracker, KindCollection, KindLog}

// Valid checks if the kind is known
func (k Kind) Valid() bool {
	switch k {
	case KindTracker, KindCollection, KindLog:
		return true
	}

	return false
}

// ParseKind parses a kind name. Singular names are accepted as well.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "trackers", "tracker":
		return KindTracker, nil
	case "collections", "collection":
		return KindCollection, nil
	case "logs", "log":
		return KindLog, nil
	}

	return "", errors.Errorf("unknown kind '%s'", s)
}

// Entity is implemented by every synchronized record
type Entity interface {
	EntityID() string
	EntityKind() Kind
	Validate() error
}

// ErrInvalid is the cause of every validation error
var ErrInvalid = errors.New("invalid entity")

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalid, format, args...)
}

// GenID mints a new client-side identifier for an entity
func GenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generating uuid")
	}

	return id.String(), nil
}

// ValidateID checks that the given id is a well-formed identifier
func ValidateID(id string) bool {
	_, err := uuid.Parse(id)

	return err == nil
}

// Decode unmarshals the JSON representation of an entity of the given kind
func Decode(kind Kind, data []byte) (Entity, error) {
	switch kind {
	case KindTracker:
		var t Tracker
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, errors.Wrap(err, "decoding tracker")
		}
		return t, nil
	case KindCollection:
		var c Collection
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(err, "decoding collection")
		}
		return c, nil
	case KindLog:
		var l LogEntry
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, errors.Wrap(err, "decoding log entry")
		}
		return l, nil
	}

	return nil, errors.Errorf("unknown kind '%s'", kind)
}

// MarkPending returns a copy of the entity flagged as not yet confirmed by the server
func MarkPending(e Entity) Entity {
	switch v := e.(type) {
	case Tracker:
		v.PendingSync = true
		return v
	case Collection:
		v.PendingSync = true
		return v
	case LogEntry:
		v.PendingSync = true
		return v
	}

	return e
}

// IsPending reports whether the entity is flagged as pending
func IsPending(e Entity) bool {
	switch v := e.(type) {
	case Tracker:
		return v.PendingSync
	case Collection:
		return v.PendingSync
	case LogEntry:
		return v.PendingSync
	}

	return false
}
