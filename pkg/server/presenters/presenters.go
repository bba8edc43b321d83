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


// Package presenters converts database models into the entities served by the API
package presenters

import (
	"encoding/json"

	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/database"
	"github.com/pkg/errors"
)

func generalTime(s *string) *entity.GeneralTime {
	if s == nil {
		return nil
	}

	g := entity.GeneralTime(*s)
	return &g
}

// PresentTracker presents a tracker
func PresentTracker(t database.Tracker) entity.Tracker {
	return entity.Tracker{
		ID:          t.UUID,
		DeviceID:    t.DeviceID,
		Text:        t.Text,
		Type:        entity.TrackerType(t.Type),
		DefaultTime: generalTime(t.DefaultTime),
		Options:     []string(t.Options),
		Pinned:      t.Pinned,
		Position:    t.Position,
	}
}

// PresentTrackers presents trackers
func PresentTrackers(trackers []database.Tracker) []entity.Tracker {
	ret := []entity.Tracker{}

	for _, t := range trackers {
		ret = append(ret, PresentTracker(t))
	}

	return ret
}

// PresentCollection presents a collection
func PresentCollection(c database.Collection) entity.Collection {
	ids := []string(c.TrackerIDs)
	if ids == nil {
		ids = []string{}
	}

	return entity.Collection{
		ID:         c.UUID,
		DeviceID:   c.DeviceID,
		Name:       c.Name,
		TrackerIDs: ids,
		Pinned:     c.Pinned,
	}
}

// PresentCollections presents collections
func PresentCollections(collections []database.Collection) []entity.Collection {
	ret := []entity.Collection{}

	for _, c := range collections {
		ret = append(ret, PresentCollection(c))
	}

	return ret
}

// PresentLogEntry presents a log entry. It fails if the stored value cannot be decoded.
func PresentLogEntry(l database.LogEntry) (entity.LogEntry, error) {
	var value entity.LogValue
	if err := json.Unmarshal([]byte(l.Value), &value); err != nil {
		return entity.LogEntry{}, errors.Wrapf(err, "decoding value of log %s", l.UUID)
	}

	return entity.LogEntry{
		ID:           l.UUID,
		DeviceID:     l.DeviceID,
		TrackerID:    l.TrackerUUID,
		CreatedAt:    l.LoggedAt,
		Value:        value,
		TimeKind:     entity.TimeKind(l.TimeKind),
		GeneralTime:  generalTime(l.GeneralTime),
		ExactTime:    l.ExactTime,
		Date:         l.Date,
		CollectionID: l.CollectionUUID,
		Category:     l.Category,
	}, nil
}

// PresentLogEntries presents log entries
func PresentLogEntries(entries []database.LogEntry) ([]entity.LogEntry, error) {
	ret := []entity.LogEntry{}

	for _, l := range entries {
		p, err := PresentLogEntry(l)
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}

	return ret, nil
}
