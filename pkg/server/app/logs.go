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


package app

import (
	"encoding/json"
	"time"

	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/database"
	"github.com/habitlog/habitlog/pkg/server/presenters"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MaxLogBatch is the largest number of entries accepted in one batch
const MaxLogBatch = 500

var logColumns = []string{
	"tracker_uuid", "collection_uuid", "logged_at", "value", "time_kind",
	"general_time", "exact_time", "date", "category",
}

func logEntryModel(deviceID string, l entity.LogEntry) (database.LogEntry, error) {
	value, err := json.Marshal(l.Value)
	if err != nil {
		return database.LogEntry{}, errors.Wrapf(err, "encoding value of log %s", l.ID)
	}

	var generalTime *string
	if l.GeneralTime != nil {
		s := string(*l.GeneralTime)
		generalTime = &s
	}

	return database.LogEntry{
		DeviceID:       deviceID,
		UUID:           l.ID,
		TrackerUUID:    l.TrackerID,
		CollectionUUID: l.CollectionID,
		LoggedAt:       l.CreatedAt,
		Value:          string(value),
		TimeKind:       string(l.TimeKind),
		GeneralTime:    generalTime,
		ExactTime:      l.ExactTime,
		Date:           l.Date,
		Category:       l.Category,
	}, nil
}

// logRefs caches the references looked up while checking a batch
type logRefs struct {
	tx          *gorm.DB
	deviceID    string
	trackers    map[string]entity.TrackerType
	collections map[string]bool
}

func (r *logRefs) trackerType(id string) (entity.TrackerType, error) {
	if typ, ok := r.trackers[id]; ok {
		return typ, nil
	}

	var t database.Tracker
	if err := findByUUID(r.tx, r.deviceID, id, &t); err != nil {
		if IsNotFound(err) {
			return "", invalidf("unknown tracker %s", id)
		}
		return "", err
	}

	typ := entity.TrackerType(t.Type)
	r.trackers[id] = typ

	return typ, nil
}

func (r *logRefs) checkCollection(id string) error {
	if r.collections[id] {
		return nil
	}

	var c database.Collection
	if err := findByUUID(r.tx, r.deviceID, id, &c); err != nil {
		if IsNotFound(err) {
			return invalidf("unknown collection %s", id)
		}
		return err
	}
	r.collections[id] = true

	return nil
}

func (r *logRefs) check(l entity.LogEntry) error {
	if err := l.Validate(); err != nil {
		return err
	}

	typ, err := r.trackerType(l.TrackerID)
	if err != nil {
		return errors.Wrapf(err, "log %s", l.ID)
	}
	if err := l.Value.CheckFor(typ); err != nil {
		return errors.Wrapf(err, "log %s", l.ID)
	}

	if l.CollectionID != nil {
		if err := r.checkCollection(*l.CollectionID); err != nil {
			return errors.Wrapf(err, "log %s", l.ID)
		}
	}

	return nil
}

// UpsertLogEntries stores a batch of log entries. Entries already stored are
// overwritten. Either the whole batch is stored or none of it is.
func (a *App) UpsertLogEntries(deviceID string, entries []entity.LogEntry) ([]entity.LogEntry, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return nil, err
	}
	if len(entries) > MaxLogBatch {
		return nil, invalidf("batch of %d entries exceeds the limit of %d", len(entries), MaxLogBatch)
	}
	if len(entries) == 0 {
		return []entity.LogEntry{}, nil
	}

	var stored []database.LogEntry
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		refs := logRefs{
			tx:          tx,
			deviceID:    deviceID,
			trackers:    map[string]entity.TrackerType{},
			collections: map[string]bool{},
		}

		ids := make([]string, 0, len(entries))
		for _, l := range entries {
			l.DeviceID = deviceID
			if err := refs.check(l); err != nil {
				return err
			}

			m, err := logEntryModel(deviceID, l)
			if err != nil {
				return err
			}
			if err := upsert(tx, &m, logColumns...); err != nil {
				return errors.Wrapf(err, "upserting log %s", l.ID)
			}

			ids = append(ids, l.ID)
		}

		if err := tx.Where("device_id = ? AND uuid IN ?", deviceID, ids).Find(&stored).Error; err != nil {
			return errors.Wrap(err, "reading stored log entries")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	byID := map[string]database.LogEntry{}
	for _, m := range stored {
		byID[m.UUID] = m
	}

	ret := make([]entity.LogEntry, 0, len(entries))
	seen := map[string]bool{}
	for _, l := range entries {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true

		p, err := presenters.PresentLogEntry(byID[l.ID])
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}

	return ret, nil
}

// DeleteLogEntry deletes the log entry of the device with the given id
func (a *App) DeleteLogEntry(deviceID, id string) error {
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var l database.LogEntry
		if err := findByUUID(tx, deviceID, id, &l); err != nil {
			return err
		}

		if err := tx.Delete(&l).Error; err != nil {
			return errors.Wrap(err, "deleting log entry")
		}

		return nil
	})
}

// LogFilter narrows down the log entries returned by GetLogEntries. Dates are
// inclusive and use entity.DateLayout.
type LogFilter struct {
	TrackerID string `schema:"tracker_id"`
	From      string `schema:"from"`
	To        string `schema:"to"`
}

// Validate checks the filter
func (f LogFilter) Validate() error {
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(entity.DateLayout, d); err != nil {
			return invalidf("malformed date '%s'", d)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return invalidf("from %s is after to %s", f.From, f.To)
	}

	return nil
}

// GetLogEntries returns the log entries of the device matching the filter,
// oldest first
func (a *App) GetLogEntries(deviceID string, filter LogFilter) ([]entity.LogEntry, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	conn := a.DB.Where("device_id = ?", deviceID)
	if filter.TrackerID != "" {
		conn = conn.Where("tracker_uuid = ?", filter.TrackerID)
	}
	if filter.From != "" {
		conn = conn.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		conn = conn.Where("date <= ?", filter.To)
	}

	var entries []database.LogEntry
	if err := conn.Order("date ASC, logged_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "finding log entries")
	}

	return presenters.PresentLogEntries(entries)
}
