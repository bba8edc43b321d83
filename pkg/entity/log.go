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

package entity

import (
	"time"
)

// TimeKind tells whether a log entry carries a general or an exact time of day
type TimeKind string

const (
	// TimeGeneral means the entry carries a GeneralTime
	TimeGeneral TimeKind = "general"
	// TimeExact means the entry carries an HH:MM time
	TimeExact TimeKind = "exact"
)

// GeneralTime is a coarse time of day
type GeneralTime string

const (
	// Morning is the morning
	Morning GeneralTime = "morning"
	// Afternoon is the afternoon
	Afternoon GeneralTime = "afternoon"
	// Evening is the evening
	Evening GeneralTime = "evening"
	// Night is the night
	Night GeneralTime = "night"
)

// Valid checks if the general time is known
func (g GeneralTime) Valid() bool {
	switch g {
	case Morning, Afternoon, Evening, Night:
		return true
	}

	return false
}

// GeneralTimeAt returns the general time of day for the given clock time
func GeneralTimeAt(t time.Time) GeneralTime {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 22:
		return Evening
	}

	return Night
}

const (
	// DateLayout is the layout of LogEntry.Date
	DateLayout = "2006-01-02"
	// ExactTimeLayout is the layout of LogEntry.ExactTime
	ExactTimeLayout = "15:04"
)

// LogEntry is a value recorded against a tracker
type LogEntry struct {
	ID           string       `json:"id"`
	DeviceID     string       `json:"device_id"`
	TrackerID    string       `json:"tracker_id"`
	CreatedAt    int64        `json:"created_at"`
	Value        LogValue     `json:"value"`
	TimeKind     TimeKind     `json:"time_kind"`
	GeneralTime  *GeneralTime `json:"general_time,omitempty"`
	ExactTime    *string      `json:"exact_time,omitempty"`
	Date         string       `json:"date"`
	CollectionID *string      `json:"collection_id,omitempty"`
	Category     *string      `json:"category,omitempty"`

	PendingSync bool `json:"-"`
}

// EntityID returns the id of the log entry
func (l LogEntry) EntityID() string {
	return l.ID
}

// EntityKind returns KindLog
func (l LogEntry) EntityKind() Kind {
	return KindLog
}

// Validate checks the shape of the entry. Whether the value fits the tracker
// is checked separately with LogValue.CheckFor once the tracker is known.
func (l LogEntry) Validate() error {
	if !ValidateID(l.ID) {
		return invalidf("log id '%s' is malformed", l.ID)
	}
	if !ValidateID(l.TrackerID) {
		return invalidf("log %s references malformed tracker id '%s'", l.ID, l.TrackerID)
	}
	if l.CollectionID != nil && !ValidateID(*l.CollectionID) {
		return invalidf("log %s references malformed collection id '%s'", l.ID, *l.CollectionID)
	}
	if l.CreatedAt <= 0 {
		return invalidf("log %s has no creation time", l.ID)
	}
	if l.Value.Kind() == ValueNone {
		return invalidf("log %s has no value", l.ID)
	}
	if _, err := time.Parse(DateLayout, l.Date); err != nil {
		return invalidf("log %s has malformed date '%s'", l.ID, l.Date)
	}

	switch l.TimeKind {
	case TimeGeneral:
		if l.GeneralTime == nil || !l.GeneralTime.Valid() {
			return invalidf("log %s needs a general time", l.ID)
		}
		if l.ExactTime != nil {
			return invalidf("log %s carries both a general and an exact time", l.ID)
		}
	case TimeExact:
		if l.ExactTime == nil {
			return invalidf("log %s needs an exact time", l.ID)
		}
		if _, err := time.Parse(ExactTimeLayout, *l.ExactTime); err != nil {
			return invalidf("log %s has malformed exact time '%s'", l.ID, *l.ExactTime)
		}
		if l.GeneralTime != nil {
			return invalidf("log %s carries both a general and an exact time", l.ID)
		}
	default:
		return invalidf("log %s has unknown time kind '%s'", l.ID, l.TimeKind)
	}

	return nil
}

// CreatedTime returns the creation time of the entry
func (l LogEntry) CreatedTime() time.Time {
	return time.UnixMilli(l.CreatedAt).UTC()
}
