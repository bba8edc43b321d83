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


package database

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"-" gorm:"autoUpdateTime"`
}

// StringList is a list of strings stored as a JSON array in a text column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}

	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, errors.Wrap(err, "encoding string list")
	}

	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into a string list", src)
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "decoding string list")
	}
	*l = items

	return nil
}

// GormDataType stores the list as text
func (StringList) GormDataType() string {
	return "text"
}

// Tracker is a model for a tracker. UUID is the id minted by the device.
type Tracker struct {
	Model
	DeviceID    string     `gorm:"uniqueIndex:idx_trackers_device_uuid;type:text;not null"`
	UUID        string     `gorm:"uniqueIndex:idx_trackers_device_uuid;type:text;not null"`
	Text        string     `gorm:"not null"`
	Type        string     `gorm:"type:text;not null"`
	DefaultTime *string    `gorm:"type:text"`
	Options     StringList `gorm:"type:text"`
	Pinned      bool
	Position    int
}

// Collection is a model for a collection of trackers
type Collection struct {
	Model
	DeviceID   string     `gorm:"uniqueIndex:idx_collections_device_uuid;type:text;not null"`
	UUID       string     `gorm:"uniqueIndex:idx_collections_device_uuid;type:text;not null"`
	Name       string     `gorm:"not null"`
	TrackerIDs StringList `gorm:"type:text"`
	Pinned     bool
}

// LogEntry is a model for a log entry. Value holds the JSON encoded value.
type LogEntry struct {
	Model
	DeviceID       string  `gorm:"uniqueIndex:idx_log_entries_device_uuid;type:text;not null"`
	UUID           string  `gorm:"uniqueIndex:idx_log_entries_device_uuid;type:text;not null"`
	TrackerUUID    string  `gorm:"index;type:text;not null"`
	CollectionUUID *string `gorm:"index;type:text"`
	LoggedAt       int64   `gorm:"not null"`
	Value          string  `gorm:"type:text;not null"`
	TimeKind       string  `gorm:"type:text;not null"`
	GeneralTime    *string `gorm:"type:text"`
	ExactTime      *string `gorm:"type:text"`
	Date           string  `gorm:"type:text;not null"`
	Category       *string `gorm:"type:text"`
}
