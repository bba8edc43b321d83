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


// Package app implements the operations of the habitlog server on behalf of devices
package app

import (
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrEmptyDB is an error for missing database connection in the app configuration
	ErrEmptyDB = errors.New("No database connection was provided")
	// ErrNotFound is returned when a device has no record with the given id
	ErrNotFound = errors.New("not found")
	// ErrEmptyDeviceID is returned when an operation is not scoped to a device
	ErrEmptyDeviceID = errors.New("device id is empty")
)

// App is an application context
type App struct {
	DB *gorm.DB
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}

	return nil
}

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(entity.ErrInvalid, format, args...)
}

// IsInvalid reports whether the error was caused by a rejected input
func IsInvalid(err error) bool {
	return errors.Is(err, entity.ErrInvalid) || errors.Is(err, ErrEmptyDeviceID)
}

// IsNotFound reports whether the error was caused by an unknown id
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func checkDeviceID(deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	return nil
}

// findByUUID loads the record of the device with the given id into dest
func findByUUID(db *gorm.DB, deviceID, id string, dest interface{}) error {
	err := db.Where("device_id = ? AND uuid = ?", deviceID, id).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(ErrNotFound, "%s", id)
	}
	if err != nil {
		return errors.Wrapf(err, "finding %s", id)
	}

	return nil
}

// upsert inserts the record or overwrites the given columns of the record
// of the same device with the same id
func upsert(db *gorm.DB, value interface{}, columns ...string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "uuid"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(value).Error
}
