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
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// SystemDeviceID is the key under which the device id is stored
	SystemDeviceID = "device_id"
	// SystemLastSyncAt is the key of the unix time of the last successful sync
	SystemLastSyncAt = "last_sync_at"
)

// ErrSystemNotFound is returned when a system key is not set
var ErrSystemNotFound = errors.New("system key not found")

// GetSystem reads the value of a system key
func GetSystem(db *DB, key string) (string, error) {
	var ret string
	err := db.QueryRow("SELECT value FROM system WHERE key = ?", key).Scan(&ret)
	if err == sql.ErrNoRows {
		return "", ErrSystemNotFound
	} else if err != nil {
		return "", errors.Wrapf(err, "reading system key %s", key)
	}

	return ret, nil
}

// UpsertSystem sets the value of a system key
func UpsertSystem(db *DB, key, value string) error {
	_, err := db.Exec(`INSERT INTO system (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.Wrapf(err, "writing system key %s", key)
	}

	return nil
}

// InsertSystem sets the value of a system key unless it is already set. It
// reports whether the value was written.
func InsertSystem(db *DB, key, value string) (bool, error) {
	res, err := db.Exec("INSERT INTO system (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING", key, value)
	if err != nil {
		return false, errors.Wrapf(err, "inserting system key %s", key)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "counting affected rows")
	}

	return n == 1, nil
}

// GetSystemInt reads an integer system key, returning 0 when it is not set
func GetSystemInt(db *DB, key string) (int64, error) {
	v, err := GetSystem(db, key)
	if errors.Is(err, ErrSystemNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing system key %s", key)
	}

	return n, nil
}
