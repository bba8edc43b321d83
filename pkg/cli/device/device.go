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

// Package device provides the stable identifier of this device. The
// identifier partitions the server's data and is never rotated.
package device

import (
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// Get returns the device id, generating and persisting it on first use
func Get(db *database.DB) (string, error) {
	id, err := database.GetSystem(db, database.SystemDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, database.ErrSystemNotFound) {
		return "", errors.Wrap(err, "reading device id")
	}

	candidate, err := entity.GenID()
	if err != nil {
		return "", err
	}

	if _, err := database.InsertSystem(db, database.SystemDeviceID, candidate); err != nil {
		return "", errors.Wrap(err, "persisting device id")
	}

	// Another process may have won the race to write it.
	id, err = database.GetSystem(db, database.SystemDeviceID)
	if err != nil {
		return "", errors.Wrap(err, "reading device id back")
	}

	return id, nil
}
