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
	"testing"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func TestGetDBLogLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected logger.LogLevel
	}{
		{log.LevelDebug, logger.Info},
		{log.LevelInfo, logger.Silent},
		{log.LevelWarn, logger.Warn},
		{log.LevelError, logger.Error},
		{"unknown", logger.Silent},
		{"", logger.Silent},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, getDBLogLevel(tc.level), tc.expected, "log level mismatch")
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x", "")
	assert.NotEqual(t, err, nil, "error mismatch")
}

func TestStringList(t *testing.T) {
	db := openMemoryDB(t)
	if err := InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}

	c := Collection{DeviceID: "d1", UUID: "c1", Name: "Morning", TrackerIDs: StringList{"t1", "t2"}}
	if err := db.Create(&c).Error; err != nil {
		t.Fatal(errors.Wrap(err, "creating collection"))
	}
	empty := Tracker{DeviceID: "d1", UUID: "t1", Text: "Water", Type: "number"}
	if err := db.Create(&empty).Error; err != nil {
		t.Fatal(errors.Wrap(err, "creating tracker"))
	}

	var gotCollection Collection
	if err := db.Where("uuid = ?", "c1").First(&gotCollection).Error; err != nil {
		t.Fatal(errors.Wrap(err, "reading collection"))
	}
	assert.DeepEqual(t, gotCollection.TrackerIDs, StringList{"t1", "t2"}, "TrackerIDs mismatch")

	var gotTracker Tracker
	if err := db.Where("uuid = ?", "t1").First(&gotTracker).Error; err != nil {
		t.Fatal(errors.Wrap(err, "reading tracker"))
	}
	assert.Equal(t, len(gotTracker.Options), 0, "Options mismatch")
}

func TestUniqueIDPerDevice(t *testing.T) {
	db := openMemoryDB(t)
	if err := InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}

	upsert := func(deviceID, text string) {
		t1 := Tracker{DeviceID: deviceID, UUID: "t1", Text: text, Type: "number"}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "uuid"}},
			DoUpdates: clause.AssignmentColumns([]string{"text"}),
		}).Create(&t1).Error; err != nil {
			t.Fatal(errors.Wrap(err, "upserting tracker"))
		}
	}

	upsert("d1", "Water")
	upsert("d1", "Coffee")
	upsert("d2", "Tea")

	assert.Equal(t, countRows(t, db, "trackers"), int64(2), "tracker count mismatch")

	var got Tracker
	if err := db.Where("device_id = ? AND uuid = ?", "d1", "t1").First(&got).Error; err != nil {
		t.Fatal(errors.Wrap(err, "reading tracker"))
	}
	assert.Equal(t, got.Text, "Coffee", "Text mismatch")
}
