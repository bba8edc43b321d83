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
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/database"
	"github.com/habitlog/habitlog/pkg/server/presenters"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var trackerColumns = []string{"text", "type", "default_time", "options", "pinned", "position"}

func trackerModel(deviceID string, t entity.Tracker) database.Tracker {
	var defaultTime *string
	if t.DefaultTime != nil {
		s := string(*t.DefaultTime)
		defaultTime = &s
	}

	return database.Tracker{
		DeviceID:    deviceID,
		UUID:        t.ID,
		Text:        t.Text,
		Type:        string(t.Type),
		DefaultTime: defaultTime,
		Options:     database.StringList(t.Options),
		Pinned:      t.Pinned,
		Position:    t.Position,
	}
}

// UpsertTracker creates the tracker, or overwrites the tracker of the device
// with the same id. Sending the same tracker twice has no further effect.
func (a *App) UpsertTracker(deviceID string, t entity.Tracker) (entity.Tracker, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return entity.Tracker{}, err
	}

	t.DeviceID = deviceID
	if err := t.Validate(); err != nil {
		return entity.Tracker{}, err
	}

	var ret database.Tracker
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		m := trackerModel(deviceID, t)
		if err := upsert(tx, &m, trackerColumns...); err != nil {
			return errors.Wrap(err, "upserting tracker")
		}

		return findByUUID(tx, deviceID, t.ID, &ret)
	})
	if err != nil {
		return entity.Tracker{}, err
	}

	return presenters.PresentTracker(ret), nil
}

// UpdateTracker applies the patch to the tracker of the device with the given id
func (a *App) UpdateTracker(deviceID, id string, patch entity.TrackerPatch) (entity.Tracker, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return entity.Tracker{}, err
	}

	var ret database.Tracker
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var current database.Tracker
		if err := findByUUID(tx, deviceID, id, &current); err != nil {
			return err
		}

		updated := patch.Apply(presenters.PresentTracker(current))
		if err := updated.Validate(); err != nil {
			return err
		}

		ret = trackerModel(deviceID, updated)
		ret.Model = current.Model
		if err := tx.Save(&ret).Error; err != nil {
			return errors.Wrap(err, "saving tracker")
		}

		return nil
	})
	if err != nil {
		return entity.Tracker{}, err
	}

	return presenters.PresentTracker(ret), nil
}

// DeleteTracker deletes the tracker along with its log entries, and removes
// it from the collections listing it
func (a *App) DeleteTracker(deviceID, id string) error {
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var t database.Tracker
		if err := findByUUID(tx, deviceID, id, &t); err != nil {
			return err
		}

		if err := tx.Where("device_id = ? AND tracker_uuid = ?", deviceID, id).Delete(&database.LogEntry{}).Error; err != nil {
			return errors.Wrap(err, "deleting log entries")
		}

		var collections []database.Collection
		if err := tx.Where("device_id = ?", deviceID).Find(&collections).Error; err != nil {
			return errors.Wrap(err, "finding collections")
		}
		for _, c := range collections {
			kept := database.StringList{}
			for _, tid := range c.TrackerIDs {
				if tid != id {
					kept = append(kept, tid)
				}
			}
			if len(kept) == len(c.TrackerIDs) {
				continue
			}

			if err := tx.Model(&c).Update("tracker_ids", kept).Error; err != nil {
				return errors.Wrapf(err, "detaching tracker from collection %s", c.UUID)
			}
		}

		if err := tx.Delete(&t).Error; err != nil {
			return errors.Wrap(err, "deleting tracker")
		}

		return nil
	})
}

// GetTrackers returns the trackers of the device ordered by position
func (a *App) GetTrackers(deviceID string) ([]entity.Tracker, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return nil, err
	}

	var trackers []database.Tracker
	if err := a.DB.Where("device_id = ?", deviceID).Order("position ASC, id ASC").Find(&trackers).Error; err != nil {
		return nil, errors.Wrap(err, "finding trackers")
	}

	return presenters.PresentTrackers(trackers), nil
}
