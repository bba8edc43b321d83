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

var collectionColumns = []string{"name", "tracker_ids", "pinned"}

func collectionModel(deviceID string, c entity.Collection) database.Collection {
	return database.Collection{
		DeviceID:   deviceID,
		UUID:       c.ID,
		Name:       c.Name,
		TrackerIDs: database.StringList(c.TrackerIDs),
		Pinned:     c.Pinned,
	}
}

// checkTrackersExist fails unless the device has every given tracker
func checkTrackersExist(tx *gorm.DB, deviceID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&database.Tracker{}).Where("device_id = ? AND uuid IN ?", deviceID, ids).Count(&count).Error; err != nil {
		return errors.Wrap(err, "counting trackers")
	}
	if int(count) != len(ids) {
		return invalidf("%d of %d trackers are unknown", len(ids)-int(count), len(ids))
	}

	return nil
}

// UpsertCollection creates the collection, or overwrites the collection of
// the device with the same id. Every member tracker must exist.
func (a *App) UpsertCollection(deviceID string, c entity.Collection) (entity.Collection, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return entity.Collection{}, err
	}

	c.DeviceID = deviceID
	if err := c.Validate(); err != nil {
		return entity.Collection{}, err
	}

	var ret database.Collection
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := checkTrackersExist(tx, deviceID, c.TrackerIDs); err != nil {
			return errors.Wrapf(err, "collection %s", c.ID)
		}

		m := collectionModel(deviceID, c)
		if err := upsert(tx, &m, collectionColumns...); err != nil {
			return errors.Wrap(err, "upserting collection")
		}

		return findByUUID(tx, deviceID, c.ID, &ret)
	})
	if err != nil {
		return entity.Collection{}, err
	}

	return presenters.PresentCollection(ret), nil
}

// UpdateCollection applies the patch to the collection of the device with the given id
func (a *App) UpdateCollection(deviceID, id string, patch entity.CollectionPatch) (entity.Collection, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return entity.Collection{}, err
	}

	var ret database.Collection
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var current database.Collection
		if err := findByUUID(tx, deviceID, id, &current); err != nil {
			return err
		}

		updated := patch.Apply(presenters.PresentCollection(current))
		if err := updated.Validate(); err != nil {
			return err
		}
		if patch.TrackerIDs != nil {
			if err := checkTrackersExist(tx, deviceID, updated.TrackerIDs); err != nil {
				return errors.Wrapf(err, "collection %s", id)
			}
		}

		ret = collectionModel(deviceID, updated)
		ret.Model = current.Model
		if err := tx.Save(&ret).Error; err != nil {
			return errors.Wrap(err, "saving collection")
		}

		return nil
	})
	if err != nil {
		return entity.Collection{}, err
	}

	return presenters.PresentCollection(ret), nil
}

// DeleteCollection deletes the collection. Its log entries are kept and
// detached from it.
func (a *App) DeleteCollection(deviceID, id string) error {
	if err := checkDeviceID(deviceID); err != nil {
		return err
	}

	return a.DB.Transaction(func(tx *gorm.DB) error {
		var c database.Collection
		if err := findByUUID(tx, deviceID, id, &c); err != nil {
			return err
		}

		if err := tx.Model(&database.LogEntry{}).
			Where("device_id = ? AND collection_uuid = ?", deviceID, id).
			Update("collection_uuid", nil).Error; err != nil {
			return errors.Wrap(err, "detaching log entries")
		}

		if err := tx.Delete(&c).Error; err != nil {
			return errors.Wrap(err, "deleting collection")
		}

		return nil
	})
}

// GetCollections returns the collections of the device
func (a *App) GetCollections(deviceID string) ([]entity.Collection, error) {
	if err := checkDeviceID(deviceID); err != nil {
		return nil, err
	}

	var collections []database.Collection
	if err := a.DB.Where("device_id = ?", deviceID).Order("id ASC").Find(&collections).Error; err != nil {
		return nil, errors.Wrap(err, "finding collections")
	}

	return presenters.PresentCollections(collections), nil
}
