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
	"strings"
)

// Collection groups trackers, e.g. into a survey answered together
type Collection struct {
	ID         string   `json:"id"`
	DeviceID   string   `json:"device_id"`
	Name       string   `json:"name"`
	TrackerIDs []string `json:"tracker_ids"`
	Pinned     bool     `json:"pinned"`

	PendingSync bool `json:"-"`
}

// EntityID returns the id of the collection
func (c Collection) EntityID() string {
	return c.ID
}

// EntityKind returns KindCollection
func (c Collection) EntityKind() Kind {
	return KindCollection
}

// Validate checks the collection
func (c Collection) Validate() error {
	if !ValidateID(c.ID) {
		return invalidf("collection id '%s' is malformed", c.ID)
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalidf("collection %s has empty name", c.ID)
	}

	seen := map[string]bool{}
	for _, id := range c.TrackerIDs {
		if !ValidateID(id) {
			return invalidf("collection %s references malformed tracker id '%s'", c.ID, id)
		}
		if seen[id] {
			return invalidf("collection %s lists tracker %s twice", c.ID, id)
		}
		seen[id] = true
	}

	return nil
}

// CollectionPatch holds the editable fields of a collection
type CollectionPatch struct {
	Name       *string   `json:"name,omitempty"`
	TrackerIDs *[]string `json:"tracker_ids,omitempty"`
	Pinned     *bool     `json:"pinned,omitempty"`
}

// Apply returns the collection with the patch applied
func (p CollectionPatch) Apply(c Collection) Collection {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.TrackerIDs != nil {
		c.TrackerIDs = append([]string(nil), (*p.TrackerIDs)...)
	}
	if p.Pinned != nil {
		c.Pinned = *p.Pinned
	}

	return c
}

// IsEmpty checks if the patch changes nothing
func (p CollectionPatch) IsEmpty() bool {
	return p.Name == nil && p.TrackerIDs == nil && p.Pinned == nil
}
