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

// TrackerType determines the shape of the values logged against a tracker
type TrackerType string

const (
	// TrackerNumber is a tracker taking arbitrary numbers
	TrackerNumber TrackerType = "number"
	// TrackerScale is a tracker taking whole numbers between ScaleMin and ScaleMax
	TrackerScale TrackerType = "scale"
	// TrackerBoolean is a yes/no tracker
	TrackerBoolean TrackerType = "boolean"
	// TrackerTextList is a tracker taking a list of strings, usually picked from its options
	TrackerTextList TrackerType = "text-list"
)

const (
	// ScaleMin is the lowest value of a scale tracker
	ScaleMin = 1
	// ScaleMax is the highest value of a scale tracker
	ScaleMax = 10
)

// Valid checks if the tracker type is known
func (t TrackerType) Valid() bool {
	switch t {
	case TrackerNumber, TrackerScale, TrackerBoolean, TrackerTextList:
		return true
	}

	return false
}

// Tracker is a user defined habit
type Tracker struct {
	ID          string       `json:"id"`
	DeviceID    string       `json:"device_id"`
	Text        string       `json:"text"`
	Type        TrackerType  `json:"type"`
	DefaultTime *GeneralTime `json:"default_time,omitempty"`
	Options     []string     `json:"options,omitempty"`
	Pinned      bool         `json:"pinned"`
	Position    int          `json:"position"`

	PendingSync bool `json:"-"`
}

// EntityID returns the id of the tracker
func (t Tracker) EntityID() string {
	return t.ID
}

// EntityKind returns KindTracker
func (t Tracker) EntityKind() Kind {
	return KindTracker
}

// Validate checks the tracker
func (t Tracker) Validate() error {
	if !ValidateID(t.ID) {
		return invalidf("tracker id '%s' is malformed", t.ID)
	}
	if strings.TrimSpace(t.Text) == "" {
		return invalidf("tracker %s has empty text", t.ID)
	}
	if !t.Type.Valid() {
		return invalidf("tracker %s has unknown type '%s'", t.ID, t.Type)
	}
	if t.DefaultTime != nil && !t.DefaultTime.Valid() {
		return invalidf("tracker %s has unknown default time '%s'", t.ID, *t.DefaultTime)
	}
	if len(t.Options) > 0 && t.Type != TrackerTextList {
		return invalidf("tracker %s of type %s cannot have options", t.ID, t.Type)
	}

	return nil
}

// TrackerPatch holds the fields of a tracker that can be edited. Nil fields are left untouched.
type TrackerPatch struct {
	Text        *string      `json:"text,omitempty"`
	DefaultTime *GeneralTime `json:"default_time,omitempty"`
	Options     *[]string    `json:"options,omitempty"`
	Pinned      *bool        `json:"pinned,omitempty"`
	Position    *int         `json:"position,omitempty"`
}

// Apply returns the tracker with the patch applied
func (p TrackerPatch) Apply(t Tracker) Tracker {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.DefaultTime != nil {
		dt := *p.DefaultTime
		t.DefaultTime = &dt
	}
	if p.Options != nil {
		t.Options = append([]string(nil), (*p.Options)...)
	}
	if p.Pinned != nil {
		t.Pinned = *p.Pinned
	}
	if p.Position != nil {
		t.Position = *p.Position
	}

	return t
}

// IsEmpty checks if the patch changes nothing
func (p TrackerPatch) IsEmpty() bool {
	return p.Text == nil && p.DefaultTime == nil && p.Options == nil && p.Pinned == nil && p.Position == nil
}
