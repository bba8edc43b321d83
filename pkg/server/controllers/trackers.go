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


package controllers

import (
	"net/http"

	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/app"
)

// NewTrackers creates a new Trackers controller.
func NewTrackers(app *app.App) *Trackers {
	return &Trackers{
		app: app,
	}
}

// Trackers is a trackers controller.
type Trackers struct {
	app *app.App
}

// TrackerResp is the response carrying a single tracker
type TrackerResp struct {
	Tracker entity.Tracker `json:"tracker"`
}

// TrackersResp is the response carrying all trackers
type TrackersResp struct {
	Trackers []entity.Tracker `json:"trackers"`
}

// Index handles GET /trackers
func (t *Trackers) Index(w http.ResponseWriter, r *http.Request) {
	trackers, err := t.app.GetTrackers(deviceID(r))
	if err != nil {
		handleHTTPError(w, err, "getting trackers")
		return
	}

	respondJSON(w, http.StatusOK, TrackersResp{Trackers: trackers})
}

// Create handles POST /trackers
func (t *Trackers) Create(w http.ResponseWriter, r *http.Request) {
	var params entity.Tracker
	if !decodeJSON(w, r, &params) {
		return
	}

	tracker, err := t.app.UpsertTracker(deviceID(r), params)
	if err != nil {
		handleHTTPError(w, err, "upserting tracker")
		return
	}

	respondJSON(w, http.StatusOK, TrackerResp{Tracker: tracker})
}

// Update handles PATCH /trackers/{id}
func (t *Trackers) Update(w http.ResponseWriter, r *http.Request) {
	var patch entity.TrackerPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	tracker, err := t.app.UpdateTracker(deviceID(r), idParam(r), patch)
	if err != nil {
		handleHTTPError(w, err, "updating tracker")
		return
	}

	respondJSON(w, http.StatusOK, TrackerResp{Tracker: tracker})
}

// Delete handles DELETE /trackers/{id}
func (t *Trackers) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)

	if err := t.app.DeleteTracker(deviceID(r), id); err != nil {
		handleHTTPError(w, err, "deleting tracker")
		return
	}

	respondJSON(w, http.StatusOK, DeletedResp{ID: id})
}
