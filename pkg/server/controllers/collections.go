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

// NewCollections creates a new Collections controller.
func NewCollections(app *app.App) *Collections {
	return &Collections{
		app: app,
	}
}

// Collections is a collections controller.
type Collections struct {
	app *app.App
}

// CollectionResp is the response carrying a single collection
type CollectionResp struct {
	Collection entity.Collection `json:"collection"`
}

// CollectionsResp is the response carrying all collections
type CollectionsResp struct {
	Collections []entity.Collection `json:"collections"`
}

// Index handles GET /collections
func (c *Collections) Index(w http.ResponseWriter, r *http.Request) {
	collections, err := c.app.GetCollections(deviceID(r))
	if err != nil {
		handleHTTPError(w, err, "getting collections")
		return
	}

	respondJSON(w, http.StatusOK, CollectionsResp{Collections: collections})
}

// Create handles POST /collections
func (c *Collections) Create(w http.ResponseWriter, r *http.Request) {
	var params entity.Collection
	if !decodeJSON(w, r, &params) {
		return
	}

	collection, err := c.app.UpsertCollection(deviceID(r), params)
	if err != nil {
		handleHTTPError(w, err, "upserting collection")
		return
	}

	respondJSON(w, http.StatusOK, CollectionResp{Collection: collection})
}

// Update handles PATCH /collections/{id}
func (c *Collections) Update(w http.ResponseWriter, r *http.Request) {
	var patch entity.CollectionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	collection, err := c.app.UpdateCollection(deviceID(r), idParam(r), patch)
	if err != nil {
		handleHTTPError(w, err, "updating collection")
		return
	}

	respondJSON(w, http.StatusOK, CollectionResp{Collection: collection})
}

// Delete handles DELETE /collections/{id}
func (c *Collections) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)

	if err := c.app.DeleteCollection(deviceID(r), id); err != nil {
		handleHTTPError(w, err, "deleting collection")
		return
	}

	respondJSON(w, http.StatusOK, DeletedResp{ID: id})
}
