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

	"github.com/gorilla/schema"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/habitlog/habitlog/pkg/server/app"
	mw "github.com/habitlog/habitlog/pkg/server/middleware"
	"github.com/pkg/errors"
)

// NewLogs creates a new Logs controller.
func NewLogs(app *app.App) *Logs {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Logs{
		app:     app,
		decoder: decoder,
	}
}

// Logs is a log entries controller.
type Logs struct {
	app     *app.App
	decoder *schema.Decoder
}

// LogEntriesPayload is the payload of the batch endpoint
type LogEntriesPayload struct {
	Entries []entity.LogEntry `json:"entries"`
}

// LogsResp is the response carrying log entries
type LogsResp struct {
	Logs []entity.LogEntry `json:"logs"`
}

// Index handles GET /logs. The tracker_id, from and to query parameters
// narrow down the result.
func (l *Logs) Index(w http.ResponseWriter, r *http.Request) {
	var filter app.LogFilter
	if err := l.decoder.Decode(&filter, r.URL.Query()); err != nil {
		mw.RespondError(w, http.StatusBadRequest, errors.Wrap(err, "decoding query").Error())
		return
	}

	entries, err := l.app.GetLogEntries(deviceID(r), filter)
	if err != nil {
		handleHTTPError(w, err, "getting log entries")
		return
	}

	respondJSON(w, http.StatusOK, LogsResp{Logs: entries})
}

// Create handles POST /logs
func (l *Logs) Create(w http.ResponseWriter, r *http.Request) {
	var params LogEntriesPayload
	if !decodeJSON(w, r, &params) {
		return
	}

	entries, err := l.app.UpsertLogEntries(deviceID(r), params.Entries)
	if err != nil {
		handleHTTPError(w, err, "upserting log entries")
		return
	}

	respondJSON(w, http.StatusOK, LogsResp{Logs: entries})
}

// Delete handles DELETE /logs/{id}
func (l *Logs) Delete(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)

	if err := l.app.DeleteLogEntry(deviceID(r), id); err != nil {
		handleHTTPError(w, err, "deleting log entry")
		return
	}

	respondJSON(w, http.StatusOK, DeletedResp{ID: id})
}
