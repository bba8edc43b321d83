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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/habitlog/habitlog/pkg/server/app"
	"github.com/habitlog/habitlog/pkg/server/log"
	mw "github.com/habitlog/habitlog/pkg/server/middleware"
	"github.com/pkg/errors"
)

// maxBodyBytes is the largest request body accepted
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// decodeJSON decodes the request body into v. It responds with 400 and
// returns false if the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		mw.RespondError(w, http.StatusBadRequest, errors.Wrap(err, "decoding payload").Error())
		return false
	}

	return true
}

// handleHTTPError responds with the status matching the error returned by
// the app
func handleHTTPError(w http.ResponseWriter, err error, msg string) {
	switch {
	case app.IsNotFound(err):
		mw.RespondError(w, http.StatusNotFound, err.Error())
	case app.IsInvalid(err):
		mw.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.ErrorWrap(err, msg)
		mw.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func deviceID(r *http.Request) string {
	return mux.Vars(r)["deviceID"]
}

func idParam(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// DeletedResp is the response of the delete endpoints
type DeletedResp struct {
	ID string `json:"id"`
}
