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
)

// NewHealth creates a new Health controller.
func NewHealth() *Health {
	return &Health{}
}

// Health is a health controller.
type Health struct {
}

// HealthResp is the response of the health check
type HealthResp struct {
	Status string `json:"status"`
}

// Index handles GET /health
func (h *Health) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResp{Status: "ok"})
}
