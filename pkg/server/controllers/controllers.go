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


// Package controllers implements the HTTP API of the habitlog server
package controllers

import (
	"github.com/habitlog/habitlog/pkg/server/app"
)

// Controllers is a group of controllers
type Controllers struct {
	Trackers    *Trackers
	Collections *Collections
	Logs        *Logs
	Health      *Health
}

// New returns a new group of controllers
func New(app *app.App) *Controllers {
	c := Controllers{}

	c.Trackers = NewTrackers(app)
	c.Collections = NewCollections(app)
	c.Logs = NewLogs(app)
	c.Health = NewHealth()

	return &c
}
