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

// Package context defines the habitlog runtime context shared by the commands
package context

import (
	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/config"
	"github.com/habitlog/habitlog/pkg/cli/connectivity"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/cli/syncer"
	"github.com/habitlog/habitlog/pkg/cli/view"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/dirs"
	"github.com/spf13/afero"
)

// HabitlogCtx is a context holding the information of the current runtime
type HabitlogCtx struct {
	Paths    dirs.App
	Fs       afero.Fs
	Version  string
	Config   config.Config
	DB       *database.DB
	Clock    clock.Clock
	DeviceID string

	// Client is nil when no API endpoint is configured
	Client  *client.Client
	Monitor *connectivity.Monitor
	Queue   *queue.Queue
	Cache   *cache.Store
	View    *view.View
	Engine  *syncer.Engine
}

// Online reports whether a server is configured
func (ctx HabitlogCtx) Online() bool {
	return ctx.Client != nil
}
