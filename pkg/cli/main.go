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

package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	// commands
	"github.com/habitlog/habitlog/pkg/cli/cmd/collection"
	"github.com/habitlog/habitlog/pkg/cli/cmd/daemon"
	"github.com/habitlog/habitlog/pkg/cli/cmd/entry"
	"github.com/habitlog/habitlog/pkg/cli/cmd/root"
	"github.com/habitlog/habitlog/pkg/cli/cmd/status"
	"github.com/habitlog/habitlog/pkg/cli/cmd/sync"
	"github.com/habitlog/habitlog/pkg/cli/cmd/tracker"
	"github.com/habitlog/habitlog/pkg/cli/cmd/version"
)

// apiEndpoint and versionTag are populated during link time
var apiEndpoint string
var versionTag = "master"

// parseDBPath extracts --dbPath flag value from command line arguments
// regardless of where it appears (before or after subcommand).
// Returns empty string if not found.
func parseDBPath(args []string) string {
	for i, arg := range args {
		if strings.HasPrefix(arg, "--dbPath=") {
			return strings.TrimPrefix(arg, "--dbPath=")
		}
		if arg == "--dbPath" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	// The database is opened before cobra parses flags, so --dbPath is read by hand
	dbPath := parseDBPath(os.Args[1:])

	ctx, err := infra.Init(versionTag, apiEndpoint, dbPath)
	if err != nil {
		panic(errors.Wrap(err, "initializing context"))
	}

	root.Register(tracker.NewCmd(*ctx))
	root.Register(collection.NewCmd(*ctx))
	root.Register(entry.NewCmd(*ctx))
	root.Register(sync.NewCmd(*ctx))
	root.Register(status.NewCmd(*ctx))
	root.Register(daemon.NewCmd(*ctx))
	root.Register(version.NewCmd(*ctx))

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = root.Execute(sigCtx)
	stop()
	ctx.DB.Close()

	if err != nil {
		log.Errorf("%s\n", err.Error())
		os.Exit(1)
	}
}
