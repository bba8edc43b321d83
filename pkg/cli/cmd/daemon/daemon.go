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

// Package daemon implements the daemon command, which keeps the device in
// sync in the background
package daemon

import (
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new daemon command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Watch connectivity and send pending writes until interrupted",
		Args:  cobra.NoArgs,
		RunE:  newRun(ctx),
	}
}

func newRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if !ctx.Online() {
			return errors.New("no server is configured, set apiEndpoint in the config file")
		}

		c := cmd.Context()
		connectivity, cancelConn := ctx.Monitor.Subscribe()
		defer cancelConn()
		changes, cancelView := ctx.View.Subscribe()
		defer cancelView()

		ctx.Monitor.Start(c)

		errCh := make(chan error, 1)
		go func() {
			errCh <- ctx.Engine.Run(c)
		}()

		log.Infof("syncing with %s, press Ctrl+C to stop\n", ctx.Config.APIEndpoint)

		for {
			select {
			case <-c.Done():
				<-ctx.Monitor.Done()
				return <-errCh
			case err := <-errCh:
				return errors.Wrap(err, "running the sync engine")
			case connected := <-connectivity:
				if connected {
					log.Successf("server reachable\n")
				} else {
					log.Warnf("server unreachable, writes will be queued\n")
				}
			case kind := <-changes:
				log.Debug("%s changed\n", kind)
			}
		}
	}
}
