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

// Package status implements the status command
package status

import (
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCmd returns a new status command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, pending writes and the last sync time",
		Args:  cobra.NoArgs,
		RunE:  newRun(ctx),
	}
}

func newRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		infra.Probe(cmd.Context(), ctx)

		s, err := ctx.Engine.Status()
		if err != nil {
			return errors.Wrap(err, "getting the status")
		}

		output.Status(ctx.DeviceID, ctx.Online(), s)

		return nil
	}
}
