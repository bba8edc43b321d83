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

package tracker

import (
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/output"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var typeFlag string
var defaultTimeFlag string
var optionsFlag []string

func newAddCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <text>",
		Aliases: []string{"a", "new"},
		Short:   "Create a tracker",
		Args:    cobra.ExactArgs(1),
		RunE:    newAddRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&typeFlag, "type", "t", string(entity.TrackerNumber), "number, scale, boolean or text-list")
	f.StringVar(&defaultTimeFlag, "default-time", "", "morning, afternoon, evening or night")
	f.StringSliceVar(&optionsFlag, "option", nil, "an option of a text-list tracker (repeatable)")

	return cmd
}

// Add creates a tracker, sending it right away if the server is reachable
func Add(cmd *cobra.Command, ctx context.HabitlogCtx, t entity.Tracker) (entity.Tracker, error) {
	infra.Probe(cmd.Context(), ctx)

	created, err := ctx.Engine.CreateTracker(cmd.Context(), t)
	if err != nil {
		return entity.Tracker{}, err
	}

	if created.PendingSync {
		created.PendingSync = infra.StillPending(cmd.Context(), ctx, created)
	}

	return created, nil
}

func newAddRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		t := entity.Tracker{
			Text:    args[0],
			Type:    entity.TrackerType(typeFlag),
			Options: optionsFlag,
		}
		if defaultTimeFlag != "" {
			g := entity.GeneralTime(defaultTimeFlag)
			t.DefaultTime = &g
		}

		created, err := Add(cmd, ctx, t)
		if err != nil {
			return errors.Wrap(err, "creating the tracker")
		}

		if created.PendingSync {
			log.Warnf("saved locally, it will be sent once the server is reachable\n")
		} else {
			log.Successf("created\n")
		}
		output.TrackerInfo(created)

		return nil
	}
}
