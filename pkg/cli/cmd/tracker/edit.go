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

var textFlag string
var editDefaultTimeFlag string
var editOptionsFlag []string
var pinFlag bool
var unpinFlag bool
var positionFlag int

func newEditCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Aliases: []string{"e"},
		Short:   "Edit a tracker. Needs the server.",
		Args:    cobra.ExactArgs(1),
		RunE:    newEditRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&textFlag, "text", "", "the new text")
	f.StringVar(&editDefaultTimeFlag, "default-time", "", "morning, afternoon, evening or night")
	f.StringSliceVar(&editOptionsFlag, "option", nil, "replace the options of a text-list tracker (repeatable)")
	f.BoolVar(&pinFlag, "pin", false, "pin the tracker")
	f.BoolVar(&unpinFlag, "unpin", false, "unpin the tracker")
	f.IntVar(&positionFlag, "position", 0, "move the tracker to the given position")

	return cmd
}

func buildPatch(cmd *cobra.Command) (entity.TrackerPatch, error) {
	var patch entity.TrackerPatch
	f := cmd.Flags()

	if f.Changed("text") {
		patch.Text = &textFlag
	}
	if f.Changed("default-time") {
		g := entity.GeneralTime(editDefaultTimeFlag)
		if !g.Valid() {
			return patch, errors.Errorf("unknown time of day '%s'", editDefaultTimeFlag)
		}
		patch.DefaultTime = &g
	}
	if f.Changed("option") {
		patch.Options = &editOptionsFlag
	}
	if pinFlag && unpinFlag {
		return patch, errors.New("--pin and --unpin cannot be used together")
	}
	if pinFlag || unpinFlag {
		patch.Pinned = &pinFlag
	}
	if f.Changed("position") {
		patch.Position = &positionFlag
	}

	return patch, nil
}

func newEditRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		patch, err := buildPatch(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return errors.New("Nothing to change")
		}

		t, err := Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		infra.Probe(cmd.Context(), ctx)

		updated, err := ctx.Engine.UpdateTracker(cmd.Context(), t.ID, patch)
		if err != nil {
			return err
		}

		log.Successf("edited\n")
		output.TrackerInfo(updated)

		return nil
	}
}
