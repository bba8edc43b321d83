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

// Package tracker implements the tracker commands
package tracker

import (
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/validate"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Create a tracker
 habitlog tracker add "Water" --type number

 * Create a yes/no tracker usually logged in the evening
 habitlog tracker add "Read" --type boolean --default-time evening

 * List trackers
 habitlog tracker ls

 * Pin a tracker
 habitlog tracker edit 3f2c --pin

 * Delete a tracker and its entries
 habitlog tracker rm 3f2c`

// NewCmd returns a new tracker command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tracker",
		Aliases: []string{"t"},
		Short:   "Manage trackers",
		Example: example,
	}

	cmd.AddCommand(newAddCmd(ctx))
	cmd.AddCommand(newListCmd(ctx))
	cmd.AddCommand(newEditCmd(ctx))
	cmd.AddCommand(newRemoveCmd(ctx))

	return cmd
}

// Resolve finds the tracker addressed by an id or id prefix
func Resolve(ctx context.HabitlogCtx, idOrPrefix string) (entity.Tracker, error) {
	trackers, err := ctx.View.Trackers()
	if err != nil {
		return entity.Tracker{}, errors.Wrap(err, "listing trackers")
	}

	ids := make([]string, len(trackers))
	for i, t := range trackers {
		ids[i] = t.ID
	}

	id, err := validate.ResolveID(ids, idOrPrefix)
	if err != nil {
		return entity.Tracker{}, errors.Wrap(err, "finding the tracker")
	}

	for _, t := range trackers {
		if t.ID == id {
			return t, nil
		}
	}

	return entity.Tracker{}, errors.Wrap(validate.ErrIDNotFound, idOrPrefix)
}
