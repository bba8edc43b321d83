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
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/output"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newListCmd(ctx context.HabitlogCtx) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List trackers, including the ones not sent yet",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trackers, err := ctx.View.Trackers()
			if err != nil {
				return errors.Wrap(err, "listing trackers")
			}

			if len(trackers) == 0 {
				log.Infof("no trackers yet, create one with 'habitlog tracker add'\n")
				return nil
			}
			for _, t := range trackers {
				output.Tracker(t)
			}

			return nil
		},
	}
}
