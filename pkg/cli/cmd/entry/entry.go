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

// Package entry implements the log entry commands
package entry

import (
	"sort"

	"github.com/habitlog/habitlog/pkg/cli/cmd/collection"
	"github.com/habitlog/habitlog/pkg/cli/cmd/tracker"
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/output"
	"github.com/habitlog/habitlog/pkg/cli/ui"
	"github.com/habitlog/habitlog/pkg/cli/validate"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Log two glasses of water
 habitlog entry add 3f2c 2

 * Log a yes/no tracker for yesterday evening
 habitlog entry add b1a0 yes --date 2024-01-04 --time evening

 * Log a text-list tracker at an exact time
 habitlog entry add 77aa "tea, coffee" --time 07:30

 * List the entries of a tracker
 habitlog entry ls --tracker 3f2c`

var dateFlag string
var timeFlag string
var collectionFlag string
var categoryFlag string
var trackerFlag string
var yesFlag bool

// NewCmd returns a new entry command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entry",
		Aliases: []string{"log", "l"},
		Short:   "Log values against trackers",
		Example: example,
	}

	add := &cobra.Command{
		Use:   "add <tracker> <value>",
		Short: "Log a value. Works offline.",
		Args:  cobra.ExactArgs(2),
		RunE:  newAddRun(ctx),
	}
	af := add.Flags()
	af.StringVar(&dateFlag, "date", "", "the day in YYYY-MM-DD format (defaults to today)")
	af.StringVar(&timeFlag, "time", "", "morning, afternoon, evening, night or HH:MM")
	af.StringVar(&collectionFlag, "collection", "", "the collection the value was logged from")
	af.StringVar(&categoryFlag, "category", "", "a free form category")

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List entries, including the ones not sent yet",
		Args:    cobra.NoArgs,
		RunE:    newListRun(ctx),
	}
	ls.Flags().StringVar(&trackerFlag, "tracker", "", "only list the entries of this tracker")
	ls.Flags().StringVar(&dateFlag, "date", "", "only list the entries of this day")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete an entry. Needs the server.",
		Args:    cobra.ExactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation")

	cmd.AddCommand(add, ls, rm)

	return cmd
}

// Build turns command line input into a log entry for the given tracker
func Build(ctx context.HabitlogCtx, t entity.Tracker, rawValue, date, timeOfDay, collectionID, category string) (entity.LogEntry, error) {
	v, err := validate.Value(t.Type, rawValue)
	if err != nil {
		return entity.LogEntry{}, errors.Wrapf(err, "reading the value for %s", t.Text)
	}

	l := entity.LogEntry{TrackerID: t.ID, Value: v}
	if date != "" {
		if err := validate.Date(date); err != nil {
			return entity.LogEntry{}, err
		}
		l.Date = date
	}
	if timeOfDay != "" {
		if err := validate.TimeOfDay(timeOfDay, &l); err != nil {
			return entity.LogEntry{}, err
		}
	}
	if collectionID != "" {
		c, err := collection.Resolve(ctx, collectionID)
		if err != nil {
			return entity.LogEntry{}, err
		}
		l.CollectionID = &c.ID
	}
	if category != "" {
		l.Category = &category
	}

	return l, nil
}

func newAddRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		t, err := tracker.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		l, err := Build(ctx, t, args[1], dateFlag, timeFlag, collectionFlag, categoryFlag)
		if err != nil {
			return err
		}

		infra.Probe(cmd.Context(), ctx)

		l, err = ctx.Engine.LogEntry(cmd.Context(), l)
		if err != nil {
			return errors.Wrap(err, "logging the entry")
		}
		if l.PendingSync {
			l.PendingSync = infra.StillPending(cmd.Context(), ctx, l)
		}

		if l.PendingSync {
			log.Warnf("saved locally, it will be sent once the server is reachable\n")
		} else {
			log.Successf("logged\n")
		}
		output.LogEntry(l, map[string]string{t.ID: t.Text})

		return nil
	}
}

func trackerNames(ctx context.HabitlogCtx) (map[string]string, error) {
	trackers, err := ctx.View.Trackers()
	if err != nil {
		return nil, errors.Wrap(err, "listing trackers")
	}

	names := map[string]string{}
	for _, t := range trackers {
		names[t.ID] = t.Text
	}

	return names, nil
}

// Filter returns the entries of the given tracker and day, most recent first.
// Empty arguments match everything.
func Filter(entries []entity.LogEntry, trackerID, date string) []entity.LogEntry {
	ret := []entity.LogEntry{}
	for _, l := range entries {
		if trackerID != "" && l.TrackerID != trackerID {
			continue
		}
		if date != "" && l.Date != date {
			continue
		}
		ret = append(ret, l)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Date != ret[j].Date {
			return ret[i].Date > ret[j].Date
		}
		return ret[i].CreatedAt > ret[j].CreatedAt
	})

	return ret
}

func newListRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var trackerID string
		if trackerFlag != "" {
			t, err := tracker.Resolve(ctx, trackerFlag)
			if err != nil {
				return err
			}
			trackerID = t.ID
		}

		entries, err := ctx.View.Logs()
		if err != nil {
			return errors.Wrap(err, "listing entries")
		}
		names, err := trackerNames(ctx)
		if err != nil {
			return err
		}

		entries = Filter(entries, trackerID, dateFlag)
		if len(entries) == 0 {
			log.Infof("no entries\n")
			return nil
		}
		for _, l := range entries {
			output.LogEntry(l, names)
		}

		return nil
	}
}

func newRemoveRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		entries, err := ctx.View.Logs()
		if err != nil {
			return errors.Wrap(err, "listing entries")
		}
		ids := make([]string, len(entries))
		for i, l := range entries {
			ids[i] = l.ID
		}

		id, err := validate.ResolveID(ids, args[0])
		if err != nil {
			return errors.Wrap(err, "finding the entry")
		}

		if !yesFlag {
			ok, err := ui.Confirm("delete this entry?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		infra.Probe(cmd.Context(), ctx)

		if err := ctx.Engine.DeleteLog(cmd.Context(), id); err != nil {
			return err
		}

		log.Successf("deleted\n")

		return nil
	}
}
