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

// Package collection implements the collection commands
package collection

import (
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
 * Group trackers answered together
 habitlog collection add "Morning" --tracker 3f2c --tracker b1a0

 * List collections
 habitlog collection ls

 * Rename a collection
 habitlog collection edit 9d1e --name "Wake up"`

var trackersFlag []string
var nameFlag string
var pinFlag bool
var yesFlag bool

// NewCmd returns a new collection command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"c"},
		Short:   "Manage collections of trackers",
		Example: example,
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  newAddRun(ctx),
	}
	add.Flags().StringSliceVar(&trackersFlag, "tracker", nil, "the id of a member tracker (repeatable)")
	add.Flags().BoolVar(&pinFlag, "pin", false, "pin the collection")

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List collections, including the ones not sent yet",
		Args:    cobra.NoArgs,
		RunE:    newListRun(ctx),
	}

	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a collection. Needs the server.",
		Args:  cobra.ExactArgs(1),
		RunE:  newEditRun(ctx),
	}
	edit.Flags().StringVar(&nameFlag, "name", "", "the new name")
	edit.Flags().StringSliceVar(&trackersFlag, "tracker", nil, "replace the member trackers (repeatable)")
	edit.Flags().BoolVar(&pinFlag, "pin", false, "pin or unpin the collection")

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a collection. Its entries are kept. Needs the server.",
		Args:    cobra.ExactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	rm.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation")

	cmd.AddCommand(add, ls, edit, rm)

	return cmd
}

// Resolve finds the collection addressed by an id or id prefix
func Resolve(ctx context.HabitlogCtx, idOrPrefix string) (entity.Collection, error) {
	collections, err := ctx.View.Collections()
	if err != nil {
		return entity.Collection{}, errors.Wrap(err, "listing collections")
	}

	ids := make([]string, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}

	id, err := validate.ResolveID(ids, idOrPrefix)
	if err != nil {
		return entity.Collection{}, errors.Wrap(err, "finding the collection")
	}
	for _, c := range collections {
		if c.ID == id {
			return c, nil
		}
	}

	return entity.Collection{}, errors.Wrap(validate.ErrIDNotFound, idOrPrefix)
}

func resolveTrackers(ctx context.HabitlogCtx, prefixes []string) ([]string, error) {
	ids := []string{}
	for _, p := range prefixes {
		t, err := tracker.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}

	return ids, nil
}

func newAddRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		ids, err := resolveTrackers(ctx, trackersFlag)
		if err != nil {
			return err
		}

		infra.Probe(cmd.Context(), ctx)

		c, err := ctx.Engine.CreateCollection(cmd.Context(), entity.Collection{
			Name:       args[0],
			TrackerIDs: ids,
			Pinned:     pinFlag,
		})
		if err != nil {
			return errors.Wrap(err, "creating the collection")
		}
		if c.PendingSync {
			c.PendingSync = infra.StillPending(cmd.Context(), ctx, c)
		}

		if c.PendingSync {
			log.Warnf("saved locally, it will be sent once the server is reachable\n")
		} else {
			log.Successf("created\n")
		}
		output.Collection(c)

		return nil
	}
}

func newListRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		collections, err := ctx.View.Collections()
		if err != nil {
			return errors.Wrap(err, "listing collections")
		}

		if len(collections) == 0 {
			log.Infof("no collections yet\n")
			return nil
		}
		for _, c := range collections {
			output.Collection(c)
		}

		return nil
	}
}

func newEditRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		var patch entity.CollectionPatch
		f := cmd.Flags()
		if f.Changed("name") {
			patch.Name = &nameFlag
		}
		if f.Changed("tracker") {
			ids, err := resolveTrackers(ctx, trackersFlag)
			if err != nil {
				return err
			}
			patch.TrackerIDs = &ids
		}
		if f.Changed("pin") {
			patch.Pinned = &pinFlag
		}
		if patch.IsEmpty() {
			return errors.New("Nothing to change")
		}

		c, err := Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		infra.Probe(cmd.Context(), ctx)

		updated, err := ctx.Engine.UpdateCollection(cmd.Context(), c.ID, patch)
		if err != nil {
			return err
		}

		log.Successf("edited\n")
		output.Collection(updated)

		return nil
	}
}

func newRemoveRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		c, err := Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		if !yesFlag {
			ok, err := ui.Confirm("delete the collection '"+c.Name+"'?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		infra.Probe(cmd.Context(), ctx)

		if err := ctx.Engine.DeleteCollection(cmd.Context(), c.ID); err != nil {
			return err
		}

		log.Successf("deleted '%s'\n", c.Name)

		return nil
	}
}
