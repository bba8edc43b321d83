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

package sync

import (
	"strconv"

	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/infra"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/output"
	"github.com/habitlog/habitlog/pkg/cli/syncer"
	"github.com/habitlog/habitlog/pkg/cli/ui"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var example = `
 * Send pending writes and refresh the local copy
 habitlog sync

 * List writes the server rejected
 habitlog sync dead

 * Retry a rejected write after fixing the server side
 habitlog sync requeue logs 5e1b...

 * Drop every pending write
 habitlog sync reset`

var yesFlag bool

// NewCmd returns a new sync command
func NewCmd(ctx context.HabitlogCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Send pending writes and refresh data from the server",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	dead := &cobra.Command{
		Use:   "dead",
		Short: "List writes rejected by the server",
		Args:  cobra.NoArgs,
		RunE:  newDeadRun(ctx),
	}

	requeue := &cobra.Command{
		Use:   "requeue <kind> <id>",
		Short: "Move a rejected write back into the queue",
		Args:  cobra.ExactArgs(2),
		RunE:  newRequeueRun(ctx),
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop every pending write. Writes not sent yet are lost.",
		Args:  cobra.NoArgs,
		RunE:  newResetRun(ctx),
	}
	reset.Flags().BoolVarP(&yesFlag, "yes", "y", false, "skip the confirmation")

	cmd.AddCommand(dead, requeue, reset)

	return cmd
}

// Do sends pending writes and refreshes every kind from the server
func Do(cmd *cobra.Command, ctx context.HabitlogCtx) (syncer.Result, error) {
	if !ctx.Online() {
		return syncer.Result{}, errors.New("no server is configured, set apiEndpoint in the config file")
	}
	if !infra.Probe(cmd.Context(), ctx) {
		return syncer.Result{}, syncer.ErrOffline
	}

	res, err := infra.Drain(cmd.Context(), ctx)
	if err != nil {
		return res, errors.Wrap(err, "sending pending writes")
	}

	if err := ctx.Engine.Refresh(cmd.Context()); err != nil {
		return res, errors.Wrap(err, "refreshing")
	}

	return res, nil
}

func newRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		res, err := Do(cmd, ctx)
		if err != nil {
			return err
		}

		output.FlushResult(res)
		log.Successf("synced\n")

		return nil
	}
}

func newDeadRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		dead, err := ctx.Queue.DeadLetters()
		if err != nil {
			return errors.Wrap(err, "listing rejected writes")
		}

		if len(dead) == 0 {
			log.Successf("no rejected writes\n")
			return nil
		}
		for _, d := range dead {
			output.DeadLetter(d)
		}

		return nil
	}
}

func newRequeueRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		kind, err := entity.ParseKind(args[0])
		if err != nil {
			return err
		}

		if err := ctx.Queue.Requeue(kind, args[1]); err != nil {
			return errors.Wrapf(err, "requeueing %s %s", kind, args[1])
		}

		log.Successf("requeued, it will be sent with the next sync\n")

		return nil
	}
}

func newResetRun(ctx context.HabitlogCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		n, err := ctx.Queue.Len()
		if err != nil {
			return errors.Wrap(err, "counting pending writes")
		}
		if n == 0 {
			log.Infof("nothing is pending\n")
			return nil
		}

		if !yesFlag {
			ok, err := ui.Confirm("drop "+pluralWrites(n)+" that never reached the server?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		if err := ctx.Queue.Clear(); err != nil {
			return errors.Wrap(err, "clearing the queue")
		}

		log.Successf("dropped %s\n", pluralWrites(n))

		return nil
	}
}

func pluralWrites(n int) string {
	if n == 1 {
		return "1 pending write"
	}

	return strconv.Itoa(n) + " pending writes"
}
