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


// Package cmd implements the commands of the habitlog server binary
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRoot returns the root command of the server
func NewRoot(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "habitlog-server",
		Short:         "habitlog server - stores the trackers and logs of habitlog devices",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newStartCmd(version))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "habitlog-server-%s\n", version)
		},
	})

	return root
}

// Execute is the main entry point for the CLI
func Execute(ctx context.Context, version string) error {
	return NewRoot(version).ExecuteContext(ctx)
}
