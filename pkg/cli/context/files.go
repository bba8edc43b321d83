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

package context

import (
	"github.com/habitlog/habitlog/pkg/cli/utils"
	"github.com/habitlog/habitlog/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// InitDirs creates the habitlog directories if they don't already exist.
func InitDirs(fs afero.Fs, paths dirs.App) error {
	if paths.ConfigDir != "" {
		if err := utils.EnsureDir(fs, paths.ConfigDir); err != nil {
			return errors.Wrap(err, "initializing config dir")
		}
	}
	if paths.DataDir != "" {
		if err := utils.EnsureDir(fs, paths.DataDir); err != nil {
			return errors.Wrap(err, "initializing data dir")
		}
	}
	if paths.CacheDir != "" {
		if err := utils.EnsureDir(fs, paths.CacheDir); err != nil {
			return errors.Wrap(err, "initializing cache dir")
		}
	}

	return nil
}
