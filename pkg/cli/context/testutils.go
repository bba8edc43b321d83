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
	"path/filepath"
	"testing"

	"github.com/habitlog/habitlog/pkg/dirs"
)

// TestPaths returns habitlog paths with every base directory pointing to a
// temporary directory
func TestPaths(t *testing.T) dirs.App {
	tmpDir := t.TempDir()

	return dirs.Base{
		Home:       tmpDir,
		ConfigHome: filepath.Join(tmpDir, "config"),
		DataHome:   filepath.Join(tmpDir, "data"),
		CacheHome:  filepath.Join(tmpDir, "cache"),
	}.For("habitlog")
}
