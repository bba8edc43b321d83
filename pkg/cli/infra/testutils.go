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

package infra

import (
	"testing"

	"github.com/habitlog/habitlog/pkg/cli/config"
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// InitTestCtx returns a context backed by an in-memory database. An empty
// apiEndpoint leaves the device offline.
func InitTestCtx(t *testing.T, apiEndpoint string) context.HabitlogCtx {
	db := database.InitTestMemoryDB(t)

	ctx, err := NewCtx(db, config.Default(apiEndpoint), context.TestPaths(t), afero.NewMemMapFs(), "test-version", clock.NewMock())
	if err != nil {
		t.Fatal(errors.Wrap(err, "initializing test context"))
	}

	return ctx
}
