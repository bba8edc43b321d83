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


package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		config      Config
		expectedErr error
	}{
		{
			config: Config{
				DBDriver:  DriverSQLite,
				DBPath:    "test.db",
				Port:      "3000",
				RateLimit: 1,
			},
			expectedErr: nil,
		},
		{
			config: Config{
				DBDriver:  DriverSQLite,
				DBPath:    "",
				Port:      "3000",
				RateLimit: 1,
			},
			expectedErr: ErrDBMissingPath,
		},
		{
			config: Config{
				DBDriver:  DriverPostgres,
				DBURL:     "postgres://localhost/habitlog",
				Port:      "3000",
				RateLimit: 1,
			},
			expectedErr: nil,
		},
		{
			config: Config{
				DBDriver:  DriverPostgres,
				DBPath:    "test.db",
				Port:      "3000",
				RateLimit: 1,
			},
			expectedErr: ErrDBMissingURL,
		},
		{
			config: Config{
				DBDriver:  "mysql",
				Port:      "3000",
				RateLimit: 1,
			},
			expectedErr: ErrDBDriverInvalid,
		},
		{
			config: Config{
				DBDriver:  DriverSQLite,
				DBPath:    "test.db",
				RateLimit: 1,
			},
			expectedErr: ErrPortInvalid,
		},
		{
			config: Config{
				DBDriver: DriverSQLite,
				DBPath:   "test.db",
				Port:     "3000",
			},
			expectedErr: ErrRateLimitInvalid,
		},
	}

	for idx, tc := range testCases {
		t.Run(fmt.Sprintf("test case %d", idx), func(t *testing.T) {
			err := validate(tc.config)

			assert.Equal(t, errors.Cause(err), tc.expectedErr, "error mismatch")
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("params win over env", func(t *testing.T) {
		t.Setenv("PORT", "4000")
		t.Setenv("DBPath", "/env/server.db")

		c, err := New(Params{Port: "5000"})
		if err != nil {
			t.Fatal(errors.Wrap(err, "making config"))
		}

		assert.Equal(t, c.Port, "5000", "Port mismatch")
		assert.Equal(t, c.DBPath, "/env/server.db", "DBPath mismatch")
		assert.Equal(t, c.DBDriver, DriverSQLite, "DBDriver mismatch")
		assert.Equal(t, c.DSN(), "/env/server.db", "DSN mismatch")
		assert.Equal(t, c.RateLimit, DefaultRateLimit, "RateLimit mismatch")
	})

	t.Run("postgres", func(t *testing.T) {
		t.Setenv("DBDriver", DriverPostgres)
		t.Setenv("DBURL", "postgres://localhost/habitlog")

		c, err := New(Params{})
		if err != nil {
			t.Fatal(errors.Wrap(err, "making config"))
		}

		assert.Equal(t, c.DSN(), "postgres://localhost/habitlog", "DSN mismatch")
	})

	t.Run("malformed rate limit", func(t *testing.T) {
		t.Setenv("RATE_LIMIT", "many")

		_, err := New(Params{})
		assert.NotEqual(t, err, nil, "error mismatch")
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LOG_LEVEL=debug\nPORT=6000\n"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing .env"))
	}

	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(errors.Wrap(err, "loading env"))
	}
	defer os.Unsetenv("LOG_LEVEL")

	assert.Equal(t, os.Getenv("LOG_LEVEL"), "debug", "LOG_LEVEL mismatch")
	assert.Equal(t, os.Getenv("PORT"), "7000", "PORT mismatch")
}
