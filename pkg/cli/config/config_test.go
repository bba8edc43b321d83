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
	"testing"
	"time"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func TestWriteRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/user/.config/habitlog/habitlogrc"

	cf := Default("https://habitlog.example.com")
	if err := Write(fs, path, cf); err != nil {
		t.Fatal(errors.Wrap(err, "writing"))
	}

	ok, err := Exists(fs, path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking"))
	}
	assert.Equal(t, ok, true, "config file should exist")

	got, err := Read(fs, path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}
	assert.DeepEqual(t, got, cf, "config mismatch")
}

func TestReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/habitlogrc"

	content := `apiEndpoint: http://127.0.0.1:3001
healthCheckInterval: 5s
logBatchSize: 20
`
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "preparing file"))
	}

	cf, err := Read(fs, path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading"))
	}

	health, err := cf.HealthCheckEvery()
	if err != nil {
		t.Fatal(errors.Wrap(err, "parsing health check interval"))
	}
	timeout, err := cf.RequestTimeoutDuration()
	if err != nil {
		t.Fatal(errors.Wrap(err, "parsing request timeout"))
	}
	retry, err := cf.RetryEvery()
	if err != nil {
		t.Fatal(errors.Wrap(err, "parsing retry interval"))
	}

	assert.Equal(t, cf.APIEndpoint, "http://127.0.0.1:3001", "endpoint mismatch")
	assert.Equal(t, health, 5*time.Second, "health check interval mismatch")
	assert.Equal(t, timeout, 10*time.Second, "request timeout should default")
	assert.Equal(t, retry, time.Minute, "retry interval should default")
	assert.Equal(t, cf.BatchSize(), 20, "batch size mismatch")
}

func TestReadInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed duration",
			content: "requestTimeout: soon\n",
		},
		{
			name:    "non-positive duration",
			content: "retryInterval: 0s\n",
		},
		{
			name:    "negative batch size",
			content: "logBatchSize: -1\n",
		},
		{
			name:    "malformed yaml",
			content: "apiEndpoint: [\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/habitlogrc", []byte(tc.content), 0644); err != nil {
				t.Fatal(errors.Wrap(err, "preparing file"))
			}

			_, err := Read(fs, "/habitlogrc")

			assert.NotEqual(t, err, nil, "error should not be nil")
		})
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(afero.NewMemMapFs(), "/nowhere/habitlogrc")

	assert.NotEqual(t, err, nil, "error should not be nil")
}

func TestBatchSizeDefault(t *testing.T) {
	assert.Equal(t, Config{}.BatchSize(), DefaultLogBatchSize, "batch size should default")
}
