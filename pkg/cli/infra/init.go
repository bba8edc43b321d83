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

// Package infra provides operations and definitions for the
// local infrastructure for habitlog
package infra

import (
	"os"

	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/config"
	"github.com/habitlog/habitlog/pkg/cli/connectivity"
	"github.com/habitlog/habitlog/pkg/cli/consts"
	"github.com/habitlog/habitlog/pkg/cli/context"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/cli/device"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/cli/syncer"
	"github.com/habitlog/habitlog/pkg/cli/utils"
	"github.com/habitlog/habitlog/pkg/cli/view"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/dirs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// RunEFunc is a function type of habitlog commands
type RunEFunc func(*cobra.Command, []string) error

// Init initializes the habitlog environment and returns a new habitlog context.
// apiEndpoint, when given, takes precedence over the config file and is
// written to a newly created one.
func Init(versionTag, apiEndpoint, dbPath string) (*context.HabitlogCtx, error) {
	base, err := dirs.Load()
	if err != nil {
		return nil, errors.Wrap(err, "finding base directories")
	}

	return Setup(afero.NewOsFs(), base.For(consts.AppName), versionTag, apiEndpoint, dbPath)
}

// Setup initializes files, the config and the database under the given paths
func Setup(fs afero.Fs, paths dirs.App, versionTag, apiEndpoint, dbPath string) (*context.HabitlogCtx, error) {
	if err := initFiles(fs, paths, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing files")
	}

	cf, err := config.Read(fs, paths.ConfigFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if apiEndpoint != "" {
		cf.APIEndpoint = apiEndpoint
	}
	if v := os.Getenv(consts.APIEndpointEnv); v != "" {
		cf.APIEndpoint = v
	}

	db, err := database.Open(getDBPath(paths, dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to db")
	}

	ctx, err := NewCtx(db, cf, paths, fs, versionTag, clock.New())
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting up the context")
	}

	log.Debug("device: %s, endpoint: '%s', db: %s\n", ctx.DeviceID, cf.APIEndpoint, db.Filepath)

	return &ctx, nil
}

func getDBPath(paths dirs.App, customPath string) string {
	if customPath != "" {
		return customPath
	}
	if v := os.Getenv(consts.DBPathEnv); v != "" {
		return v
	}

	return paths.DBFile
}

// NewCtx wires the services of the device around an open database
func NewCtx(db *database.DB, cf config.Config, paths dirs.App, fs afero.Fs, versionTag string, clk clock.Clock) (context.HabitlogCtx, error) {
	deviceID, err := device.Get(db)
	if err != nil {
		return context.HabitlogCtx{}, errors.Wrap(err, "getting device id")
	}

	interval, err := cf.HealthCheckEvery()
	if err != nil {
		return context.HabitlogCtx{}, err
	}
	timeout, err := cf.RequestTimeoutDuration()
	if err != nil {
		return context.HabitlogCtx{}, err
	}
	retry, err := cf.RetryEvery()
	if err != nil {
		return context.HabitlogCtx{}, err
	}

	// The interfaces stay nil without a server, leaving the device offline
	var cl *client.Client
	var prober connectivity.Prober
	var remote syncer.Remote
	if cf.APIEndpoint != "" {
		cl = client.New(cf.APIEndpoint, deviceID, versionTag, nil)
		prober = cl
		remote = cl
	}

	logger := log.Console()
	monitor := connectivity.New(prober, deviceID, connectivity.Options{
		Interval: interval,
		Timeout:  timeout,
		Logger:   logger,
	})
	c := cache.New(db)
	q := queue.New(db, c, clk)

	engine := syncer.New(syncer.Params{
		DB:       db,
		DeviceID: deviceID,
		Remote:   remote,
		Monitor:  monitor,
		Queue:    q,
		Cache:    c,
		Clock:    clk,
		Logger:   logger,
		Config: syncer.Config{
			BatchSize:      cf.BatchSize(),
			RequestTimeout: timeout,
			RetryInterval:  retry,
		},
	})

	return context.HabitlogCtx{
		Paths:    paths,
		Fs:       fs,
		Version:  versionTag,
		Config:   cf,
		DB:       db,
		Clock:    clk,
		DeviceID: deviceID,
		Client:   cl,
		Monitor:  monitor,
		Queue:    q,
		Cache:    c,
		View:     view.New(c, q),
		Engine:   engine,
	}, nil
}

// initConfigFile populates a new config file if it does not exist yet
func initConfigFile(fs afero.Fs, path, apiEndpoint string) error {
	ok, err := utils.FileExists(fs, path)
	if err != nil {
		return errors.Wrap(err, "checking if config exists")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = config.DefaultAPIEndpoint
	}

	if err := config.Write(fs, path, config.Default(endpoint)); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// initFiles creates, if necessary, the habitlog directories and files inside
func initFiles(fs afero.Fs, paths dirs.App, apiEndpoint string) error {
	if err := context.InitDirs(fs, paths); err != nil {
		return errors.Wrap(err, "creating the habitlog dirs")
	}
	if err := initConfigFile(fs, paths.ConfigFile, apiEndpoint); err != nil {
		return errors.Wrap(err, "generating the config file")
	}

	return nil
}
