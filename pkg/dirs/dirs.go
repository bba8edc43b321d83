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

// Package dirs resolves the XDG base directories and the locations of the
// habitlog configuration and database files within them.
package dirs

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/pkg/errors"
)

// The environment variable names for the XDG base directory specification
const (
	envConfigHome = "XDG_CONFIG_HOME"
	envDataHome   = "XDG_DATA_HOME"
	envCacheHome  = "XDG_CACHE_HOME"
)

// Base holds the XDG base directories of the current user
type Base struct {
	Home       string
	ConfigHome string
	DataHome   string
	CacheHome  string
}

// Load resolves the base directories from the environment, falling back to
// the XDG defaults under the home directory.
func Load() (Base, error) {
	home, err := homeDir()
	if err != nil {
		return Base{}, err
	}

	return Base{
		Home:       home,
		ConfigHome: readPath(envConfigHome, filepath.Join(home, ".config")),
		DataHome:   readPath(envDataHome, filepath.Join(home, ".local", "share")),
		CacheHome:  readPath(envCacheHome, filepath.Join(home, ".cache")),
	}, nil
}

// App holds the locations used by a single application
type App struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	ConfigFile string
	DBFile     string
}

// For returns the locations of the application with the given name
func (b Base) For(name string) App {
	configDir := filepath.Join(b.ConfigHome, name)
	dataDir := filepath.Join(b.DataHome, name)

	return App{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		CacheDir:   filepath.Join(b.CacheHome, name),
		ConfigFile: filepath.Join(configDir, name+"rc"),
		DBFile:     filepath.Join(dataDir, name+".db"),
	}
}

func homeDir() (string, error) {
	if h := os.Getenv("HOME"); h != "" {
		return h, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", errors.Wrap(err, "getting home dir")
	}

	return usr.HomeDir, nil
}

func readPath(envName, defaultPath string) string {
	if dir := os.Getenv(envName); dir != "" {
		return dir
	}

	return defaultPath
}
