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


// Package config holds the configuration of the habitlog server
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/habitlog/habitlog/pkg/dirs"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// AppEnvProduction represents an app environment for production.
	AppEnvProduction string = "PRODUCTION"
	// DefaultDBDir is the default directory name for habitlog data
	DefaultDBDir = "habitlog"
	// DefaultDBFilename is the default database filename
	DefaultDBFilename = "server.db"

	// DriverSQLite selects the sqlite database driver
	DriverSQLite = "sqlite"
	// DriverPostgres selects the postgres database driver
	DriverPostgres = "postgres"

	// DefaultRateLimit is the default number of requests per second allowed per client
	DefaultRateLimit = 20
)

var (
	// ErrDBMissingPath is an error for an incomplete configuration missing the database path
	ErrDBMissingPath = errors.New("DB Path is empty")
	// ErrDBMissingURL is an error for a postgres configuration missing the database url
	ErrDBMissingURL = errors.New("DB URL is empty")
	// ErrDBDriverInvalid is an error for an unknown database driver
	ErrDBDriverInvalid = errors.New("Invalid DB driver")
	// ErrPortInvalid is an error for an incomplete configuration with invalid port
	ErrPortInvalid = errors.New("Invalid Port")
	// ErrRateLimitInvalid is an error for a non-positive rate limit
	ErrRateLimitInvalid = errors.New("Invalid rate limit")
)

// DefaultDBPath returns the default path to the database file
func DefaultDBPath() string {
	base, err := dirs.Load()
	if err != nil {
		return DefaultDBFilename
	}

	return filepath.Join(base.DataHome, DefaultDBDir, DefaultDBFilename)
}

// getOrEnv returns value if non-empty, otherwise env var, otherwise default
func getOrEnv(value, envKey, defaultVal string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(envKey); env != "" {
		return env
	}
	return defaultVal
}

func getIntOrEnv(value int, envKey string, defaultVal int) (int, error) {
	if value != 0 {
		return value, nil
	}

	env := os.Getenv(envKey)
	if env == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(env)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", envKey)
	}

	return n, nil
}

// LoadEnv loads environment variables from the given dotenv files. Files
// that do not exist are skipped and variables already set are kept.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "loading %s", p)
		}
	}

	return nil
}

// Config is an application configuration
type Config struct {
	AppEnv    string
	Port      string
	DBDriver  string
	DBPath    string
	DBURL     string
	LogLevel  string
	LogFile   string
	RateLimit int
}

// Params are the configuration parameters for creating a new Config
type Params struct {
	AppEnv    string
	Port      string
	DBDriver  string
	DBPath    string
	DBURL     string
	LogLevel  string
	LogFile   string
	RateLimit int
}

// New constructs and returns a new validated config.
// Empty params will fall back to environment variables and defaults.
func New(p Params) (Config, error) {
	rateLimit, err := getIntOrEnv(p.RateLimit, "RATE_LIMIT", DefaultRateLimit)
	if err != nil {
		return Config{}, err
	}

	c := Config{
		AppEnv:    getOrEnv(p.AppEnv, "APP_ENV", AppEnvProduction),
		Port:      getOrEnv(p.Port, "PORT", "3001"),
		DBDriver:  getOrEnv(p.DBDriver, "DBDriver", DriverSQLite),
		DBPath:    getOrEnv(p.DBPath, "DBPath", DefaultDBPath()),
		DBURL:     getOrEnv(p.DBURL, "DBURL", ""),
		LogLevel:  getOrEnv(p.LogLevel, "LOG_LEVEL", "info"),
		LogFile:   getOrEnv(p.LogFile, "LOG_FILE", ""),
		RateLimit: rateLimit,
	}

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsProd checks if the app environment is configured to be production.
func (c Config) IsProd() bool {
	return c.AppEnv == AppEnvProduction
}

// DSN returns the data source name for the configured driver
func (c Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DBURL
	}

	return c.DBPath
}

func validate(c Config) error {
	if c.Port == "" {
		return ErrPortInvalid
	}
	if c.RateLimit <= 0 {
		return ErrRateLimitInvalid
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return ErrDBMissingPath
		}
	case DriverPostgres:
		if c.DBURL == "" {
			return ErrDBMissingURL
		}
	default:
		return errors.Wrapf(ErrDBDriverInvalid, "'%s'", c.DBDriver)
	}

	return nil
}
