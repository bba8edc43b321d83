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

// Package config reads and writes the habitlog configuration file
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultAPIEndpoint is used when a new config file is generated without an endpoint
	DefaultAPIEndpoint = "http://localhost:3001"
	// DefaultHealthCheckInterval is the time between two connectivity probes
	DefaultHealthCheckInterval = "30s"
	// DefaultRequestTimeout bounds every request to the server
	DefaultRequestTimeout = "10s"
	// DefaultRetryInterval is the time between two retries of writes left behind
	DefaultRetryInterval = "1m"
	// DefaultLogBatchSize is the number of log entries sent in one request
	DefaultLogBatchSize = 50
)

// Config holds habitlog configuration. Durations are written the way
// time.ParseDuration reads them, e.g. "30s".
type Config struct {
	// APIEndpoint is the base URL of the server. Empty means fully offline.
	APIEndpoint         string `yaml:"apiEndpoint"`
	HealthCheckInterval string `yaml:"healthCheckInterval,omitempty"`
	RequestTimeout      string `yaml:"requestTimeout,omitempty"`
	RetryInterval       string `yaml:"retryInterval,omitempty"`
	LogBatchSize        int    `yaml:"logBatchSize,omitempty"`
}

// Default returns the configuration written on first run
func Default(apiEndpoint string) Config {
	return Config{
		APIEndpoint:         apiEndpoint,
		HealthCheckInterval: DefaultHealthCheckInterval,
		RequestTimeout:      DefaultRequestTimeout,
		RetryInterval:       DefaultRetryInterval,
		LogBatchSize:        DefaultLogBatchSize,
	}
}

func parseDuration(name, val, fallback string) (time.Duration, error) {
	if val == "" {
		val = fallback
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %s", name)
	}
	if d <= 0 {
		return 0, errors.Errorf("%s must be positive, got %s", name, val)
	}

	return d, nil
}

// HealthCheckEvery returns the parsed health check interval
func (c Config) HealthCheckEvery() (time.Duration, error) {
	return parseDuration("healthCheckInterval", c.HealthCheckInterval, DefaultHealthCheckInterval)
}

// RequestTimeoutDuration returns the parsed request timeout
func (c Config) RequestTimeoutDuration() (time.Duration, error) {
	return parseDuration("requestTimeout", c.RequestTimeout, DefaultRequestTimeout)
}

// RetryEvery returns the parsed retry interval
func (c Config) RetryEvery() (time.Duration, error) {
	return parseDuration("retryInterval", c.RetryInterval, DefaultRetryInterval)
}

// BatchSize returns the log batch size, falling back to the default
func (c Config) BatchSize() int {
	if c.LogBatchSize <= 0 {
		return DefaultLogBatchSize
	}

	return c.LogBatchSize
}

// Validate checks that every value can be used
func (c Config) Validate() error {
	if _, err := c.HealthCheckEvery(); err != nil {
		return err
	}
	if _, err := c.RequestTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.RetryEvery(); err != nil {
		return err
	}
	if c.LogBatchSize < 0 {
		return errors.Errorf("logBatchSize must not be negative, got %d", c.LogBatchSize)
	}

	return nil
}

// Exists checks if a config file exists at the given path
func Exists(fs afero.Fs, path string) (bool, error) {
	ok, err := afero.Exists(fs, path)
	if err != nil {
		return false, errors.Wrapf(err, "checking config file at %s", path)
	}

	return ok, nil
}

// Read reads the config file
func Read(fs afero.Fs, path string) (Config, error) {
	var ret Config

	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(b, &ret); err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}
	if err := ret.Validate(); err != nil {
		return ret, errors.Wrapf(err, "invalid config at %s", path)
	}

	return ret, nil
}

// Write writes the config to the config file, creating its directory if needed
func Write(fs afero.Fs, path string, cf Config) error {
	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating the config directory")
	}
	if err := afero.WriteFile(fs, path, b, os.FileMode(0644)); err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
