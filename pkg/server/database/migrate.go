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


package database

import (
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/habitlog/habitlog/pkg/server/database/migrations"
	"github.com/habitlog/habitlog/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type migration struct {
	filename string
	version  int
}

// parseMigrationFilename returns the version of a file named NNN-description.sql
func parseMigrationFilename(name string) (int, error) {
	base, ok := strings.CutSuffix(name, ".sql")
	if !ok {
		return 0, errors.Errorf("invalid migration filename %s: must end with .sql", name)
	}

	version, description, ok := strings.Cut(base, "-")
	if !ok {
		return 0, errors.Errorf("invalid migration filename %s: must be NNN-description.sql", name)
	}
	if len(version) != 3 || strings.Trim(version, "0123456789") != "" {
		return 0, errors.Errorf("invalid migration filename %s: version must be 3 digits", name)
	}
	if description == "" {
		return 0, errors.Errorf("invalid migration filename %s: description is required", name)
	}

	v, err := strconv.Atoi(version)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing version of %s", name)
	}

	return v, nil
}

// Migrate applies the embedded migrations that have not run yet
func Migrate(db *gorm.DB) error {
	return migrate(db, migrations.Files)
}

// listMigrations reads the migration files ordered by version
func listMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading migration directory")
	}

	var ret []migration
	seen := map[int]string{}
	for _, e := range entries {
		v, err := parseMigrationFilename(e.Name())
		if err != nil {
			return nil, err
		}
		if existing, ok := seen[v]; ok {
			return nil, errors.Errorf("duplicate migration version %d: %s and %s", v, existing, e.Name())
		}
		seen[v] = e.Name()

		ret = append(ret, migration{filename: e.Name(), version: v})
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].version < ret[j].version
	})

	return ret, nil
}

func currentVersion(db *gorm.DB) (int, error) {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		return 0, errors.Wrap(err, "initializing migration table")
	}

	var version int
	if err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version).Error; err != nil {
		return 0, errors.Wrap(err, "reading current version")
	}

	return version, nil
}

func apply(db *gorm.DB, fsys fs.FS, m migration) error {
	sql, err := fs.ReadFile(fsys, m.filename)
	if err != nil {
		return errors.Wrapf(err, "reading migration file %s", m.filename)
	}
	if strings.TrimSpace(string(sql)) == "" {
		return errors.Errorf("migration file %s is empty", m.filename)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(sql)).Error; err != nil {
			return errors.Wrapf(err, "running migration %s", m.filename)
		}
		if err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version).Error; err != nil {
			return errors.Wrapf(err, "recording migration %s", m.filename)
		}

		return nil
	})
}

// migrate applies the migrations of the given filesystem newer than the
// recorded schema version
func migrate(db *gorm.DB, fsys fs.FS) error {
	version, err := currentVersion(db)
	if err != nil {
		return err
	}

	list, err := listMigrations(fsys)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"version": version,
		"files":   len(list),
	}).Debug("Database schema version.")

	for _, m := range list {
		if m.version <= version {
			continue
		}

		if err := apply(db, fsys, m); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"file": m.filename,
		}).Info("Applied migration.")
	}

	return nil
}
