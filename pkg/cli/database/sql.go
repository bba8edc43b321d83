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

// Package database owns the local SQLite database of the device: the system
// key-value table, the cache of server state, the pending write queue and the
// dead-letter record.
package database

import (
	"database/sql"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLCommon is the interface shared by a connection and a transaction
type SQLCommon interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// DB is a handle to the local database. It holds either the connection pool
// or a transaction begun from it.
type DB struct {
	Conn     SQLCommon
	Filepath string
}

// Open opens the database at the given path and brings its schema up to date
func Open(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening db connection")
	}

	// A single connection serializes writers, and keeps a shared-cache
	// in-memory database alive for the lifetime of the handle.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	db := &DB{Conn: conn, Filepath: dbPath}
	if err := Migrate(db); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrating")
	}

	return db, nil
}

// Begin begins a transaction
func (d *DB) Begin() (*DB, error) {
	conn, ok := d.Conn.(*sql.DB)
	if !ok {
		return nil, errors.New("cannot begin a transaction within a transaction")
	}

	tx, err := conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}

	return &DB{Conn: tx, Filepath: d.Filepath}, nil
}

// Commit commits the transaction
func (d *DB) Commit() error {
	tx, ok := d.Conn.(*sql.Tx)
	if !ok {
		return errors.New("not in a transaction")
	}

	return errors.Wrap(tx.Commit(), "committing")
}

// Rollback rolls back the transaction
func (d *DB) Rollback() error {
	tx, ok := d.Conn.(*sql.Tx)
	if !ok {
		return errors.New("not in a transaction")
	}

	return tx.Rollback()
}

// Exec executes a query without returning rows
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.Conn.Exec(query, args...)
}

// Query executes a query returning rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return d.Conn.Query(query, args...)
}

// QueryRow executes a query returning at most one row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return d.Conn.QueryRow(query, args...)
}

// Close closes the connection pool
func (d *DB) Close() error {
	conn, ok := d.Conn.(*sql.DB)
	if !ok {
		return errors.New("cannot close a transaction")
	}

	return conn.Close()
}

// InTx runs fn in a transaction, committing if it returns nil
func (d *DB) InTx(fn func(tx *DB) error) error {
	tx, err := d.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
