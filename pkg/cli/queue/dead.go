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

package queue

import (
	"database/sql"

	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// DeadLetter is a write the server rejected as invalid. It is kept out of the
// queue so that it does not block later writes, until it is requeued.
type DeadLetter struct {
	Kind     entity.Kind
	ID       string
	Entity   entity.Entity
	Reason   string
	FailedAt int64
}

// Bury moves a rejected entity from the queue to the dead-letter record
func (q *Queue) Bury(e entity.Entity, reason string) error {
	data, err := encode(e)
	if err != nil {
		return err
	}

	kind := string(e.EntityKind())
	err = q.db.InTx(func(tx *database.DB) error {
		res, err := tx.Exec("DELETE FROM pending WHERE kind = ? AND id = ? AND data = ?", kind, e.EntityID(), data)
		if err != nil {
			return errors.Wrapf(err, "removing pending %s %s", kind, e.EntityID())
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "counting removed rows")
		}
		if n == 0 {
			return nil
		}

		if _, err := tx.Exec(`INSERT INTO dead_letters (kind, id, data, reason, failed_at) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, reason = excluded.reason, failed_at = excluded.failed_at`,
			kind, e.EntityID(), data, reason, clock.Millis(q.clock)); err != nil {
			return errors.Wrapf(err, "recording dead letter %s %s", kind, e.EntityID())
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "burying")
	}

	q.notify(e.EntityKind())

	return nil
}

// DeadLetters lists the rejected writes, oldest first
func (q *Queue) DeadLetters() ([]DeadLetter, error) {
	rows, err := q.db.Query("SELECT kind, id, data, reason, failed_at FROM dead_letters ORDER BY failed_at ASC, rowid ASC")
	if err != nil {
		return nil, errors.Wrap(err, "querying dead letters")
	}
	defer rows.Close()

	ret := []DeadLetter{}
	for rows.Next() {
		var d DeadLetter
		var kind string
		var data []byte
		if err := rows.Scan(&kind, &d.ID, &data, &d.Reason, &d.FailedAt); err != nil {
			return nil, errors.Wrap(err, "scanning dead letter")
		}

		d.Kind = entity.Kind(kind)
		if d.Entity, err = entity.Decode(d.Kind, data); err != nil {
			return nil, err
		}

		ret = append(ret, d)
	}

	return ret, errors.Wrap(rows.Err(), "iterating dead letters")
}

// DeadCounts returns the number of dead letters per kind
func (q *Queue) DeadCounts() (map[entity.Kind]int, error) {
	return countByKind(q.db, "dead_letters")
}

// Requeue moves a dead letter back to the end of the queue
func (q *Queue) Requeue(kind entity.Kind, id string) error {
	err := q.db.InTx(func(tx *database.DB) error {
		var data string
		err := tx.QueryRow("SELECT data FROM dead_letters WHERE kind = ? AND id = ?", string(kind), id).Scan(&data)
		if err == sql.ErrNoRows {
			return ErrNotFound
		} else if err != nil {
			return errors.Wrapf(err, "reading dead letter %s %s", kind, id)
		}

		if _, err := tx.Exec("DELETE FROM dead_letters WHERE kind = ? AND id = ?", string(kind), id); err != nil {
			return errors.Wrapf(err, "removing dead letter %s %s", kind, id)
		}

		if _, err := tx.Exec(`INSERT INTO pending (kind, id, data, enqueued_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (kind, id) DO NOTHING`,
			string(kind), id, data, clock.Millis(q.clock)); err != nil {
			return errors.Wrapf(err, "requeueing %s %s", kind, id)
		}

		return nil
	})
	if err != nil {
		return err
	}

	q.notify(kind)

	return nil
}
