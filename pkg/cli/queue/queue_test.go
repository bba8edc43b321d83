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
	"fmt"
	"testing"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

func testID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func newTracker(n int, text string) entity.Tracker {
	return entity.Tracker{ID: testID(n), DeviceID: "d1", Text: text, Type: entity.TrackerNumber}
}

func newLog(n int, trackerID string) entity.LogEntry {
	g := entity.Morning
	return entity.LogEntry{
		ID:          testID(n),
		DeviceID:    "d1",
		TrackerID:   trackerID,
		CreatedAt:   int64(1700000000000 + n),
		Value:       entity.NumberValue(float64(n)),
		TimeKind:    entity.TimeGeneral,
		GeneralTime: &g,
		Date:        "2024-01-05",
	}
}

func setup(t *testing.T) (*Queue, *cache.Store, *database.DB) {
	t.Helper()

	db := database.InitTestMemoryDB(t)
	c := cache.New(db)

	return New(db, c, clock.NewMock()), c, db
}

func mustEnqueue(t *testing.T, q *Queue, entities ...entity.Entity) {
	t.Helper()

	for _, e := range entities {
		if err := q.Enqueue(e); err != nil {
			t.Fatal(errors.Wrap(err, "enqueueing"))
		}
	}
}

func TestEnqueueSnapshot(t *testing.T) {
	q, _, _ := setup(t)

	t1 := newTracker(1, "Water")
	t2 := newTracker(2, "Sleep")
	l1 := newLog(3, t1.ID)
	c1 := entity.Collection{ID: testID(4), Name: "Morning", TrackerIDs: []string{t1.ID}}

	mustEnqueue(t, q, l1, t2, c1, t1)

	snap, err := q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}

	assert.Equal(t, snap.Len(), 4, "snapshot length mismatch")
	assert.DeepEqual(t, snap.Trackers, []entity.Tracker{t2, t1}, "trackers should be in creation order")
	assert.DeepEqual(t, snap.Collections, []entity.Collection{c1}, "collections mismatch")
	assert.DeepEqual(t, snap.Logs, []entity.LogEntry{l1}, "logs mismatch")

	counts, err := q.Counts()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.DeepEqual(t, counts, map[entity.Kind]int{entity.KindTracker: 2, entity.KindCollection: 1, entity.KindLog: 1}, "counts mismatch")
}

func TestEnqueueReplacesInPlace(t *testing.T) {
	q, _, _ := setup(t)

	mustEnqueue(t, q, newTracker(1, "one"), newTracker(2, "two"), newTracker(1, "one again"))

	snap, err := q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}

	assert.Equal(t, len(snap.Trackers), 2, "duplicate id should not add an item")
	assert.Equal(t, snap.Trackers[0].ID, testID(1), "replaced item should keep its position")
	assert.Equal(t, snap.Trackers[0].Text, "one again", "replaced item should carry the new payload")
}

func TestEnqueuePersists(t *testing.T) {
	db, path := database.InitTestFileDB(t)
	q := New(db, cache.New(db), clock.NewMock())

	mustEnqueue(t, q, newTracker(1, "Water"))
	db.Close()

	reopened, err := database.Open(path)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reopening"))
	}
	defer reopened.Close()

	n, err := New(reopened, cache.New(reopened), clock.NewMock()).Len()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.Equal(t, n, 1, "queued item should survive a restart")
}

func TestRemoveConfirmed(t *testing.T) {
	q, _, _ := setup(t)

	mustEnqueue(t, q, newTracker(1, "a"), newTracker(2, "b"), newTracker(3, "c"))

	if err := q.RemoveConfirmed(entity.KindTracker, []string{testID(1), testID(3), testID(99)}); err != nil {
		t.Fatal(errors.Wrap(err, "removing"))
	}

	snap, err := q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}
	assert.Equal(t, len(snap.Trackers), 1, "only acknowledged ids should be removed")
	assert.Equal(t, snap.Trackers[0].ID, testID(2), "remaining id mismatch")
}

func TestConfirmPromotesToCache(t *testing.T) {
	q, c, _ := setup(t)

	var events []string
	q.Watch(func(k entity.Kind) { events = append(events, "queue:"+string(k)) })
	c.Watch(func(k entity.Kind) { events = append(events, "cache:"+string(k)) })

	tr := newTracker(1, "Water")
	mustEnqueue(t, q, tr)
	events = nil

	if err := q.Confirm(tr); err != nil {
		t.Fatal(errors.Wrap(err, "confirming"))
	}

	has, err := q.Has(entity.KindTracker, tr.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking queue"))
	}
	assert.Equal(t, has, false, "confirmed item should leave the queue")

	_, cached, err := c.Get(entity.KindTracker, tr.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking cache"))
	}
	assert.Equal(t, cached, true, "confirmed item should be cached")
	assert.DeepEqual(t, events, []string{"queue:trackers", "cache:trackers"}, "notifications mismatch")
}

func TestConfirmKeepsNewerPayload(t *testing.T) {
	q, _, _ := setup(t)

	sent := newTracker(1, "Water")
	mustEnqueue(t, q, sent)

	// The payload is replaced while the first copy is in flight
	mustEnqueue(t, q, newTracker(1, "Water 2"))

	if err := q.Confirm(sent); err != nil {
		t.Fatal(errors.Wrap(err, "confirming"))
	}

	snap, err := q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}
	assert.Equal(t, len(snap.Trackers), 1, "newer payload should stay queued")
	assert.Equal(t, snap.Trackers[0].Text, "Water 2", "payload mismatch")
}

func TestClear(t *testing.T) {
	q, _, _ := setup(t)

	mustEnqueue(t, q, newTracker(1, "a"), newLog(2, testID(1)))

	if err := q.Clear(); err != nil {
		t.Fatal(errors.Wrap(err, "clearing"))
	}

	n, err := q.Len()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting"))
	}
	assert.Equal(t, n, 0, "queue should be empty")
}

func TestBuryAndRequeue(t *testing.T) {
	q, _, _ := setup(t)

	bad := newLog(1, testID(50))
	good := newLog(2, testID(50))
	mustEnqueue(t, q, bad, good)

	if err := q.Bury(bad, "tracker not found"); err != nil {
		t.Fatal(errors.Wrap(err, "burying"))
	}

	snap, err := q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}
	assert.DeepEqual(t, snap.Logs, []entity.LogEntry{good}, "buried item should leave the queue")

	dead, err := q.DeadLetters()
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing dead letters"))
	}
	assert.Equal(t, len(dead), 1, "dead letter count mismatch")
	assert.Equal(t, dead[0].ID, bad.ID, "dead letter id mismatch")
	assert.Equal(t, dead[0].Kind, entity.KindLog, "dead letter kind mismatch")
	assert.Equal(t, dead[0].Reason, "tracker not found", "dead letter reason mismatch")
	assert.Equal(t, dead[0].FailedAt, clock.Millis(clock.NewMock()), "dead letter time mismatch")

	if err := q.Requeue(entity.KindLog, bad.ID); err != nil {
		t.Fatal(errors.Wrap(err, "requeueing"))
	}

	snap, err = q.Snapshot()
	if err != nil {
		t.Fatal(errors.Wrap(err, "snapshotting"))
	}
	assert.DeepEqual(t, snap.Logs, []entity.LogEntry{good, bad}, "requeued item should go to the end")

	dead, err = q.DeadLetters()
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing dead letters"))
	}
	assert.Equal(t, len(dead), 0, "dead letter should be removed")

	err = q.Requeue(entity.KindLog, bad.ID)
	assert.Equal(t, errors.Is(err, ErrNotFound), true, "requeueing a missing item should fail")
}
