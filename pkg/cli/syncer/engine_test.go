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

package syncer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

func TestCreateTrackerOnline(t *testing.T) {
	env := newTestEnv(t, true)

	tr, err := env.engine.CreateTracker(context.Background(), entity.Tracker{Text: "Water", Type: entity.TrackerNumber})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating tracker"))
	}

	assert.Equal(t, entity.ValidateID(tr.ID), true, "id should be minted")
	assert.Equal(t, tr.DeviceID, "device-1", "device id should be stamped")
	assert.Equal(t, tr.PendingSync, false, "tracker should not be pending")
	assert.Equal(t, mustLen(t, env.queue), 0, "an online write should never be queued")

	_, ok, err := env.cache.Get(entity.KindTracker, tr.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading cache"))
	}
	assert.Equal(t, ok, true, "cache should be refreshed")

	lastSync, err := database.GetSystemInt(env.db, database.SystemLastSyncAt)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading last sync"))
	}
	assert.Equal(t, lastSync, clock.Millis(env.clock), "last sync time mismatch")
}

func TestCreateTrackerOffline(t *testing.T) {
	env := newTestEnv(t, false)

	tr, err := env.engine.CreateTracker(context.Background(), entity.Tracker{Text: "Water", Type: entity.TrackerNumber})
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating tracker"))
	}

	assert.Equal(t, tr.PendingSync, true, "tracker should be pending")
	assert.Equal(t, len(env.remote.calls), 0, "nothing should be sent")

	has, err := env.queue.Has(entity.KindTracker, tr.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking queue"))
	}
	assert.Equal(t, has, true, "tracker should be queued")
}

func TestCreateTrackerRetryableFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.remote.failNext(httpErr(http.StatusBadGateway))

	tr, err := env.engine.CreateTracker(context.Background(), entity.Tracker{Text: "Water", Type: entity.TrackerNumber})
	if err != nil {
		t.Fatal(errors.Wrap(err, "a retryable failure should not reach the caller"))
	}

	assert.Equal(t, tr.PendingSync, true, "tracker should be pending")
	assert.Equal(t, mustLen(t, env.queue), 1, "tracker should be queued")
}

func TestCreateTrackerRejected(t *testing.T) {
	env := newTestEnv(t, true)
	env.remote.failNext(httpErr(http.StatusUnprocessableEntity))

	_, err := env.engine.CreateTracker(context.Background(), entity.Tracker{Text: "Water", Type: entity.TrackerNumber})

	assert.Equal(t, client.IsTerminal(err), true, "a rejection should reach the caller")
	assert.Equal(t, mustLen(t, env.queue), 0, "a rejected write should not be queued")
}

func TestCreateTrackerInvalid(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.engine.CreateTracker(context.Background(), entity.Tracker{Text: "", Type: entity.TrackerNumber})

	assert.Equal(t, errors.Is(err, entity.ErrInvalid), true, "invalid tracker should be rejected locally")
	assert.Equal(t, len(env.remote.calls), 0, "nothing should be sent")
}

func TestCreateQueuesBehindPendingWrites(t *testing.T) {
	env := newTestEnv(t, true)

	pending := newTracker(1, "Water", entity.TrackerNumber)
	mustEnqueue(t, env.queue, pending)

	l, err := env.engine.LogEntry(context.Background(), entity.LogEntry{TrackerID: pending.ID, Value: entity.NumberValue(2)})
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging"))
	}

	assert.Equal(t, l.PendingSync, true, "entry should wait behind the pending tracker")
	assert.Equal(t, len(env.remote.calls), 0, "nothing should be sent ahead of the queue")

	if _, err := env.engine.Flush(context.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "flushing"))
	}
	assert.DeepEqual(t, env.remote.calls, []entity.Kind{entity.KindTracker, entity.KindLog}, "write order mismatch")
}

func TestLogEntryDefaults(t *testing.T) {
	env := newTestEnv(t, false)
	env.clock.SetNow(time.Date(2024, time.January, 5, 8, 15, 0, 0, time.UTC))

	evening := entity.Evening
	plain := newTracker(1, "Water", entity.TrackerNumber)
	withDefault := newTracker(2, "Read", entity.TrackerBoolean)
	withDefault.DefaultTime = &evening
	mustEnqueue(t, env.queue, plain, withDefault)

	l, err := env.engine.LogEntry(context.Background(), entity.LogEntry{TrackerID: plain.ID, Value: entity.NumberValue(2)})
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging"))
	}
	assert.Equal(t, l.Date, "2024-01-05", "date mismatch")
	assert.Equal(t, l.CreatedAt, int64(1704442500000), "created_at mismatch")
	assert.Equal(t, l.TimeKind, entity.TimeGeneral, "time kind mismatch")
	assert.Equal(t, *l.GeneralTime, entity.Morning, "general time should follow the clock")

	l, err = env.engine.LogEntry(context.Background(), entity.LogEntry{TrackerID: withDefault.ID, Value: entity.BoolValue(true)})
	if err != nil {
		t.Fatal(errors.Wrap(err, "logging"))
	}
	assert.Equal(t, *l.GeneralTime, entity.Evening, "general time should follow the tracker default")
}

func TestLogEntryValidation(t *testing.T) {
	env := newTestEnv(t, false)

	scale := newTracker(1, "Mood", entity.TrackerScale)
	mustEnqueue(t, env.queue, scale)

	testCases := []struct {
		name  string
		entry entity.LogEntry
	}{
		{
			name:  "unknown tracker",
			entry: entity.LogEntry{TrackerID: testID(9), Value: entity.NumberValue(2)},
		},
		{
			name:  "value out of range",
			entry: entity.LogEntry{TrackerID: scale.ID, Value: entity.NumberValue(11)},
		},
		{
			name:  "wrong value type",
			entry: entity.LogEntry{TrackerID: scale.ID, Value: entity.BoolValue(true)},
		},
		{
			name: "unknown collection",
			entry: func() entity.LogEntry {
				id := testID(8)
				return entity.LogEntry{TrackerID: scale.ID, Value: entity.NumberValue(2), CollectionID: &id}
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.LogEntry(context.Background(), tc.entry)

			assert.Equal(t, errors.Is(err, entity.ErrInvalid), true, "entry should be rejected locally")
		})
	}

	assert.Equal(t, mustLen(t, env.queue), 1, "rejected entries should not be queued")
}

func TestCreateCollectionUnknownTracker(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.engine.CreateCollection(context.Background(), entity.Collection{Name: "Morning", TrackerIDs: []string{testID(5)}})

	assert.Equal(t, errors.Is(err, entity.ErrInvalid), true, "unknown member should be rejected locally")
}

func TestOnlineOnlyOffline(t *testing.T) {
	env := newTestEnv(t, false)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	if err := env.cache.Replace(entity.KindTracker, []entity.Entity{tr}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding cache"))
	}

	text := "Sparkling water"
	ops := map[string]func() error{
		"update tracker": func() error {
			_, err := env.engine.UpdateTracker(context.Background(), tr.ID, entity.TrackerPatch{Text: &text})
			return err
		},
		"delete tracker": func() error {
			return env.engine.DeleteTracker(context.Background(), tr.ID)
		},
		"update collection": func() error {
			_, err := env.engine.UpdateCollection(context.Background(), testID(2), entity.CollectionPatch{Name: &text})
			return err
		},
		"delete collection": func() error {
			return env.engine.DeleteCollection(context.Background(), testID(2))
		},
		"delete log": func() error {
			return env.engine.DeleteLog(context.Background(), testID(3))
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()

			assert.Equal(t, errors.Is(err, ErrOffline), true, "operation should need the server")
		})
	}

	assert.Equal(t, len(env.remote.calls), 0, "nothing should be sent")
	assert.Equal(t, mustLen(t, env.queue), 0, "nothing should be queued")

	trackers, err := env.cache.List(entity.KindTracker)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing cache"))
	}
	assert.Equal(t, len(trackers), 1, "cache should be untouched")
}

func TestOnlineOnlyNotSynced(t *testing.T) {
	env := newTestEnv(t, true)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	mustEnqueue(t, env.queue, tr)

	err := env.engine.DeleteTracker(context.Background(), tr.ID)

	assert.Equal(t, errors.Is(err, ErrNotSynced), true, "pending tracker cannot be deleted")
	assert.Equal(t, len(env.remote.calls), 0, "nothing should be sent")
}

func TestDeleteTrackerRefreshesEverything(t *testing.T) {
	env := newTestEnv(t, true)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	other := newTracker(2, "Sleep", entity.TrackerNumber)
	env.remote.trackers = []entity.Tracker{tr, other}
	env.remote.logs = []entity.LogEntry{newLog(3, tr.ID, entity.NumberValue(1)), newLog(4, other.ID, entity.NumberValue(1))}
	if err := env.engine.Refresh(context.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "refreshing"))
	}

	if err := env.engine.DeleteTracker(context.Background(), tr.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	trackers, err := env.cache.List(entity.KindTracker)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing trackers"))
	}
	logs, err := env.cache.List(entity.KindLog)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing logs"))
	}

	assert.Equal(t, len(trackers), 1, "tracker should be gone from the cache")
	assert.Equal(t, len(logs), 1, "its logs should be gone from the cache")
	assert.Equal(t, logs[0].(entity.LogEntry).TrackerID, other.ID, "remaining log mismatch")
}

func TestUpdateTracker(t *testing.T) {
	env := newTestEnv(t, true)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	env.remote.trackers = []entity.Tracker{tr}

	pinned := true
	got, err := env.engine.UpdateTracker(context.Background(), tr.ID, entity.TrackerPatch{Pinned: &pinned})
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating"))
	}
	assert.Equal(t, got.Pinned, true, "returned tracker should be updated")

	cached, ok, err := env.cache.Get(entity.KindTracker, tr.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "reading cache"))
	}
	assert.Equal(t, ok, true, "tracker should be cached")
	assert.Equal(t, cached.(entity.Tracker).Pinned, true, "cached tracker should be updated")

	_, err = env.engine.UpdateTracker(context.Background(), testID(9), entity.TrackerPatch{Pinned: &pinned})
	assert.Equal(t, client.IsTerminal(err), true, "unknown tracker should be rejected")
}

func TestRefreshFailureKeepsCache(t *testing.T) {
	env := newTestEnv(t, true)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	if err := env.cache.Replace(entity.KindTracker, []entity.Entity{tr}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding cache"))
	}
	env.remote.failReads = errors.New("connection refused")

	err := env.engine.Refresh(context.Background(), entity.KindTracker)
	assert.NotEqual(t, err, nil, "refresh should fail")

	trackers, err := env.cache.List(entity.KindTracker)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing cache"))
	}
	assert.Equal(t, len(trackers), 1, "cache should be untouched")
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, false)

	mustEnqueue(t, env.queue, newTracker(1, "Water", entity.TrackerNumber), newTracker(2, "Sleep", entity.TrackerNumber))

	s, err := env.engine.Status()
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting status"))
	}

	assert.Equal(t, s.Connected, false, "connected mismatch")
	assert.Equal(t, s.Pending[entity.KindTracker], 2, "pending trackers mismatch")
	assert.Equal(t, s.Dead[entity.KindLog], 0, "dead logs mismatch")
	assert.Equal(t, s.LastSyncAt.IsZero(), true, "never synced")
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting: " + msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunFlushesOnReconnect(t *testing.T) {
	env := newTestEnv(t, false)

	mustEnqueue(t, env.queue, newTracker(1, "Water", entity.TrackerNumber))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- env.engine.Run(ctx)
	}()

	waitFor(t, "waiting state", func() bool {
		return env.engine.State() == StateWaitingForConnectivity
	})

	env.monitor.set(true)

	waitFor(t, "queue drained", func() bool {
		n, err := env.queue.Len()
		return err == nil && n == 0
	})
	waitFor(t, "idle state", func() bool {
		return env.engine.State() == StateIdle
	})

	trackers, _, _ := env.remote.counts()
	assert.Equal(t, trackers, 1, "tracker should reach the server")

	cancel()
	select {
	case err := <-done:
		assert.Equal(t, err, nil, "run should stop cleanly")
	case <-time.After(2 * time.Second):
		t.Fatal("run should stop with its context")
	}
}

func TestRunFlushesQueuedWhileConnected(t *testing.T) {
	env := newTestEnv(t, true)

	tr := newTracker(1, "Water", entity.TrackerNumber)
	env.remote.trackers = []entity.Tracker{tr}
	if err := env.cache.Replace(entity.KindTracker, []entity.Entity{tr}); err != nil {
		t.Fatal(errors.Wrap(err, "seeding cache"))
	}

	env.engine.config.RetryInterval = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.engine.Run(ctx)

	// the entry stays queued after two transient failures and is retried on schedule
	env.remote.failNext(httpErr(http.StatusServiceUnavailable), httpErr(http.StatusServiceUnavailable))
	if _, err := env.engine.LogEntry(ctx, entity.LogEntry{TrackerID: tr.ID, Value: entity.NumberValue(1)}); err != nil {
		t.Fatal(errors.Wrap(err, "logging"))
	}

	waitFor(t, "entry delivered", func() bool {
		_, _, logs := env.remote.counts()
		return logs == 1
	})
}
