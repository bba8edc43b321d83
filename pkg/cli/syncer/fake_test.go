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
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/client"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// fakeRemote is an in-memory server. Writes are upserts by id.
type fakeRemote struct {
	mu sync.Mutex

	trackers    []entity.Tracker
	collections []entity.Collection
	logs        []entity.LogEntry

	// calls records the kind of every write, in order
	calls []entity.Kind
	// batches records the size of every log batch
	batches []int

	// failures are returned by the next writes, in order
	failures []error
	// lostAcks applies the next writes but reports a failure
	lostAcks int
	// failReads fails every read
	failReads error

	// onWrite is called at the start of every write
	onWrite func()
}

func (r *fakeRemote) failNext(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, errs...)
}

func (r *fakeRemote) begin(kind entity.Kind) error {
	r.mu.Lock()
	hook := r.onWrite
	r.calls = append(r.calls, kind)
	var err error
	if len(r.failures) > 0 {
		err, r.failures = r.failures[0], r.failures[1:]
	}
	r.mu.Unlock()

	if hook != nil {
		hook()
	}

	return err
}

func (r *fakeRemote) end() error {
	if r.lostAcks > 0 {
		r.lostAcks--
		return errors.New("connection reset")
	}

	return nil
}

func httpErr(status int) error {
	return &client.HTTPError{StatusCode: status, Message: http.StatusText(status)}
}

func (r *fakeRemote) hasTracker(id string) bool {
	for _, t := range r.trackers {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (r *fakeRemote) CreateTracker(ctx context.Context, t entity.Tracker) (entity.Tracker, error) {
	if err := r.begin(entity.KindTracker); err != nil {
		return entity.Tracker{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t.PendingSync = false
	replaced := false
	for i := range r.trackers {
		if r.trackers[i].ID == t.ID {
			r.trackers[i] = t
			replaced = true
		}
	}
	if !replaced {
		r.trackers = append(r.trackers, t)
	}

	return t, r.end()
}

func (r *fakeRemote) UpdateTracker(ctx context.Context, id string, patch entity.TrackerPatch) (entity.Tracker, error) {
	if err := r.begin(entity.KindTracker); err != nil {
		return entity.Tracker{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.trackers {
		if r.trackers[i].ID == id {
			r.trackers[i] = patch.Apply(r.trackers[i])
			return r.trackers[i], nil
		}
	}

	return entity.Tracker{}, httpErr(http.StatusNotFound)
}

func (r *fakeRemote) DeleteTracker(ctx context.Context, id string) error {
	if err := r.begin(entity.KindTracker); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasTracker(id) {
		return httpErr(http.StatusNotFound)
	}

	trackers := []entity.Tracker{}
	for _, t := range r.trackers {
		if t.ID != id {
			trackers = append(trackers, t)
		}
	}
	r.trackers = trackers

	logs := []entity.LogEntry{}
	for _, l := range r.logs {
		if l.TrackerID != id {
			logs = append(logs, l)
		}
	}
	r.logs = logs

	return nil
}

func (r *fakeRemote) GetAllTrackers(ctx context.Context) ([]entity.Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReads != nil {
		return nil, r.failReads
	}
	return append([]entity.Tracker{}, r.trackers...), nil
}

func (r *fakeRemote) CreateCollection(ctx context.Context, c entity.Collection) (entity.Collection, error) {
	if err := r.begin(entity.KindCollection); err != nil {
		return entity.Collection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range c.TrackerIDs {
		if !r.hasTracker(id) {
			return entity.Collection{}, httpErr(http.StatusUnprocessableEntity)
		}
	}

	c.PendingSync = false
	for i := range r.collections {
		if r.collections[i].ID == c.ID {
			r.collections[i] = c
			return c, r.end()
		}
	}
	r.collections = append(r.collections, c)

	return c, r.end()
}

func (r *fakeRemote) UpdateCollection(ctx context.Context, id string, patch entity.CollectionPatch) (entity.Collection, error) {
	if err := r.begin(entity.KindCollection); err != nil {
		return entity.Collection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.collections {
		if r.collections[i].ID == id {
			r.collections[i] = patch.Apply(r.collections[i])
			return r.collections[i], nil
		}
	}

	return entity.Collection{}, httpErr(http.StatusNotFound)
}

func (r *fakeRemote) DeleteCollection(ctx context.Context, id string) error {
	if err := r.begin(entity.KindCollection); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	collections := []entity.Collection{}
	found := false
	for _, c := range r.collections {
		if c.ID == id {
			found = true
			continue
		}
		collections = append(collections, c)
	}
	if !found {
		return httpErr(http.StatusNotFound)
	}
	r.collections = collections

	for i := range r.logs {
		if r.logs[i].CollectionID != nil && *r.logs[i].CollectionID == id {
			r.logs[i].CollectionID = nil
		}
	}

	return nil
}

func (r *fakeRemote) GetAllCollections(ctx context.Context) ([]entity.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReads != nil {
		return nil, r.failReads
	}
	return append([]entity.Collection{}, r.collections...), nil
}

func (r *fakeRemote) LogEntries(ctx context.Context, entries []entity.LogEntry) ([]entity.LogEntry, error) {
	if err := r.begin(entity.KindLog); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches = append(r.batches, len(entries))

	// Atomic: reject the whole batch if any entry is invalid
	for _, l := range entries {
		if !r.hasTracker(l.TrackerID) {
			return nil, httpErr(http.StatusUnprocessableEntity)
		}
	}

	for _, l := range entries {
		l.PendingSync = false
		replaced := false
		for i := range r.logs {
			if r.logs[i].ID == l.ID {
				r.logs[i] = l
				replaced = true
			}
		}
		if !replaced {
			r.logs = append(r.logs, l)
		}
	}

	return entries, r.end()
}

func (r *fakeRemote) DeleteLog(ctx context.Context, id string) error {
	if err := r.begin(entity.KindLog); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	logs := []entity.LogEntry{}
	found := false
	for _, l := range r.logs {
		if l.ID == id {
			found = true
			continue
		}
		logs = append(logs, l)
	}
	if !found {
		return httpErr(http.StatusNotFound)
	}
	r.logs = logs

	return nil
}

func (r *fakeRemote) GetAllLogs(ctx context.Context) ([]entity.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failReads != nil {
		return nil, r.failReads
	}
	return append([]entity.LogEntry{}, r.logs...), nil
}

func (r *fakeRemote) counts() (int, int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.trackers), len(r.collections), len(r.logs)
}

// fakeMonitor is a connectivity flag flipped by tests
type fakeMonitor struct {
	mu        sync.Mutex
	connected bool
	subs      []chan bool
}

func (m *fakeMonitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.connected
}

func (m *fakeMonitor) Check(ctx context.Context) bool {
	return m.IsConnected()
}

func (m *fakeMonitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 8)
	m.subs = append(m.subs, ch)

	return ch, func() {}
}

func (m *fakeMonitor) set(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected == connected {
		return
	}
	m.connected = connected
	for _, ch := range m.subs {
		ch <- connected
	}
}

type testEnv struct {
	db      *database.DB
	engine  *Engine
	remote  *fakeRemote
	monitor *fakeMonitor
	queue   *queue.Queue
	cache   *cache.Store
	clock   *clock.Mock
}

func newTestEnv(t *testing.T, connected bool) *testEnv {
	t.Helper()

	db := database.InitTestMemoryDB(t)
	c := cache.New(db)
	clk := clock.NewMock()
	q := queue.New(db, c, clk)
	remote := &fakeRemote{}
	monitor := &fakeMonitor{connected: connected}

	e := New(Params{
		DB:       db,
		DeviceID: "device-1",
		Remote:   remote,
		Monitor:  monitor,
		Queue:    q,
		Cache:    c,
		Clock:    clk,
	})

	return &testEnv{db: db, engine: e, remote: remote, monitor: monitor, queue: q, cache: c, clock: clk}
}

func testID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func newTracker(n int, text string, typ entity.TrackerType) entity.Tracker {
	return entity.Tracker{ID: testID(n), DeviceID: "device-1", Text: text, Type: typ}
}

func newLog(n int, trackerID string, v entity.LogValue) entity.LogEntry {
	g := entity.Morning
	return entity.LogEntry{
		ID:          testID(n),
		DeviceID:    "device-1",
		TrackerID:   trackerID,
		CreatedAt:   int64(1700000000000 + n),
		Value:       v,
		TimeKind:    entity.TimeGeneral,
		GeneralTime: &g,
		Date:        "2024-01-05",
	}
}

func mustEnqueue(t *testing.T, q *queue.Queue, entities ...entity.Entity) {
	t.Helper()

	for _, e := range entities {
		if err := q.Enqueue(e); err != nil {
			t.Fatal(errors.Wrap(err, "enqueueing"))
		}
	}
}

func mustLen(t *testing.T, q *queue.Queue) int {
	t.Helper()

	n, err := q.Len()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting queue"))
	}

	return n
}
