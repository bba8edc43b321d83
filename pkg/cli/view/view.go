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

// Package view merges the cache of server state with the pending write queue
// into the single list of entities the user sees.
package view

import (
	"sync"

	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/entity"
)

// View is the merged, read-only view over the cache and the queue
type View struct {
	cache *cache.Store
	queue *queue.Queue

	mu   sync.Mutex
	subs map[int]chan entity.Kind
	next int
}

// New returns a view over the given cache and queue. It subscribes to their
// changes to notify its own subscribers.
func New(c *cache.Store, q *queue.Queue) *View {
	v := &View{
		cache: c,
		queue: q,
		subs:  map[int]chan entity.Kind{},
	}

	c.Watch(v.publish)
	q.Watch(v.publish)

	return v
}

func (v *View) publish(k entity.Kind) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, ch := range v.subs {
		// Subscribers only need to know that a kind changed, so a full
		// buffer already holding a notification is as good as a new one.
		select {
		case ch <- k:
		default:
		}
	}
}

// Subscribe returns a channel receiving the kind of every change, and a
// function to cancel the subscription.
func (v *View) Subscribe() (<-chan entity.Kind, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++

	ch := make(chan entity.Kind, len(entity.Kinds)*4)
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()

			delete(v.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// List returns the cached entities of a kind followed by the queued ones.
// Queued entities are flagged as pending. An id present in both appears once,
// at its cached position, with the queued copy.
func (v *View) List(kind entity.Kind) ([]entity.Entity, error) {
	cached, err := v.cache.List(kind)
	if err != nil {
		return nil, err
	}
	pending, err := v.queue.List(kind)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	ret := make([]entity.Entity, 0, len(cached)+len(pending))
	for _, e := range cached {
		if _, ok := index[e.EntityID()]; ok {
			continue
		}
		index[e.EntityID()] = len(ret)
		ret = append(ret, e)
	}

	for _, e := range pending {
		p := entity.MarkPending(e)
		if i, ok := index[e.EntityID()]; ok {
			ret[i] = p
			continue
		}
		index[e.EntityID()] = len(ret)
		ret = append(ret, p)
	}

	return ret, nil
}

// Trackers returns the merged trackers
func (v *View) Trackers() ([]entity.Tracker, error) {
	items, err := v.List(entity.KindTracker)
	if err != nil {
		return nil, err
	}

	ret := make([]entity.Tracker, 0, len(items))
	for _, e := range items {
		ret = append(ret, e.(entity.Tracker))
	}

	return ret, nil
}

// Collections returns the merged collections
func (v *View) Collections() ([]entity.Collection, error) {
	items, err := v.List(entity.KindCollection)
	if err != nil {
		return nil, err
	}

	ret := make([]entity.Collection, 0, len(items))
	for _, e := range items {
		ret = append(ret, e.(entity.Collection))
	}

	return ret, nil
}

// Logs returns the merged log entries
func (v *View) Logs() ([]entity.LogEntry, error) {
	items, err := v.List(entity.KindLog)
	if err != nil {
		return nil, err
	}

	ret := make([]entity.LogEntry, 0, len(items))
	for _, e := range items {
		ret = append(ret, e.(entity.LogEntry))
	}

	return ret, nil
}

// Tracker finds a tracker by id in the merged view
func (v *View) Tracker(id string) (entity.Tracker, bool, error) {
	items, err := v.Trackers()
	if err != nil {
		return entity.Tracker{}, false, err
	}

	for _, t := range items {
		if t.ID == id {
			return t, true, nil
		}
	}

	return entity.Tracker{}, false, nil
}
