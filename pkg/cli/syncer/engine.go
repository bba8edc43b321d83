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

// Package syncer keeps the local cache and the pending write queue in step
// with the server. Writes go to the server right away when it is reachable
// and are queued otherwise; queued writes are replayed when connectivity
// returns.
package syncer

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/habitlog/habitlog/pkg/cli/cache"
	"github.com/habitlog/habitlog/pkg/cli/database"
	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/clock"
	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

var (
	// ErrOffline is returned by operations that need the server when it is unreachable
	ErrOffline = errors.New("not connected to the server")
	// ErrNotSynced is returned when editing or deleting an entity that has not reached the server yet
	ErrNotSynced = errors.New("not synced with the server yet")
)

// Remote is the server API used by the engine
type Remote interface {
	CreateTracker(ctx context.Context, t entity.Tracker) (entity.Tracker, error)
	UpdateTracker(ctx context.Context, id string, patch entity.TrackerPatch) (entity.Tracker, error)
	DeleteTracker(ctx context.Context, id string) error
	GetAllTrackers(ctx context.Context) ([]entity.Tracker, error)

	CreateCollection(ctx context.Context, c entity.Collection) (entity.Collection, error)
	UpdateCollection(ctx context.Context, id string, patch entity.CollectionPatch) (entity.Collection, error)
	DeleteCollection(ctx context.Context, id string) error
	GetAllCollections(ctx context.Context) ([]entity.Collection, error)

	LogEntries(ctx context.Context, entries []entity.LogEntry) ([]entity.LogEntry, error)
	DeleteLog(ctx context.Context, id string) error
	GetAllLogs(ctx context.Context) ([]entity.LogEntry, error)
}

// Connectivity tells whether the server is reachable
type Connectivity interface {
	IsConnected() bool
	Check(ctx context.Context) bool
	Subscribe() (<-chan bool, func())
}

// State is the state of the engine
type State int

const (
	// StateIdle means nothing is being sent
	StateIdle State = iota
	// StateFlushing means queued writes are being replayed
	StateFlushing
	// StateWaitingForConnectivity means writes are queued and the server is unreachable
	StateWaitingForConnectivity
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFlushing:
		return "flushing"
	case StateWaitingForConnectivity:
		return "waiting for connectivity"
	}

	return "unknown"
}

// Config holds the tunables of the engine
type Config struct {
	// BatchSize is the maximum number of log entries sent in one request
	BatchSize int
	// RequestTimeout bounds every request to the server
	RequestTimeout time.Duration
	// RetryInterval is the time between two attempts at flushing writes
	// left behind by a failed pass
	RetryInterval time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BatchSize:      50,
		RequestTimeout: 10 * time.Second,
		RetryInterval:  time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}

	return c
}

// Params holds the dependencies of an Engine
type Params struct {
	DB       *database.DB
	DeviceID string
	Remote   Remote
	Monitor  Connectivity
	Queue    *queue.Queue
	Cache    *cache.Store
	Clock    clock.Clock
	Logger   log.Logger
	Config   Config
}

// Engine synchronizes the device with the server
type Engine struct {
	db       *database.DB
	deviceID string
	remote   Remote
	monitor  Connectivity
	queue    *queue.Queue
	cache    *cache.Store
	clock    clock.Clock
	logger   log.Logger
	config   Config

	// flushMu serializes flush passes
	flushMu sync.Mutex
	// cacheMu orders cache refreshes with the promotion of confirmed writes,
	// so that a refresh fetched before a confirmation cannot overwrite it.
	cacheMu sync.Mutex

	mu    sync.Mutex
	state State

	kick chan struct{}
}

// New returns an engine. It does nothing in the background until Run is called.
func New(p Params) *Engine {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Logger == nil {
		p.Logger = log.Discard()
	}

	return &Engine{
		db:       p.DB,
		deviceID: p.DeviceID,
		remote:   p.Remote,
		monitor:  p.Monitor,
		queue:    p.Queue,
		cache:    p.Cache,
		clock:    p.Clock,
		logger:   p.Logger,
		config:   p.Config.withDefaults(),
		kick:     make(chan struct{}, 1),
	}
}

// State returns the current state of the engine
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != s {
		e.logger.Debug("sync engine: %s -> %s", e.state, s)
	}
	e.state = s
}

// settle sets the resting state according to the queue and connectivity
func (e *Engine) settle() {
	n, err := e.queue.Len()
	if err != nil {
		e.logger.Warnf("counting pending writes: %s", err)
		return
	}

	if n > 0 && !e.monitor.IsConnected() {
		e.setState(StateWaitingForConnectivity)
	} else {
		e.setState(StateIdle)
	}
}

// requestFlush asks the Run loop for a flush pass. Requests made while one
// is already pending are merged.
func (e *Engine) requestFlush() {
	select {
	case e.kick <- struct{}{}:
	default:
	}
}

// Run flushes the queue whenever the device becomes connected, when new
// writes are queued while connected, and periodically while writes are left
// behind. It returns when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	changes, cancel := e.monitor.Subscribe()
	defer cancel()

	scheduler := cron.New()
	spec := "@every " + e.config.RetryInterval.String()
	if err := scheduler.AddFunc(spec, e.requestFlush); err != nil {
		return errors.Wrapf(err, "scheduling retries with '%s'", spec)
	}
	scheduler.Start()
	defer scheduler.Stop()

	e.monitor.Check(ctx)
	e.flushIfPending(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case connected, ok := <-changes:
			if !ok {
				return nil
			}
			if connected {
				e.flushIfPending(ctx)
			} else {
				e.settle()
			}
		case <-e.kick:
			e.flushIfPending(ctx)
		}
	}
}

func (e *Engine) flushIfPending(ctx context.Context) {
	n, err := e.queue.Len()
	if err != nil {
		e.logger.Warnf("counting pending writes: %s", err)
		return
	}
	if n == 0 {
		e.settle()
		return
	}
	if !e.monitor.IsConnected() {
		e.setState(StateWaitingForConnectivity)
		return
	}

	res, err := e.Flush(ctx)
	if err != nil {
		e.logger.Warnf("flushing pending writes: %s", err)
		return
	}
	if res.LastError != nil {
		e.logger.Debug("flush stopped with %d writes left: %s", res.Remaining, res.LastError)
	}
}

func (e *Engine) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.RequestTimeout)
}

// Refresh replaces the cache of each given kind with the server's full
// snapshot. A kind whose snapshot cannot be read keeps its cache.
func (e *Engine) Refresh(ctx context.Context, kinds ...entity.Kind) error {
	if len(kinds) == 0 {
		kinds = entity.Kinds
	}

	var firstErr error
	for _, k := range kinds {
		if err := e.refreshKind(ctx, k); err != nil {
			e.logger.Debug("refreshing %s: %s", k, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}

	return e.saveLastSync()
}

func (e *Engine) refreshKind(ctx context.Context, kind entity.Kind) error {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	ctx, cancel := e.requestCtx(ctx)
	defer cancel()

	var items []entity.Entity
	switch kind {
	case entity.KindTracker:
		ts, err := e.remote.GetAllTrackers(ctx)
		if err != nil {
			return err
		}
		for _, t := range ts {
			items = append(items, t)
		}
	case entity.KindCollection:
		cs, err := e.remote.GetAllCollections(ctx)
		if err != nil {
			return err
		}
		for _, c := range cs {
			items = append(items, c)
		}
	case entity.KindLog:
		ls, err := e.remote.GetAllLogs(ctx)
		if err != nil {
			return err
		}
		for _, l := range ls {
			items = append(items, l)
		}
	default:
		return errors.Errorf("unknown kind '%s'", kind)
	}

	return errors.Wrapf(e.cache.Replace(kind, items), "caching %s", kind)
}

// confirm promotes acknowledged writes from the queue into the cache
func (e *Engine) confirm(entities ...entity.Entity) error {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	return e.queue.Confirm(entities...)
}

func (e *Engine) saveLastSync() error {
	now := strconv.FormatInt(clock.Millis(e.clock), 10)

	return database.UpsertSystem(e.db, database.SystemLastSyncAt, now)
}

// Status describes the synchronization state of the device
type Status struct {
	State      State
	Connected  bool
	Pending    map[entity.Kind]int
	Dead       map[entity.Kind]int
	LastSyncAt time.Time
}

// Status returns the synchronization state of the device
func (e *Engine) Status() (Status, error) {
	pending, err := e.queue.Counts()
	if err != nil {
		return Status{}, err
	}
	dead, err := e.queue.DeadCounts()
	if err != nil {
		return Status{}, err
	}
	lastSync, err := database.GetSystemInt(e.db, database.SystemLastSyncAt)
	if err != nil {
		return Status{}, err
	}

	ret := Status{
		State:     e.State(),
		Connected: e.monitor.IsConnected(),
		Pending:   pending,
		Dead:      dead,
	}
	if lastSync > 0 {
		ret.LastSyncAt = time.UnixMilli(lastSync)
	}

	return ret, nil
}
