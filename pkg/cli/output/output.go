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

// Package output prints trackers, collections and log entries
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/habitlog/habitlog/pkg/cli/queue"
	"github.com/habitlog/habitlog/pkg/cli/syncer"
	"github.com/habitlog/habitlog/pkg/entity"
)

const timeFormat = "Jan 2, 2006 3:04pm (MST)"

// ShortID returns the leading part of an id, enough to address it in commands
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}

// item prints a line, greyed out with a pending marker if it has not
// reached the server yet
func item(pending bool, msg string, v ...interface{}) {
	if pending {
		log.Pending(msg+" %s\n", append(v, log.ColorGray.Sprint("(pending)"))...)
		return
	}

	log.Plainf("  "+msg+"\n", v...)
}

// Tracker prints a one line summary of a tracker
func Tracker(t entity.Tracker) {
	pin := ""
	if t.Pinned {
		pin = " *"
	}

	item(t.PendingSync, "%s %s [%s]%s", log.ColorBlue.Sprint(ShortID(t.ID)), t.Text, t.Type, pin)
}

// TrackerInfo prints the details of a tracker
func TrackerInfo(t entity.Tracker) {
	log.Infof("tracker: %s\n", t.Text)
	log.Infof("id: %s\n", t.ID)
	log.Infof("type: %s\n", t.Type)
	if t.DefaultTime != nil {
		log.Infof("default time: %s\n", *t.DefaultTime)
	}
	if len(t.Options) > 0 {
		log.Infof("options: %s\n", strings.Join(t.Options, ", "))
	}
	if t.PendingSync {
		log.Pending("not synced yet\n")
	}
}

// Collection prints a one line summary of a collection
func Collection(c entity.Collection) {
	item(c.PendingSync, "%s %s (%d trackers)", log.ColorBlue.Sprint(ShortID(c.ID)), c.Name, len(c.TrackerIDs))
}

// LogEntry prints a one line summary of a log entry. names maps tracker ids
// to their text.
func LogEntry(l entity.LogEntry, names map[string]string) {
	when := l.Date
	switch {
	case l.GeneralTime != nil:
		when += " " + string(*l.GeneralTime)
	case l.ExactTime != nil:
		when += " " + *l.ExactTime
	}

	name, ok := names[l.TrackerID]
	if !ok {
		name = ShortID(l.TrackerID)
	}

	item(l.PendingSync, "%s %s %s: %s", log.ColorBlue.Sprint(ShortID(l.ID)), log.ColorGray.Sprint(when), name, l.Value)
}

func counts(m map[entity.Kind]int) string {
	parts := make([]string, 0, len(entity.Kinds))
	for _, k := range entity.Kinds {
		parts = append(parts, fmt.Sprintf("%d %s", m[k], k))
	}

	return strings.Join(parts, ", ")
}

// Status prints the synchronization state of the device
func Status(deviceID string, online bool, s syncer.Status) {
	log.Infof("device: %s\n", deviceID)

	switch {
	case !online:
		log.Warnf("server: not configured, working offline\n")
	case s.Connected:
		log.Successf("server: connected\n")
	default:
		log.Warnf("server: unreachable\n")
	}

	log.Infof("engine: %s\n", s.State)
	log.Infof("pending: %s\n", counts(s.Pending))

	dead := 0
	for _, n := range s.Dead {
		dead += n
	}
	if dead > 0 {
		log.Warnf("rejected: %s\n", counts(s.Dead))
	}

	if s.LastSyncAt.IsZero() {
		log.Infof("last sync: never\n")
	} else {
		log.Infof("last sync: %s\n", s.LastSyncAt.Format(timeFormat))
	}
}

// DeadLetter prints a write rejected by the server
func DeadLetter(d queue.DeadLetter) {
	log.Errorf("%s %s %s: %s\n", d.Kind, log.ColorBlue.Sprint(ShortID(d.ID)), time.UnixMilli(d.FailedAt).Format(timeFormat), d.Reason)
}

// FlushResult prints the outcome of a flush pass
func FlushResult(r syncer.Result) {
	if r.Confirmed > 0 {
		log.Successf("sent %d pending writes\n", r.Confirmed)
	}
	if r.DeadLettered > 0 {
		log.Warnf("%d writes were rejected, see 'habitlog sync dead'\n", r.DeadLettered)
	}
	if r.Remaining > 0 {
		log.Warnf("%d writes are still pending\n", r.Remaining)
	}
}
