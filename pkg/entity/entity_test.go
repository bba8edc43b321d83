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

package entity

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/habitlog/habitlog/pkg/assert"
	"github.com/pkg/errors"
)

const (
	testTrackerID    = "6c7b4a1e-0d0a-4d3f-9d0c-5b8a3b7f3a11"
	testCollectionID = "b0f1a0c2-8a2d-4f5e-9c1b-2e6f8d9a7c33"
	testLogID        = "4e1d2c3b-5a6f-4b7c-8d9e-0f1a2b3c4d55"
)

func strPtr(s string) *string {
	return &s
}

func gtPtr(g GeneralTime) *GeneralTime {
	return &g
}

func validLog() LogEntry {
	return LogEntry{
		ID:          testLogID,
		DeviceID:    "device-1",
		TrackerID:   testTrackerID,
		CreatedAt:   1700000000000,
		Value:       NumberValue(3),
		TimeKind:    TimeGeneral,
		GeneralTime: gtPtr(Morning),
		Date:        "2024-01-05",
	}
}

func TestParseKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected Kind
		ok       bool
	}{
		{input: "trackers", expected: KindTracker, ok: true},
		{input: "tracker", expected: KindTracker, ok: true},
		{input: "collections", expected: KindCollection, ok: true},
		{input: "log", expected: KindLog, ok: true},
		{input: "notes", expected: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseKind(tc.input)

			assert.Equal(t, got, tc.expected, "kind mismatch")
			assert.Equal(t, err == nil, tc.ok, "error mismatch")
		})
	}
}

func TestKindsOrder(t *testing.T) {
	assert.DeepEqual(t, Kinds, []Kind{KindTracker, KindCollection, KindLog}, "kinds order mismatch")
}

func TestGenID(t *testing.T) {
	a, err := GenID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating id"))
	}
	b, err := GenID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "generating id"))
	}

	assert.Equal(t, ValidateID(a), true, "id should be valid")
	assert.NotEqual(t, a, b, "ids should be unique")
}

func TestTrackerValidate(t *testing.T) {
	badTime := GeneralTime("noon")

	testCases := []struct {
		name    string
		tracker Tracker
		valid   bool
	}{
		{
			name:    "valid",
			tracker: Tracker{ID: testTrackerID, Text: "Water", Type: TrackerNumber},
			valid:   true,
		},
		{
			name:    "valid text-list with options",
			tracker: Tracker{ID: testTrackerID, Text: "Mood", Type: TrackerTextList, Options: []string{"happy", "sad"}},
			valid:   true,
		},
		{
			name:    "malformed id",
			tracker: Tracker{ID: "1", Text: "Water", Type: TrackerNumber},
			valid:   false,
		},
		{
			name:    "blank text",
			tracker: Tracker{ID: testTrackerID, Text: "  ", Type: TrackerNumber},
			valid:   false,
		},
		{
			name:    "unknown type",
			tracker: Tracker{ID: testTrackerID, Text: "Water", Type: "weight"},
			valid:   false,
		},
		{
			name:    "unknown default time",
			tracker: Tracker{ID: testTrackerID, Text: "Water", Type: TrackerNumber, DefaultTime: &badTime},
			valid:   false,
		},
		{
			name:    "options on a number tracker",
			tracker: Tracker{ID: testTrackerID, Text: "Water", Type: TrackerNumber, Options: []string{"a"}},
			valid:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tracker.Validate()

			assert.Equal(t, err == nil, tc.valid, fmt.Sprintf("validity mismatch: %v", err))
			if err != nil {
				assert.Equal(t, errors.Is(err, ErrInvalid), true, "error should wrap ErrInvalid")
			}
		})
	}
}

func TestCollectionValidate(t *testing.T) {
	testCases := []struct {
		name       string
		collection Collection
		valid      bool
	}{
		{
			name:       "valid",
			collection: Collection{ID: testCollectionID, Name: "Morning survey", TrackerIDs: []string{testTrackerID}},
			valid:      true,
		},
		{
			name:       "empty name",
			collection: Collection{ID: testCollectionID, Name: ""},
			valid:      false,
		},
		{
			name:       "duplicate tracker",
			collection: Collection{ID: testCollectionID, Name: "s", TrackerIDs: []string{testTrackerID, testTrackerID}},
			valid:      false,
		},
		{
			name:       "malformed tracker id",
			collection: Collection{ID: testCollectionID, Name: "s", TrackerIDs: []string{"x"}},
			valid:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.collection.Validate()

			assert.Equal(t, err == nil, tc.valid, fmt.Sprintf("validity mismatch: %v", err))
		})
	}
}

func TestLogEntryValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(l *LogEntry)
		valid  bool
	}{
		{
			name:   "valid general",
			mutate: func(l *LogEntry) {},
			valid:  true,
		},
		{
			name: "valid exact",
			mutate: func(l *LogEntry) {
				l.TimeKind = TimeExact
				l.GeneralTime = nil
				l.ExactTime = strPtr("07:30")
			},
			valid: true,
		},
		{
			name: "exact time malformed",
			mutate: func(l *LogEntry) {
				l.TimeKind = TimeExact
				l.GeneralTime = nil
				l.ExactTime = strPtr("7h30")
			},
			valid: false,
		},
		{
			name: "both times",
			mutate: func(l *LogEntry) {
				l.ExactTime = strPtr("07:30")
			},
			valid: false,
		},
		{
			name: "general without time",
			mutate: func(l *LogEntry) {
				l.GeneralTime = nil
			},
			valid: false,
		},
		{
			name: "bad date",
			mutate: func(l *LogEntry) {
				l.Date = "05/01/2024"
			},
			valid: false,
		},
		{
			name: "missing value",
			mutate: func(l *LogEntry) {
				l.Value = LogValue{}
			},
			valid: false,
		},
		{
			name: "malformed collection id",
			mutate: func(l *LogEntry) {
				l.CollectionID = strPtr("nope")
			},
			valid: false,
		},
		{
			name: "no creation time",
			mutate: func(l *LogEntry) {
				l.CreatedAt = 0
			},
			valid: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := validLog()
			tc.mutate(&l)

			err := l.Validate()
			assert.Equal(t, err == nil, tc.valid, fmt.Sprintf("validity mismatch: %v", err))
		})
	}
}

func TestDecode(t *testing.T) {
	l := validLog()
	l.Value = ListValue("happy", "tired")
	l.CollectionID = strPtr(testCollectionID)

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatal(errors.Wrap(err, "marshalling"))
	}

	e, err := Decode(KindLog, b)
	if err != nil {
		t.Fatal(errors.Wrap(err, "decoding"))
	}

	got, ok := e.(LogEntry)
	assert.Equal(t, ok, true, "decoded type mismatch")
	assert.DeepEqual(t, got, l, "decoded entry mismatch")

	if _, err := Decode("notes", b); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestMarkPending(t *testing.T) {
	tr := Tracker{ID: testTrackerID, Text: "Water", Type: TrackerNumber}

	p := MarkPending(tr)

	assert.Equal(t, IsPending(p), true, "copy should be pending")
	assert.Equal(t, tr.PendingSync, false, "original should be untouched")
}

func TestGeneralTimeAt(t *testing.T) {
	testCases := []struct {
		hour     int
		expected GeneralTime
	}{
		{hour: 6, expected: Morning},
		{hour: 12, expected: Afternoon},
		{hour: 18, expected: Evening},
		{hour: 23, expected: Night},
		{hour: 2, expected: Night},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d", tc.hour), func(t *testing.T) {
			tm := time.Date(2024, 1, 5, tc.hour, 30, 0, 0, time.UTC)

			assert.Equal(t, GeneralTimeAt(tm), tc.expected, "general time mismatch")
		})
	}
}
