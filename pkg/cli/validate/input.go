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

// Package validate parses and checks command line input
package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// ErrValueEmpty is an error for an empty value
var ErrValueEmpty = errors.New("The value is empty")

// ErrValueNotNumber is an error for a value that is not a number
var ErrValueNotNumber = errors.New("The value is not a number")

// ErrValueNotBoolean is an error for a value that is not yes or no
var ErrValueNotBoolean = errors.New("The value is not yes or no")

// ErrIDNotFound is an error for an id or id prefix matching nothing
var ErrIDNotFound = errors.New("No item matches the id")

// ErrIDAmbiguous is an error for an id prefix matching more than one item
var ErrIDAmbiguous = errors.New("The id matches more than one item")

// ErrTimeInvalid is an error for a time of day that is neither general nor HH:MM
var ErrTimeInvalid = errors.New("The time must be morning, afternoon, evening, night or HH:MM")

// Value parses raw input into a value for a tracker of the given type.
// Text lists are comma separated.
func Value(typ entity.TrackerType, raw string) (entity.LogValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entity.LogValue{}, ErrValueEmpty
	}

	switch typ {
	case entity.TrackerNumber, entity.TrackerScale:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return entity.LogValue{}, ErrValueNotNumber
		}
		return entity.NumberValue(n), nil
	case entity.TrackerBoolean:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1":
			return entity.BoolValue(true), nil
		case "n", "no", "false", "0":
			return entity.BoolValue(false), nil
		}
		return entity.LogValue{}, ErrValueNotBoolean
	case entity.TrackerTextList:
		var items []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return entity.ListValue(items...), nil
	}

	return entity.LogValue{}, errors.Errorf("unknown tracker type '%s'", typ)
}

// TimeOfDay parses a general time of day or an exact HH:MM time into the
// time fields of a log entry
func TimeOfDay(raw string, l *entity.LogEntry) error {
	g := entity.GeneralTime(strings.ToLower(raw))
	if g.Valid() {
		l.TimeKind = entity.TimeGeneral
		l.GeneralTime = &g
		l.ExactTime = nil
		return nil
	}

	if _, err := time.Parse(entity.ExactTimeLayout, raw); err != nil {
		return ErrTimeInvalid
	}
	l.TimeKind = entity.TimeExact
	l.ExactTime = &raw
	l.GeneralTime = nil

	return nil
}

// Date checks a YYYY-MM-DD date
func Date(raw string) error {
	if _, err := time.Parse(entity.DateLayout, raw); err != nil {
		return errors.Errorf("The date '%s' is not in YYYY-MM-DD format", raw)
	}

	return nil
}

// ResolveID finds the single id among candidates that equals or starts with
// the given prefix
func ResolveID(candidates []string, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", ErrIDNotFound
	}

	var found string
	for _, id := range candidates {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if found != "" {
				return "", errors.Wrap(ErrIDAmbiguous, prefix)
			}
			found = id
		}
	}
	if found == "" {
		return "", errors.Wrap(ErrIDNotFound, prefix)
	}

	return found, nil
}
