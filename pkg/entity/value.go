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
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ValueKind tags the variant held by a LogValue
type ValueKind int

const (
	// ValueNone is the zero LogValue
	ValueNone ValueKind = iota
	// ValueNumber holds a float64
	ValueNumber
	// ValueBoolean holds a bool
	ValueBoolean
	// ValueList holds a list of strings
	ValueList
)

func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueBoolean:
		return "boolean"
	case ValueList:
		return "list"
	}

	return "none"
}

// LogValue is the value recorded by a log entry. Its shape is determined by
// the type of the tracker it is logged against. On the wire it is encoded as
// a bare JSON number, boolean or array of strings.
type LogValue struct {
	kind   ValueKind
	number float64
	flag   bool
	list   []string
}

// NumberValue makes a numeric LogValue
func NumberValue(n float64) LogValue {
	return LogValue{kind: ValueNumber, number: n}
}

// BoolValue makes a boolean LogValue
func BoolValue(b bool) LogValue {
	return LogValue{kind: ValueBoolean, flag: b}
}

// ListValue makes a string list LogValue
func ListValue(items ...string) LogValue {
	return LogValue{kind: ValueList, list: append([]string{}, items...)}
}

// Kind returns the variant held by the value
func (v LogValue) Kind() ValueKind {
	return v.kind
}

// Number returns the numeric value and whether the value is numeric
func (v LogValue) Number() (float64, bool) {
	return v.number, v.kind == ValueNumber
}

// Bool returns the boolean value and whether the value is boolean
func (v LogValue) Bool() (bool, bool) {
	return v.flag, v.kind == ValueBoolean
}

// List returns the string list and whether the value is a list
func (v LogValue) List() ([]string, bool) {
	if v.kind != ValueList {
		return nil, false
	}

	return append([]string{}, v.list...), true
}

// Equal compares two values
func (v LogValue) Equal(o LogValue) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case ValueNumber:
		return v.number == o.number
	case ValueBoolean:
		return v.flag == o.flag
	case ValueList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
	}

	return true
}

func (v LogValue) String() string {
	switch v.kind {
	case ValueNumber:
		b, _ := json.Marshal(v.number)
		return string(b)
	case ValueBoolean:
		if v.flag {
			return "yes"
		}
		return "no"
	case ValueList:
		return strings.Join(v.list, ", ")
	}

	return ""
}

// CheckFor verifies that the value has the shape required by the tracker type
func (v LogValue) CheckFor(t TrackerType) error {
	switch t {
	case TrackerNumber:
		if v.kind != ValueNumber {
			return invalidf("number tracker needs a number, got %s", v.kind)
		}
		if math.IsNaN(v.number) || math.IsInf(v.number, 0) {
			return invalidf("number value is not finite")
		}
	case TrackerScale:
		if v.kind != ValueNumber {
			return invalidf("scale tracker needs a number, got %s", v.kind)
		}
		if v.number != math.Trunc(v.number) || v.number < ScaleMin || v.number > ScaleMax {
			return invalidf("scale value %v is not a whole number between %d and %d", v.number, ScaleMin, ScaleMax)
		}
	case TrackerBoolean:
		if v.kind != ValueBoolean {
			return invalidf("boolean tracker needs a boolean, got %s", v.kind)
		}
	case TrackerTextList:
		if v.kind != ValueList {
			return invalidf("text-list tracker needs a list, got %s", v.kind)
		}
	default:
		return invalidf("unknown tracker type '%s'", t)
	}

	return nil
}

// MarshalJSON encodes the value as a bare JSON scalar or array
func (v LogValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return json.Marshal(v.number)
	case ValueBoolean:
		return json.Marshal(v.flag)
	case ValueList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}

	return []byte("null"), nil
}

// UnmarshalJSON decodes a bare JSON number, boolean or array of strings
func (v *LogValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = LogValue{}
		return nil
	}

	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return errors.Wrap(err, "decoding boolean value")
		}
		*v = BoolValue(b)
	case '[':
		var l []string
		if err := json.Unmarshal(data, &l); err != nil {
			return errors.Wrap(err, "decoding list value")
		}
		*v = ListValue(l...)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrap(err, "decoding number value")
		}
		*v = NumberValue(n)
	}

	return nil
}
