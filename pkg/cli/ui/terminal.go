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

// Package ui reads interactive input from the terminal
package ui

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/habitlog/habitlog/pkg/cli/log"
	"github.com/pkg/errors"
)

func choices(optimistic bool) string {
	if optimistic {
		return "(Y/n)"
	}

	return "(y/N)"
}

// readYesNo reads a yes/no answer. Anything but "y" is a no, except that an
// empty answer is a yes in optimistic mode.
func readYesNo(r io.Reader, optimistic bool) (bool, error) {
	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return false, err
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if optimistic && input == "" {
		return true, nil
	}

	return input == "y" || input == "yes", nil
}

// Confirm prompts for user input to confirm a choice
func Confirm(question string, optimistic bool) (bool, error) {
	log.Askf("%s %s", question, choices(optimistic))

	confirmed, err := readYesNo(os.Stdin, optimistic)
	if err != nil {
		return false, errors.Wrap(err, "getting user input")
	}

	return confirmed, nil
}
