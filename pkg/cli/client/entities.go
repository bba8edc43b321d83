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

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/habitlog/habitlog/pkg/entity"
	"github.com/pkg/errors"
)

// TrackerResp is the response carrying a single tracker
type TrackerResp struct {
	Tracker entity.Tracker `json:"tracker"`
}

// TrackersResp is the response carrying all trackers
type TrackersResp struct {
	Trackers []entity.Tracker `json:"trackers"`
}

// CreateTracker upserts a tracker in the server
func (c *Client) CreateTracker(ctx context.Context, t entity.Tracker) (entity.Tracker, error) {
	var resp TrackerResp
	if err := c.do(ctx, http.MethodPost, c.devicePath("/trackers"), t, &resp); err != nil {
		return entity.Tracker{}, errors.Wrapf(err, "creating tracker %s", t.ID)
	}

	return resp.Tracker, nil
}

// UpdateTracker edits a tracker in the server
func (c *Client) UpdateTracker(ctx context.Context, id string, patch entity.TrackerPatch) (entity.Tracker, error) {
	var resp TrackerResp
	if err := c.do(ctx, http.MethodPatch, c.devicePath("/trackers/%s", url.PathEscape(id)), patch, &resp); err != nil {
		return entity.Tracker{}, errors.Wrapf(err, "updating tracker %s", id)
	}

	return resp.Tracker, nil
}

// DeleteTracker deletes a tracker and its log entries in the server
func (c *Client) DeleteTracker(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.devicePath("/trackers/%s", url.PathEscape(id)), nil, nil); err != nil {
		return errors.Wrapf(err, "deleting tracker %s", id)
	}

	return nil
}

// GetAllTrackers fetches every tracker of the device
func (c *Client) GetAllTrackers(ctx context.Context) ([]entity.Tracker, error) {
	var resp TrackersResp
	if err := c.do(ctx, http.MethodGet, c.devicePath("/trackers"), nil, &resp); err != nil {
		return nil, errors.Wrap(err, "getting trackers")
	}

	return resp.Trackers, nil
}

// CollectionResp is the response carrying a single collection
type CollectionResp struct {
	Collection entity.Collection `json:"collection"`
}

// CollectionsResp is the response carrying all collections
type CollectionsResp struct {
	Collections []entity.Collection `json:"collections"`
}

// CreateCollection upserts a collection in the server
func (c *Client) CreateCollection(ctx context.Context, col entity.Collection) (entity.Collection, error) {
	var resp CollectionResp
	if err := c.do(ctx, http.MethodPost, c.devicePath("/collections"), col, &resp); err != nil {
		return entity.Collection{}, errors.Wrapf(err, "creating collection %s", col.ID)
	}

	return resp.Collection, nil
}

// UpdateCollection edits a collection in the server
func (c *Client) UpdateCollection(ctx context.Context, id string, patch entity.CollectionPatch) (entity.Collection, error) {
	var resp CollectionResp
	if err := c.do(ctx, http.MethodPatch, c.devicePath("/collections/%s", url.PathEscape(id)), patch, &resp); err != nil {
		return entity.Collection{}, errors.Wrapf(err, "updating collection %s", id)
	}

	return resp.Collection, nil
}

// DeleteCollection deletes a collection in the server. Its log entries are kept.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.devicePath("/collections/%s", url.PathEscape(id)), nil, nil); err != nil {
		return errors.Wrapf(err, "deleting collection %s", id)
	}

	return nil
}

// GetAllCollections fetches every collection of the device
func (c *Client) GetAllCollections(ctx context.Context) ([]entity.Collection, error) {
	var resp CollectionsResp
	if err := c.do(ctx, http.MethodGet, c.devicePath("/collections"), nil, &resp); err != nil {
		return nil, errors.Wrap(err, "getting collections")
	}

	return resp.Collections, nil
}

// LogEntriesPayload is the payload of the batch log endpoint
type LogEntriesPayload struct {
	Entries []entity.LogEntry `json:"entries"`
}

// LogsResp is the response carrying log entries
type LogsResp struct {
	Logs []entity.LogEntry `json:"logs"`
}

// LogEntries upserts a batch of log entries in the server. The batch is
// applied atomically.
func (c *Client) LogEntries(ctx context.Context, entries []entity.LogEntry) ([]entity.LogEntry, error) {
	var resp LogsResp
	if err := c.do(ctx, http.MethodPost, c.devicePath("/logs"), LogEntriesPayload{Entries: entries}, &resp); err != nil {
		return nil, errors.Wrapf(err, "logging %d entries", len(entries))
	}

	return resp.Logs, nil
}

// DeleteLog deletes a log entry in the server
func (c *Client) DeleteLog(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, c.devicePath("/logs/%s", url.PathEscape(id)), nil, nil); err != nil {
		return errors.Wrapf(err, "deleting log %s", id)
	}

	return nil
}

// LogFilter narrows down the log entries fetched from the server
type LogFilter struct {
	TrackerID string
	From      string
	To        string
}

func (f LogFilter) query() string {
	v := url.Values{}
	if f.TrackerID != "" {
		v.Set("tracker_id", f.TrackerID)
	}
	if f.From != "" {
		v.Set("from", f.From)
	}
	if f.To != "" {
		v.Set("to", f.To)
	}
	if len(v) == 0 {
		return ""
	}

	return "?" + v.Encode()
}

// GetLogs fetches the log entries of the device matching the filter
func (c *Client) GetLogs(ctx context.Context, filter LogFilter) ([]entity.LogEntry, error) {
	var resp LogsResp
	if err := c.do(ctx, http.MethodGet, c.devicePath("/logs")+filter.query(), nil, &resp); err != nil {
		return nil, errors.Wrap(err, "getting logs")
	}

	return resp.Logs, nil
}

// GetAllLogs fetches every log entry of the device
func (c *Client) GetAllLogs(ctx context.Context) ([]entity.LogEntry, error) {
	return c.GetLogs(ctx, LogFilter{})
}
