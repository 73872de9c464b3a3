/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package devrev

import (
	"context"

	"github.com/blnkfinance/bulkdelete/model"
)

// CreateTimelineEntry posts a comment and returns the id of the created entry.
func (c *Client) CreateTimelineEntry(ctx context.Context, entry model.TimelineEntry) (string, error) {
	var resp struct {
		TimelineEntry struct {
			ID string `json:"id"`
		} `json:"timeline_entry"`
	}
	if err := c.post(ctx, "timeline-entries.create", entry, &resp); err != nil {
		return "", err
	}
	return resp.TimelineEntry.ID, nil
}

func (c *Client) DeleteTimelineEntry(ctx context.Context, id string) error {
	return c.post(ctx, "timeline-entries.delete", idRequest{ID: id}, nil)
}

// UpdateSnapInInputs overwrites the session values kept in the snap-in inputs.
func (c *Client) UpdateSnapInInputs(ctx context.Context, snapInID string, values model.StoredValues) error {
	payload := struct {
		ID           string             `json:"id"`
		InputsValues model.StoredValues `json:"inputs_values"`
	}{ID: snapInID, InputsValues: values}

	return c.post(ctx, "snap-ins.update", payload, nil)
}

func (c *Client) ScheduleEvent(ctx context.Context, req model.ScheduleEventRequest) error {
	return c.post(ctx, "event-sources.schedule", req, nil)
}
