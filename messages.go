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

package bulkdelete

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/wacul/ptr"
)

const (
	notAuthorizedMessage        = "You are not authorized to delete."
	notAuthorizedCommandMessage = "You are not authorized to run this command."

	warningMessage = "Please note: \n 1. All the tagged items will be deleted permanently. \n 2. Deleted items cannot be recovered. \n 3. If items were imported via an active Airdrop sync, the deletion will cause the sync to fail. \n 4. Please confirm if you would like to proceed in the next step."

	selectionTitle = "Note: Select the type of objects that shall be bulk deleted."

	notAuthorizedExpiry = 5 * time.Minute
	warningExpiry       = 100 * time.Second
	confirmationExpiry  = 5 * time.Minute
	selectionExpiry     = time.Hour
)

func confirmationTitle(objectType string, tagNames []string) string {
	return fmt.Sprintf("Note: Confirm that you are about to delete %s that have the tag %s:", objectType, strings.Join(tagNames, ", "))
}

func deletionNotice(userID, objectType string, tagNames []string) string {
	return fmt.Sprintf("<%s> is deleting all %s tagged with %s.", userID, objectType, strings.Join(tagNames, ", "))
}

// textEntry builds a plain text timeline comment on the snap-in.
func (s *session) textEntry(body string, visibility model.Visibility, expiry time.Duration) model.TimelineEntry {
	entry := model.TimelineEntry{
		Object:     s.snapInID,
		Type:       model.TimelineComment,
		Body:       body,
		BodyType:   model.BodyTypeText,
		Visibility: visibility,
	}
	if expiry > 0 {
		entry.ExpiresAt = ptr.Time(s.now().Add(expiry).UTC())
	}
	return entry
}

// privateNotice posts an expiring comment only userID can see.
func (s *session) privateNotice(ctx context.Context, userID, body string, expiry time.Duration) (string, error) {
	entry := s.textEntry(body, model.VisibilityPrivate, expiry)
	entry.PrivateTo = []string{userID}
	return s.platform.CreateTimelineEntry(ctx, entry)
}

// postCard posts an internal snap-kit card in the discussions tab.
func (s *session) postCard(ctx context.Context, body *model.SnapKitBody, expiry time.Duration) (string, error) {
	return s.platform.CreateTimelineEntry(ctx, model.TimelineEntry{
		Object:      s.snapInID,
		Type:        model.TimelineComment,
		BodyType:    model.BodyTypeSnapKit,
		SnapKitBody: body,
		Labels:      []string{model.LabelDiscussions},
		Visibility:  model.VisibilityInternal,
		ExpiresAt:   ptr.Time(s.now().Add(expiry).UTC()),
	})
}

// postSummary posts the internal end-of-session comment.
func (s *session) postSummary(ctx context.Context, body string) {
	entry := s.textEntry(body, model.VisibilityInternal, 0)
	entry.BodyType = ""
	if _, err := s.platform.CreateTimelineEntry(ctx, entry); err != nil {
		s.log.WithError(err).Error("error posting summary")
	}
}

func confirmationCard(snapInID, objectType string, tagNames []string) *model.SnapKitBody {
	return model.NewRadioCard(confirmationTitle(objectType, tagNames), model.FunctionBulkDelete, snapInID, []model.RadioOption{
		model.NewRadioOption("Yes", "Select Yes to proceed"),
		model.NewRadioOption("No", "Select No to cancel"),
	})
}

func selectionCard(snapInID string) *model.SnapKitBody {
	options := make([]model.RadioOption, 0, len(model.ObjectTypes))
	for _, t := range model.ObjectTypes {
		options = append(options, model.NewRadioOption(string(t), fmt.Sprintf("Select if you would like to delete %s", t)))
	}
	return model.NewRadioCard(selectionTitle, model.FunctionBulkDelete, snapInID, options)
}
