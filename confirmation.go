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

	"github.com/blnkfinance/bulkdelete/internal/metrics"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
)

// advance resolves the session phase from the thread id, the form answer and
// the stored validation flag, and runs it.
//
//	thread, no answer            selection submitted: warn, store Pending, resume
//	no thread, Pending           resume after selection: post the Yes/No card
//	answer No                    cancelled
//	thread, answer Yes           confirmed: notice, then the driver
//	no thread, Cleared           resume after a page: the driver
//
// Any other combination is ignored, so nothing is deleted without a recorded Yes.
func (s *session) advance(ctx context.Context) {
	threadID := s.event.ThreadID()
	answer := model.ParseConfirmation(s.event.FormValue())

	s.log = s.log.WithFields(logrus.Fields{
		"thread_id":  threadID,
		"answer":     answer.String(),
		"validation": string(s.validation),
	})

	switch {
	case threadID != "" && answer == model.Unanswered:
		s.acceptSelection(ctx, threadID)
	case s.validation == model.ValidationPending && answer == model.Unanswered:
		s.promptConfirmation(ctx)
	case answer == model.Cancelled:
		s.cancel(ctx, threadID)
	case threadID != "" && answer == model.Confirmed:
		s.confirm(ctx, threadID)
	case threadID == "" && s.validation == model.ValidationCleared:
		s.runDriver(ctx, s.objectType)
	default:
		s.log.Info("event does not advance the session, ignoring")
	}
}

// authorize checks the acting user and posts the not-authorized notice on denial.
func (s *session) authorize(ctx context.Context, message string, userID string) bool {
	if HasAccess(ctx, s.platform, userID, s.groupID) {
		return true
	}

	metrics.Sessions.WithLabelValues("denied").Inc()
	s.log.WithField("user_id", userID).Warn("user is not authorized")
	if _, err := s.privateNotice(ctx, userID, message, notAuthorizedExpiry); err != nil {
		s.log.WithError(err).Error("error creating timeline entry")
	}
	return false
}

// acceptSelection handles a submitted object type selection: the selection
// thread is replaced by an expiring warning and the confirmation step is
// scheduled.
func (s *session) acceptSelection(ctx context.Context, threadID string) {
	objectType, err := model.ParseObjectType(s.event.FormValue())
	if err != nil {
		s.log.WithError(err).Error("malformed object type")
		return
	}

	if !s.authorize(ctx, notAuthorizedMessage, s.userID) {
		return
	}

	if _, err := s.privateNotice(ctx, s.userID, warningMessage, warningExpiry); err != nil {
		s.log.WithError(err).Error("error creating warning")
		return
	}

	if err := s.platform.DeleteTimelineEntry(ctx, threadID); err != nil {
		s.log.WithError(err).Error("error deleting selection thread")
		return
	}

	values := model.StoredValues{ObjectType: objectType, FailedCount: 0, Validation: model.ValidationPending}
	if err := s.store.Save(ctx, s.snapInID, values); err != nil {
		s.log.WithError(err).Error("error updating session state, not scheduling confirmation")
		return
	}

	delay := secondsOf(s.b.config.Runtime.SelectionResumeDelay)
	if err := s.scheduleResume(ctx, values, delay); err != nil {
		s.log.WithError(err).Error("error scheduling confirmation")
	}
}

// promptConfirmation posts the Yes/No card naming the object type and tags.
// It runs from the resume event scheduled after the warning, so there is no
// thread to clean up.
func (s *session) promptConfirmation(ctx context.Context) {
	if _, err := model.ParseObjectType(s.objectType); err != nil {
		s.log.WithError(err).Error("malformed stored object type")
		return
	}

	card := confirmationCard(s.snapInID, s.objectType, s.tagNames(ctx))
	if _, err := s.postCard(ctx, card, confirmationExpiry); err != nil {
		s.log.WithError(err).Error("error posting confirmation card")
	}
}

// cancel ends the session on a No. Nothing is listed, deleted or scheduled.
func (s *session) cancel(ctx context.Context, threadID string) {
	if !s.authorize(ctx, notAuthorizedMessage, s.userID) {
		return
	}

	if threadID != "" {
		if err := s.platform.DeleteTimelineEntry(ctx, threadID); err != nil {
			s.log.WithError(err).Error("error deleting confirmation thread")
		}
	}
	metrics.Sessions.WithLabelValues("cancelled").Inc()
	s.log.Info("bulk delete cancelled")

	objectType, err := model.ParseObjectType(s.objectType)
	if err != nil {
		s.log.WithError(err).Warn("no stored object type, session values left as they are")
		return
	}
	s.reset(ctx, objectType)
}

// confirm handles a Yes: the card is removed, a public notice is posted and
// the driver for the stored object type runs.
func (s *session) confirm(ctx context.Context, threadID string) {
	if !s.authorize(ctx, notAuthorizedMessage, s.userID) {
		return
	}

	if err := s.platform.DeleteTimelineEntry(ctx, threadID); err != nil {
		s.log.WithError(err).Error("error deleting confirmation thread")
		return
	}

	if _, err := model.ParseObjectType(s.objectType); err != nil {
		s.log.WithError(err).Error("malformed stored object type")
		return
	}

	metrics.Sessions.WithLabelValues("confirmed").Inc()
	notice := s.textEntry(deletionNotice(s.userID, s.objectType, s.tagNames(ctx)), model.VisibilityPublic, 0)
	if _, err := s.platform.CreateTimelineEntry(ctx, notice); err != nil {
		s.log.WithError(err).Error("error creating timeline entry")
	}

	s.runDriver(ctx, s.objectType)
}

// showSelectionForm posts the object type selection card.
func (s *session) showSelectionForm(ctx context.Context) {
	actor := s.event.Actor()
	if !s.authorize(ctx, notAuthorizedCommandMessage, actor) {
		return
	}

	if _, err := s.postCard(ctx, selectionCard(s.snapInID), selectionExpiry); err != nil {
		s.log.WithError(err).Error("error posting selection card")
	}
}
