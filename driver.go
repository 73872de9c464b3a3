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
	"sync/atomic"
	"time"

	"github.com/blnkfinance/bulkdelete/internal/metrics"
	"github.com/blnkfinance/bulkdelete/internal/notification"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// runDriver runs one page of the driver for the object type.
func (s *session) runDriver(ctx context.Context, rawObjectType string) {
	objectType, err := model.ParseObjectType(rawObjectType)
	if err != nil {
		s.log.WithError(err).Error("malformed object type")
		return
	}

	ctx, span := otel.Tracer("bulkdelete").Start(ctx, "driver."+string(objectType))
	defer span.End()
	span.SetAttributes(
		attribute.String("object_type", string(objectType)),
		attribute.Int("failed_count", s.failedCount),
	)

	s.log = s.log.WithField("object_type", objectType)
	switch {
	case objectType.IsWork():
		s.deleteWorks(ctx, objectType)
	case objectType == model.ObjectAccounts:
		s.deleteAccounts(ctx)
	case objectType == model.ObjectContacts:
		s.deleteContacts(ctx)
	}
}

func (s *session) listRequest(cursor string, limit int) model.ListRequest {
	return model.ListRequest{Tags: s.tags, Cursor: cursor, Limit: limit}
}

// deleteEach deletes every id concurrently and returns how many failed.
// A failure never cancels its siblings.
func (s *session) deleteEach(ctx context.Context, objectType model.ObjectType, ids []string, del func(context.Context, string) error) int {
	var failed atomic.Int64
	g := new(errgroup.Group)
	if n := s.b.config.Runtime.Concurrency; n > 0 {
		g.SetLimit(n)
	}

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := del(ctx, id); err != nil {
				failed.Add(1)
				s.log.WithField("id", id).WithError(err).Error("failed to delete")
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(failed.Load())
	metrics.ObjectsDeleted.WithLabelValues(string(objectType)).Add(float64(len(ids) - n))
	return n
}

// pageResult is the outcome of one driver page.
type pageResult struct {
	objectType  model.ObjectType
	processed   int
	newFailures int
	hasMore     bool
	delay       time.Duration

	remaining func(ctx context.Context) (int, error)
	success   string
	failure   string
}

// settle records the page outcome: more data means store and schedule one
// resume, otherwise probe once and post exactly one summary.
func (s *session) settle(ctx context.Context, r pageResult) {
	total := s.failedCount + r.newFailures
	metrics.ObjectsFailed.WithLabelValues(string(r.objectType)).Add(float64(r.newFailures))

	log := s.log.WithFields(logrus.Fields{
		"processed":    r.processed,
		"new_failures": r.newFailures,
		"failed_count": total,
		"has_more":     r.hasMore,
	})
	log.Info("page processed")

	if r.hasMore {
		values := model.StoredValues{ObjectType: r.objectType, FailedCount: total, Validation: model.ValidationCleared}
		if err := s.store.Save(ctx, s.snapInID, values); err != nil {
			log.WithError(err).Error("error updating session state, session stalls")
			notification.NotifyError(fmt.Errorf("bulk delete of %s stalled for snap-in %s: %w", r.objectType, s.snapInID, err))
			return
		}
		if err := s.scheduleResume(ctx, values, r.delay); err != nil {
			log.WithError(err).Error("error scheduling resume event")
			notification.NotifyError(fmt.Errorf("bulk delete of %s stalled for snap-in %s: %w", r.objectType, s.snapInID, err))
		}
		return
	}

	remaining, err := r.remaining(ctx)
	if err != nil {
		log.WithError(err).Error("error probing remaining objects")
		return
	}

	if remaining > 0 {
		s.postSummary(ctx, r.failure)
	} else {
		s.postSummary(ctx, r.success)
	}
	metrics.Sessions.WithLabelValues("completed").Inc()
	s.reset(ctx, r.objectType)
}

// readFailed logs a list failure. The session returns without a message.
func (s *session) readFailed(what string, err error) {
	s.log.WithError(err).Errorf("error listing %s", what)
	notification.NotifyError(fmt.Errorf("bulk delete could not list %s for snap-in %s: %w", what, s.snapInID, err))
}
