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
	"time"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/metrics"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
)

func secondsOf(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

// clampResumeDelay keeps resume events between 5 and 20 seconds ahead.
func clampResumeDelay(d time.Duration) time.Duration {
	lo, hi := secondsOf(config.MinResumeDelaySec), secondsOf(config.MaxResumeDelaySec)
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// nextEvent is the envelope a resume event replays: no thread, no answer,
// the carried failed count and the stored values as global values.
func (s *session) nextEvent(values model.StoredValues) model.Event {
	next := s.event
	next.Payload = model.EventPayload{
		SourceID:    s.event.ScheduledSourceID(),
		FailedCount: ptr.Int(values.FailedCount),
		ObjectType:  string(values.ObjectType),
	}
	next.InputData.GlobalValues.ObjectType = string(values.ObjectType)
	next.InputData.GlobalValues.FailedCount = values.FailedCount
	next.InputData.GlobalValues.Validation = values.Validation
	return next
}

// scheduleResume asks the scheduler to deliver the next invocation after delay.
func (s *session) scheduleResume(ctx context.Context, values model.StoredValues, delay time.Duration) error {
	event := model.ResumeEvent{
		EventType: s.b.config.Runtime.EventType,
		SourceID:  s.event.ScheduledSourceID(),
		Payload: model.ResumePayload{
			FailedCount: values.FailedCount,
			ObjectType:  values.ObjectType,
		},
		PublishAt: s.now().Add(clampResumeDelay(delay)),
		Next:      s.nextEvent(values),
	}

	if err := s.scheduler.Schedule(ctx, event); err != nil {
		return err
	}

	metrics.ResumesScheduled.WithLabelValues(string(values.ObjectType)).Inc()
	s.log.WithFields(logrus.Fields{
		"object_type":  values.ObjectType,
		"failed_count": values.FailedCount,
		"publish_at":   event.PublishAt,
	}).Info("resume event scheduled")
	return nil
}

// reset clears the session values once a session ends. Failures are only logged.
func (s *session) reset(ctx context.Context, objectType model.ObjectType) {
	values := model.StoredValues{ObjectType: objectType, FailedCount: 0, Validation: model.ValidationUnset}
	if err := s.store.Save(ctx, s.snapInID, values); err != nil {
		s.log.WithError(err).Warn("error resetting session state")
	}
}
