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

// Package scheduler delivers resume events, either through the platform's
// delayed event source or through a local asynq queue.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/blnkfinance/bulkdelete/internal/apierror"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const maxAttempts = 3

// EventScheduler is the platform call used to publish a delayed event.
type EventScheduler interface {
	ScheduleEvent(ctx context.Context, req model.ScheduleEventRequest) error
}

// Enqueuer is the subset of *asynq.Client used by QueueScheduler.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)
}

// retry runs op until it succeeds, fails permanently or the attempts run out.
func retry(ctx context.Context, name string, op func() error) error {
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !apierror.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		logrus.WithFields(logrus.Fields{"scheduler": name, "attempt": attempt}).WithError(err).Warn("scheduling resume event failed, retrying")
		return err
	}, newBackOff(ctx))
}

// PlatformScheduler publishes resume events to the platform event source.
type PlatformScheduler struct {
	platform EventScheduler
}

func NewPlatformScheduler(platform EventScheduler) *PlatformScheduler {
	return &PlatformScheduler{platform: platform}
}

func (s *PlatformScheduler) Schedule(ctx context.Context, event model.ResumeEvent) error {
	if event.SourceID == "" {
		return errors.New("resume event has no source id")
	}
	req, err := event.ScheduleRequest()
	if err != nil {
		return err
	}
	return retry(ctx, "platform", func() error {
		return s.platform.ScheduleEvent(ctx, req)
	})
}

// QueueScheduler enqueues the next envelope as a delayed asynq task.
// The envelope is stored without its secrets.
type QueueScheduler struct {
	client Enqueuer
	queue  string
	newID  func() string
	now    func() time.Time
}

func NewQueueScheduler(client Enqueuer, queue string) *QueueScheduler {
	return &QueueScheduler{client: client, queue: queue, newID: uuid.NewString, now: time.Now}
}

func (s *QueueScheduler) Schedule(ctx context.Context, event model.ResumeEvent) error {
	payload, err := json.Marshal(event.Next.WithoutSecrets())
	if err != nil {
		return err
	}

	delay := event.PublishAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	taskID := s.newID()
	task := asynq.NewTask(s.queue, payload)

	return retry(ctx, "queue", func() error {
		info, err := s.client.EnqueueContext(ctx, task,
			asynq.TaskID(taskID),
			asynq.Queue(s.queue),
			asynq.ProcessIn(delay),
			asynq.MaxRetry(5),
		)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"task_id":     info.ID,
			"queue":       info.Queue,
			"snap_in_id":  event.Next.Context.SnapInID,
			"object_type": event.Payload.ObjectType,
			"process_at":  info.NextProcessAt,
		}).Info("resume task enqueued")
		return nil
	})
}
