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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	redlock "github.com/blnkfinance/bulkdelete/internal/lock"
)

// sessionLocker serializes invocations of one snap-in.
type sessionLocker interface {
	Acquire(ctx context.Context, snapInID string) (*redlock.Lock, error)
}

// ResumeWorker replays resume events delivered by the local queue.
type ResumeWorker struct {
	b      *BulkDelete
	locker sessionLocker
}

// NewResumeWorker returns a worker that runs one resume task at a time per
// snap-in. A nil locker disables the session lock.
func NewResumeWorker(b *BulkDelete, locker *redlock.SessionLocker) *ResumeWorker {
	w := &ResumeWorker{b: b}
	if locker != nil {
		w.locker = locker
	}
	return w
}

// ProcessResumeTask decodes the queued envelope and hands it to HandleEvent.
// A held session lock makes the task retry later; a malformed payload is dropped.
func (w *ResumeWorker) ProcessResumeTask(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("bulkdelete.resume.worker").Start(ctx, "Process Resume Event From Redis Queue",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("task_type", t.Type())),
	)
	defer span.End()

	var event model.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		logrus.WithError(err).Error("malformed resume task")
		return fmt.Errorf("decode resume task: %v: %w", err, asynq.SkipRetry)
	}

	if w.locker != nil {
		lock, err := w.locker.Acquire(ctx, event.Context.SnapInID)
		if err != nil {
			if errors.Is(err, redlock.ErrLockHeld) {
				logrus.WithField("snap_in_id", event.Context.SnapInID).Info("session busy, resume pushed back for retry")
			}
			return err
		}
		defer func() {
			if err := lock.Release(context.Background()); err != nil {
				logrus.WithField("key", lock.Key()).WithError(err).Warn("error releasing session lock")
			}
		}()
	}

	w.b.HandleEvent(ctx, event)
	logrus.Printf(" [*] Resume event processed for snap-in %s", event.Context.SnapInID)
	return nil
}
