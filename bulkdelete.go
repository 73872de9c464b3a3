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
	"time"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/internal/cache"
	"github.com/blnkfinance/bulkdelete/internal/devrev"
	"github.com/blnkfinance/bulkdelete/internal/metrics"
	"github.com/blnkfinance/bulkdelete/internal/notification"
	"github.com/blnkfinance/bulkdelete/internal/scheduler"
	"github.com/blnkfinance/bulkdelete/internal/state"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// BulkDelete drives bulk deletion sessions for a snap-in.
type BulkDelete struct {
	config      *config.Configuration
	newPlatform PlatformFactory
	store       StateStore
	scheduler   Scheduler
	tagCache    cache.Cache
	now         func() time.Time
}

type Option func(*BulkDelete)

// WithPlatformFactory overrides how the per-invocation platform client is built.
func WithPlatformFactory(factory PlatformFactory) Option {
	return func(b *BulkDelete) { b.newPlatform = factory }
}

// WithStateStore replaces the snap-in inputs store, e.g. with a Redis store in local mode.
func WithStateStore(store StateStore) Option {
	return func(b *BulkDelete) { b.store = store }
}

// WithScheduler replaces the platform event scheduler, e.g. with a queue scheduler in local mode.
func WithScheduler(s Scheduler) Option {
	return func(b *BulkDelete) { b.scheduler = s }
}

// WithTagCache caches the tag list between invocations.
func WithTagCache(c cache.Cache) Option {
	return func(b *BulkDelete) { b.tagCache = c }
}

func withClock(now func() time.Time) Option {
	return func(b *BulkDelete) { b.now = now }
}

// NewBulkDelete builds the deletion service from the loaded configuration.
func NewBulkDelete(opts ...Option) (*BulkDelete, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	b := &BulkDelete{config: cfg, now: time.Now}
	b.newPlatform = NewDevrevFactory(
		devrev.WithTimeout(time.Duration(cfg.Platform.TimeoutSec)*time.Second),
		devrev.WithRateLimit(int(cfg.Platform.RequestsPerSecond)),
	)
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Handler returns the entry point registered for a snap-in function name.
func (b *BulkDelete) Handler(functionName string) (func(context.Context, model.Event), bool) {
	switch functionName {
	case model.FunctionBulkDelete:
		return b.HandleEvent, true
	case model.FunctionSelectionForm:
		return b.ShowSelectionForm, true
	}
	return nil, false
}

// Run handles the events one after the other.
func (b *BulkDelete) Run(ctx context.Context, events []model.Event) {
	for _, event := range events {
		b.HandleEvent(ctx, event)
	}
}

// HandleEvent advances the deletion session the event belongs to.
// It never returns an error and never panics: failures are logged and reported.
func (b *BulkDelete) HandleEvent(ctx context.Context, event model.Event) {
	ctx, span := otel.Tracer("bulkdelete").Start(ctx, "HandleEvent")
	defer span.End()
	defer b.observe(model.FunctionBulkDelete, time.Now())
	defer b.recoverPanic(event)

	s, ok := b.newSession(ctx, event)
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("snap_in_id", s.snapInID))
	s.advance(ctx)
}

// ShowSelectionForm posts the object type selection card for an authorized actor.
func (b *BulkDelete) ShowSelectionForm(ctx context.Context, event model.Event) {
	ctx, span := otel.Tracer("bulkdelete").Start(ctx, "ShowSelectionForm")
	defer span.End()
	defer b.observe(model.FunctionSelectionForm, time.Now())
	defer b.recoverPanic(event)

	s, ok := b.newSession(ctx, event)
	if !ok {
		return
	}
	s.showSelectionForm(ctx)
}

func (b *BulkDelete) observe(function string, started time.Time) {
	metrics.InvocationDuration.WithLabelValues(function).Observe(time.Since(started).Seconds())
}

func (b *BulkDelete) recoverPanic(event model.Event) {
	if r := recover(); r != nil {
		err := fmt.Errorf("panic handling event for snap-in %s: %v", event.Context.SnapInID, r)
		logrus.WithField("request_id", event.ExecutionMetadata.RequestID).Error(err)
		notification.NotifyError(err)
	}
}

// newSession rebuilds the request context of one invocation from the envelope
// and the state store.
func (b *BulkDelete) newSession(ctx context.Context, event model.Event) (*session, bool) {
	log := logrus.WithFields(logrus.Fields{
		"snap_in_id":    event.Context.SnapInID,
		"function_name": event.ExecutionMetadata.FunctionName,
		"request_id":    event.ExecutionMetadata.RequestID,
	})

	if err := event.Validate(); err != nil {
		log.WithError(err).Error("invalid event")
		return nil, false
	}

	endpoint := event.ExecutionMetadata.DevrevEndpoint
	if endpoint == "" {
		endpoint = b.config.Platform.Endpoint
	}
	token := event.Token()
	if token == "" {
		token = b.config.Platform.Token
	}
	platform := b.newPlatform(endpoint, token)

	store := b.store
	if store == nil {
		store = state.NewPlatformStore(platform)
	}
	sched := b.scheduler
	if sched == nil {
		sched = scheduler.NewPlatformScheduler(platform)
	}

	stored, err := store.Load(ctx, event.Context.SnapInID)
	if err != nil {
		log.WithError(err).Error("error loading session state")
		return nil, false
	}
	if stored != nil {
		event.InputData.GlobalValues.ObjectType = string(stored.ObjectType)
		event.InputData.GlobalValues.FailedCount = stored.FailedCount
		event.InputData.GlobalValues.Validation = stored.Validation
	}

	limit := b.config.Runtime.PageLimit
	if limit <= 0 || limit > config.MaxPageLimit {
		limit = config.MaxPageLimit
	}

	userID := event.Context.UserID
	if userID == "" {
		userID = event.Actor()
	}

	globals := event.InputData.GlobalValues
	return &session{
		b:           b,
		event:       event,
		platform:    platform,
		store:       store,
		scheduler:   sched,
		snapInID:    event.Context.SnapInID,
		userID:      userID,
		groupID:     globals.AccessGroup,
		tags:        globals.Tags,
		objectType:  globals.ObjectType,
		validation:  globals.Validation,
		failedCount: event.CarriedFailedCount(),
		limit:       limit,
		log:         log,
	}, true
}

// session is the request context of one invocation. It is never persisted.
type session struct {
	b         *BulkDelete
	event     model.Event
	platform  Platform
	store     StateStore
	scheduler Scheduler

	snapInID    string
	userID      string
	groupID     string
	tags        []string
	objectType  string
	validation  model.Validation
	failedCount int
	limit       int

	log *logrus.Entry
}

func (s *session) now() time.Time {
	return s.b.now()
}
