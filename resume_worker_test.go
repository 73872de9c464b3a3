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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	redlock "github.com/blnkfinance/bulkdelete/internal/lock"
)

func newTestLocker(t *testing.T) (*redlock.SessionLocker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redlock.NewSessionLocker(client, time.Minute), mr
}

func resumeTask(t *testing.T, event model.Event) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(event.WithoutSecrets())
	require.NoError(t, err)
	return asynq.NewTask("bulk_delete_resume", payload)
}

func TestProcessResumeTask_MalformedPayloadSkipsRetry(t *testing.T) {
	h := newHarness(t)
	worker := NewResumeWorker(h.b, nil)

	err := worker.ProcessResumeTask(context.Background(), asynq.NewTask("bulk_delete_resume", []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
	h.store.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestProcessResumeTask_RunsSessionAndReleasesLock(t *testing.T) {
	h := newHarness(t)
	locker, mr := newTestLocker(t)
	worker := NewResumeWorker(h.b, locker)

	h.platform.On("ListRevUsers", mock.Anything, accountsRequest("", 100)).Return(&model.RevUsersPage{}, nil).Once()
	h.platform.On("ListRevUsers", mock.Anything, accountsRequest("", 1)).Return(&model.RevUsersPage{}, nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything, isSummary("Successfully deleted all contacts.")).Return("summary-1", nil).Once()
	h.store.On("Save", mock.Anything, testSnapInID, model.StoredValues{ObjectType: model.ObjectContacts}).Return(nil).Once()

	event := withCarriedFailures(newEvent(model.GlobalValues{ObjectType: "Contacts", Validation: model.ValidationCleared}), 0)
	require.NoError(t, worker.ProcessResumeTask(context.Background(), resumeTask(t, event)))

	h.platform.AssertExpectations(t)
	h.store.AssertExpectations(t)
	assert.False(t, mr.Exists("bulkdelete:lock:"+testSnapInID))
}

func TestProcessResumeTask_BusySessionRetries(t *testing.T) {
	h := newHarness(t)
	locker, _ := newTestLocker(t)
	worker := NewResumeWorker(h.b, locker)

	held, err := locker.Acquire(context.Background(), testSnapInID)
	require.NoError(t, err)
	defer func() { _ = held.Release(context.Background()) }()

	event := newEvent(model.GlobalValues{ObjectType: "Contacts", Validation: model.ValidationCleared})
	err = worker.ProcessResumeTask(context.Background(), resumeTask(t, event))
	require.Error(t, err)
	assert.True(t, errors.Is(err, redlock.ErrLockHeld))
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	h.store.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	assert.Empty(t, h.platform.Calls)
}
