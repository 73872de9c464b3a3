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
package mocks

import (
	"context"

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a mock implementation of the Platform interface
type MockPlatform struct {
	mock.Mock
}

// Works

func (m *MockPlatform) ListWorks(ctx context.Context, req model.ListWorksRequest) (*model.WorksPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WorksPage), args.Error(1)
}

func (m *MockPlatform) DeleteWork(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Accounts

func (m *MockPlatform) ListAccounts(ctx context.Context, req model.ListRequest) (*model.AccountsPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccountsPage), args.Error(1)
}

func (m *MockPlatform) DeleteAccount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlatform) ListRevOrgs(ctx context.Context, accountID string) ([]model.RevOrg, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RevOrg), args.Error(1)
}

// Contacts

func (m *MockPlatform) ListRevUsers(ctx context.Context, req model.ListRequest) (*model.RevUsersPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RevUsersPage), args.Error(1)
}

func (m *MockPlatform) DeleteRevUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Groups and tags

func (m *MockPlatform) ListGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GroupMember), args.Error(1)
}

func (m *MockPlatform) ListTags(ctx context.Context, limit int) ([]model.Tag, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

// Timeline and snap-in

func (m *MockPlatform) CreateTimelineEntry(ctx context.Context, entry model.TimelineEntry) (string, error) {
	args := m.Called(ctx, entry)
	return args.String(0), args.Error(1)
}

func (m *MockPlatform) DeleteTimelineEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlatform) UpdateSnapInInputs(ctx context.Context, snapInID string, values model.StoredValues) error {
	args := m.Called(ctx, snapInID, values)
	return args.Error(0)
}

func (m *MockPlatform) ScheduleEvent(ctx context.Context, req model.ScheduleEventRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockStateStore is a mock implementation of the StateStore interface
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, snapInID string, values model.StoredValues) error {
	args := m.Called(ctx, snapInID, values)
	return args.Error(0)
}

func (m *MockStateStore) Load(ctx context.Context, snapInID string) (*model.StoredValues, error) {
	args := m.Called(ctx, snapInID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredValues), args.Error(1)
}

// MockScheduler is a mock implementation of the Scheduler interface
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, event model.ResumeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
