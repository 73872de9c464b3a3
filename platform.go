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

	"github.com/blnkfinance/bulkdelete/internal/devrev"
	"github.com/blnkfinance/bulkdelete/model"
)

// Platform is the set of platform operations the deletion flow consumes.
type Platform interface {
	ListWorks(ctx context.Context, req model.ListWorksRequest) (*model.WorksPage, error)
	DeleteWork(ctx context.Context, id string) error

	ListAccounts(ctx context.Context, req model.ListRequest) (*model.AccountsPage, error)
	DeleteAccount(ctx context.Context, id string) error
	ListRevOrgs(ctx context.Context, accountID string) ([]model.RevOrg, error)

	ListRevUsers(ctx context.Context, req model.ListRequest) (*model.RevUsersPage, error)
	DeleteRevUser(ctx context.Context, id string) error

	ListGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error)
	ListTags(ctx context.Context, limit int) ([]model.Tag, error)

	CreateTimelineEntry(ctx context.Context, entry model.TimelineEntry) (string, error)
	DeleteTimelineEntry(ctx context.Context, id string) error

	UpdateSnapInInputs(ctx context.Context, snapInID string, values model.StoredValues) error
	ScheduleEvent(ctx context.Context, req model.ScheduleEventRequest) error
}

// PlatformFactory builds a client for the endpoint and token of one invocation.
type PlatformFactory func(endpoint, token string) Platform

// StateStore keeps the session values between invocations.
// Load returns nil when the envelope's global values are authoritative.
type StateStore interface {
	Save(ctx context.Context, snapInID string, values model.StoredValues) error
	Load(ctx context.Context, snapInID string) (*model.StoredValues, error)
}

// Scheduler delivers a resume event after its publish time.
type Scheduler interface {
	Schedule(ctx context.Context, event model.ResumeEvent) error
}

// NewDevrevFactory returns a factory for the HTTP platform client.
func NewDevrevFactory(opts ...devrev.Option) PlatformFactory {
	return func(endpoint, token string) Platform {
		return devrev.New(endpoint, token, opts...)
	}
}
