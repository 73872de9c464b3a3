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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func works(prefix string, n int) []model.Work {
	out := make([]model.Work, n)
	for i := range out {
		out[i] = model.Work{ID: fmt.Sprintf("%s-%d", prefix, i), Type: model.WorkTypeTicket}
	}
	return out
}

func accounts(prefix string, n int) []model.Account {
	out := make([]model.Account, n)
	for i := range out {
		out[i] = model.Account{ID: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

func ticketsRequest(cursor string, limit int) model.ListWorksRequest {
	return model.ListWorksRequest{
		ListRequest: model.ListRequest{Tags: []string{testTagID}, Cursor: cursor, Limit: limit},
		Type:        []model.WorkType{model.WorkTypeTicket},
	}
}

func accountsRequest(cursor string, limit int) model.ListRequest {
	return model.ListRequest{Tags: []string{testTagID}, Cursor: cursor, Limit: limit}
}

func TestConfirm_TicketsAcrossTwoInvocations(t *testing.T) {
	h := newHarness(t)
	h.expectTags()

	// first invocation: the Yes answer runs the first page
	h.platform.On("DeleteTimelineEntry", mock.Anything, testThreadID).Return(nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything, mock.MatchedBy(func(e model.TimelineEntry) bool {
		return e.Visibility == model.VisibilityPublic && e.Body == "<user-1> is deleting all Tickets tagged with cleanup." && e.ExpiresAt == nil
	})).Return("notice-1", nil).Once()
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 100)).Return(&model.WorksPage{Works: works("work", 100), NextCursor: "next"}, nil).Once()
	h.platform.On("DeleteWork", mock.Anything, "work-7").Return(errors.New("forbidden")).Once()
	h.platform.On("DeleteWork", mock.Anything, mock.Anything).Return(nil)

	cleared := model.StoredValues{ObjectType: model.ObjectTickets, FailedCount: 1, Validation: model.ValidationCleared}
	h.store.On("Save", mock.Anything, testSnapInID, cleared).Return(nil).Once()
	h.scheduler.On("Schedule", mock.Anything, mock.MatchedBy(func(ev model.ResumeEvent) bool {
		return ev.Payload.FailedCount == 1 &&
			ev.Payload.ObjectType == model.ObjectTickets &&
			ev.PublishAt.Equal(fixedNow.Add(5*time.Second)) &&
			ev.Next.Payload.FailedCount != nil && *ev.Next.Payload.FailedCount == 1 &&
			ev.Next.InputData.GlobalValues.Validation == model.ValidationCleared
	})).Return(nil).Once()

	event := withThread(newEvent(model.GlobalValues{ObjectType: "Tickets", Validation: model.ValidationPending}), testThreadID, "Yes")
	h.b.HandleEvent(context.Background(), event)

	h.platform.AssertNumberOfCalls(t, "DeleteWork", 100)
	h.platform.AssertNumberOfCalls(t, "CreateTimelineEntry", 1)
	h.scheduler.AssertExpectations(t)

	// second invocation: the resume event finishes the remaining 50
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 100)).Return(&model.WorksPage{Works: works("late", 50)}, nil).Once()
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 1)).Return(&model.WorksPage{Works: works("work", 1)}, nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything, isSummary("Failed to delete all Tickets.")).Return("summary-1", nil).Once()
	h.store.On("Save", mock.Anything, testSnapInID, model.StoredValues{ObjectType: model.ObjectTickets, Validation: model.ValidationUnset}).Return(nil).Once()

	resume := withCarriedFailures(newEvent(model.GlobalValues{ObjectType: "Tickets", Validation: model.ValidationCleared}), 1)
	h.b.HandleEvent(context.Background(), resume)

	h.platform.AssertExpectations(t)
	h.store.AssertExpectations(t)
	h.platform.AssertNumberOfCalls(t, "DeleteWork", 150)
	h.scheduler.AssertNumberOfCalls(t, "Schedule", 1)
}

func TestDeleteWorks_EmptyFirstPagePostsSuccess(t *testing.T) {
	h := newHarness(t)
	issues := model.ListWorksRequest{
		ListRequest: model.ListRequest{Tags: []string{testTagID}, Limit: 100},
		Type:        []model.WorkType{model.WorkTypeIssue},
	}
	probe := issues
	probe.Limit = 1
	h.platform.On("ListWorks", mock.Anything, issues).Return(&model.WorksPage{}, nil).Once()
	h.platform.On("ListWorks", mock.Anything, probe).Return(&model.WorksPage{}, nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything, isSummary("Successfully deleted all Issues.")).Return("summary-1", nil).Once()
	h.store.On("Save", mock.Anything, testSnapInID, model.StoredValues{ObjectType: model.ObjectIssues}).Return(nil).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Issues", Validation: model.ValidationCleared}))

	h.platform.AssertExpectations(t)
	h.platform.AssertNotCalled(t, "DeleteWork", mock.Anything, mock.Anything)
	h.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestDeleteWorks_AllFailedPageStillResumes(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 100)).Return(&model.WorksPage{Works: works("work", 100), NextCursor: "next"}, nil).Once()
	h.platform.On("DeleteWork", mock.Anything, mock.Anything).Return(errors.New("429 too many requests"))

	cleared := model.StoredValues{ObjectType: model.ObjectTickets, FailedCount: 103, Validation: model.ValidationCleared}
	h.store.On("Save", mock.Anything, testSnapInID, cleared).Return(nil).Once()
	h.scheduler.On("Schedule", mock.Anything, mock.MatchedBy(func(ev model.ResumeEvent) bool {
		return ev.Payload.FailedCount == 103 &&
			ev.Payload.ObjectType == model.ObjectTickets &&
			ev.PublishAt.Equal(fixedNow.Add(5*time.Second))
	})).Return(nil).Once()

	event := withCarriedFailures(newEvent(model.GlobalValues{ObjectType: "Tickets", Validation: model.ValidationCleared}), 3)
	h.b.HandleEvent(context.Background(), event)

	h.platform.AssertNumberOfCalls(t, "DeleteWork", 100)
	h.store.AssertExpectations(t)
	h.scheduler.AssertExpectations(t)
	h.scheduler.AssertNumberOfCalls(t, "Schedule", 1)
	h.platform.AssertNotCalled(t, "ListWorks", mock.Anything, ticketsRequest("", 1))
	h.platform.AssertNotCalled(t, "CreateTimelineEntry", mock.Anything, mock.Anything)
}

func TestDeleteWorks_ListFailurePostsNothing(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 100)).Return(nil, errors.New("unavailable")).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Tickets", Validation: model.ValidationCleared}))

	h.platform.AssertExpectations(t)
	h.platform.AssertNotCalled(t, "CreateTimelineEntry", mock.Anything, mock.Anything)
	h.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	h.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestDeleteWorks_SaveFailureStopsBeforeSchedule(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListWorks", mock.Anything, ticketsRequest("", 100)).Return(&model.WorksPage{Works: works("work", 2), NextCursor: "next"}, nil).Once()
	h.platform.On("DeleteWork", mock.Anything, mock.Anything).Return(nil)
	h.store.On("Save", mock.Anything, testSnapInID, mock.Anything).Return(errors.New("update failed")).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Tickets", Validation: model.ValidationCleared}))

	h.store.AssertExpectations(t)
	h.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
	h.platform.AssertNotCalled(t, "CreateTimelineEntry", mock.Anything, mock.Anything)
}

func TestDeleteContacts(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListRevUsers", mock.Anything, accountsRequest("", 100)).Return(&model.RevUsersPage{
		RevUsers: []model.RevUser{{ID: "user-a"}, {ID: "user-b"}},
	}, nil).Once()
	h.platform.On("DeleteRevUser", mock.Anything, "user-a").Return(nil).Once()
	h.platform.On("DeleteRevUser", mock.Anything, "user-b").Return(nil).Once()
	h.platform.On("ListRevUsers", mock.Anything, accountsRequest("", 1)).Return(&model.RevUsersPage{}, nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything, isSummary("Successfully deleted all contacts.")).Return("summary-1", nil).Once()
	h.store.On("Save", mock.Anything, testSnapInID, model.StoredValues{ObjectType: model.ObjectContacts}).Return(nil).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Contacts", Validation: model.ValidationCleared}))

	h.platform.AssertExpectations(t)
	h.store.AssertExpectations(t)
}

func TestDeleteAccounts_Eligibility(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
		Accounts: []model.Account{{ID: "acc-ticket"}, {ID: "acc-orphan"}, {ID: "acc-free"}},
	}, nil).Once()

	h.platform.On("ListRevOrgs", mock.Anything, "acc-ticket").Return([]model.RevOrg{{ID: "org-1"}, {ID: "org-extra"}}, nil)
	h.platform.On("ListRevOrgs", mock.Anything, "acc-orphan").Return([]model.RevOrg{}, nil)
	h.platform.On("ListRevOrgs", mock.Anything, "acc-free").Return([]model.RevOrg{{ID: "org-3"}}, nil)

	linked := func(org string) model.ListWorksRequest {
		return model.ListWorksRequest{
			ListRequest:   model.ListRequest{Limit: 1},
			Type:          []model.WorkType{model.WorkTypeTicket},
			TicketRevOrgs: []string{org},
		}
	}
	h.platform.On("ListWorks", mock.Anything, linked("org-1")).Return(&model.WorksPage{Works: works("ticket", 1)}, nil)
	h.platform.On("ListWorks", mock.Anything, linked("org-3")).Return(&model.WorksPage{}, nil)
	h.platform.On("DeleteAccount", mock.Anything, "acc-free").Return(nil).Once()

	h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 1)).Return(&model.AccountsPage{Accounts: accounts("acc", 1)}, nil).Once()
	h.platform.On("CreateTimelineEntry", mock.Anything,
		isSummary("Failed to delete some accounts (Note: Accounts linked with a ticket cannot be deleted).")).Return("summary-1", nil).Once()
	h.store.On("Save", mock.Anything, testSnapInID, model.StoredValues{ObjectType: model.ObjectAccounts}).Return(nil).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Accounts", Validation: model.ValidationCleared}))

	h.platform.AssertExpectations(t)
	h.platform.AssertNumberOfCalls(t, "DeleteAccount", 1)
	h.platform.AssertNotCalled(t, "ListWorks", mock.Anything, linked("org-extra"))
	h.scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestDeleteAccounts_MorePagesSchedulesResume(t *testing.T) {
	h := newHarness(t)
	h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
		Accounts: accounts("acc", 100), NextCursor: "c1",
	}, nil).Once()
	h.platform.On("ListRevOrgs", mock.Anything, mock.Anything).Return([]model.RevOrg{}, nil)

	values := model.StoredValues{ObjectType: model.ObjectAccounts, FailedCount: 100, Validation: model.ValidationCleared}
	h.store.On("Save", mock.Anything, testSnapInID, values).Return(nil).Once()
	h.scheduler.On("Schedule", mock.Anything, mock.MatchedBy(func(ev model.ResumeEvent) bool {
		return ev.Payload.FailedCount == 100 && ev.PublishAt.Equal(fixedNow.Add(20*time.Second))
	})).Return(nil).Once()

	h.b.HandleEvent(context.Background(), newEvent(model.GlobalValues{ObjectType: "Accounts", Validation: model.ValidationCleared}))

	h.platform.AssertExpectations(t)
	h.store.AssertExpectations(t)
	h.scheduler.AssertExpectations(t)
	h.platform.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func newTestSession(h *harness, failedCount int) *session {
	return &session{
		b:           h.b,
		platform:    h.platform,
		store:       h.store,
		scheduler:   h.scheduler,
		snapInID:    testSnapInID,
		tags:        []string{testTagID},
		failedCount: failedCount,
		limit:       100,
		log:         logrus.NewEntry(logrus.New()),
	}
}

func TestCollectAccounts(t *testing.T) {
	t.Run("no carried failures reads the first page", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
			Accounts: accounts("a", 100), NextCursor: "c1",
		}, nil).Once()

		page, err := newTestSession(h, 0).collectAccounts(context.Background())
		require.NoError(t, err)
		assert.Len(t, page.accounts, 100)
		assert.True(t, page.hasMore)
		h.platform.AssertExpectations(t)
	})

	t.Run("skips whole pages then the partial offset", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
			Accounts: accounts("skipped", 100), NextCursor: "c1",
		}, nil).Once()
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("c1", 100)).Return(&model.AccountsPage{
			Accounts: accounts("b", 100), NextCursor: "c2",
		}, nil).Once()
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("c2", 100)).Return(&model.AccountsPage{
			Accounts: accounts("c", 30),
		}, nil).Once()

		page, err := newTestSession(h, 150).collectAccounts(context.Background())
		require.NoError(t, err)
		require.Len(t, page.accounts, 80)
		assert.Equal(t, "b-50", page.accounts[0].ID)
		assert.Equal(t, "b-99", page.accounts[49].ID)
		assert.Equal(t, "c-0", page.accounts[50].ID)
		assert.False(t, page.hasMore)
		h.platform.AssertExpectations(t)
	})

	t.Run("tops up a partial page and keeps the rest for later", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
			Accounts: accounts("a", 100), NextCursor: "c1",
		}, nil).Once()
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("c1", 100)).Return(&model.AccountsPage{
			Accounts: accounts("b", 100),
		}, nil).Once()

		page, err := newTestSession(h, 40).collectAccounts(context.Background())
		require.NoError(t, err)
		require.Len(t, page.accounts, 100)
		assert.Equal(t, "a-40", page.accounts[0].ID)
		assert.Equal(t, "b-39", page.accounts[99].ID)
		assert.True(t, page.hasMore)
	})

	t.Run("skip phase walks full pages below the page limit", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
			Accounts: accounts("skipped", 100), NextCursor: "c1",
		}, nil).Once()
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("c1", 100)).Return(&model.AccountsPage{
			Accounts: accounts("b", 100), NextCursor: "c2",
		}, nil).Once()

		s := newTestSession(h, 130)
		s.limit = 50
		page, err := s.collectAccounts(context.Background())
		require.NoError(t, err)
		require.Len(t, page.accounts, 50)
		assert.Equal(t, "b-30", page.accounts[0].ID)
		assert.Equal(t, "b-79", page.accounts[49].ID)
		assert.True(t, page.hasMore)
		h.platform.AssertExpectations(t)
		h.platform.AssertNumberOfCalls(t, "ListAccounts", 2)
	})

	t.Run("offset past the last page collects nothing", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(&model.AccountsPage{
			Accounts: accounts("a", 100),
		}, nil).Once()

		page, err := newTestSession(h, 120).collectAccounts(context.Background())
		require.NoError(t, err)
		assert.Empty(t, page.accounts)
		assert.False(t, page.hasMore)
		h.platform.AssertNumberOfCalls(t, "ListAccounts", 1)
	})

	t.Run("list failure is returned", func(t *testing.T) {
		h := newHarness(t)
		h.platform.On("ListAccounts", mock.Anything, accountsRequest("", 100)).Return(nil, errors.New("unavailable")).Once()

		_, err := newTestSession(h, 0).collectAccounts(context.Background())
		assert.Error(t, err)
	})
}

func TestDeleteEach_FailuresDoNotCancelSiblings(t *testing.T) {
	h := newHarness(t)
	s := newTestSession(h, 0)

	ids := []string{"a", "b", "c", "d"}
	deleted := make(chan string, len(ids))
	failures := s.deleteEach(context.Background(), model.ObjectTickets, ids, func(_ context.Context, id string) error {
		if id == "b" || id == "d" {
			return errors.New("forbidden")
		}
		deleted <- id
		return nil
	})
	close(deleted)

	assert.Equal(t, 2, failures)
	var got []string
	for id := range deleted {
		got = append(got, id)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, got)
}
