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
	"sync/atomic"

	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	reasonLinkedTicket = "Linked with a ticket"
	reasonNoRevOrgs    = "No rev orgs found"
)

// accountPage is the slice of accounts one invocation processes.
type accountPage struct {
	accounts []model.Account
	hasMore  bool
}

// collectAccounts seeks past the accounts earlier invocations failed on and
// collects up to limit accounts. No cursor survives between invocations, so
// the carried failed count is replayed: whole pages of config.MaxPageLimit are
// skipped with cursor-only calls, the rest of the offset is dropped from the
// next full page and the batch is topped up from the page after it.
func (s *session) collectAccounts(ctx context.Context) (*accountPage, error) {
	limit := s.limit
	skip := s.failedCount
	cursor := ""

	for skip >= config.MaxPageLimit {
		page, err := s.platform.ListAccounts(ctx, s.listRequest(cursor, config.MaxPageLimit))
		if err != nil {
			return nil, err
		}
		skip -= config.MaxPageLimit
		cursor = page.NextCursor
		if cursor == "" {
			// everything left was already counted as failed
			return &accountPage{}, nil
		}
	}

	result := &accountPage{}
	if skip > 0 {
		page, err := s.platform.ListAccounts(ctx, s.listRequest(cursor, config.MaxPageLimit))
		if err != nil {
			return nil, err
		}
		var rest []model.Account
		if skip < len(page.Accounts) {
			rest = page.Accounts[skip:]
		}
		if len(rest) >= limit {
			result.accounts = rest[:limit]
			result.hasMore = len(rest) > limit || page.NextCursor != ""
			return result, nil
		}
		result.accounts = append(result.accounts, rest...)
		cursor = page.NextCursor
		if cursor == "" {
			return result, nil
		}
	}

	page, err := s.platform.ListAccounts(ctx, s.listRequest(cursor, limit))
	if err != nil {
		return nil, err
	}
	need := limit - len(result.accounts)
	if need > len(page.Accounts) {
		need = len(page.Accounts)
	}
	result.accounts = append(result.accounts, page.Accounts[:need]...)
	result.hasMore = page.NextCursor != "" || need < len(page.Accounts)
	return result, nil
}

// accountEligibility decides whether an account may be deleted. Only the
// first linked workspace is inspected: an open ticket on it blocks the delete,
// no ticket allows it. An account without workspaces is never deleted.
func (s *session) accountEligibility(ctx context.Context, accountID string) (bool, string) {
	orgs, err := s.platform.ListRevOrgs(ctx, accountID)
	if err != nil {
		return false, err.Error()
	}
	if len(orgs) == 0 {
		return false, reasonNoRevOrgs
	}

	works, err := s.platform.ListWorks(ctx, model.ListWorksRequest{
		ListRequest:   model.ListRequest{Limit: 1},
		Type:          []model.WorkType{model.WorkTypeTicket},
		TicketRevOrgs: []string{orgs[0].ID},
	})
	if err != nil {
		return false, err.Error()
	}
	if len(works.Works) > 0 {
		return false, reasonLinkedTicket
	}
	return true, ""
}

// deleteAccounts deletes one batch of tagged accounts that are not linked with a ticket.
func (s *session) deleteAccounts(ctx context.Context) {
	batch, err := s.collectAccounts(ctx)
	if err != nil {
		s.readFailed("accounts", err)
		return
	}

	eligible := make([]bool, len(batch.accounts))
	var ineligible atomic.Int64
	g := new(errgroup.Group)
	if n := s.b.config.Runtime.Concurrency; n > 0 {
		g.SetLimit(n)
	}
	for i, account := range batch.accounts {
		i, account := i, account
		g.Go(func() error {
			ok, reason := s.accountEligibility(ctx, account.ID)
			if !ok {
				ineligible.Add(1)
				s.log.WithFields(logrus.Fields{"account_id": account.ID, "reason": reason}).Info("account cannot be deleted")
			}
			eligible[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, 0, len(batch.accounts))
	for i, account := range batch.accounts {
		if eligible[i] {
			ids = append(ids, account.ID)
		}
	}
	failures := s.deleteEach(ctx, model.ObjectAccounts, ids, s.platform.DeleteAccount)

	s.settle(ctx, pageResult{
		objectType:  model.ObjectAccounts,
		processed:   len(batch.accounts),
		newFailures: int(ineligible.Load()) + failures,
		hasMore:     batch.hasMore,
		delay:       secondsOf(s.b.config.Runtime.AccountResumeDelay),
		remaining: func(ctx context.Context) (int, error) {
			probe, err := s.platform.ListAccounts(ctx, s.listRequest("", 1))
			if err != nil {
				return 0, err
			}
			return len(probe.Accounts), nil
		},
		success: "All accounts deleted successfully.",
		failure: "Failed to delete some accounts (Note: Accounts linked with a ticket cannot be deleted).",
	})
}
