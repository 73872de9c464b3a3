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

package devrev

import (
	"context"

	"github.com/blnkfinance/bulkdelete/model"
)

func (c *Client) ListWorks(ctx context.Context, req model.ListWorksRequest) (*model.WorksPage, error) {
	page := &model.WorksPage{}
	if err := c.post(ctx, "works.list", req, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) DeleteWork(ctx context.Context, id string) error {
	return c.post(ctx, "works.delete", idRequest{ID: id}, nil)
}

func (c *Client) ListAccounts(ctx context.Context, req model.ListRequest) (*model.AccountsPage, error) {
	page := &model.AccountsPage{}
	if err := c.post(ctx, "accounts.list", req, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.post(ctx, "accounts.delete", idRequest{ID: id}, nil)
}

// ListRevOrgs returns the first page of workspaces linked to the account.
func (c *Client) ListRevOrgs(ctx context.Context, accountID string) ([]model.RevOrg, error) {
	var resp struct {
		RevOrgs []model.RevOrg `json:"rev_orgs"`
	}
	payload := struct {
		Account []string `json:"account"`
	}{Account: []string{accountID}}

	if err := c.post(ctx, "rev-orgs.list", payload, &resp); err != nil {
		return nil, err
	}
	return resp.RevOrgs, nil
}

func (c *Client) ListRevUsers(ctx context.Context, req model.ListRequest) (*model.RevUsersPage, error) {
	page := &model.RevUsersPage{}
	if err := c.post(ctx, "rev-users.list", req, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (c *Client) DeleteRevUser(ctx context.Context, id string) error {
	return c.post(ctx, "rev-users.delete", idRequest{ID: id}, nil)
}

// ListGroupMembers follows the member cursor until the group is exhausted.
func (c *Client) ListGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	type membersRequest struct {
		Group  string `json:"group"`
		Cursor string `json:"cursor,omitempty"`
	}
	var members []model.GroupMember
	cursor := ""
	for {
		var resp struct {
			Members    []model.GroupMember `json:"members"`
			NextCursor string              `json:"next_cursor,omitempty"`
		}
		if err := c.post(ctx, "groups.members.list", membersRequest{Group: groupID, Cursor: cursor}, &resp); err != nil {
			return nil, err
		}
		members = append(members, resp.Members...)
		if resp.NextCursor == "" || resp.NextCursor == cursor {
			return members, nil
		}
		cursor = resp.NextCursor
	}
}

func (c *Client) ListTags(ctx context.Context, limit int) ([]model.Tag, error) {
	var resp struct {
		Tags []model.Tag `json:"tags"`
	}
	payload := struct {
		Limit int `json:"limit,omitempty"`
	}{Limit: limit}

	if err := c.post(ctx, "tags.list", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Tags, nil
}
