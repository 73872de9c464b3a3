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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blnkfinance/bulkdelete/internal/cache"
	"github.com/blnkfinance/bulkdelete/mocks"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHasAccess(t *testing.T) {
	member := gofakeit.UUID()
	members := []model.GroupMember{
		{Member: model.MemberRef{ID: gofakeit.UUID()}},
		{Member: model.MemberRef{ID: member}},
	}

	tests := []struct {
		name    string
		groupID string
		userID  string
		members []model.GroupMember
		err     error
		want    bool
	}{
		{name: "no group configured", groupID: "", userID: member, want: true},
		{name: "member of group", groupID: "group-1", userID: member, members: members, want: true},
		{name: "not a member", groupID: "group-1", userID: gofakeit.UUID(), members: members, want: false},
		{name: "empty group", groupID: "group-1", userID: member, members: []model.GroupMember{}, want: false},
		{name: "lookup failure", groupID: "group-1", userID: member, err: errors.New("timeout"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := new(mocks.MockPlatform)
			if tt.groupID != "" {
				if tt.err != nil {
					platform.On("ListGroupMembers", mock.Anything, tt.groupID).Return(nil, tt.err)
				} else {
					platform.On("ListGroupMembers", mock.Anything, tt.groupID).Return(tt.members, nil)
				}
			}

			assert.Equal(t, tt.want, HasAccess(context.Background(), platform, tt.userID, tt.groupID))
			if tt.groupID == "" {
				platform.AssertNotCalled(t, "ListGroupMembers", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestFilteredTagNames(t *testing.T) {
	platform := new(mocks.MockPlatform)
	platform.On("ListTags", mock.Anything, tagListLimit).Return([]model.Tag{
		{ID: "tag-1", Name: "cleanup"},
		{ID: "tag-2", Name: "keep"},
		{ID: "tag-3", Name: "archive"},
	}, nil)

	names, err := FilteredTagNames(context.Background(), platform, nil, 0, testSnapInID, []string{"tag-3", "tag-1", "tag-missing"})
	require.NoError(t, err)
	// platform order, unknown ids dropped
	assert.Equal(t, []string{"cleanup", "archive"}, names)
}

func TestFilteredTagNames_Error(t *testing.T) {
	platform := new(mocks.MockPlatform)
	platform.On("ListTags", mock.Anything, tagListLimit).Return(nil, errors.New("unavailable"))

	_, err := FilteredTagNames(context.Background(), platform, nil, 0, testSnapInID, []string{"tag-1"})
	assert.Error(t, err)
}

func TestFilteredTagNames_Cached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := cache.NewRedisCache(client)

	platform := new(mocks.MockPlatform)
	platform.On("ListTags", mock.Anything, tagListLimit).Return([]model.Tag{{ID: "tag-1", Name: "cleanup"}}, nil).Once()

	for i := 0; i < 3; i++ {
		names, err := FilteredTagNames(context.Background(), platform, c, time.Minute, testSnapInID, []string{"tag-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"cleanup"}, names)
	}
	platform.AssertNumberOfCalls(t, "ListTags", 1)
}
