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

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
)

type groupMemberLister interface {
	ListGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error)
}

// HasAccess reports whether userID may run a bulk delete.
// Access is open when no group is configured. Lookup failures deny access.
func HasAccess(ctx context.Context, platform groupMemberLister, userID, groupID string) bool {
	if groupID == "" {
		return true
	}

	members, err := platform.ListGroupMembers(ctx, groupID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,
			"group_id": groupID,
		}).WithError(err).Error("error fetching group members, denying access")
		return false
	}

	for _, m := range members {
		if m.Member.ID == userID {
			return true
		}
	}
	return false
}
