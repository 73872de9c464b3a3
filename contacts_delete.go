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
)

// deleteContacts deletes one page of tagged rev users.
func (s *session) deleteContacts(ctx context.Context) {
	page, err := s.platform.ListRevUsers(ctx, s.listRequest("", s.limit))
	if err != nil {
		s.readFailed("contacts", err)
		return
	}

	ids := make([]string, 0, len(page.RevUsers))
	for _, u := range page.RevUsers {
		ids = append(ids, u.ID)
	}
	failures := s.deleteEach(ctx, model.ObjectContacts, ids, s.platform.DeleteRevUser)

	s.settle(ctx, pageResult{
		objectType:  model.ObjectContacts,
		processed:   len(ids),
		newFailures: failures,
		hasMore:     page.NextCursor != "",
		delay:       secondsOf(s.b.config.Runtime.BatchResumeDelay),
		remaining: func(ctx context.Context) (int, error) {
			probe, err := s.platform.ListRevUsers(ctx, s.listRequest("", 1))
			if err != nil {
				return 0, err
			}
			return len(probe.RevUsers), nil
		},
		success: "Successfully deleted all contacts.",
		failure: "Failed to delete all contacts.",
	})
}
