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

	"github.com/blnkfinance/bulkdelete/model"
)

// deleteWorks deletes one page of tagged tickets, issues or opportunities.
func (s *session) deleteWorks(ctx context.Context, objectType model.ObjectType) {
	workType, err := objectType.WorkType()
	if err != nil {
		s.log.WithError(err).Error("invalid work type")
		return
	}

	list := func(ctx context.Context, limit int) (*model.WorksPage, error) {
		return s.platform.ListWorks(ctx, model.ListWorksRequest{
			ListRequest: s.listRequest("", limit),
			Type:        []model.WorkType{workType},
		})
	}

	page, err := list(ctx, s.limit)
	if err != nil {
		s.readFailed(string(objectType), err)
		return
	}

	ids := make([]string, 0, len(page.Works))
	for _, w := range page.Works {
		ids = append(ids, w.ID)
	}
	failures := s.deleteEach(ctx, objectType, ids, s.platform.DeleteWork)

	s.settle(ctx, pageResult{
		objectType:  objectType,
		processed:   len(ids),
		newFailures: failures,
		hasMore:     page.NextCursor != "",
		delay:       secondsOf(s.b.config.Runtime.BatchResumeDelay),
		remaining: func(ctx context.Context) (int, error) {
			probe, err := list(ctx, 1)
			if err != nil {
				return 0, err
			}
			return len(probe.Works), nil
		},
		success: fmt.Sprintf("Successfully deleted all %s.", objectType),
		failure: fmt.Sprintf("Failed to delete all %s.", objectType),
	})
}
