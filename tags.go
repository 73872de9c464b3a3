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
	"time"

	"github.com/blnkfinance/bulkdelete/internal/cache"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/sirupsen/logrus"
)

// tagListLimit is the number of tags looked up when naming the configured tags.
const tagListLimit = 100

type tagLister interface {
	ListTags(ctx context.Context, limit int) ([]model.Tag, error)
}

func tagCacheKey(snapInID string) string {
	return "tags:" + snapInID
}

// FilteredTagNames maps the configured tag ids to display names, in platform order.
// Ids not among the first tagListLimit tags are dropped.
func FilteredTagNames(ctx context.Context, platform tagLister, c cache.Cache, ttl time.Duration, snapInID string, tagIDs []string) ([]string, error) {
	tags, err := listTags(ctx, platform, c, ttl, snapInID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
	}

	names := make([]string, 0, len(tagIDs))
	for _, tag := range tags {
		if _, ok := wanted[tag.ID]; ok {
			names = append(names, tag.Name)
		}
	}
	return names, nil
}

func listTags(ctx context.Context, platform tagLister, c cache.Cache, ttl time.Duration, snapInID string) ([]model.Tag, error) {
	key := tagCacheKey(snapInID)
	if c != nil {
		var cached []model.Tag
		err := c.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logrus.WithField("key", key).WithError(err).Warn("tag cache read failed")
		}
	}

	tags, err := platform.ListTags(ctx, tagListLimit)
	if err != nil {
		return nil, err
	}

	if c != nil {
		if err := c.Set(ctx, key, tags, ttl); err != nil {
			logrus.WithField("key", key).WithError(err).Warn("tag cache write failed")
		}
	}
	return tags, nil
}

// tagNames names the session tags. When the lookup fails the configured ids are used.
func (s *session) tagNames(ctx context.Context) []string {
	ttl := time.Duration(s.b.config.Runtime.TagCacheTTLSec) * time.Second
	names, err := FilteredTagNames(ctx, s.platform, s.b.tagCache, ttl, s.snapInID, s.tags)
	if err != nil {
		s.log.WithError(err).Error("error fetching tags")
		return s.tags
	}
	return names
}
