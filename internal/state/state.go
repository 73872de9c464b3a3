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

// Package state keeps the session values (object type, failed count,
// validation flag) that survive between invocations.
package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/blnkfinance/bulkdelete/model"
	"github.com/redis/go-redis/v9"
)

// SnapInUpdater is the platform call that overwrites the snap-in input values.
type SnapInUpdater interface {
	UpdateSnapInInputs(ctx context.Context, snapInID string, values model.StoredValues) error
}

// PlatformStore writes session values back to the snap-in inputs. The platform
// replays them in the next envelope, so Load has nothing to add.
type PlatformStore struct {
	platform SnapInUpdater
}

func NewPlatformStore(platform SnapInUpdater) *PlatformStore {
	return &PlatformStore{platform: platform}
}

func (s *PlatformStore) Save(ctx context.Context, snapInID string, values model.StoredValues) error {
	return s.platform.UpdateSnapInInputs(ctx, snapInID, values)
}

func (s *PlatformStore) Load(context.Context, string) (*model.StoredValues, error) {
	return nil, nil
}

const (
	keyPrefix = "bulkdelete:state:"

	fieldObjectType  = "object_type"
	fieldFailedCount = "failed_count"
	fieldValidation  = "validation"
)

// DefaultTTL bounds how long an abandoned session is remembered.
const DefaultTTL = 24 * time.Hour

// RedisStore keeps session values in a Redis hash per snap-in for the local runtime.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func Key(snapInID string) string {
	return keyPrefix + snapInID
}

func (s *RedisStore) Save(ctx context.Context, snapInID string, values model.StoredValues) error {
	key := Key(snapInID)
	err := s.client.HSet(ctx, key,
		fieldObjectType, string(values.ObjectType),
		fieldFailedCount, values.FailedCount,
		fieldValidation, string(values.Validation),
	).Err()
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// Load returns nil when nothing is stored for the snap-in.
func (s *RedisStore) Load(ctx context.Context, snapInID string) (*model.StoredValues, error) {
	fields, err := s.client.HGetAll(ctx, Key(snapInID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	values := &model.StoredValues{
		ObjectType: model.ObjectType(fields[fieldObjectType]),
		Validation: model.Validation(fields[fieldValidation]),
	}
	if raw := fields[fieldFailedCount]; raw != "" {
		values.FailedCount, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("load session state: invalid failed_count %q", raw)
		}
	}
	return values, nil
}
