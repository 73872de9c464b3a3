package redlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bulkdelete:lock:"

var ErrLockHeld = errors.New("session lock is already held")

const (
	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	extendScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
)

// SessionLocker hands out one lock per snap-in so duplicate resume
// deliveries never run the same session concurrently.
type SessionLocker struct {
	client   redis.UniversalClient
	ttl      time.Duration
	newToken func() string
}

func NewSessionLocker(client redis.UniversalClient, ttl time.Duration) *SessionLocker {
	return &SessionLocker{client: client, ttl: ttl, newToken: uuid.NewString}
}

// Lock is a held session lock. Only the holder's token can release or extend it.
type Lock struct {
	client redis.UniversalClient
	key    string
	value  string
}

// Acquire takes the lock for snapInID or returns ErrLockHeld.
func (s *SessionLocker) Acquire(ctx context.Context, snapInID string) (*Lock, error) {
	l := &Lock{client: s.client, key: keyPrefix + snapInID, value: s.newToken()}
	ok, err := s.client.SetNX(ctx, l.key, l.value, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, l.key)
	}
	return l, nil
}

func (l *Lock) Key() string {
	return l.key
}

func (l *Lock) Release(ctx context.Context) error {
	result, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", l.key)
	}
	return nil
}

func (l *Lock) Extend(ctx context.Context, extension time.Duration) error {
	result, err := l.client.Eval(ctx, extendScript, []string{l.key}, l.value, fmt.Sprintf("%d", extension.Milliseconds())).Result()
	if err != nil {
		return err
	}
	if result == int64(0) {
		return fmt.Errorf("lock extension failed for key %s, either lock expired or you're not the holder", l.key)
	}
	return nil
}
