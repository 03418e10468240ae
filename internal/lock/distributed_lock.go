package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockFailed = errors.New("não foi possível obter o lock")

// unlockScript deletes the key only when it still holds our value.
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is a SET NX EX lock released through a compare-and-delete script.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

func (l *DistributedLock) Key() string { return l.key }

// TryLock does not block.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock retries TryLock every retryInterval, at most maxRetries times.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Err()
}

// BusKey is the per-bus assignment lock key.
func BusKey(busID int64) string {
	return fmt.Sprintf("caravana:lock:onibus:%d", busID)
}

// BusLocker serializes seat assignments per target bus. A nil client turns
// it into a no-op.
type BusLocker struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// Acquire locks the given buses in ascending id order and returns a release func.
func (b BusLocker) Acquire(ctx context.Context, owner string, busIDs ...int64) (func(), error) {
	if b.Client == nil || len(busIDs) == 0 {
		return func() {}, nil
	}
	ttl, retry, max := b.TTL, b.RetryInterval, b.MaxRetries
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	if max <= 0 {
		max = 50
	}

	held := []*DistributedLock{}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Unlock(ctx)
		}
	}
	token := lockToken(owner)
	for _, id := range sortedUnique(busIDs) {
		l := NewDistributedLock(b.Client, BusKey(id), token, ttl)
		if err := l.Lock(ctx, retry, max); err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", l.Key(), err)
		}
		held = append(held, l)
	}
	return release, nil
}

func sortedUnique(ids []int64) []int64 {
	seen := map[int64]bool{}
	out := []int64{}
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// lockToken is unique per acquisition so a release never deletes a lock
// re-acquired by another call with the same owner.
func lockToken(owner string) string {
	return owner + ":" + uuid.NewString()
}
