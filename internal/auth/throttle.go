package auth

import (
	"context"
	"sync"
	"time"
)

// ThrottleStore counts login attempts per username. Allow records the attempt
// and reports whether it may proceed. Every attempt counts, successful or
// not; only the end of the window clears the count.
type ThrottleStore interface {
	Allow(ctx context.Context, username string) (bool, error)
}

// ThrottlePolicy bounds attempts within a window that opens on the first one.
type ThrottlePolicy struct {
	MaxAttempts int
	Window      time.Duration
}

type attempt struct {
	first time.Time
	count int
}

// MemoryThrottle keeps counters in process. Multiple instances do not share
// state; use RedisThrottle for that.
type MemoryThrottle struct {
	mu       sync.Mutex
	policy   ThrottlePolicy
	now      func() time.Time
	attempts map[string]attempt
}

// NewMemoryThrottle builds an in-process throttle.
func NewMemoryThrottle(policy ThrottlePolicy, clock func() time.Time) *MemoryThrottle {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryThrottle{policy: policy, now: clock, attempts: map[string]attempt{}}
}

func (m *MemoryThrottle) Allow(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	a, ok := m.attempts[username]
	if !ok {
		m.attempts[username] = attempt{first: now, count: 1}
		return true, nil
	}

	elapsed := now.Sub(a.first)
	if elapsed < m.policy.Window && a.count >= m.policy.MaxAttempts {
		return false, nil
	}
	if elapsed >= m.policy.Window {
		m.attempts[username] = attempt{first: now, count: 1}
		return true, nil
	}
	a.count++
	m.attempts[username] = a
	return true, nil
}

// AttemptCounter is the slice of the redis client used by RedisThrottle.
type AttemptCounter interface {
	Count(ctx context.Context, key string) (int64, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	LoginAttemptKey(username string) string
}

// RedisThrottle shares counters across instances. The key expires one window
// after the first attempt, which resets the count.
type RedisThrottle struct {
	counter AttemptCounter
	policy  ThrottlePolicy
}

// NewRedisThrottle builds a shared throttle.
func NewRedisThrottle(counter AttemptCounter, policy ThrottlePolicy) *RedisThrottle {
	return &RedisThrottle{counter: counter, policy: policy}
}

func (r *RedisThrottle) Allow(ctx context.Context, username string) (bool, error) {
	key := r.counter.LoginAttemptKey(username)
	count, err := r.counter.Count(ctx, key)
	if err != nil {
		return false, err
	}
	if count >= int64(r.policy.MaxAttempts) {
		return false, nil
	}
	if _, err := r.counter.IncrWithTTL(ctx, key, r.policy.Window); err != nil {
		return false, err
	}
	return true, nil
}
