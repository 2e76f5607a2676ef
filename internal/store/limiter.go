package store

import (
	"context"
	"fmt"
	"time"
)

// LoginLimiter controls sign-in attempts per login id.
type LoginLimiter interface {
	// Allow reports whether a sign-in may be attempted, and how long to wait if not.
	Allow(ctx context.Context, loginID string) (bool, time.Duration, error)
	// Success resets the failure counter.
	Success(ctx context.Context, loginID string) error
	// Failure records a failed attempt and reports whether the login id is now blocked.
	Failure(ctx context.Context, loginID string) (bool, time.Duration, error)
}

const (
	DefaultMaxFailures = 5
	DefaultFailWindow  = 15 * time.Minute
)

// KVLimiter counts failures in a fixed window starting at the first failure.
type KVLimiter struct {
	kv       KV
	maxFails int64
	window   time.Duration
}

func NewKVLimiter(kv KV, maxFails int, window time.Duration) *KVLimiter {
	if maxFails <= 0 {
		maxFails = DefaultMaxFailures
	}
	if window <= 0 {
		window = DefaultFailWindow
	}
	return &KVLimiter{kv: kv, maxFails: int64(maxFails), window: window}
}

var _ LoginLimiter = (*KVLimiter)(nil)

func failKey(loginID string) string { return "auth:login_fail:" + loginID }

func (l *KVLimiter) Allow(ctx context.Context, loginID string) (bool, time.Duration, error) {
	v, err := l.kv.Get(ctx, failKey(loginID))
	if err == ErrMiss {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	var n int64
	if _, err := fmt.Sscan(v, &n); err != nil {
		return true, 0, nil
	}
	if n < l.maxFails {
		return true, 0, nil
	}
	ttl, err := l.kv.TTL(ctx, failKey(loginID))
	if err != nil {
		return false, 0, err
	}
	return false, ttl, nil
}

func (l *KVLimiter) Success(ctx context.Context, loginID string) error {
	return l.kv.Del(ctx, failKey(loginID))
}

func (l *KVLimiter) Failure(ctx context.Context, loginID string) (bool, time.Duration, error) {
	n, err := l.kv.Incr(ctx, failKey(loginID), l.window)
	if err != nil {
		return false, 0, err
	}
	if n < l.maxFails {
		return false, 0, nil
	}
	ttl, err := l.kv.TTL(ctx, failKey(loginID))
	if err != nil {
		return true, 0, err
	}
	return true, ttl, nil
}
