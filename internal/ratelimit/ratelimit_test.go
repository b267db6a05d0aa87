package ratelimit

import (
	"testing"
	"time"
)

func TestAllowEnforcesInterval(t *testing.T) {
	current := time.Unix(1000, 0)
	l := New(time.Second)
	l.now = func() time.Time { return current }

	if ok, _ := l.Allow("s1_AB12CD"); !ok {
		t.Fatal("first request should be allowed")
	}

	ok, retryAfter := l.Allow("s1_AB12CD")
	if ok {
		t.Fatal("immediate second request should be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Errorf("retryAfter = %v, want within (0, 1s]", retryAfter)
	}

	current = current.Add(1100 * time.Millisecond)
	if ok, _ := l.Allow("s1_AB12CD"); !ok {
		t.Error("request after the interval should be allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(time.Second)

	if ok, _ := l.Allow("s1_AB12CD"); !ok {
		t.Fatal("first key should be allowed")
	}
	if ok, _ := l.Allow("s2_AB12CD"); !ok {
		t.Error("a different key must not be throttled by the first")
	}
}
