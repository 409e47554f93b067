package galengine

import (
	"testing"
	"time"
)

func TestAttemptLimiterAllowsUpToMax(t *testing.T) {
	l := newAttemptLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d blocked, want allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("attempt beyond max allowed, want blocked")
	}
}

func TestAttemptLimiterPerIP(t *testing.T) {
	l := newAttemptLimiter(1, time.Minute)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first IP blocked")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second IP blocked, limits must be per IP")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first IP allowed past its limit")
	}
}

func TestAttemptLimiterWindowExpiry(t *testing.T) {
	l := newAttemptLimiter(1, 20*time.Millisecond)

	if !l.Allow("10.0.0.1") {
		t.Fatal("first attempt blocked")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second attempt allowed within window")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Error("attempt blocked after the window expired")
	}
}
