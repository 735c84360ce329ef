package ws

import (
	"testing"
	"time"
)

func TestPostRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewPostRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("u1") {
			t.Fatalf("Allow() #%d = false, want true", i+1)
		}
	}
	if rl.Allow("u1") {
		t.Error("Allow() over limit = true, want false")
	}
	// Other users are unaffected.
	if !rl.Allow("u2") {
		t.Error("Allow(u2) = false, want true")
	}
}

func TestPostRateLimiter_WindowSlides(t *testing.T) {
	rl := NewPostRateLimiter(1, 50*time.Millisecond)

	if !rl.Allow("u1") {
		t.Fatal("first Allow() = false, want true")
	}
	if rl.Allow("u1") {
		t.Fatal("second Allow() = true, want false")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Error("Allow() after window = false, want true")
	}
}

func TestPostRateLimiter_ZeroLimitDisables(t *testing.T) {
	rl := NewPostRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("u1") {
			t.Fatal("disabled limiter should always allow")
		}
	}
}
