package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 5)

	for i := 0; i < 5; i++ {
		if !rl.Allow("client-a") {
			t.Errorf("request %d should be allowed within burst", i)
		}
	}

	if rl.Allow("client-a") {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiter_IsolatesKeys(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 1)

	if !rl.Allow("client-a") {
		t.Error("first request for client-a should be allowed")
	}
	if rl.Allow("client-a") {
		t.Error("second request for client-a should be denied")
	}
	if !rl.Allow("client-b") {
		t.Error("client-b has its own bucket and should be allowed")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond, 1)

	if !rl.Allow("client-a") {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow("client-a") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(25 * time.Millisecond)

	if !rl.Allow("client-a") {
		t.Error("bucket should have refilled after the interval")
	}
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute, 3)

	if got := rl.Remaining("unseen"); got != 3 {
		t.Errorf("Remaining for unseen key = %d, want 3", got)
	}

	rl.Allow("client-a")
	if got := rl.Remaining("client-a"); got != 2 {
		t.Errorf("Remaining after one request = %d, want 2", got)
	}
}
