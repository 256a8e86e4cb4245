package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/ntpapi/ntpapi/internal/testutil"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	if hashIP(ip) != hashIP(ip) {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// First 8 bytes of SHA256, encoded as 16 hex chars.
			if hash := hashIP(tt.ip); len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	if hashIP("10.0.0.1") == hashIP("10.0.0.2") {
		t.Error("Different IPs should produce different hashes")
	}
	if hashIP("127.0.0.1") == hashIP("::1") {
		t.Error("IPv4 and IPv6 loopback should produce different hashes")
	}
}

func TestParseResult(t *testing.T) {
	t.Parallel()

	res, err := parseResult([]int64{0, 3, 0}, 20)
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if res.Allowed {
		t.Error("expected request to be denied")
	}
	if res.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %s, want 3s", res.RetryAfter)
	}
	if res.Limit != 20 {
		t.Errorf("Limit = %d, want 20", res.Limit)
	}

	if _, err := parseResult([]int64{1}, 20); err == nil {
		t.Error("expected error for short reply")
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), "redis://localhost:6379", 0, 10); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := New(context.Background(), "not a url", 10, 10); err == nil {
		t.Error("expected error for invalid URL")
	}
}

// TestLimiter_Allow_Integration needs a running Redis.
func TestLimiter_Allow_Integration(t *testing.T) {
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx := context.Background()
	l, err := New(ctx, redisURL, 1, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer l.Close()

	ip := "203.0.113." + time.Now().Format("150405.000")

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, ip)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}

	res, err := l.Allow(ctx, ip)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be denied")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want positive", res.RetryAfter)
	}
}
