package middleware

import (
	"net/http/httptest"
	"testing"
)

func TestClientIPGeneric_NoTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:54321"
	r.Header.Set("X-Forwarded-For", "198.51.100.9")

	ip := clientIPGeneric(r, nil)
	if ip != "203.0.113.7" {
		t.Fatalf("expected remote addr host, got %q", ip)
	}
}

func TestClientIPGeneric_TrustedProxyHonorsXFF(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.5")

	ip := clientIPGeneric(r, []string{"10.0.0.0/8"})
	if ip != "198.51.100.9" {
		t.Fatalf("expected first XFF hop, got %q", ip)
	}
}

func TestClientIPGeneric_TrustedSingleIPUsesRealIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:8080"
	r.Header.Set("X-Real-IP", "198.51.100.20")

	ip := clientIPGeneric(r, []string{"192.0.2.1"})
	if ip != "198.51.100.20" {
		t.Fatalf("expected X-Real-IP, got %q", ip)
	}
}

func TestLockoutDurationProgression(t *testing.T) {
	cases := []struct {
		failures int
		minutes  float64
	}{
		{1, 1},
		{2, 5},
		{3, 15},
		{4, 30},
		{9, 30},
	}
	for _, c := range cases {
		if got := lockoutDuration(c.failures).Minutes(); got != c.minutes {
			t.Errorf("failures=%d: expected %v minutes, got %v", c.failures, c.minutes, got)
		}
	}
}
