package models

import (
	"testing"
	"time"
)

func TestSameLocalDay(t *testing.T) {
	base := time.Date(2025, 3, 10, 23, 50, 0, 0, time.Local)

	if !SameLocalDay(base, base.Add(5*time.Minute)) {
		t.Error("times within the same day should match")
	}
	if SameLocalDay(base, base.Add(20*time.Minute)) {
		t.Error("crossing midnight should not match")
	}
	if SameLocalDay(base, base.AddDate(0, 0, 1)) {
		t.Error("next day should not match")
	}
}

func TestMessagesSentToday_ResetsAcrossDayBoundary(t *testing.T) {
	yesterday := time.Date(2025, 3, 10, 14, 0, 0, 0, time.Local)
	today := time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local)

	u := AnonymousUser{MessageCount: 42, LastActivity: yesterday}

	if got := u.MessagesSentToday(yesterday.Add(time.Hour)); got != 42 {
		t.Errorf("same day: expected 42, got %d", got)
	}
	if got := u.MessagesSentToday(today); got != 0 {
		t.Errorf("next day: expected 0, got %d", got)
	}
}

func TestCanSendMessage_Quota(t *testing.T) {
	now := time.Now()

	u := AnonymousUser{MessageCount: DailyMessageLimit - 1, LastActivity: now}
	if !u.CanSendMessage(now) {
		t.Error("one below the limit should be allowed")
	}

	u.MessageCount = DailyMessageLimit
	if u.CanSendMessage(now) {
		t.Error("at the limit should be rejected")
	}

	// A full counter from yesterday reads as zero today
	u.LastActivity = now.AddDate(0, 0, -1)
	if !u.CanSendMessage(now) {
		t.Error("stale counter should reset across the day boundary")
	}
}
