package models

import "time"

// Daily message quota per anonymous visitor. The counter resets on the
// server-local calendar day boundary, not on a rolling 24h window.
const DailyMessageLimit = 50

// AnonymousUser represents a visitor without a persistent identity. The
// session token is generated client-side and stored in localStorage.
type AnonymousUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionToken string    `gorm:"size:64;uniqueIndex;not null" json:"session_token"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	MessageCount int       `gorm:"default:0" json:"message_count"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`
	IPHash       *string   `gorm:"size:64" json:"-"` // Hashed IP for abuse tracking, never returned
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (AnonymousUser) TableName() string {
	return "anonymous_users"
}

// SameLocalDay reports whether a and b fall on the same server-local calendar day.
func SameLocalDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// MessagesSentToday returns the effective daily counter at the given time.
// A counter accumulated on a previous day reads as zero.
func (u *AnonymousUser) MessagesSentToday(now time.Time) int {
	if SameLocalDay(u.LastActivity, now) {
		return u.MessageCount
	}
	return 0
}

// CanSendMessage reports whether the visitor is still under the daily quota.
func (u *AnonymousUser) CanSendMessage(now time.Time) bool {
	return u.MessagesSentToday(now) < DailyMessageLimit
}
