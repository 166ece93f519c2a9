package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Session lifecycle states. Transitions are monotonic:
// waiting -> active -> ended, or waiting -> ended via expiry.
const (
	SessionWaiting = "waiting"
	SessionActive  = "active"
	SessionEnded   = "ended"
)

const (
	// SessionIdleWindow is the sliding inactivity window. Every accepted
	// message pushes the session expiry forward by this much.
	SessionIdleWindow = 30 * time.Minute

	// MessageRetention is how long messages survive after the owning
	// session ends (short post-session review window for counselors).
	MessageRetention = 24 * time.Hour

	// AnonymousIdleWindow is how long an anonymous identity survives
	// without activity before the sweeper reclaims it.
	AnonymousIdleWindow = 30 * time.Minute
)

var (
	ErrSessionNotFound     = errors.New("chat session not found")
	ErrSessionNotAvailable = errors.New("chat session is not waiting for a counselor")
	ErrCounselorUnverified = errors.New("counselor is not verified")
	ErrCapacityExceeded    = errors.New("counselor has reached maximum concurrent sessions")
)

// ChatSession is one conversation between an anonymous visitor and
// (once claimed) a counselor.
type ChatSession struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AnonymousUserID  uint      `gorm:"index;not null" json:"anonymous_user_id"`
	CounselorID      *uint     `gorm:"index" json:"counselor_id,omitempty"` // Account ID of the claiming counselor
	Status           string    `gorm:"type:enum('waiting','active','ended');default:'waiting';index" json:"status"`
	LastActivity     time.Time `json:"last_activity"`
	ExpiresAt        time.Time `gorm:"index" json:"expires_at"`
	IsCrisisDetected bool      `gorm:"default:false" json:"is_crisis_detected"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ClaimSession assigns a waiting session to a verified counselor, enforcing
// the counselor's concurrent session limit. The counselor row is locked for
// the duration of the transaction so that two concurrent claims cannot both
// pass the capacity check.
func ClaimSession(db *gorm.DB, sessionID uint, counselorAccountID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var counselor Counselor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ?", counselorAccountID).
			First(&counselor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCounselorUnverified
			}
			return err
		}
		if !counselor.IsVerified {
			return ErrCounselorUnverified
		}

		var activeCount int64
		if err := tx.Model(&ChatSession{}).
			Where("counselor_id = ? AND status = ?", counselorAccountID, SessionActive).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount >= int64(counselor.MaxConcurrentSessions) {
			return ErrCapacityExceeded
		}

		var session ChatSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if session.Status != SessionWaiting {
			return ErrSessionNotAvailable
		}

		now := time.Now()
		return tx.Model(&session).Updates(map[string]interface{}{
			"counselor_id":  counselorAccountID,
			"status":        SessionActive,
			"last_activity": now,
		}).Error
	})
}

// EndSession is the single shared end path, used by the anonymous handler,
// the counselor handler, and the expiry sweeper alike. It marks the session
// ended and reschedules all of its messages to expire after the retention
// window. Counselor capacity is released implicitly: the active-session
// count is derived from session status, so flipping to ended frees the slot.
// Ending an already-ended session re-runs the message cascade harmlessly.
func EndSession(db *gorm.DB, sessionID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var session ChatSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&session).Updates(map[string]interface{}{
			"status":        SessionEnded,
			"last_activity": now,
		}).Error; err != nil {
			return err
		}

		// Stage message deletion rather than deleting immediately
		return tx.Model(&Message{}).
			Where("session_id = ?", sessionID).
			Update("expires_at", now.Add(MessageRetention)).Error
	})
}

// ExtendSession is the keep-alive applied on every accepted message. The
// expiry only ever moves forward; a concurrent send with an earlier
// timestamp can never shorten a later expiry.
func ExtendSession(db *gorm.DB, sessionID uint, now time.Time) error {
	return db.Model(&ChatSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"last_activity": now,
			"expires_at":    gorm.Expr("GREATEST(expires_at, ?)", now.Add(SessionIdleWindow)),
		}).Error
}

// FlagSessionCrisis marks the session as crisis. The flag is monotonic and
// never cleared by subsequent non-crisis messages.
func FlagSessionCrisis(db *gorm.DB, sessionID uint) error {
	return db.Model(&ChatSession{}).
		Where("id = ?", sessionID).
		Update("is_crisis_detected", true).Error
}
