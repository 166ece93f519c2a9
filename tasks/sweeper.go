package tasks

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/anirudh-svg/Peer-Lift/models"

	"gorm.io/gorm"
)

// Sweeper owns the three background expiry passes: idle sessions, idle
// anonymous identities, and messages past retention. Cadences are
// env-overridable for tests and staging.
type Sweeper struct {
	db   *gorm.DB
	done chan struct{}

	sessionEvery   time.Duration
	anonymousEvery time.Duration
	messageEvery   time.Duration
}

func sweepInterval(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{
		db:             db,
		done:           make(chan struct{}),
		sessionEvery:   sweepInterval("SWEEP_SESSIONS_SEC", 5*time.Minute),
		anonymousEvery: sweepInterval("SWEEP_ANONYMOUS_SEC", 10*time.Minute),
		messageEvery:   sweepInterval("SWEEP_MESSAGES_SEC", time.Hour),
	}
}

func (s *Sweeper) Run() {
	log.Printf("[Sweeper] started sessions=%s anonymous=%s messages=%s",
		s.sessionEvery, s.anonymousEvery, s.messageEvery)

	sessionTick := time.NewTicker(s.sessionEvery)
	anonTick := time.NewTicker(s.anonymousEvery)
	msgTick := time.NewTicker(s.messageEvery)
	defer sessionTick.Stop()
	defer anonTick.Stop()
	defer msgTick.Stop()

	for {
		select {
		case <-sessionTick.C:
			s.SweepSessions(time.Now())
		case <-anonTick.C:
			s.SweepAnonymousUsers(time.Now())
		case <-msgTick.C:
			s.SweepMessages(time.Now())
		case <-s.done:
			log.Println("[Sweeper] stopped")
			return
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.done)
}

// SweepSessions ends every non-ended session whose expiry has passed. Each
// session goes through the shared end path so message retention staging and
// capacity release behave exactly as a manual end would.
func (s *Sweeper) SweepSessions(now time.Time) {
	var ids []uint
	if err := s.db.Model(&models.ChatSession{}).
		Where("expires_at < ? AND status <> ?", now, models.SessionEnded).
		Pluck("id", &ids).Error; err != nil {
		log.Printf("[Sweeper] session scan failed: %v", err)
		return
	}
	for _, id := range ids {
		if err := models.EndSession(s.db, id); err != nil {
			log.Printf("[Sweeper] failed to end session %d: %v", id, err)
		}
	}
	if len(ids) > 0 {
		log.Printf("[Sweeper] ended %d expired sessions", len(ids))
	}
}

// SweepAnonymousUsers reclaims identities idle past the window. Sessions
// owned by a reclaimed identity are ended first so no session row is left
// pointing at a deleted visitor.
func (s *Sweeper) SweepAnonymousUsers(now time.Time) {
	cutoff := now.Add(-models.AnonymousIdleWindow)
	var users []models.AnonymousUser
	if err := s.db.Where("last_activity < ?", cutoff).Find(&users).Error; err != nil {
		log.Printf("[Sweeper] anonymous scan failed: %v", err)
		return
	}
	for _, u := range users {
		var sessionIDs []uint
		if err := s.db.Model(&models.ChatSession{}).
			Where("anonymous_user_id = ? AND status <> ?", u.ID, models.SessionEnded).
			Pluck("id", &sessionIDs).Error; err != nil {
			log.Printf("[Sweeper] session lookup for anonymous user %d failed: %v", u.ID, err)
			continue
		}
		ok := true
		for _, sid := range sessionIDs {
			if err := models.EndSession(s.db, sid); err != nil {
				log.Printf("[Sweeper] failed to end session %d for anonymous user %d: %v", sid, u.ID, err)
				ok = false
			}
		}
		if !ok {
			// Retry the identity on the next pass
			continue
		}
		if err := s.db.Delete(&models.AnonymousUser{}, u.ID).Error; err != nil {
			log.Printf("[Sweeper] failed to delete anonymous user %d: %v", u.ID, err)
		}
	}
	if len(users) > 0 {
		log.Printf("[Sweeper] reclaimed %d idle anonymous identities", len(users))
	}
}

// SweepMessages hard-deletes messages past their retention deadline.
func (s *Sweeper) SweepMessages(now time.Time) {
	res := s.db.Where("expires_at < ?", now).Delete(&models.Message{})
	if res.Error != nil {
		log.Printf("[Sweeper] message delete failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[Sweeper] deleted %d expired messages", res.RowsAffected)
	}
}
