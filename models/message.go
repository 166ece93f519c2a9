package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDailyQuotaExceeded = errors.New("daily message limit reached")

const (
	SenderAnonymous = "anonymous"
	SenderCounselor = "counselor"
)

// Sentiment labels and emotion names produced by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

type EmotionScore struct {
	Emotion    string  `json:"emotion"` // joy, sadness, anger, fear, neutral
	Confidence float64 `json:"confidence"`
}

// Message is one chat utterance. Analysis fields stay nil until the async
// classifier completes; they are only ever shown to counselor readers.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"index;not null" json:"session_id"`
	SenderID   string    `gorm:"size:64;not null" json:"sender_id"`
	SenderType string    `gorm:"type:enum('anonymous','counselor');not null" json:"sender_type"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	ExpiresAt  time.Time `gorm:"index" json:"-"`

	SentimentScore *float64       `json:"sentiment_score,omitempty"`
	SentimentLabel *string        `gorm:"size:10" json:"sentiment_label,omitempty"`
	Emotions       []EmotionScore `gorm:"serializer:json" json:"emotions,omitempty"`
	IsCrisisFlag   *bool          `json:"is_crisis_flag,omitempty"`

	CreatedAt time.Time `json:"-"`
}

func (Message) TableName() string {
	return "messages"
}

// AppendVisitorMessage persists a visitor message, charges the daily quota
// and extends the session keep-alive in one transaction. The visitor row is
// locked for the duration so two concurrent sends at the quota boundary
// serialize and exactly one is rejected, and a failure on any step rolls the
// message insert back with it.
func AppendVisitorMessage(db *gorm.DB, userID, sessionID uint, content string, now time.Time) (*Message, int, error) {
	var msg Message
	var sentToday int
	err := db.Transaction(func(tx *gorm.DB) error {
		var user AnonymousUser
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			return err
		}
		if !user.CanSendMessage(now) {
			return ErrDailyQuotaExceeded
		}

		msg = Message{
			SessionID:  sessionID,
			SenderID:   user.SessionToken,
			SenderType: SenderAnonymous,
			Content:    content,
			Timestamp:  now,
			ExpiresAt:  now.Add(MessageRetention),
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		sentToday = user.MessagesSentToday(now) + 1
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"message_count": sentToday,
			"last_activity": now,
		}).Error; err != nil {
			return err
		}

		return ExtendSession(tx, sessionID, now)
	})
	if err != nil {
		return nil, 0, err
	}
	return &msg, sentToday, nil
}

// MessageView is the wire representation of a message. The same stored row
// renders differently depending on the reader's role.
type MessageView struct {
	ID         uint      `json:"id"`
	SessionID  uint      `json:"session_id"`
	SenderType string    `json:"sender_type"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`

	SentimentScore *float64       `json:"sentiment_score,omitempty"`
	SentimentLabel *string        `json:"sentiment_label,omitempty"`
	Emotions       []EmotionScore `json:"emotions,omitempty"`
	IsCrisisFlag   *bool          `json:"is_crisis_flag,omitempty"`
}

// View projects the message for a reader. Analysis fields are stripped for
// everyone except counselors, including the anonymous sender of the message.
// This is a read-time projection: the stored fields are unaffected.
func (m Message) View(includeAnalysis bool) MessageView {
	view := MessageView{
		ID:         m.ID,
		SessionID:  m.SessionID,
		SenderType: m.SenderType,
		Content:    m.Content,
		Timestamp:  m.Timestamp,
	}
	if includeAnalysis {
		view.SentimentScore = m.SentimentScore
		view.SentimentLabel = m.SentimentLabel
		view.Emotions = m.Emotions
		view.IsCrisisFlag = m.IsCrisisFlag
	}
	return view
}
