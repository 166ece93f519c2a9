package tasks

import (
	"log"

	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"

	"gorm.io/gorm"
)

const (
	// sentiment threshold combined with negative emotions for the
	// numeric crisis fallback
	crisisScoreThreshold      = -0.3
	crisisEmotionConfidence   = 0.6
	defaultAnalyzerQueueDepth = 256
)

// Analyzer runs sentiment and crisis classification off the request path.
// SendMessage enqueues a message id and returns immediately; a single
// worker drains the queue so classification never blocks chat delivery.
type Analyzer struct {
	db    *gorm.DB
	queue chan uint
	done  chan struct{}
}

func NewAnalyzer(db *gorm.DB) *Analyzer {
	return &Analyzer{
		db:    db,
		queue: make(chan uint, defaultAnalyzerQueueDepth),
		done:  make(chan struct{}),
	}
}

// Enqueue schedules a message for analysis. When the queue is full the
// message is dropped and the chat flow is unaffected.
func (a *Analyzer) Enqueue(messageID uint) {
	select {
	case a.queue <- messageID:
	default:
		log.Printf("[Analyzer] queue full, dropping message %d", messageID)
	}
}

func (a *Analyzer) Run() {
	log.Println("[Analyzer] worker started")
	for {
		select {
		case id := <-a.queue:
			a.process(id)
		case <-a.done:
			log.Println("[Analyzer] worker stopped")
			return
		}
	}
}

func (a *Analyzer) Stop() {
	close(a.done)
}

func (a *Analyzer) process(messageID uint) {
	var msg models.Message
	if err := a.db.First(&msg, messageID).Error; err != nil {
		log.Printf("[Analyzer] message %d not found: %v", messageID, err)
		return
	}

	// Only visitor messages are analyzed
	if msg.SenderType != models.SenderAnonymous {
		return
	}

	result, err := utils.AnalyzeText(msg.Content)
	if err != nil {
		// A failed analysis never blocks or retries; the message simply
		// stays unanalyzed.
		log.Printf("[Analyzer] analysis failed for message %d: %v", messageID, err)
		return
	}

	crisis := IsCrisis(result)
	updates := map[string]interface{}{
		"sentiment_score": result.Sentiment.Score,
		"sentiment_label": result.Sentiment.Label,
		"is_crisis_flag":  crisis,
	}
	if err := a.db.Model(&models.Message{}).Where("id = ?", messageID).Updates(updates).Error; err != nil {
		log.Printf("[Analyzer] failed to persist analysis for message %d: %v", messageID, err)
		return
	}
	if len(result.Emotions) > 0 {
		if err := a.db.Model(&models.Message{}).Where("id = ?", messageID).
			Update("emotions", result.Emotions).Error; err != nil {
			log.Printf("[Analyzer] failed to persist emotions for message %d: %v", messageID, err)
		}
	}

	if crisis {
		if err := models.FlagSessionCrisis(a.db, msg.SessionID); err != nil {
			log.Printf("[Analyzer] failed to flag session %d: %v", msg.SessionID, err)
		}
	}
}

// IsCrisis applies the escalation rule: the classifier's explicit crisis
// flag always escalates, and strongly negative sentiment combined with a
// confident sadness or anger signal escalates as a fallback.
func IsCrisis(result *utils.AnalysisResult) bool {
	if result.CrisisIndicators {
		return true
	}
	if result.Sentiment.Score < crisisScoreThreshold {
		for _, e := range result.Emotions {
			if (e.Emotion == "sadness" || e.Emotion == "anger") && e.Confidence > crisisEmotionConfidence {
				return true
			}
		}
	}
	return false
}
