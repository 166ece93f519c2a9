package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func analyzedMessage() Message {
	score := -0.7
	label := SentimentNegative
	crisis := true
	return Message{
		ID:             7,
		SessionID:      3,
		SenderID:       "tok-abc",
		SenderType:     SenderAnonymous,
		Content:        "hello",
		Timestamp:      time.Now(),
		SentimentScore: &score,
		SentimentLabel: &label,
		Emotions:       []EmotionScore{{Emotion: "sadness", Confidence: 0.9}},
		IsCrisisFlag:   &crisis,
	}
}

func TestView_StripsAnalysisForNonCounselors(t *testing.T) {
	m := analyzedMessage()
	v := m.View(false)

	if v.SentimentScore != nil || v.SentimentLabel != nil || v.Emotions != nil || v.IsCrisisFlag != nil {
		t.Fatal("analysis fields must be stripped for non-counselor readers")
	}
	if v.Content != m.Content || v.SenderType != m.SenderType {
		t.Fatal("content fields must survive the projection")
	}

	// The stripped view must not leak analysis keys over the wire either
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"sentiment_score", "sentiment_label", "emotions", "is_crisis_flag"} {
		if strings.Contains(string(b), key) {
			t.Errorf("serialized view leaks %q", key)
		}
	}
}

func TestView_IncludesAnalysisForCounselors(t *testing.T) {
	m := analyzedMessage()
	v := m.View(true)

	if v.SentimentScore == nil || *v.SentimentScore != -0.7 {
		t.Fatal("counselor view must include the sentiment score")
	}
	if v.IsCrisisFlag == nil || !*v.IsCrisisFlag {
		t.Fatal("counselor view must include the crisis flag")
	}
	if len(v.Emotions) != 1 || v.Emotions[0].Emotion != "sadness" {
		t.Fatal("counselor view must include emotions")
	}
}

func TestView_DoesNotExposeSenderID(t *testing.T) {
	m := analyzedMessage()
	b, err := json.Marshal(m.View(true))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "tok-abc") {
		t.Fatal("sender token must never appear in the wire view")
	}
}
