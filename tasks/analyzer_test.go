package tasks

import (
	"testing"

	"github.com/anirudh-svg/Peer-Lift/models"
	"github.com/anirudh-svg/Peer-Lift/utils"
)

func analysis(score float64, crisis bool, emotions ...models.EmotionScore) *utils.AnalysisResult {
	r := &utils.AnalysisResult{CrisisIndicators: crisis, Emotions: emotions}
	r.Sentiment.Score = score
	return r
}

func TestIsCrisis_ExplicitFlagWins(t *testing.T) {
	// Even with positive sentiment the explicit flag escalates
	r := analysis(0.8, true, models.EmotionScore{Emotion: "joy", Confidence: 0.9})
	if !IsCrisis(r) {
		t.Fatal("expected crisis when crisis_indicators is set")
	}
}

func TestIsCrisis_NumericFallback(t *testing.T) {
	r := analysis(-0.5, false, models.EmotionScore{Emotion: "sadness", Confidence: 0.7})
	if !IsCrisis(r) {
		t.Fatal("expected crisis for negative sentiment with confident sadness")
	}

	r = analysis(-0.5, false, models.EmotionScore{Emotion: "anger", Confidence: 0.61})
	if !IsCrisis(r) {
		t.Fatal("expected crisis for negative sentiment with confident anger")
	}
}

func TestIsCrisis_BoundariesAreExclusive(t *testing.T) {
	// score exactly at the threshold does not escalate
	r := analysis(-0.3, false, models.EmotionScore{Emotion: "sadness", Confidence: 0.9})
	if IsCrisis(r) {
		t.Fatal("score at threshold should not escalate")
	}

	// confidence exactly at the threshold does not escalate
	r = analysis(-0.9, false, models.EmotionScore{Emotion: "anger", Confidence: 0.6})
	if IsCrisis(r) {
		t.Fatal("confidence at threshold should not escalate")
	}
}

func TestIsCrisis_WrongEmotionDoesNotEscalate(t *testing.T) {
	r := analysis(-0.9, false, models.EmotionScore{Emotion: "fear", Confidence: 0.95})
	if IsCrisis(r) {
		t.Fatal("fear alone should not escalate")
	}
}
