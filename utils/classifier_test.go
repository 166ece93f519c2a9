package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func classifierServer(t *testing.T, innerPayload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		var req ClassifierRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": innerPayload}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeText_ParsesNestedPayload(t *testing.T) {
	srv := classifierServer(t, `{"sentiment":{"score":-0.6,"label":"negative"},"emotions":[{"emotion":"sadness","confidence":0.8}],"crisis_indicators":true}`)
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	result, err := AnalyzeText("I feel hopeless")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sentiment.Score != -0.6 || result.Sentiment.Label != "negative" {
		t.Errorf("wrong sentiment: %+v", result.Sentiment)
	}
	if !result.CrisisIndicators {
		t.Error("expected crisis indicators")
	}
	if len(result.Emotions) != 1 || result.Emotions[0].Emotion != "sadness" {
		t.Errorf("wrong emotions: %+v", result.Emotions)
	}
}

func TestAnalyzeText_MalformedInnerPayload(t *testing.T) {
	srv := classifierServer(t, "sorry, I cannot produce JSON")
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	if _, err := AnalyzeText("hello"); err == nil {
		t.Fatal("expected error for non-JSON inner payload")
	}
}

func TestAnalyzeText_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := AnalyzeText("hello"); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
}
