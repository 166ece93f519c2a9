package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/anirudh-svg/Peer-Lift/models"
)

type ClassifierMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ClassifierRequest struct {
	Model       string              `json:"model"`
	Messages    []ClassifierMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type ClassifierResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// AnalysisResult is the inner JSON payload the model is instructed to emit.
type AnalysisResult struct {
	Sentiment struct {
		Score float64 `json:"score"`
		Label string  `json:"label"`
	} `json:"sentiment"`
	Emotions         []models.EmotionScore `json:"emotions"`
	CrisisIndicators bool                  `json:"crisis_indicators"`
}

const analysisSystemPrompt = `You are an AI assistant that analyzes text for emotional content and sentiment.
Analyze the following message and return a JSON response with:
1. sentiment: { score: number (-1 to 1), label: "positive" | "neutral" | "negative" }
2. emotions: array of { emotion: "joy" | "sadness" | "anger" | "fear" | "neutral", confidence: number (0-1) }
3. crisis_indicators: boolean (true if message indicates self-harm, suicide ideation, or severe distress)

Focus on mental health context. Be sensitive to subtle indicators of distress.`

// AnalyzeText sends message text to the classification endpoint and parses
// the result. The envelope's first choice content is itself a JSON document,
// so a second decode is required.
func AnalyzeText(content string) (*AnalysisResult, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := os.Getenv("CLASSIFIER_MODEL")
	if model == "" {
		model = "gpt-4.1-nano" // Default model
	}

	reqBody := ClassifierRequest{
		Model: model,
		Messages: []ClassifierMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: content},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier API error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var envelope ClassifierResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(envelope.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis payload: %w", err)
	}

	return &result, nil
}
