package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ordervoice/voice-bridge/internal/config"
)

// Order is the structured record extracted from a call transcript.
// It is never mutated after extraction.
type Order struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Items     []string `json:"items"`
	Time      string   `json:"time"`
	Total     string   `json:"total"`
	Confirmed bool     `json:"confirmed"`
}

// Extractor turns a call transcript into an Order
type Extractor interface {
	Extract(ctx context.Context, transcript, callerID string, now time.Time) (*Order, error)
}

const extractionInstructions = `You generate a JSON object from the transcript of a phone call between a caller ("user") and a restaurant assistant ("bot").

Return a JSON object with exactly these fields:
  name: the caller's name
  phone: the caller's phone number
  items: array of ordered items as strings, each including count when more than one
  time: the pickup time in HH:MM 24-hour format
  total: the total price as spoken in the confirmation
  confirmed: true only if the caller explicitly confirmed the final order, otherwise false

Base name, items, time and total on the last confirmation the caller agreed to. For pickup times given as a duration ("in 20 minutes"), compute the exact time from the current time provided.`

// OpenAIExtractor implements Extractor against an OpenAI-compatible
// chat-completions endpoint using JSON response format.
type OpenAIExtractor struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionsRequest struct {
	Model          string          `json:"model"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Messages       []chatMessage   `json:"messages"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// NewOpenAIExtractor creates an extractor from service configuration
func NewOpenAIExtractor(cfg *config.Config) *OpenAIExtractor {
	return &OpenAIExtractor{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIExtractionModel,
		endpoint:   cfg.OpenAIExtractionURL,
	}
}

// Extract submits the transcript plus the caller id and current local time
// and decodes the model's JSON answer into an Order.
func (e *OpenAIExtractor) Extract(ctx context.Context, transcript, callerID string, now time.Time) (*Order, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("extraction api key missing")
	}

	messages := []chatMessage{
		{
			Role:    "system",
			Content: fmt.Sprintf("%s\nCurrent time: %s", extractionInstructions, now.Format("15:04")),
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("%s\nPhone number: %s", transcript, callerID),
		},
	}

	reqBody, err := json.Marshal(chatCompletionsRequest{
		Model:          e.model,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages:       messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extraction error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("extraction returned no choices")
	}

	var order Order
	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &order); err != nil {
		return nil, fmt.Errorf("extraction returned unparseable record: %w", err)
	}
	if order.Phone == "" {
		order.Phone = callerID
	}
	return &order, nil
}
