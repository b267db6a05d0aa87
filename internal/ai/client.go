package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nursescript/internal/models"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// Sampling parameters for patient replies. Slightly high temperature keeps
// the role-play from sounding canned; the token cap keeps answers
// patient-length.
const (
	maxResponseTokens = 250
	temperature       = 0.8
	topP              = 0.9
)

var ErrNotConfigured = errors.New("AI service is not configured")

// Client talks to the OpenRouter chat completions API
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	referer    string
}

// NewClient creates an AI client. An empty apiKey yields an unconfigured
// client whose calls fail with ErrNotConfigured.
func NewClient(apiKey, model, referer string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    openRouterURL,
		referer:    referer,
	}
}

// IsConfigured reports whether an API key is present
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the configured model identifier
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GeneratePatientResponse produces the patient's next reply for a student's
// consultation. The persona is rebuilt from the room code and student id on
// every call, so no conversation state lives on the server beyond what the
// client sends back.
func (c *Client) GeneratePatientResponse(ctx context.Context, roomCode, studentID, message string, history []models.ChatMessage) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	patient := GeneratePatient(roomCode, studentID)

	messages := []chatMessage{{Role: "system", Content: SystemPrompt(patient)}}
	for _, turn := range history {
		role := "user"
		if turn.Sender == "patient" {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Message})
	}
	messages = append(messages, chatMessage{Role: "user", Content: message})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxResponseTokens,
		Temperature: temperature,
		TopP:        topP,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
		req.Header.Set("X-Title", "NurseScript")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode AI response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("AI provider error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI provider returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("AI provider returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
