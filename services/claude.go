package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const claudeAPIURL = "https://api.anthropic.com/v1/messages"

// Typed failure kinds at the adapter boundary. Callers map these to fixed
// user-facing replies instead of surfacing the raw failure.
var (
	ErrNotConfigured = errors.New("claude: no API key configured")
	ErrTimeout       = errors.New("claude: request timed out")
	ErrUpstream      = errors.New("claude: upstream error")
)

// ClaudeRequest represents the request to the Claude API
type ClaudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []ClaudeMessage `json:"messages"`
}

// ClaudeMessage represents a message in the conversation
type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContentBlock represents a content block in Claude's response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ClaudeResponse represents the response from the Claude API
type ClaudeResponse struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
	Model   string         `json:"model"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Assistant forwards unclassified messages to the Claude API. It never
// invents catalog facts: the only catalog data it sees is the context the
// router passes in.
type Assistant struct {
	apiKey string
	model  string
	client *http.Client
}

func NewAssistant(apiKey, model string) *Assistant {
	return &Assistant{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

const assistantSystemPrompt = `Eres el asistente del Bot de Ventas, un bot de Telegram que vende los productos del catálogo adjunto.
Responde en el idioma del cliente (español o inglés), en dos o tres frases como máximo.
Solo menciona productos, precios y enlaces que aparezcan en la sección CATALOG.
Si el catálogo no cubre la pregunta, dilo claramente y sugiere escribir "lista" para ver los productos disponibles.`

// Reply forwards a message plus bounded context to Claude and returns the
// trimmed reply text. lastExchange may be empty.
func (a *Assistant) Reply(ctx context.Context, message, catalogContext, lastExchange string) (string, error) {
	if a.apiKey == "" {
		return "", ErrNotConfigured
	}

	var input strings.Builder
	if catalogContext != "" {
		input.WriteString("CATALOG:\n")
		input.WriteString(catalogContext)
		input.WriteString("\n\n")
	}
	if lastExchange != "" {
		input.WriteString("PREVIOUS EXCHANGE:\n")
		input.WriteString(lastExchange)
		input.WriteString("\n\n")
	}
	input.WriteString("CUSTOMER MESSAGE:\n")
	input.WriteString(message)

	requestBody := ClaudeRequest{
		Model:     a.model,
		MaxTokens: 512,
		System:    assistantSystemPrompt,
		Messages: []ClaudeMessage{
			{Role: "user", Content: input.String()},
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", claudeAPIURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) ||
			strings.Contains(err.Error(), "deadline exceeded") {
			slog.Error("Claude API timeout", "error", err, "messageLength", len(message))
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Claude API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}

	var claudeResp ClaudeResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("%w: empty response content", ErrUpstream)
	}

	slog.Info("Claude response generated",
		"inputTokens", claudeResp.Usage.InputTokens,
		"outputTokens", claudeResp.Usage.OutputTokens,
	)

	return strings.TrimSpace(claudeResp.Content[0].Text), nil
}
