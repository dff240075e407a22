package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"athena/internal/interfaces"

	ollama "github.com/ollama/ollama/api"
)

// Ollama is a completion client for a local Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates an Ollama completion client. An empty baseURL
// defaults to the standard local address.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{client: ollama.NewClient(parsedURL, hc), model: model}, nil
}

// Complete sends a single system+user chat exchange and returns the
// model's answer text.
func (o *Ollama) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error) {
	stream := false
	req := &ollama.ChatRequest{
		Model:  o.model,
		Stream: &stream,
		Messages: []ollama.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Options: map[string]interface{}{
			"num_predict": maxTokens,
			"temperature": temperature,
		},
	}

	var sb strings.Builder
	err := o.client.Chat(ctx, req, func(resp ollama.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content with ollama: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

var _ interfaces.LLM = (*Ollama)(nil)
