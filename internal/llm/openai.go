package llm

import (
	"context"
	"fmt"
	"strings"

	"athena/internal/interfaces"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAI is a completion client for the OpenAI chat API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI completion client.
func NewOpenAI(model, apiKey string) (*OpenAI, error) {
	cfg := openai.DefaultConfig(apiKey)
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Complete sends a single system+user chat exchange and returns the
// model's answer text.
func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ interfaces.LLM = (*OpenAI)(nil)
