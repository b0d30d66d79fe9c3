// Package openai implements the translation capability on the OpenAI chat
// completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a professional simultaneous interpreter. " +
	"Translate the user's text from %s to %s. " +
	"Return only the translated text, with no explanations and no quotation marks."

// Config holds OpenAI translator configuration.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Translator translates committed transcripts with a chat completion per
// segment.
type Translator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New creates an OpenAI-backed translator. Model defaults to GPT-4o.
func New(cfg Config) *Translator {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &Translator{
		client:  openai.NewClient(cfg.APIKey),
		model:   model,
		timeout: cfg.Timeout,
	}
}

// Translate renders text from sourceLang into targetLang.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPrompt, sourceLang, targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
