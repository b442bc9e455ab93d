// Package llm talks to the hosted language model through langchaingo.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pooly/internal/memory"

	"github.com/tmc/langchaingo/llms"
)

type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Options selects the provider and sampling parameters.
type Options struct {
	Provider    Provider
	Model       string
	// BaseURL points openai, ollama and anthropic at another endpoint. For
	// gemini it only switches to the REST transport.
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// generator is the slice of llms.Model the adapter needs.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Adapter produces one reply per call from a system prompt and a history.
type Adapter struct {
	client      generator
	model       string
	temperature float64
	maxTokens   int
}

// NewAdapter builds the provider client described by opts.
func NewAdapter(opts Options) (*Adapter, error) {
	var (
		client generator
		err    error
	)
	switch opts.Provider {
	case ProviderOpenAI, "":
		client, err = newOpenAIClient(opts)
	case ProviderOllama:
		client, err = newOllamaClient(opts)
	case ProviderAnthropic:
		client, err = newAnthropicClient(opts)
	case ProviderGemini:
		client, err = newGeminiClient(opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", opts.Provider, err)
	}
	return newWithClient(client, opts), nil
}

func newWithClient(client generator, opts Options) *Adapter {
	return &Adapter{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}
}

// Model returns the configured model name.
func (a *Adapter) Model() string {
	return a.model
}

// Complete asks the model for the next assistant message.
func (a *Adapter) Complete(ctx context.Context, systemPrompt string, history []memory.Message) (string, error) {
	messages := convertHistory(systemPrompt, history)

	opts := make([]llms.CallOption, 0, 3)
	if a.model != "" {
		opts = append(opts, llms.WithModel(a.model))
	}
	if a.temperature != 0 {
		opts = append(opts, llms.WithTemperature(a.temperature))
	}
	if a.maxTokens != 0 {
		opts = append(opts, llms.WithMaxTokens(a.maxTokens))
	}

	resp, err := a.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func convertHistory(systemPrompt string, history []memory.Message) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, m := range history {
		switch m.Role {
		case memory.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case memory.RoleAssistant:
			content := m.Content
			// some providers reject empty assistant turns
			if content == "" {
				content = " "
			}
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, content))
		}
	}
	return messages
}
