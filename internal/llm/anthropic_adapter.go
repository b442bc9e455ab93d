package llm

import (
	"os"

	"github.com/tmc/langchaingo/llms/anthropic"
)

func newAnthropicClient(opts Options) (generator, error) {
	oo := []anthropic.Option{}
	if opts.Model != "" {
		oo = append(oo, anthropic.WithModel(opts.Model))
	}
	if opts.BaseURL != "" {
		oo = append(oo, anthropic.WithBaseURL(opts.BaseURL))
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("POOLY_ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey != "" {
		oo = append(oo, anthropic.WithToken(apiKey))
	}
	return anthropic.New(oo...)
}
